package services

import (
	"context"
	"fmt"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
)

// Check is a single capability predicate applied to the caller's user record.
type Check func(u models.User) error

// HasRole passes only users whose role equals role.
func HasRole(role string) Check {
	return func(u models.User) error {
		if u.Role != role {
			return domain.ForbiddenError{Msg: fmt.Sprintf("%s only actions", role), ActualRole: u.Role}
		}
		return nil
	}
}

// NotBlocked rejects accounts blocked by an admin (fraud marking).
func NotBlocked() Check {
	return func(u models.User) error {
		if u.Status == models.UserStatusBlocked || u.Fraud {
			return domain.ForbiddenError{Msg: "account is blocked", ActualRole: u.Role}
		}
		return nil
	}
}

// RoleGuard loads the caller by verified email and runs checks in order.
type RoleGuard struct {
	Users UserStore
}

// Require returns the user record when every check passes. A missing user is
// reported as Forbidden, not NotFound.
func (g RoleGuard) Require(ctx context.Context, email string, checks ...Check) (models.User, error) {
	u, err := g.Users.GetByEmail(ctx, email)
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, domain.ForbiddenError{Msg: "user not registered"}
		}
		return models.User{}, domain.InternalError{Msg: "failed to load user", Err: err}
	}
	for _, check := range checks {
		if err := check(u); err != nil {
			return models.User{}, err
		}
	}
	return u, nil
}
