package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/utils"
)

// UserService keeps the user registry: login upserts, role changes and
// vendor fraud marking.
type UserService struct {
	Users   UserStore
	Tickets TicketStore
	Now     Clock
}

func (s UserService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Login records a verified identity, creating the user with role "user" on first sight.
func (s UserService) Login(ctx context.Context, id domain.Identity) (models.User, error) {
	email := utils.NormalizeEmail(id.Email)
	if email == "" {
		return models.User{}, domain.UnauthorizedError{Msg: "identity has no email"}
	}
	now := s.now().UTC()
	u, err := s.Users.Upsert(ctx, models.User{
		Email:     email,
		Name:      utils.NormalizeSpace(id.Name),
		Photo:     strings.TrimSpace(id.Picture),
		Role:      models.RoleUser,
		Status:    models.UserStatusActive,
		CreatedAt: now,
		LastLogin: now,
	})
	if err != nil {
		return models.User{}, domain.InternalError{Msg: "failed to save user", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "user", "login", "email="+email)
	return u, nil
}

func (s UserService) Profile(ctx context.Context, email string) (models.User, error) {
	u, err := s.Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return models.User{}, err
		}
		return models.User{}, domain.InternalError{Msg: "failed to load user", Err: err}
	}
	return u, nil
}

func (s UserService) List(ctx context.Context) ([]models.User, error) {
	items, err := s.Users.List(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch users", Err: err}
	}
	return items, nil
}

// SetRole changes the role of an existing user. Admins cannot demote themselves.
func (s UserService) SetRole(ctx context.Context, adminEmail, email, role string) (models.User, error) {
	email = utils.NormalizeEmail(email)
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.ValidRole(role) {
		return models.User{}, domain.ValidationError{Field: "role", Msg: "must be user, vendor or admin"}
	}
	u, err := s.Profile(ctx, email)
	if err != nil {
		return models.User{}, err
	}
	if u.Role == role {
		return u, nil
	}
	if strings.EqualFold(adminEmail, email) {
		return models.User{}, domain.InvalidStateError{Msg: "admins cannot change their own role"}
	}
	if err := s.Users.SetRole(ctx, email, role); err != nil {
		return models.User{}, domain.InternalError{Msg: "failed to update role", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "user", "set_role", fmt.Sprintf("email=%s %s->%s", email, u.Role, role))
	u.Role = role
	return u, nil
}

// MarkFraud blocks a vendor and revokes approval on all of its tickets.
func (s UserService) MarkFraud(ctx context.Context, email string) (models.User, int64, error) {
	email = utils.NormalizeEmail(email)
	u, err := s.Profile(ctx, email)
	if err != nil {
		return models.User{}, 0, err
	}
	if u.Role != models.RoleVendor {
		return models.User{}, 0, domain.InvalidStateError{Msg: "only vendors can be marked as fraud"}
	}
	if err := s.Users.MarkFraud(ctx, email); err != nil {
		return models.User{}, 0, domain.InternalError{Msg: "failed to mark fraud", Err: err}
	}
	revoked, err := s.Tickets.RevokeByVendor(ctx, email)
	if err != nil {
		return models.User{}, 0, domain.InternalError{Msg: "failed to revoke vendor tickets", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "user", "mark_fraud", fmt.Sprintf("email=%s tickets_revoked=%d", email, revoked))
	u.Fraud = true
	u.Status = models.UserStatusBlocked
	return u, revoked, nil
}
