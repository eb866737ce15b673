package middleware

import (
	"context"
	"strings"

	"onlineticket/internal/domain"

	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// Verifier checks a bearer credential.
type Verifier interface {
	Verify(ctx context.Context, raw string) (domain.Identity, error)
}

// Auth rejects requests without a valid bearer token and stores the identity.
func Auth(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			AbortWithError(c, domain.UnauthorizedError{Msg: "unauthorized access"})
			return
		}
		id, err := v.Verify(c.Request.Context(), strings.TrimSpace(token))
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(identityKey, id)
		c.Next()
	}
}

// IdentityFrom returns the identity stored by Auth.
func IdentityFrom(c *gin.Context) (domain.Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := v.(domain.Identity)
	return id, ok
}
