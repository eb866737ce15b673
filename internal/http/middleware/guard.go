package middleware

import (
	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/services"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// Require loads the caller's user record through the guard and applies checks.
// It must run after Auth.
func Require(g services.RoleGuard, checks ...services.Check) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := IdentityFrom(c)
		if !ok {
			AbortWithError(c, domain.UnauthorizedError{Msg: "unauthorized access"})
			return
		}
		u, err := g.Require(c.Request.Context(), id.Email, checks...)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(userKey, u)
		c.Next()
	}
}

// UserFrom returns the user stored by Require.
func UserFrom(c *gin.Context) (models.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return models.User{}, false
	}
	u, ok := v.(models.User)
	return u, ok
}
