package handlers

import (
	"onlineticket/internal/http/middleware"

	"github.com/gin-gonic/gin"
)

// RespondDomainError maps domain errors to HTTP responses.
func RespondDomainError(c *gin.Context, err error) {
	middleware.AbortWithError(c, err)
}
