package middleware

import (
	"net/http"

	"onlineticket/internal/domain"
	"onlineticket/internal/utils"

	"github.com/gin-gonic/gin"
)

// StatusFor maps a domain error to an HTTP status and a stable code.
func StatusFor(err error) (int, string) {
	switch {
	case domain.IsUnauthorized(err):
		return http.StatusUnauthorized, "unauthorized"
	case domain.IsForbidden(err):
		return http.StatusForbidden, "forbidden"
	case domain.IsNotFound(err):
		return http.StatusNotFound, "not_found"
	case domain.IsValidation(err):
		return http.StatusBadRequest, "validation_error"
	case domain.IsInvalidState(err):
		return http.StatusBadRequest, "invalid_state"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// AbortWithError writes the standard error payload and stops the chain.
// Internal errors keep their detail out of the response body.
func AbortWithError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	msg := err.Error()
	detail := msg
	if status == http.StatusInternalServerError {
		utils.LogError(GetRequestID(c), "http", c.FullPath(), err)
		detail = ""
		if !domain.IsInternal(err) {
			msg = "internal server error"
		}
	}
	payload := gin.H{
		"message":    msg,
		"code":       code,
		"request_id": GetRequestID(c),
	}
	if detail != "" {
		payload["error"] = detail
	}
	c.AbortWithStatusJSON(status, payload)
}
