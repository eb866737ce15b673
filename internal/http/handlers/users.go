package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Name  string `json:"name"`
	Photo string `json:"photo"`
}

// Login upserts the caller. The email always comes from the verified token;
// the body may only fill in a missing name or photo.
func (h Handler) Login(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	var req loginRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if id.Name == "" {
		id.Name = req.Name
	}
	if id.Picture == "" {
		id.Picture = req.Photo
	}
	u, err := h.Users.Login(c.Request.Context(), id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handler) Profile(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	u, err := h.Users.Profile(c.Request.Context(), id.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handler) Role(c *gin.Context) {
	id, ok := identity(c)
	if !ok {
		return
	}
	u, err := h.Users.Profile(c.Request.Context(), id.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"role": u.Role, "fraud": u.Fraud, "status": u.Status})
}
