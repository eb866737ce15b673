package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h Handler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "online ticket backend is running"})
}

func (h Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "backend is running"})
}

func (h Handler) DBCheck(c *gin.Context) {
	if h.Store == nil {
		RespondError(c, http.StatusServiceUnavailable, "database is not connected", nil)
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		RespondError(c, http.StatusServiceUnavailable, "database check failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "database connection OK"})
}
