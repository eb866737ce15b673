package handlers

import (
	"net/http"

	"onlineticket/internal/domain"

	"github.com/gin-gonic/gin"
)

func (h Handler) AdminTickets(c *gin.Context) {
	items, err := h.Tickets.ListAll(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h Handler) AdminApproveTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Tickets.Approve(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket approved", "id": id})
}

func (h Handler) AdminRejectTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Tickets.Reject(c.Request.Context(), id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket rejected", "id": id})
}

type advertiseRequest struct {
	Advertised *bool `json:"advertised"`
}

func (h Handler) AdminAdvertiseTicket(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req advertiseRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.Advertised == nil {
		RespondDomainError(c, domain.ValidationError{Field: "advertised", Msg: "is required"})
		return
	}
	t, err := h.Tickets.SetAdvertised(c.Request.Context(), id, *req.Advertised)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handler) AdminUsers(c *gin.Context) {
	items, err := h.Users.List(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type roleRequest struct {
	Role string `json:"role"`
}

func (h Handler) AdminSetRole(c *gin.Context) {
	admin, ok := currentUser(c)
	if !ok {
		return
	}
	email, ok := pathID(c, "email")
	if !ok {
		return
	}
	var req roleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	u, err := h.Users.SetRole(c.Request.Context(), admin.Email, email, req.Role)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h Handler) AdminMarkFraud(c *gin.Context) {
	email, ok := pathID(c, "email")
	if !ok {
		return
	}
	u, revoked, err := h.Users.MarkFraud(c.Request.Context(), email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u, "ticketsRevoked": revoked})
}
