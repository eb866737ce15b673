package handlers

import (
	"net/http"

	"onlineticket/internal/domain/models"

	"github.com/gin-gonic/gin"
)

func (h Handler) VendorCreateTicket(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var in models.TicketInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.Tickets.Create(c.Request.Context(), u, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

func (h Handler) VendorTickets(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Tickets.ListByVendor(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h Handler) VendorUpdateTicket(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in models.TicketInput
	if !BindJSONOrError(c, &in) {
		return
	}
	t, err := h.Tickets.Update(c.Request.Context(), u.Email, id, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h Handler) VendorDeleteTicket(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.Tickets.Delete(c.Request.Context(), u.Email, id); err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ticket deleted", "id": id})
}

func (h Handler) VendorBookings(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Bookings.ListForVendor(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type statusRequest struct {
	Status string `json:"status"`
}

func (h Handler) VendorUpdateBookingStatus(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	b, err := h.Bookings.UpdateStatusByVendor(c.Request.Context(), u.Email, id, req.Status)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h Handler) VendorRevenue(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	rev, err := h.Bookings.Revenue(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, rev)
}
