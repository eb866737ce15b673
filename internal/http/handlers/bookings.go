package handlers

import (
	"net/http"

	"onlineticket/internal/services"

	"github.com/gin-gonic/gin"
)

func (h Handler) CreateBooking(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var in services.CreateBookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, err := h.Bookings.Create(c.Request.Context(), u, in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h Handler) MyBookings(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Bookings.ListMine(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h Handler) BookingDetails(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Bookings.Details(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type settleRequest struct {
	BookingID     string `json:"bookingId"`
	TransactionID string `json:"transactionId"`
}

// MarkPaid settles the booking in the path. Settling an already paid booking
// succeeds without side effects.
func (h Handler) MarkPaid(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req settleRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	h.settle(c, u.Email, id, req.TransactionID)
}

func (h Handler) settle(c *gin.Context, email, bookingID, txID string) {
	b, settled, err := h.Bookings.Settle(c.Request.Context(), email, bookingID, txID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b, "settled": settled})
}
