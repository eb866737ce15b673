package handlers

import (
	"net/http"

	"onlineticket/internal/domain"

	"github.com/gin-gonic/gin"
)

// CreateTransaction settles a booking with the gateway's transaction id.
func (h Handler) CreateTransaction(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	var req settleRequest
	if !BindJSONOrError(c, &req) {
		return
	}
	if req.BookingID == "" {
		RespondDomainError(c, domain.ValidationError{Field: "bookingId", Msg: "is required"})
		return
	}
	h.settle(c, u.Email, req.BookingID, req.TransactionID)
}

func (h Handler) MyTransactions(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	items, err := h.Bookings.ListTransactions(c.Request.Context(), u.Email)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
