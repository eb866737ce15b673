package handlers

import (
	"net/http"

	"onlineticket/internal/domain"

	"github.com/gin-gonic/gin"
)

type paymentRequest struct {
	BookingID string `json:"bookingId"`
}

func (h Handler) bindPayment(c *gin.Context) (string, bool) {
	var req paymentRequest
	if !BindJSONOrError(c, &req) {
		return "", false
	}
	if req.BookingID == "" {
		RespondDomainError(c, domain.ValidationError{Field: "bookingId", Msg: "is required"})
		return "", false
	}
	return req.BookingID, true
}

func (h Handler) CreatePaymentIntent(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := h.bindPayment(c)
	if !ok {
		return
	}
	intent, err := h.Payments.CreateIntent(c.Request.Context(), u.Email, bookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, intent)
}

func (h Handler) CreateCheckoutSession(c *gin.Context) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	bookingID, ok := h.bindPayment(c)
	if !ok {
		return
	}
	session, err := h.Payments.CreateCheckout(c.Request.Context(), u.Email, bookingID)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
