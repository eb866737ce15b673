package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetETicketPDF returns the e-ticket of a paid booking (inline).
func (h Handler) GetETicketPDF(c *gin.Context) {
	h.servePDF(c, h.Docs.GenerateETicket)
}

// GetInvoicePDF returns the invoice of a paid booking (inline).
func (h Handler) GetInvoicePDF(c *gin.Context) {
	h.servePDF(c, h.Docs.GenerateInvoice)
}

func (h Handler) servePDF(c *gin.Context, gen func(ctx context.Context, email, bookingID string) ([]byte, string, error)) {
	u, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	pdfBytes, filename, err := gen(c.Request.Context(), u.Email, id)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
