package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction records one successful payment settlement. Append-only.
type Transaction struct {
	ID            string          `json:"_id"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	BookingID     string          `json:"bookingId"`
	TicketID      string          `json:"ticketId"`
	TicketTitle   string          `json:"ticketTitle"`
	UserEmail     string          `json:"userEmail"`
	CreatedAt     time.Time       `json:"createdAt"`
}
