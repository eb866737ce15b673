package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Booking is a user's reservation against a ticket. The ticket fields are a snapshot
// taken at creation time; only TicketID refers back to the live listing.
type Booking struct {
	ID            string          `json:"_id"`
	TicketID      string          `json:"ticketId"`
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	TransportType string          `json:"transportType"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	Perks         []string        `json:"perks"`
	DepartureDate string          `json:"departureDate"`
	DepartureTime string          `json:"departureTime"`
	UserEmail     string          `json:"userEmail"`
	UserName      string          `json:"userName"`
	VendorEmail   string          `json:"vendorEmail"`
	Quantity      int             `json:"quantity"`
	Status        BookingStatus   `json:"status"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// BookingDetail joins a booking with the live ticket it points at.
type BookingDetail struct {
	Booking
	Ticket Ticket `json:"ticket"`
}

// Settlement is the single store-side unit of work for marking a booking paid.
type Settlement struct {
	BookingID   string
	TicketID    string
	Quantity    int
	Transaction Transaction
	// PayableFrom lists the statuses the booking may still be in when the store
	// claims it. Empty means every status that can transition to paid.
	PayableFrom []BookingStatus
}

// Payable reports whether status may be claimed for payment.
func (s Settlement) Payable(status BookingStatus) bool {
	if len(s.PayableFrom) == 0 {
		return status.CanTransition(StatusPaid)
	}
	for _, p := range s.PayableFrom {
		if p == status {
			return true
		}
	}
	return false
}

// PayableStatuses returns the statuses a claim may start from.
func (s Settlement) PayableStatuses() []BookingStatus {
	if len(s.PayableFrom) > 0 {
		return s.PayableFrom
	}
	return PayableStatuses(false)
}

// VendorRevenue summarizes paid business for a vendor.
type VendorRevenue struct {
	VendorEmail  string          `json:"vendorEmail"`
	TotalRevenue decimal.Decimal `json:"totalRevenue"`
	TicketsSold  int64           `json:"totalTicketsSold"`
	TicketsAdded int64           `json:"totalTicketsAdded"`
	PaidBookings int64           `json:"paidBookings"`
}
