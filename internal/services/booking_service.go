package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/metrics"
	"onlineticket/internal/utils"
)

// BookingService holds the booking lifecycle: creation against live stock,
// vendor status changes and at-most-once settlement.
type BookingService struct {
	Tickets      TicketStore
	Bookings     BookingStore
	Transactions TransactionStore
	Notifier     Notifier
	Location     *time.Location
	Now          Clock
	Currency     string

	// RequireAcceptance blocks settlement of bookings still pending vendor review.
	RequireAcceptance bool
}

type CreateBookingInput struct {
	TicketID string `json:"ticketId"`
	Quantity int    `json:"quantity"`
}

func (s BookingService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s BookingService) notify(ctx context.Context, b models.Booking) {
	if s.Notifier != nil {
		s.Notifier.BookingChanged(ctx, b)
	}
}

// Create books quantity seats of a ticket for the caller. Stock is checked here
// but only decremented at settlement.
func (s BookingService) Create(ctx context.Context, user models.User, in CreateBookingInput) (models.Booking, error) {
	if strings.TrimSpace(in.TicketID) == "" {
		return models.Booking{}, domain.ValidationError{Field: "ticketId", Msg: "is required"}
	}
	t, err := s.Tickets.GetByID(ctx, in.TicketID)
	if err != nil {
		return models.Booking{}, err
	}
	if !t.Approved {
		return models.Booking{}, domain.InvalidStateError{Msg: "ticket is not available for booking"}
	}

	departure, err := utils.DepartureInstant(t.DepartureDate, t.DepartureTime, s.Location)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "ticket has an unreadable departure", Err: err}
	}
	if !departure.After(s.now()) {
		return models.Booking{}, domain.InvalidStateError{Msg: "ticket has already departed"}
	}

	switch {
	case in.Quantity <= 0:
		return models.Booking{}, domain.InvalidStateError{Msg: "quantity must be at least 1"}
	case t.Quantity == 0:
		return models.Booking{}, domain.InvalidStateError{Msg: "ticket is sold out"}
	case in.Quantity > t.Quantity:
		return models.Booking{}, domain.InvalidStateError{Msg: fmt.Sprintf("only %d tickets left", t.Quantity)}
	}

	clock, err := utils.NormalizeClock(t.DepartureTime)
	if err != nil {
		return models.Booking{}, domain.InternalError{Msg: "ticket has an unreadable departure time", Err: err}
	}

	b := models.Booking{
		TicketID:      t.ID,
		Title:         t.Title,
		Image:         t.Image,
		UnitPrice:     t.Price,
		TotalPrice:    utils.LineTotal(t.Price, in.Quantity),
		TransportType: t.TransportType,
		From:          t.From,
		To:            t.To,
		Perks:         append([]string(nil), t.Perks...),
		DepartureDate: t.DepartureDate,
		DepartureTime: clock,
		UserEmail:     user.Email,
		UserName:      user.Name,
		VendorEmail:   t.VendorEmail,
		Quantity:      in.Quantity,
		Status:        models.StatusPending,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Bookings.Create(ctx, &b); err != nil {
		return models.Booking{}, domain.InternalError{Msg: "failed to create booking", Err: err}
	}
	metrics.BookingsCreated.Inc()
	utils.LogEvent(utils.RequestIDFrom(ctx), "booking", "create",
		fmt.Sprintf("booking_id=%s ticket_id=%s qty=%d total=%s", b.ID, b.TicketID, b.Quantity, b.TotalPrice.StringFixed(2)))
	s.notify(ctx, b)
	return b, nil
}

// Get returns a booking owned by email.
func (s BookingService) Get(ctx context.Context, email, id string) (models.Booking, error) {
	b, err := s.Bookings.GetByID(ctx, id)
	if err != nil {
		return models.Booking{}, err
	}
	if !strings.EqualFold(b.UserEmail, email) {
		return models.Booking{}, domain.ForbiddenError{Msg: "booking belongs to another user"}
	}
	return b, nil
}

// Settle marks a booking paid. A second call on a paid booking succeeds without
// side effects. externalTxID is the payment provider's reference; when empty a
// local reference is generated by the store.
func (s BookingService) Settle(ctx context.Context, email, bookingID, externalTxID string) (models.Booking, bool, error) {
	b, err := s.Get(ctx, email, bookingID)
	if err != nil {
		return models.Booking{}, false, err
	}
	if b.Status == models.StatusPaid {
		metrics.Settlements.WithLabelValues("already_paid").Inc()
		return b, false, nil
	}
	if err := payable(b, s.RequireAcceptance); err != nil {
		metrics.Settlements.WithLabelValues("rejected").Inc()
		return models.Booking{}, false, err
	}

	currency := s.Currency
	if currency == "" {
		currency = "usd"
	}
	settlement := models.Settlement{
		BookingID: b.ID,
		TicketID:  b.TicketID,
		Quantity:  b.Quantity,
		Transaction: models.Transaction{
			TransactionID: strings.TrimSpace(externalTxID),
			Amount:        b.TotalPrice,
			Currency:      currency,
			BookingID:     b.ID,
			TicketID:      b.TicketID,
			TicketTitle:   b.Title,
			UserEmail:     b.UserEmail,
			CreatedAt:     s.now().UTC(),
		},
		PayableFrom: models.PayableStatuses(s.RequireAcceptance),
	}
	settled, err := s.Bookings.Settle(ctx, settlement)
	if err != nil {
		metrics.Settlements.WithLabelValues("failed").Inc()
		if domain.IsInvalidState(err) || domain.IsNotFound(err) {
			return models.Booking{}, false, err
		}
		return models.Booking{}, false, domain.InternalError{Msg: "failed to settle booking", Err: err}
	}
	if !settled {
		// Lost a race with a concurrent settlement of the same booking.
		metrics.Settlements.WithLabelValues("already_paid").Inc()
		b.Status = models.StatusPaid
		return b, false, nil
	}

	metrics.Settlements.WithLabelValues("settled").Inc()
	b.Status = models.StatusPaid
	utils.LogEvent(utils.RequestIDFrom(ctx), "booking", "settle",
		fmt.Sprintf("booking_id=%s ticket_id=%s qty=%d amount=%s", b.ID, b.TicketID, b.Quantity, b.TotalPrice.StringFixed(2)))
	s.notify(ctx, b)
	return b, true, nil
}

// payable reports whether a not yet paid booking may move to paid.
func payable(b models.Booking, requireAcceptance bool) error {
	if !b.Status.CanTransition(models.StatusPaid) {
		return domain.InvalidStateError{Msg: fmt.Sprintf("booking is %s and cannot be paid", b.Status)}
	}
	if requireAcceptance && b.Status == models.StatusPending {
		return domain.InvalidStateError{Msg: "booking has not been accepted by the vendor"}
	}
	return nil
}

// UpdateStatusByVendor applies a vendor decision to a booking on one of its tickets.
func (s BookingService) UpdateStatusByVendor(ctx context.Context, vendorEmail, bookingID, rawStatus string) (models.Booking, error) {
	next, ok := models.ParseBookingStatus(rawStatus)
	if !ok {
		return models.Booking{}, domain.ValidationError{Field: "status", Msg: fmt.Sprintf("unknown status %q", rawStatus)}
	}
	b, err := s.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if !strings.EqualFold(b.VendorEmail, vendorEmail) {
		return models.Booking{}, domain.ForbiddenError{Msg: "booking is not for one of your tickets"}
	}
	if next == models.StatusPaid {
		return models.Booking{}, domain.InvalidStateError{Msg: "bookings become paid only through payment"}
	}
	if b.Status == next {
		return b, nil
	}
	if !b.Status.CanTransition(next) {
		return models.Booking{}, domain.InvalidStateError{Msg: fmt.Sprintf("cannot move booking from %s to %s", b.Status, next)}
	}
	if err := s.Bookings.UpdateStatus(ctx, b.ID, b.Status, next); err != nil {
		if domain.IsInvalidState(err) || domain.IsNotFound(err) {
			return models.Booking{}, err
		}
		return models.Booking{}, domain.InternalError{Msg: "failed to update booking status", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "booking", "status",
		fmt.Sprintf("booking_id=%s %s->%s vendor=%s", b.ID, b.Status, next, vendorEmail))
	b.Status = next
	s.notify(ctx, b)
	return b, nil
}

func (s BookingService) ListMine(ctx context.Context, email string) ([]models.Booking, error) {
	items, err := s.Bookings.ListByUser(ctx, email)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch bookings", Err: err}
	}
	return items, nil
}

// Details returns the caller's bookings joined with the live ticket rows.
func (s BookingService) Details(ctx context.Context, email string) ([]models.BookingDetail, error) {
	items, err := s.Bookings.ListDetailsByUser(ctx, email)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch booking details", Err: err}
	}
	return items, nil
}

func (s BookingService) ListForVendor(ctx context.Context, vendorEmail string) ([]models.Booking, error) {
	items, err := s.Bookings.ListByVendor(ctx, vendorEmail)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch vendor bookings", Err: err}
	}
	return items, nil
}

// Revenue sums paid bookings of the vendor together with its listing count.
func (s BookingService) Revenue(ctx context.Context, vendorEmail string) (models.VendorRevenue, error) {
	rev, err := s.Bookings.VendorRevenue(ctx, vendorEmail)
	if err != nil {
		return models.VendorRevenue{}, domain.InternalError{Msg: "failed to compute revenue", Err: err}
	}
	added, err := s.Tickets.CountByVendor(ctx, vendorEmail)
	if err != nil {
		return models.VendorRevenue{}, domain.InternalError{Msg: "failed to count vendor tickets", Err: err}
	}
	rev.VendorEmail = vendorEmail
	rev.TicketsAdded = added
	rev.TotalRevenue = rev.TotalRevenue.Round(2)
	return rev, nil
}

func (s BookingService) ListTransactions(ctx context.Context, email string) ([]models.Transaction, error) {
	items, err := s.Transactions.ListByUser(ctx, email)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch transactions", Err: err}
	}
	return items, nil
}
