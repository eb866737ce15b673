package services

import (
	"context"
	"fmt"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/utils"
)

// PaymentService opens payment handles at the gateway for a caller's booking.
// Amounts always come from the stored booking, never from the client.
type PaymentService struct {
	Bookings          BookingStore
	Provider          PaymentProvider
	Currency          string
	RequireAcceptance bool
}

func (s PaymentService) currency() string {
	if s.Currency == "" {
		return "usd"
	}
	return s.Currency
}

func (s PaymentService) payableBooking(ctx context.Context, email, bookingID string) (models.Booking, error) {
	if s.Provider == nil {
		return models.Booking{}, domain.InternalError{Msg: "payments are not configured"}
	}
	b, err := BookingService{Bookings: s.Bookings}.Get(ctx, email, bookingID)
	if err != nil {
		return models.Booking{}, err
	}
	if b.Status == models.StatusPaid {
		return models.Booking{}, domain.InvalidStateError{Msg: "booking is already paid"}
	}
	if err := payable(b, s.RequireAcceptance); err != nil {
		return models.Booking{}, err
	}
	if !b.TotalPrice.IsPositive() {
		return models.Booking{}, domain.InvalidStateError{Msg: "booking has nothing to pay"}
	}
	return b, nil
}

func bookingMetadata(b models.Booking) map[string]string {
	return map[string]string{
		"booking_id": b.ID,
		"ticket_id":  b.TicketID,
		"user_email": b.UserEmail,
		"quantity":   fmt.Sprintf("%d", b.Quantity),
	}
}

// CreateIntent opens a payment intent for the booking total.
func (s PaymentService) CreateIntent(ctx context.Context, email, bookingID string) (PaymentIntent, error) {
	b, err := s.payableBooking(ctx, email, bookingID)
	if err != nil {
		return PaymentIntent{}, err
	}
	amount := utils.ToMinorUnits(b.TotalPrice)
	intent, err := s.Provider.CreatePaymentIntent(ctx, amount, s.currency(), bookingMetadata(b))
	if err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "payment", "intent", err)
		return PaymentIntent{}, domain.InternalError{Msg: "failed to create payment intent", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "payment", "intent",
		fmt.Sprintf("booking_id=%s amount_minor=%d currency=%s", b.ID, amount, s.currency()))
	return intent, nil
}

// CreateCheckout opens a hosted checkout session for the booking total.
func (s PaymentService) CreateCheckout(ctx context.Context, email, bookingID string) (CheckoutSession, error) {
	b, err := s.payableBooking(ctx, email, bookingID)
	if err != nil {
		return CheckoutSession{}, err
	}
	amount := utils.ToMinorUnits(b.TotalPrice)
	title := fmt.Sprintf("%s x%d", b.Title, b.Quantity)
	session, err := s.Provider.CreateCheckoutSession(ctx, title, amount, s.currency(), bookingMetadata(b))
	if err != nil {
		utils.LogError(utils.RequestIDFrom(ctx), "payment", "checkout", err)
		return CheckoutSession{}, domain.InternalError{Msg: "failed to create checkout session", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "payment", "checkout",
		fmt.Sprintf("booking_id=%s session_id=%s", b.ID, session.ID))
	return session, nil
}
