package services

import (
	"context"
	"time"

	"onlineticket/internal/domain/models"
)

// TicketStore is the tickets collection.
type TicketStore interface {
	Create(ctx context.Context, t *models.Ticket) error
	GetByID(ctx context.Context, id string) (models.Ticket, error)
	ListApproved(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int64, error)
	ListAdvertised(ctx context.Context, limit int) ([]models.Ticket, error)
	ListLatest(ctx context.Context, limit int) ([]models.Ticket, error)
	ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error)
	ListAll(ctx context.Context) ([]models.Ticket, error)
	Update(ctx context.Context, id string, in models.TicketInput) error
	Delete(ctx context.Context, id string) error
	SetApproved(ctx context.Context, id string, approved bool) error
	SetAdvertised(ctx context.Context, id string, advertised bool) error
	CountAdvertised(ctx context.Context) (int64, error)
	CountByVendor(ctx context.Context, vendorEmail string) (int64, error)
	// RevokeByVendor un-approves and un-advertises every ticket of the vendor.
	RevokeByVendor(ctx context.Context, vendorEmail string) (int64, error)
}

// BookingStore is the bookings collection.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id string) (models.Booking, error)
	ListByUser(ctx context.Context, userEmail string) ([]models.Booking, error)
	ListByVendor(ctx context.Context, vendorEmail string) ([]models.Booking, error)
	// ListDetailsByUser joins each booking with its live ticket.
	ListDetailsByUser(ctx context.Context, userEmail string) ([]models.BookingDetail, error)
	// UpdateStatus sets status only while the booking is still in from.
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error
	// Settle records the transaction, flips status to paid and decrements the ticket,
	// all or nothing. It reports false when the booking was already paid and
	// fails with InvalidState when its status is not in the settlement's payable set.
	Settle(ctx context.Context, s models.Settlement) (bool, error)
	VendorRevenue(ctx context.Context, vendorEmail string) (models.VendorRevenue, error)
}

// UserStore is the users collection keyed by email.
type UserStore interface {
	GetByEmail(ctx context.Context, email string) (models.User, error)
	// Upsert creates the user with role user when absent, otherwise refreshes
	// name, photo and last login.
	Upsert(ctx context.Context, u models.User) (models.User, error)
	List(ctx context.Context) ([]models.User, error)
	SetRole(ctx context.Context, email, role string) error
	MarkFraud(ctx context.Context, email string) error
}

// TransactionStore is the transactions collection.
type TransactionStore interface {
	ListByUser(ctx context.Context, userEmail string) ([]models.Transaction, error)
	GetByBookingID(ctx context.Context, bookingID string) (models.Transaction, error)
}

// Store groups the four collections behind one backend.
type Store interface {
	Tickets() TicketStore
	Bookings() BookingStore
	Users() UserStore
	Transactions() TransactionStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// PaymentProvider is the external payment gateway.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (PaymentIntent, error)
	CreateCheckoutSession(ctx context.Context, title string, amountMinor int64, currency string, metadata map[string]string) (CheckoutSession, error)
}

type PaymentIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

type CheckoutSession struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Locker provides named mutual-exclusion scopes.
type Locker interface {
	Lock(ctx context.Context, name string, ttl time.Duration) (unlock func(), err error)
}

// Notifier pushes booking events to interested clients.
type Notifier interface {
	BookingChanged(ctx context.Context, b models.Booking)
}

// Clock is swapped in tests.
type Clock func() time.Time
