// Package memstore keeps all four collections in process memory. It backs
// STORE_DRIVER=memory and the service tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/services"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Store is safe for concurrent use; one mutex guards every collection so
// multi-document operations such as Settle are atomic.
type Store struct {
	mu           sync.Mutex
	tickets      map[string]models.Ticket
	bookings     map[string]models.Booking
	users        map[string]models.User
	transactions []models.Transaction
}

func New() *Store {
	return &Store{
		tickets:  map[string]models.Ticket{},
		bookings: map[string]models.Booking{},
		users:    map[string]models.User{},
	}
}

func (s *Store) Tickets() services.TicketStore           { return ticketStore{s} }
func (s *Store) Bookings() services.BookingStore         { return bookingStore{s} }
func (s *Store) Users() services.UserStore               { return userStore{s} }
func (s *Store) Transactions() services.TransactionStore { return transactionStore{s} }
func (s *Store) Ping(context.Context) error              { return nil }
func (s *Store) Close(context.Context) error             { return nil }

func cloneTicket(t models.Ticket) models.Ticket {
	t.Perks = append([]string(nil), t.Perks...)
	return t
}

func cloneBooking(b models.Booking) models.Booking {
	b.Perks = append([]string(nil), b.Perks...)
	return b
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(sub)))
}

type ticketStore struct{ s *Store }

func (r ticketStore) Create(_ context.Context, t *models.Ticket) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t.ID = uuid.NewString()
	r.s.tickets[t.ID] = cloneTicket(*t)
	return nil
}

func (r ticketStore) GetByID(_ context.Context, id string) (models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return models.Ticket{}, domain.NotFoundError{Resource: "ticket"}
	}
	return cloneTicket(t), nil
}

func (r ticketStore) filter(keep func(models.Ticket) bool) []models.Ticket {
	out := []models.Ticket{}
	for _, t := range r.s.tickets {
		if keep(t) {
			out = append(out, cloneTicket(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r ticketStore) ListApproved(_ context.Context, f models.TicketFilter) ([]models.Ticket, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.filter(func(t models.Ticket) bool {
		return t.Approved &&
			(f.From == "" || containsFold(t.From, f.From)) &&
			(f.To == "" || containsFold(t.To, f.To)) &&
			(f.TransportType == "" || strings.EqualFold(t.TransportType, f.TransportType))
	})
	switch f.Sort {
	case models.SortPriceAsc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price.LessThan(items[j].Price) })
	case models.SortPriceDesc:
		sort.SliceStable(items, func(i, j int) bool { return items[i].Price.GreaterThan(items[j].Price) })
	}
	total := int64(len(items))
	if f.Offset >= len(items) {
		return []models.Ticket{}, total, nil
	}
	items = items[f.Offset:]
	if f.Limit > 0 && len(items) > f.Limit {
		items = items[:f.Limit]
	}
	return items, total, nil
}

func (r ticketStore) ListAdvertised(_ context.Context, limit int) ([]models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.filter(func(t models.Ticket) bool { return t.Approved && t.Advertised })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r ticketStore) ListLatest(_ context.Context, limit int) ([]models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	items := r.filter(func(t models.Ticket) bool { return t.Approved })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (r ticketStore) ListByVendor(_ context.Context, vendorEmail string) ([]models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(t models.Ticket) bool { return strings.EqualFold(t.VendorEmail, vendorEmail) }), nil
}

func (r ticketStore) ListAll(context.Context) ([]models.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(models.Ticket) bool { return true }), nil
}

func (r ticketStore) update(id string, fn func(*models.Ticket)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return domain.NotFoundError{Resource: "ticket"}
	}
	fn(&t)
	r.s.tickets[id] = t
	return nil
}

func (r ticketStore) Update(_ context.Context, id string, in models.TicketInput) error {
	return r.update(id, func(t *models.Ticket) {
		t.Title = in.Title
		t.Image = in.Image
		t.From = in.From
		t.To = in.To
		t.TransportType = in.TransportType
		t.Perks = append([]string(nil), in.Perks...)
		t.Price = in.Price
		t.Quantity = in.Quantity
		t.DepartureDate = in.DepartureDate
		t.DepartureTime = in.DepartureTime
	})
}

func (r ticketStore) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return domain.NotFoundError{Resource: "ticket"}
	}
	delete(r.s.tickets, id)
	return nil
}

func (r ticketStore) SetApproved(_ context.Context, id string, approved bool) error {
	return r.update(id, func(t *models.Ticket) { t.Approved = approved })
}

func (r ticketStore) SetAdvertised(_ context.Context, id string, advertised bool) error {
	return r.update(id, func(t *models.Ticket) { t.Advertised = advertised })
}

func (r ticketStore) CountAdvertised(context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if t.Approved && t.Advertised {
			n++
		}
	}
	return n, nil
}

func (r ticketStore) CountByVendor(_ context.Context, vendorEmail string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, t := range r.s.tickets {
		if strings.EqualFold(t.VendorEmail, vendorEmail) {
			n++
		}
	}
	return n, nil
}

func (r ticketStore) RevokeByVendor(_ context.Context, vendorEmail string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tickets {
		if !strings.EqualFold(t.VendorEmail, vendorEmail) {
			continue
		}
		t.Approved = false
		t.Advertised = false
		r.s.tickets[id] = t
		n++
	}
	return n, nil
}

type bookingStore struct{ s *Store }

func (r bookingStore) Create(_ context.Context, b *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b.ID = uuid.NewString()
	r.s.bookings[b.ID] = cloneBooking(*b)
	return nil
}

func (r bookingStore) GetByID(_ context.Context, id string) (models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return cloneBooking(b), nil
}

func (r bookingStore) list(keep func(models.Booking) bool) []models.Booking {
	out := []models.Booking{}
	for _, b := range r.s.bookings {
		if keep(b) {
			out = append(out, cloneBooking(b))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (r bookingStore) ListByUser(_ context.Context, userEmail string) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b models.Booking) bool { return strings.EqualFold(b.UserEmail, userEmail) }), nil
}

func (r bookingStore) ListByVendor(_ context.Context, vendorEmail string) ([]models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.list(func(b models.Booking) bool { return strings.EqualFold(b.VendorEmail, vendorEmail) }), nil
}

// ListDetailsByUser drops bookings whose ticket no longer exists, like an inner join.
func (r bookingStore) ListDetailsByUser(_ context.Context, userEmail string) ([]models.BookingDetail, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.BookingDetail{}
	for _, b := range r.list(func(b models.Booking) bool { return strings.EqualFold(b.UserEmail, userEmail) }) {
		t, ok := r.s.tickets[b.TicketID]
		if !ok {
			continue
		}
		out = append(out, models.BookingDetail{Booking: b, Ticket: cloneTicket(t)})
	}
	return out, nil
}

func (r bookingStore) UpdateStatus(_ context.Context, id string, from, to models.BookingStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[id]
	if !ok {
		return domain.NotFoundError{Resource: "booking"}
	}
	if b.Status != from {
		return domain.InvalidStateError{Msg: "booking status changed, reload and retry"}
	}
	b.Status = to
	r.s.bookings[id] = b
	return nil
}

func (r bookingStore) Settle(_ context.Context, st models.Settlement) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	b, ok := r.s.bookings[st.BookingID]
	if !ok {
		return false, domain.NotFoundError{Resource: "booking"}
	}
	if b.Status == models.StatusPaid {
		return false, nil
	}
	if !st.Payable(b.Status) {
		return false, notPayable(b.Status)
	}
	t, ok := r.s.tickets[st.TicketID]
	if !ok {
		return false, domain.NotFoundError{Resource: "ticket"}
	}
	if t.Quantity < st.Quantity {
		return false, domain.InvalidStateError{Msg: "not enough tickets left to settle this booking"}
	}

	tx := st.Transaction
	tx.ID = uuid.NewString()
	if tx.TransactionID == "" {
		tx.TransactionID = "local_" + tx.ID
	}
	r.s.transactions = append(r.s.transactions, tx)
	b.Status = models.StatusPaid
	r.s.bookings[b.ID] = b
	t.Quantity -= st.Quantity
	r.s.tickets[t.ID] = t
	return true, nil
}

func notPayable(status models.BookingStatus) error {
	return domain.InvalidStateError{Msg: fmt.Sprintf("booking is %s and cannot be paid", status)}
}

func (r bookingStore) VendorRevenue(_ context.Context, vendorEmail string) (models.VendorRevenue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rev := models.VendorRevenue{VendorEmail: vendorEmail, TotalRevenue: decimal.Zero}
	for _, b := range r.s.bookings {
		if b.Status != models.StatusPaid || !strings.EqualFold(b.VendorEmail, vendorEmail) {
			continue
		}
		rev.TotalRevenue = rev.TotalRevenue.Add(b.TotalPrice)
		rev.TicketsSold += int64(b.Quantity)
		rev.PaidBookings++
	}
	return rev, nil
}

type userStore struct{ s *Store }

func (r userStore) GetByEmail(_ context.Context, email string) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[strings.ToLower(email)]
	if !ok {
		return models.User{}, domain.NotFoundError{Resource: "user"}
	}
	return u, nil
}

func (r userStore) Upsert(_ context.Context, u models.User) (models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(u.Email)
	existing, ok := r.s.users[key]
	if !ok {
		u.ID = uuid.NewString()
		u.Email = key
		r.s.users[key] = u
		return u, nil
	}
	if u.Name != "" {
		existing.Name = u.Name
	}
	if u.Photo != "" {
		existing.Photo = u.Photo
	}
	existing.LastLogin = u.LastLogin
	r.s.users[key] = existing
	return existing, nil
}

func (r userStore) List(context.Context) ([]models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.User, 0, len(r.s.users))
	for _, u := range r.s.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, nil
}

func (r userStore) set(email string, fn func(*models.User)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := strings.ToLower(email)
	u, ok := r.s.users[key]
	if !ok {
		return domain.NotFoundError{Resource: "user"}
	}
	fn(&u)
	r.s.users[key] = u
	return nil
}

func (r userStore) SetRole(_ context.Context, email, role string) error {
	return r.set(email, func(u *models.User) { u.Role = role })
}

func (r userStore) MarkFraud(_ context.Context, email string) error {
	return r.set(email, func(u *models.User) {
		u.Fraud = true
		u.Status = models.UserStatusBlocked
	})
}

type transactionStore struct{ s *Store }

func (r transactionStore) ListByUser(_ context.Context, userEmail string) ([]models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Transaction{}
	for i := len(r.s.transactions) - 1; i >= 0; i-- {
		if strings.EqualFold(r.s.transactions[i].UserEmail, userEmail) {
			out = append(out, r.s.transactions[i])
		}
	}
	return out, nil
}

func (r transactionStore) GetByBookingID(_ context.Context, bookingID string) (models.Transaction, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, tx := range r.s.transactions {
		if tx.BookingID == bookingID {
			return tx, nil
		}
	}
	return models.Transaction{}, domain.NotFoundError{Resource: "transaction"}
}
