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

const (
	DefaultAdvertiseLimit = 6
	LatestTicketsLimit    = 8

	advertiseLockName = "tickets:advertise"
	advertiseLockTTL  = 5 * time.Second
)

// TicketService owns listing, vendor self-service, admin approval and the
// advertisement slot allocator.
type TicketService struct {
	Tickets        TicketStore
	Locker         Locker
	AdvertiseLimit int
	Location       *time.Location
	Now            Clock
}

func (s TicketService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s TicketService) advertiseLimit() int {
	if s.AdvertiseLimit > 0 {
		return s.AdvertiseLimit
	}
	return DefaultAdvertiseLimit
}

// Create stores a vendor listing. New tickets start unapproved and unadvertised.
func (s TicketService) Create(ctx context.Context, vendor models.User, in models.TicketInput) (models.Ticket, error) {
	clean, err := s.validateInput(in)
	if err != nil {
		return models.Ticket{}, err
	}
	t := models.Ticket{
		Title:         clean.Title,
		Image:         clean.Image,
		From:          clean.From,
		To:            clean.To,
		TransportType: clean.TransportType,
		Perks:         clean.Perks,
		Price:         clean.Price,
		Quantity:      clean.Quantity,
		DepartureDate: clean.DepartureDate,
		DepartureTime: clean.DepartureTime,
		VendorName:    vendor.Name,
		VendorEmail:   vendor.Email,
		CreatedAt:     s.now().UTC(),
	}
	if err := s.Tickets.Create(ctx, &t); err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "failed to add ticket", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "ticket", "create", fmt.Sprintf("ticket_id=%s vendor=%s", t.ID, t.VendorEmail))
	return t, nil
}

func (s TicketService) Get(ctx context.Context, id string) (models.Ticket, error) {
	if strings.TrimSpace(id) == "" {
		return models.Ticket{}, domain.ValidationError{Field: "id", Msg: "is required"}
	}
	return s.Tickets.GetByID(ctx, id)
}

// ListApproved returns one page of approved tickets plus the total match count.
func (s TicketService) ListApproved(ctx context.Context, f models.TicketFilter, page domain.Pagination) ([]models.Ticket, domain.Pagination, error) {
	page = page.Normalize(9, 50)
	switch f.Sort {
	case "", models.SortPriceAsc, models.SortPriceDesc:
	default:
		return nil, page, domain.ValidationError{Field: "sort", Msg: "must be price_asc or price_desc"}
	}
	f.TransportType = strings.ToLower(strings.TrimSpace(f.TransportType))
	f.Offset = page.Offset()
	f.Limit = page.PageSize

	items, total, err := s.Tickets.ListApproved(ctx, f)
	if err != nil {
		return nil, page, domain.InternalError{Msg: "failed to fetch tickets", Err: err}
	}
	page.Total = total
	return items, page, nil
}

func (s TicketService) ListAdvertised(ctx context.Context) ([]models.Ticket, error) {
	items, err := s.Tickets.ListAdvertised(ctx, s.advertiseLimit())
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch advertised tickets", Err: err}
	}
	return items, nil
}

func (s TicketService) ListLatest(ctx context.Context) ([]models.Ticket, error) {
	items, err := s.Tickets.ListLatest(ctx, LatestTicketsLimit)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch latest tickets", Err: err}
	}
	return items, nil
}

func (s TicketService) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	items, err := s.Tickets.ListByVendor(ctx, vendorEmail)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch vendor tickets", Err: err}
	}
	return items, nil
}

func (s TicketService) ListAll(ctx context.Context) ([]models.Ticket, error) {
	items, err := s.Tickets.ListAll(ctx)
	if err != nil {
		return nil, domain.InternalError{Msg: "failed to fetch tickets", Err: err}
	}
	return items, nil
}

// Update replaces the vendor editable fields of a ticket the vendor owns.
func (s TicketService) Update(ctx context.Context, vendorEmail, id string, in models.TicketInput) (models.Ticket, error) {
	if _, err := s.owned(ctx, vendorEmail, id); err != nil {
		return models.Ticket{}, err
	}
	clean, err := s.validateInput(in)
	if err != nil {
		return models.Ticket{}, err
	}
	if err := s.Tickets.Update(ctx, id, clean); err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "failed to update ticket", Err: err}
	}
	return s.Tickets.GetByID(ctx, id)
}

// Delete removes a ticket the vendor owns.
func (s TicketService) Delete(ctx context.Context, vendorEmail, id string) error {
	if _, err := s.owned(ctx, vendorEmail, id); err != nil {
		return err
	}
	if err := s.Tickets.Delete(ctx, id); err != nil {
		return domain.InternalError{Msg: "failed to delete ticket", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "ticket", "delete", fmt.Sprintf("ticket_id=%s vendor=%s", id, vendorEmail))
	return nil
}

func (s TicketService) owned(ctx context.Context, vendorEmail, id string) (models.Ticket, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if !strings.EqualFold(t.VendorEmail, vendorEmail) {
		return models.Ticket{}, domain.ForbiddenError{Msg: "ticket belongs to another vendor"}
	}
	return t, nil
}

// Approve marks a ticket visible to users.
func (s TicketService) Approve(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.Tickets.SetApproved(ctx, id, true); err != nil {
		return domain.InternalError{Msg: "failed to approve ticket", Err: err}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "ticket", "approve", "ticket_id="+id)
	return nil
}

// Reject hides a ticket and frees its advertisement slot.
func (s TicketService) Reject(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Tickets.SetApproved(ctx, id, false); err != nil {
		return domain.InternalError{Msg: "failed to reject ticket", Err: err}
	}
	if t.Advertised {
		if err := s.Tickets.SetAdvertised(ctx, id, false); err != nil {
			return domain.InternalError{Msg: "failed to clear advertisement", Err: err}
		}
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "ticket", "reject", "ticket_id="+id)
	return nil
}

// SetAdvertised toggles the advertised flag. Turning it on is capped at the
// advertise limit across approved tickets; the count and the write share one lock scope.
func (s TicketService) SetAdvertised(ctx context.Context, id string, advertised bool) (models.Ticket, error) {
	if !advertised {
		if _, err := s.Get(ctx, id); err != nil {
			return models.Ticket{}, err
		}
		if err := s.Tickets.SetAdvertised(ctx, id, false); err != nil {
			return models.Ticket{}, domain.InternalError{Msg: "failed to update advertisement", Err: err}
		}
		metrics.AdvertiseToggles.WithLabelValues("removed").Inc()
		return s.Tickets.GetByID(ctx, id)
	}

	unlock, err := s.Locker.Lock(ctx, advertiseLockName, advertiseLockTTL)
	if err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "advertisement slots are busy, try again", Err: err}
	}
	defer unlock()

	t, err := s.Get(ctx, id)
	if err != nil {
		return models.Ticket{}, err
	}
	if t.Advertised {
		return t, nil
	}
	if !t.Approved {
		metrics.AdvertiseToggles.WithLabelValues("rejected").Inc()
		return models.Ticket{}, domain.InvalidStateError{Msg: "only approved tickets can be advertised"}
	}
	count, err := s.Tickets.CountAdvertised(ctx)
	if err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "failed to count advertised tickets", Err: err}
	}
	if count >= int64(s.advertiseLimit()) {
		metrics.AdvertiseToggles.WithLabelValues("rejected").Inc()
		return models.Ticket{}, domain.InvalidStateError{Msg: fmt.Sprintf("cannot advertise more than %d tickets", s.advertiseLimit())}
	}
	if err := s.Tickets.SetAdvertised(ctx, id, true); err != nil {
		return models.Ticket{}, domain.InternalError{Msg: "failed to update advertisement", Err: err}
	}
	metrics.AdvertiseToggles.WithLabelValues("added").Inc()
	t.Advertised = true
	return t, nil
}

func (s TicketService) validateInput(in models.TicketInput) (models.TicketInput, error) {
	in.Title = utils.NormalizeSpace(in.Title)
	in.From = utils.NormalizeSpace(in.From)
	in.To = utils.NormalizeSpace(in.To)
	in.Image = strings.TrimSpace(in.Image)
	in.TransportType = strings.ToLower(strings.TrimSpace(in.TransportType))
	in.Perks = utils.CleanList(in.Perks)
	in.DepartureDate = strings.TrimSpace(in.DepartureDate)

	switch {
	case in.Title == "":
		return in, domain.ValidationError{Field: "title", Msg: "is required"}
	case in.From == "" || in.To == "":
		return in, domain.ValidationError{Field: "from/to", Msg: "both locations are required"}
	case strings.EqualFold(in.From, in.To):
		return in, domain.ValidationError{Field: "to", Msg: "must differ from origin"}
	case !validTransport(in.TransportType):
		return in, domain.ValidationError{Field: "transportType", Msg: "must be bus, train, launch or plane"}
	case !in.Price.IsPositive():
		return in, domain.ValidationError{Field: "price", Msg: "must be greater than zero"}
	case in.Quantity < 0:
		return in, domain.ValidationError{Field: "quantity", Msg: "must not be negative"}
	}
	clock, err := utils.NormalizeClock(in.DepartureTime)
	if err != nil {
		return in, domain.ValidationError{Field: "departureTime", Msg: "expected HH:MM", Err: err}
	}
	in.DepartureTime = clock
	if _, err := utils.DepartureInstant(in.DepartureDate, in.DepartureTime, s.Location); err != nil {
		return in, domain.ValidationError{Field: "departureDate", Msg: "expected YYYY-MM-DD", Err: err}
	}
	in.Price = in.Price.Round(2)
	return in, nil
}

func validTransport(t string) bool {
	switch t {
	case models.TransportBus, models.TransportTrain, models.TransportLaunch, models.TransportPlane:
		return true
	}
	return false
}
