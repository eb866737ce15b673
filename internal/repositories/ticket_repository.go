package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"onlineticket/internal/domain/models"

	"github.com/google/uuid"
)

const ticketColumns = `id, title, image, from_location, to_location, transport_type, perks, price, quantity,
		departure_date, departure_time, vendor_name, vendor_email, approved, advertised, created_at`

type TicketRepository struct {
	DB *sql.DB
}

func scanTicket(row rowScanner) (models.Ticket, error) {
	var (
		t     models.Ticket
		perks []byte
	)
	err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Image,
		&t.From,
		&t.To,
		&t.TransportType,
		&perks,
		&t.Price,
		&t.Quantity,
		&t.DepartureDate,
		&t.DepartureTime,
		&t.VendorName,
		&t.VendorEmail,
		&t.Approved,
		&t.Advertised,
		&t.CreatedAt,
	)
	if err != nil {
		return models.Ticket{}, err
	}
	t.Perks = decodeList(perks)
	return t, nil
}

func (r TicketRepository) query(ctx context.Context, query string, args ...any) ([]models.Ticket, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Ticket{}
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TicketRepository) Create(ctx context.Context, t *models.Ticket) error {
	perks, err := encodeList(t.Perks)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO tickets (`+ticketColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, t.Title, t.Image, t.From, t.To, t.TransportType, perks, t.Price, t.Quantity,
		t.DepartureDate, t.DepartureTime, t.VendorName, t.VendorEmail, t.Approved, t.Advertised, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	t.ID = id
	return nil
}

func (r TicketRepository) GetByID(ctx context.Context, id string) (models.Ticket, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id = ? LIMIT 1`, id)
	t, err := scanTicket(row)
	if err != nil {
		return models.Ticket{}, mapNoRows(err, "ticket")
	}
	return t, nil
}

func (r TicketRepository) ListApproved(ctx context.Context, f models.TicketFilter) ([]models.Ticket, int64, error) {
	where := []string{"approved = 1"}
	args := []any{}
	if strings.TrimSpace(f.From) != "" {
		where = append(where, "from_location LIKE ?")
		args = append(args, likePattern(f.From))
	}
	if strings.TrimSpace(f.To) != "" {
		where = append(where, "to_location LIKE ?")
		args = append(args, likePattern(f.To))
	}
	if f.TransportType != "" {
		where = append(where, "transport_type = ?")
		args = append(args, f.TransportType)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tickets: %w", err)
	}

	order := "created_at DESC, id"
	switch f.Sort {
	case models.SortPriceAsc:
		order = "price ASC, created_at DESC"
	case models.SortPriceDesc:
		order = "price DESC, created_at DESC"
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	items, err := r.query(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE `+cond+` ORDER BY `+order+` LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list tickets: %w", err)
	}
	return items, total, nil
}

func (r TicketRepository) ListAdvertised(ctx context.Context, limit int) ([]models.Ticket, error) {
	return r.query(ctx, `SELECT `+ticketColumns+` FROM tickets
		WHERE approved = 1 AND advertised = 1 ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r TicketRepository) ListLatest(ctx context.Context, limit int) ([]models.Ticket, error) {
	return r.query(ctx, `SELECT `+ticketColumns+` FROM tickets
		WHERE approved = 1 ORDER BY created_at DESC LIMIT ?`, limit)
}

func (r TicketRepository) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Ticket, error) {
	return r.query(ctx, `SELECT `+ticketColumns+` FROM tickets
		WHERE vendor_email = ? ORDER BY created_at DESC`, vendorEmail)
}

func (r TicketRepository) ListAll(ctx context.Context) ([]models.Ticket, error) {
	return r.query(ctx, `SELECT `+ticketColumns+` FROM tickets ORDER BY created_at DESC`)
}

func (r TicketRepository) Update(ctx context.Context, id string, in models.TicketInput) error {
	perks, err := encodeList(in.Perks)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, `
		UPDATE tickets
		SET title = ?, image = ?, from_location = ?, to_location = ?, transport_type = ?, perks = ?,
			price = ?, quantity = ?, departure_date = ?, departure_time = ?
		WHERE id = ?`,
		in.Title, in.Image, in.From, in.To, in.TransportType, perks,
		in.Price, in.Quantity, in.DepartureDate, in.DepartureTime, id,
	)
	if err != nil {
		return fmt.Errorf("update ticket: %w", err)
	}
	// MySQL reports 0 affected rows for a no-op update; callers load the ticket first.
	return nil
}

func (r TicketRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ticket: %w", err)
	}
	return affectedOrNotFound(res, "ticket")
}

func (r TicketRepository) SetApproved(ctx context.Context, id string, approved bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE tickets SET approved = ? WHERE id = ?`, approved, id)
	return err
}

func (r TicketRepository) SetAdvertised(ctx context.Context, id string, advertised bool) error {
	_, err := r.DB.ExecContext(ctx, `UPDATE tickets SET advertised = ? WHERE id = ?`, advertised, id)
	return err
}

func (r TicketRepository) CountAdvertised(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE approved = 1 AND advertised = 1`).Scan(&n)
	return n, err
}

func (r TicketRepository) CountByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE vendor_email = ?`, vendorEmail).Scan(&n)
	return n, err
}

func (r TicketRepository) RevokeByVendor(ctx context.Context, vendorEmail string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `UPDATE tickets SET approved = 0, advertised = 0 WHERE vendor_email = ?`, vendorEmail)
	if err != nil {
		return 0, fmt.Errorf("revoke vendor tickets: %w", err)
	}
	return res.RowsAffected()
}
