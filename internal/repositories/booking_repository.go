package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const bookingColumns = `id, ticket_id, title, image, unit_price, total_price, transport_type, from_location,
		to_location, perks, departure_date, departure_time, user_email, user_name, vendor_email,
		quantity, status, created_at`

type BookingRepository struct {
	DB *sql.DB
}

func bookingDest(b *models.Booking, perks *[]byte) []any {
	return []any{
		&b.ID,
		&b.TicketID,
		&b.Title,
		&b.Image,
		&b.UnitPrice,
		&b.TotalPrice,
		&b.TransportType,
		&b.From,
		&b.To,
		perks,
		&b.DepartureDate,
		&b.DepartureTime,
		&b.UserEmail,
		&b.UserName,
		&b.VendorEmail,
		&b.Quantity,
		&b.Status,
		&b.CreatedAt,
	}
}

func scanBooking(row rowScanner) (models.Booking, error) {
	var (
		b     models.Booking
		perks []byte
	)
	if err := row.Scan(bookingDest(&b, &perks)...); err != nil {
		return models.Booking{}, err
	}
	b.Perks = decodeList(perks)
	return b, nil
}

func (r BookingRepository) query(ctx context.Context, query string, args ...any) ([]models.Booking, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Booking{}
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	perks, err := encodeList(b.Perks)
	if err != nil {
		return err
	}
	id := uuid.NewString()
	_, err = r.DB.ExecContext(ctx, `
		INSERT INTO bookings (`+bookingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, b.TicketID, b.Title, b.Image, b.UnitPrice, b.TotalPrice, b.TransportType, b.From,
		b.To, perks, b.DepartureDate, b.DepartureTime, b.UserEmail, b.UserName, b.VendorEmail,
		b.Quantity, string(b.Status), b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	b.ID = id
	return nil
}

func (r BookingRepository) GetByID(ctx context.Context, id string) (models.Booking, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? LIMIT 1`, id)
	b, err := scanBooking(row)
	if err != nil {
		return models.Booking{}, mapNoRows(err, "booking")
	}
	return b, nil
}

func (r BookingRepository) ListByUser(ctx context.Context, userEmail string) ([]models.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_email = ? ORDER BY created_at DESC`, userEmail)
}

func (r BookingRepository) ListByVendor(ctx context.Context, vendorEmail string) ([]models.Booking, error) {
	return r.query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE vendor_email = ? ORDER BY created_at DESC`, vendorEmail)
}

func (r BookingRepository) ListDetailsByUser(ctx context.Context, userEmail string) ([]models.BookingDetail, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT b.id, b.ticket_id, b.title, b.image, b.unit_price, b.total_price, b.transport_type, b.from_location,
			b.to_location, b.perks, b.departure_date, b.departure_time, b.user_email, b.user_name, b.vendor_email,
			b.quantity, b.status, b.created_at,
			t.id, t.title, t.image, t.from_location, t.to_location, t.transport_type, t.perks, t.price, t.quantity,
			t.departure_date, t.departure_time, t.vendor_name, t.vendor_email, t.approved, t.advertised, t.created_at
		FROM bookings b
		JOIN tickets t ON t.id = b.ticket_id
		WHERE b.user_email = ?
		ORDER BY b.created_at DESC`, userEmail)
	if err != nil {
		return nil, fmt.Errorf("list booking details: %w", err)
	}
	defer rows.Close()

	out := []models.BookingDetail{}
	for rows.Next() {
		var (
			d                     models.BookingDetail
			bookingPerks, tickets []byte
		)
		dest := bookingDest(&d.Booking, &bookingPerks)
		t := &d.Ticket
		dest = append(dest,
			&t.ID, &t.Title, &t.Image, &t.From, &t.To, &t.TransportType, &tickets, &t.Price, &t.Quantity,
			&t.DepartureDate, &t.DepartureTime, &t.VendorName, &t.VendorEmail, &t.Approved, &t.Advertised, &t.CreatedAt,
		)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		d.Perks = decodeList(bookingPerks)
		d.Ticket.Perks = decodeList(tickets)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r BookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ? AND status = ?`,
		string(to), id, string(from))
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		var exists int
		if err := r.DB.QueryRowContext(ctx, `SELECT 1 FROM bookings WHERE id = ?`, id).Scan(&exists); err != nil {
			return mapNoRows(err, "booking")
		}
		return domain.InvalidStateError{Msg: "booking status changed, reload and retry"}
	}
	return nil
}

// Settle runs in one transaction. The booking row is locked first so concurrent
// settlements of the same booking serialize and only one of them inserts.
func (r BookingRepository) Settle(ctx context.Context, st models.Settlement) (settled bool, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin settle: %w", err)
	}
	defer func() {
		if err != nil || !settled {
			_ = tx.Rollback()
		}
	}()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM bookings WHERE id = ? FOR UPDATE`, st.BookingID).Scan(&status)
	if err != nil {
		return false, mapNoRows(err, "booking")
	}
	if models.BookingStatus(status) == models.StatusPaid {
		return false, nil
	}
	if !st.Payable(models.BookingStatus(status)) {
		err = domain.InvalidStateError{Msg: fmt.Sprintf("booking is %s and cannot be paid", status)}
		return false, err
	}

	t := st.Transaction
	t.ID = uuid.NewString()
	if t.TransactionID == "" {
		t.TransactionID = "local_" + t.ID
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO transactions (id, transaction_id, amount, currency, booking_id, ticket_id, ticket_title, user_email, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TransactionID, t.Amount, t.Currency, t.BookingID, t.TicketID, t.TicketTitle, t.UserEmail, t.CreatedAt,
	); err != nil {
		return false, fmt.Errorf("insert transaction: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE bookings SET status = ? WHERE id = ?`,
		string(models.StatusPaid), st.BookingID); err != nil {
		return false, fmt.Errorf("mark booking paid: %w", err)
	}

	res, err := tx.ExecContext(ctx, `UPDATE tickets SET quantity = quantity - ? WHERE id = ? AND quantity >= ?`,
		st.Quantity, st.TicketID, st.Quantity)
	if err != nil {
		return false, fmt.Errorf("decrement ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		var exists int
		if qerr := tx.QueryRowContext(ctx, `SELECT 1 FROM tickets WHERE id = ?`, st.TicketID).Scan(&exists); qerr != nil {
			err = mapNoRows(qerr, "ticket")
			return false, err
		}
		err = domain.InvalidStateError{Msg: "not enough tickets left to settle this booking"}
		return false, err
	}

	if err = tx.Commit(); err != nil {
		return false, fmt.Errorf("commit settle: %w", err)
	}
	settled = true
	return true, nil
}

func (r BookingRepository) VendorRevenue(ctx context.Context, vendorEmail string) (models.VendorRevenue, error) {
	rev := models.VendorRevenue{VendorEmail: vendorEmail}
	var total decimal.NullDecimal
	err := r.DB.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(total_price), 0), COALESCE(SUM(quantity), 0), COUNT(*)
		FROM bookings
		WHERE vendor_email = ? AND status = ?`, vendorEmail, string(models.StatusPaid),
	).Scan(&total, &rev.TicketsSold, &rev.PaidBookings)
	if err != nil {
		return models.VendorRevenue{}, fmt.Errorf("vendor revenue: %w", err)
	}
	rev.TotalRevenue = decimal.Zero
	if total.Valid {
		rev.TotalRevenue = total.Decimal
	}
	return rev, nil
}
