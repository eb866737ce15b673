package repositories

import (
	"context"
	"database/sql"

	"onlineticket/internal/domain/models"
)

const transactionColumns = `id, transaction_id, amount, currency, booking_id, ticket_id, ticket_title, user_email, created_at`

// TransactionRepository reads the append-only transactions table. Rows are
// only written by BookingRepository.Settle.
type TransactionRepository struct {
	DB *sql.DB
}

func scanTransaction(row rowScanner) (models.Transaction, error) {
	var t models.Transaction
	err := row.Scan(&t.ID, &t.TransactionID, &t.Amount, &t.Currency, &t.BookingID, &t.TicketID,
		&t.TicketTitle, &t.UserEmail, &t.CreatedAt)
	return t, err
}

func (r TransactionRepository) ListByUser(ctx context.Context, userEmail string) ([]models.Transaction, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_email = ? ORDER BY created_at DESC`, userEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r TransactionRepository) GetByBookingID(ctx context.Context, bookingID string) (models.Transaction, error) {
	t, err := scanTransaction(r.DB.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE booking_id = ? LIMIT 1`, bookingID))
	if err != nil {
		return models.Transaction{}, mapNoRows(err, "transaction")
	}
	return t, nil
}
