package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"onlineticket/internal/domain/models"

	"github.com/google/uuid"
)

const userColumns = `id, email, name, photo, role, fraud, status, created_at, last_login`

type UserRepository struct {
	DB *sql.DB
}

func scanUser(row rowScanner) (models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Photo, &u.Role, &u.Fraud, &u.Status, &u.CreatedAt, &u.LastLogin)
	return u, err
}

func (r UserRepository) GetByEmail(ctx context.Context, email string) (models.User, error) {
	u, err := scanUser(r.DB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ? LIMIT 1`, email))
	if err != nil {
		return models.User{}, mapNoRows(err, "user")
	}
	return u, nil
}

// Upsert inserts a new user or refreshes name, photo and last login of an existing one.
// Role, fraud and status are never touched by a login.
func (r UserRepository) Upsert(ctx context.Context, u models.User) (models.User, error) {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = IF(VALUES(name) = '', name, VALUES(name)),
			photo = IF(VALUES(photo) = '', photo, VALUES(photo)),
			last_login = VALUES(last_login)`,
		uuid.NewString(), u.Email, u.Name, u.Photo, u.Role, u.Fraud, u.Status, u.CreatedAt, u.LastLogin,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("upsert user: %w", err)
	}
	return r.GetByEmail(ctx, u.Email)
}

func (r UserRepository) List(ctx context.Context) ([]models.User, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY email`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r UserRepository) SetRole(ctx context.Context, email, role string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role = ? WHERE email = ?`, role, email)
	if err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	return affectedOrNotFound(res, "user")
}

func (r UserRepository) MarkFraud(ctx context.Context, email string) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET fraud = 1, status = ? WHERE email = ?`,
		models.UserStatusBlocked, email)
	if err != nil {
		return fmt.Errorf("mark fraud: %w", err)
	}
	return affectedOrNotFound(res, "user")
}
