package db

import (
	"context"
	"database/sql"
	"errors"
)

// CoreTables are the tables the booking store needs after migration.
var CoreTables = []string{"tickets", "bookings", "users", "transactions"}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func HasTable(ctx context.Context, q QueryRower, table string) (bool, error) {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return name.Valid && name.String != "", nil
}

// MissingTables returns the subset of tables that do not exist, in input order.
func MissingTables(ctx context.Context, q QueryRower, tables ...string) ([]string, error) {
	var missing []string
	for _, t := range tables {
		ok, err := HasTable(ctx, q, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, t)
		}
	}
	return missing, nil
}
