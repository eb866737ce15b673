package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	intdb "onlineticket/internal/db"
	"onlineticket/internal/services"
)

// Store is the MySQL backend.
type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) Store {
	return Store{DB: db}
}

func (s Store) Tickets() services.TicketStore           { return TicketRepository{DB: s.DB} }
func (s Store) Bookings() services.BookingStore         { return BookingRepository{DB: s.DB} }
func (s Store) Users() services.UserStore               { return UserRepository{DB: s.DB} }
func (s Store) Transactions() services.TransactionStore { return TransactionRepository{DB: s.DB} }

// Ping checks the connection and that the schema has been migrated.
func (s Store) Ping(ctx context.Context) error {
	if err := s.DB.PingContext(ctx); err != nil {
		return err
	}
	missing, err := intdb.MissingTables(ctx, s.DB, intdb.CoreTables...)
	if err != nil {
		return err
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tables: %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s Store) Close(context.Context) error {
	return s.DB.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func encodeList(v []string) (string, error) {
	if v == nil {
		v = []string{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(raw []byte) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return []string{}
	}
	return out
}

// likePattern wraps s for a LIKE substring match with wildcards escaped.
func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(s)) + "%"
}

func affectedOrNotFound(res sql.Result, resource string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(resource)
	}
	return nil
}
