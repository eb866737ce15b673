package db

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestMissingTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to open sqlmock: %v", err)
	}
	defer db.Close()

	q := regexp.QuoteMeta("FROM information_schema.tables")
	mock.ExpectQuery(q).WithArgs("tickets").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}).AddRow("tickets"))
	mock.ExpectQuery(q).WithArgs("bookings").
		WillReturnRows(sqlmock.NewRows([]string{"table_name"}))

	missing, err := MissingTables(context.Background(), db, "tickets", "bookings")
	if err != nil {
		t.Fatalf("MissingTables returned error: %v", err)
	}
	if len(missing) != 1 || missing[0] != "bookings" {
		t.Fatalf("expected [bookings], got %#v", missing)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
