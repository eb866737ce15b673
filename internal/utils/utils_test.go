package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLineTotalAndMinorUnits(t *testing.T) {
	total := LineTotal(decimal.RequireFromString("19.99"), 3)
	if total.StringFixed(2) != "59.97" {
		t.Fatalf("expected 59.97, got %s", total.StringFixed(2))
	}
	if got := ToMinorUnits(total); got != 5997 {
		t.Fatalf("expected 5997 cents, got %d", got)
	}
	if got := ToMinorUnits(decimal.RequireFromString("0.005")); got != 1 {
		t.Fatalf("expected half cent to round up, got %d", got)
	}
	if got := FormatMoney(total, "USD"); got != "59.97 USD" {
		t.Fatalf("unexpected money format %q", got)
	}
	if got := FormatMoney(decimal.NewFromInt(5), ""); got != "5.00" {
		t.Fatalf("unexpected money format %q", got)
	}
}

func TestNormalizeClock(t *testing.T) {
	cases := map[string]string{
		"9:05 pm":  "21:05",
		"09:05PM":  "21:05",
		"07:30":    "07:30",
		"23:59:59": "23:59",
		" 3:04 AM": "03:04",
	}
	for in, want := range cases {
		got, err := NormalizeClock(in)
		if err != nil {
			t.Fatalf("NormalizeClock(%q) returned error: %v", in, err)
		}
		if got != want {
			t.Fatalf("NormalizeClock(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := NormalizeClock("noon"); err == nil {
		t.Fatalf("expected error for unrecognized time")
	}
}

func TestDepartureInstant(t *testing.T) {
	got, err := DepartureInstant("2030-03-15", "6:45 PM", time.UTC)
	if err != nil {
		t.Fatalf("DepartureInstant returned error: %v", err)
	}
	want := time.Date(2030, 3, 15, 18, 45, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if _, err := DepartureInstant("15/03/2030", "18:45", time.UTC); err == nil {
		t.Fatalf("expected error for malformed date")
	}
	if _, err := DepartureInstant("2030-03-15", "25:00", time.UTC); err == nil {
		t.Fatalf("expected error for malformed time")
	}
}

func TestStringHelpers(t *testing.T) {
	if got := NormalizeEmail("  Vendor@Example.COM "); got != "vendor@example.com" {
		t.Fatalf("unexpected email %q", got)
	}
	if got := NormalizeSpace("  Dhaka   to\tSylhet "); got != "Dhaka to Sylhet" {
		t.Fatalf("unexpected spacing %q", got)
	}
	list := CleanList([]string{" AC ", "", "  ", "Free  Wifi"})
	if len(list) != 2 || list[0] != "AC" || list[1] != "Free Wifi" {
		t.Fatalf("unexpected list %#v", list)
	}
	if got := SafeFilenamePart(""); got != "NA" {
		t.Fatalf("expected NA, got %q", got)
	}
	if got := SafeFilenamePart("a/b:c d"); got != "a_b_c_d" {
		t.Fatalf("unexpected filename part %q", got)
	}
	long := SafeFilenamePart("abcdefghijklmnopqrstuvwxyzabcdefghijklmnopqrstuvwxyz")
	if len(long) != 40 {
		t.Fatalf("expected filename part capped at 40, got %d", len(long))
	}
}

func TestRequestIDContext(t *testing.T) {
	ctx := WithRequestID(context.Background(), "rid-1")
	if got := RequestIDFrom(ctx); got != "rid-1" {
		t.Fatalf("expected rid-1, got %q", got)
	}
	if got := RequestIDFrom(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}

func TestLogEventFields(t *testing.T) {
	var buf bytes.Buffer
	SetupLogger("debug", "json", &buf)
	defer SetupLogger("info", "text", nil)

	LogEvent("rid-9", "booking", "create", "booking_id=b1")
	LogError("rid-9", "payment", "intent", errors.New("card declined"))

	dec := json.NewDecoder(&buf)
	var first, second map[string]any
	if err := dec.Decode(&first); err != nil {
		t.Fatalf("decode first line: %v", err)
	}
	if err := dec.Decode(&second); err != nil {
		t.Fatalf("decode second line: %v", err)
	}
	if first["module"] != "BOOKING" || first["action"] != "create" || first["request_id"] != "rid-9" {
		t.Fatalf("unexpected fields %#v", first)
	}
	if first["msg"] != "booking_id=b1" {
		t.Fatalf("unexpected message %#v", first["msg"])
	}
	if second["level"] != "error" || second["error"] != "card declined" {
		t.Fatalf("unexpected error line %#v", second)
	}
}
