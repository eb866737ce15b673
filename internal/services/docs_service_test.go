package services

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestDocsServiceGenerate(t *testing.T) {
	loader := func(_ context.Context, _, id string) (bookingDocData, error) {
		return bookingDocData{
			BookingID:     id,
			TicketID:      "t-1",
			Title:         "Dhaka Express",
			TransportType: "bus",
			From:          "Dhaka",
			To:            "Sylhet",
			DepartureDate: time.Now().Format("2006-01-02"),
			DepartureTime: "10:00",
			Perks:         []string{"AC", "Water"},
			Quantity:      2,
			UnitPrice:     decimal.RequireFromString("12.50"),
			Total:         decimal.RequireFromString("25.00"),
			Currency:      "usd",
			UserName:      "Tester",
			UserEmail:     "tester@example.com",
			TransactionID: "pi_123",
			PaidAt:        time.Now(),
		}, nil
	}

	svc := DocsService{Loader: loader}

	pdf, filename, err := svc.GenerateETicket(context.Background(), "tester@example.com", "b-0001abcd")
	if err != nil {
		t.Fatalf("GenerateETicket returned error: %v", err)
	}
	if len(pdf) == 0 || filename == "" {
		t.Fatalf("GenerateETicket returned empty data")
	}
	if !bytes.HasPrefix(pdf, []byte("%PDF")) {
		t.Fatalf("e-ticket is not a PDF")
	}
	if !strings.HasPrefix(filename, "ETICKET_TCK-B-0001AB") {
		t.Fatalf("unexpected e-ticket filename %q", filename)
	}

	invoice, invName, err := svc.GenerateInvoice(context.Background(), "tester@example.com", "b-0001abcd")
	if err != nil {
		t.Fatalf("GenerateInvoice returned error: %v", err)
	}
	if len(invoice) == 0 || invName == "" {
		t.Fatalf("GenerateInvoice returned empty data")
	}
	if !strings.HasPrefix(invName, "INVOICE_INV-") {
		t.Fatalf("unexpected invoice filename %q", invName)
	}
}
