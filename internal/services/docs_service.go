package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"onlineticket/internal/domain"
	"onlineticket/internal/domain/models"
	"onlineticket/internal/utils"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
	"github.com/skip2/go-qrcode"
)

// DocsService renders the e-ticket and invoice PDFs of a paid booking.
type DocsService struct {
	Bookings     BookingStore
	Transactions TransactionStore
	Currency     string
	Now          Clock
	Loader       func(ctx context.Context, email, bookingID string) (bookingDocData, error)
}

type bookingDocData struct {
	BookingID     string
	TicketID      string
	Title         string
	TransportType string
	From          string
	To            string
	DepartureDate string
	DepartureTime string
	Perks         []string
	Quantity      int
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	Currency      string
	UserName      string
	UserEmail     string
	VendorEmail   string
	TransactionID string
	PaidAt        time.Time
}

func (s DocsService) GenerateETicket(ctx context.Context, email, bookingID string) ([]byte, string, error) {
	data, err := s.load(ctx, email, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "docs", "generate_eticket", "booking_id="+bookingID)
	return buildETicketPDF(data)
}

func (s DocsService) GenerateInvoice(ctx context.Context, email, bookingID string) ([]byte, string, error) {
	data, err := s.load(ctx, email, bookingID)
	if err != nil {
		return nil, "", err
	}
	utils.LogEvent(utils.RequestIDFrom(ctx), "docs", "generate_invoice", "booking_id="+bookingID)
	return buildInvoicePDF(data, s.now())
}

func (s DocsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s DocsService) load(ctx context.Context, email, bookingID string) (bookingDocData, error) {
	if s.Loader != nil {
		return s.Loader(ctx, email, bookingID)
	}
	b, err := BookingService{Bookings: s.Bookings}.Get(ctx, email, bookingID)
	if err != nil {
		return bookingDocData{}, err
	}
	if b.Status != models.StatusPaid {
		return bookingDocData{}, domain.InvalidStateError{Msg: "documents are available after payment"}
	}
	out := bookingDocData{
		BookingID:     b.ID,
		TicketID:      b.TicketID,
		Title:         b.Title,
		TransportType: b.TransportType,
		From:          b.From,
		To:            b.To,
		DepartureDate: b.DepartureDate,
		DepartureTime: b.DepartureTime,
		Perks:         b.Perks,
		Quantity:      b.Quantity,
		UnitPrice:     b.UnitPrice,
		Total:         b.TotalPrice,
		Currency:      s.Currency,
		UserName:      b.UserName,
		UserEmail:     b.UserEmail,
		VendorEmail:   b.VendorEmail,
	}
	if s.Transactions != nil {
		tx, err := s.Transactions.GetByBookingID(ctx, b.ID)
		switch {
		case err == nil:
			out.TransactionID = tx.TransactionID
			out.PaidAt = tx.CreatedAt
			if tx.Currency != "" {
				out.Currency = tx.Currency
			}
		case domain.IsNotFound(err):
			// settled by the paid route before transactions carried an external id
		default:
			return bookingDocData{}, domain.InternalError{Msg: "failed to load transaction", Err: err}
		}
	}
	return out, nil
}

func ticketCode(d bookingDocData) string {
	id := d.BookingID
	if len(id) > 8 {
		id = id[:8]
	}
	return "TCK-" + strings.ToUpper(id)
}

func buildETicketPDF(d bookingDocData) ([]byte, string, error) {
	code := ticketCode(d)
	qr, err := qrcode.Encode(fmt.Sprintf("%s|%s|%s|%d", code, d.BookingID, d.TicketID, d.Quantity), qrcode.Medium, 256)
	if err != nil {
		return nil, "", fmt.Errorf("encode qr: %w", err)
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	qrOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 150, 12, 45, 45, false, qrOpts, 0, "")

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passenger      : %s", safe(d.UserName, d.UserEmail)),
		fmt.Sprintf("Email          : %s", safe(d.UserEmail, "-")),
		fmt.Sprintf("Ticket         : %s", safe(d.Title, "-")),
		fmt.Sprintf("Transport      : %s", safe(d.TransportType, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(d.From, "-"), safe(d.To, "-")),
		fmt.Sprintf("Departure      : %s %s", safe(d.DepartureDate, "-"), safe(d.DepartureTime, "-")),
		fmt.Sprintf("Seats          : %d", d.Quantity),
		fmt.Sprintf("Perks          : %s", safe(strings.Join(d.Perks, ", "), "-")),
		fmt.Sprintf("Booking        : %s", d.BookingID),
		fmt.Sprintf("Ticket code    : %s", code),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, fmt.Sprintf("Valid for %d passenger(s). Show this ticket and its QR code at boarding.", d.Quantity), "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", utils.SafeFilenamePart(code), utils.SafeFilenamePart(d.UserName))
	return buf.Bytes(), filename, nil
}

func buildInvoicePDF(d bookingDocData, issued time.Time) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "INVOICE")
	pdf.Ln(12)

	invNo := "INV-" + strings.TrimPrefix(ticketCode(d), "TCK-")
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, "Invoice no   : "+invNo)
	pdf.Ln(7)
	pdf.Cell(0, 7, "Issued       : "+issued.Format("2006-01-02 15:04"))
	pdf.Ln(7)
	if d.TransactionID != "" {
		pdf.Cell(0, 7, "Transaction  : "+d.TransactionID)
		pdf.Ln(7)
	}
	if !d.PaidAt.IsZero() {
		pdf.Cell(0, 7, "Paid at      : "+d.PaidAt.Format("2006-01-02 15:04"))
		pdf.Ln(7)
	}
	pdf.Ln(3)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Billed to:")
	pdf.Ln(7)
	pdf.SetFont("Helvetica", "", 12)
	pdf.Cell(0, 7, fmt.Sprintf("Name   : %s", safe(d.UserName, "-")))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Email  : %s", safe(d.UserEmail, "-")))
	pdf.Ln(10)

	desc := fmt.Sprintf("%s, %s -> %s (%s %s)",
		safe(d.Title, "-"), safe(d.From, "-"), safe(d.To, "-"),
		safe(d.DepartureDate, "-"), safe(d.DepartureTime, "-"),
	)
	currency := strings.ToUpper(d.Currency)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Details:")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, "1) "+desc, "", "", false)
	pdf.Ln(2)
	pdf.Cell(0, 6, fmt.Sprintf("Unit price: %s x %d", utils.FormatMoney(d.UnitPrice, currency), d.Quantity))
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 8, "Total: "+utils.FormatMoney(d.Total, currency))
	pdf.Ln(12)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("INVOICE_%s_%s.pdf", utils.SafeFilenamePart(invNo), utils.SafeFilenamePart(d.UserName))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}
