package mongostore

import (
	"time"

	"onlineticket/internal/domain/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ticketDoc struct {
	ID            primitive.ObjectID   `bson:"_id"`
	Title         string               `bson:"title"`
	Image         string               `bson:"image"`
	From          string               `bson:"from"`
	To            string               `bson:"to"`
	TransportType string               `bson:"transportType"`
	Perks         []string             `bson:"perks"`
	Price         primitive.Decimal128 `bson:"price"`
	Quantity      int                  `bson:"quantity"`
	DepartureDate string               `bson:"departureDate"`
	DepartureTime string               `bson:"departureTime"`
	VendorName    string               `bson:"vendorName"`
	VendorEmail   string               `bson:"vendorEmail"`
	Approved      bool                 `bson:"approved"`
	Advertised    bool                 `bson:"advertised"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type bookingDoc struct {
	ID            primitive.ObjectID   `bson:"_id"`
	TicketID      primitive.ObjectID   `bson:"ticketId"`
	Title         string               `bson:"title"`
	Image         string               `bson:"image"`
	UnitPrice     primitive.Decimal128 `bson:"unitPrice"`
	TotalPrice    primitive.Decimal128 `bson:"totalPrice"`
	TransportType string               `bson:"transportType"`
	From          string               `bson:"from"`
	To            string               `bson:"to"`
	Perks         []string             `bson:"perks"`
	DepartureDate string               `bson:"departureDate"`
	DepartureTime string               `bson:"departureTime"`
	UserEmail     string               `bson:"userEmail"`
	UserName      string               `bson:"userName"`
	VendorEmail   string               `bson:"vendorEmail"`
	Quantity      int                  `bson:"quantity"`
	Status        string               `bson:"status"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

type bookingDetailDoc struct {
	Booking bookingDoc `bson:",inline"`
	Ticket  ticketDoc  `bson:"ticket"`
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	Email     string             `bson:"email"`
	Name      string             `bson:"name"`
	Photo     string             `bson:"photo"`
	Role      string             `bson:"role"`
	Fraud     bool               `bson:"fraud"`
	Status    string             `bson:"status"`
	CreatedAt time.Time          `bson:"createdAt"`
	LastLogin time.Time          `bson:"lastLogin"`
}

type transactionDoc struct {
	ID            primitive.ObjectID   `bson:"_id"`
	TransactionID string               `bson:"transactionId"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Currency      string               `bson:"currency"`
	BookingID     primitive.ObjectID   `bson:"bookingId"`
	TicketID      primitive.ObjectID   `bson:"ticketId"`
	TicketTitle   string               `bson:"ticketTitle"`
	UserEmail     string               `bson:"userEmail"`
	CreatedAt     time.Time            `bson:"createdAt"`
}

func toDecimal128(d decimal.Decimal) primitive.Decimal128 {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.NewDecimal128(0, 0)
	}
	return v
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		return decimal.Zero
	}
	return d
}

// hexOrNil maps a malformed id to the nil ObjectID.
func hexOrNil(id string) primitive.ObjectID {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

func perksOrEmpty(p []string) []string {
	if p == nil {
		return []string{}
	}
	return p
}

func (d ticketDoc) model() models.Ticket {
	return models.Ticket{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Image:         d.Image,
		From:          d.From,
		To:            d.To,
		TransportType: d.TransportType,
		Perks:         perksOrEmpty(d.Perks),
		Price:         fromDecimal128(d.Price),
		Quantity:      d.Quantity,
		DepartureDate: d.DepartureDate,
		DepartureTime: d.DepartureTime,
		VendorName:    d.VendorName,
		VendorEmail:   d.VendorEmail,
		Approved:      d.Approved,
		Advertised:    d.Advertised,
		CreatedAt:     d.CreatedAt,
	}
}

func newTicketDoc(t models.Ticket) ticketDoc {
	return ticketDoc{
		ID:            primitive.NewObjectID(),
		Title:         t.Title,
		Image:         t.Image,
		From:          t.From,
		To:            t.To,
		TransportType: t.TransportType,
		Perks:         perksOrEmpty(t.Perks),
		Price:         toDecimal128(t.Price),
		Quantity:      t.Quantity,
		DepartureDate: t.DepartureDate,
		DepartureTime: t.DepartureTime,
		VendorName:    t.VendorName,
		VendorEmail:   t.VendorEmail,
		Approved:      t.Approved,
		Advertised:    t.Advertised,
		CreatedAt:     t.CreatedAt,
	}
}

func (d bookingDoc) model() models.Booking {
	return models.Booking{
		ID:            d.ID.Hex(),
		TicketID:      d.TicketID.Hex(),
		Title:         d.Title,
		Image:         d.Image,
		UnitPrice:     fromDecimal128(d.UnitPrice),
		TotalPrice:    fromDecimal128(d.TotalPrice),
		TransportType: d.TransportType,
		From:          d.From,
		To:            d.To,
		Perks:         perksOrEmpty(d.Perks),
		DepartureDate: d.DepartureDate,
		DepartureTime: d.DepartureTime,
		UserEmail:     d.UserEmail,
		UserName:      d.UserName,
		VendorEmail:   d.VendorEmail,
		Quantity:      d.Quantity,
		Status:        models.BookingStatus(d.Status),
		CreatedAt:     d.CreatedAt,
	}
}

func newBookingDoc(b models.Booking) bookingDoc {
	return bookingDoc{
		ID:            primitive.NewObjectID(),
		TicketID:      hexOrNil(b.TicketID),
		Title:         b.Title,
		Image:         b.Image,
		UnitPrice:     toDecimal128(b.UnitPrice),
		TotalPrice:    toDecimal128(b.TotalPrice),
		TransportType: b.TransportType,
		From:          b.From,
		To:            b.To,
		Perks:         perksOrEmpty(b.Perks),
		DepartureDate: b.DepartureDate,
		DepartureTime: b.DepartureTime,
		UserEmail:     b.UserEmail,
		UserName:      b.UserName,
		VendorEmail:   b.VendorEmail,
		Quantity:      b.Quantity,
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
	}
}

func (d userDoc) model() models.User {
	return models.User{
		ID:        d.ID.Hex(),
		Email:     d.Email,
		Name:      d.Name,
		Photo:     d.Photo,
		Role:      d.Role,
		Fraud:     d.Fraud,
		Status:    d.Status,
		CreatedAt: d.CreatedAt,
		LastLogin: d.LastLogin,
	}
}

func (d transactionDoc) model() models.Transaction {
	return models.Transaction{
		ID:            d.ID.Hex(),
		TransactionID: d.TransactionID,
		Amount:        fromDecimal128(d.Amount),
		Currency:      d.Currency,
		BookingID:     d.BookingID.Hex(),
		TicketID:      d.TicketID.Hex(),
		TicketTitle:   d.TicketTitle,
		UserEmail:     d.UserEmail,
		CreatedAt:     d.CreatedAt,
	}
}
