package models

import (
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Transport types a vendor can list.
const (
	TransportBus    = "bus"
	TransportTrain  = "train"
	TransportLaunch = "launch"
	TransportPlane  = "plane"
)

// Ticket is a sellable transport listing with a finite stock counter.
type Ticket struct {
	ID            string          `json:"_id"`
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType string          `json:"transportType"`
	Perks         []string        `json:"perks"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	DepartureDate string          `json:"departureDate"`
	DepartureTime string          `json:"departureTime"`
	VendorName    string          `json:"vendorName"`
	VendorEmail   string          `json:"vendorEmail"`
	Approved      bool            `json:"approved"`
	Advertised    bool            `json:"advertised"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// TicketInput carries vendor supplied fields for create and update.
type TicketInput struct {
	Title         string          `json:"title"`
	Image         string          `json:"image"`
	From          string          `json:"from"`
	To            string          `json:"to"`
	TransportType string          `json:"transportType"`
	Perks         []string        `json:"perks"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	DepartureDate string          `json:"departureDate"`
	DepartureTime string          `json:"departureTime"`
}

// TicketFilter narrows the public approved listing.
type TicketFilter struct {
	From          string
	To            string
	TransportType string
	// Sort is one of "", "price_asc", "price_desc".
	Sort   string
	Offset int
	Limit  int
}

const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
)
