package handlers

import "onlineticket/internal/services"

// Handler holds the services the HTTP routes call into.
type Handler struct {
	Tickets  services.TicketService
	Bookings services.BookingService
	Payments services.PaymentService
	Docs     services.DocsService
	Users    services.UserService
	Store    services.Store
}
