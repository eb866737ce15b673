package api

import (
	stdhttp "net/http"

	"onlineticket/internal/domain/models"
	h "onlineticket/internal/http/handlers"
	"onlineticket/internal/http/middleware"
	"onlineticket/internal/services"
	"onlineticket/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options carries what the router needs beyond the handlers.
type Options struct {
	Verifier       middleware.Verifier
	Guard          services.RoleGuard
	AllowedOrigins []string
}

func NewRouter(handler h.Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.Metrics(), middleware.CORS(opts.AllowedOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Log.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"message":    "route not found",
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
			"request_id": middleware.GetRequestID(c),
		})
	})

	r.GET("/", handler.Root)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authed := middleware.Auth(opts.Verifier)
	// Booking routes need a user record, created by POST /api/users on login.
	registered := middleware.Require(opts.Guard)
	vendorOnly := middleware.Require(opts.Guard, services.HasRole(models.RoleVendor), services.NotBlocked())
	adminOnly := middleware.Require(opts.Guard, services.HasRole(models.RoleAdmin))

	api := r.Group("/api")
	{
		api.GET("/health", handler.Health)
		api.GET("/db-check", handler.DBCheck)

		tickets := api.Group("/tickets")
		tickets.GET("", handler.ListTickets)
		tickets.GET("/advertised", handler.AdvertisedTickets)
		tickets.GET("/latest", handler.LatestTickets)
		tickets.GET("/:id", handler.GetTicket)

		users := api.Group("/users", authed)
		users.POST("", handler.Login)
		users.GET("/profile", handler.Profile)
		users.GET("/role", handler.Role)

		bookings := api.Group("/bookings", authed, registered)
		bookings.POST("", handler.CreateBooking)
		bookings.GET("", handler.MyBookings)
		bookings.GET("/details", handler.BookingDetails)
		bookings.PATCH("/:id/paid", handler.MarkPaid)
		bookings.GET("/:id/e-ticket", handler.GetETicketPDF)
		bookings.GET("/:id/invoice", handler.GetInvoicePDF)

		payments := api.Group("/payments", authed, registered)
		payments.POST("/intent", handler.CreatePaymentIntent)
		payments.POST("/checkout", handler.CreateCheckoutSession)

		transactions := api.Group("/transactions", authed, registered)
		transactions.POST("", handler.CreateTransaction)
		transactions.GET("", handler.MyTransactions)

		vendor := api.Group("/vendor", authed, vendorOnly)
		vendor.POST("/tickets", handler.VendorCreateTicket)
		vendor.GET("/tickets", handler.VendorTickets)
		vendor.PATCH("/tickets/:id", handler.VendorUpdateTicket)
		vendor.DELETE("/tickets/:id", handler.VendorDeleteTicket)
		vendor.GET("/bookings", handler.VendorBookings)
		vendor.PATCH("/bookings/:id/status", handler.VendorUpdateBookingStatus)
		vendor.GET("/revenue", handler.VendorRevenue)

		admin := api.Group("/admin", authed, adminOnly)
		admin.GET("/tickets", handler.AdminTickets)
		admin.PATCH("/tickets/:id/approve", handler.AdminApproveTicket)
		admin.PATCH("/tickets/:id/reject", handler.AdminRejectTicket)
		admin.PATCH("/tickets/:id/advertise", handler.AdminAdvertiseTicket)
		admin.GET("/users", handler.AdminUsers)
		admin.PATCH("/users/:email/role", handler.AdminSetRole)
		admin.PATCH("/users/:email/fraud", handler.AdminMarkFraud)
	}

	return r
}
