package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route, method and status",
		},
		[]string{"route", "method", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	BookingsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bookings_created_total",
			Help: "Bookings created",
		},
	)

	// Settlements is labelled settled, already_paid, rejected or failed.
	Settlements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "booking_settlements_total",
			Help: "Booking settlement attempts by outcome",
		},
		[]string{"outcome"},
	)

	AdvertiseToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_advertise_toggles_total",
			Help: "Advertise toggles by result",
		},
		[]string{"result"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Realtime notifications by status",
		},
		[]string{"status"},
	)
)
