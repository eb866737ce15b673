// Package notify pushes booking changes to realtime channels.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"onlineticket/internal/domain/models"
	"onlineticket/internal/metrics"
	"onlineticket/internal/utils"

	pubnub "github.com/pubnub/go/v7"
)

// Nop drops every event. Used when no realtime backend is configured.
type Nop struct{}

func (Nop) BookingChanged(context.Context, models.Booking) {}

// Publisher sends one message to one channel.
type Publisher interface {
	Publish(channel string, message any) error
}

// BookingEvent is the payload clients receive.
type BookingEvent struct {
	Type      string `json:"type"`
	BookingID string `json:"bookingId"`
	TicketID  string `json:"ticketId"`
	Status    string `json:"status"`
	Quantity  int    `json:"quantity"`
	At        string `json:"at"`
}

// Realtime fans a booking change out to the booker's and the vendor's channels.
type Realtime struct {
	Pub Publisher
}

func ChannelFor(prefix, email string) string {
	r := strings.NewReplacer("@", "_at_", ".", "_", ",", "_", ":", "_", "*", "_", "/", "_", "\\", "_")
	return prefix + "-" + r.Replace(strings.ToLower(strings.TrimSpace(email)))
}

// BookingChanged returns immediately; publishing happens in the background and
// outlives the request context.
func (n Realtime) BookingChanged(ctx context.Context, b models.Booking) {
	requestID := utils.RequestIDFrom(ctx)
	ev := BookingEvent{
		Type:      "booking_status",
		BookingID: b.ID,
		TicketID:  b.TicketID,
		Status:    b.Status.String(),
		Quantity:  b.Quantity,
		At:        time.Now().UTC().Format(time.RFC3339),
	}
	channels := []string{ChannelFor("user", b.UserEmail)}
	if b.VendorEmail != "" {
		channels = append(channels, ChannelFor("vendor", b.VendorEmail))
	}
	go func(ctx context.Context) {
		for _, ch := range channels {
			if ctx.Err() != nil {
				return
			}
			if err := n.Pub.Publish(ch, ev); err != nil {
				metrics.NotificationsSent.WithLabelValues("failed").Inc()
				utils.LogError(requestID, "notify", "publish", fmt.Errorf("channel %s: %w", ch, err))
				continue
			}
			metrics.NotificationsSent.WithLabelValues("sent").Inc()
		}
	}(context.WithoutCancel(ctx))
}

// PubNub publishes through a PubNub keyset.
type PubNub struct {
	pn *pubnub.PubNub
}

func NewPubNub(publishKey, subscribeKey, userID string) *PubNub {
	if userID == "" {
		userID = "online-ticket-api"
	}
	cfg := pubnub.NewConfigWithUserId(pubnub.UserId(userID))
	cfg.PublishKey = publishKey
	cfg.SubscribeKey = subscribeKey
	return &PubNub{pn: pubnub.NewPubNub(cfg)}
}

func (p *PubNub) Publish(channel string, message any) error {
	_, _, err := p.pn.Publish().
		Channel(channel).
		Message(message).
		Execute()
	return err
}
