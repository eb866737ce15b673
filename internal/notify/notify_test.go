package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"onlineticket/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu   sync.Mutex
	sent map[string]BookingEvent
	fail string
	done chan struct{}
	want int
}

func (p *recordingPublisher) Publish(channel string, message any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	defer func() {
		p.want--
		if p.want == 0 {
			close(p.done)
		}
	}()
	if channel == p.fail {
		return errors.New("publish rejected")
	}
	p.sent[channel] = message.(BookingEvent)
	return nil
}

func TestChannelForSanitizesEmail(t *testing.T) {
	assert.Equal(t, "user-jane_doe_at_mail_com", ChannelFor("user", " Jane.Doe@Mail.com "))
}

func TestRealtimeFansOutToUserAndVendor(t *testing.T) {
	pub := &recordingPublisher{sent: map[string]BookingEvent{}, done: make(chan struct{}), want: 2}
	n := Realtime{Pub: pub}

	ctx, cancel := context.WithCancel(context.Background())
	n.BookingChanged(ctx, models.Booking{
		ID: "b1", TicketID: "t1", Status: models.StatusPaid, Quantity: 2,
		UserEmail: "u@x.io", VendorEmail: "v@x.io",
	})
	// cancelling the request must not stop delivery
	cancel()

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifications were not published")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	require.Contains(t, pub.sent, "user-u_at_x_io")
	require.Contains(t, pub.sent, "vendor-v_at_x_io")
	assert.Equal(t, "paid", pub.sent["user-u_at_x_io"].Status)
	assert.Equal(t, "b1", pub.sent["vendor-v_at_x_io"].BookingID)
}

func TestRealtimeContinuesAfterFailedChannel(t *testing.T) {
	pub := &recordingPublisher{sent: map[string]BookingEvent{}, done: make(chan struct{}), want: 2, fail: "user-u_at_x_io"}
	Realtime{Pub: pub}.BookingChanged(context.Background(), models.Booking{
		ID: "b1", Status: models.StatusAccepted, UserEmail: "u@x.io", VendorEmail: "v@x.io",
	})

	select {
	case <-pub.done:
	case <-time.After(2 * time.Second):
		t.Fatal("notifications were not published")
	}
	pub.mu.Lock()
	defer pub.mu.Unlock()
	assert.NotContains(t, pub.sent, "user-u_at_x_io")
	assert.Contains(t, pub.sent, "vendor-v_at_x_io")
}
