package models

import "testing"

func TestParseBookingStatus(t *testing.T) {
	s, ok := ParseBookingStatus(" Accepted ")
	if !ok || s != StatusAccepted {
		t.Fatalf("expected accepted, got %q ok=%v", s, ok)
	}
	if _, ok := ParseBookingStatus("approved"); ok {
		t.Fatalf("expected unknown status to be rejected")
	}
}

func TestBookingTransitions(t *testing.T) {
	allowed := []struct{ from, to BookingStatus }{
		{StatusPending, StatusAccepted},
		{StatusPending, StatusRejected},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusPaid},
		{StatusAccepted, StatusPaid},
		{StatusAccepted, StatusCancelled},
	}
	for _, tc := range allowed {
		if !tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be allowed", tc.from, tc.to)
		}
	}

	denied := []struct{ from, to BookingStatus }{
		{StatusAccepted, StatusPending},
		{StatusPaid, StatusCancelled},
		{StatusRejected, StatusAccepted},
		{StatusCancelled, StatusPaid},
		{StatusPending, StatusPending},
	}
	for _, tc := range denied {
		if tc.from.CanTransition(tc.to) {
			t.Fatalf("expected %s -> %s to be denied", tc.from, tc.to)
		}
	}

	for _, s := range []BookingStatus{StatusPaid, StatusRejected, StatusCancelled} {
		if !s.Terminal() {
			t.Fatalf("expected %s to be terminal", s)
		}
	}
	if StatusPending.Terminal() || StatusAccepted.Terminal() {
		t.Fatalf("pending and accepted must not be terminal")
	}
}

func TestSettlementPayable(t *testing.T) {
	open := Settlement{}
	if !open.Payable(StatusPending) || !open.Payable(StatusAccepted) {
		t.Fatalf("pending and accepted should be payable by default")
	}
	for _, s := range []BookingStatus{StatusPaid, StatusCancelled, StatusRejected} {
		if open.Payable(s) {
			t.Fatalf("%s must not be payable", s)
		}
	}

	strict := Settlement{PayableFrom: PayableStatuses(true)}
	if strict.Payable(StatusPending) || !strict.Payable(StatusAccepted) {
		t.Fatalf("with acceptance required only accepted is payable")
	}
	if got := open.PayableStatuses(); len(got) != 2 || got[0] != StatusPending || got[1] != StatusAccepted {
		t.Fatalf("unexpected default payable statuses %v", got)
	}
}
