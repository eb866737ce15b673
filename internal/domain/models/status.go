package models

import "strings"

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusAccepted  BookingStatus = "accepted"
	StatusRejected  BookingStatus = "rejected"
	StatusCancelled BookingStatus = "cancelled"
	StatusPaid      BookingStatus = "paid"
)

var bookingTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:  {StatusAccepted, StatusRejected, StatusCancelled, StatusPaid},
	StatusAccepted: {StatusPaid, StatusRejected, StatusCancelled},
}

// ParseBookingStatus accepts any casing ("Pending", "ACCEPTED") and reports whether
// the value names a known status.
func ParseBookingStatus(raw string) (BookingStatus, bool) {
	s := BookingStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusCancelled, StatusPaid:
		return s, true
	}
	return "", false
}

// CanTransition reports whether next is reachable from s in one step.
// pending -> paid is listed so settlement policy decides whether acceptance is required.
func (s BookingStatus) CanTransition(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PayableStatuses lists the statuses settlement may start from. With
// requireAcceptance a vendor must have accepted the booking first.
func PayableStatuses(requireAcceptance bool) []BookingStatus {
	if requireAcceptance {
		return []BookingStatus{StatusAccepted}
	}
	return []BookingStatus{StatusPending, StatusAccepted}
}

// Terminal reports whether no further transition exists.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

func (s BookingStatus) String() string { return string(s) }
