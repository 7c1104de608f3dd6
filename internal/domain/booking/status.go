package booking

import (
	"fmt"
	"time"

	"leasehub/internal/domain/shared/errs"
)

// transitions is the complete state machine. completed is entered only when
// the owner closes an approved lease.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusApproved: {StatusCompleted},
}

// CanTransition reports whether from -> to is a defined transition.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves s.
func IsTerminal(s Status) bool {
	return len(transitions[s]) == 0
}

// Occupies reports whether a booking in status s holds the listing.
func Occupies(s Status) bool {
	return s == StatusApproved
}

// TransitionTo moves the booking to target or fails with errs.ErrInvalidTransition.
func (b *Booking) TransitionTo(target Status, reason string, now time.Time) error {
	if !CanTransition(b.Status, target) {
		return fmt.Errorf("booking %s: %w: %s -> %s", b.ID, errs.ErrInvalidTransition, b.Status, target)
	}
	from := b.Status
	b.Status = target
	b.Reason = reason
	b.UpdatedAt = now.UTC()
	b.Record(StatusChanged{
		BookingID: b.ID,
		ListingID: b.ListingID,
		From:      from,
		To:        target,
		Reason:    reason,
		At:        b.UpdatedAt,
	})
	return nil
}

// AnyOccupying reports whether one of the bookings holds its listing.
func AnyOccupying(bookings []*Booking) bool {
	for _, b := range bookings {
		if b != nil && Occupies(b.Status) {
			return true
		}
	}
	return false
}
