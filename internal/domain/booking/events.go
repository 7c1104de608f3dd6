package booking

import (
	"time"

	"leasehub/internal/domain/listings"
)

type BookingRequested struct {
	BookingID   BookingID
	ListingID   listings.ListingID
	RenterID    string
	OwnerID     listings.OwnerID
	MoveInDate  time.Time
	LeaseMonths int
	At          time.Time
}

func (e BookingRequested) EventName() string     { return "booking.requested" }
func (e BookingRequested) AggregateID() string   { return string(e.BookingID) }
func (e BookingRequested) OccurredAt() time.Time { return e.At }

// StatusChanged is published as booking.<to>, e.g. booking.approved.
type StatusChanged struct {
	BookingID BookingID
	ListingID listings.ListingID
	From      Status
	To        Status
	Reason    string
	At        time.Time
}

func (e StatusChanged) EventName() string     { return "booking." + string(e.To) }
func (e StatusChanged) AggregateID() string   { return string(e.BookingID) }
func (e StatusChanged) OccurredAt() time.Time { return e.At }
