package listings

import "time"

type ListingCreated struct {
	ListingID ListingID
	Owner     OwnerID
	At        time.Time
}

func (e ListingCreated) EventName() string     { return "listing.created" }
func (e ListingCreated) AggregateID() string   { return string(e.ListingID) }
func (e ListingCreated) OccurredAt() time.Time { return e.At }

type ListingUpdated struct {
	ListingID ListingID
	At        time.Time
}

func (e ListingUpdated) EventName() string     { return "listing.updated" }
func (e ListingUpdated) AggregateID() string   { return string(e.ListingID) }
func (e ListingUpdated) OccurredAt() time.Time { return e.At }

type AvailabilityChanged struct {
	ListingID ListingID
	Available bool
	At        time.Time
}

func (e AvailabilityChanged) EventName() string     { return "listing.availability_changed" }
func (e AvailabilityChanged) AggregateID() string   { return string(e.ListingID) }
func (e AvailabilityChanged) OccurredAt() time.Time { return e.At }

type ListingDeleted struct {
	ListingID       ListingID
	Owner           OwnerID
	DeletedBy       string
	BookingsRemoved int
	At              time.Time
}

func (e ListingDeleted) EventName() string     { return "listing.deleted" }
func (e ListingDeleted) AggregateID() string   { return string(e.ListingID) }
func (e ListingDeleted) OccurredAt() time.Time { return e.At }
