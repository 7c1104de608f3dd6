package user

import "time"

type OwnerApproved struct {
	UserID     ID
	ApprovedBy ID
	At         time.Time
}

func (e OwnerApproved) EventName() string     { return "user.owner_approved" }
func (e OwnerApproved) AggregateID() string   { return string(e.UserID) }
func (e OwnerApproved) OccurredAt() time.Time { return e.At }

type Deleted struct {
	UserID          ID
	DeletedBy       ID
	ListingsRemoved int
	BookingsRemoved int
	At              time.Time
}

func (e Deleted) EventName() string     { return "user.deleted" }
func (e Deleted) AggregateID() string   { return string(e.UserID) }
func (e Deleted) OccurredAt() time.Time { return e.At }
