package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/shared/events"
)

var (
	ErrNotFound          = fmt.Errorf("booking: %w", errs.ErrNotFound)
	ErrRenterRequired    = fmt.Errorf("booking: %w: renter is required", errs.ErrValidation)
	ErrContactRequired   = fmt.Errorf("booking: %w: contact name and a phone or email are required", errs.ErrValidation)
	ErrMoveInRequired    = fmt.Errorf("booking: %w: move-in date is required", errs.ErrValidation)
	ErrLeaseDuration     = fmt.Errorf("booking: %w: lease duration must be between 1 and %d months", errs.ErrValidation, MaxLeaseMonths)
	ErrIDRequired        = fmt.Errorf("booking: %w: id is required", errs.ErrValidation)
	ErrListingIDRequired = fmt.Errorf("booking: %w: listing is required", errs.ErrValidation)
)

const MaxLeaseMonths = 120

// ReasonSiblingApproved is recorded on pending bookings rejected because
// another booking of the same listing was approved.
const ReasonSiblingApproved = "sibling-approved"

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Statuses lists the closed status domain.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusCancelled, StatusCompleted}

func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	for _, candidate := range Statuses {
		if s == candidate {
			return s, nil
		}
	}
	return "", fmt.Errorf("booking: %w: unknown status %q", errs.ErrValidation, raw)
}

// Contact is the requester snapshot captured when the booking is made.
type Contact struct {
	Name  string
	Phone string
	Email string
}

type Booking struct {
	ID          BookingID
	ListingID   listings.ListingID
	RenterID    string
	OwnerID     listings.OwnerID
	Status      Status
	Contact     Contact
	Message     string
	MoveInDate  time.Time
	LeaseMonths int
	Reason      string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	events.Recorder
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	// Save inserts or updates the booking with compare-and-swap on Version.
	Save(ctx context.Context, booking *Booking) error
	// Delete removes the booking if its stored version still equals booking.Version.
	Delete(ctx context.Context, booking *Booking) error
	ListByListing(ctx context.Context, id listings.ListingID) ([]*Booking, error)
	ListByRenter(ctx context.Context, renterID string) ([]*Booking, error)
	ListByOwner(ctx context.Context, ownerID listings.OwnerID) ([]*Booking, error)
	List(ctx context.Context) ([]*Booking, error)
	// FindPending returns the renter's pending booking for the listing or ErrNotFound.
	FindPending(ctx context.Context, renterID string, listingID listings.ListingID) (*Booking, error)
}

type CreateParams struct {
	ID          BookingID
	ListingID   listings.ListingID
	RenterID    string
	OwnerID     listings.OwnerID
	Contact     Contact
	Message     string
	MoveInDate  time.Time
	LeaseMonths int
	Now         time.Time
}

func NewBooking(params CreateParams) (*Booking, error) {
	switch {
	case strings.TrimSpace(string(params.ID)) == "":
		return nil, ErrIDRequired
	case strings.TrimSpace(string(params.ListingID)) == "":
		return nil, ErrListingIDRequired
	case strings.TrimSpace(params.RenterID) == "":
		return nil, ErrRenterRequired
	case params.MoveInDate.IsZero():
		return nil, ErrMoveInRequired
	case params.LeaseMonths < 1 || params.LeaseMonths > MaxLeaseMonths:
		return nil, ErrLeaseDuration
	}
	contact := Contact{
		Name:  strings.TrimSpace(params.Contact.Name),
		Phone: strings.TrimSpace(params.Contact.Phone),
		Email: strings.ToLower(strings.TrimSpace(params.Contact.Email)),
	}
	if contact.Name == "" || (contact.Phone == "" && contact.Email == "") {
		return nil, ErrContactRequired
	}
	now := params.Now.UTC()
	b := &Booking{
		ID:          params.ID,
		ListingID:   params.ListingID,
		RenterID:    strings.TrimSpace(params.RenterID),
		OwnerID:     params.OwnerID,
		Status:      StatusPending,
		Contact:     contact,
		Message:     strings.TrimSpace(params.Message),
		MoveInDate:  params.MoveInDate.UTC(),
		LeaseMonths: params.LeaseMonths,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.Record(BookingRequested{BookingID: b.ID, ListingID: b.ListingID, RenterID: b.RenterID, OwnerID: b.OwnerID, MoveInDate: b.MoveInDate, LeaseMonths: b.LeaseMonths, At: now})
	return b, nil
}

// Clone returns a deep copy without pending events.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	out := *b
	out.Recorder = events.Recorder{}
	return &out
}
