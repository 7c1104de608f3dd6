package dto

import (
	"time"

	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
)

type BookingContact struct {
	Name  string `json:"name" validate:"required"`
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

type BookingListingSnapshot struct {
	ID        string `json:"id"`
	Title     string `json:"title,omitempty"`
	City      string `json:"city,omitempty"`
	Country   string `json:"country,omitempty"`
	Available bool   `json:"available"`
}

type Booking struct {
	ID          string                  `json:"id"`
	ListingID   string                  `json:"listing_id"`
	Listing     *BookingListingSnapshot `json:"listing,omitempty"`
	RenterID    string                  `json:"renter_id"`
	OwnerID     string                  `json:"owner_id"`
	Status      string                  `json:"status"`
	Contact     BookingContact          `json:"contact"`
	Message     string                  `json:"message,omitempty"`
	MoveInDate  time.Time               `json:"move_in_date"`
	LeaseMonths int                     `json:"lease_months"`
	Reason      string                  `json:"reason,omitempty"`
	Version     int64                   `json:"version"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

type BookingCollection struct {
	Items []Booking `json:"items"`
}

// BookingTransitionResult is the booking after a transition and the listing
// state it left behind.
type BookingTransitionResult struct {
	Booking         Booking  `json:"booking"`
	Listing         Listing  `json:"listing"`
	AutoRejectedIDs []string `json:"auto_rejected_ids,omitempty"`
}

func MapBooking(b *domainbooking.Booking, listing *domainlistings.Listing) Booking {
	out := Booking{
		ID:          string(b.ID),
		ListingID:   string(b.ListingID),
		RenterID:    b.RenterID,
		OwnerID:     string(b.OwnerID),
		Status:      string(b.Status),
		Contact:     BookingContact{Name: b.Contact.Name, Phone: b.Contact.Phone, Email: b.Contact.Email},
		Message:     b.Message,
		MoveInDate:  b.MoveInDate,
		LeaseMonths: b.LeaseMonths,
		Reason:      b.Reason,
		Version:     b.Version,
		CreatedAt:   b.CreatedAt,
		UpdatedAt:   b.UpdatedAt,
	}
	if listing != nil {
		out.Listing = &BookingListingSnapshot{
			ID:        string(listing.ID),
			Title:     listing.Title,
			City:      listing.Address.City,
			Country:   listing.Address.Country,
			Available: listing.Available,
		}
	}
	return out
}
