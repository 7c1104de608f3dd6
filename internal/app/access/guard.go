// Package access decides whether a caller may act on a listing or booking.
// Checks are pure: they read the identity and the entity and never write.
package access

import (
	"fmt"

	"leasehub/internal/domain/booking"
	"leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
)

var (
	ErrUnauthenticated  = fmt.Errorf("access: %w: authentication required", errs.ErrForbidden)
	ErrRenterOnly       = fmt.Errorf("access: %w: renter capability required", errs.ErrForbidden)
	ErrOwnerOnly        = fmt.Errorf("access: %w: approved owner capability required", errs.ErrForbidden)
	ErrAdminOnly        = fmt.Errorf("access: %w: admin capability required", errs.ErrForbidden)
	ErrOwnListing       = fmt.Errorf("access: %w: owners cannot book their own listing", errs.ErrForbidden)
	ErrNotListingOwner  = fmt.Errorf("access: %w: listing belongs to another owner", errs.ErrForbidden)
	ErrNotBookingRenter = fmt.Errorf("access: %w: only the renter may cancel a booking", errs.ErrForbidden)
	ErrNotBookingOwner  = fmt.Errorf("access: %w: only the listing owner may decide a booking", errs.ErrForbidden)
)

// Guard holds no state; the zero value is ready to use.
type Guard struct{}

func (Guard) CanAdminister(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if !id.IsAdmin() {
		return ErrAdminOnly
	}
	return nil
}

// CanActAsOwner requires the owner role and admin approval. Admins always pass.
func (Guard) CanActAsOwner(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if id.IsAdmin() {
		return nil
	}
	if !id.Has(user.RoleOwner) || !id.OwnerApproved {
		return ErrOwnerOnly
	}
	return nil
}

func (Guard) CanActAsRenter(id Identity) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if !id.Has(user.RoleRenter) {
		return ErrRenterOnly
	}
	return nil
}

func (g Guard) CanCreateBooking(id Identity, listing *listings.Listing) error {
	if err := g.CanActAsRenter(id); err != nil {
		return err
	}
	if listing != nil && string(listing.Owner) == id.UserID {
		return ErrOwnListing
	}
	return nil
}

// CanViewBooking admits the renter, the owner and admins. Anyone else gets
// booking.ErrNotFound so the booking's existence is not revealed.
func (g Guard) CanViewBooking(id Identity, b *booking.Booking) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if id.IsAdmin() || isParty(id, b) {
		return nil
	}
	return booking.ErrNotFound
}

// CanTransition checks who may request target. Whether the move itself is
// legal is left to the state machine.
func (g Guard) CanTransition(id Identity, b *booking.Booking, target booking.Status) error {
	if !id.Authenticated() {
		return ErrUnauthenticated
	}
	if !isParty(id, b) {
		return booking.ErrNotFound
	}
	switch target {
	case booking.StatusCancelled:
		if b.RenterID != id.UserID {
			return ErrNotBookingRenter
		}
		return nil
	case booking.StatusApproved, booking.StatusRejected, booking.StatusCompleted:
		if string(b.OwnerID) != id.UserID {
			return ErrNotBookingOwner
		}
		return g.CanActAsOwner(id)
	default:
		return nil
	}
}

// CanMutateListing admits the listing's approved owner and admins.
func (g Guard) CanMutateListing(id Identity, listing *listings.Listing) error {
	if err := g.CanActAsOwner(id); err != nil {
		return err
	}
	if id.IsAdmin() {
		return nil
	}
	if listing != nil && string(listing.Owner) != id.UserID {
		return ErrNotListingOwner
	}
	return nil
}

func isParty(id Identity, b *booking.Booking) bool {
	if b == nil {
		return false
	}
	return b.RenterID == id.UserID || string(b.OwnerID) == id.UserID
}
