package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"leasehub/internal/domain/booking"
	"leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
)

var (
	renter   = Identity{UserID: "renter", Roles: []user.Role{user.RoleRenter}}
	owner    = Identity{UserID: "owner", Roles: []user.Role{user.RoleRenter, user.RoleOwner}, OwnerApproved: true}
	pendingO = Identity{UserID: "owner", Roles: []user.Role{user.RoleOwner}}
	admin    = Identity{UserID: "admin", Roles: []user.Role{user.RoleAdmin}}
	stranger = Identity{UserID: "stranger", Roles: []user.Role{user.RoleRenter}}
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	b := &booking.Booking{ID: "b-1", RenterID: "renter", OwnerID: "owner", Status: booking.StatusPending}
	g := Guard{}

	cases := []struct {
		name   string
		id     Identity
		target booking.Status
		want   error
	}{
		{"owner approves", owner, booking.StatusApproved, nil},
		{"owner rejects", owner, booking.StatusRejected, nil},
		{"owner completes", owner, booking.StatusCompleted, nil},
		{"renter cancels", renter, booking.StatusCancelled, nil},
		{"renter approves", renter, booking.StatusApproved, errs.ErrForbidden},
		{"owner cancels", owner, booking.StatusCancelled, errs.ErrForbidden},
		{"unapproved owner", pendingO, booking.StatusApproved, errs.ErrForbidden},
		{"stranger", stranger, booking.StatusCancelled, errs.ErrNotFound},
		{"anonymous", Identity{}, booking.StatusCancelled, errs.ErrForbidden},
		{"pending is left to the state machine", owner, booking.StatusPending, nil},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := g.CanTransition(tc.id, b, tc.target)
			if tc.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestCanViewBooking(t *testing.T) {
	t.Parallel()

	b := &booking.Booking{ID: "b-1", RenterID: "renter", OwnerID: "owner"}
	g := Guard{}
	assert.NoError(t, g.CanViewBooking(renter, b))
	assert.NoError(t, g.CanViewBooking(owner, b))
	assert.NoError(t, g.CanViewBooking(admin, b))
	assert.ErrorIs(t, g.CanViewBooking(stranger, b), errs.ErrNotFound)
}

func TestCanCreateBooking(t *testing.T) {
	t.Parallel()

	l := &listings.Listing{ID: "l-1", Owner: "owner"}
	g := Guard{}
	assert.NoError(t, g.CanCreateBooking(renter, l))
	assert.ErrorIs(t, g.CanCreateBooking(owner, l), ErrOwnListing)
	assert.ErrorIs(t, g.CanCreateBooking(admin, l), ErrRenterOnly)
}

func TestCanMutateListing(t *testing.T) {
	t.Parallel()

	l := &listings.Listing{ID: "l-1", Owner: "owner"}
	other := Identity{UserID: "other", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}
	g := Guard{}
	assert.NoError(t, g.CanMutateListing(owner, l))
	assert.NoError(t, g.CanMutateListing(admin, l))
	assert.ErrorIs(t, g.CanMutateListing(other, l), ErrNotListingOwner)
	assert.ErrorIs(t, g.CanMutateListing(pendingO, l), ErrOwnerOnly)
	assert.ErrorIs(t, g.CanMutateListing(renter, l), errs.ErrForbidden)
}

func TestCanAdminister(t *testing.T) {
	t.Parallel()

	g := Guard{}
	assert.NoError(t, g.CanAdminister(admin))
	assert.ErrorIs(t, g.CanAdminister(owner), ErrAdminOnly)
	assert.ErrorIs(t, g.CanAdminister(Identity{}), ErrUnauthenticated)
}
