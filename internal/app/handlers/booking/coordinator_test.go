package booking_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/handlers/booking"
	"leasehub/internal/app/handlers/listings"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	"leasehub/internal/app/wiring"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
	"leasehub/internal/infra/storage/memory"
)

var (
	owner   = access.Identity{UserID: "owner-1", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}
	renterA = access.Identity{UserID: "renter-a", Roles: []user.Role{user.RoleRenter}}
	renterB = access.Identity{UserID: "renter-b", Roles: []user.Role{user.RoleRenter}}
)

type harness struct {
	t       *testing.T
	buses   wiring.Buses
	factory uow.UoWFactory
}

func newHarness(t *testing.T, factory uow.UoWFactory) *harness {
	t.Helper()
	if factory == nil {
		factory = memory.Factory{Store: memory.NewStore(), Outbox: memory.NewOutbox()}
	}
	var seq atomic.Int64
	buses := wiring.Build(wiring.Deps{
		UoWFactory:  factory,
		Idempotency: memory.NewIdempotencyStore(),
		NewID:       func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	h := &harness{t: t, buses: buses, factory: factory}
	h.seed(owner, renterA, renterB)
	return h
}

func (h *harness) seed(ids ...access.Identity) {
	h.t.Helper()
	ctx := context.Background()
	unit, err := h.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(h.t, err)
	for _, id := range ids {
		u, err := user.NewUser(user.CreateParams{
			ID:           user.ID(id.UserID),
			Email:        id.UserID + "@example.com",
			Name:         id.UserID,
			PasswordHash: "hash",
			Roles:        id.Roles,
			CreatedAt:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(h.t, err)
		u.OwnerApproved = id.OwnerApproved
		require.NoError(h.t, unit.Users().Save(ctx, u))
	}
	require.NoError(h.t, unit.Commit(ctx))
}

func (h *harness) cancel(id access.Identity, bookingID string) (*dto.BookingTransitionResult, error) {
	return commands.Dispatch[booking.CancelBookingCommand, *dto.BookingTransitionResult](context.Background(), h.buses.Commands, booking.CancelBookingCommand{
		Identity:  id,
		BookingID: bookingID,
	})
}

func (h *harness) listing() *dto.Listing {
	h.t.Helper()
	l, err := commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), h.buses.Commands, listings.CreateListingCommand{
		Identity:    owner,
		Title:       "Loft",
		Category:    "apartment",
		Transaction: "rent",
		PriceCents:  90000,
		Address:     dto.Address{Street: "2 Rua Nova", City: "Porto", Country: "PT"},
	})
	require.NoError(h.t, err)
	return l
}

func (h *harness) request(id access.Identity, listingID string) (*dto.Booking, error) {
	return commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), h.buses.Commands, booking.RequestBookingCommand{
		Identity:    id,
		ListingID:   listingID,
		Contact:     dto.BookingContact{Name: "Ana", Phone: "+351900000000"},
		MoveInDate:  time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		LeaseMonths: 6,
	})
}

func (h *harness) mustRequest(id access.Identity, listingID string) *dto.Booking {
	h.t.Helper()
	b, err := h.request(id, listingID)
	require.NoError(h.t, err)
	return b
}

func (h *harness) transition(id access.Identity, bookingID, status string) (*dto.BookingTransitionResult, error) {
	return commands.Dispatch[booking.TransitionBookingCommand, *dto.BookingTransitionResult](context.Background(), h.buses.Commands, booking.TransitionBookingCommand{
		Identity:  id,
		BookingID: bookingID,
		Status:    status,
	})
}

func (h *harness) getListing(id string) *dto.Listing {
	h.t.Helper()
	l, err := queries.Ask[listings.GetListingQuery, *dto.Listing](context.Background(), h.buses.Queries, listings.GetListingQuery{ListingID: id})
	require.NoError(h.t, err)
	return l
}

func (h *harness) getBooking(id access.Identity, bookingID string) *dto.Booking {
	h.t.Helper()
	b, err := queries.Ask[booking.GetBookingQuery, *dto.Booking](context.Background(), h.buses.Queries, booking.GetBookingQuery{Identity: id, BookingID: bookingID})
	require.NoError(h.t, err)
	return b
}

func TestApprovalTakesListingOffTheMarket(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)
	assert.Equal(t, "pending", b.Status)
	assert.True(t, h.getListing(l.ID).Available)

	res, err := h.transition(owner, b.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, "approved", res.Booking.Status)
	assert.False(t, res.Listing.Available)
	assert.False(t, h.getListing(l.ID).Available)

	_, err = h.request(renterB, l.ID)
	assert.ErrorIs(t, err, errs.ErrNotAvailable)
}

func TestApprovalAutoRejectsPendingSiblings(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	first := h.mustRequest(renterA, l.ID)
	second := h.mustRequest(renterB, l.ID)

	res, err := h.transition(owner, first.ID, "approved")
	require.NoError(t, err)
	assert.Equal(t, []string{second.ID}, res.AutoRejectedIDs)

	sibling := h.getBooking(renterB, second.ID)
	assert.Equal(t, "rejected", sibling.Status)
	assert.NotEmpty(t, sibling.Reason)
}

func TestCompletingLeaseRestoresAvailability(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)
	_, err := h.transition(owner, b.ID, "approved")
	require.NoError(t, err)

	res, err := h.transition(owner, b.ID, "completed")
	require.NoError(t, err)
	assert.Equal(t, "completed", res.Booking.Status)
	assert.True(t, res.Listing.Available)
	assert.True(t, h.getListing(l.ID).Available)
}

func TestCancelKeepsListingAvailable(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)

	res, err := commands.Dispatch[booking.CancelBookingCommand, *dto.BookingTransitionResult](context.Background(), h.buses.Commands, booking.CancelBookingCommand{
		Identity:  renterA,
		BookingID: b.ID,
		Reason:    "found another place",
	})
	require.NoError(t, err)
	assert.Equal(t, "cancelled", res.Booking.Status)
	assert.True(t, res.Listing.Available)

	// A cancelled request no longer blocks a new one from the same renter.
	h.mustRequest(renterA, l.ID)
}

func TestApprovingAutoRejectedSiblingIsInvalid(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	first := h.mustRequest(renterA, l.ID)
	second := h.mustRequest(renterB, l.ID)
	_, err := h.transition(owner, first.ID, "approved")
	require.NoError(t, err)

	_, err = h.transition(owner, second.ID, "approved")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.NotErrorIs(t, err, errs.ErrNotAvailable)

	_, err = h.transition(owner, first.ID, "approved")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	assert.Equal(t, "rejected", h.getBooking(renterB, second.ID).Status)
	assert.False(t, h.getListing(l.ID).Available)
}

func TestRepeatedCancelIsInvalid(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)

	_, err := h.cancel(renterA, b.ID)
	require.NoError(t, err)
	before := h.getListing(l.ID)

	_, err = h.cancel(renterA, b.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	after := h.getListing(l.ID)
	assert.True(t, after.Available)
	assert.Equal(t, before.Version, after.Version)
}

func TestCancellingApprovedBookingIsInvalid(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)
	_, err := h.transition(owner, b.ID, "approved")
	require.NoError(t, err)

	_, err = h.cancel(renterA, b.ID)
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.False(t, h.getListing(l.ID).Available)
	assert.Equal(t, "approved", h.getBooking(renterA, b.ID).Status)
}

func TestRequestConflictsWithConcurrentRenterDeletion(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	ctx := context.Background()

	deletion, err := h.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	gone, err := deletion.Users().ByID(ctx, user.ID(renterA.UserID))
	require.NoError(t, err)
	require.NoError(t, deletion.Users().Delete(ctx, gone))

	_, err = h.request(renterA, l.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, deletion.Commit(ctx), errs.ErrConcurrentUpdate)
}

func TestRequestByDeletedRenterIsForbidden(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	ghost := access.Identity{UserID: "ghost", Roles: []user.Role{user.RoleRenter}}

	_, err := h.request(ghost, l.ID)
	assert.ErrorIs(t, err, uow.ErrActorGone)
	assert.ErrorIs(t, err, errs.ErrForbidden)
}

func TestIllegalTransitionsLeaveStateUntouched(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)
	_, err := h.transition(owner, b.ID, "approved")
	require.NoError(t, err)
	before := h.getListing(l.ID)

	_, err = h.transition(owner, b.ID, "rejected")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	_, err = h.transition(owner, b.ID, "pending")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)

	after := h.getListing(l.ID)
	assert.Equal(t, before.Version, after.Version)
	assert.False(t, after.Available)
	assert.Equal(t, "approved", h.getBooking(renterA, b.ID).Status)
}

func TestRepeatedRejectIsInvalid(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)

	_, err := h.transition(owner, b.ID, "rejected")
	require.NoError(t, err)
	_, err = h.transition(owner, b.ID, "rejected")
	assert.ErrorIs(t, err, errs.ErrInvalidTransition)
	assert.True(t, h.getListing(l.ID).Available)
}

func TestDuplicatePendingRequestIsRejected(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	h.mustRequest(renterA, l.ID)

	_, err := h.request(renterA, l.ID)
	assert.ErrorIs(t, err, errs.ErrDuplicatePending)
}

func TestRequestAgainstMissingListing(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)

	_, err := h.request(renterA, "nope")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestOnlyPartiesSeeOrMoveBookings(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)

	_, err := queries.Ask[booking.GetBookingQuery, *dto.Booking](context.Background(), h.buses.Queries, booking.GetBookingQuery{Identity: renterB, BookingID: b.ID})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = h.transition(renterA, b.ID, "approved")
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = h.transition(access.Identity{}, b.ID, "approved")
	assert.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestConcurrentApprovalsHaveSingleWinner(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()

	const renters = 8
	ids := make([]string, 0, renters)
	for i := 0; i < renters; i++ {
		r := access.Identity{UserID: fmt.Sprintf("renter-%d", i), Roles: []user.Role{user.RoleRenter}}
		h.seed(r)
		ids = append(ids, h.mustRequest(r, l.ID).ID)
	}

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	start := make(chan struct{})
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := h.transition(owner, id, "approved")
			if err == nil {
				winners.Add(1)
				return
			}
			assert.ErrorIs(t, err, errs.ErrConflict)
		}(id)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.False(t, h.getListing(l.ID).Available)

	all, err := queries.Ask[booking.ListOwnerBookingsQuery, dto.BookingCollection](context.Background(), h.buses.Queries, booking.ListOwnerBookingsQuery{Identity: owner, Status: "approved"})
	require.NoError(t, err)
	assert.Len(t, all.Items, 1)
}

func TestIdempotentRequestReplaysResult(t *testing.T) {
	t.Parallel()
	h := newHarness(t, nil)
	l := h.listing()

	cmd := booking.RequestBookingCommand{
		Identity:        renterA,
		ListingID:       l.ID,
		Contact:         dto.BookingContact{Name: "Ana", Email: "ana@example.com"},
		MoveInDate:      time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		LeaseMonths:     3,
		IdempotencyKeyV: "key-1",
	}
	first, err := commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), h.buses.Commands, cmd)
	require.NoError(t, err)
	second, err := commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), h.buses.Commands, cmd)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	mine, err := queries.Ask[booking.ListRenterBookingsQuery, dto.BookingCollection](context.Background(), h.buses.Queries, booking.ListRenterBookingsQuery{Identity: renterA})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 1)
}

var errDiskFull = errors.New("disk full")

// failingFactory hands out units whose commit fails once armed.
type failingFactory struct {
	uow.UoWFactory
	armed *atomic.Bool
}

type failingUnit struct {
	uow.UnitOfWork
	armed *atomic.Bool
}

func (f failingFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	unit, err := f.UoWFactory.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return failingUnit{UnitOfWork: unit, armed: f.armed}, nil
}

func (u failingUnit) Commit(ctx context.Context) error {
	if u.armed.Load() {
		_ = u.UnitOfWork.Rollback(ctx)
		return errDiskFull
	}
	return u.UnitOfWork.Commit(ctx)
}

func TestStorageFailureLeavesBothEntitiesUnchanged(t *testing.T) {
	t.Parallel()
	armed := &atomic.Bool{}
	h := newHarness(t, failingFactory{
		UoWFactory: memory.Factory{Store: memory.NewStore(), Outbox: memory.NewOutbox()},
		armed:      armed,
	})
	l := h.listing()
	b := h.mustRequest(renterA, l.ID)
	before := h.getListing(l.ID)

	armed.Store(true)
	_, err := h.transition(owner, b.ID, "approved")
	require.Error(t, err)
	assert.ErrorIs(t, err, errs.ErrStorage)
	assert.ErrorIs(t, err, errDiskFull)
	armed.Store(false)

	after := h.getListing(l.ID)
	assert.True(t, after.Available)
	assert.Equal(t, before.Version, after.Version)
	assert.Equal(t, "pending", h.getBooking(renterA, b.ID).Status)
}
