package cascade_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/handlers/booking"
	"leasehub/internal/app/handlers/cascade"
	"leasehub/internal/app/handlers/listings"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	"leasehub/internal/app/wiring"
	"leasehub/internal/clock"
	domainauth "leasehub/internal/domain/auth"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
	"leasehub/internal/infra/storage/memory"
)

var (
	now     = time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	admin   = access.Identity{UserID: "admin", Roles: []user.Role{user.RoleAdmin}, OwnerApproved: true}
	owner   = access.Identity{UserID: "owner", Roles: []user.Role{user.RoleOwner, user.RoleRenter}, OwnerApproved: true}
	rival   = access.Identity{UserID: "rival", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}
	renter  = access.Identity{UserID: "renter", Roles: []user.Role{user.RoleRenter}}
	another = access.Identity{UserID: "another", Roles: []user.Role{user.RoleRenter}}
)

type recordingArchive struct {
	keys      []string
	snapshots []any
	err       error
}

func (a *recordingArchive) Archive(_ context.Context, key string, snapshot any) error {
	if a.err != nil {
		return a.err
	}
	a.keys = append(a.keys, key)
	a.snapshots = append(a.snapshots, snapshot)
	return nil
}

type fixture struct {
	t        *testing.T
	factory  memory.Factory
	sessions *memory.SessionStore
	buses    wiring.Buses
}

func newFixture(t *testing.T, archiver cascade.Archiver) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		factory:  memory.Factory{Store: memory.NewStore(), Outbox: memory.NewOutbox()},
		sessions: memory.NewSessionStore(),
	}
	var seq atomic.Int64
	f.buses = wiring.Build(wiring.Deps{
		UoWFactory: f.factory,
		Sessions:   f.sessions,
		Archiver:   archiver,
		Clock:      clock.NewFixed(now),
		NewID:      func() string { return fmt.Sprintf("id-%d", seq.Add(1)) },
	})
	for _, id := range []access.Identity{admin, owner, rival, renter, another} {
		f.seedUser(id)
	}
	return f
}

func (f *fixture) seedUser(id access.Identity) {
	f.t.Helper()
	u, err := user.NewUser(user.CreateParams{
		ID:           user.ID(id.UserID),
		Email:        id.UserID + "@example.com",
		Name:         id.UserID,
		PasswordHash: "hash",
		Roles:        id.Roles,
		CreatedAt:    now,
	})
	require.NoError(f.t, err)
	u.OwnerApproved = id.OwnerApproved
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(f.t, err)
	require.NoError(f.t, unit.Users().Save(ctx, u))
	require.NoError(f.t, unit.Commit(ctx))
}

func (f *fixture) listing(by access.Identity) string {
	f.t.Helper()
	l, err := commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), f.buses.Commands, listings.CreateListingCommand{
		Identity:    by,
		Title:       "Cottage",
		Category:    "house",
		Transaction: "rent",
		PriceCents:  150000,
		Address:     dto.Address{Street: "5 Lane", City: "Braga", Country: "PT"},
	})
	require.NoError(f.t, err)
	return l.ID
}

func (f *fixture) book(by access.Identity, listingID string) string {
	f.t.Helper()
	b, err := commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), f.buses.Commands, booking.RequestBookingCommand{
		Identity:    by,
		ListingID:   listingID,
		Contact:     dto.BookingContact{Name: by.UserID, Email: by.UserID + "@example.com"},
		MoveInDate:  now.AddDate(0, 1, 0),
		LeaseMonths: 12,
	})
	require.NoError(f.t, err)
	return b.ID
}

func (f *fixture) approve(bookingID string, by access.Identity) {
	f.t.Helper()
	_, err := commands.Dispatch[booking.TransitionBookingCommand, *dto.BookingTransitionResult](context.Background(), f.buses.Commands, booking.TransitionBookingCommand{
		Identity: by, BookingID: bookingID, Status: "approved",
	})
	require.NoError(f.t, err)
}

func (f *fixture) getListing(id string) (*dto.Listing, error) {
	return queries.Ask[listings.GetListingQuery, *dto.Listing](context.Background(), f.buses.Queries, listings.GetListingQuery{ListingID: id})
}

func (f *fixture) allBookings() []dto.Booking {
	f.t.Helper()
	all, err := queries.Ask[booking.ListAllBookingsQuery, dto.BookingCollection](context.Background(), f.buses.Queries, booking.ListAllBookingsQuery{Identity: admin})
	require.NoError(f.t, err)
	return all.Items
}

func (f *fixture) deleteListing(by access.Identity, id string) (dto.DeleteListingResult, error) {
	return commands.Dispatch[cascade.DeleteListingCommand, dto.DeleteListingResult](context.Background(), f.buses.Commands, cascade.DeleteListingCommand{Identity: by, ListingID: id})
}

func (f *fixture) deleteUser(by access.Identity, id string) (dto.DeleteUserResult, error) {
	return commands.Dispatch[cascade.DeleteUserCommand, dto.DeleteUserResult](context.Background(), f.buses.Commands, cascade.DeleteUserCommand{Identity: by, UserID: id})
}

func TestDeleteListingArchivesAndRemovesBookings(t *testing.T) {
	t.Parallel()
	archive := &recordingArchive{}
	f := newFixture(t, archive)
	listingID := f.listing(owner)
	f.book(renter, listingID)
	f.book(another, listingID)

	res, err := f.deleteListing(owner, listingID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.BookingsRemoved)
	assert.Equal(t, fmt.Sprintf("listings/%s/%d.json", listingID, now.UnixMilli()), res.ArchiveKey)

	require.Len(t, archive.snapshots, 1)
	snapshot, ok := archive.snapshots[0].(cascade.ListingSnapshot)
	require.True(t, ok)
	assert.Equal(t, listingID, snapshot.Listing.ID)
	assert.Len(t, snapshot.Bookings, 2)
	assert.Equal(t, owner.UserID, snapshot.DeletedBy)

	_, err = f.getListing(listingID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, f.allBookings())
}

func TestDeleteListingAbortsWhenArchiveFails(t *testing.T) {
	t.Parallel()
	f := newFixture(t, &recordingArchive{err: errors.New("bucket offline")})
	listingID := f.listing(owner)
	f.book(renter, listingID)

	_, err := f.deleteListing(owner, listingID)
	require.Error(t, err)

	_, err = f.getListing(listingID)
	assert.NoError(t, err)
	assert.Len(t, f.allBookings(), 1)
}

func TestDeleteListingRequiresOwnerOrAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	listingID := f.listing(owner)

	_, err := f.deleteListing(rival, listingID)
	assert.ErrorIs(t, err, errs.ErrForbidden)
	_, err = f.deleteListing(renter, listingID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	res, err := f.deleteListing(admin, listingID)
	require.NoError(t, err)
	assert.Empty(t, res.ArchiveKey)
}

func TestDeleteRenterRestoresListingAvailability(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	listingID := f.listing(owner)
	bookingID := f.book(renter, listingID)
	f.book(another, listingID)
	f.approve(bookingID, owner)

	l, err := f.getListing(listingID)
	require.NoError(t, err)
	require.False(t, l.Available)

	session, err := domainauth.NewSession(domainauth.CreateSessionParams{Token: "tok", UserID: user.ID(renter.UserID), TTL: time.Hour, Now: time.Now()})
	require.NoError(t, err)
	require.NoError(t, f.sessions.Save(context.Background(), session))

	res, err := f.deleteUser(admin, renter.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.BookingsRemoved)
	assert.Zero(t, res.ListingsRemoved)
	assert.Equal(t, []string{listingID}, res.ListingsRestored)

	l, err = f.getListing(listingID)
	require.NoError(t, err)
	assert.True(t, l.Available)

	remaining := f.allBookings()
	require.Len(t, remaining, 1)
	assert.Equal(t, another.UserID, remaining[0].RenterID)

	_, err = f.sessions.Get(context.Background(), "tok")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestDeleteOwnerRemovesListingsAndBookings(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	first := f.listing(owner)
	second := f.listing(owner)
	kept := f.listing(rival)
	f.book(renter, first)
	f.book(renter, second)
	held := f.book(owner, kept)
	f.approve(held, rival)

	res, err := f.deleteUser(admin, owner.UserID)
	require.NoError(t, err)
	assert.Equal(t, 2, res.ListingsRemoved)
	assert.Equal(t, 3, res.BookingsRemoved)
	assert.Equal(t, []string{kept}, res.ListingsRestored)

	for _, id := range []string{first, second} {
		_, err := f.getListing(id)
		assert.ErrorIs(t, err, errs.ErrNotFound)
	}
	l, err := f.getListing(kept)
	require.NoError(t, err)
	assert.True(t, l.Available)
	assert.Empty(t, f.allBookings())
}

func TestDeleteUserGuards(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	_, err := f.deleteUser(admin, admin.UserID)
	assert.ErrorIs(t, err, cascade.ErrSelfDelete)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = f.deleteUser(owner, renter.UserID)
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = f.deleteUser(admin, "ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

// beginUserDeletion runs the delete-user cascade inside a unit that is left
// open so other commands can interleave before it commits.
func (f *fixture) beginUserDeletion(id string) (uow.UnitOfWork, context.Context) {
	f.t.Helper()
	ctx := context.Background()
	unit, err := f.factory.Begin(ctx, uow.TxOptions{})
	require.NoError(f.t, err)
	execCtx := uow.Bind(ctx, unit)
	handler := &cascade.DeleteUserHandler{Guard: access.Guard{}, Clock: clock.NewFixed(now)}
	_, err = handler.Handle(execCtx, cascade.DeleteUserCommand{Identity: admin, UserID: id})
	require.NoError(f.t, err)
	return unit, execCtx
}

func TestBookingDuringRenterDeletionAbortsDeletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	listingID := f.listing(owner)

	deletion, ctx := f.beginUserDeletion(renter.UserID)
	f.book(renter, listingID)

	assert.ErrorIs(t, deletion.Commit(ctx), errs.ErrConcurrentUpdate)
	remaining := f.allBookings()
	require.Len(t, remaining, 1)
	assert.Equal(t, renter.UserID, remaining[0].RenterID)
}

func TestListingDuringOwnerDeletionAbortsDeletion(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)

	deletion, ctx := f.beginUserDeletion(rival.UserID)
	listingID := f.listing(rival)

	assert.ErrorIs(t, deletion.Commit(ctx), errs.ErrConcurrentUpdate)
	l, err := f.getListing(listingID)
	require.NoError(t, err)
	assert.Equal(t, rival.UserID, l.OwnerID)
}

func TestDeletedUserCannotCreateAnything(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	listingID := f.listing(owner)

	deletion, ctx := f.beginUserDeletion(renter.UserID)
	require.NoError(t, deletion.Commit(ctx))

	_, err := commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), f.buses.Commands, booking.RequestBookingCommand{
		Identity:    renter,
		ListingID:   listingID,
		Contact:     dto.BookingContact{Name: renter.UserID, Email: renter.UserID + "@example.com"},
		MoveInDate:  now.AddDate(0, 1, 0),
		LeaseMonths: 12,
	})
	assert.ErrorIs(t, err, uow.ErrActorGone)
	assert.Empty(t, f.allBookings())

	deletion, ctx = f.beginUserDeletion(rival.UserID)
	require.NoError(t, deletion.Commit(ctx))
	_, err = commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), f.buses.Commands, listings.CreateListingCommand{
		Identity:    rival,
		Title:       "Barn",
		Category:    "house",
		Transaction: "rent",
		Address:     dto.Address{Street: "9 Road", City: "Braga", Country: "PT"},
	})
	assert.ErrorIs(t, err, uow.ErrActorGone)
}

func TestRejectOwnerCascadesLikeDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t, nil)
	listingID := f.listing(rival)
	f.book(renter, listingID)

	reject := func(id string) (dto.DeleteUserResult, error) {
		return commands.Dispatch[cascade.RejectOwnerCommand, dto.DeleteUserResult](context.Background(), f.buses.Commands, cascade.RejectOwnerCommand{Identity: admin, UserID: id})
	}

	_, err := reject(renter.UserID)
	assert.ErrorIs(t, err, user.ErrNotOwner)
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = reject("ghost")
	assert.ErrorIs(t, err, errs.ErrNotFound)

	res, err := reject(rival.UserID)
	require.NoError(t, err)
	assert.Equal(t, 1, res.ListingsRemoved)
	assert.Equal(t, 1, res.BookingsRemoved)

	_, err = f.getListing(listingID)
	assert.ErrorIs(t, err, errs.ErrNotFound)
	assert.Empty(t, f.allBookings())

	_, err = commands.Dispatch[cascade.RejectOwnerCommand, dto.DeleteUserResult](context.Background(), f.buses.Commands, cascade.RejectOwnerCommand{Identity: owner, UserID: owner.UserID})
	assert.ErrorIs(t, err, errs.ErrForbidden)
}
