package listings_test

import (
	"context"
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
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	"leasehub/internal/domain/user"
	"leasehub/internal/infra/storage/memory"
)

var (
	owner   = access.Identity{UserID: "owner", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}
	pending = access.Identity{UserID: "pending", Roles: []user.Role{user.RoleOwner}}
	other   = access.Identity{UserID: "other", Roles: []user.Role{user.RoleOwner}, OwnerApproved: true}
	renter  = access.Identity{UserID: "renter", Roles: []user.Role{user.RoleRenter}}
	admin   = access.Identity{UserID: "admin", Roles: []user.Role{user.RoleAdmin}}
)

func newBuses(t *testing.T) wiring.Buses {
	t.Helper()
	factory := memory.Factory{Store: memory.NewStore()}
	ctx := context.Background()
	unit, err := factory.Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	for _, id := range []access.Identity{owner, pending, other, renter, admin} {
		u, err := user.NewUser(user.CreateParams{
			ID:           user.ID(id.UserID),
			Email:        id.UserID + "@example.com",
			Name:         id.UserID,
			PasswordHash: "hash",
			Roles:        id.Roles,
			CreatedAt:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		})
		require.NoError(t, err)
		u.OwnerApproved = id.OwnerApproved
		require.NoError(t, unit.Users().Save(ctx, u))
	}
	require.NoError(t, unit.Commit(ctx))
	return wiring.Build(wiring.Deps{UoWFactory: factory})
}

func create(t *testing.T, b wiring.Buses, by access.Identity, city string, bedrooms int, price int64) *dto.Listing {
	t.Helper()
	l, err := commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), b.Commands, listings.CreateListingCommand{
		Identity:    by,
		Title:       "Flat in " + city,
		Category:    "apartment",
		Transaction: "rent",
		PriceCents:  price,
		Address:     dto.Address{Street: "1 Square", City: city, Country: "ES"},
		Extras:      dto.Extras{Bedrooms: bedrooms},
	})
	require.NoError(t, err)
	return l
}

func update(b wiring.Buses, cmd listings.UpdateListingCommand) (*dto.Listing, error) {
	return commands.Dispatch[listings.UpdateListingCommand, *dto.Listing](context.Background(), b.Commands, cmd)
}

func TestCreateListingStartsAvailable(t *testing.T) {
	t.Parallel()
	b := newBuses(t)

	l := create(t, b, owner, "Madrid", 2, 80000)
	assert.True(t, l.Available)
	assert.Equal(t, owner.UserID, l.OwnerID)
	assert.Equal(t, int64(1), l.Version)
}

func TestCreateListingRequiresApprovedOwner(t *testing.T) {
	t.Parallel()
	b := newBuses(t)

	for _, id := range []access.Identity{pending, renter, {}} {
		_, err := commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), b.Commands, listings.CreateListingCommand{
			Identity:    id,
			Title:       "Nope",
			Category:    "room",
			Transaction: "rent",
			Address:     dto.Address{Street: "x", City: "y", Country: "z"},
		})
		assert.ErrorIs(t, err, errs.ErrForbidden)
	}
}

func TestCreateListingValidatesInput(t *testing.T) {
	t.Parallel()
	b := newBuses(t)

	_, err := commands.Dispatch[listings.CreateListingCommand, *dto.Listing](context.Background(), b.Commands, listings.CreateListingCommand{
		Identity:    owner,
		Title:       "Castle",
		Category:    "castle",
		Transaction: "rent",
		Address:     dto.Address{Street: "x", City: "y", Country: "z"},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestUpdateListingPatchesFields(t *testing.T) {
	t.Parallel()
	b := newBuses(t)
	l := create(t, b, owner, "Madrid", 2, 80000)

	title := "Renovated flat"
	price := int64(95000)
	updated, err := update(b, listings.UpdateListingCommand{Identity: owner, ListingID: l.ID, Title: &title, PriceCents: &price})
	require.NoError(t, err)
	assert.Equal(t, title, updated.Title)
	assert.Equal(t, price, updated.PriceCents)
	assert.Equal(t, l.Address, updated.Address)
	assert.Greater(t, updated.Version, l.Version)
}

func TestUpdateListingRejectsAvailabilityAndStrangers(t *testing.T) {
	t.Parallel()
	b := newBuses(t)
	l := create(t, b, owner, "Madrid", 2, 80000)

	unavailable := false
	_, err := update(b, listings.UpdateListingCommand{Identity: owner, ListingID: l.ID, Available: &unavailable})
	assert.ErrorIs(t, err, domainlistings.ErrAvailabilityManaged)

	title := "Mine now"
	_, err = update(b, listings.UpdateListingCommand{Identity: other, ListingID: l.ID, Title: &title})
	assert.ErrorIs(t, err, errs.ErrForbidden)

	_, err = update(b, listings.UpdateListingCommand{Identity: admin, ListingID: l.ID, Title: &title})
	assert.NoError(t, err)
}

func TestCatalogHidesBookedListings(t *testing.T) {
	t.Parallel()
	b := newBuses(t)
	madrid := create(t, b, owner, "Madrid", 3, 80000)
	create(t, b, owner, "Sevilla", 1, 60000)
	create(t, b, other, "Madrid", 1, 120000)

	res, err := queries.Ask[listings.SearchCatalogQuery, dto.ListingCollection](context.Background(), b.Queries, listings.SearchCatalogQuery{City: "madrid"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)

	res, err = queries.Ask[listings.SearchCatalogQuery, dto.ListingCollection](context.Background(), b.Queries, listings.SearchCatalogQuery{City: "madrid", MinBedrooms: 2, MaxPriceCents: 100000})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, madrid.ID, res.Items[0].ID)

	bk, err := commands.Dispatch[booking.RequestBookingCommand, *dto.Booking](context.Background(), b.Commands, booking.RequestBookingCommand{
		Identity:    renter,
		ListingID:   madrid.ID,
		Contact:     dto.BookingContact{Name: "Luis", Phone: "600000000"},
		MoveInDate:  time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC),
		LeaseMonths: 12,
	})
	require.NoError(t, err)
	_, err = commands.Dispatch[booking.TransitionBookingCommand, *dto.BookingTransitionResult](context.Background(), b.Commands, booking.TransitionBookingCommand{
		Identity: owner, BookingID: bk.ID, Status: "approved",
	})
	require.NoError(t, err)

	res, err = queries.Ask[listings.SearchCatalogQuery, dto.ListingCollection](context.Background(), b.Queries, listings.SearchCatalogQuery{City: "madrid"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)

	booked := false
	res, err = queries.Ask[listings.SearchCatalogQuery, dto.ListingCollection](context.Background(), b.Queries, listings.SearchCatalogQuery{City: "madrid", Available: &booked})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, madrid.ID, res.Items[0].ID)

	all, err := queries.Ask[listings.ListAllListingsQuery, dto.ListingCollection](context.Background(), b.Queries, listings.ListAllListingsQuery{Identity: admin})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	mine, err := queries.Ask[listings.ListOwnerListingsQuery, dto.ListingCollection](context.Background(), b.Queries, listings.ListOwnerListingsQuery{Identity: owner})
	require.NoError(t, err)
	assert.Len(t, mine.Items, 2)

	got, err := queries.Ask[listings.GetListingQuery, *dto.Listing](context.Background(), b.Queries, listings.GetListingQuery{ListingID: madrid.ID})
	require.NoError(t, err)
	assert.False(t, got.Available)
}

func TestGetMissingListing(t *testing.T) {
	t.Parallel()
	b := newBuses(t)

	_, err := queries.Ask[listings.GetListingQuery, *dto.Listing](context.Background(), b.Queries, listings.GetListingQuery{ListingID: "missing"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}
