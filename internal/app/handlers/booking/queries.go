package booking

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"

	"leasehub/internal/app/access"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
)

const (
	listRenterBookingsKey = "booking.list_renter"
	listOwnerBookingsKey  = "booking.list_owner"
	listAllBookingsKey    = "booking.list_all"
	getBookingKey         = "booking.get"
)

type ListRenterBookingsQuery struct {
	Identity access.Identity `json:"-"`
}

func (q ListRenterBookingsQuery) Key() string                 { return listRenterBookingsKey }
func (q ListRenterBookingsQuery) Actor() access.Identity      { return q.Identity }
func (q ListRenterBookingsQuery) Requires() access.Capability { return access.CapabilityRenter }

type ListOwnerBookingsQuery struct {
	Identity access.Identity `json:"-"`
	// Status filters by booking status; empty lists all of them.
	Status string `json:"status" validate:"omitempty,oneof=pending approved rejected cancelled completed"`
}

func (q ListOwnerBookingsQuery) Key() string                 { return listOwnerBookingsKey }
func (q ListOwnerBookingsQuery) Actor() access.Identity      { return q.Identity }
func (q ListOwnerBookingsQuery) Requires() access.Capability { return access.CapabilityOwner }

type ListAllBookingsQuery struct {
	Identity access.Identity `json:"-"`
}

func (q ListAllBookingsQuery) Key() string                 { return listAllBookingsKey }
func (q ListAllBookingsQuery) Actor() access.Identity      { return q.Identity }
func (q ListAllBookingsQuery) Requires() access.Capability { return access.CapabilityAdmin }

type GetBookingQuery struct {
	Identity  access.Identity `json:"-"`
	BookingID string          `json:"booking_id" validate:"required"`
}

func (q GetBookingQuery) Key() string                 { return getBookingKey }
func (q GetBookingQuery) Actor() access.Identity      { return q.Identity }
func (q GetBookingQuery) Requires() access.Capability { return access.CapabilityAuthenticated }

// Queries serves booking reads from a read-only unit of work.
type Queries struct {
	UoWFactory uow.UoWFactory
	Guard      access.Guard
	Logger     *slog.Logger
}

func (h *Queries) ListForRenter(ctx context.Context, q ListRenterBookingsQuery) (dto.BookingCollection, error) {
	return h.collect(ctx, func(ctx context.Context, repo domainbooking.Repository) ([]*domainbooking.Booking, error) {
		return repo.ListByRenter(ctx, q.Identity.UserID)
	}, "")
}

func (h *Queries) ListForOwner(ctx context.Context, q ListOwnerBookingsQuery) (dto.BookingCollection, error) {
	return h.collect(ctx, func(ctx context.Context, repo domainbooking.Repository) ([]*domainbooking.Booking, error) {
		return repo.ListByOwner(ctx, domainlistings.OwnerID(q.Identity.UserID))
	}, domainbooking.Status(strings.ToLower(strings.TrimSpace(q.Status))))
}

func (h *Queries) ListAll(ctx context.Context, _ ListAllBookingsQuery) (dto.BookingCollection, error) {
	return h.collect(ctx, func(ctx context.Context, repo domainbooking.Repository) ([]*domainbooking.Booking, error) {
		return repo.List(ctx)
	}, "")
}

func (h *Queries) Get(ctx context.Context, q GetBookingQuery) (*dto.Booking, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer release()

	b, err := unit.Bookings().ByID(execCtx, domainbooking.BookingID(strings.TrimSpace(q.BookingID)))
	if err != nil {
		return nil, err
	}
	if err := h.Guard.CanViewBooking(q.Identity, b); err != nil {
		return nil, err
	}
	listing, err := lookupListing(execCtx, unit, b.ListingID)
	if err != nil {
		return nil, err
	}
	out := dto.MapBooking(b, listing)
	return &out, nil
}

func (h *Queries) collect(
	ctx context.Context,
	load func(context.Context, domainbooking.Repository) ([]*domainbooking.Booking, error),
	status domainbooking.Status,
) (dto.BookingCollection, error) {
	unit, execCtx, release, err := uow.ReadOnly(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	defer release()

	bookings, err := load(execCtx, unit.Bookings())
	if err != nil {
		return dto.BookingCollection{}, err
	}
	sort.SliceStable(bookings, func(i, j int) bool {
		return bookings[i].CreatedAt.After(bookings[j].CreatedAt)
	})

	listingCache := make(map[domainlistings.ListingID]*domainlistings.Listing)
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		if status != "" && b.Status != status {
			continue
		}
		listing, seen := listingCache[b.ListingID]
		if !seen {
			listing, err = lookupListing(execCtx, unit, b.ListingID)
			if err != nil {
				return dto.BookingCollection{}, err
			}
			listingCache[b.ListingID] = listing
		}
		items = append(items, dto.MapBooking(b, listing))
	}
	if h.Logger != nil {
		h.Logger.Debug("bookings listed", "count", len(items), "status", status)
	}
	return dto.BookingCollection{Items: items}, nil
}

// lookupListing returns nil for a listing that no longer exists.
func lookupListing(ctx context.Context, unit uow.UnitOfWork, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	listing, err := unit.Listings().ByID(ctx, id)
	if errors.Is(err, errs.ErrNotFound) {
		return nil, nil
	}
	return listing, err
}

// Handlers adapt the query methods to the query bus.
func (h *Queries) RenterHandler() queries.Handler[ListRenterBookingsQuery, dto.BookingCollection] {
	return queries.HandlerFunc[ListRenterBookingsQuery, dto.BookingCollection](h.ListForRenter)
}

func (h *Queries) OwnerHandler() queries.Handler[ListOwnerBookingsQuery, dto.BookingCollection] {
	return queries.HandlerFunc[ListOwnerBookingsQuery, dto.BookingCollection](h.ListForOwner)
}

func (h *Queries) AllHandler() queries.Handler[ListAllBookingsQuery, dto.BookingCollection] {
	return queries.HandlerFunc[ListAllBookingsQuery, dto.BookingCollection](h.ListAll)
}

func (h *Queries) GetHandler() queries.Handler[GetBookingQuery, *dto.Booking] {
	return queries.HandlerFunc[GetBookingQuery, *dto.Booking](h.Get)
}
