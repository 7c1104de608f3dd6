package cascade

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

const deleteUserKey = "cascade.delete_user"

var ErrSelfDelete = fmt.Errorf("cascade: %w: admins cannot delete their own account", errs.ErrValidation)

type DeleteUserCommand struct {
	Identity access.Identity `json:"-"`
	UserID   string          `json:"user_id" validate:"required"`
}

func (c DeleteUserCommand) Key() string                 { return deleteUserKey }
func (c DeleteUserCommand) Actor() access.Identity      { return c.Identity }
func (c DeleteUserCommand) Requires() access.Capability { return access.CapabilityAdmin }

// RevokedUser names the user whose sessions end once the command commits.
func (c DeleteUserCommand) RevokedUser() string { return strings.TrimSpace(c.UserID) }

// DeleteUserHandler removes a user, the listings they own with all their
// bookings and every booking they hold as a renter. Listings that survive
// get their availability recomputed from what is left of their ledger.
type DeleteUserHandler struct {
	Guard   access.Guard
	Clock   clock.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *DeleteUserHandler) Handle(ctx context.Context, cmd DeleteUserCommand) (dto.DeleteUserResult, error) {
	if err := h.Guard.CanAdminister(cmd.Identity); err != nil {
		return dto.DeleteUserResult{}, err
	}
	targetID := domainuser.ID(strings.TrimSpace(cmd.UserID))
	if string(targetID) == cmd.Identity.UserID {
		return dto.DeleteUserResult{}, ErrSelfDelete
	}
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.DeleteUserResult{}, uow.ErrUnitOfWorkMissing
	}

	target, err := unit.Users().ByID(ctx, targetID)
	if err != nil {
		return dto.DeleteUserResult{}, err
	}
	now := clock.OrSystem(h.Clock).Now()
	by := cmd.Identity.UserID

	removed := make(map[domainbooking.BookingID]struct{})
	owned, err := unit.Listings().ListByOwner(ctx, domainlistings.OwnerID(target.ID))
	if err != nil {
		return dto.DeleteUserResult{}, err
	}
	deletedListings := make(map[domainlistings.ListingID]struct{}, len(owned))
	for _, listing := range owned {
		bookings, err := unit.Bookings().ListByListing(ctx, listing.ID)
		if err != nil {
			return dto.DeleteUserResult{}, err
		}
		if err := removeListing(ctx, unit, h.Encoder, listing, bookings, by, now); err != nil {
			return dto.DeleteUserResult{}, err
		}
		deletedListings[listing.ID] = struct{}{}
		for _, b := range bookings {
			removed[b.ID] = struct{}{}
		}
	}

	held, err := h.heldBookings(ctx, unit, target.ID)
	if err != nil {
		return dto.DeleteUserResult{}, err
	}
	touched := make(map[domainlistings.ListingID]struct{})
	for _, b := range held {
		if _, done := removed[b.ID]; done {
			continue
		}
		if err := unit.Bookings().Delete(ctx, b); err != nil {
			return dto.DeleteUserResult{}, fmt.Errorf("delete booking %s: %w", b.ID, err)
		}
		removed[b.ID] = struct{}{}
		if _, gone := deletedListings[b.ListingID]; !gone {
			touched[b.ListingID] = struct{}{}
		}
	}

	restored, err := h.recompute(ctx, unit, touched, now)
	if err != nil {
		return dto.DeleteUserResult{}, err
	}

	target.MarkDeleted(domainuser.ID(by), len(owned), len(removed), now)
	if err := unit.Users().Delete(ctx, target); err != nil {
		return dto.DeleteUserResult{}, fmt.Errorf("delete user %s: %w", target.ID, err)
	}
	if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, target); err != nil {
		return dto.DeleteUserResult{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("user deleted",
			"user_id", target.ID,
			"deleted_by", by,
			"listings_removed", len(owned),
			"bookings_removed", len(removed),
			"listings_restored", len(restored),
		)
	}
	return dto.DeleteUserResult{
		UserID:           string(target.ID),
		ListingsRemoved:  len(owned),
		BookingsRemoved:  len(removed),
		ListingsRestored: restored,
	}, nil
}

// heldBookings returns the bookings where the user is renter or owner.
func (h *DeleteUserHandler) heldBookings(ctx context.Context, unit uow.UnitOfWork, id domainuser.ID) ([]*domainbooking.Booking, error) {
	asRenter, err := unit.Bookings().ListByRenter(ctx, string(id))
	if err != nil {
		return nil, err
	}
	asOwner, err := unit.Bookings().ListByOwner(ctx, domainlistings.OwnerID(id))
	if err != nil {
		return nil, err
	}
	return append(asRenter, asOwner...), nil
}

// recompute rewrites every touched listing so the unit conflicts with any
// concurrent booking command on it, and reports the ones that became available.
func (h *DeleteUserHandler) recompute(
	ctx context.Context,
	unit uow.UnitOfWork,
	touched map[domainlistings.ListingID]struct{},
	now time.Time,
) ([]string, error) {
	ids := make([]string, 0, len(touched))
	for id := range touched {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	var restored []string
	for _, raw := range ids {
		listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(raw))
		if err != nil {
			return nil, err
		}
		ledger, err := unit.Bookings().ListByListing(ctx, listing.ID)
		if err != nil {
			return nil, err
		}
		if listing.SyncAvailability(!domainbooking.AnyOccupying(ledger), now) && listing.Available {
			restored = append(restored, raw)
		}
		if err := unit.Listings().Save(ctx, listing); err != nil {
			return nil, err
		}
		if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, listing); err != nil {
			return nil, err
		}
	}
	return restored, nil
}

var (
	_ commands.Handler[DeleteUserCommand, dto.DeleteUserResult] = (*DeleteUserHandler)(nil)
	_ access.Restricted                                         = DeleteUserCommand{}
)
