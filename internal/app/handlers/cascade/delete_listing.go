package cascade

import (
	"context"
	"fmt"
	"log/slog"
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
)

const deleteListingKey = "cascade.delete_listing"

// DeleteListingCommand removes a listing together with its bookings. The
// listing owner and admins may issue it.
type DeleteListingCommand struct {
	Identity  access.Identity `json:"-"`
	ListingID string          `json:"listing_id" validate:"required"`
}

func (c DeleteListingCommand) Key() string                 { return deleteListingKey }
func (c DeleteListingCommand) Actor() access.Identity      { return c.Identity }
func (c DeleteListingCommand) Requires() access.Capability { return access.CapabilityOwner }

type DeleteListingHandler struct {
	Guard    access.Guard
	Clock    clock.Clock
	Archiver Archiver
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
}

func (h *DeleteListingHandler) Handle(ctx context.Context, cmd DeleteListingCommand) (dto.DeleteListingResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.DeleteListingResult{}, uow.ErrUnitOfWorkMissing
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return dto.DeleteListingResult{}, err
	}
	if err := h.Guard.CanMutateListing(cmd.Identity, listing); err != nil {
		return dto.DeleteListingResult{}, err
	}

	now := clock.OrSystem(h.Clock).Now()
	bookings, err := unit.Bookings().ListByListing(ctx, listing.ID)
	if err != nil {
		return dto.DeleteListingResult{}, err
	}

	var key string
	if h.Archiver != nil {
		key = archiveKey(listing.ID, now)
		if err := h.Archiver.Archive(ctx, key, snapshotOf(listing, bookings, cmd.Identity.UserID, now)); err != nil {
			return dto.DeleteListingResult{}, fmt.Errorf("archive listing %s: %w", listing.ID, err)
		}
	}

	if err := removeListing(ctx, unit, h.Encoder, listing, bookings, cmd.Identity.UserID, now); err != nil {
		return dto.DeleteListingResult{}, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing deleted", "listing_id", listing.ID, "deleted_by", cmd.Identity.UserID, "bookings_removed", len(bookings), "archive_key", key)
	}
	return dto.DeleteListingResult{
		ListingID:       string(listing.ID),
		BookingsRemoved: len(bookings),
		ArchiveKey:      key,
	}, nil
}

// removeListing deletes the bookings first so no booking outlives its listing
// within the unit.
func removeListing(
	ctx context.Context,
	unit uow.UnitOfWork,
	encoder outbox.EventEncoder,
	listing *domainlistings.Listing,
	bookings []*domainbooking.Booking,
	by string,
	now time.Time,
) error {
	for _, b := range bookings {
		if err := unit.Bookings().Delete(ctx, b); err != nil {
			return fmt.Errorf("delete booking %s: %w", b.ID, err)
		}
	}
	listing.MarkDeleted(by, len(bookings), now)
	if err := unit.Listings().Delete(ctx, listing); err != nil {
		return fmt.Errorf("delete listing %s: %w", listing.ID, err)
	}
	return outbox.Record(ctx, unit.Outbox(), encoder, listing)
}

func snapshotOf(listing *domainlistings.Listing, bookings []*domainbooking.Booking, by string, now time.Time) ListingSnapshot {
	items := make([]dto.Booking, 0, len(bookings))
	for _, b := range bookings {
		items = append(items, dto.MapBooking(b, listing))
	}
	return ListingSnapshot{
		Listing:   dto.MapListing(listing),
		Bookings:  items,
		DeletedBy: by,
		DeletedAt: now.UTC(),
	}
}

var (
	_ commands.Handler[DeleteListingCommand, dto.DeleteListingResult] = (*DeleteListingHandler)(nil)
	_ access.Restricted                                               = DeleteListingCommand{}
)
