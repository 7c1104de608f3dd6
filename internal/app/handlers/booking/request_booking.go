package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/middleware"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
)

const requestBookingKey = "booking.request"

type RequestBookingCommand struct {
	Identity        access.Identity    `json:"-"`
	ListingID       string             `json:"listing_id" validate:"required"`
	Contact         dto.BookingContact `json:"contact"`
	Message         string             `json:"message" validate:"max=2000"`
	MoveInDate      time.Time          `json:"move_in_date" validate:"required"`
	LeaseMonths     int                `json:"lease_months" validate:"min=1,max=120"`
	IdempotencyKeyV string             `json:"-"`
}

func (c RequestBookingCommand) Key() string                 { return requestBookingKey }
func (c RequestBookingCommand) Actor() access.Identity      { return c.Identity }
func (c RequestBookingCommand) Requires() access.Capability { return access.CapabilityRenter }
func (c RequestBookingCommand) ResultPrototype() any        { return &dto.Booking{} }

// IdempotencyKey is scoped to the renter so two renters cannot replay each other's results.
func (c RequestBookingCommand) IdempotencyKey() string {
	key := strings.TrimSpace(c.IdempotencyKeyV)
	if key == "" {
		return ""
	}
	return c.Identity.UserID + ":" + key
}

// RequestBookingHandler creates a pending booking against an available
// listing. It writes the listing and the renter back unchanged so that a
// concurrent approval on the listing or deletion of the renter conflicts
// with this unit at commit.
type RequestBookingHandler struct {
	Guard   access.Guard
	Clock   clock.Clock
	NewID   func() string
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *RequestBookingHandler) Handle(ctx context.Context, cmd RequestBookingCommand) (*dto.Booking, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return nil, err
	}
	if err := h.Guard.CanCreateBooking(cmd.Identity, listing); err != nil {
		return nil, err
	}
	if !listing.Available {
		return nil, fmt.Errorf("listing %s: %w", listing.ID, errs.ErrNotAvailable)
	}
	existing, err := unit.Bookings().FindPending(ctx, cmd.Identity.UserID, listing.ID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("booking %s: %w", existing.ID, errs.ErrDuplicatePending)
	case !errors.Is(err, errs.ErrNotFound):
		return nil, err
	}

	if _, err := uow.ClaimActor(ctx, unit, cmd.Identity.UserID); err != nil {
		return nil, err
	}

	now := clock.OrSystem(h.Clock).Now()
	booking, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(h.newID()),
		ListingID: listing.ID,
		RenterID:  cmd.Identity.UserID,
		OwnerID:   listing.Owner,
		Contact: domainbooking.Contact{
			Name:  cmd.Contact.Name,
			Phone: cmd.Contact.Phone,
			Email: cmd.Contact.Email,
		},
		Message:     cmd.Message,
		MoveInDate:  cmd.MoveInDate,
		LeaseMonths: cmd.LeaseMonths,
		Now:         now,
	})
	if err != nil {
		return nil, err
	}

	if err := unit.Bookings().Save(ctx, booking); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, booking); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("booking requested", "booking_id", booking.ID, "listing_id", listing.ID, "renter_id", booking.RenterID)
	}
	result := dto.MapBooking(booking, listing)
	return &result, nil
}

func (h *RequestBookingHandler) newID() string {
	if h.NewID != nil {
		return h.NewID()
	}
	return uuid.NewString()
}

var (
	_ commands.Handler[RequestBookingCommand, *dto.Booking] = (*RequestBookingHandler)(nil)
	_ middleware.IdempotentCommand                          = RequestBookingCommand{}
	_ access.Restricted                                     = RequestBookingCommand{}
)
