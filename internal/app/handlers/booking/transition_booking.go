package booking

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainbooking "leasehub/internal/domain/booking"
	"leasehub/internal/domain/shared/errs"
)

const (
	transitionBookingKey = "booking.transition"
	cancelBookingKey     = "booking.cancel"
)

// TransitionBookingCommand is the owner's decision on a booking.
type TransitionBookingCommand struct {
	Identity  access.Identity `json:"-"`
	BookingID string          `json:"booking_id" validate:"required"`
	Status    string          `json:"status" validate:"required,oneof=pending approved rejected cancelled completed"`
	Reason    string          `json:"reason" validate:"max=500"`
}

func (c TransitionBookingCommand) Key() string                 { return transitionBookingKey }
func (c TransitionBookingCommand) Actor() access.Identity      { return c.Identity }
func (c TransitionBookingCommand) Requires() access.Capability { return access.CapabilityAuthenticated }

// CancelBookingCommand is the renter withdrawing a pending request.
type CancelBookingCommand struct {
	Identity  access.Identity `json:"-"`
	BookingID string          `json:"booking_id" validate:"required"`
	Reason    string          `json:"reason" validate:"max=500"`
}

func (c CancelBookingCommand) Key() string                 { return cancelBookingKey }
func (c CancelBookingCommand) Actor() access.Identity      { return c.Identity }
func (c CancelBookingCommand) Requires() access.Capability { return access.CapabilityAuthenticated }

// Coordinator applies booking transitions together with the listing
// availability they imply. Every call reads and writes through the unit of
// work in ctx; the surrounding transaction commits all of it or nothing.
type Coordinator struct {
	Guard   access.Guard
	Clock   clock.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (c *Coordinator) Transition(ctx context.Context, cmd TransitionBookingCommand) (*dto.BookingTransitionResult, error) {
	target, err := domainbooking.ParseStatus(cmd.Status)
	if err != nil {
		return nil, err
	}
	return c.apply(ctx, cmd.Identity, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)), target, strings.TrimSpace(cmd.Reason))
}

func (c *Coordinator) Cancel(ctx context.Context, cmd CancelBookingCommand) (*dto.BookingTransitionResult, error) {
	return c.apply(ctx, cmd.Identity, domainbooking.BookingID(strings.TrimSpace(cmd.BookingID)), domainbooking.StatusCancelled, strings.TrimSpace(cmd.Reason))
}

func (c *Coordinator) apply(ctx context.Context, id access.Identity, bookingID domainbooking.BookingID, target domainbooking.Status, reason string) (*dto.BookingTransitionResult, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	b, err := unit.Bookings().ByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := c.Guard.CanTransition(id, b, target); err != nil {
		return nil, err
	}
	if !domainbooking.CanTransition(b.Status, target) {
		return nil, fmt.Errorf("booking %s: %w: %s -> %s", b.ID, errs.ErrInvalidTransition, b.Status, target)
	}
	listing, err := unit.Listings().ByID(ctx, b.ListingID)
	if err != nil {
		return nil, fmt.Errorf("listing of booking %s: %w", b.ID, err)
	}
	ledger, err := unit.Bookings().ListByListing(ctx, listing.ID)
	if err != nil {
		return nil, err
	}
	ledger = replaceByID(ledger, b)

	if target == domainbooking.StatusApproved && domainbooking.AnyOccupying(ledger) {
		return nil, fmt.Errorf("listing %s: %w", listing.ID, errs.ErrNotAvailable)
	}

	now := clock.OrSystem(c.Clock).Now()
	if err := b.TransitionTo(target, reason, now); err != nil {
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}

	var rejected []*domainbooking.Booking
	if target == domainbooking.StatusApproved {
		for _, sibling := range ledger {
			if sibling.ID == b.ID || sibling.Status != domainbooking.StatusPending {
				continue
			}
			if err := sibling.TransitionTo(domainbooking.StatusRejected, domainbooking.ReasonSiblingApproved, now); err != nil {
				return nil, err
			}
			if err := unit.Bookings().Save(ctx, sibling); err != nil {
				return nil, err
			}
			rejected = append(rejected, sibling)
		}
	}

	// Availability is recomputed from the ledger on every transition, which
	// also repairs a flag left inconsistent by an earlier failure.
	changed := listing.SyncAvailability(!domainbooking.AnyOccupying(ledger), now)
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}

	drainers := make([]outbox.Drainer, 0, len(rejected)+2)
	drainers = append(drainers, b)
	for _, r := range rejected {
		drainers = append(drainers, r)
	}
	drainers = append(drainers, listing)
	if err := outbox.Record(ctx, unit.Outbox(), c.Encoder, drainers...); err != nil {
		return nil, err
	}

	if c.Logger != nil {
		c.Logger.Info("booking transitioned",
			"booking_id", b.ID,
			"listing_id", listing.ID,
			"status", b.Status,
			"actor", id.UserID,
			"auto_rejected", len(rejected),
			"availability_changed", changed,
			"available", listing.Available,
		)
	}

	result := &dto.BookingTransitionResult{
		Booking: dto.MapBooking(b, listing),
		Listing: dto.MapListing(listing),
	}
	for _, r := range rejected {
		result.AutoRejectedIDs = append(result.AutoRejectedIDs, string(r.ID))
	}
	return result, nil
}

// replaceByID swaps the ledger entry for b with b itself so the in-hand
// aggregate is the one that gets evaluated.
func replaceByID(ledger []*domainbooking.Booking, b *domainbooking.Booking) []*domainbooking.Booking {
	out := make([]*domainbooking.Booking, 0, len(ledger)+1)
	found := false
	for _, item := range ledger {
		if item.ID == b.ID {
			out = append(out, b)
			found = true
			continue
		}
		out = append(out, item)
	}
	if !found {
		out = append(out, b)
	}
	return out
}

// TransitionHandler and CancelHandler expose the coordinator to the command bus.
func (c *Coordinator) TransitionHandler() commands.Handler[TransitionBookingCommand, *dto.BookingTransitionResult] {
	return commands.HandlerFunc[TransitionBookingCommand, *dto.BookingTransitionResult](c.Transition)
}

func (c *Coordinator) CancelHandler() commands.Handler[CancelBookingCommand, *dto.BookingTransitionResult] {
	return commands.HandlerFunc[CancelBookingCommand, *dto.BookingTransitionResult](c.Cancel)
}

var (
	_ access.Restricted = TransitionBookingCommand{}
	_ access.Restricted = CancelBookingCommand{}
)
