package listings

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/dto"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	"leasehub/internal/clock"
	domainlistings "leasehub/internal/domain/listings"
)

const (
	createListingKey = "listings.create"
	updateListingKey = "listings.update"
)

type CreateListingCommand struct {
	Identity    access.Identity `json:"-"`
	Title       string          `json:"title" validate:"required,max=200"`
	Category    string          `json:"category" validate:"required,oneof=apartment house room studio villa"`
	Transaction string          `json:"transaction" validate:"required,oneof=rent sale"`
	PriceCents  int64           `json:"price_cents" validate:"gte=0"`
	Address     dto.Address     `json:"address"`
	Extras      dto.Extras      `json:"extras"`
	Contact     dto.Contact     `json:"contact"`
}

func (c CreateListingCommand) Key() string                 { return createListingKey }
func (c CreateListingCommand) Actor() access.Identity      { return c.Identity }
func (c CreateListingCommand) Requires() access.Capability { return access.CapabilityOwner }

// UpdateListingCommand carries a partial update. Available is accepted from
// the wire only to reject it: the flag follows the booking ledger.
type UpdateListingCommand struct {
	Identity    access.Identity `json:"-"`
	ListingID   string          `json:"-" validate:"required"`
	Title       *string         `json:"title,omitempty" validate:"omitempty,min=1,max=200"`
	Category    *string         `json:"category,omitempty" validate:"omitempty,oneof=apartment house room studio villa"`
	Transaction *string         `json:"transaction,omitempty" validate:"omitempty,oneof=rent sale"`
	PriceCents  *int64          `json:"price_cents,omitempty" validate:"omitempty,gte=0"`
	Address     *dto.Address    `json:"address,omitempty"`
	Extras      *dto.Extras     `json:"extras,omitempty"`
	Contact     *dto.Contact    `json:"contact,omitempty"`
	Available   *bool           `json:"available,omitempty"`
}

func (c UpdateListingCommand) Key() string                 { return updateListingKey }
func (c UpdateListingCommand) Actor() access.Identity      { return c.Identity }
func (c UpdateListingCommand) Requires() access.Capability { return access.CapabilityOwner }

func (c UpdateListingCommand) patch() domainlistings.Patch {
	p := domainlistings.Patch{
		Title:      c.Title,
		PriceCents: c.PriceCents,
		Available:  c.Available,
	}
	if c.Category != nil {
		category := domainlistings.Category(strings.ToLower(*c.Category))
		p.Category = &category
	}
	if c.Transaction != nil {
		transaction := domainlistings.TransactionType(strings.ToLower(*c.Transaction))
		p.Transaction = &transaction
	}
	if c.Address != nil {
		address := c.Address.Domain()
		p.Address = &address
	}
	if c.Extras != nil {
		extras := c.Extras.Domain()
		p.Extras = &extras
	}
	if c.Contact != nil {
		contact := c.Contact.Domain()
		p.Contact = &contact
	}
	return p
}

type CreateListingHandler struct {
	Clock   clock.Clock
	NewID   func() string
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *CreateListingHandler) Handle(ctx context.Context, cmd CreateListingCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	if _, err := uow.ClaimActor(ctx, unit, cmd.Identity.UserID); err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if h.NewID != nil {
		id = h.NewID()
	}
	listing, err := domainlistings.NewListing(domainlistings.CreateParams{
		ID:          domainlistings.ListingID(id),
		Owner:       domainlistings.OwnerID(cmd.Identity.UserID),
		Title:       cmd.Title,
		Category:    domainlistings.Category(strings.ToLower(cmd.Category)),
		Transaction: domainlistings.TransactionType(strings.ToLower(cmd.Transaction)),
		PriceCents:  cmd.PriceCents,
		Address:     cmd.Address.Domain(),
		Extras:      cmd.Extras.Domain(),
		Contact:     cmd.Contact.Domain(),
		Now:         clock.OrSystem(h.Clock).Now(),
	})
	if err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", listing.Owner)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

type UpdateListingHandler struct {
	Guard   access.Guard
	Clock   clock.Clock
	Encoder outbox.EventEncoder
	Logger  *slog.Logger
}

func (h *UpdateListingHandler) Handle(ctx context.Context, cmd UpdateListingCommand) (*dto.Listing, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}

	listing, err := unit.Listings().ByID(ctx, domainlistings.ListingID(strings.TrimSpace(cmd.ListingID)))
	if err != nil {
		return nil, err
	}
	if err := h.Guard.CanMutateListing(cmd.Identity, listing); err != nil {
		return nil, err
	}
	if err := listing.ApplyPatch(cmd.patch(), clock.OrSystem(h.Clock).Now()); err != nil {
		return nil, err
	}
	if err := unit.Listings().Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, unit.Outbox(), h.Encoder, listing); err != nil {
		return nil, err
	}

	if h.Logger != nil {
		h.Logger.Info("listing updated", "listing_id", listing.ID, "version", listing.Version)
	}
	result := dto.MapListing(listing)
	return &result, nil
}

var (
	_ commands.Handler[CreateListingCommand, *dto.Listing] = (*CreateListingHandler)(nil)
	_ commands.Handler[UpdateListingCommand, *dto.Listing] = (*UpdateListingHandler)(nil)
	_ access.Restricted                                    = CreateListingCommand{}
	_ access.Restricted                                    = UpdateListingCommand{}
)
