package uow

import (
	"context"

	"leasehub/internal/app/outbox"
	"leasehub/internal/domain/booking"
	"leasehub/internal/domain/listings"
	"leasehub/internal/domain/user"
)

// UnitOfWork scopes repository access to one atomic change set. Writes made
// through it become visible to other units only after Commit succeeds.
type UnitOfWork interface {
	Listings() listings.Repository
	Bookings() booking.Repository
	Users() user.Repository
	// Outbox stores event records that commit together with the unit.
	Outbox() outbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}
