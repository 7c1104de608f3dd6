package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

var (
	ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")
	ErrUnitClosed           = errors.New("memory: unit of work already finished")
	ErrReadOnly             = fmt.Errorf("memory: %w: write in read-only unit", errs.ErrStorage)
)

// Factory starts units over a shared Store. Committed event records go to
// Outbox when it is set.
type Factory struct {
	Store  *Store
	Outbox *Outbox
}

func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		store:    f.Store,
		queue:    f.Outbox,
		readOnly: opts.ReadOnly,
		listings: changes[domainlistings.ListingID, *domainlistings.Listing]{},
		bookings: changes[domainbooking.BookingID, *domainbooking.Booking]{},
		users:    changes[domainuser.ID, *domainuser.User]{},
	}, nil
}

// Unit stages writes locally and reads its own writes.
type Unit struct {
	store    *Store
	queue    *Outbox
	readOnly bool

	mu       sync.Mutex
	done     bool
	listings changes[domainlistings.ListingID, *domainlistings.Listing]
	bookings changes[domainbooking.BookingID, *domainbooking.Booking]
	users    changes[domainuser.ID, *domainuser.User]
	records  []outbox.EventRecord
}

func (u *Unit) Listings() domainlistings.Repository { return listingRepo{u} }
func (u *Unit) Bookings() domainbooking.Repository  { return bookingRepo{u} }
func (u *Unit) Users() domainuser.Repository        { return userRepo{u} }
func (u *Unit) Outbox() outbox.Outbox               { return unitOutbox{u} }

func (u *Unit) Commit(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true

	s := u.store
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := u.listings.validate(listingOps, s.listings); err != nil {
		return fmt.Errorf("listings: %w", err)
	}
	if err := u.bookings.validate(bookingOps, s.bookings); err != nil {
		return fmt.Errorf("bookings: %w", err)
	}
	if err := u.users.validate(userOps, s.users); err != nil {
		return fmt.Errorf("users: %w", err)
	}
	if err := u.checkEmailsLocked(); err != nil {
		return err
	}
	u.listings.apply(s.listings)
	u.bookings.apply(s.bookings)
	u.users.apply(s.users)
	if u.queue != nil && len(u.records) > 0 {
		u.queue.enqueue(u.records)
	}
	return nil
}

func (u *Unit) Rollback(_ context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.records = nil
	return nil
}

// checkEmailsLocked rejects staged users whose email another committed user holds.
func (u *Unit) checkEmailsLocked() error {
	for id, ch := range u.users {
		if ch.deleted {
			continue
		}
		email := strings.ToLower(ch.value.Email)
		for otherID, other := range u.store.users {
			if otherID == id {
				continue
			}
			if staged, ok := u.users[otherID]; ok && staged.deleted {
				continue
			}
			if other.Email == email {
				return domainuser.ErrEmailAlreadyUsed
			}
		}
	}
	return nil
}

// read runs fn with the unit and store locked for reading.
func (u *Unit) read(fn func() error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.store.mu.RLock()
	defer u.store.mu.RUnlock()
	return fn()
}

// write runs fn with the unit locked for staging.
func (u *Unit) write(fn func() error) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	return fn()
}

type unitOutbox struct{ u *Unit }

func (o unitOutbox) Add(_ context.Context, record outbox.EventRecord) error {
	return o.u.write(func() error {
		o.u.records = append(o.u.records, record)
		return nil
	})
}

var _ uow.UnitOfWork = (*Unit)(nil)
