package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"leasehub/internal/app/outbox"
	"leasehub/internal/app/uow"
	domainbooking "leasehub/internal/domain/booking"
	domainlistings "leasehub/internal/domain/listings"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

// Factory runs every unit in a snapshot multi-document transaction. Writes
// filter on the observed version, so a lost race aborts the whole unit.
type Factory struct {
	DB     *mongo.Database
	Outbox outbox.Outbox
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, errs.Storage(err)
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, errs.Storage(err)
	}
	return &Unit{
		session:  session,
		readOnly: opts.ReadOnly,
		listings: &ListingRepository{col: f.DB.Collection(listingsCollection)},
		bookings: &BookingRepository{col: f.DB.Collection(bookingsCollection)},
		users:    &UserRepository{col: f.DB.Collection(usersCollection)},
		outbox:   f.Outbox,
	}, nil
}

type Unit struct {
	session  mongo.Session
	readOnly bool
	finished bool

	listings *ListingRepository
	bookings *BookingRepository
	users    *UserRepository
	outbox   outbox.Outbox
}

func (u *Unit) Listings() domainlistings.Repository { return u.listings }
func (u *Unit) Bookings() domainbooking.Repository  { return u.bookings }
func (u *Unit) Users() domainuser.Repository        { return u.users }

func (u *Unit) Outbox() outbox.Outbox {
	if u.outbox == nil {
		return discardOutbox{}
	}
	return u.outbox
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return u.session.AbortTransaction(ctx)
	}
	return writeError("commit", u.session.CommitTransaction(ctx))
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.finished {
		return nil
	}
	u.finished = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext puts the session into ctx so repository calls join the transaction.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

type discardOutbox struct{}

func (discardOutbox) Add(context.Context, outbox.EventRecord) error { return nil }

var _ uow.UnitOfWork = (*Unit)(nil)
