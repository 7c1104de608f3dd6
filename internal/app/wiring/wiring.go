// Package wiring registers every command and query handler on the buses
// and wraps them in the middleware pipeline.
package wiring

import (
	"io"
	"log/slog"

	"leasehub/internal/app/access"
	"leasehub/internal/app/commands"
	"leasehub/internal/app/handlers/admin"
	"leasehub/internal/app/handlers/booking"
	"leasehub/internal/app/handlers/cascade"
	"leasehub/internal/app/handlers/listings"
	"leasehub/internal/app/middleware"
	"leasehub/internal/app/outbox"
	"leasehub/internal/app/queries"
	"leasehub/internal/app/uow"
	"leasehub/internal/app/validation"
	"leasehub/internal/clock"
	domainauth "leasehub/internal/domain/auth"
)

type Deps struct {
	UoWFactory  uow.UoWFactory
	Idempotency middleware.IdempotencyStore
	Relay       outbox.Relay
	Sessions    domainauth.SessionStore
	Archiver    cascade.Archiver
	Clock       clock.Clock
	NewID       func() string
	Logger      *slog.Logger
}

type Buses struct {
	Commands commands.Bus
	Queries  queries.Bus
}

// Build wires the handlers. Commands pass through validation, the coarse
// capability check, idempotent replay, session revocation, the post-commit
// outbox flush and finally the unit of work.
func Build(d Deps) Buses {
	guard := access.Guard{}
	encoder := outbox.JSONEventEncoder{}
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, booking.RequestBookingCommand{}.Key(), &booking.RequestBookingHandler{
		Guard: guard, Clock: d.Clock, NewID: d.NewID, Encoder: encoder, Logger: logger,
	})
	coordinator := &booking.Coordinator{Guard: guard, Clock: d.Clock, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(commandBus, booking.TransitionBookingCommand{}.Key(), coordinator.TransitionHandler())
	commands.RegisterHandler(commandBus, booking.CancelBookingCommand{}.Key(), coordinator.CancelHandler())
	commands.RegisterHandler(commandBus, listings.CreateListingCommand{}.Key(), &listings.CreateListingHandler{
		Clock: d.Clock, NewID: d.NewID, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, listings.UpdateListingCommand{}.Key(), &listings.UpdateListingHandler{
		Guard: guard, Clock: d.Clock, Encoder: encoder, Logger: logger,
	})
	commands.RegisterHandler(commandBus, cascade.DeleteListingCommand{}.Key(), &cascade.DeleteListingHandler{
		Guard: guard, Clock: d.Clock, Archiver: d.Archiver, Encoder: encoder, Logger: logger,
	})
	deleteUser := &cascade.DeleteUserHandler{Guard: guard, Clock: d.Clock, Encoder: encoder, Logger: logger}
	commands.RegisterHandler(commandBus, cascade.DeleteUserCommand{}.Key(), deleteUser)
	commands.RegisterHandler(commandBus, cascade.RejectOwnerCommand{}.Key(), &cascade.RejectOwnerHandler{Delete: deleteUser})
	commands.RegisterHandler(commandBus, admin.ApproveOwnerCommand{}.Key(), &admin.ApproveOwnerHandler{
		Clock: d.Clock, Encoder: encoder, Logger: logger,
	})

	queryBus := queries.NewInMemoryBus()
	bookingQueries := &booking.Queries{UoWFactory: d.UoWFactory, Guard: guard, Logger: logger}
	queries.RegisterHandler(queryBus, booking.ListRenterBookingsQuery{}.Key(), bookingQueries.RenterHandler())
	queries.RegisterHandler(queryBus, booking.ListOwnerBookingsQuery{}.Key(), bookingQueries.OwnerHandler())
	queries.RegisterHandler(queryBus, booking.ListAllBookingsQuery{}.Key(), bookingQueries.AllHandler())
	queries.RegisterHandler(queryBus, booking.GetBookingQuery{}.Key(), bookingQueries.GetHandler())
	listingQueries := &listings.Queries{UoWFactory: d.UoWFactory}
	queries.RegisterHandler(queryBus, listings.SearchCatalogQuery{}.Key(), listingQueries.SearchHandler())
	queries.RegisterHandler(queryBus, listings.GetListingQuery{}.Key(), listingQueries.GetHandler())
	queries.RegisterHandler(queryBus, listings.ListOwnerListingsQuery{}.Key(), listingQueries.OwnerHandler())
	queries.RegisterHandler(queryBus, listings.ListAllListingsQuery{}.Key(), listingQueries.AllHandler())
	queries.RegisterHandler(queryBus, admin.ListUsersQuery{}.Key(), &admin.ListUsersHandler{UoWFactory: d.UoWFactory})
	queries.RegisterHandler(queryBus, admin.ListPendingOwnersQuery{}.Key(), &admin.ListPendingOwnersHandler{UoWFactory: d.UoWFactory})

	validator := validation.New()
	authorizer := access.Authorizer{Guard: guard}

	cmdMiddleware := []middleware.CommandMiddleware{
		middleware.Validation(validator),
		middleware.Authorization(authorizer),
	}
	if d.Idempotency != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.Idempotency(d.Idempotency, middleware.JSONResultCodec{}, logger))
	}
	cmdMiddleware = append(cmdMiddleware, middleware.RevokeSessions(d.Sessions, logger))
	if d.Relay != nil {
		cmdMiddleware = append(cmdMiddleware, middleware.OutboxFlush(d.Relay, logger))
	}
	cmdMiddleware = append(cmdMiddleware, middleware.Transaction(d.UoWFactory, nil))

	return Buses{
		Commands: middleware.ChainCommands(commandBus, cmdMiddleware...),
		Queries: middleware.ChainQueries(queryBus,
			middleware.QueryValidation(validator),
			middleware.QueryAuthorization(authorizer),
		),
	}
}
