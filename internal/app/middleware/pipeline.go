package middleware

import (
	"context"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/queries"
)

// CommandMiddleware decorates a command bus.
type CommandMiddleware func(next commands.Bus) commands.Bus

// QueryMiddleware decorates a query bus.
type QueryMiddleware func(next queries.Bus) queries.Bus

// ChainCommands wraps base so that mws[0] runs first.
func ChainCommands(base commands.Bus, mws ...CommandMiddleware) commands.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			wrapped = mws[i](wrapped)
		}
	}
	return wrapped
}

// ChainQueries wraps base so that mws[0] runs first.
func ChainQueries(base queries.Bus, mws ...QueryMiddleware) queries.Bus {
	wrapped := base
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			wrapped = mws[i](wrapped)
		}
	}
	return wrapped
}

type commandFunc func(ctx context.Context, cmd commands.Command) (any, error)

func (f commandFunc) Dispatch(ctx context.Context, cmd commands.Command) (any, error) {
	return f(ctx, cmd)
}

type queryFunc func(ctx context.Context, q queries.Query) (any, error)

func (f queryFunc) Ask(ctx context.Context, q queries.Query) (any, error) {
	return f(ctx, q)
}

// guardCommand runs check before handing the command to next.
func guardCommand(check func(ctx context.Context, message any) error) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			if err := check(ctx, cmd); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, cmd)
		})
	}
}

func guardQuery(check func(ctx context.Context, message any) error) QueryMiddleware {
	return func(next queries.Bus) queries.Bus {
		return queryFunc(func(ctx context.Context, q queries.Query) (any, error) {
			if err := check(ctx, q); err != nil {
				return nil, err
			}
			return next.Ask(ctx, q)
		})
	}
}
