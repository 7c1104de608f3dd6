package middleware

import (
	"context"
	"log/slog"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/outbox"
)

// OutboxFlush asks the relay to publish after a command committed. A flush
// failure is logged only: the records are already durable and the worker
// retries them.
func OutboxFlush(relay outbox.Relay, logger *slog.Logger) CommandMiddleware {
	if relay == nil {
		panic("middleware: outbox relay required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			if err := relay.Flush(ctx); err != nil && logger != nil {
				logger.Warn("outbox flush failed", "command", cmd.Key(), "error", err)
			}
			return res, nil
		})
	}
}
