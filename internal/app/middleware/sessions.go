package middleware

import (
	"context"
	"log/slog"

	"leasehub/internal/app/commands"
	domainauth "leasehub/internal/domain/auth"
	domainuser "leasehub/internal/domain/user"
)

// SessionRevoking commands end every session of a user once they succeed.
type SessionRevoking interface {
	commands.Command
	RevokedUser() string
}

// RevokeSessions runs outside the transaction so sessions are dropped only
// for committed commands. A failure is logged: tokens of a deleted user no
// longer resolve to an identity anyway.
func RevokeSessions(store domainauth.SessionStore, logger *slog.Logger) CommandMiddleware {
	return func(next commands.Bus) commands.Bus {
		if store == nil {
			return next
		}
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			res, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			revoking, ok := cmd.(SessionRevoking)
			if !ok || revoking.RevokedUser() == "" {
				return res, nil
			}
			if err := store.DeleteByUser(ctx, domainuser.ID(revoking.RevokedUser())); err != nil && logger != nil {
				logger.Warn("session revocation failed", "user_id", revoking.RevokedUser(), "error", err)
			}
			return res, nil
		})
	}
}
