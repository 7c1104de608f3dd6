package middleware

import (
	"context"
	"fmt"

	"leasehub/internal/app/commands"
	"leasehub/internal/app/uow"
	"leasehub/internal/domain/shared/errs"
)

type TxOptionsProvider func(cmd commands.Command) uow.TxOptions

// Transaction runs each command in its own unit of work. The unit commits
// only when the handler succeeds; otherwise every staged write is dropped.
func Transaction(factory uow.UoWFactory, optsProvider TxOptionsProvider) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			opts := uow.TxOptions{}
			if optsProvider != nil {
				opts = optsProvider(cmd)
			}
			unit, err := factory.Begin(ctx, opts)
			if err != nil {
				return nil, fmt.Errorf("begin %s: %w", cmd.Key(), errs.Storage(err))
			}
			execCtx := uow.Bind(ctx, unit)
			committed := false
			defer func() {
				if !committed {
					_ = unit.Rollback(execCtx)
				}
			}()

			res, err := next.Dispatch(execCtx, cmd)
			if err != nil {
				return nil, err
			}
			if err := unit.Commit(execCtx); err != nil {
				return nil, fmt.Errorf("commit %s: %w", cmd.Key(), errs.Storage(err))
			}
			committed = true
			return res, nil
		})
	}
}
