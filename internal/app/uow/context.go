package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	unit, ok := ctx.Value(ctxKey{}).(UnitOfWork)
	return unit, ok && unit != nil
}

// Bind lets a unit attach driver state (a Mongo session) to the context
// before it is stored there.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(interface {
		InjectContext(context.Context) context.Context
	}); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// ReadOnly returns the unit already in ctx or begins a read-only one. The
// returned release func is never nil.
func ReadOnly(ctx context.Context, factory UoWFactory) (UnitOfWork, context.Context, func(), error) {
	if unit, ok := FromContext(ctx); ok {
		return unit, ctx, func() {}, nil
	}
	if factory == nil {
		return nil, ctx, func() {}, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, TxOptions{ReadOnly: true})
	if err != nil {
		return nil, ctx, func() {}, err
	}
	execCtx := Bind(ctx, unit)
	return unit, execCtx, func() { _ = unit.Rollback(execCtx) }, nil
}
