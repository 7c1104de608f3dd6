package queries

import (
	"context"
	"errors"
)

// Query is a read request routed through the query bus.
type Query interface {
	Key() string
}

type Handler[Q Query, R any] interface {
	Handle(ctx context.Context, query Q) (R, error)
}

type HandlerFunc[Q Query, R any] func(ctx context.Context, query Q) (R, error)

func (f HandlerFunc[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	return f(ctx, query)
}

type Bus interface {
	Ask(ctx context.Context, query Query) (any, error)
}

var (
	ErrHandlerNotFound = errors.New("queries: handler not found")
	ErrInvalidQuery    = errors.New("queries: invalid query for handler")
	ErrResultType      = errors.New("queries: result type mismatch")
	ErrNilBus          = errors.New("queries: nil bus")
)

// Ask runs the query and asserts the result type.
func Ask[Q Query, R any](ctx context.Context, bus Bus, query Q) (R, error) {
	var zero R
	if bus == nil {
		return zero, ErrNilBus
	}
	res, err := bus.Ask(ctx, query)
	if err != nil || res == nil {
		return zero, err
	}
	value, ok := res.(R)
	if !ok {
		return zero, ErrResultType
	}
	return value, nil
}
