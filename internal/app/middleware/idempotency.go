package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"reflect"
	"time"

	"leasehub/internal/app/commands"
)

// IdempotentCommand is implemented by commands that may be safely retried
// by the client with the same key.
type IdempotentCommand interface {
	commands.Command
	IdempotencyKey() string
	ResultPrototype() any // pointer to a value of the handler result type
}

type IdempotencyRecord struct {
	Key        string
	Payload    []byte
	OccurredAt time.Time
}

type IdempotencyStore interface {
	Get(ctx context.Context, key string) (IdempotencyRecord, bool, error)
	Save(ctx context.Context, rec IdempotencyRecord) error
}

type ResultCodec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, out any) error
}

type JSONResultCodec struct{}

func (JSONResultCodec) Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

func (JSONResultCodec) Decode(data []byte, out any) error {
	return json.Unmarshal(data, out)
}

var errMissingPrototype = errors.New("middleware: idempotent command requires result prototype")

// Idempotency replays the stored result of a previously successful command
// with the same key. Failures are not stored, so a retry after a conflict
// or storage outage runs the command again. The command has already
// committed when the record is saved, so a save failure is only logged.
func Idempotency(store IdempotencyStore, codec ResultCodec, logger *slog.Logger) CommandMiddleware {
	if store == nil {
		panic("middleware: idempotency store required")
	}
	if codec == nil {
		codec = JSONResultCodec{}
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			idCmd, ok := cmd.(IdempotentCommand)
			if !ok || idCmd.IdempotencyKey() == "" {
				return next.Dispatch(ctx, cmd)
			}
			key := cmd.Key() + ":" + idCmd.IdempotencyKey()
			rec, found, err := store.Get(ctx, key)
			if err != nil {
				return nil, err
			}
			if found {
				proto := idCmd.ResultPrototype()
				if proto == nil {
					return nil, errMissingPrototype
				}
				if err := codec.Decode(rec.Payload, proto); err != nil {
					return nil, err
				}
				return normalizePrototype(proto), nil
			}
			result, err := next.Dispatch(ctx, cmd)
			if err != nil {
				return nil, err
			}
			record := IdempotencyRecord{Key: key, OccurredAt: time.Now().UTC()}
			if result != nil {
				payload, encErr := codec.Encode(result)
				if encErr != nil {
					return nil, encErr
				}
				record.Payload = payload
			}
			if saveErr := store.Save(ctx, record); saveErr != nil && logger != nil {
				logger.Warn("idempotency record not saved", "command", cmd.Key(), "error", saveErr)
			}
			return result, nil
		})
	}
}

func normalizePrototype(proto any) any {
	rv := reflect.ValueOf(proto)
	if rv.Kind() == reflect.Ptr && !rv.IsNil() {
		return rv.Interface()
	}
	return proto
}
