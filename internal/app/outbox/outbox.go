package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"leasehub/internal/domain/shared/events"
)

// EventRecord is the persisted form of a domain event.
type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox collects event records inside a unit of work.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
}

// Relay hands committed records to the publisher after a command succeeds.
type Relay interface {
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{"content-type": "application/json"},
	}, nil
}

// Drainer is implemented by aggregates embedding events.Recorder.
type Drainer interface {
	DrainEvents() []events.DomainEvent
}

// Record drains the aggregates' pending events into box in order.
func Record(ctx context.Context, box Outbox, encoder EventEncoder, aggregates ...Drainer) error {
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		for _, ev := range agg.DrainEvents() {
			if box == nil {
				continue
			}
			rec, err := encoder.Encode(ev)
			if err != nil {
				return err
			}
			if err := box.Add(ctx, rec); err != nil {
				return err
			}
		}
	}
	return nil
}
