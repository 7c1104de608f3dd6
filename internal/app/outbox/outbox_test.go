package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leasehub/internal/domain/shared/events"
)

type sampleEvent struct {
	ID string
	At time.Time
}

func (e sampleEvent) EventName() string     { return "sample.happened" }
func (e sampleEvent) AggregateID() string   { return e.ID }
func (e sampleEvent) OccurredAt() time.Time { return e.At }

type aggregate struct {
	events.Recorder
}

type sliceBox struct {
	records []EventRecord
	err     error
}

func (b *sliceBox) Add(_ context.Context, rec EventRecord) error {
	if b.err != nil {
		return b.err
	}
	b.records = append(b.records, rec)
	return nil
}

func TestRecordDrainsInOrder(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	a := &aggregate{}
	a.Record(sampleEvent{ID: "a-1", At: at})
	a.Record(sampleEvent{ID: "a-2", At: at})
	box := &sliceBox{}
	n := 0
	enc := JSONEventEncoder{IDGenerator: func() string { n++; return "evt-" + string(rune('0'+n)) }}

	require.NoError(t, Record(context.Background(), box, enc, a))
	require.Len(t, box.records, 2)
	assert.Equal(t, "evt-1", box.records[0].ID)
	assert.Equal(t, "a-2", box.records[1].Aggregate)
	assert.Equal(t, "sample.happened", box.records[0].Name)
	var decoded sampleEvent
	require.NoError(t, json.Unmarshal(box.records[0].Payload, &decoded))
	assert.Equal(t, "a-1", decoded.ID)
	assert.Empty(t, a.PendingEvents())
}

func TestRecordPropagatesAddFailure(t *testing.T) {
	t.Parallel()

	a := &aggregate{}
	a.Record(sampleEvent{ID: "a-1"})
	boom := errors.New("boom")
	err := Record(context.Background(), &sliceBox{err: boom}, nil, a)
	assert.ErrorIs(t, err, boom)
}
