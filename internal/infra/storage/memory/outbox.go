package memory

import (
	"context"
	"sync"
	"time"

	appoutbox "leasehub/internal/app/outbox"
	infraoutbox "leasehub/internal/infra/outbox"
)

// Outbox holds committed event records until the relay worker claims them.
type Outbox struct {
	mu   sync.Mutex
	docs []*infraoutbox.EventDocument
	now  func() time.Time
}

func NewOutbox() *Outbox {
	return &Outbox{now: func() time.Time { return time.Now().UTC() }}
}

func (o *Outbox) enqueue(records []appoutbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, rec := range records {
		o.docs = append(o.docs, &infraoutbox.EventDocument{
			ID:          rec.ID,
			Name:        rec.Name,
			Payload:     append([]byte(nil), rec.Payload...),
			OccurredAt:  rec.OccurredAt,
			Aggregate:   rec.Aggregate,
			Headers:     rec.Headers,
			State:       infraoutbox.StateNew,
			NextAttempt: now,
		})
	}
}

func (o *Outbox) Claim(_ context.Context, workerID string) (*infraoutbox.EventDocument, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := o.now()
	for _, doc := range o.docs {
		if doc.State != infraoutbox.StateNew && doc.State != infraoutbox.StateFailed {
			continue
		}
		if doc.NextAttempt.After(now) {
			continue
		}
		doc.State = infraoutbox.StateClaimed
		doc.ClaimedBy = workerID
		doc.ClaimedAt = now
		out := *doc
		return &out, nil
	}
	return nil, nil
}

// MarkSent drops the record; sent records are not kept in memory.
func (o *Outbox) MarkSent(_ context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, doc := range o.docs {
		if doc.ID == id {
			o.docs = append(o.docs[:i], o.docs[i+1:]...)
			return nil
		}
	}
	return nil
}

func (o *Outbox) MarkFailed(_ context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, doc := range o.docs {
		if doc.ID == id {
			doc.State = infraoutbox.StateFailed
			doc.NextAttempt = next
			doc.LastError = errMsg
			doc.Attempts++
			return nil
		}
	}
	return nil
}

// Pending returns a snapshot of undelivered records, oldest first.
func (o *Outbox) Pending() []infraoutbox.EventDocument {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]infraoutbox.EventDocument, 0, len(o.docs))
	for _, doc := range o.docs {
		out = append(out, *doc)
	}
	return out
}

var _ infraoutbox.Source = (*Outbox)(nil)
