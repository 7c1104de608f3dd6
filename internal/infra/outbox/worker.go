package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Source hands out committed records one at a time. Claim returns nil when
// nothing is due.
type Source interface {
	Claim(ctx context.Context, workerID string) (*EventDocument, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

// Worker relays committed records to the broker as CloudEvents. Run polls
// in the background; Flush drains what is due right now and is called after
// each successful command.
type Worker struct {
	Source      Source
	Producer    Producer
	Interval    time.Duration
	TopicPrefix string
	SourceURI   string
	ID          string
	Backoff     []time.Duration
	MaxBatch    int
	Logger      *slog.Logger

	idOnce sync.Once
}

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.Flush(ctx); err != nil && w.Logger != nil {
				w.Logger.Warn("outbox poll failed", "error", err)
			}
		}
	}
}

// Flush publishes due records until none is left or MaxBatch is reached.
func (w *Worker) Flush(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	for i := 0; i < w.maxBatch(); i++ {
		more, err := w.processOnce(ctx)
		if err != nil || !more {
			return err
		}
	}
	return nil
}

func (w *Worker) processOnce(ctx context.Context) (bool, error) {
	doc, err := w.Source.Claim(ctx, w.workerID())
	if err != nil || doc == nil {
		return false, err
	}
	payload, headers, err := w.Envelope(doc)
	if err == nil {
		err = w.Producer.Publish(ctx, w.topicFor(doc.Name), doc.Aggregate, payload, headers)
	}
	if err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event_id", doc.ID, "event", doc.Name, "attempts", doc.Attempts+1, "error", err)
		}
		return true, w.Source.MarkFailed(ctx, doc.ID, w.nextRetry(doc.Attempts), err.Error())
	}
	if w.Logger != nil {
		w.Logger.Debug("outbox event published", "event_id", doc.ID, "event", doc.Name)
	}
	return true, w.Source.MarkSent(ctx, doc.ID)
}

// Envelope wraps the record payload in a CloudEvents 1.0 JSON document.
func (w *Worker) Envelope(doc *EventDocument) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(doc.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              doc.ID,
		"type":            doc.Name + ".v1",
		"source":          w.source(),
		"subject":         doc.Aggregate,
		"time":            doc.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range doc.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	return payload, headers, nil
}

// topicFor maps booking.approved to booking.events.v1.
func (w *Worker) topicFor(name string) string {
	base := name
	if idx := strings.IndexRune(name, '.'); idx > 0 {
		base = name[:idx]
	}
	return w.TopicPrefix + base + ".events.v1"
}

func (w *Worker) workerID() string {
	w.idOnce.Do(func() {
		if w.ID == "" {
			w.ID = uuid.NewString()
		}
	})
	return w.ID
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) maxBatch() int {
	if w.MaxBatch <= 0 {
		return 100
	}
	return w.MaxBatch
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.SourceURI != "" {
		return w.SourceURI
	}
	return "app://leasehub"
}
