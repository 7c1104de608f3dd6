package outbox

import (
	"context"
	"log/slog"
)

// LogProducer stands in for a broker when none is configured.
type LogProducer struct {
	Logger *slog.Logger
}

func (p LogProducer) Publish(_ context.Context, topic, key string, payload []byte, _ map[string]string) error {
	if p.Logger != nil {
		p.Logger.Info("event", "topic", topic, "key", key, "bytes", len(payload))
	}
	return nil
}
