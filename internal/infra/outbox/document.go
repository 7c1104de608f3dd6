package outbox

import "time"

const (
	StateNew     = "NEW"
	StateClaimed = "CLAIMED"
	StateSent    = "SENT"
	StateFailed  = "FAILED"
)

// EventDocument is a stored outbox record with its delivery state.
type EventDocument struct {
	ID          string            `bson:"_id"`
	Name        string            `bson:"name"`
	Payload     []byte            `bson:"payload"`
	OccurredAt  time.Time         `bson:"occurred_at"`
	Aggregate   string            `bson:"aggregate"`
	Headers     map[string]string `bson:"headers"`
	State       string            `bson:"state"`
	Attempts    int               `bson:"attempts"`
	NextAttempt time.Time         `bson:"next_attempt_at"`
	ClaimedBy   string            `bson:"claimed_by,omitempty"`
	ClaimedAt   time.Time         `bson:"claimed_at,omitempty"`
	SentAt      time.Time         `bson:"sent_at,omitempty"`
	LastError   string            `bson:"last_error,omitempty"`
}
