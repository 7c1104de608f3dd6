package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "leasehub/internal/app/outbox"
	"leasehub/internal/domain/shared/errs"
)

// Store keeps outbox records in the app_outbox collection. Add joins the
// Mongo session carried by ctx, so records commit with the unit of work.
type Store struct {
	col *mongo.Collection
}

func NewStore(ctx context.Context, db *mongo.Database) (*Store, error) {
	col := db.Collection("app_outbox")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "state", Value: 1}, {Key: "next_attempt_at", Value: 1}}}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, errs.Storage(err)
	}
	return &Store{col: col}, nil
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	now := time.Now().UTC()
	doc := EventDocument{
		ID:          record.ID,
		Name:        record.Name,
		Payload:     record.Payload,
		OccurredAt:  record.OccurredAt,
		Aggregate:   record.Aggregate,
		Headers:     record.Headers,
		State:       StateNew,
		NextAttempt: now,
	}
	if _, err := s.col.InsertOne(ctx, doc); err != nil {
		return errs.Storage(err)
	}
	return nil
}

func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	now := time.Now().UTC()
	filter := bson.M{"state": bson.M{"$in": []string{StateNew, StateFailed}}, "next_attempt_at": bson.M{"$lte": now}}
	update := bson.M{"$set": bson.M{"state": StateClaimed, "claimed_by": workerID, "claimed_at": now}}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}})
	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, errs.Storage(err)
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateByID(ctx, id, bson.M{"$set": bson.M{"state": StateSent, "sent_at": time.Now().UTC()}})
	return errs.Storage(err)
}

func (s *Store) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	update := bson.M{
		"$set": bson.M{
			"state":           StateFailed,
			"next_attempt_at": next,
			"last_error":      errMsg,
		},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateByID(ctx, id, update)
	return errs.Storage(err)
}

var (
	_ appoutbox.Outbox = (*Store)(nil)
	_ Source           = (*Store)(nil)
)
