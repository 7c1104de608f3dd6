package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leasehub/internal/app/middleware"
	"leasehub/internal/domain/shared/errs"
)

const idempotencyTTL = 7 * 24 * time.Hour

type IdempotencyStore struct {
	col *mongo.Collection
}

func NewIdempotencyStore(ctx context.Context, db *mongo.Database) (*IdempotencyStore, error) {
	col := db.Collection("app_idempotency")
	idx := mongo.IndexModel{
		Keys:    bson.D{{Key: "created_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(int32(idempotencyTTL.Seconds())),
	}
	if _, err := col.Indexes().CreateOne(ctx, idx); err != nil {
		return nil, errs.Storage(err)
	}
	return &IdempotencyStore{col: col}, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var doc idempotencyDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": key}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, errs.Storage(err)
	}
	return middleware.IdempotencyRecord{Key: doc.Key, Payload: doc.Payload, OccurredAt: doc.OccurredAt}, true, nil
}

// Save keeps the first record for a key; a concurrent duplicate is ignored.
func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	doc := idempotencyDocument{
		Key:        rec.Key,
		Payload:    rec.Payload,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	if err != nil && !mongo.IsDuplicateKeyError(err) {
		return errs.Storage(err)
	}
	return nil
}

type idempotencyDocument struct {
	Key        string    `bson:"_id"`
	Payload    []byte    `bson:"payload"`
	OccurredAt time.Time `bson:"occurred_at"`
	CreatedAt  time.Time `bson:"created_at"`
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
