package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leasehub/internal/domain/shared/errs"
)

const (
	listingsCollection = "agg_listing"
	bookingsCollection = "agg_booking"
	usersCollection    = "agg_user"
	sessionsCollection = "auth_session"
)

type Client struct {
	DB *mongo.Database
}

// New connects and pings. Multi-document transactions need a replica set.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	opts := options.Client().ApplyURI(uri).SetRetryWrites(true)
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errs.Storage(err)
	}
	if err := m.Ping(ctx, nil); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, errs.Storage(err)
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// EnsureIndexes creates the lookup and uniqueness indexes the repositories rely on.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	specs := map[string][]mongo.IndexModel{
		listingsCollection: {
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
			{Keys: bson.D{{Key: "available", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		bookingsCollection: {
			{Keys: bson.D{{Key: "listing_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "renter_id", Value: 1}}},
			{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(emailIndexName)},
		},
		sessionsCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}}},
			{Keys: bson.D{{Key: "expires_at", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(0)},
		},
	}
	for name, models := range specs {
		if _, err := c.DB.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return errs.Storage(err)
		}
	}
	return nil
}
