package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainauth "leasehub/internal/domain/auth"
	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

// SessionStore keeps bearer sessions; a TTL index on expires_at purges them.
type SessionStore struct {
	col *mongo.Collection
}

func NewSessionStore(db *mongo.Database) *SessionStore {
	return &SessionStore{col: db.Collection(sessionsCollection)}
}

type sessionDocument struct {
	Token     string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

func (s *SessionStore) Save(ctx context.Context, session *domainauth.Session) error {
	doc := sessionDocument{
		Token:     string(session.Token),
		UserID:    string(session.UserID),
		CreatedAt: session.CreatedAt,
		ExpiresAt: session.ExpiresAt,
	}
	_, err := s.col.ReplaceOne(ctx, bson.M{"_id": doc.Token}, doc, options.Replace().SetUpsert(true))
	return errs.Storage(err)
}

func (s *SessionStore) Get(ctx context.Context, token domainauth.Token) (*domainauth.Session, error) {
	var doc sessionDocument
	if err := s.col.FindOne(ctx, bson.M{"_id": string(token)}).Decode(&doc); err != nil {
		return nil, readError("find session", err, domainauth.ErrSessionNotFound)
	}
	session := &domainauth.Session{
		Token:     domainauth.Token(doc.Token),
		UserID:    domainuser.ID(doc.UserID),
		CreatedAt: doc.CreatedAt.UTC(),
		ExpiresAt: doc.ExpiresAt.UTC(),
	}
	if session.Expired(time.Now()) {
		_ = s.Delete(ctx, token)
		return nil, domainauth.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token domainauth.Token) error {
	_, err := s.col.DeleteOne(ctx, bson.M{"_id": string(token)})
	return errs.Storage(err)
}

func (s *SessionStore) DeleteByUser(ctx context.Context, userID domainuser.ID) error {
	_, err := s.col.DeleteMany(ctx, bson.M{"user_id": string(userID)})
	return errs.Storage(err)
}

var _ domainauth.SessionStore = (*SessionStore)(nil)
