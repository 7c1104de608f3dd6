package mongo

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"leasehub/internal/domain/shared/errs"
	domainuser "leasehub/internal/domain/user"
)

type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(usersCollection)}
}

func (r *UserRepository) ByID(ctx context.Context, id domainuser.ID) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"_id": string(id)})
}

func (r *UserRepository) ByEmail(ctx context.Context, email string) (*domainuser.User, error) {
	return r.findOne(ctx, bson.M{"email": strings.ToLower(strings.TrimSpace(email))})
}

func (r *UserRepository) Save(ctx context.Context, u *domainuser.User) error {
	doc := newUserDocument(u)
	doc.Version = u.Version + 1
	if u.Version == 0 {
		if _, err := r.col.InsertOne(ctx, doc); err != nil {
			if isEmailTaken(err) {
				return domainuser.ErrEmailAlreadyUsed
			}
			return writeError("insert user", err)
		}
		u.Version = doc.Version
		return nil
	}
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID, "version": u.Version}, doc)
	if err != nil {
		if isEmailTaken(err) {
			return domainuser.ErrEmailAlreadyUsed
		}
		return writeError("replace user", err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	u.Version = doc.Version
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, u *domainuser.User) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(u.ID), "version": u.Version})
	if err != nil {
		return writeError("delete user", err)
	}
	if res.DeletedCount == 0 {
		return errs.ErrConcurrentUpdate
	}
	return nil
}

func (r *UserRepository) List(ctx context.Context) ([]*domainuser.User, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, readError("find users", err, nil)
	}
	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, readError("decode users", err, nil)
	}
	out := make([]*domainuser.User, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.toAggregate())
	}
	return out, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domainuser.User, error) {
	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		return nil, readError("find user", err, domainuser.ErrNotFound)
	}
	return doc.toAggregate(), nil
}

type userDocument struct {
	ID            string   `bson:"_id"`
	Email         string   `bson:"email"`
	Name          string   `bson:"name"`
	Phone         string   `bson:"phone,omitempty"`
	PasswordHash  string   `bson:"password_hash"`
	Roles         []string `bson:"roles"`
	OwnerApproved bool     `bson:"owner_approved"`
	CreatedAt     int64    `bson:"created_at"`
	UpdatedAt     int64    `bson:"updated_at"`
	Version       int64    `bson:"version"`
}

func newUserDocument(u *domainuser.User) userDocument {
	roles := make([]string, 0, len(u.Roles))
	for _, role := range u.Roles {
		roles = append(roles, string(role))
	}
	return userDocument{
		ID:            string(u.ID),
		Email:         u.Email,
		Name:          u.Name,
		Phone:         u.Phone,
		PasswordHash:  u.PasswordHash,
		Roles:         roles,
		OwnerApproved: u.OwnerApproved,
		CreatedAt:     millis(u.CreatedAt),
		UpdatedAt:     millis(u.UpdatedAt),
		Version:       u.Version,
	}
}

func (d userDocument) toAggregate() *domainuser.User {
	roles := make([]domainuser.Role, 0, len(d.Roles))
	for _, role := range d.Roles {
		roles = append(roles, domainuser.Role(role))
	}
	return &domainuser.User{
		ID:            domainuser.ID(d.ID),
		Email:         d.Email,
		Name:          d.Name,
		Phone:         d.Phone,
		PasswordHash:  d.PasswordHash,
		Roles:         roles,
		OwnerApproved: d.OwnerApproved,
		CreatedAt:     fromMillis(d.CreatedAt),
		UpdatedAt:     fromMillis(d.UpdatedAt),
		Version:       d.Version,
	}
}

var _ domainuser.Repository = (*UserRepository)(nil)
