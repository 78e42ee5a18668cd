// Package mongostore adapts a MongoDB collection to authkit.IdentityStore.
//
// The unique indexes on email and username are the authoritative duplicate
// guard: the engine's pre-checks are advisory, and a concurrent registration
// losing the race surfaces here as a duplicate-key error mapped to
// authkit.ErrAccountExists.
package mongostore

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/yogiverse/authkit"
)

const collectionName = "users"

// Store is a MongoDB-backed identity store.
type Store struct {
	users *mongo.Collection
	log   *zap.Logger
}

// New wraps the "users" collection of db. A nil logger disables logging.
func New(db *mongo.Database, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		users: db.Collection(collectionName),
		log:   log.With(zap.String("store", "mongo")),
	}
}

// EnsureIndexes creates the unique indexes on email and username. Call once
// at startup; without them duplicate registrations are not prevented.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	return err
}

// userDoc mirrors the persisted document layout.
type userDoc struct {
	ID        string    `bson:"_id"`
	Username  string    `bson:"username"`
	Email     string    `bson:"email"`
	Password  string    `bson:"password"`
	Role      string    `bson:"role"`
	Status    string    `bson:"status"`
	AvatarURL string    `bson:"profilePic,omitempty"`
	CreatedAt time.Time `bson:"createdAt"`
}

func docFromIdentity(identity *authkit.Identity) userDoc {
	return userDoc{
		ID:        identity.ID,
		Username:  identity.Username,
		Email:     identity.Email,
		Password:  identity.PasswordHash,
		Role:      string(identity.Role),
		Status:    string(identity.Status),
		AvatarURL: identity.AvatarURL,
		CreatedAt: identity.CreatedAt,
	}
}

func (d userDoc) identity() *authkit.Identity {
	return &authkit.Identity{
		ID:           d.ID,
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Role:         authkit.Role(d.Role),
		Status:       authkit.AccountStatus(d.Status),
		AvatarURL:    d.AvatarURL,
		CreatedAt:    d.CreatedAt,
	}
}

// FindByEmail returns authkit.ErrUserNotFound for an absent record.
func (s *Store) FindByEmail(ctx context.Context, email string) (*authkit.Identity, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// FindByUsername returns authkit.ErrUserNotFound for an absent record.
func (s *Store) FindByUsername(ctx context.Context, username string) (*authkit.Identity, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (*authkit.Identity, error) {
	var doc userDoc
	if err := s.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, authkit.ErrUserNotFound
		}
		s.log.Error("identity lookup failed", zap.Error(err))
		return nil, err
	}
	return doc.identity(), nil
}

// Create inserts a new identity. A unique-index violation on email or
// username is reported as authkit.ErrAccountExists.
func (s *Store) Create(ctx context.Context, identity *authkit.Identity) error {
	if _, err := s.users.InsertOne(ctx, docFromIdentity(identity)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return authkit.ErrAccountExists
		}
		s.log.Error("identity insert failed", zap.String("email", identity.Email), zap.Error(err))
		return err
	}
	return nil
}

// UpdatePassword replaces the stored hash of the identity with the given
// email, returning authkit.ErrUserNotFound when no record matches.
func (s *Store) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"password": passwordHash}},
	)
	if err != nil {
		s.log.Error("password update failed", zap.Error(err))
		return err
	}
	if res.MatchedCount == 0 {
		return authkit.ErrUserNotFound
	}
	return nil
}
