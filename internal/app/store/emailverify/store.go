// internal/app/store/emailverify/store.go
package emailverify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	// DefaultExpiry is how long a verification link is valid.
	DefaultExpiry = 24 * time.Hour
	// MaxPending is how many links a user may request per purpose inside ResendWindow.
	MaxPending = 3
	// ResendWindow bounds MaxPending.
	ResendWindow = 10 * time.Minute
)

var (
	// ErrNotFound is returned when a token is unknown or expired.
	ErrNotFound = errors.New("verification not found or expired")
	// ErrTooManyRequests is returned when a user requests links too quickly.
	ErrTooManyRequests = errors.New("too many verification requests")
)

// Store manages pending email verifications and email changes.
type Store struct {
	c      *mongo.Collection
	expiry time.Duration
	now    func() time.Time
}

// New creates a Store. If expiry is 0 or negative, DefaultExpiry is used.
func New(db *mongo.Database, expiry time.Duration) *Store {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Store{
		c:      db.Collection("email_changes"),
		expiry: expiry,
		now:    time.Now,
	}
}

// Expiry returns how long issued links stay valid.
func (s *Store) Expiry() time.Duration {
	return s.expiry
}

// EnsureIndexes creates the TTL index for auto-cleanup plus lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetName("idx_emailchange_expires_ttl").SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "token", Value: 1}},
			Options: options.Index().SetName("uniq_emailchange_token").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "purpose", Value: 1}},
			Options: options.Index().SetName("idx_emailchange_user_purpose"),
		},
	})
	return err
}

// Create issues a new token for userID and purpose. Earlier pending records
// for the same purpose stay valid until they expire, but more than
// MaxPending inside ResendWindow is refused.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, email, purpose string) (models.EmailChange, error) {
	now := s.now().UTC()

	recent, err := s.c.CountDocuments(ctx, bson.M{
		"user_id":    userID,
		"purpose":    purpose,
		"created_at": bson.M{"$gt": now.Add(-ResendWindow)},
	})
	if err != nil {
		return models.EmailChange{}, fmt.Errorf("count pending: %w", err)
	}
	if recent >= MaxPending {
		return models.EmailChange{}, ErrTooManyRequests
	}

	ec := models.EmailChange{
		ID:        primitive.NewObjectID(),
		UserID:    userID,
		Email:     email,
		Purpose:   purpose,
		Token:     uuid.NewString(),
		ExpiresAt: now.Add(s.expiry),
		CreatedAt: now,
	}
	if _, err := s.c.InsertOne(ctx, ec); err != nil {
		return models.EmailChange{}, fmt.Errorf("insert email change: %w", err)
	}
	return ec, nil
}

// Consume returns the record for a live token and deletes every pending
// record of the same user and purpose (single use).
func (s *Store) Consume(ctx context.Context, token string) (models.EmailChange, error) {
	var ec models.EmailChange
	err := s.c.FindOne(ctx, bson.M{
		"token":      token,
		"expires_at": bson.M{"$gt": s.now().UTC()},
	}).Decode(&ec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.EmailChange{}, ErrNotFound
		}
		return models.EmailChange{}, err
	}

	_, _ = s.c.DeleteMany(ctx, bson.M{"user_id": ec.UserID, "purpose": ec.Purpose})
	return ec, nil
}

// DeleteByUser removes every pending record for a user.
func (s *Store) DeleteByUser(ctx context.Context, userID primitive.ObjectID) error {
	_, err := s.c.DeleteMany(ctx, bson.M{"user_id": userID})
	return err
}
