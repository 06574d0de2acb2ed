// internal/app/store/analytics/analyticsstore.go
package analyticsstore

import (
	"context"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads activity heartbeats from the analytics collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("analytics")}
}

// EnsureIndexes supports the trailing-window scan.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "last_active", Value: -1}},
		Options: options.Index().SetName("idx_analytics_last_active"),
	})
	return err
}

// List returns every activity record. Window filtering happens in the
// report builder.
func (s *Store) List(ctx context.Context) ([]models.ActivityRecord, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.ActivityRecord
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Touch records activity for a user at the given time.
func (s *Store) Touch(ctx context.Context, userID string, at time.Time) error {
	_, err := s.c.InsertOne(ctx, models.ActivityRecord{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		LastActive: at.UTC(),
	})
	return err
}
