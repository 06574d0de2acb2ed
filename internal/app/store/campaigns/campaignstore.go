// internal/app/store/campaigns/campaignstore.go
package campaignstore

import (
	"context"
	"errors"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no campaign has the requested ID.
var ErrNotFound = errors.New("campaign not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("campaign")}
}

// EnsureIndexes supports the month overlap scan and vendor joins.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "valid_from", Value: 1}, {Key: "valid_to", Value: 1}},
			Options: options.Index().SetName("idx_campaign_validity"),
		},
		{
			Keys:    bson.D{{Key: "vendor_id", Value: 1}},
			Options: options.Index().SetName("idx_campaign_vendor"),
		},
	})
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Campaign, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Campaign
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Campaign, error) {
	var c models.Campaign
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Campaign{}, ErrNotFound
		}
		return models.Campaign{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Campaign) (models.Campaign, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Campaign{}, err
	}
	return c, nil
}

// WatchByID opens a change stream limited to one campaign document.
func (s *Store) WatchByID(ctx context.Context, id primitive.ObjectID) (*mongo.ChangeStream, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": id}}},
	}
	return s.c.Watch(ctx, pipeline)
}
