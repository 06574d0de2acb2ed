// internal/app/store/coupons/couponstore.go
package couponstore

import (
	"context"
	"errors"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no coupon has the requested ID.
var ErrNotFound = errors.New("coupon not found")

type Store struct {
	c *mongo.Collection
}

// New binds the store to the coupons collection. The dashboard catalog
// refers to it as "couponFRFR".
func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("coupons")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "campaign_id", Value: 1}},
		Options: options.Index().SetName("idx_coupon_campaign"),
	})
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Coupon, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Coupon
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Coupon, error) {
	var c models.Coupon
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&c); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Coupon{}, ErrNotFound
		}
		return models.Coupon{}, err
	}
	return c, nil
}

func (s *Store) Create(ctx context.Context, c models.Coupon) (models.Coupon, error) {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, c); err != nil {
		return models.Coupon{}, err
	}
	return c, nil
}
