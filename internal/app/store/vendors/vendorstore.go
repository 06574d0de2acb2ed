// internal/app/store/vendors/vendorstore.go
package vendorstore

import (
	"context"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("vendors")}
}

func (s *Store) List(ctx context.Context) ([]models.Vendor, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Vendor
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Create(ctx context.Context, v models.Vendor) (models.Vendor, error) {
	if v.ID.IsZero() {
		v.ID = primitive.NewObjectID()
	}
	if _, err := s.c.InsertOne(ctx, v); err != nil {
		return models.Vendor{}, err
	}
	return v, nil
}
