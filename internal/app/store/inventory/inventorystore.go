// internal/app/store/inventory/inventorystore.go
package inventorystore

import (
	"context"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads per-user coupon inventories.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("inventory")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "coupon_id", Value: 1}},
			Options: options.Index().SetName("uniq_inventory_user_coupon").SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "redeemed", Value: 1}},
			Options: options.Index().SetName("idx_inventory_redeemed"),
		},
	})
	return err
}

// ForUser returns the inventory held by one user.
func (s *Store) ForUser(ctx context.Context, userID primitive.ObjectID) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{"user_id": userID})
}

// RedeemedBetween returns items with start <= redeemed < end.
func (s *Store) RedeemedBetween(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	return s.find(ctx, bson.M{"redeemed": bson.M{"$gte": start, "$lt": end}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.InventoryItem, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.InventoryItem
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Add places a coupon in the user's inventory, unredeemed.
func (s *Store) Add(ctx context.Context, userID, couponID primitive.ObjectID) (models.InventoryItem, error) {
	item := models.InventoryItem{ID: primitive.NewObjectID(), UserID: userID, CouponID: couponID}
	if _, err := s.c.InsertOne(ctx, item); err != nil {
		return models.InventoryItem{}, err
	}
	return item, nil
}

// MarkRedeemed sets the redemption time on an item.
func (s *Store) MarkRedeemed(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"redeemed": at.UTC()}})
	return err
}
