package reports

import (
	"context"
	"time"

	analyticsstore "github.com/dalemusser/couponhub/internal/app/store/analytics"
	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	couponstore "github.com/dalemusser/couponhub/internal/app/store/coupons"
	inventorystore "github.com/dalemusser/couponhub/internal/app/store/inventory"
	notificationstore "github.com/dalemusser/couponhub/internal/app/store/notifications"
	organizationstore "github.com/dalemusser/couponhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	vendorstore "github.com/dalemusser/couponhub/internal/app/store/vendors"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Source is the read surface reports are built from. Every method re-reads
// from the backing store.
type Source interface {
	Campaigns(ctx context.Context) ([]models.Campaign, error)
	Coupons(ctx context.Context) ([]models.Coupon, error)
	Users(ctx context.Context) ([]models.User, error)
	Organizations(ctx context.Context) ([]models.Organization, error)
	Vendors(ctx context.Context) ([]models.Vendor, error)
	Notifications(ctx context.Context) ([]models.Notification, error)
	NotificationsCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Notification, error)
	Receivers(ctx context.Context, notificationID primitive.ObjectID) ([]models.NotificationReceiver, error)
	ReceiverCount(ctx context.Context, notificationID primitive.ObjectID) (int64, error)
	Inventory(ctx context.Context, userID primitive.ObjectID) ([]models.InventoryItem, error)
	RedeemedBetween(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error)
	Activity(ctx context.Context) ([]models.ActivityRecord, error)
}

// MongoSource reads through the per-collection stores.
type MongoSource struct {
	campaigns     *campaignstore.Store
	coupons       *couponstore.Store
	users         *userstore.Store
	organizations *organizationstore.Store
	vendors       *vendorstore.Store
	notifications *notificationstore.Store
	inventory     *inventorystore.Store
	analytics     *analyticsstore.Store
}

// NewMongoSource wires a Source over db.
func NewMongoSource(db *mongo.Database) *MongoSource {
	return &MongoSource{
		campaigns:     campaignstore.New(db),
		coupons:       couponstore.New(db),
		users:         userstore.New(db),
		organizations: organizationstore.New(db),
		vendors:       vendorstore.New(db),
		notifications: notificationstore.New(db),
		inventory:     inventorystore.New(db),
		analytics:     analyticsstore.New(db),
	}
}

func (s *MongoSource) Campaigns(ctx context.Context) ([]models.Campaign, error) {
	return s.campaigns.List(ctx)
}

func (s *MongoSource) Coupons(ctx context.Context) ([]models.Coupon, error) {
	return s.coupons.List(ctx)
}

func (s *MongoSource) Users(ctx context.Context) ([]models.User, error) {
	return s.users.List(ctx)
}

func (s *MongoSource) Organizations(ctx context.Context) ([]models.Organization, error) {
	return s.organizations.List(ctx)
}

func (s *MongoSource) Vendors(ctx context.Context) ([]models.Vendor, error) {
	return s.vendors.List(ctx)
}

func (s *MongoSource) Notifications(ctx context.Context) ([]models.Notification, error) {
	return s.notifications.List(ctx)
}

func (s *MongoSource) NotificationsCreatedBetween(ctx context.Context, start, end time.Time) ([]models.Notification, error) {
	return s.notifications.CreatedBetween(ctx, start, end)
}

func (s *MongoSource) Receivers(ctx context.Context, notificationID primitive.ObjectID) ([]models.NotificationReceiver, error) {
	return s.notifications.Receivers(ctx, notificationID)
}

func (s *MongoSource) ReceiverCount(ctx context.Context, notificationID primitive.ObjectID) (int64, error) {
	return s.notifications.ReceiverCount(ctx, notificationID)
}

func (s *MongoSource) Inventory(ctx context.Context, userID primitive.ObjectID) ([]models.InventoryItem, error) {
	return s.inventory.ForUser(ctx, userID)
}

func (s *MongoSource) RedeemedBetween(ctx context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	return s.inventory.RedeemedBetween(ctx, start, end)
}

func (s *MongoSource) Activity(ctx context.Context) ([]models.ActivityRecord, error) {
	return s.analytics.List(ctx)
}
