// internal/app/store/notifications/notificationstore.go
package notificationstore

import (
	"context"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads notifications and their receivers. Receivers live in their
// own collection keyed by notification_id.
type Store struct {
	c         *mongo.Collection
	receivers *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:         db.Collection("notifications"),
		receivers: db.Collection("notification_receivers"),
	}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date_created", Value: -1}},
		Options: options.Index().SetName("idx_notifications_date_created"),
	}); err != nil {
		return err
	}
	_, err := s.receivers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "notification_id", Value: 1}},
			Options: options.Index().SetName("idx_receivers_notification"),
		},
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetName("idx_receivers_user"),
		},
	})
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Notification, error) {
	return s.find(ctx, bson.M{})
}

// CreatedBetween returns notifications with start <= date_created < end.
func (s *Store) CreatedBetween(ctx context.Context, start, end time.Time) ([]models.Notification, error) {
	return s.find(ctx, bson.M{"date_created": bson.M{"$gte": start, "$lt": end}})
}

func (s *Store) find(ctx context.Context, filter bson.M) ([]models.Notification, error) {
	cur, err := s.c.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.Notification
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Receivers returns every receiver of one notification.
func (s *Store) Receivers(ctx context.Context, notificationID primitive.ObjectID) ([]models.NotificationReceiver, error) {
	cur, err := s.receivers.Find(ctx, bson.M{"notification_id": notificationID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.NotificationReceiver
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ReceiverCount counts the receivers of one notification.
func (s *Store) ReceiverCount(ctx context.Context, notificationID primitive.ObjectID) (int64, error) {
	return s.receivers.CountDocuments(ctx, bson.M{"notification_id": notificationID})
}

func (s *Store) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	if n.ID.IsZero() {
		n.ID = primitive.NewObjectID()
	}
	if n.DateCreated.IsZero() {
		n.DateCreated = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, n); err != nil {
		return models.Notification{}, err
	}
	return n, nil
}

// AddReceiver records that userID received the notification.
func (s *Store) AddReceiver(ctx context.Context, notificationID, userID primitive.ObjectID) error {
	_, err := s.receivers.InsertOne(ctx, models.NotificationReceiver{
		ID:             primitive.NewObjectID(),
		NotificationID: notificationID,
		UserID:         userID,
		ReceivedAt:     time.Now().UTC(),
	})
	return err
}

// Watch opens a change stream over the whole notifications collection.
func (s *Store) Watch(ctx context.Context) (*mongo.ChangeStream, error) {
	return s.c.Watch(ctx, mongo.Pipeline{})
}
