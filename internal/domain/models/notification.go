// internal/domain/models/notification.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification announces a coupon to a set of receivers.
type Notification struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CouponID    primitive.ObjectID `bson:"coupon_id,omitempty" json:"coupon_id,omitempty"`
	CampaignID  primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
	DateCreated time.Time          `bson:"date_created" json:"date_created"`
}

// NotificationReceiver records one user receiving a notification
// (one issuance).
type NotificationReceiver struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	NotificationID primitive.ObjectID `bson:"notification_id" json:"notification_id"`
	UserID         primitive.ObjectID `bson:"user_id" json:"user_id"`
	ReceivedAt     time.Time          `bson:"received_at,omitempty" json:"received_at,omitempty"`
}
