// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ActivityRecord is a heartbeat stored in the analytics collection.
type ActivityRecord struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID     string             `bson:"user_id" json:"user_id"`
	LastActive time.Time          `bson:"last_active" json:"last_active"`
}
