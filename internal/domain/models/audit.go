// internal/domain/models/audit.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AuditEntry is written by the platform; the dashboard only reads it.
type AuditEntry struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Action string             `bson:"action" json:"action"`
	Object string             `bson:"object" json:"object"`
	Time   time.Time          `bson:"time" json:"time"`
	User   string             `bson:"user" json:"user"`
}
