// internal/domain/models/emailchange.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Email change purposes.
const (
	EmailChangeNew     = "new_email"
	EmailChangeCurrent = "verify_current"
)

// EmailChange is a pending verification. For EmailChangeNew the Email is the
// address that replaces the user's email once the token is confirmed.
type EmailChange struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    primitive.ObjectID `bson:"user_id"`
	Email     string             `bson:"email"`
	Purpose   string             `bson:"purpose"`
	Token     string             `bson:"token"`
	ExpiresAt time.Time          `bson:"expires_at"`
	CreatedAt time.Time          `bson:"created_at"`
}
