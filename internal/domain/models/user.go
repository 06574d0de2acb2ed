// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles recognised by the dashboard. Only RoleAdmin may sign in.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is a platform account. Organization holds the organization
// abbreviation, not its id.
type User struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username      string             `bson:"username" json:"username"`
	Email         string             `bson:"email" json:"email"`
	EmailVerified bool               `bson:"email_verified" json:"email_verified"`
	Organization  string             `bson:"organization,omitempty" json:"organization,omitempty"`
	Role          string             `bson:"role" json:"role"`
	PasswordHash  string             `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
