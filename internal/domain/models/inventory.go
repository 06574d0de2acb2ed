// internal/domain/models/inventory.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryItem is a coupon held by a user. Redeemed is nil until the
// coupon is used.
type InventoryItem struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID   primitive.ObjectID `bson:"user_id" json:"user_id"`
	CouponID primitive.ObjectID `bson:"coupon_id" json:"coupon_id"`
	Redeemed *time.Time         `bson:"redeemed,omitempty" json:"redeemed,omitempty"`
}

// IsRedeemed reports whether the item carries a redemption time.
func (i InventoryItem) IsRedeemed() bool {
	return i.Redeemed != nil && !i.Redeemed.IsZero()
}
