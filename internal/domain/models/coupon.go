// internal/domain/models/coupon.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Coupon belongs to a campaign. Inventory items reference it by ID.
type Coupon struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CouponName string             `bson:"coupon_name" json:"coupon_name"`
	CampaignID primitive.ObjectID `bson:"campaign_id,omitempty" json:"campaign_id,omitempty"`
}
