// internal/domain/models/vendor.go
package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Vendor runs campaigns.
type Vendor struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VendorName   string             `bson:"vendor_name" json:"vendor_name"`
	LocationType string             `bson:"location_type,omitempty" json:"location_type,omitempty"`
}
