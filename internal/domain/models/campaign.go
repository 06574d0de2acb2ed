// internal/domain/models/campaign.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign is a vendor promotion valid between ValidFrom and ValidTo.
type Campaign struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CampaignName string             `bson:"campaign_name" json:"campaign_name"`
	VendorID     primitive.ObjectID `bson:"vendor_id,omitempty" json:"vendor_id,omitempty"`
	OrgID        primitive.ObjectID `bson:"org_id,omitempty" json:"org_id,omitempty"`
	ValidFrom    time.Time          `bson:"valid_from" json:"valid_from"`
	ValidTo      time.Time          `bson:"valid_to" json:"valid_to"`
}

// DurationDays is the campaign length in fractional days, or false when
// either bound is unset.
func (c Campaign) DurationDays() (float64, bool) {
	if c.ValidFrom.IsZero() || c.ValidTo.IsZero() {
		return 0, false
	}
	return float64(c.ValidTo.Sub(c.ValidFrom).Milliseconds()) / 86400000, true
}

// ActiveBetween reports whether the validity window overlaps [start, end].
func (c Campaign) ActiveBetween(start, end time.Time) bool {
	if c.ValidFrom.IsZero() || c.ValidTo.IsZero() {
		return false
	}
	return !c.ValidFrom.After(end) && !c.ValidTo.Before(start)
}
