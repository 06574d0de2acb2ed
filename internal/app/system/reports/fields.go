package reports

import (
	"fmt"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// The functions below project typed records onto dashboard field names. An
// empty string means the field is absent and the record is excluded.

func idString(id primitive.ObjectID) string {
	if id.IsZero() {
		return ""
	}
	return id.Hex()
}

func campaignDimension(c models.Campaign, field string) string {
	switch field {
	case "vendorID":
		return idString(c.VendorID)
	case "orgID":
		return idString(c.OrgID)
	case "campaignName":
		return c.CampaignName
	}
	return ""
}

func campaignTime(c models.Campaign, field string) time.Time {
	switch field {
	case "validFrom":
		return c.ValidFrom
	case "validTo":
		return c.ValidTo
	}
	return time.Time{}
}

func couponDimension(c models.Coupon, field string) string {
	switch field {
	case "couponName":
		return c.CouponName
	case "campaignID":
		return idString(c.CampaignID)
	}
	return ""
}

func userDimension(u models.User, field string) string {
	switch field {
	case "username":
		return u.Username
	case "email":
		return u.Email
	case "role":
		return u.Role
	case "organization":
		return u.Organization
	}
	return ""
}

func userTime(u models.User, field string) time.Time {
	if field == "createdAt" {
		return u.CreatedAt
	}
	return time.Time{}
}

func vendorDimension(v models.Vendor, field string) string {
	switch field {
	case "vendorName":
		return v.VendorName
	case "locationType":
		return v.LocationType
	}
	return ""
}

func organizationDimension(o models.Organization, field string) string {
	switch field {
	case "abbreviation":
		return o.Abbreviation
	case "name":
		return o.Name
	}
	return ""
}

// dateKey formats t as Y-M-D without zero padding.
func dateKey(t time.Time) string {
	y, m, d := t.Date()
	return fmt.Sprintf("%d-%d-%d", y, int(m), d)
}
