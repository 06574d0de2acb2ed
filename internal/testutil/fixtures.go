package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

func (f *Fixtures) insert(ctx context.Context, coll string, doc any) {
	f.t.Helper()
	if _, err := f.db.Collection(coll).InsertOne(ctx, doc); err != nil {
		f.t.Fatalf("insert into %s: %v", coll, err)
	}
}

// CreateOrganization creates an organization with the given abbreviation.
func (f *Fixtures) CreateOrganization(ctx context.Context, abbreviation string) models.Organization {
	f.t.Helper()
	org := models.Organization{ID: primitive.NewObjectID(), Abbreviation: abbreviation, Name: abbreviation + " Inc"}
	f.insert(ctx, "organizations", org)
	return org
}

// CreateUser creates a verified user. A non-empty password is stored as a
// bcrypt hash at minimum cost.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role, password, org string) models.User {
	f.t.Helper()
	now := time.Now().UTC()
	u := models.User{
		ID:            primitive.NewObjectID(),
		Username:      username,
		Email:         email,
		EmailVerified: true,
		Organization:  org,
		Role:          role,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			f.t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = string(hash)
	}
	f.insert(ctx, "users", u)
	return u
}

// CreateAdmin creates an admin with the given password.
func (f *Fixtures) CreateAdmin(ctx context.Context, username, email, password string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, models.RoleAdmin, password, "")
}

// CreateVendor creates a vendor.
func (f *Fixtures) CreateVendor(ctx context.Context, name, locationType string) models.Vendor {
	f.t.Helper()
	v := models.Vendor{ID: primitive.NewObjectID(), VendorName: name, LocationType: locationType}
	f.insert(ctx, "vendors", v)
	return v
}

// CreateCampaign creates a campaign for vendor valid over [from, to].
func (f *Fixtures) CreateCampaign(ctx context.Context, name string, vendorID primitive.ObjectID, from, to time.Time) models.Campaign {
	f.t.Helper()
	c := models.Campaign{
		ID:           primitive.NewObjectID(),
		CampaignName: name,
		VendorID:     vendorID,
		ValidFrom:    from.UTC(),
		ValidTo:      to.UTC(),
	}
	f.insert(ctx, "campaign", c)
	return c
}

// CreateCoupon creates a coupon in campaign.
func (f *Fixtures) CreateCoupon(ctx context.Context, name string, campaignID primitive.ObjectID) models.Coupon {
	f.t.Helper()
	c := models.Coupon{ID: primitive.NewObjectID(), CouponName: name, CampaignID: campaignID}
	f.insert(ctx, "coupons", c)
	return c
}

// CreateNotification creates a notification for coupon, created at, and
// received by each of receivers.
func (f *Fixtures) CreateNotification(ctx context.Context, coupon models.Coupon, at time.Time, receivers ...primitive.ObjectID) models.Notification {
	f.t.Helper()
	n := models.Notification{
		ID:          primitive.NewObjectID(),
		CouponID:    coupon.ID,
		CampaignID:  coupon.CampaignID,
		DateCreated: at.UTC(),
	}
	f.insert(ctx, "notifications", n)
	for _, uid := range receivers {
		f.insert(ctx, "notification_receivers", models.NotificationReceiver{
			ID:             primitive.NewObjectID(),
			NotificationID: n.ID,
			UserID:         uid,
			ReceivedAt:     n.DateCreated,
		})
	}
	return n
}

// AddInventory gives coupon to user. A non-nil redeemed marks it used.
func (f *Fixtures) AddInventory(ctx context.Context, userID, couponID primitive.ObjectID, redeemed *time.Time) models.InventoryItem {
	f.t.Helper()
	item := models.InventoryItem{ID: primitive.NewObjectID(), UserID: userID, CouponID: couponID}
	if redeemed != nil {
		at := redeemed.UTC()
		item.Redeemed = &at
	}
	f.insert(ctx, "inventory", item)
	return item
}

// CreateAuditEntry appends an audit entry.
func (f *Fixtures) CreateAuditEntry(ctx context.Context, user, action, object string, at time.Time) models.AuditEntry {
	f.t.Helper()
	e := models.AuditEntry{ID: primitive.NewObjectID(), User: user, Action: action, Object: object, Time: at.UTC()}
	f.insert(ctx, "audit", e)
	return e
}
