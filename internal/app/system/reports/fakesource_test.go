package reports_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeSource is an in-memory reports.Source.
type fakeSource struct {
	mu            sync.Mutex
	campaigns     []models.Campaign
	coupons       []models.Coupon
	users         []models.User
	organizations []models.Organization
	vendors       []models.Vendor
	notifications []models.Notification
	receivers     []models.NotificationReceiver
	inventory     []models.InventoryItem
	activity      []models.ActivityRecord

	// failReceivers makes receiver reads for this notification fail.
	failReceivers primitive.ObjectID
	inFlight      atomic.Int64
	maxInFlight   atomic.Int64
	fanOutDelay   time.Duration
}

func (f *fakeSource) Campaigns(context.Context) ([]models.Campaign, error) {
	return f.campaigns, nil
}

func (f *fakeSource) Coupons(context.Context) ([]models.Coupon, error) {
	return f.coupons, nil
}

func (f *fakeSource) Users(context.Context) ([]models.User, error) {
	return f.users, nil
}

func (f *fakeSource) Organizations(context.Context) ([]models.Organization, error) {
	return f.organizations, nil
}

func (f *fakeSource) Vendors(context.Context) ([]models.Vendor, error) {
	return f.vendors, nil
}

func (f *fakeSource) Notifications(context.Context) ([]models.Notification, error) {
	return f.notifications, nil
}

func (f *fakeSource) NotificationsCreatedBetween(_ context.Context, start, end time.Time) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range f.notifications {
		if !n.DateCreated.Before(start) && n.DateCreated.Before(end) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeSource) enter() func() {
	n := f.inFlight.Add(1)
	for {
		max := f.maxInFlight.Load()
		if n <= max || f.maxInFlight.CompareAndSwap(max, n) {
			break
		}
	}
	if f.fanOutDelay > 0 {
		time.Sleep(f.fanOutDelay)
	}
	return func() { f.inFlight.Add(-1) }
}

func (f *fakeSource) Receivers(_ context.Context, id primitive.ObjectID) ([]models.NotificationReceiver, error) {
	defer f.enter()()
	if id == f.failReceivers {
		return nil, errBoom
	}
	var out []models.NotificationReceiver
	for _, r := range f.receivers {
		if r.NotificationID == id {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSource) ReceiverCount(ctx context.Context, id primitive.ObjectID) (int64, error) {
	rs, err := f.Receivers(ctx, id)
	return int64(len(rs)), err
}

func (f *fakeSource) Inventory(_ context.Context, userID primitive.ObjectID) ([]models.InventoryItem, error) {
	defer f.enter()()
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.InventoryItem
	for _, item := range f.inventory {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeSource) RedeemedBetween(_ context.Context, start, end time.Time) ([]models.InventoryItem, error) {
	var out []models.InventoryItem
	for _, item := range f.inventory {
		if item.IsRedeemed() && !item.Redeemed.Before(start) && item.Redeemed.Before(end) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (f *fakeSource) Activity(context.Context) ([]models.ActivityRecord, error) {
	return f.activity, nil
}

func (f *fakeSource) redeem(itemID primitive.ObjectID, at time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.inventory {
		if f.inventory[i].ID == itemID {
			f.inventory[i].Redeemed = &at
		}
	}
}

// seed is a small coupon platform shared by the aggregation tests.
type seed struct {
	src *fakeSource

	vendorA, vendorB      models.Vendor
	campaignX, campaignY  models.Campaign
	couponX1, couponX2    models.Coupon
	couponY1              models.Coupon
	alice, bob, carol     models.User
	notifX1, notifX1b     models.Notification
	notifY1               models.Notification
	aliceX1, bobX1, bobY1 models.InventoryItem
	carolX2               models.InventoryItem
}

func newSeed() *seed {
	oid := primitive.NewObjectID
	s := &seed{}
	s.vendorA = models.Vendor{ID: oid(), VendorName: "Acme", LocationType: "mall"}
	s.vendorB = models.Vendor{ID: oid(), VendorName: "Bolt", LocationType: "street"}

	s.campaignX = models.Campaign{
		ID: oid(), CampaignName: "Spring", VendorID: s.vendorA.ID,
		ValidFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC),
	}
	s.campaignY = models.Campaign{
		ID: oid(), CampaignName: "Summer", VendorID: s.vendorB.ID,
		ValidFrom: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 6, 4, 12, 0, 0, 0, time.UTC),
	}

	s.couponX1 = models.Coupon{ID: oid(), CouponName: "10OFF", CampaignID: s.campaignX.ID}
	s.couponX2 = models.Coupon{ID: oid(), CouponName: "FREESHIP", CampaignID: s.campaignX.ID}
	s.couponY1 = models.Coupon{ID: oid(), CouponName: "SUN", CampaignID: s.campaignY.ID}

	s.alice = models.User{ID: oid(), Username: "alice", Email: "alice@example.com", Role: "user", Organization: "ACME"}
	s.bob = models.User{ID: oid(), Username: "bob", Email: "bob@example.com", Role: "user", Organization: "ACME"}
	s.carol = models.User{ID: oid(), Username: "carol", Email: "carol@example.com", Role: "admin"}

	s.notifX1 = models.Notification{ID: oid(), CouponID: s.couponX1.ID, CampaignID: s.campaignX.ID, DateCreated: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)}
	s.notifX1b = models.Notification{ID: oid(), CouponID: s.couponX1.ID, CampaignID: s.campaignX.ID, DateCreated: time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)}
	s.notifY1 = models.Notification{ID: oid(), CouponID: s.couponY1.ID, CampaignID: s.campaignY.ID, DateCreated: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)}

	redeemed := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	s.aliceX1 = models.InventoryItem{ID: oid(), UserID: s.alice.ID, CouponID: s.couponX1.ID, Redeemed: &redeemed}
	s.bobX1 = models.InventoryItem{ID: oid(), UserID: s.bob.ID, CouponID: s.couponX1.ID}
	redeemedJune := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	s.bobY1 = models.InventoryItem{ID: oid(), UserID: s.bob.ID, CouponID: s.couponY1.ID, Redeemed: &redeemedJune}
	s.carolX2 = models.InventoryItem{ID: oid(), UserID: s.carol.ID, CouponID: s.couponX2.ID}

	s.src = &fakeSource{
		vendors:   []models.Vendor{s.vendorA, s.vendorB},
		campaigns: []models.Campaign{s.campaignX, s.campaignY},
		coupons:   []models.Coupon{s.couponX1, s.couponX2, s.couponY1},
		users:     []models.User{s.alice, s.bob, s.carol},
		organizations: []models.Organization{
			{ID: oid(), Abbreviation: "ACME"},
			{ID: oid(), Abbreviation: "EMPTY"},
		},
		notifications: []models.Notification{s.notifX1, s.notifX1b, s.notifY1},
		receivers: []models.NotificationReceiver{
			{ID: oid(), NotificationID: s.notifX1.ID, UserID: s.alice.ID},
			{ID: oid(), NotificationID: s.notifX1.ID, UserID: s.bob.ID},
			{ID: oid(), NotificationID: s.notifX1b.ID, UserID: s.alice.ID},
			{ID: oid(), NotificationID: s.notifY1.ID, UserID: s.bob.ID},
			// Receiver whose user was deleted.
			{ID: oid(), NotificationID: s.notifY1.ID, UserID: oid()},
		},
		inventory: []models.InventoryItem{s.aliceX1, s.bobX1, s.bobY1, s.carolX2},
	}
	return s
}
