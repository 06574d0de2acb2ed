package reports

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Query asks for one metric grouped by one field of a collection.
type Query struct {
	Collection Collection
	Field      string
	Metric     Metric
	// TimeField buckets records by the calendar date of Field inside
	// [Start, End] instead of by its value.
	TimeField bool
	Start     time.Time
	End       time.Time
}

// Result maps a dimension value to its metric value. Buckets with no
// contributing record are absent.
type Result map[string]float64

// Validate checks q against the catalog.
func (q Query) Validate() error {
	ds, err := LookupDataset(string(q.Collection))
	if err != nil {
		return err
	}
	if q.TimeField {
		if !ds.HasTimeField(q.Field) {
			return fmt.Errorf("%w: %q is not a time field of %s", ErrUnknownField, q.Field, ds.Name)
		}
		if q.Start.IsZero() || q.End.IsZero() || q.End.Before(q.Start) {
			return ErrInvalidWindow
		}
		return nil
	}
	if !ds.HasDimension(q.Field) {
		return fmt.Errorf("%w: %q is not a dimension of %s", ErrUnknownField, q.Field, ds.Name)
	}
	if !ds.HasMetric(q.Metric) {
		return fmt.Errorf("%w: %q is not offered for %s", ErrUnknownMetric, q.Metric, ds.Name)
	}
	return nil
}

// Aggregate computes q. Behaviour is specific to each collection and metric
// pair; see the fold functions below.
func (b *Builder) Aggregate(ctx context.Context, q Query) (res Result, err error) {
	defer func(start time.Time) { b.observe("aggregate:"+string(q.Collection)+":"+string(q.Metric), start, err) }(time.Now())

	ds, err := LookupDataset(string(q.Collection))
	if err != nil {
		return nil, err
	}
	q.Collection = ds.Collection
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.TimeField {
		return b.countByDate(ctx, q)
	}

	switch q.Metric {
	case MetricCount:
		return b.count(ctx, q)
	case MetricAverageDuration:
		return b.averageDuration(ctx, q.Field)
	case MetricIssuance:
		switch q.Collection {
		case Coupons:
			return b.couponIssuance(ctx, q.Field)
		case Users:
			return b.userIssuance(ctx, q.Field)
		case Vendors:
			return b.vendorIssuance(ctx, q.Field)
		}
	case MetricRedemption:
		switch q.Collection {
		case Coupons:
			return b.couponRedemption(ctx, q.Field)
		case Users:
			return b.userRedemption(ctx, q.Field)
		case Vendors:
			return b.vendorRedemption(ctx, q.Field)
		}
	}
	return nil, ErrUnknownMetric
}

// dimensionValues reads the primary collection and projects field.
func (b *Builder) dimensionValues(ctx context.Context, coll Collection, field string) ([]string, error) {
	var out []string
	switch coll {
	case Campaigns:
		rows, err := b.src.Campaigns(ctx)
		if err != nil {
			return nil, fmt.Errorf("read campaigns: %w", err)
		}
		for _, r := range rows {
			out = append(out, campaignDimension(r, field))
		}
	case Coupons:
		rows, err := b.src.Coupons(ctx)
		if err != nil {
			return nil, fmt.Errorf("read coupons: %w", err)
		}
		for _, r := range rows {
			out = append(out, couponDimension(r, field))
		}
	case Users:
		rows, err := b.src.Users(ctx)
		if err != nil {
			return nil, fmt.Errorf("read users: %w", err)
		}
		for _, r := range rows {
			out = append(out, userDimension(r, field))
		}
	case Vendors:
		rows, err := b.src.Vendors(ctx)
		if err != nil {
			return nil, fmt.Errorf("read vendors: %w", err)
		}
		for _, r := range rows {
			out = append(out, vendorDimension(r, field))
		}
	case Organizations:
		rows, err := b.src.Organizations(ctx)
		if err != nil {
			return nil, fmt.Errorf("read organizations: %w", err)
		}
		for _, r := range rows {
			out = append(out, organizationDimension(r, field))
		}
	default:
		return nil, ErrUnknownCollection
	}
	return out, nil
}

// timeValues reads the primary collection and projects a time field.
func (b *Builder) timeValues(ctx context.Context, coll Collection, field string) ([]time.Time, error) {
	var out []time.Time
	switch coll {
	case Campaigns:
		rows, err := b.src.Campaigns(ctx)
		if err != nil {
			return nil, fmt.Errorf("read campaigns: %w", err)
		}
		for _, r := range rows {
			out = append(out, campaignTime(r, field))
		}
	case Users:
		rows, err := b.src.Users(ctx)
		if err != nil {
			return nil, fmt.Errorf("read users: %w", err)
		}
		for _, r := range rows {
			out = append(out, userTime(r, field))
		}
	default:
		return nil, ErrUnknownField
	}
	return out, nil
}

func (b *Builder) count(ctx context.Context, q Query) (Result, error) {
	values, err := b.dimensionValues(ctx, q.Collection, q.Field)
	if err != nil {
		return nil, err
	}
	res := Result{}
	for _, v := range values {
		if v == "" {
			continue
		}
		res[v]++
	}
	return res, nil
}

func (b *Builder) countByDate(ctx context.Context, q Query) (Result, error) {
	times, err := b.timeValues(ctx, q.Collection, q.Field)
	if err != nil {
		return nil, err
	}
	res := Result{}
	for _, t := range times {
		if t.IsZero() || t.Before(q.Start) || t.After(q.End) {
			continue
		}
		res[dateKey(t.In(b.loc))]++
	}
	return res, nil
}

func (b *Builder) averageDuration(ctx context.Context, field string) (Result, error) {
	campaigns, err := b.src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("read campaigns: %w", err)
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, c := range campaigns {
		key := campaignDimension(c, field)
		if key == "" {
			continue
		}
		d, ok := c.DurationDays()
		if !ok {
			continue
		}
		sums[key] += d
		counts[key]++
	}
	res := make(Result, len(sums))
	for key, sum := range sums {
		res[key] = round2(sum / float64(counts[key]))
	}
	return res, nil
}

// couponIssuance sums receivers per notification, keyed by the
// notification's coupon id when grouping by couponName and by its campaign
// id otherwise. Coupons never notified are absent.
func (b *Builder) couponIssuance(ctx context.Context, field string) (Result, error) {
	notifications, err := b.src.Notifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}

	type keyed struct {
		id  primitive.ObjectID
		key string
	}
	var work []keyed
	for _, n := range notifications {
		key := idString(n.CampaignID)
		if field == "couponName" {
			key = idString(n.CouponID)
		}
		if key == "" {
			continue
		}
		work = append(work, keyed{id: n.ID, key: key})
	}

	t := newTally()
	err = fanOut(ctx, b, "receiver_count", work, func(ctx context.Context, k keyed) error {
		n, err := b.src.ReceiverCount(ctx, k.id)
		if err != nil {
			return fmt.Errorf("count receivers of %s: %w", k.id.Hex(), err)
		}
		t.add(k.key, float64(n))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// userIssuance attributes every receiver to the receiving user's field value.
func (b *Builder) userIssuance(ctx context.Context, field string) (Result, error) {
	var (
		notifications []models.Notification
		users         []models.User
	)
	err := parallel(ctx,
		func(ctx context.Context) (err error) {
			notifications, err = b.src.Notifications(ctx)
			return wrap("read notifications", err)
		},
		func(ctx context.Context) (err error) {
			users, err = b.src.Users(ctx)
			return wrap("read users", err)
		},
	)
	if err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	t := newTally()
	err = fanOut(ctx, b, "receivers", notifications, func(ctx context.Context, n models.Notification) error {
		receivers, err := b.src.Receivers(ctx, n.ID)
		if err != nil {
			return fmt.Errorf("read receivers of %s: %w", n.ID.Hex(), err)
		}
		for _, r := range receivers {
			u, ok := byID[r.UserID]
			if !ok {
				continue
			}
			if v := userDimension(u, field); v != "" {
				t.add(v, 1)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// vendorIssuance joins notification, campaign and vendor.
func (b *Builder) vendorIssuance(ctx context.Context, field string) (Result, error) {
	var (
		notifications []models.Notification
		campaigns     []models.Campaign
		vendors       []models.Vendor
	)
	err := parallel(ctx,
		func(ctx context.Context) (err error) {
			notifications, err = b.src.Notifications(ctx)
			return wrap("read notifications", err)
		},
		func(ctx context.Context) (err error) {
			campaigns, err = b.src.Campaigns(ctx)
			return wrap("read campaigns", err)
		},
		func(ctx context.Context) (err error) {
			vendors, err = b.src.Vendors(ctx)
			return wrap("read vendors", err)
		},
	)
	if err != nil {
		return nil, err
	}

	vendorKey := vendorKeysByCampaign(campaigns, vendors, field)

	type keyed struct {
		id  primitive.ObjectID
		key string
	}
	var work []keyed
	for _, n := range notifications {
		if key := vendorKey[n.CampaignID]; key != "" {
			work = append(work, keyed{id: n.ID, key: key})
		}
	}

	t := newTally()
	err = fanOut(ctx, b, "receiver_count", work, func(ctx context.Context, k keyed) error {
		n, err := b.src.ReceiverCount(ctx, k.id)
		if err != nil {
			return fmt.Errorf("count receivers of %s: %w", k.id.Hex(), err)
		}
		t.add(k.key, float64(n))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// couponRedemption reads every user's inventory and credits each redeemed
// item to its coupon's field value.
func (b *Builder) couponRedemption(ctx context.Context, field string) (Result, error) {
	var (
		users   []models.User
		coupons []models.Coupon
	)
	err := parallel(ctx,
		func(ctx context.Context) (err error) {
			users, err = b.src.Users(ctx)
			return wrap("read users", err)
		},
		func(ctx context.Context) (err error) {
			coupons, err = b.src.Coupons(ctx)
			return wrap("read coupons", err)
		},
	)
	if err != nil {
		return nil, err
	}

	couponKey := make(map[primitive.ObjectID]string, len(coupons))
	for _, c := range coupons {
		couponKey[c.ID] = couponDimension(c, field)
	}

	t := newTally()
	err = b.eachRedeemed(ctx, users, func(_ models.User, item models.InventoryItem) {
		if key := couponKey[item.CouponID]; key != "" {
			t.add(key, 1)
		}
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// userRedemption credits each user's redeemed items to the user's field value.
func (b *Builder) userRedemption(ctx context.Context, field string) (Result, error) {
	users, err := b.src.Users(ctx)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	var grouped []models.User
	for _, u := range users {
		if userDimension(u, field) != "" {
			grouped = append(grouped, u)
		}
	}

	t := newTally()
	err = b.eachRedeemed(ctx, grouped, func(u models.User, _ models.InventoryItem) {
		t.add(userDimension(u, field), 1)
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// vendorRedemption joins item, coupon, campaign and vendor.
func (b *Builder) vendorRedemption(ctx context.Context, field string) (Result, error) {
	var (
		users     []models.User
		coupons   []models.Coupon
		campaigns []models.Campaign
		vendors   []models.Vendor
	)
	err := parallel(ctx,
		func(ctx context.Context) (err error) {
			users, err = b.src.Users(ctx)
			return wrap("read users", err)
		},
		func(ctx context.Context) (err error) {
			coupons, err = b.src.Coupons(ctx)
			return wrap("read coupons", err)
		},
		func(ctx context.Context) (err error) {
			campaigns, err = b.src.Campaigns(ctx)
			return wrap("read campaigns", err)
		},
		func(ctx context.Context) (err error) {
			vendors, err = b.src.Vendors(ctx)
			return wrap("read vendors", err)
		},
	)
	if err != nil {
		return nil, err
	}

	vendorKey := vendorKeysByCampaign(campaigns, vendors, field)
	couponKey := make(map[primitive.ObjectID]string, len(coupons))
	for _, c := range coupons {
		couponKey[c.ID] = vendorKey[c.CampaignID]
	}

	t := newTally()
	err = b.eachRedeemed(ctx, users, func(_ models.User, item models.InventoryItem) {
		if key := couponKey[item.CouponID]; key != "" {
			t.add(key, 1)
		}
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}

// eachRedeemed reads each user's inventory concurrently and calls visit for
// every redeemed item. visit must be safe for concurrent use.
func (b *Builder) eachRedeemed(ctx context.Context, users []models.User, visit func(models.User, models.InventoryItem)) error {
	return fanOut(ctx, b, "inventory", users, func(ctx context.Context, u models.User) error {
		items, err := b.src.Inventory(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("read inventory of %s: %w", u.ID.Hex(), err)
		}
		for _, item := range items {
			if item.IsRedeemed() {
				visit(u, item)
			}
		}
		return nil
	})
}

// vendorKeysByCampaign maps campaign id to the owning vendor's field value.
func vendorKeysByCampaign(campaigns []models.Campaign, vendors []models.Vendor, field string) map[primitive.ObjectID]string {
	byVendor := make(map[primitive.ObjectID]string, len(vendors))
	for _, v := range vendors {
		byVendor[v.ID] = vendorDimension(v, field)
	}
	out := make(map[primitive.ObjectID]string, len(campaigns))
	for _, c := range campaigns {
		if key := byVendor[c.VendorID]; key != "" {
			out[c.ID] = key
		}
	}
	return out
}

func wrap(op string, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
