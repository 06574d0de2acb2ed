package reports

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MonthCount is one point of a twelve month series.
type MonthCount struct {
	Month string `json:"month"`
	Count int64  `json:"count"`
}

// emptyYear returns Jan..Dec with zero counts.
func emptyYear() []MonthCount {
	out := make([]MonthCount, 12)
	for i := range out {
		out[i] = MonthCount{Month: time.Month(i + 1).String()[:3]}
	}
	return out
}

func (b *Builder) yearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, b.loc)
	return start, start.AddDate(1, 0, 0)
}

// ActiveCampaignsByMonth counts, for each month of year, the campaigns whose
// validity window overlaps that month.
func (b *Builder) ActiveCampaignsByMonth(ctx context.Context, year int) (out []MonthCount, err error) {
	defer func(start time.Time) { b.observe("active_campaigns_by_month", start, err) }(time.Now())

	campaigns, err := b.src.Campaigns(ctx)
	if err != nil {
		return nil, fmt.Errorf("read campaigns: %w", err)
	}
	out = emptyYear()
	for i := range out {
		start := time.Date(year, time.Month(i+1), 1, 0, 0, 0, 0, b.loc)
		end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
		for _, c := range campaigns {
			if c.ActiveBetween(start, end) {
				out[i].Count++
			}
		}
	}
	return out, nil
}

// MonthlyRedemptions counts inventory items redeemed in each month of year.
func (b *Builder) MonthlyRedemptions(ctx context.Context, year int) (out []MonthCount, err error) {
	defer func(start time.Time) { b.observe("monthly_redemptions", start, err) }(time.Now())

	start, end := b.yearBounds(year)
	items, err := b.src.RedeemedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("read redeemed inventory: %w", err)
	}
	out = emptyYear()
	for _, item := range items {
		if !item.IsRedeemed() {
			continue
		}
		at := item.Redeemed.In(b.loc)
		if at.Year() != year {
			continue
		}
		out[at.Month()-1].Count++
	}
	return out, nil
}

// MonthlyIssuance sums the receivers of notifications created in each month
// of year.
func (b *Builder) MonthlyIssuance(ctx context.Context, year int) (out []MonthCount, err error) {
	defer func(start time.Time) { b.observe("monthly_issuance", start, err) }(time.Now())

	start, end := b.yearBounds(year)
	notifications, err := b.src.NotificationsCreatedBetween(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("read notifications: %w", err)
	}

	var (
		mu     sync.Mutex
		counts [12]int64
	)
	err = fanOut(ctx, b, "receiver_count", notifications, func(ctx context.Context, n models.Notification) error {
		c, err := b.src.ReceiverCount(ctx, n.ID)
		if err != nil {
			return fmt.Errorf("count receivers of %s: %w", n.ID.Hex(), err)
		}
		month := n.DateCreated.In(b.loc).Month()
		mu.Lock()
		counts[month-1] += c
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	out = emptyYear()
	for i := range out {
		out[i].Count = counts[i]
	}
	return out, nil
}

// OrganizationUserCounts counts users per organization abbreviation.
// Organizations without users are reported with 0.
func (b *Builder) OrganizationUserCounts(ctx context.Context) (res Result, err error) {
	defer func(start time.Time) { b.observe("organization_user_counts", start, err) }(time.Now())

	var (
		orgs  []models.Organization
		users []models.User
	)
	err = parallel(ctx,
		func(ctx context.Context) (err error) {
			orgs, err = b.src.Organizations(ctx)
			return wrap("read organizations", err)
		},
		func(ctx context.Context) (err error) {
			users, err = b.src.Users(ctx)
			return wrap("read users", err)
		},
	)
	if err != nil {
		return nil, err
	}

	res = Result{}
	for _, o := range orgs {
		if o.Abbreviation != "" {
			res[o.Abbreviation] = 0
		}
	}
	for _, u := range users {
		if _, ok := res[u.Organization]; ok {
			res[u.Organization]++
		}
	}
	return res, nil
}

// CouponHolderCounts counts, per coupon name, the users holding it.
func (b *Builder) CouponHolderCounts(ctx context.Context) (Result, error) {
	return b.holderCounts(ctx, "coupon_holder_counts", false)
}

// CouponRedeemedHolderCounts counts, per coupon name, the users who have
// redeemed it.
func (b *Builder) CouponRedeemedHolderCounts(ctx context.Context) (Result, error) {
	return b.holderCounts(ctx, "coupon_redeemed_holder_counts", true)
}

func (b *Builder) holderCounts(ctx context.Context, report string, redeemedOnly bool) (res Result, err error) {
	defer func(start time.Time) { b.observe(report, start, err) }(time.Now())

	var (
		users   []models.User
		coupons []models.Coupon
	)
	err = parallel(ctx,
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

	// Every named coupon is reported, held or not.
	t := newTally()
	names := make(map[primitive.ObjectID]string, len(coupons))
	for _, c := range coupons {
		names[c.ID] = c.CouponName
		if c.CouponName != "" {
			t.add(c.CouponName, 0)
		}
	}

	err = fanOut(ctx, b, "inventory", users, func(ctx context.Context, u models.User) error {
		items, err := b.src.Inventory(ctx, u.ID)
		if err != nil {
			return fmt.Errorf("read inventory of %s: %w", u.ID.Hex(), err)
		}
		// A user counts once per coupon even with duplicate items.
		seen := map[string]bool{}
		for _, item := range items {
			if redeemedOnly && !item.IsRedeemed() {
				continue
			}
			name := names[item.CouponID]
			if name == "" || seen[name] {
				continue
			}
			seen[name] = true
			t.add(name, 1)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return t.result(), nil
}
