package reports

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/dalemusser/couponhub/internal/domain/models"
)

// PercentChange is the relative change from previous to current, in percent.
// A zero baseline yields 100 when current is positive and 0 otherwise.
func PercentChange(previous, current float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// MonthOverMonth compares receiver totals of the current and prior month.
type MonthOverMonth struct {
	Current       int64   `json:"current_month"`
	Previous      int64   `json:"last_month"`
	PercentChange float64 `json:"percentage_difference"`
}

// MonthBounds returns the first instant of the month containing now and of
// the month before it.
func MonthBounds(now time.Time) (thisMonth, lastMonth time.Time) {
	y, m, _ := now.Date()
	thisMonth = time.Date(y, m, 1, 0, 0, 0, 0, now.Location())
	return thisMonth, thisMonth.AddDate(0, -1, 0)
}

// ReceiverTotals sums the receivers of notifications created this month and
// last month, reading receiver counts concurrently.
func (b *Builder) ReceiverTotals(ctx context.Context, now time.Time) (mom MonthOverMonth, err error) {
	defer func(start time.Time) { b.observe("receiver_totals", start, err) }(time.Now())

	thisMonth, lastMonth := MonthBounds(now.In(b.loc))
	notifications, err := b.src.NotificationsCreatedBetween(ctx, lastMonth, thisMonth.AddDate(0, 1, 0))
	if err != nil {
		return MonthOverMonth{}, fmt.Errorf("read notifications: %w", err)
	}

	var current, previous atomic.Int64
	err = fanOut(ctx, b, "receiver_count", notifications, func(ctx context.Context, n models.Notification) error {
		c, err := b.src.ReceiverCount(ctx, n.ID)
		if err != nil {
			return fmt.Errorf("count receivers of %s: %w", n.ID.Hex(), err)
		}
		switch {
		case !n.DateCreated.Before(thisMonth):
			current.Add(c)
		case !n.DateCreated.Before(lastMonth):
			previous.Add(c)
		}
		return nil
	})
	if err != nil {
		return MonthOverMonth{}, err
	}

	mom = MonthOverMonth{Current: current.Load(), Previous: previous.Load()}
	mom.PercentChange = PercentChange(float64(mom.Previous), float64(mom.Current))
	return mom, nil
}

// ActiveUsers lists distinct users active in the trailing hour and in the
// hour before it.
type ActiveUsers struct {
	CurrentHour   []string `json:"current_hour"`
	PreviousHour  []string `json:"previous_hour"`
	PercentChange float64  `json:"percentage_difference"`
}

// ActiveUsers reads every activity record and buckets it relative to now:
// current when last_active > now-1h, previous when now-2h < last_active <=
// now-1h. Records without a user id or timestamp are skipped.
func (b *Builder) ActiveUsers(ctx context.Context, now time.Time) (au ActiveUsers, err error) {
	defer func(start time.Time) { b.observe("active_users", start, err) }(time.Now())

	records, err := b.src.Activity(ctx)
	if err != nil {
		return ActiveUsers{}, fmt.Errorf("read activity: %w", err)
	}

	oneHourAgo := now.Add(-time.Hour)
	twoHoursAgo := now.Add(-2 * time.Hour)
	current := map[string]struct{}{}
	previous := map[string]struct{}{}
	for _, r := range records {
		if r.UserID == "" || r.LastActive.IsZero() {
			continue
		}
		switch {
		case r.LastActive.After(oneHourAgo):
			current[r.UserID] = struct{}{}
		case r.LastActive.After(twoHoursAgo):
			previous[r.UserID] = struct{}{}
		}
	}

	au = ActiveUsers{CurrentHour: keys(current), PreviousHour: keys(previous)}
	au.PercentChange = PercentChange(float64(len(au.PreviousHour)), float64(len(au.CurrentHour)))
	return au, nil
}

func keys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
