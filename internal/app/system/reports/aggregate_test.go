package reports_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/google/go-cmp/cmp"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var errBoom = errors.New("boom")

func newBuilder(src reports.Source) *reports.Builder {
	return reports.NewBuilder(src, reports.Options{MaxConcurrency: 4}, zap.NewNop())
}

func aggregate(t *testing.T, b *reports.Builder, q reports.Query) reports.Result {
	t.Helper()
	res, err := b.Aggregate(context.Background(), q)
	if err != nil {
		t.Fatalf("Aggregate(%+v) failed: %v", q, err)
	}
	return res
}

func TestAggregate_Count_ExcludesEmptyValues(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: reports.Users, Field: "organization", Metric: reports.MetricCount})
	want := reports.Result{"ACME": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("count by organization mismatch (-want +got):\n%s", diff)
	}

	var total float64
	for _, v := range got {
		total += v
	}
	if total != 2 {
		t.Errorf("sum of buckets: got %v, want 2 (carol has no organization)", total)
	}
}

func TestAggregate_Count_ByDisplayName(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: "Coupons", Field: "campaignID", Metric: reports.MetricCount})
	want := reports.Result{s.campaignX.ID.Hex(): 2, s.campaignY.ID.Hex(): 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("count by campaignID mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_AverageDuration(t *testing.T) {
	s := newSeed()
	third := models.Campaign{
		ID: primitive.NewObjectID(), CampaignName: "Spring 2", VendorID: s.vendorA.ID,
		ValidFrom: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		ValidTo:   time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC),
	}
	s.src.campaigns = append(s.src.campaigns, third)
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: reports.Campaigns, Field: "vendorID", Metric: reports.MetricAverageDuration})
	// Acme: (10 + 1.3333) / 2 = 5.67, Bolt: 3.5
	want := reports.Result{s.vendorA.ID.Hex(): 5.67, s.vendorB.ID.Hex(): 3.5}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("average duration mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_CouponIssuance(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: reports.Coupons, Field: "couponName", Metric: reports.MetricIssuance})
	want := reports.Result{s.couponX1.ID.Hex(): 3, s.couponY1.ID.Hex(): 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issuance by coupon mismatch (-want +got):\n%s", diff)
	}
	if _, ok := got[s.couponX2.ID.Hex()]; ok {
		t.Error("coupon without notifications must be absent")
	}

	got = aggregate(t, b, reports.Query{Collection: reports.Coupons, Field: "campaignID", Metric: reports.MetricIssuance})
	want = reports.Result{s.campaignX.ID.Hex(): 3, s.campaignY.ID.Hex(): 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issuance by campaign mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_UserIssuance_SkipsOrphanReceivers(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: reports.Users, Field: "username", Metric: reports.MetricIssuance})
	want := reports.Result{"alice": 2, "bob": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issuance by user mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_VendorIssuance(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{Collection: reports.Vendors, Field: "vendorName", Metric: reports.MetricIssuance})
	want := reports.Result{"Acme": 3, "Bolt": 2}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("issuance by vendor mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_Redemption(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	tests := []struct {
		name string
		q    reports.Query
		want reports.Result
	}{
		{
			name: "coupons by name",
			q:    reports.Query{Collection: reports.Coupons, Field: "couponName", Metric: reports.MetricRedemption},
			want: reports.Result{"10OFF": 1, "SUN": 1},
		},
		{
			name: "users by username",
			q:    reports.Query{Collection: reports.Users, Field: "username", Metric: reports.MetricRedemption},
			want: reports.Result{"alice": 1, "bob": 1},
		},
		{
			name: "vendors by location",
			q:    reports.Query{Collection: reports.Vendors, Field: "locationType", Metric: reports.MetricRedemption},
			want: reports.Result{"mall": 1, "street": 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := aggregate(t, b, tt.q)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestAggregate_Redemption_ToggleAddsExactlyOne(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)
	q := reports.Query{Collection: reports.Coupons, Field: "couponName", Metric: reports.MetricRedemption}

	before := aggregate(t, b, q)
	s.src.redeem(s.carolX2.ID, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC))
	after := aggregate(t, b, q)

	want := reports.Result{"10OFF": 1, "SUN": 1, "FREESHIP": 1}
	if diff := cmp.Diff(want, after); diff != "" {
		t.Errorf("after toggle mismatch (-want +got):\n%s", diff)
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("bucket %q changed from %v to %v", k, v, after[k])
		}
	}
}

func TestAggregate_TimeBucketed(t *testing.T) {
	s := newSeed()
	b := newBuilder(s.src)

	got := aggregate(t, b, reports.Query{
		Collection: reports.Campaigns,
		Field:      "validFrom",
		TimeField:  true,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	want := reports.Result{"2024-3-1": 1}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("time bucketed mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregate_ValidationErrors(t *testing.T) {
	b := newBuilder(newSeed().src)

	tests := []struct {
		name string
		q    reports.Query
		want error
	}{
		{"unknown collection", reports.Query{Collection: "widgets", Field: "x", Metric: reports.MetricCount}, reports.ErrUnknownCollection},
		{"unknown field", reports.Query{Collection: reports.Users, Field: "password", Metric: reports.MetricCount}, reports.ErrUnknownField},
		{"metric not offered", reports.Query{Collection: reports.Users, Field: "role", Metric: reports.MetricAverageDuration}, reports.ErrUnknownMetric},
		{"time field without window", reports.Query{Collection: reports.Users, Field: "createdAt", TimeField: true}, reports.ErrInvalidWindow},
		{"non time field", reports.Query{Collection: reports.Users, Field: "role", TimeField: true,
			Start: time.Now().Add(-time.Hour), End: time.Now()}, reports.ErrUnknownField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := b.Aggregate(context.Background(), tt.q)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAggregate_FanOutFailureRejectsWholeReport(t *testing.T) {
	s := newSeed()
	s.src.failReceivers = s.notifY1.ID
	b := newBuilder(s.src)

	res, err := b.Aggregate(context.Background(), reports.Query{Collection: reports.Coupons, Field: "couponName", Metric: reports.MetricIssuance})
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected fan-out error, got %v", err)
	}
	if res != nil {
		t.Errorf("expected no partial result, got %v", res)
	}
}

func TestAggregate_BoundsFanOutConcurrency(t *testing.T) {
	s := newSeed()
	for i := 0; i < 20; i++ {
		s.src.users = append(s.src.users, models.User{ID: primitive.NewObjectID(), Username: "u", Role: "user"})
	}
	s.src.fanOutDelay = 5 * time.Millisecond
	b := reports.NewBuilder(s.src, reports.Options{MaxConcurrency: 2}, zap.NewNop())

	if _, err := b.Aggregate(context.Background(), reports.Query{Collection: reports.Users, Field: "username", Metric: reports.MetricRedemption}); err != nil {
		t.Fatalf("Aggregate failed: %v", err)
	}
	if max := s.src.maxInFlight.Load(); max > 2 {
		t.Errorf("max in-flight reads: got %d, want <= 2", max)
	}
}
