package reports_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/app/features/reports"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	sysreports "github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/testutil"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newRouter(t *testing.T, db *mongo.Database) chi.Router {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	var src sysreports.Source
	if db != nil {
		src = sysreports.NewMongoSource(db)
	}
	b := sysreports.NewBuilder(src, sysreports.Options{MaxConcurrency: 4}, zap.NewNop())
	return reports.Routes(reports.NewHandler(b, zap.NewNop()), sm)
}

func get(router http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", target, testutil.AdminUser()))
	return rec
}

func TestRoutes_RequireAdmin(t *testing.T) {
	router := newRouter(t, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewRequest("GET", "/catalog"))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/catalog", testutil.PlainUser("ORG")))
	if rec.Code != http.StatusForbidden {
		t.Errorf("plain user: expected 403, got %d", rec.Code)
	}
}

func TestServeCatalog(t *testing.T) {
	rec := get(newRouter(t, nil), "/catalog")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Datasets []sysreports.Dataset `json:"datasets"`
		TopLevel []string             `json:"top_level"`
		PageSize int                  `json:"page_size"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Datasets) != len(sysreports.Catalog) {
		t.Errorf("datasets = %d, want %d", len(body.Datasets), len(sysreports.Catalog))
	}
	if body.PageSize != reports.DefaultPageSize {
		t.Errorf("page_size = %d, want %d", body.PageSize, reports.DefaultPageSize)
	}
}

func TestServeAggregate_ValidationErrors(t *testing.T) {
	router := newRouter(t, nil)
	tests := []struct {
		name  string
		query string
	}{
		{"unknown collection", "collection=widgets&field=x&metric=count"},
		{"unknown field", "collection=campaign&field=color&metric=count"},
		{"metric not offered", "collection=organizations&field=name&metric=issuance-count"},
		{"bad order", "collection=campaign&field=vendorID&metric=count&order=sideways"},
		{"missing window", "collection=campaign&field=validFrom&time=true"},
		{"inverted window", "collection=campaign&field=validFrom&time=true&start=2024-05-02&end=2024-05-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := get(router, "/aggregate?"+tc.query)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

type aggregateBody struct {
	Rows  []sysreports.Row `json:"rows"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Pages int              `json:"pages"`
}

func TestServeAggregate_CountPagedAndSorted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 2, 0)
	for _, name := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		v := fx.CreateVendor(ctx, "vendor-"+name, "store")
		fx.CreateCampaign(ctx, "spring", v.ID, from, to)
	}
	fx.CreateCampaign(ctx, "summer", fx.CreateVendor(ctx, "vendor-h", "online").ID, from, to)

	router := newRouter(t, db)
	rec := get(router, "/aggregate?collection=Campaigns&field=campaignName&metric=count&order=descending")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body aggregateBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 2 || body.Rows[0].Key != "spring" || body.Rows[0].Value != 7 {
		t.Errorf("rows = %+v, want spring=7 first", body.Rows)
	}

	rec = get(router, "/aggregate?collection=vendors&field=vendorName&metric=count&page=2")
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Total != 8 || body.Pages != 2 || body.Page != 2 || len(body.Rows) != 3 {
		t.Errorf("page 2 = %+v, want 3 of 8 rows over 2 pages", body)
	}
	if body.Rows[0].Key != "vendor-f" {
		t.Errorf("first row on page 2 = %q, want vendor-f", body.Rows[0].Key)
	}
}

func TestServeAggregate_TimeBuckets(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	v := fx.CreateVendor(ctx, "acme", "store")
	day := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	fx.CreateCampaign(ctx, "one", v.ID, day, day.AddDate(0, 1, 0))
	fx.CreateCampaign(ctx, "two", v.ID, day.Add(3*time.Hour), day.AddDate(0, 1, 0))
	fx.CreateCampaign(ctx, "late", v.ID, day.AddDate(0, 0, 10), day.AddDate(0, 1, 0))

	rec := get(newRouter(t, db), "/aggregate?collection=campaign&field=validFrom&time=1&start=2024-03-01&end=2024-03-05")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body aggregateBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Rows) != 1 || body.Rows[0].Key != "2024-3-5" || body.Rows[0].Value != 2 {
		t.Errorf("rows = %+v, want 2024-3-5=2", body.Rows)
	}
}

func TestServeAggregateCSV(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	fx.CreateVendor(ctx, "acme", "store")
	fx.CreateVendor(ctx, "globex", "online")
	fx.CreateVendor(ctx, "initech", "online")

	rec := get(newRouter(t, db), "/aggregate.csv?collection=vendors&field=locationType&metric=count&order=descending")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "\xEF\xBB\xBFlocationType,count\r\nonline,2\r\nstore,1\r\n"
	if got := rec.Body.String(); got != want {
		t.Errorf("body = %q, want %q", got, want)
	}
}

func TestServeMonthSeries(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	v := fx.CreateVendor(ctx, "acme", "store")
	fx.CreateCampaign(ctx, "spring", v.ID,
		time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC))

	router := newRouter(t, db)
	rec := get(router, "/series/active-campaigns?year=2024")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Months []sysreports.MonthCount `json:"months"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Months) != 12 {
		t.Fatalf("months = %d, want 12", len(body.Months))
	}
	for i, m := range body.Months {
		want := int64(0)
		if i >= 2 && i <= 4 {
			want = 1
		}
		if m.Count != want {
			t.Errorf("%s = %d, want %d", m.Month, m.Count, want)
		}
	}

	if rec := get(router, "/series/refunds"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown series: expected 404, got %d", rec.Code)
	}
	if rec := get(router, "/series/issuance?year=twenty"); rec.Code != http.StatusBadRequest {
		t.Errorf("bad year: expected 400, got %d", rec.Code)
	}
}

func TestServeCouponHolders(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)

	v := fx.CreateVendor(ctx, "acme", "store")
	camp := fx.CreateCampaign(ctx, "spring", v.ID, time.Now().AddDate(0, -1, 0), time.Now().AddDate(0, 1, 0))
	coupon := fx.CreateCoupon(ctx, "bogo", camp.ID)
	u1 := fx.CreateUser(ctx, "ann", "ann@example.com", "user", "password1", "")
	u2 := fx.CreateUser(ctx, "ben", "ben@example.com", "user", "password1", "")
	used := time.Now().Add(-time.Hour)
	fx.AddInventory(ctx, u1.ID, coupon.ID, &used)
	fx.AddInventory(ctx, u2.ID, coupon.ID, nil)

	router := newRouter(t, db)
	tests := []struct {
		query string
		want  float64
	}{
		{"", 2},
		{"?redeemed=true", 1},
	}
	for _, tc := range tests {
		rec := get(router, "/coupons/holders"+tc.query)
		if rec.Code != http.StatusOK {
			t.Fatalf("%q: expected 200, got %d", tc.query, rec.Code)
		}
		var body struct {
			Rows []sysreports.Row `json:"rows"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body.Rows) != 1 || body.Rows[0].Value != tc.want {
			t.Errorf("%q: rows = %+v, want one row of %v", tc.query, body.Rows, tc.want)
		}
	}
}
