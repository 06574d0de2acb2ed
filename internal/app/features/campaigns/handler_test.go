package campaigns_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/couponhub/internal/app/features/campaigns"
	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/dalemusser/couponhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newSessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", 24*time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return sm
}

func TestServeCampaign(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	v := fx.CreateVendor(ctx, "acme", "store")
	c := fx.CreateCampaign(ctx, "spring", v.ID, time.Now(), time.Now().AddDate(0, 1, 0))

	sm := newSessionManager(t)
	router := campaigns.Routes(campaigns.NewHandler(campaignstore.New(db), zap.NewNop()), sm)

	tests := []struct {
		name string
		id   string
		want int
	}{
		{"found", c.ID.Hex(), http.StatusOK},
		{"missing", primitive.NewObjectID().Hex(), http.StatusNotFound},
		{"malformed id", "not-an-id", http.StatusNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, testutil.NewAuthenticatedRequest("GET", "/"+tc.id, testutil.AdminUser()))
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}
			if tc.want != http.StatusOK {
				return
			}
			var got models.Campaign
			if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.CampaignName != "spring" || got.VendorID != v.ID {
				t.Errorf("campaign = %+v", got)
			}
		})
	}
}

// memCampaigns holds at most one campaign.
type memCampaigns struct {
	mu    sync.Mutex
	c     *models.Campaign
	reads int
}

func (m *memCampaigns) readCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

func (m *memCampaigns) set(c models.Campaign) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.c = &c
}

func (m *memCampaigns) GetByID(_ context.Context, id primitive.ObjectID) (models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	if m.c == nil || m.c.ID != id {
		return models.Campaign{}, campaignstore.ErrNotFound
	}
	return *m.c, nil
}

type chanStream struct{ events chan struct{} }

func (s *chanStream) Next(ctx context.Context) bool {
	select {
	case _, ok := <-s.events:
		return ok
	case <-ctx.Done():
		return false
	}
}
func (s *chanStream) Err() error                  { return nil }
func (s *chanStream) Close(context.Context) error { return nil }

type lockedRecorder struct {
	mu     sync.Mutex
	header http.Header
	buf    bytes.Buffer
}

func (r *lockedRecorder) Header() http.Header { return r.header }
func (r *lockedRecorder) Flush()              {}
func (r *lockedRecorder) WriteHeader(int)     {}
func (r *lockedRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.Write(p)
}
func (r *lockedRecorder) String() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buf.String()
}

func TestServeCampaignStream_WaitsForDocument(t *testing.T) {
	id := primitive.NewObjectID()
	store := &memCampaigns{}
	stream := &chanStream{events: make(chan struct{})}
	var watched primitive.ObjectID
	sm := newSessionManager(t)
	h := &campaigns.Handler{
		Campaigns: store,
		Watch: func(got primitive.ObjectID) realtime.Watcher {
			watched = got
			return func(context.Context) (realtime.Stream, error) { return stream, nil }
		},
		Log: zap.NewNop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	req := testutil.WithUser(httptest.NewRequest("GET", "/"+id.Hex()+"/stream", nil).WithContext(ctx), testutil.AdminUser())
	rec := &lockedRecorder{header: http.Header{}}

	done := make(chan struct{})
	go func() {
		campaigns.Routes(h, sm).ServeHTTP(rec, req)
		close(done)
	}()

	// The missing document produces no event; the next change does.
	deadline := time.Now().Add(2 * time.Second)
	for store.readCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for the initial read")
		}
		time.Sleep(5 * time.Millisecond)
	}
	store.set(models.Campaign{ID: id, CampaignName: "spring"})
	stream.events <- struct{}{}

	deadline = time.Now().Add(2 * time.Second)
	for !strings.Contains(rec.String(), `"campaign_name":"spring"`) {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for campaign event in %q", rec.String())
		}
		time.Sleep(5 * time.Millisecond)
	}
	if n := strings.Count(rec.String(), "event: campaign"); n != 1 {
		t.Errorf("events = %d, want 1", n)
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after the client went away")
	}
	if watched != id {
		t.Errorf("watched %s, want %s", watched.Hex(), id.Hex())
	}
}
