package auditlog

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/sse"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.uber.org/zap"
)

// ServeStream handles GET /api/audit/stream. Every change to the audit
// collection sends the newest entries as one "audit" event.
func (h *Handler) ServeStream(w http.ResponseWriter, r *http.Request) {
	sub, err := h.subscribe(r.Context(), "audit")
	if err != nil {
		h.Log.Error("audit feed subscribe", zap.Error(err))
		http.Error(w, "audit feed unavailable", http.StatusServiceUnavailable)
		return
	}
	out, err := sse.NewStream(w, r)
	if err != nil {
		_ = sub.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := sse.Pump(r.Context(), out, sub, "audit", h.KeepAlive, nil); err != nil {
		h.Log.Warn("audit stream ended", zap.Error(err))
	}
}

// alert is the toast shown when a newer audit entry arrives.
type alert struct {
	Message string            `json:"message"`
	Entry   models.AuditEntry `json:"entry"`
}

// alertTracker remembers the newest entry time already announced.
type alertTracker struct {
	last time.Time
	seen bool
}

// next returns an alert when the newest entry in entries is later than any
// announced before. The first non-empty snapshot always announces.
func (a *alertTracker) next(entries []models.AuditEntry) []any {
	if len(entries) == 0 {
		return nil
	}
	newest := entries[0]
	if a.seen && !newest.Time.After(a.last) {
		return nil
	}
	a.seen = true
	a.last = newest.Time
	return []any{alert{
		Message: fmt.Sprintf("Audit log updated: %s %s", newest.Action, newest.Object),
		Entry:   newest,
	}}
}

// ServeAlerts handles GET /api/audit/alerts. The feed is attached once per
// connection, and only when the session has audit alerts enabled; otherwise
// it answers 204 so EventSource clients stop reconnecting.
func (h *Handler) ServeAlerts(w http.ResponseWriter, r *http.Request) {
	if !h.SessionMgr.AuditAlertsEnabled(r) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	sub, err := h.subscribe(r.Context(), "audit_alerts")
	if err != nil {
		h.Log.Error("audit alerts subscribe", zap.Error(err))
		http.Error(w, "audit feed unavailable", http.StatusServiceUnavailable)
		return
	}
	out, err := sse.NewStream(w, r)
	if err != nil {
		_ = sub.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	tracker := &alertTracker{}
	if err := sse.Pump(r.Context(), out, sub, "alert", h.KeepAlive, tracker.next); err != nil {
		h.Log.Warn("audit alerts ended", zap.Error(err))
	}
}
