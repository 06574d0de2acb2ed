package dashboard

import (
	"context"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/sse"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// ServeReceivers handles GET /api/dashboard/receivers.
func (h *Handler) ServeReceivers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "receiver totals")
	defer cancel()

	mom, err := h.Totals.ReceiverTotals(ctx, h.Now())
	if err != nil {
		h.Log.Error("receiver totals", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to compute receiver totals")
		return
	}
	respond.JSON(w, http.StatusOK, mom)
}

// ServeReceiversStream handles GET /api/dashboard/receivers/stream. Totals
// are recomputed on every change to the notifications collection.
func (h *Handler) ServeReceiversStream(w http.ResponseWriter, r *http.Request) {
	sub, err := realtime.Subscribe(r.Context(), "receiver_totals", h.Notifications,
		func(ctx context.Context) (reports.MonthOverMonth, error) {
			ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Report(), h.Log, "receiver totals")
			defer cancel()
			return h.Totals.ReceiverTotals(ctx, h.Now())
		}, h.Log)
	if err != nil {
		h.Log.Error("receiver totals subscribe", zap.Error(err))
		http.Error(w, "receiver feed unavailable", http.StatusServiceUnavailable)
		return
	}
	out, err := sse.NewStream(w, r)
	if err != nil {
		_ = sub.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if err := sse.Pump(r.Context(), out, sub, "receivers", h.KeepAlive, nil); err != nil {
		h.Log.Warn("receiver stream ended", zap.Error(err))
	}
}

// ServeActiveUsers handles GET /api/dashboard/active-users.
func (h *Handler) ServeActiveUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "active users")
	defer cancel()

	au, err := h.Totals.ActiveUsers(ctx, h.Now())
	if err != nil {
		h.Log.Error("active users", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to compute active users")
		return
	}
	respond.JSON(w, http.StatusOK, au)
}
