// internal/app/features/heartbeat/handler.go
package heartbeat

import (
	"context"
	"net/http"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Recorder stores activity pings. *analytics.Store satisfies it.
type Recorder interface {
	Touch(ctx context.Context, userID string, at time.Time) error
}

// Handler records dashboard activity for the active-user window.
type Handler struct {
	Activity Recorder
	Log      *zap.Logger
	now      func() time.Time
}

// NewHandler creates a new heartbeat handler.
func NewHandler(activity Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Activity: activity,
		Log:      logger,
		now:      time.Now,
	}
}

// ServeHeartbeat handles POST /api/heartbeat.
// It always answers 204; a failed write is only logged.
func (h *Handler) ServeHeartbeat(w http.ResponseWriter, r *http.Request) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Activity.Touch(ctx, u.ID, h.now().UTC()); err != nil {
		h.Log.Warn("failed to record activity",
			zap.Error(err),
			zap.String("user_id", u.ID))
	}
	w.WriteHeader(http.StatusNoContent)
}
