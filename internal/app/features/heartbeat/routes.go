package heartbeat

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the heartbeat. Only admins can hold a session, so the
// signed-in check is enough.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.With(sm.RequireSignedIn).Post("/", h.ServeHeartbeat)
	return r
}
