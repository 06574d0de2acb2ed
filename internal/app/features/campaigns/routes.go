// internal/app/features/campaigns/routes.go
package campaigns

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole("admin"))
	r.Get("/{id}", h.ServeCampaign)
	r.Get("/{id}/stream", h.ServeCampaignStream)
	return r
}
