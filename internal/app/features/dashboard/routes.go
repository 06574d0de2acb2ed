// internal/app/features/dashboard/routes.go
package dashboard

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole("admin"))
	r.Get("/receivers", h.ServeReceivers)
	r.Get("/receivers/stream", h.ServeReceiversStream)
	r.Get("/active-users", h.ServeActiveUsers)
	return r
}
