// internal/app/features/settings/routes.go
package settings

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes serves /api/account. Confirmation links are public because the
// token is the credential; everything else needs a signed-in admin.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Get("/email/confirm", h.HandleEmailConfirm)
	r.Get("/email/verify", h.HandleEmailVerify)

	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireRole("admin"))
		pr.Post("/username", h.HandleUsername)
		pr.Post("/email", h.HandleEmailRequest)
		pr.Post("/password", h.HandlePassword)
		pr.Get("/audit-alerts", h.ServeAuditAlerts)
		pr.Put("/audit-alerts", h.HandleAuditAlerts)
	})
	return r
}
