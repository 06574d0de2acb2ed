// internal/app/features/profile/routes.go
package profile

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()
	r.Use(sm.RequireRole("admin"))
	r.Get("/", h.ServeProfile)
	r.Post("/avatar", h.HandleAvatarUpload)
	return r
}
