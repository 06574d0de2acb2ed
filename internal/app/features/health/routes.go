package health

import "github.com/go-chi/chi/v5"

// Routes serves the health check at the mount point.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Serve)
	return r
}
