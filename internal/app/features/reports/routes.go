// internal/app/features/reports/routes.go
package reports

import (
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	r.Group(func(rr chi.Router) {
		rr.Use(sm.RequireRole("admin"))
		rr.Get("/catalog", h.ServeCatalog)
		rr.Get("/aggregate", h.ServeAggregate)
		rr.Get("/aggregate.csv", h.ServeAggregateCSV)
		rr.Get("/series/{name}", h.ServeMonthSeries)
		rr.Get("/organizations/users", h.ServeOrganizationUsers)
		rr.Get("/coupons/holders", h.ServeCouponHolders)
	})

	return r
}
