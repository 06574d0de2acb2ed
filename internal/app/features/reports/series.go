package reports

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

type seriesResponse struct {
	Series string               `json:"series"`
	Year   int                  `json:"year"`
	Months []reports.MonthCount `json:"months"`
}

type seriesFunc func(b *reports.Builder, ctx context.Context, year int) ([]reports.MonthCount, error)

var monthSeries = map[string]seriesFunc{
	"active-campaigns": (*reports.Builder).ActiveCampaignsByMonth,
	"redemptions":      (*reports.Builder).MonthlyRedemptions,
	"issuance":         (*reports.Builder).MonthlyIssuance,
}

// ServeMonthSeries handles GET /api/reports/series/{name}?year=. The year
// defaults to the current one in the builder's location.
func (h *Handler) ServeMonthSeries(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn, ok := monthSeries[name]
	if !ok {
		respond.Error(w, http.StatusNotFound, "unknown series")
		return
	}
	year := time.Now().In(h.Builder.Location()).Year()
	if s := r.URL.Query().Get("year"); s != "" {
		y, err := strconv.Atoi(s)
		if err != nil || y < 1970 || y > 9999 {
			respond.Error(w, http.StatusBadRequest, "year must be a four digit number")
			return
		}
		year = y
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "series "+name)
	defer cancel()

	months, err := fn(h.Builder, ctx, year)
	if err != nil {
		h.fail(w, name, err)
		return
	}
	respond.JSON(w, http.StatusOK, seriesResponse{Series: name, Year: year, Months: months})
}

type countsResponse struct {
	Rows []reports.Row `json:"rows"`
}

// ServeOrganizationUsers handles GET /api/reports/organizations/users.
func (h *Handler) ServeOrganizationUsers(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "organization users")
	defer cancel()

	res, err := h.Builder.OrganizationUserCounts(ctx)
	if err != nil {
		h.fail(w, "organization_users", err)
		return
	}
	respond.JSON(w, http.StatusOK, countsResponse{Rows: reports.Sorted(res, reports.OrderDescending)})
}

// ServeCouponHolders handles GET /api/reports/coupons/holders. With
// redeemed=true only holders of redeemed items are counted.
func (h *Handler) ServeCouponHolders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "coupon holders")
	defer cancel()

	redeemed, _ := strconv.ParseBool(r.URL.Query().Get("redeemed"))
	var (
		res reports.Result
		err error
	)
	if redeemed {
		res, err = h.Builder.CouponRedeemedHolderCounts(ctx)
	} else {
		res, err = h.Builder.CouponHolderCounts(ctx)
	}
	if err != nil {
		h.fail(w, "coupon_holders", err)
		return
	}
	respond.JSON(w, http.StatusOK, countsResponse{Rows: reports.Sorted(res, reports.OrderDescending)})
}
