// internal/app/features/auditlog/list.go
package auditlog

import (
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/couponhub/internal/app/store/audit"
	"github.com/dalemusser/couponhub/internal/app/system/paging"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.uber.org/zap"
)

type listResponse struct {
	Entries []models.AuditEntry `json:"entries"`
	Total   int64               `json:"total"`
	Page    int                 `json:"page"`
	Pages   int64               `json:"pages"`
}

// ServeList handles GET /api/audit with optional user, action, start_date,
// end_date (YYYY-MM-DD) and page filters.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Medium(), h.Log, "audit log list")
	defer cancel()

	q := r.URL.Query()
	page := paging.ParsePage(r)

	filter := audit.QueryFilter{
		User:   strings.TrimSpace(q.Get("user")),
		Action: strings.TrimSpace(q.Get("action")),
		Limit:  paging.PageSize,
		Offset: paging.Offset(page, paging.PageSize),
	}
	if s := strings.TrimSpace(q.Get("start_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD")
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("end_date")); s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			respond.Error(w, http.StatusBadRequest, "end_date must be YYYY-MM-DD")
			return
		}
		// End of day
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &endOfDay
	}

	entries, err := h.Entries.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit entries", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "A database error occurred.")
		return
	}
	total, err := h.Entries.CountByFilter(ctx, filter)
	if err != nil {
		h.Log.Error("failed to count audit entries", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "A database error occurred.")
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}

	respond.JSON(w, http.StatusOK, listResponse{
		Entries: entries,
		Total:   total,
		Page:    page,
		Pages:   paging.Pages(total, paging.PageSize),
	})
}
