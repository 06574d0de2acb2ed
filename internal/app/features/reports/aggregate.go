package reports

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/couponhub/internal/app/system/paging"
	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
)

type catalogResponse struct {
	Datasets  []reports.Dataset `json:"datasets"`
	TopLevel  []string          `json:"top_level"`
	PageSize  int               `json:"page_size"`
	SortOrder []reports.Order   `json:"sort_orders"`
}

// ServeCatalog handles GET /api/reports/catalog.
func (h *Handler) ServeCatalog(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, catalogResponse{
		Datasets:  reports.Catalog,
		TopLevel:  reports.TopLevelCollections,
		PageSize:  DefaultPageSize,
		SortOrder: []reports.Order{reports.OrderNone, reports.OrderAscending, reports.OrderDescending},
	})
}

type aggregateResponse struct {
	Collection string        `json:"collection"`
	Field      string        `json:"field"`
	Metric     string        `json:"metric,omitempty"`
	Order      reports.Order `json:"order"`
	Rows       []reports.Row `json:"rows"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Pages      int           `json:"pages"`
}

// parseQuery reads collection, field, metric and, for date buckets, time=1
// with start and end (YYYY-MM-DD in loc, both inclusive).
func parseQuery(r *http.Request, loc *time.Location) (reports.Query, error) {
	v := r.URL.Query()
	ds, err := reports.LookupDataset(v.Get("collection"))
	if err != nil {
		return reports.Query{}, err
	}
	q := reports.Query{
		Collection: ds.Collection,
		Field:      strings.TrimSpace(v.Get("field")),
	}
	if on, _ := strconv.ParseBool(v.Get("time")); on {
		q.TimeField = true
		start, err1 := time.ParseInLocation("2006-01-02", v.Get("start"), loc)
		end, err2 := time.ParseInLocation("2006-01-02", v.Get("end"), loc)
		if err1 != nil || err2 != nil {
			return reports.Query{}, reports.ErrInvalidWindow
		}
		q.Start = start
		q.End = end.AddDate(0, 0, 1).Add(-time.Nanosecond)
		return q, nil
	}
	q.Metric, err = ds.ParseMetric(v.Get("metric"))
	if err != nil {
		return reports.Query{}, err
	}
	return q, nil
}

func (h *Handler) aggregate(w http.ResponseWriter, r *http.Request) (reports.Query, []reports.Row, reports.Order, bool) {
	q, err := parseQuery(r, h.Builder.Location())
	if err != nil {
		h.fail(w, "aggregate", err)
		return q, nil, "", false
	}
	order, err := reports.ParseOrder(r.URL.Query().Get("order"))
	if err != nil {
		h.fail(w, "aggregate", err)
		return q, nil, "", false
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Report(), h.Log, "aggregate report")
	defer cancel()

	res, err := h.Builder.Aggregate(ctx, q)
	if err != nil {
		h.fail(w, "aggregate", err)
		return q, nil, "", false
	}
	return q, reports.Sorted(res, order), order, true
}

// ServeAggregate handles GET /api/reports/aggregate. Rows are sorted by
// order (none, ascending, descending) and paged by page and page_size.
func (h *Handler) ServeAggregate(w http.ResponseWriter, r *http.Request) {
	q, rows, order, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	page := paging.ParsePage(r)
	pageRows, pages := reports.Page(rows, page, paging.ParseSize(r, DefaultPageSize))

	respond.JSON(w, http.StatusOK, aggregateResponse{
		Collection: string(q.Collection),
		Field:      q.Field,
		Metric:     string(q.Metric),
		Order:      order,
		Rows:       pageRows,
		Total:      len(rows),
		Page:       page,
		Pages:      pages,
	})
}
