// internal/app/features/reports/aggregatecsv.go
package reports

import (
	"encoding/csv"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// ServeAggregateCSV handles GET /api/reports/aggregate.csv and streams every
// row of the aggregate, unpaged, with the same parameters as ServeAggregate.
func (h *Handler) ServeAggregateCSV(w http.ResponseWriter, r *http.Request) {
	q, rows, _, ok := h.aggregate(w, r)
	if !ok {
		return
	}

	filename := fmt.Sprintf("%s_%s_%s.csv", q.Collection, q.Field, time.Now().UTC().Format("20060102"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, url.PathEscape(filename)))

	// UTF-8 BOM for Excel
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		h.Log.Error("CSV write failed (BOM)", zap.Error(err))
		return
	}

	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	defer cw.Flush()

	valueHeader := string(q.Metric)
	if q.TimeField {
		valueHeader = "count"
	}
	if err := cw.Write([]string{q.Field, valueHeader}); err != nil {
		h.Log.Error("CSV write failed (header)", zap.Error(err))
		return
	}
	for _, row := range rows {
		if err := cw.Write([]string{row.Key, strconv.FormatFloat(row.Value, 'f', -1, 64)}); err != nil {
			h.Log.Error("CSV write failed (row)", zap.Error(err))
			return
		}
	}
}
