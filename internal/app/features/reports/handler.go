// internal/app/features/reports/handler.go
package reports

import (
	"errors"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"go.uber.org/zap"
)

// DefaultPageSize is the number of rows per aggregate page.
const DefaultPageSize = 5

// Handler owns the report endpoints.
//
// It follows the same pattern as other features: a thin struct wrapping the
// report builder and logger, constructed once at startup in bootstrap and
// passed into Routes().
type Handler struct {
	Builder *reports.Builder
	Log     *zap.Logger
}

// NewHandler constructs a reports Handler.
func NewHandler(builder *reports.Builder, logger *zap.Logger) *Handler {
	return &Handler{
		Builder: builder,
		Log:     logger,
	}
}

// fail maps report errors to responses: validation errors are the caller's
// fault, anything else is logged.
func (h *Handler) fail(w http.ResponseWriter, report string, err error) {
	switch {
	case errors.Is(err, reports.ErrUnknownCollection),
		errors.Is(err, reports.ErrUnknownField),
		errors.Is(err, reports.ErrUnknownMetric),
		errors.Is(err, reports.ErrInvalidWindow),
		errors.Is(err, reports.ErrUnknownOrder):
		respond.Error(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error("report failed", zap.String("report", report), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "report failed")
	}
}
