package settings

import (
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"go.uber.org/zap"
)

type alertsPayload struct {
	Enabled *bool `json:"enabled"`
}

type alertsResponse struct {
	Enabled bool `json:"enabled"`
}

// ServeAuditAlerts handles GET /api/account/audit-alerts.
func (h *Handler) ServeAuditAlerts(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, alertsResponse{Enabled: h.SessionMgr.AuditAlertsEnabled(r)})
}

// HandleAuditAlerts handles PUT /api/account/audit-alerts. The preference
// lives in the session and resets on the next sign-in.
func (h *Handler) HandleAuditAlerts(w http.ResponseWriter, r *http.Request) {
	var req alertsPayload
	if err := respond.DecodeJSON(r, &req); err != nil || req.Enabled == nil {
		respond.Error(w, http.StatusBadRequest, `body must be {"enabled": true|false}`)
		return
	}
	if err := h.SessionMgr.SetAuditAlerts(w, r, *req.Enabled); err != nil {
		h.Log.Error("save audit alert preference", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "could not save preference")
		return
	}
	respond.JSON(w, http.StatusOK, alertsResponse{Enabled: *req.Enabled})
}
