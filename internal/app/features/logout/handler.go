// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/auditlog"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"go.uber.org/zap"
)

type Handler struct {
	Log        *zap.Logger
	SessionMgr *auth.SessionManager
	AuditLog   *auditlog.Logger
}

func NewHandler(sessionMgr *auth.SessionManager, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		Log:        logger,
		SessionMgr: sessionMgr,
		AuditLog:   audit,
	}
}

// ServeLogout handles POST /logout. It always answers 204, even without a
// session, so clients can call it unconditionally.
func (h *Handler) ServeLogout(w http.ResponseWriter, r *http.Request) {
	if u, ok := auth.CurrentUser(r); ok {
		h.AuditLog.SignedOut(r.Context(), u.Username)
	}
	if err := h.SessionMgr.SignOut(w, r); err != nil {
		h.Log.Error("logout: save session", zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}
