// internal/app/features/login/handler.go
package login

import (
	"context"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/ratelimit"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.uber.org/zap"
)

// Authenticator checks admin credentials. *account.Service satisfies it.
type Authenticator interface {
	SignIn(ctx context.Context, email, password string) (models.User, error)
}

type Handler struct {
	Accounts   Authenticator
	SessionMgr *auth.SessionManager
	Limiter    *ratelimit.SignInLimiter
	Log        *zap.Logger
}

func NewHandler(accounts Authenticator, sessionMgr *auth.SessionManager, limiter *ratelimit.SignInLimiter, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		Limiter:    limiter,
		Log:        logger,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	User auth.SessionUser `json:"user"`
}

// HandleLoginPost handles POST /login.
//
// 200 with the signed-in user and a session cookie; 400 for a malformed
// body; 401 for unknown users or bad credentials; 403 for non-admins; 429
// when throttled.
func (h *Handler) HandleLoginPost(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if h.Limiter != nil {
		if ok, reason := h.Limiter.Check(r, req.Email); !ok {
			h.Log.Info("sign-in throttled", zap.String("ip", ratelimit.ClientIP(r)))
			respond.Error(w, http.StatusTooManyRequests, reason)
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Accounts.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		h.writeSignInError(w, err)
		return
	}

	if err := h.SessionMgr.SignIn(w, r, u.ID.Hex()); err != nil {
		h.Log.Error("save session", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, account.UnknownMessage)
		return
	}
	if h.Limiter != nil {
		h.Limiter.Succeeded(req.Email)
	}

	h.Log.Info("admin signed in", zap.String("user_id", u.ID.Hex()))
	respond.JSON(w, http.StatusOK, loginResponse{User: auth.SessionUser{
		ID:            u.ID.Hex(),
		Username:      u.Username,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
		Role:          u.Role,
		Organization:  u.Organization,
	}})
}

func (h *Handler) writeSignInError(w http.ResponseWriter, err error) {
	status := account.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("sign-in failed", zap.Error(err))
	}
	respond.Error(w, status, account.Message(err))
}
