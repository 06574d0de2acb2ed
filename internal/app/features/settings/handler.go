// internal/app/features/settings/handler.go
package settings

import (
	"context"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Accounts is the self-service API. *account.Service satisfies it.
type Accounts interface {
	ChangeUsername(ctx context.Context, id primitive.ObjectID, username string) error
	RequestEmailChange(ctx context.Context, id primitive.ObjectID, newEmail, currentPassword string) error
	CompleteEmailUpdate(ctx context.Context, token string) (models.User, error)
	VerifyCurrentEmail(ctx context.Context, token string) (models.User, error)
	ChangePassword(ctx context.Context, id primitive.ObjectID, current, next string) error
}

// Handler owns the account settings endpoints.
type Handler struct {
	Accounts   Accounts
	SessionMgr *auth.SessionManager
	Log        *zap.Logger
}

// NewHandler constructs a settings Handler.
func NewHandler(accounts Accounts, sessionMgr *auth.SessionManager, logger *zap.Logger) *Handler {
	return &Handler{
		Accounts:   accounts,
		SessionMgr: sessionMgr,
		Log:        logger,
	}
}

type messageResponse struct {
	Message string `json:"message"`
}

// currentUserID returns the signed-in user's id, answering 401 when absent.
func currentUserID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	oid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return primitive.NilObjectID, false
	}
	return oid, true
}

// fail writes err as the user-facing message with its mapped status.
func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	status := account.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		h.Log.Error("account update failed", zap.String("op", op), zap.Error(err))
	}
	respond.Error(w, status, account.Message(err))
}
