package settings

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/couponhub/internal/domain/models"
)

type usernameRequest struct {
	Username string `json:"username"`
}

// HandleUsername handles POST /api/account/username.
func (h *Handler) HandleUsername(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req usernameRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Accounts.ChangeUsername(ctx, uid, req.Username); err != nil {
		h.fail(w, "username", err)
		return
	}
	respond.JSON(w, http.StatusOK, messageResponse{Message: "Username updated successfully!"})
}

type emailRequest struct {
	NewEmail        string `json:"new_email"`
	CurrentPassword string `json:"current_password"`
}

// HandleEmailRequest handles POST /api/account/email. The change is applied
// only once the link sent to the new address is opened.
func (h *Handler) HandleEmailRequest(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req emailRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	err := h.Accounts.RequestEmailChange(ctx, uid, req.NewEmail, req.CurrentPassword)
	switch {
	case err == nil:
		respond.JSON(w, http.StatusAccepted, messageResponse{
			Message: "Verification email sent to the new address. Please verify it to complete the update.",
		})
	case errors.Is(err, account.ErrCurrentEmailUnverified):
		// A verification link for the current address went out.
		respond.Error(w, http.StatusConflict, account.Message(err))
	default:
		h.fail(w, "email request", err)
	}
}

type emailResponse struct {
	Message string      `json:"message"`
	User    models.User `json:"user"`
}

// HandleEmailConfirm handles GET /api/account/email/confirm?token=. The
// token alone authorizes the change.
func (h *Handler) HandleEmailConfirm(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Accounts.CompleteEmailUpdate(ctx, r.URL.Query().Get("token"))
	if err != nil {
		h.fail(w, "email confirm", err)
		return
	}
	respond.JSON(w, http.StatusOK, emailResponse{Message: "Email updated successfully!", User: u})
}

// HandleEmailVerify handles GET /api/account/email/verify?token=.
func (h *Handler) HandleEmailVerify(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	u, err := h.Accounts.VerifyCurrentEmail(ctx, r.URL.Query().Get("token"))
	if err != nil {
		h.fail(w, "email verify", err)
		return
	}
	respond.JSON(w, http.StatusOK, emailResponse{Message: "Email verified.", User: u})
}

type passwordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// HandlePassword handles POST /api/account/password.
func (h *Handler) HandlePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := currentUserID(w, r)
	if !ok {
		return
	}
	var req passwordRequest
	if err := respond.DecodeJSON(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.Accounts.ChangePassword(ctx, uid, req.CurrentPassword, req.NewPassword); err != nil {
		h.fail(w, "password", err)
		return
	}
	respond.JSON(w, http.StatusOK, messageResponse{Message: "Password updated successfully!"})
}
