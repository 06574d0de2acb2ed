// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/limits"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// profileResponse is the signed-in user as the dashboard header shows it.
type profileResponse struct {
	models.User
	ProfilePictureURL string `json:"profile_picture_url"`
}

func userID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
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

// ServeProfile handles GET /api/me.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	u, err := h.Profiles.UserData(ctx, uid)
	if err != nil {
		if errors.Is(err, account.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return
		}
		h.Log.Error("load profile", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, account.UnknownMessage)
		return
	}

	respond.JSON(w, http.StatusOK, profileResponse{
		User:              u,
		ProfilePictureURL: h.Profiles.ProfilePictureURL(ctx, uid.Hex()),
	})
}

type avatarResponse struct {
	URL string `json:"url"`
}

// HandleAvatarUpload handles POST /api/me/avatar. It accepts a multipart
// form with a "file" part or a raw image body.
func (h *Handler) HandleAvatarUpload(w http.ResponseWriter, r *http.Request) {
	uid, ok := userID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxAvatarUpload)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			respond.Error(w, http.StatusBadRequest, `expected an image in the "file" field`)
			return
		}
		defer file.Close()
		src = file
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	url, err := h.Profiles.UploadProfilePicture(ctx, uid, src)
	if err != nil {
		status := account.HTTPStatus(err)
		if status == http.StatusInternalServerError {
			h.Log.Error("upload profile picture", zap.Error(err))
		}
		respond.Error(w, status, account.Message(err))
		return
	}
	respond.JSON(w, http.StatusOK, avatarResponse{URL: url})
}
