// internal/app/features/profile/handler.go
package profile

import (
	"context"
	"io"

	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Profiles reads and updates the signed-in user's profile. *account.Service
// satisfies it.
type Profiles interface {
	UserData(ctx context.Context, id primitive.ObjectID) (models.User, error)
	ProfilePictureURL(ctx context.Context, userID string) string
	UploadProfilePicture(ctx context.Context, userID primitive.ObjectID, r io.Reader) (string, error)
}

type Handler struct {
	Profiles Profiles
	Log      *zap.Logger
}

func NewHandler(profiles Profiles, logger *zap.Logger) *Handler {
	return &Handler{
		Profiles: profiles,
		Log:      logger,
	}
}
