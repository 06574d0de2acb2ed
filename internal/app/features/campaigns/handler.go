// internal/app/features/campaigns/handler.go
package campaigns

import (
	"context"
	"time"

	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Campaigns reads single campaigns. *campaignstore.Store satisfies it.
type Campaigns interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Campaign, error)
}

type Handler struct {
	Campaigns Campaigns
	// Watch opens a change stream for one campaign document.
	Watch     func(id primitive.ObjectID) realtime.Watcher
	KeepAlive time.Duration
	Log       *zap.Logger
}

func NewHandler(store *campaignstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Campaigns: store,
		Watch: func(id primitive.ObjectID) realtime.Watcher {
			return realtime.FromChangeStream(func(ctx context.Context) (*mongo.ChangeStream, error) {
				return store.WatchByID(ctx, id)
			})
		},
		Log: logger,
	}
}
