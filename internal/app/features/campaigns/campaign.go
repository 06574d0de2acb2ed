package campaigns

import (
	"context"
	"errors"
	"net/http"

	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/sse"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func campaignID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

// ServeCampaign handles GET /api/campaigns/{id}.
func (h *Handler) ServeCampaign(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		respond.Error(w, http.StatusNotFound, "campaign not found")
		return
	}

	ctx, cancel := timeouts.WithTimeout(r.Context(), timeouts.Short(), h.Log, "get campaign")
	defer cancel()

	c, err := h.Campaigns.GetByID(ctx, id)
	if errors.Is(err, campaignstore.ErrNotFound) {
		respond.Error(w, http.StatusNotFound, "campaign not found")
		return
	}
	if err != nil {
		h.Log.Error("get campaign", zap.String("id", id.Hex()), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load campaign")
		return
	}
	respond.JSON(w, http.StatusOK, c)
}

// ServeCampaignStream handles GET /api/campaigns/{id}/stream. Each change to
// the document sends it as a "campaign" event. While the document does not
// exist nothing is sent and the stream stays open.
func (h *Handler) ServeCampaignStream(w http.ResponseWriter, r *http.Request) {
	id, ok := campaignID(r)
	if !ok {
		respond.Error(w, http.StatusNotFound, "campaign not found")
		return
	}

	load := func(ctx context.Context) (*models.Campaign, error) {
		c, err := h.Campaigns.GetByID(ctx, id)
		if errors.Is(err, campaignstore.ErrNotFound) {
			h.Log.Info("campaign not found", zap.String("id", id.Hex()))
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &c, nil
	}
	sub, err := realtime.Subscribe(r.Context(), "campaign", h.Watch(id), load, h.Log)
	if err != nil {
		h.Log.Error("campaign subscribe", zap.String("id", id.Hex()), zap.Error(err))
		http.Error(w, "campaign feed unavailable", http.StatusServiceUnavailable)
		return
	}
	out, err := sse.NewStream(w, r)
	if err != nil {
		_ = sub.Close()
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	emit := func(c *models.Campaign) []any {
		if c == nil {
			return nil
		}
		return []any{c}
	}
	if err := sse.Pump(r.Context(), out, sub, "campaign", h.KeepAlive, emit); err != nil {
		h.Log.Warn("campaign stream ended", zap.String("id", id.Hex()), zap.Error(err))
	}
}
