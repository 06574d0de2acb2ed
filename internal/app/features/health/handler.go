// Package health reports database reachability and whether the realtime
// feeds can run.
package health

import (
	"context"
	"net/http"

	"github.com/dalemusser/couponhub/internal/app/system/respond"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

type Handler struct {
	Client *mongo.Client
	Log    *zap.Logger
}

func NewHandler(client *mongo.Client, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Log:    logger,
	}
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	// ChangeStreams is false on a standalone server, where the audit,
	// receiver and campaign streams cannot open.
	ChangeStreams bool   `json:"change_streams"`
	ReplicaSet    string `json:"replica_set,omitempty"`
	Message       string `json:"message,omitempty"`
}

// Serve handles GET /health. It answers 503 when MongoDB does not respond
// and 200 otherwise, reporting change stream support either way.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		respond.JSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:   "error",
			Database: "disconnected",
			Message:  "Database unavailable",
		})
		return
	}

	resp := healthResponse{Status: "ok", Database: "connected"}
	var hello struct {
		SetName string `bson:"setName"`
	}
	err := h.Client.Database("admin").RunCommand(ctx, bson.D{{Key: "hello", Value: 1}}).Decode(&hello)
	switch {
	case err != nil:
		h.Log.Warn("health-check: hello failed", zap.Error(err))
	case hello.SetName != "":
		resp.ChangeStreams = true
		resp.ReplicaSet = hello.SetName
	default:
		resp.Message = "standalone server: realtime feeds unavailable"
	}
	respond.JSON(w, http.StatusOK, resp)
}
