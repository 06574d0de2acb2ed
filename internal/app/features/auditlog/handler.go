// internal/app/features/auditlog/handler.go
package auditlog

import (
	"context"
	"time"

	"github.com/dalemusser/couponhub/internal/app/store/audit"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/domain/models"
	"go.uber.org/zap"
)

// Entries reads the audit collection. *audit.Store satisfies it.
type Entries interface {
	Query(ctx context.Context, filter audit.QueryFilter) ([]models.AuditEntry, error)
	CountByFilter(ctx context.Context, filter audit.QueryFilter) (int64, error)
	Latest(ctx context.Context, limit int64) ([]models.AuditEntry, error)
}

type Handler struct {
	Entries    Entries
	Watch      realtime.Watcher
	SessionMgr *auth.SessionManager
	FeedLimit  int64
	KeepAlive  time.Duration
	Log        *zap.Logger
}

// NewHandler constructs the audit feature over store. feedLimit caps each
// streamed snapshot; 0 streams the whole log.
func NewHandler(store *audit.Store, sessionMgr *auth.SessionManager, feedLimit int64, logger *zap.Logger) *Handler {
	return &Handler{
		Entries:    store,
		Watch:      realtime.FromChangeStream(store.Watch),
		SessionMgr: sessionMgr,
		FeedLimit:  feedLimit,
		Log:        logger,
	}
}

func (h *Handler) subscribe(ctx context.Context, feed string) (*realtime.Subscription[[]models.AuditEntry], error) {
	return realtime.Subscribe(ctx, feed, h.Watch, func(ctx context.Context) ([]models.AuditEntry, error) {
		entries, err := h.Entries.Latest(ctx, h.FeedLimit)
		if entries == nil && err == nil {
			entries = []models.AuditEntry{}
		}
		return entries, err
	}, h.Log)
}
