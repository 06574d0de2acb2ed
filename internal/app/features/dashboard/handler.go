// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"time"

	notificationstore "github.com/dalemusser/couponhub/internal/app/store/notifications"
	"github.com/dalemusser/couponhub/internal/app/system/realtime"
	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"go.uber.org/zap"
)

// Totals computes the dashboard cards. *reports.Builder satisfies it.
type Totals interface {
	ReceiverTotals(ctx context.Context, now time.Time) (reports.MonthOverMonth, error)
	ActiveUsers(ctx context.Context, now time.Time) (reports.ActiveUsers, error)
}

type Handler struct {
	Totals Totals
	// Notifications fires on every change to the notifications collection.
	Notifications realtime.Watcher
	Now           func() time.Time
	KeepAlive     time.Duration
	Log           *zap.Logger
}

func NewHandler(totals Totals, store *notificationstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Totals:        totals,
		Notifications: realtime.FromChangeStream(store.Watch),
		Now:           time.Now,
		Log:           logger,
	}
}
