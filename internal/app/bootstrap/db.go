// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"
	"time"

	analyticsstore "github.com/dalemusser/couponhub/internal/app/store/analytics"
	"github.com/dalemusser/couponhub/internal/app/store/audit"
	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	couponstore "github.com/dalemusser/couponhub/internal/app/store/coupons"
	"github.com/dalemusser/couponhub/internal/app/store/emailverify"
	inventorystore "github.com/dalemusser/couponhub/internal/app/store/inventory"
	notificationstore "github.com/dalemusser/couponhub/internal/app/store/notifications"
	organizationstore "github.com/dalemusser/couponhub/internal/app/store/organizations"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

const connectTimeout = 10 * time.Second

// ConnectDB opens the MongoDB client and verifies it with a ping.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase),
		zap.Uint64("max_pool", appCfg.MongoMaxPoolSize))

	return DBDeps{
		CouponHubMongoClient:   client,
		CouponHubMongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

type indexer interface {
	EnsureIndexes(ctx context.Context) error
}

// EnsureSchema creates the indexes every store relies on.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.CouponHubMongoDatabase
	stores := []struct {
		name string
		idx  indexer
	}{
		{"analytics", analyticsstore.New(db)},
		{"audit", audit.New(db)},
		{"campaign", campaignstore.New(db)},
		{"coupons", couponstore.New(db)},
		{"email_changes", emailverify.New(db, appCfg.EmailChangeExpiry)},
		{"inventory", inventorystore.New(db)},
		{"notifications", notificationstore.New(db)},
		{"organizations", organizationstore.New(db)},
		{"users", userstore.New(db)},
	}
	for _, s := range stores {
		if err := s.idx.EnsureIndexes(ctx); err != nil {
			logger.Error("ensure indexes failed", zap.String("collection", s.name), zap.Error(err))
			return fmt.Errorf("ensure %s indexes: %w", s.name, err)
		}
	}
	logger.Info("indexes ensured", zap.Int("collections", len(stores)))
	return nil
}
