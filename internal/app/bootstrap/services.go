// internal/app/bootstrap/services.go
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	analyticsstore "github.com/dalemusser/couponhub/internal/app/store/analytics"
	"github.com/dalemusser/couponhub/internal/app/store/audit"
	campaignstore "github.com/dalemusser/couponhub/internal/app/store/campaigns"
	"github.com/dalemusser/couponhub/internal/app/store/emailverify"
	notificationstore "github.com/dalemusser/couponhub/internal/app/store/notifications"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	"github.com/dalemusser/couponhub/internal/app/system/account"
	"github.com/dalemusser/couponhub/internal/app/system/auditlog"
	"github.com/dalemusser/couponhub/internal/app/system/avatars"
	"github.com/dalemusser/couponhub/internal/app/system/mailer"
	"github.com/dalemusser/couponhub/internal/app/system/ratelimit"
	"github.com/dalemusser/couponhub/internal/app/system/reports"
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// services are the long-lived components shared by the feature handlers.
type services struct {
	Users         *userstore.Store
	Audit         *audit.Store
	AuditLog      *auditlog.Logger
	Analytics     *analyticsstore.Store
	Campaigns     *campaignstore.Store
	Notifications *notificationstore.Store
	Reports       *reports.Builder
	Accounts      *account.Service
	Limiter       *ratelimit.SignInLimiter
}

func newAvatarStore(ctx context.Context, appCfg AppConfig) (*avatars.Pictures, error) {
	var (
		store storage.Store
		err   error
	)
	if appCfg.AvatarStorage == "s3" {
		store, err = storage.NewS3(ctx, storage.S3Config{
			Region: appCfg.AvatarS3Region,
			Bucket: appCfg.AvatarS3Bucket,
		})
	} else {
		store, err = storage.NewLocal(storage.LocalConfig{
			BasePath: appCfg.AvatarLocalPath,
			BaseURL:  strings.TrimRight(appCfg.AvatarLocalURL, "/"),
		})
	}
	if err != nil {
		return nil, err
	}
	return avatars.New(store, appCfg.AvatarURLTTL), nil
}

func buildServices(ctx context.Context, appCfg AppConfig, db *mongo.Database, logger *zap.Logger) (*services, error) {
	loc, err := time.LoadLocation(appCfg.ReportsTimezone)
	if err != nil {
		return nil, fmt.Errorf("reports timezone: %w", err)
	}
	pics, err := newAvatarStore(ctx, appCfg)
	if err != nil {
		return nil, fmt.Errorf("avatar storage: %w", err)
	}

	s := &services{
		Users:         userstore.New(db),
		Audit:         audit.New(db),
		Analytics:     analyticsstore.New(db),
		Campaigns:     campaignstore.New(db),
		Notifications: notificationstore.New(db),
		Limiter:       ratelimit.NewSignInLimiter(appCfg.LoginRateLimit, appCfg.LoginRateWindow),
	}
	s.AuditLog = auditlog.New(s.Audit, logger, appCfg.AuditLogMode)
	s.Reports = reports.NewBuilder(reports.NewMongoSource(db), reports.Options{
		MaxConcurrency: appCfg.ReportsMaxConcurrency,
		ReadsPerSecond: appCfg.ReportsReadsPerSecond,
		Location:       loc,
	}, logger)

	mail := mailer.New(mailer.Config{
		Host:     appCfg.MailSMTPHost,
		Port:     appCfg.MailSMTPPort,
		User:     appCfg.MailSMTPUser,
		Pass:     appCfg.MailSMTPPass,
		From:     appCfg.MailFrom,
		FromName: appCfg.MailFromName,
	}, logger)
	s.Accounts = account.NewService(
		s.Users,
		emailverify.New(db, appCfg.EmailChangeExpiry),
		mail,
		pics,
		s.AuditLog,
		account.Config{SiteName: appCfg.MailFromName, BaseURL: appCfg.BaseURL},
		logger,
	)
	return s, nil
}
