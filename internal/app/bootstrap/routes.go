// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	auditlogfeature "github.com/dalemusser/couponhub/internal/app/features/auditlog"
	campaignsfeature "github.com/dalemusser/couponhub/internal/app/features/campaigns"
	dashboardfeature "github.com/dalemusser/couponhub/internal/app/features/dashboard"
	healthfeature "github.com/dalemusser/couponhub/internal/app/features/health"
	heartbeatfeature "github.com/dalemusser/couponhub/internal/app/features/heartbeat"
	loginfeature "github.com/dalemusser/couponhub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/couponhub/internal/app/features/logout"
	profilefeature "github.com/dalemusser/couponhub/internal/app/features/profile"
	reportsfeature "github.com/dalemusser/couponhub/internal/app/features/reports"
	settingsfeature "github.com/dalemusser/couponhub/internal/app/features/settings"
	userstore "github.com/dalemusser/couponhub/internal/app/store/users"
	"github.com/dalemusser/couponhub/internal/app/system/auth"
	"github.com/dalemusser/couponhub/internal/app/system/metrics"
	"github.com/dalemusser/couponhub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. CouponHub builds its shared services
// once here, applies session middleware, and mounts the JSON and SSE feature
// routers under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	sessionMgr, err := auth.NewSessionManager(appCfg.SessionKey, appCfg.SessionName, appCfg.SessionDomain, appCfg.SessionMaxAge, secure, logger)
	if err != nil {
		logger.Error("session manager init failed", zap.Error(err))
		return nil, err
	}

	// LoadSessionUser refreshes the user on each request so role changes and
	// deleted accounts take effect immediately.
	sessionMgr.SetUserFetcher(userstore.NewFetcher(deps.CouponHubMongoDatabase))

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
	defer cancel()
	svc, err := buildServices(ctx, appCfg, deps.CouponHubMongoDatabase, logger)
	if err != nil {
		logger.Error("service init failed", zap.Error(err))
		return nil, err
	}

	return newRouter(appCfg, deps, sessionMgr, svc, logger), nil
}

func newRouter(appCfg AppConfig, deps DBDeps, sessionMgr *auth.SessionManager, svc *services, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(sessionMgr.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.CouponHubMongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Prometheus scrape endpoint
	r.Handle("/metrics", metrics.Handler())

	// Locally stored profile pictures
	if appCfg.AvatarStorage == "local" && appCfg.AvatarLocalURL != "" {
		prefix := appCfg.AvatarLocalURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(appCfg.AvatarLocalPath))))
	}

	r.Route("/api", func(api chi.Router) {
		// Authentication
		loginHandler := loginfeature.NewHandler(svc.Accounts, sessionMgr, svc.Limiter, logger)
		api.Mount("/login", loginfeature.Routes(loginHandler))

		logoutHandler := logoutfeature.NewHandler(sessionMgr, svc.AuditLog, logger)
		api.Mount("/logout", logoutfeature.Routes(logoutHandler))

		heartbeatHandler := heartbeatfeature.NewHandler(svc.Analytics, logger)
		api.Mount("/heartbeat", heartbeatfeature.Routes(heartbeatHandler, sessionMgr))

		// Account self-service
		settingsHandler := settingsfeature.NewHandler(svc.Accounts, sessionMgr, logger)
		api.Mount("/account", settingsfeature.Routes(settingsHandler, sessionMgr))

		profileHandler := profilefeature.NewHandler(svc.Accounts, logger)
		api.Mount("/profile", profilefeature.Routes(profileHandler, sessionMgr))

		// Reports and dashboard cards
		reportsHandler := reportsfeature.NewHandler(svc.Reports, logger)
		api.Mount("/reports", reportsfeature.Routes(reportsHandler, sessionMgr))

		dashboardHandler := dashboardfeature.NewHandler(svc.Reports, svc.Notifications, logger)
		api.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler, sessionMgr))

		campaignsHandler := campaignsfeature.NewHandler(svc.Campaigns, logger)
		api.Mount("/campaigns", campaignsfeature.Routes(campaignsHandler, sessionMgr))

		// Audit feed
		auditHandler := auditlogfeature.NewHandler(svc.Audit, sessionMgr, appCfg.AuditFeedLimit, logger)
		api.Mount("/audit", auditlogfeature.Routes(auditHandler, sessionMgr))
	})

	return r
}
