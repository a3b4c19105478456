package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-coins-api/api/swagger"
	"github.com/noah-isme/sma-coins-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-coins-api/internal/middleware"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/internal/repository"
	"github.com/noah-isme/sma-coins-api/internal/router"
	"github.com/noah-isme/sma-coins-api/internal/service"
	"github.com/noah-isme/sma-coins-api/pkg/cache"
	"github.com/noah-isme/sma-coins-api/pkg/config"
	"github.com/noah-isme/sma-coins-api/pkg/database"
	"github.com/noah-isme/sma-coins-api/pkg/jobs"
	"github.com/noah-isme/sma-coins-api/pkg/logger"
)

// @title Progress Coins API
// @version 1.0.0
// @description Derives student progress and coin balances and runs the redemption workflow.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, analytics cache disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	validate := validator.New()
	metrics := service.NewMetricsService()

	requestRepo := repository.NewRequestRepository(db)
	overrideRepo := repository.NewOverrideRepository(db)
	adjustmentRepo := repository.NewAdjustmentRepository(db)
	recordRepo := repository.NewDailyRecordRepository(db)
	periodRepo := repository.NewPeriodRepository(db)
	reconciliationRepo := repository.NewReconciliationRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	audit := service.NewAuditDispatcher(auditRepo, jobs.Config{Workers: 2, MaxRetries: 3}, logr)
	audit.Start(context.Background())
	defer audit.Stop()
	configurationRepo := repository.NewConfigurationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Analytics.CacheTTL, logr, redisClient != nil)

	progressSvc := service.NewProgressService(recordRepo, overrideRepo, logr)
	adjustmentSvc := service.NewAdjustmentService(adjustmentRepo, audit, cacheSvc, validate, logr)
	balanceSvc := service.NewBalanceService(progressSvc, adjustmentSvc, metrics, logr)
	overrideSvc := service.NewOverrideService(overrideRepo, audit, cacheSvc, validate, logr)
	periodSvc := service.NewPeriodService(periodRepo, db, audit, validate, logr)
	recordSvc := service.NewDailyRecordService(recordRepo, periodRepo, db, audit, cacheSvc, validate, logr)
	requestSvc := service.NewRequestService(
		requestRepo,
		adjustmentRepo,
		overrideRepo,
		recordRepo,
		balanceSvc,
		db,
		audit,
		cacheSvc,
		metrics,
		validate,
		logr,
		service.RequestServiceConfig{
			AssignmentCost:  cfg.Redemption.AssignmentCost,
			QuizCost:        cfg.Redemption.QuizCost,
			MagicMinMinutes: cfg.MagicApprove.MinMinutes,
			MagicToken:      cfg.MagicApprove.Token,
		},
	)
	reconciliationSvc := service.NewReconciliationService(reconciliationRepo, db, audit, cacheSvc, logr)
	configurationSvc := service.NewConfigurationService(configurationRepo, audit, logr, service.ConfigurationServiceConfig{
		Defaults: models.FeatureFlags{
			OverridesEnabled:  cfg.Features.OverridesEnabled,
			RedemptionEnabled: cfg.Features.RedemptionEnabled,
		},
	})
	analyticsSvc := service.NewAnalyticsService(recordRepo, progressSvc, balanceSvc, cacheSvc, metrics, logr)
	exportSvc := service.NewExportService(recordRepo, progressSvc, balanceSvc, logr)
	authSvc := service.NewAuthService(service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})

	checks := map[string]handler.Pinger{"database": db}
	if redisClient != nil {
		checks["redis"] = handler.PingFunc(cacheRepo.Ping)
	}

	engine := router.New(router.Deps{
		Config:      cfg,
		Logger:      logr,
		Tokens:      authSvc,
		Metrics:     metrics,
		Throttle:    internalmiddleware.NewRateLimiter(cfg.RateLimit.SubmissionsPerMinute, metrics),
		AuditWriter: audit,
	}, router.Handlers{
		Health:         handler.NewHealthHandler(metrics, checks),
		Periods:        handler.NewPeriodHandler(periodSvc),
		Records:        handler.NewDailyRecordHandler(recordSvc),
		Balances:       handler.NewBalanceHandler(progressSvc, balanceSvc),
		Overrides:      handler.NewOverrideHandler(overrideSvc),
		Adjustments:    handler.NewAdjustmentHandler(adjustmentSvc),
		Requests:       handler.NewRequestHandler(requestSvc, configurationSvc),
		Reconciliation: handler.NewReconciliationHandler(reconciliationSvc),
		Configuration:  handler.NewConfigurationHandler(configurationSvc),
		Analytics:      handler.NewAnalyticsHandler(analyticsSvc),
		Exports:        handler.NewExportHandler(exportSvc),
		Audit:          handler.NewAuditHandler(auditRepo),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
