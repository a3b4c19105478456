package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-coins-api/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-coins-api/internal/middleware"
	"github.com/noah-isme/sma-coins-api/internal/models"
	"github.com/noah-isme/sma-coins-api/pkg/config"
	"github.com/noah-isme/sma-coins-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-coins-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-coins-api/pkg/middleware/requestid"
)

// Handlers groups every HTTP handler mounted by the router.
type Handlers struct {
	Health         *handler.HealthHandler
	Periods        *handler.PeriodHandler
	Records        *handler.DailyRecordHandler
	Balances       *handler.BalanceHandler
	Overrides      *handler.OverrideHandler
	Adjustments    *handler.AdjustmentHandler
	Requests       *handler.RequestHandler
	Reconciliation *handler.ReconciliationHandler
	Configuration  *handler.ConfigurationHandler
	Analytics      *handler.AnalyticsHandler
	Exports        *handler.ExportHandler
	Audit          *handler.AuditHandler
}

// Deps carries the cross-cutting middleware collaborators.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Tokens      internalmiddleware.TokenValidator
	Metrics     internalmiddleware.HTTPObserver
	Throttle    *internalmiddleware.RateLimiter
	AuditWriter internalmiddleware.AuditWriter
}

// New builds the gin engine with every route registered.
func New(deps Deps, h Handlers) *gin.Engine {
	cfg := deps.Config
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.Logger))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(deps.Metrics))

	r.GET("/health", h.Health.Health)
	r.GET("/ready", h.Health.Ready)
	r.GET("/metrics", h.Health.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(deps.Tokens))

	admin := internalmiddleware.RequireAdmin()
	selfOrAdmin := internalmiddleware.RequireSelfOrAdmin()
	student := internalmiddleware.RequireRoles(models.RoleStudent, models.RoleAdmin, models.RoleSuperAdmin)

	periods := api.Group("/periods", admin)
	periods.GET("", h.Periods.List)
	periods.POST("", h.Periods.Create)
	periods.GET("/:key", h.Periods.Get)
	periods.PUT("/:key", h.Periods.Update)

	students := api.Group("/students/:studentId")
	students.GET("/progress", selfOrAdmin, h.Balances.Progress)
	students.GET("/balance", selfOrAdmin, h.Balances.Balance)
	students.PUT("/periods/:period/sections/:section/records", admin, h.Records.Replace)
	students.GET("/periods/:period/sections/:section/records", admin, h.Records.List)
	students.GET("/records/:date", admin, h.Records.ByDate)
	students.GET("/overrides", admin, h.Overrides.List)
	students.PUT("/overrides", admin, h.Overrides.Upsert)
	students.DELETE("/overrides/:day", admin, h.Overrides.Delete)
	students.GET("/adjustments", admin, h.Adjustments.List)
	students.POST("/adjustments", admin, h.Adjustments.Create)
	students.POST("/requests/magic-approve", admin, h.Requests.MagicApprove)

	api.POST("/adjustments/:id/deactivate", admin, h.Adjustments.Deactivate)

	requests := api.Group("/requests")
	submit := []gin.HandlerFunc{student}
	if deps.Throttle != nil {
		submit = append(submit, deps.Throttle.Middleware())
	}
	requests.POST("", append(submit, h.Requests.Submit)...)
	requests.GET("", student, h.Requests.List)
	requests.GET("/:id", student, h.Requests.Get)
	requests.POST("/:id/process", admin, h.Requests.Process)

	reconciliation := api.Group("/reconciliation", admin)
	reconciliation.GET("", h.Reconciliation.Report)
	reconciliation.POST("/repair", h.Reconciliation.Repair)

	api.GET("/audit/:resource/:id", admin, h.Audit.Trail)

	configuration := api.Group("/configuration", admin)
	configuration.GET("/flags", h.Configuration.List)
	configuration.PUT("/flags/:key", h.Configuration.Update)

	if cfg.Analytics.Enabled {
		analytics := api.Group("/analytics", admin)
		analytics.GET("/periods/:period/sections/:section", h.Analytics.PeriodSummary)
		analytics.GET("/leaderboard", h.Analytics.Leaderboard)
		analytics.GET("/system", h.Analytics.System)
	}

	if cfg.Exports.Enabled {
		exports := api.Group("/exports", admin)
		exports.GET("/balances", internalmiddleware.Audit(deps.AuditWriter, models.AuditActionExport, "export"), h.Exports.Balances)
	}

	return r
}
