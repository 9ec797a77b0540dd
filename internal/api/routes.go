package api

import (
	"github.com/ajharbinger/policy-fund-matcher/internal/auth"
	"github.com/ajharbinger/policy-fund-matcher/internal/cache"
	"github.com/ajharbinger/policy-fund-matcher/internal/database"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes wires services and registers every route. db may be nil, in
// which case only the stateless matching and catalog routes are served.
func SetupRoutes(r *gin.Engine, db *database.DB, results cache.ResultCache, cfg *config.Config, log logger.Logger) *services.Services {
	var (
		svc     *services.Services
		checker HealthChecker
		pinger  Pinger
	)
	if db != nil {
		svc = services.NewServices(db.DB, cfg, log, results)
		checker = db
	} else {
		svc = services.NewServicesWithRepositories(nil, cfg, log, results)
	}
	if p, ok := results.(Pinger); ok {
		pinger = p
	}

	RegisterRoutes(r, svc, cfg, NewHealthHandler(checker, pinger, svc.Catalog), db != nil)
	return svc
}

// RegisterRoutes registers handlers over already wired services
func RegisterRoutes(r *gin.Engine, svc *services.Services, cfg *config.Config, health *HealthHandler, persistent bool) {
	catalogHandler := NewCatalogHandler(svc.Catalog)
	matchHandler := NewMatchHandler(svc.Matching, svc.Reports)

	r.GET("/health", health.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")

	// Anonymous access is allowed; a bearer token attributes runs to its user
	open := v1.Group("")
	open.Use(auth.OptionalJWTMiddleware(cfg.JWTSecret))
	{
		open.GET("/funds", catalogHandler.ListFunds)
		open.GET("/funds/:id", catalogHandler.GetFund)
		open.POST("/match", matchHandler.Match)
		open.POST("/track", matchHandler.Track)
	}

	if !persistent {
		return
	}

	authHandler := NewAuthHandler(svc.Auth)
	companyHandler := NewCompanyHandler(svc.Company, svc.Matching)

	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/refresh", authHandler.RefreshToken)

	protected := v1.Group("")
	protected.Use(auth.JWTMiddleware(cfg.JWTSecret))
	{
		protected.GET("/auth/me", authHandler.Me)

		protected.GET("/runs/:id", matchHandler.GetRun)
		protected.GET("/runs/:id/export", matchHandler.ExportRun)

		protected.GET("/companies", companyHandler.List)
		protected.POST("/companies", companyHandler.Create)
		protected.GET("/companies/:id", companyHandler.Get)
		protected.PUT("/companies/:id", companyHandler.Update)
		protected.DELETE("/companies/:id", companyHandler.Delete)
		protected.POST("/companies/:id/match", companyHandler.Match)
		protected.GET("/companies/:id/runs", companyHandler.Runs)

		protected.GET("/catalog/versions", catalogHandler.Versions)
	}

	admin := protected.Group("")
	admin.Use(auth.RequireRole(string(models.RoleAdmin)))
	{
		admin.POST("/catalog", catalogHandler.Publish)
		admin.PUT("/catalog/:version/activate", catalogHandler.Activate)
		admin.POST("/admin/users", authHandler.CreateUser)
	}
}
