package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/api"
	"github.com/ajharbinger/policy-fund-matcher/internal/cache"
	"github.com/ajharbinger/policy-fund-matcher/internal/database"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/middleware"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg, err := config.New()
	if err != nil {
		stdlog.Fatal("Invalid configuration: ", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		stdlog.Fatal("Failed to build logger: ", err)
	}
	defer syncLogger(log)

	var db *database.DB
	if cfg.HasDatabase() {
		db, err = database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatal("Failed to connect to database", err)
		}
		defer db.Close()

		if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
			log.Fatal("Failed to run migrations", err)
		}
		if version, dirty, err := database.MigrationVersion(cfg.DatabaseURL); err == nil {
			log.Info("Database schema ready", "version", version, "dirty", dirty)
		}
	} else {
		log.Warn("DATABASE_URL not set; serving stateless matching against the seed catalog")
	}

	var results cache.ResultCache = cache.Nop{}
	if cfg.HasCache() {
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL", err)
		}
		defer redisCache.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisCache.Ping(ctx); err != nil {
			log.Warn("Result cache unreachable; continuing without it until it recovers", "error", err)
		}
		cancel()
		results = redisCache
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(log.With("component", "http")))
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.SecurityHeadersMiddleware(cfg.IsSecurityEnabled()))
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))
	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware())
	}

	api.SetupRoutes(r, db, results, cfg, log)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "environment", cfg.Environment, "persistent", db != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Graceful shutdown failed", err)
	}
}

func syncLogger(log logger.Logger) {
	if s, ok := log.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
