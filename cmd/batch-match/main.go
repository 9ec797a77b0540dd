package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ajharbinger/policy-fund-matcher/internal/cache"
	"github.com/ajharbinger/policy-fund-matcher/internal/database"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/internal/services"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/joho/godotenv"
)

func main() {
	once := flag.Bool("once", false, "run a single matching cycle and exit")
	rematchAfter := flag.Duration("rematch-after", 0, "re-match companies whose last run is older than this (default 24h)")
	flag.Parse()

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
	log = log.With("component", "batch-match")

	if !cfg.HasDatabase() {
		log.Fatal("DATABASE_URL is required for batch matching", nil)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	var results cache.ResultCache
	if cfg.HasCache() {
		redisCache, err := cache.NewRedis(cfg.RedisURL, cfg.CacheTTL)
		if err != nil {
			log.Fatal("Invalid REDIS_URL", err)
		}
		defer redisCache.Close()
		results = redisCache
	}

	repos := repository.NewRepositories(db.DB)
	svc := services.NewServicesWithRepositories(repos, cfg, log, results)
	pipeline := services.NewMatchPipeline(repos.Company, svc.Matching, log)

	pipelineConfig := services.PipelineConfigFrom(cfg.Batch)
	if *rematchAfter > 0 {
		pipelineConfig.RematchAfter = *rematchAfter
	}

	log.Info("Pipeline configured",
		"page_size", pipelineConfig.PageSize,
		"interval_minutes", pipelineConfig.IntervalMinutes,
		"max_concurrent", pipelineConfig.MaxConcurrent,
		"rematch_after", pipelineConfig.RematchAfter.String(),
	)

	if *once {
		stats, err := pipeline.RunOnce(context.Background(), pipelineConfig)
		if err != nil {
			log.Fatal("One-time matching cycle failed", err)
		}
		fmt.Println(stats.Summary())
		return
	}

	if err := pipeline.Start(pipelineConfig); err != nil {
		log.Fatal("Failed to start pipeline", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received, stopping pipeline")
	if err := pipeline.Stop(); err != nil {
		log.Error("Error stopping pipeline", err)
	}
}
