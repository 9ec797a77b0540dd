package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/metrics"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"golang.org/x/sync/errgroup"
)

// MatchPipeline periodically re-matches stored companies whose last run is stale
type MatchPipeline struct {
	companies repository.CompanyRepository
	matcher   MatchingService
	log       logger.Logger
	now       func() time.Time

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewMatchPipeline creates a batch pipeline over the given services
func NewMatchPipeline(companies repository.CompanyRepository, matcher MatchingService, log logger.Logger) *MatchPipeline {
	if log == nil {
		log = logger.NewNop()
	}
	return &MatchPipeline{
		companies: companies,
		matcher:   matcher,
		log:       log.With("component", "match_pipeline"),
		now:       time.Now,
	}
}

// PipelineConfig contains configuration for the match pipeline
type PipelineConfig struct {
	PageSize        int              `json:"page_size"`        // companies fetched per cycle
	IntervalMinutes int              `json:"interval_minutes"` // minutes between cycles
	MaxConcurrent   int              `json:"max_concurrent"`   // concurrent engine runs
	RematchAfter    time.Duration    `json:"rematch_after"`    // staleness threshold for a previous run
	Options         matching.Options `json:"options"`
}

// PipelineConfigFrom builds a pipeline config from the batch settings
func PipelineConfigFrom(cfg config.BatchConfig) PipelineConfig {
	pc := DefaultPipelineConfig()
	if cfg.PageSize > 0 {
		pc.PageSize = cfg.PageSize
	}
	if cfg.IntervalMinutes > 0 {
		pc.IntervalMinutes = cfg.IntervalMinutes
	}
	if cfg.MaxConcurrent > 0 {
		pc.MaxConcurrent = cfg.MaxConcurrent
	}
	return pc
}

// DefaultPipelineConfig returns the defaults used when settings are absent
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		PageSize:        200,
		IntervalMinutes: 60,
		MaxConcurrent:   8,
		RematchAfter:    24 * time.Hour,
	}
}

// Start runs a cycle immediately and then every IntervalMinutes until Stop
func (p *MatchPipeline) Start(cfg PipelineConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isRunning {
		return fmt.Errorf("pipeline is already running")
	}
	if cfg.IntervalMinutes <= 0 {
		return fmt.Errorf("interval must be positive, got %d minutes", cfg.IntervalMinutes)
	}

	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})
	p.isRunning = true

	go p.loop(ctx, cfg, p.done)

	p.log.Info("Match pipeline started",
		"page_size", cfg.PageSize,
		"interval_minutes", cfg.IntervalMinutes,
		"max_concurrent", cfg.MaxConcurrent,
	)
	return nil
}

// Stop cancels the running cycle and waits for it to return
func (p *MatchPipeline) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.isRunning {
		return fmt.Errorf("pipeline is not running")
	}

	p.cancel()
	<-p.done
	p.isRunning = false

	p.log.Info("Match pipeline stopped")
	return nil
}

// IsRunning returns whether the pipeline loop is active
func (p *MatchPipeline) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.isRunning
}

// RunOnce executes a single cycle
func (p *MatchPipeline) RunOnce(ctx context.Context, cfg PipelineConfig) (*PipelineStats, error) {
	return p.cycle(ctx, cfg)
}

func (p *MatchPipeline) loop(ctx context.Context, cfg PipelineConfig, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(time.Duration(cfg.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		if stats, err := p.cycle(ctx, cfg); err != nil {
			p.log.Error("Match cycle failed", err)
		} else {
			p.log.Info("Match cycle completed", "summary", stats.Summary())
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (p *MatchPipeline) cycle(ctx context.Context, cfg PipelineConfig) (*PipelineStats, error) {
	stats := &PipelineStats{StartTime: p.now(), PageSize: cfg.PageSize}
	defer func() {
		stats.EndTime = p.now()
		stats.Duration = stats.EndTime.Sub(stats.StartTime)
	}()

	due, err := p.companies.GetDueForMatching(repository.DueCriteria{
		MatchedBefore: p.now().Add(-cfg.RematchAfter),
		Limit:         cfg.PageSize,
	})
	if err != nil {
		return stats, fmt.Errorf("failed to load companies due for matching: %w", err)
	}
	stats.CompaniesFound = len(due)
	if len(due) == 0 {
		p.log.Debug("No companies need matching")
		return stats, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	limit := cfg.MaxConcurrent
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)

	for i := range due {
		company := due[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			err := p.matchOne(gctx, &company, cfg.Options)

			mu.Lock()
			defer mu.Unlock()
			stats.CompaniesProcessed++
			if err != nil {
				stats.CompaniesFailed++
				metrics.BatchCompanies.WithLabelValues(metrics.OutcomeError).Inc()
				p.log.Warn("Failed to match company", "company_id", company.ID, "error", err)
				return nil
			}
			stats.CompaniesSucceeded++
			metrics.BatchCompanies.WithLabelValues(metrics.OutcomeSuccess).Inc()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (p *MatchPipeline) matchOne(ctx context.Context, company *models.Company, opts matching.Options) error {
	_, err := p.matcher.Match(ctx, MatchRequest{
		Profile:   company.Profile.CompanyProfile(),
		Options:   opts,
		CompanyID: &company.ID,
	})
	return err
}

// PipelineStats summarizes one cycle
type PipelineStats struct {
	StartTime          time.Time     `json:"start_time"`
	EndTime            time.Time     `json:"end_time"`
	Duration           time.Duration `json:"duration"`
	PageSize           int           `json:"page_size"`
	CompaniesFound     int           `json:"companies_found"`
	CompaniesProcessed int           `json:"companies_processed"`
	CompaniesSucceeded int           `json:"companies_succeeded"`
	CompaniesFailed    int           `json:"companies_failed"`
}

func (s *PipelineStats) Summary() string {
	return fmt.Sprintf("found=%d, processed=%d, succeeded=%d, failed=%d, duration=%v",
		s.CompaniesFound, s.CompaniesProcessed, s.CompaniesSucceeded, s.CompaniesFailed, s.Duration.Round(time.Millisecond))
}
