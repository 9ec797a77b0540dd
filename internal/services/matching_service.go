package services

import (
	"context"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/cache"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/matching"
	"github.com/ajharbinger/policy-fund-matcher/internal/metrics"
	"github.com/ajharbinger/policy-fund-matcher/internal/models"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/ajharbinger/policy-fund-matcher/internal/repository"
	"github.com/ajharbinger/policy-fund-matcher/pkg/config"
	"github.com/google/uuid"
)

// MatchRequest is one engine invocation
type MatchRequest struct {
	Profile     profile.CompanyProfile `json:"profile"`
	Options     matching.Options       `json:"options"`
	CompanyID   *uuid.UUID             `json:"-"`
	RequestedBy *uuid.UUID             `json:"-"`
}

// MatchResponse carries a result and the run it was stored as
type MatchResponse struct {
	RunID  uuid.UUID             `json:"run_id"`
	Result *matching.MatchResult `json:"result"`
	Cached bool                  `json:"cached"`
}

type matchingServiceImpl struct {
	repos    *repository.Repositories
	catalogs CatalogService
	engine   *matching.Engine
	results  cache.ResultCache
	defaults config.MatchingConfig
	log      logger.Logger
	now      func() time.Time
}

func newMatchingService(repos *repository.Repositories, catalogs CatalogService, engine *matching.Engine,
	results cache.ResultCache, defaults config.MatchingConfig, log logger.Logger) *matchingServiceImpl {
	return &matchingServiceImpl{
		repos:    repos,
		catalogs: catalogs,
		engine:   engine,
		results:  results,
		defaults: defaults,
		log:      log,
		now:      time.Now,
	}
}

// resolveOptions fills request options from configured defaults. AsOf defaults
// to the start of the current UTC day so cached results stay valid within a day.
func (s *matchingServiceImpl) resolveOptions(opts matching.Options) matching.Options {
	if opts.TopN == 0 {
		opts.TopN = s.defaults.TopN
	}
	if opts.MinScore == nil {
		opts.MinScore = matching.ScoreFloor(s.defaults.MinScore)
	}
	if !opts.StrictPurpose {
		opts.StrictPurpose = s.defaults.StrictPurpose
	}
	if opts.AsOf.IsZero() {
		opts.AsOf = s.now().UTC().Truncate(24 * time.Hour)
	}
	return opts.WithDefaults()
}

// Match runs the engine, serving identical inputs from the result cache, and stores the run
func (s *matchingServiceImpl) Match(ctx context.Context, req MatchRequest) (*MatchResponse, error) {
	start := time.Now()
	defer func() { metrics.MatchDuration.Observe(time.Since(start).Seconds()) }()

	if req.Options.TopN < 0 || req.Options.Floor() < 0 {
		metrics.MatchRuns.WithLabelValues(metrics.OutcomeInvalid).Inc()
		return nil, apperrors.InvalidInput("top_n and min_score must not be negative", nil)
	}

	cat, err := s.catalogs.Active()
	if err != nil {
		metrics.MatchRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}
	opts := s.resolveOptions(req.Options)

	key, err := cache.Key(req.Profile, cat.Version, opts)
	if err != nil {
		return nil, apperrors.InternalError("failed to derive cache key", err)
	}

	res, cached := s.lookup(ctx, key)
	if !cached {
		res, err = s.engine.Match(req.Profile, cat, opts)
		if err != nil {
			outcome := metrics.OutcomeError
			if apperrors.Is(err, apperrors.ErrCodeInvalidInput) {
				outcome = metrics.OutcomeInvalid
			}
			metrics.MatchRuns.WithLabelValues(outcome).Inc()
			return nil, err
		}
		if err := s.results.Set(ctx, key, res); err != nil {
			s.log.Warn("Failed to cache match result", "error", err)
		}
		recordPlacements(res)
	}

	run := models.NewMatchRun(req.CompanyID, req.RequestedBy, opts, res)
	if err := s.store(run); err != nil {
		metrics.MatchRuns.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, err
	}

	metrics.MatchRuns.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.log.Info("Match run completed",
		"run_id", run.ID,
		"catalog_version", res.CatalogVersion,
		"matched", run.MatchedCount,
		"conditional", run.ConditionalCount,
		"excluded", run.ExcludedCount,
		"cached", cached,
	)
	return &MatchResponse{RunID: run.ID, Result: res, Cached: cached}, nil
}

func (s *matchingServiceImpl) lookup(ctx context.Context, key string) (*matching.MatchResult, bool) {
	res, ok, err := s.results.Get(ctx, key)
	if err != nil {
		s.log.Warn("Result cache lookup failed", "error", err)
		return nil, false
	}
	if ok {
		metrics.CacheLookups.WithLabelValues(metrics.OutcomeHit).Inc()
		return res, true
	}
	metrics.CacheLookups.WithLabelValues(metrics.OutcomeMiss).Inc()
	return nil, false
}

func (s *matchingServiceImpl) store(run *models.MatchRun) error {
	if s.repos == nil || s.repos.Tx == nil {
		return nil
	}
	return s.repos.Tx.WithTransaction(func(tx *repository.Repositories) error {
		if err := tx.MatchRun.Create(run); err != nil {
			return err
		}
		if run.CompanyID != nil {
			return tx.Company.MarkMatched(*run.CompanyID, run.CreatedAt)
		}
		return nil
	})
}

func recordPlacements(res *matching.MatchResult) {
	metrics.FundPlacements.WithLabelValues("matched", "").Add(float64(len(res.Matched)))
	metrics.FundPlacements.WithLabelValues("conditional", "").Add(float64(len(res.Conditional)))
	for _, x := range res.Excluded {
		metrics.FundPlacements.WithLabelValues("excluded", string(x.Category)).Inc()
	}
	metrics.CatalogDefects.Add(float64(len(res.Skipped)))
}

// MatchCompany matches a stored company's profile
func (s *matchingServiceImpl) MatchCompany(ctx context.Context, companyID string, opts matching.Options, requestedBy *uuid.UUID) (*MatchResponse, error) {
	if s.repos == nil {
		return nil, errNoStore
	}
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid company ID", err)
	}
	company, err := s.repos.Company.GetByID(id)
	if err != nil {
		return nil, err
	}
	return s.Match(ctx, MatchRequest{
		Profile:     company.Profile.CompanyProfile(),
		Options:     opts,
		CompanyID:   &company.ID,
		RequestedBy: requestedBy,
	})
}

// Track returns the track decision alone
func (s *matchingServiceImpl) Track(p profile.CompanyProfile) (*matching.TrackDecision, error) {
	d, err := s.engine.Track(p)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// GetRun loads a stored run
func (s *matchingServiceImpl) GetRun(id string) (*models.MatchRun, error) {
	if s.repos == nil {
		return nil, errNoStore
	}
	runID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid run ID", err)
	}
	return s.repos.MatchRun.GetByID(runID)
}

// ListRuns lists a company's runs, newest first
func (s *matchingServiceImpl) ListRuns(companyID string, limit int) ([]models.MatchRun, error) {
	if s.repos == nil {
		return nil, errNoStore
	}
	id, err := uuid.Parse(companyID)
	if err != nil {
		return nil, apperrors.InvalidInput("invalid company ID", err)
	}
	return s.repos.MatchRun.ListByCompany(id, limit)
}
