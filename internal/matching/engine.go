package matching

import (
	"fmt"
	"sort"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// Engine runs matching over an in-memory catalog. It holds no per-run state
// and is safe for concurrent use.
type Engine struct {
	log   logger.Logger
	extra []Evaluator
}

// EngineOption configures an Engine
type EngineOption func(*Engine)

// WithEvaluators adds evaluators to the default set
func WithEvaluators(evs ...Evaluator) EngineOption {
	return func(e *Engine) {
		e.extra = append(e.extra, evs...)
	}
}

// NewEngine creates a matching engine
func NewEngine(log logger.Logger, opts ...EngineOption) *Engine {
	if log == nil {
		log = logger.NewNop()
	}
	e := &Engine{log: log}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Match normalizes p and matches it against cat
func (e *Engine) Match(p profile.CompanyProfile, cat *catalog.Catalog, opts Options) (*MatchResult, error) {
	n, err := profile.Normalize(p)
	if err != nil {
		return nil, apperrors.InvalidInput("company profile could not be normalized", err).WithOperation("Match")
	}
	return e.MatchNormalized(n, cat, opts)
}

// Track returns only the track decision for p
func (e *Engine) Track(p profile.CompanyProfile) (TrackDecision, error) {
	n, err := profile.Normalize(p)
	if err != nil {
		return TrackDecision{}, apperrors.InvalidInput("company profile could not be normalized", err).WithOperation("Track")
	}
	return DecideTrack(n), nil
}

// MatchNormalized matches an already normalized profile
func (e *Engine) MatchNormalized(n *profile.Normalized, cat *catalog.Catalog, opts Options) (*MatchResult, error) {
	if n == nil {
		return nil, apperrors.InvalidInput("normalized profile is required", nil).WithOperation("MatchNormalized")
	}
	if cat == nil {
		return nil, apperrors.InvalidCatalog("catalog is required", nil).WithOperation("MatchNormalized")
	}
	if opts.TopN < 0 || opts.Floor() < 0 {
		return nil, apperrors.InvalidInput("top_n and min_score must not be negative", nil).
			WithDetails(fmt.Sprintf("top_n=%d min_score=%d", opts.TopN, opts.Floor()))
	}
	opts = opts.WithDefaults()

	track := DecideTrack(n)
	funds, defects := cat.ValidFunds()
	for _, d := range defects {
		e.log.Warn("skipping invalid catalog record",
			"fund_id", d.FundID,
			"institution_id", d.InstitutionID,
			"reason", d.Reason,
			"catalog_version", cat.Version,
		)
	}

	pipeline := NewPipeline(append(DefaultEvaluators(opts.AsOf), e.extra...)...)

	var candidates []candidate
	conditional := []ConditionalFund{}
	var excluded []indexedExclusion

	for i := range funds {
		f := &funds[i]

		if opts.StrictPurpose && !purposeApplicable(n, f) {
			excluded = append(excluded, indexedExclusion{index: i, fund: excludedFund(f, CategoryPurposeNotApplicable,
				"funding_purpose", fmt.Sprintf("신청 용도(%s) 미지원", describePurposes(n.Purposes)), "")})
			continue
		}

		elig := EvaluateEligibility(n, f)
		card := NewScoreCard(elig)
		if elig.State != StateExcluded {
			card = pipeline.Run(card, n, f)
		}

		pl := classify(track, f, i, card, ScaleFit(n, f), opts.Floor())
		switch pl.bucket {
		case bucketCandidate:
			candidates = append(candidates, pl.candidate)
		case bucketConditional:
			conditional = append(conditional, pl.conditional)
		case bucketExcluded:
			excluded = append(excluded, indexedExclusion{index: i, fund: pl.excluded})
		}
	}

	sortCandidates(candidates)
	kept, cut := selectTop(candidates, opts.TopN)
	excluded = append(excluded, cut...)
	sort.SliceStable(excluded, func(i, j int) bool { return excluded[i].index < excluded[j].index })

	result := &MatchResult{
		CatalogVersion: cat.Version,
		Scale:          n.Scale,
		OwnerTrait:     n.OwnerTrait,
		TrackDecision:  track,
		Matched:        make([]MatchedFund, 0, len(kept)),
		Conditional:    conditional,
		Excluded:       make([]ExcludedFund, 0, len(excluded)),
		Skipped:        defects,
	}
	for i, c := range kept {
		result.Matched = append(result.Matched, project(c, i+1))
	}
	for _, x := range excluded {
		result.Excluded = append(result.Excluded, x.fund)
	}

	e.log.Debug("match run completed",
		"catalog_version", cat.Version,
		"scale", n.Scale,
		"matched", len(result.Matched),
		"conditional", len(result.Conditional),
		"excluded", len(result.Excluded),
		"skipped", len(defects),
	)
	return result, nil
}

func purposeApplicable(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	if len(n.Purposes) == 0 {
		return true
	}
	for _, p := range n.Purposes {
		if f.Supports(p) {
			return true
		}
	}
	return false
}
