package matching

import (
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// CheckState is the outcome of one evaluated criterion
type CheckState string

const (
	CheckPass    CheckState = "pass"
	CheckFail    CheckState = "fail"
	CheckBonus   CheckState = "bonus"
	CheckUnknown CheckState = "unknown"
)

// CheckResult is one itemized criterion
type CheckResult struct {
	Rule        string     `json:"rule"`
	Label       string     `json:"label"`
	State       CheckState `json:"state"`
	Description string     `json:"description"`
	Points      int        `json:"points,omitempty"`
}

// EligibilityState is the aggregate verdict of the eligibility evaluator
type EligibilityState string

const (
	StateEligible    EligibilityState = "eligible"
	StateConditional EligibilityState = "conditional"
	StateExcluded    EligibilityState = "excluded"
)

// ExclusionCategory classifies why a fund ended up in the excluded list
type ExclusionCategory string

const (
	CategoryTrackBlocked         ExclusionCategory = "track-blocked"
	CategoryHardExclusion        ExclusionCategory = "hard-exclusion"
	CategoryDelinquency          ExclusionCategory = "delinquency"
	CategoryScaleNotMet          ExclusionCategory = "scale-not-met"
	CategoryRequirementNotMet    ExclusionCategory = "requirement-not-met"
	CategoryInsufficientEvidence ExclusionCategory = "insufficient-evidence"
	CategoryGraduation           ExclusionCategory = "graduation"
	CategoryBelowThreshold       ExclusionCategory = "below-threshold"
	CategoryPurposeNotApplicable ExclusionCategory = "purpose-not-applicable"
	CategoryDiversityCap         ExclusionCategory = "diversity-cap"
	CategoryRankCutoff           ExclusionCategory = "rank-cutoff"
)

// MissingCondition is something the applicant still has to prove
type MissingCondition struct {
	Condition    string `json:"condition"`
	HowToConfirm string `json:"how_to_confirm"`
}

// EligibilityResult aggregates every check for one (profile, fund) pair
type EligibilityResult struct {
	FundID    string             `json:"fund_id"`
	State     EligibilityState   `json:"state"`
	Eligible  bool               `json:"eligible"`
	BaseScore int                `json:"base_score"`
	Checks    []CheckResult      `json:"checks"`
	Passed    []string           `json:"passed"`
	Failed    []string           `json:"failed"`
	Missing   []MissingCondition `json:"missing,omitempty"`

	ExclusionCategory ExclusionCategory `json:"exclusion_category,omitempty"`
	ExclusionRule     string            `json:"exclusion_rule,omitempty"`
	ExclusionReason   string            `json:"exclusion_reason,omitempty"`
	ExclusionDetail   string            `json:"exclusion_detail,omitempty"`
}

// TrackDecision gates whole tracks for one profile
type TrackDecision struct {
	AllowedTracks   []catalog.Track  `json:"allowed_tracks"`
	BlockedTracks   []catalog.Track  `json:"blocked_tracks"`
	Rationale       string           `json:"rationale"`
	DrivingStatuses []catalog.Status `json:"driving_statuses"`
}

// Blocks reports whether track t is blocked
func (d TrackDecision) Blocks(t catalog.Track) bool {
	for _, b := range d.BlockedTracks {
		if b == t {
			return true
		}
	}
	return false
}

// Allows reports whether track t is allowed
func (d TrackDecision) Allows(t catalog.Track) bool {
	for _, a := range d.AllowedTracks {
		if a == t {
			return true
		}
	}
	return false
}

// AdjustmentKind is the effect of one evaluator output
type AdjustmentKind string

const (
	AdjustBonus     AdjustmentKind = "bonus"
	AdjustPenalty   AdjustmentKind = "penalty"
	AdjustWarning   AdjustmentKind = "warning"
	AdjustExclusion AdjustmentKind = "exclusion"
)

// Adjustment is an attributable scoring entry
type Adjustment struct {
	Evaluator string            `json:"evaluator"`
	Kind      AdjustmentKind    `json:"kind"`
	Points    int               `json:"points"`
	Reason    string            `json:"reason"`
	Category  ExclusionCategory `json:"category,omitempty"`
}

// ConfidenceLabel is the human-facing rank tag of a matched fund
type ConfidenceLabel string

const (
	ConfidenceExclusivePriority ConfidenceLabel = "전용·우선"
	ConfidenceStrong            ConfidenceLabel = "유력"
	ConfidenceAlternative       ConfidenceLabel = "대안"
	ConfidenceFallback          ConfidenceLabel = "플랜B"
)

// MatchedFund is a fund the applicant can pursue
type MatchedFund struct {
	Rank          int                  `json:"rank"`
	FundID        string               `json:"fund_id"`
	FundName      string               `json:"fund_name"`
	InstitutionID string               `json:"institution_id"`
	Track         catalog.Track        `json:"track"`
	Product       catalog.ProductType  `json:"product"`
	Score         int                  `json:"score"`
	Confidence    ConfidenceLabel      `json:"confidence"`
	PassedRules   []string             `json:"passed_rules"`
	Adjustments   []Adjustment         `json:"adjustments"`
	SupportTerms  catalog.SupportTerms `json:"support_terms"`
	Notes         []string             `json:"notes,omitempty"`
}

// ConditionalFund is a fund that needs confirmation before it can be pursued
type ConditionalFund struct {
	FundID        string             `json:"fund_id"`
	FundName      string             `json:"fund_name"`
	InstitutionID string             `json:"institution_id"`
	Track         catalog.Track      `json:"track"`
	Score         int                `json:"score"`
	Missing       []MissingCondition `json:"missing"`
	Adjustments   []Adjustment       `json:"adjustments,omitempty"`
	Notes         []string           `json:"notes,omitempty"`
}

// ExcludedFund is a fund ruled out, with the rule that ruled it out
type ExcludedFund struct {
	FundID        string            `json:"fund_id"`
	FundName      string            `json:"fund_name"`
	InstitutionID string            `json:"institution_id"`
	Track         catalog.Track     `json:"track"`
	Category      ExclusionCategory `json:"category"`
	Rule          string            `json:"rule"`
	Reason        string            `json:"reason"`
	Detail        string            `json:"detail,omitempty"`
}

// MatchResult is the full output of one matching run
type MatchResult struct {
	CatalogVersion string              `json:"catalog_version"`
	Scale          catalog.ScaleBucket `json:"scale"`
	OwnerTrait     profile.OwnerTrait  `json:"owner_trait"`
	TrackDecision  TrackDecision       `json:"track_decision"`
	Matched        []MatchedFund       `json:"matched"`
	Conditional    []ConditionalFund   `json:"conditional"`
	Excluded       []ExcludedFund      `json:"excluded"`
	Skipped        []catalog.Defect    `json:"skipped,omitempty"`
}

// FundIDs returns every fund id placed in any list
func (r *MatchResult) FundIDs() []string {
	ids := make([]string, 0, len(r.Matched)+len(r.Conditional)+len(r.Excluded))
	for _, m := range r.Matched {
		ids = append(ids, m.FundID)
	}
	for _, c := range r.Conditional {
		ids = append(ids, c.FundID)
	}
	for _, e := range r.Excluded {
		ids = append(ids, e.FundID)
	}
	return ids
}

// Options are the per-run knobs. A nil MinScore takes DefaultMinScore; an
// explicit 0 disables the floor.
type Options struct {
	TopN          int       `json:"top_n,omitempty"`
	MinScore      *int      `json:"min_score,omitempty"`
	AsOf          time.Time `json:"as_of,omitempty"`
	StrictPurpose bool      `json:"strict_purpose,omitempty"`
}

// WithDefaults fills zero-valued options
func (o Options) WithDefaults() Options {
	if o.TopN == 0 {
		o.TopN = DefaultTopN
	}
	if o.MinScore == nil {
		o.MinScore = ScoreFloor(DefaultMinScore)
	}
	return o
}

// Floor returns the effective minimum score
func (o Options) Floor() int {
	if o.MinScore == nil {
		return DefaultMinScore
	}
	return *o.MinScore
}

// ScoreFloor returns a MinScore value
func ScoreFloor(v int) *int {
	return &v
}
