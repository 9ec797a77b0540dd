package matching

import "github.com/ajharbinger/policy-fund-matcher/internal/catalog"

// Run defaults
const (
	DefaultTopN     = 5
	DefaultMinScore = 40
)

// Eligibility
const (
	BaseScoreEligible         = 60
	MaxUnknownsForConditional = 2
	InstitutionCap            = 2
)

// Confidence bands for non-exclusive matches
const (
	ConfidenceStrongMin      = 75
	ConfidenceAlternativeMin = 55
)

// Scale fit used by the second sort key
const (
	ScaleFitExact         = 3
	ScaleFitCertification = 2
	ScaleFitGeneric       = 1
)

// ExclusiveQualifyingStatuses opens the exclusive track and blocks the general one
var ExclusiveQualifyingStatuses = []catalog.Status{
	catalog.StatusDisabledStandardWorkplace,
	catalog.StatusSocialEnterprise,
	catalog.StatusRestartAfterFailure,
	catalog.StatusFemaleOwned,
}

// Graduation
const (
	GraduationLimit     = 5
	GraduationPenalty   = -25
	RecentUseWindowDays = 365
	RecentUsePenalty    = -10
)

// Debt load tiers in won, most severe first
var debtLoadTiers = []struct {
	minBalance int64
	direct     int
	guarantee  int
}{
	{1_000_000_000, -30, -20},
	{500_000_000, -20, -12},
	{200_000_000, -10, -6},
}

// Subsidy/revenue concentration tiers, most severe first
var concentrationTiers = []struct {
	ratio  float64
	points int
}{
	{0.30, -20},
	{0.20, -12},
	{0.10, -6},
}

const (
	UnknownRevenueSubsidyLimit   int64 = 100_000_000
	UnknownRevenueSubsidyPenalty       = -10
)

// Funding purpose
const (
	PurposeExactBonus      = 10
	PurposeMismatchPenalty = -15
)

// Debt ratio, percent
const (
	DebtRatioPenaltyAbove = 400.0
	DebtRatioWarnAbove    = 200.0
	DebtRatioPenalty      = -10
)

const ExclusiveStatusBonus = 15
