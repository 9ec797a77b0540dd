package matching

import (
	"testing"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func points(adjs []Adjustment) int {
	total := 0
	for _, a := range adjs {
		total += a.Points
	}
	return total
}

func TestGraduationEvaluator(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	old := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		usage  profile.Usage
		asOf   time.Time
		kinds  []AdjustmentKind
		points int
	}{
		{"five uses excluded", profile.Usage{Count: 5}, asOf, []AdjustmentKind{AdjustExclusion}, 0},
		{"four uses penalized", profile.Usage{Count: 4}, asOf, []AdjustmentKind{AdjustPenalty}, GraduationPenalty},
		{"three uses warned", profile.Usage{Count: 3}, asOf, []AdjustmentKind{AdjustWarning}, 0},
		{"two uses silent", profile.Usage{Count: 2}, asOf, nil, 0},
		{"recent use", profile.Usage{Count: 1, LastUsedAt: &recent}, asOf, []AdjustmentKind{AdjustPenalty}, RecentUsePenalty},
		{"recent and near cap", profile.Usage{Count: 4, LastUsedAt: &recent}, asOf,
			[]AdjustmentKind{AdjustPenalty, AdjustPenalty}, GraduationPenalty + RecentUsePenalty},
		{"old use", profile.Usage{Count: 1, LastUsedAt: &old}, asOf, nil, 0},
		{"no clock skips recency", profile.Usage{Count: 1, LastUsedAt: &recent}, time.Time{}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallManufacturer()
			p.PriorUsage = map[string]profile.Usage{"kosmes": tt.usage}
			n := normalize(t, p)
			f := seedFund(t, "kosmes-new-market")

			ev := GraduationEvaluator{AsOf: tt.asOf}
			require.True(t, ev.Applies(n, f))
			adjs := ev.Evaluate(ScoreCard{}, n, f)

			var kinds []AdjustmentKind
			for _, a := range adjs {
				kinds = append(kinds, a.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
			assert.Equal(t, tt.points, points(adjs))
		})
	}

	n := normalize(t, smallManufacturer())
	assert.False(t, GraduationEvaluator{}.Applies(n, seedFund(t, "kosmes-new-market")))
}

func TestDebtLoadEvaluator(t *testing.T) {
	tests := []struct {
		balance   int64
		direct    int
		guarantee int
	}{
		{100_000_000, 0, 0},
		{200_000_000, -10, -6},
		{500_000_000, -20, -12},
		{999_999_999, -20, -12},
		{1_000_000_000, -30, -20},
	}

	for _, tt := range tests {
		p := smallManufacturer()
		p.ExistingLoanBalance = tt.balance
		n := normalize(t, p)

		direct := seedFund(t, "kosmes-new-market")
		guarantee := seedFund(t, "kodit-general")
		ev := DebtLoadEvaluator{}

		require.True(t, ev.Applies(n, direct))
		assert.Equal(t, tt.direct, points(ev.Evaluate(ScoreCard{}, n, direct)), "direct %d", tt.balance)
		assert.Equal(t, tt.guarantee, points(ev.Evaluate(ScoreCard{}, n, guarantee)), "guarantee %d", tt.balance)
	}

	grant := testFund()
	grant.InstitutionKind = catalog.KindGrantAgency
	p := smallManufacturer()
	p.ExistingLoanBalance = 2_000_000_000
	assert.False(t, DebtLoadEvaluator{}.Applies(normalize(t, p), grant))
}

func TestBenefitConcentrationEvaluator(t *testing.T) {
	tests := []struct {
		name    string
		revenue int64
		subsidy int64
		want    int
	}{
		{"over thirty percent", 1_000_000_000, 310_000_000, -20},
		{"over twenty percent", 1_000_000_000, 250_000_000, -12},
		{"over ten percent", 1_000_000_000, 110_000_000, -6},
		{"exactly ten percent", 1_000_000_000, 100_000_000, 0},
		{"zero revenue large subsidy", 0, 100_000_000, -10},
		{"zero revenue small subsidy", 0, 50_000_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallManufacturer()
			p.AnnualRevenue = int64Ptr(tt.revenue)
			p.RecentSubsidy = tt.subsidy
			n := normalize(t, p)

			ev := BenefitConcentrationEvaluator{}
			require.True(t, ev.Applies(n, testFund()))
			assert.Equal(t, tt.want, points(ev.Evaluate(ScoreCard{}, n, testFund())))
		})
	}
}

func TestPurposeMatchEvaluator(t *testing.T) {
	both := []catalog.Purpose{catalog.PurposeWorkingCapital, catalog.PurposeFacility}
	wc := []catalog.Purpose{catalog.PurposeWorkingCapital}
	fac := []catalog.Purpose{catalog.PurposeFacility}

	tests := []struct {
		name    string
		request profile.FundingPurpose
		fund    []catalog.Purpose
		want    int
	}{
		{"exact single", profile.FundingWorkingCapital, wc, PurposeExactBonus},
		{"exact both", profile.FundingBoth, both, PurposeExactBonus},
		{"single mismatch", profile.FundingFacility, wc, PurposeMismatchPenalty},
		{"both vs single", profile.FundingBoth, fac, 0},
		{"single vs both", profile.FundingFacility, both, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := smallManufacturer()
			p.FundingPurpose = tt.request
			n := normalize(t, p)
			f := testFund()
			f.SupportedPurposes = tt.fund

			ev := PurposeMatchEvaluator{}
			require.True(t, ev.Applies(n, f))
			assert.Equal(t, tt.want, points(ev.Evaluate(ScoreCard{}, n, f)))
		})
	}

	assert.False(t, PurposeMatchEvaluator{}.Applies(normalize(t, smallManufacturer()), testFund()))
}

func TestConflictRulesEvaluator(t *testing.T) {
	ev := ConflictRulesEvaluator{Rules: DefaultConflictRules}

	p := smallManufacturer()
	p.PlanningEquityRaise = true
	adjs := ev.Evaluate(ScoreCard{}, normalize(t, p), seedFund(t, "kosmes-emergency"))
	require.Len(t, adjs, 1)
	assert.Equal(t, -20, adjs[0].Points)
	assert.Contains(t, adjs[0].Reason, "emergency_vs_equity_raise")

	p = smallManufacturer()
	p.Status.VentureCertified = boolPtr(true)
	adjs = ev.Evaluate(ScoreCard{}, normalize(t, p), seedFund(t, "koreg-micro"))
	require.Len(t, adjs, 1)
	assert.Equal(t, -25, adjs[0].Points)
	assert.Contains(t, adjs[0].Reason, "micro_program_vs_venture")

	assert.Empty(t, ev.Evaluate(ScoreCard{}, normalize(t, smallManufacturer()), seedFund(t, "kosmes-emergency")))
}

func TestDebtRatioEvaluator(t *testing.T) {
	tests := []struct {
		ratio float64
		kind  AdjustmentKind
		want  int
	}{
		{450, AdjustPenalty, DebtRatioPenalty},
		{250, AdjustWarning, 0},
		{200, "", 0},
	}

	for _, tt := range tests {
		p := smallManufacturer()
		p.DebtRatio = floatPtr(tt.ratio)
		n := normalize(t, p)

		adjs := DebtRatioEvaluator{}.Evaluate(ScoreCard{}, n, testFund())
		if tt.kind == "" {
			assert.Empty(t, adjs)
			continue
		}
		require.Len(t, adjs, 1)
		assert.Equal(t, tt.kind, adjs[0].Kind)
		assert.Equal(t, tt.want, adjs[0].Points)
	}

	p := smallManufacturer()
	p.DebtRatio = nil
	assert.False(t, DebtRatioEvaluator{}.Applies(normalize(t, p), testFund()))
}

func TestBonusConditionsEvaluator(t *testing.T) {
	card := ScoreCard{Eligibility: EligibilityResult{Checks: []CheckResult{
		{Rule: "absolute_exclusions", State: CheckPass},
		{Rule: "bonus:patent_holding", State: CheckBonus, Points: 8, Description: "특허 보유 (+8)"},
		{Rule: "bonus:youth_owned", State: CheckBonus, Points: 5, Description: "청년 (+5)"},
	}}}

	adjs := BonusConditionsEvaluator{}.Evaluate(card, nil, nil)
	require.Len(t, adjs, 2)
	assert.Equal(t, 13, points(adjs))
	assert.Equal(t, "특허 보유 (+8)", adjs[0].Reason)
}

func TestExclusiveStatusEvaluator(t *testing.T) {
	f := seedFund(t, "kosmes-social")
	ev := ExclusiveStatusEvaluator{}

	p := smallManufacturer()
	p.Status.SocialEnterprise = boolPtr(true)
	n := normalize(t, p)
	require.True(t, ev.Applies(n, f))
	assert.Equal(t, ExclusiveStatusBonus, points(ev.Evaluate(ScoreCard{}, n, f)))

	assert.Empty(t, ev.Evaluate(ScoreCard{}, normalize(t, smallManufacturer()), f))
	assert.False(t, ev.Applies(n, seedFund(t, "kodit-general")))
}
