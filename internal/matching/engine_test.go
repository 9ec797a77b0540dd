package matching

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
	"github.com/ajharbinger/policy-fund-matcher/internal/logger"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func disabledWorkplaceProfile() profile.CompanyProfile {
	return profile.CompanyProfile{
		Name:             "함께일터",
		Industry:         catalog.IndustryManufacturing,
		BusinessAgeYears: floatPtr(9),
		AnnualRevenue:    int64Ptr(3_000_000_000),
		EmployeeCount:    intPtr(25),
		Status: profile.StatusFlags{
			DisabledStandardWorkplace: boolPtr(true),
			RnDActive:                 boolPtr(false),
		},
	}
}

func sampleProfiles() map[string]profile.CompanyProfile {
	micro := smallManufacturer()
	micro.EmployeeCount = intPtr(4)
	micro.AnnualRevenue = int64Ptr(600_000_000)

	venture := smallManufacturer()
	venture.Status.VentureCertified = boolPtr(true)
	venture.Status.RnDActive = boolPtr(true)
	venture.ExistingLoanBalance = 700_000_000

	resolving := smallManufacturer()
	resolving.Delinquency = profile.DelinquencyResolving

	gambling := smallManufacturer()
	gambling.Industry = catalog.IndustryGambling

	sparse := profile.CompanyProfile{
		Industry:         catalog.IndustryFoodService,
		BusinessAgeYears: floatPtr(0.5),
		AnnualRevenue:    int64Ptr(50_000_000),
		EmployeeCount:    intPtr(2),
		FundingPurpose:   profile.FundingWorkingCapital,
	}

	return map[string]profile.CompanyProfile{
		"small manufacturer": smallManufacturer(),
		"disabled workplace": disabledWorkplaceProfile(),
		"micro":              micro,
		"venture":            venture,
		"resolving":          resolving,
		"gambling":           gambling,
		"sparse":             sparse,
	}
}

func TestMatch_ExhaustivePartition(t *testing.T) {
	cat := seed(t)
	valid, _ := cat.ValidFunds()
	engine := NewEngine(logger.NewNop())

	for name, p := range sampleProfiles() {
		t.Run(name, func(t *testing.T) {
			r, err := engine.Match(p, cat, Options{})
			require.NoError(t, err)

			seen := map[string]int{}
			for _, id := range r.FundIDs() {
				seen[id]++
			}
			assert.Len(t, seen, len(valid))
			for _, f := range valid {
				assert.Equal(t, 1, seen[f.ID], "fund %s placed %d times", f.ID, seen[f.ID])
			}
		})
	}
}

func TestMatch_TrackGateInvariant(t *testing.T) {
	cat := seed(t)
	engine := NewEngine(nil)

	for name, p := range sampleProfiles() {
		t.Run(name, func(t *testing.T) {
			r, err := engine.Match(p, cat, Options{})
			require.NoError(t, err)

			for _, m := range r.Matched {
				assert.False(t, r.TrackDecision.Blocks(m.Track), "matched %s on blocked track %s", m.FundID, m.Track)
			}
			for _, c := range r.Conditional {
				assert.False(t, r.TrackDecision.Blocks(c.Track), "conditional %s on blocked track %s", c.FundID, c.Track)
			}
			for _, f := range cat.Funds() {
				if r.TrackDecision.Blocks(f.Track) {
					x, ok := findExcluded(r, f.ID)
					require.True(t, ok, f.ID)
					assert.Equal(t, CategoryTrackBlocked, x.Category, f.ID)
				}
			}
		})
	}
}

func TestMatch_Deterministic(t *testing.T) {
	cat := seed(t)
	engine := NewEngine(nil)
	opts := Options{AsOf: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)}

	for name, p := range sampleProfiles() {
		t.Run(name, func(t *testing.T) {
			first, err := engine.Match(p, cat, opts)
			require.NoError(t, err)
			second, err := engine.Match(p, cat, opts)
			require.NoError(t, err)

			a, err := json.Marshal(first)
			require.NoError(t, err)
			b, err := json.Marshal(second)
			require.NoError(t, err)
			assert.Equal(t, string(a), string(b))
		})
	}
}

func TestMatch_NoPadding(t *testing.T) {
	cat := seed(t)
	p := smallManufacturer()
	p.Industry = catalog.IndustryGambling

	r, err := NewEngine(nil).Match(p, cat, Options{TopN: 5})
	require.NoError(t, err)

	assert.Empty(t, r.Matched)
	assert.Empty(t, r.Conditional)

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	for _, phrase := range []string{"consider", "recommended as an alternative", "추천드립니다"} {
		assert.NotContains(t, strings.ToLower(string(raw)), phrase)
	}
}

func TestMatch_CapRespected(t *testing.T) {
	cat := seed(t)
	engine := NewEngine(nil)

	for _, topN := range []int{1, 2, 3, 5, 10} {
		r, err := engine.Match(smallManufacturer(), cat, Options{TopN: topN})
		require.NoError(t, err)
		assert.LessOrEqual(t, len(r.Matched), topN)
		for i, m := range r.Matched {
			assert.Equal(t, i+1, m.Rank)
		}
	}

	r, err := engine.Match(smallManufacturer(), cat, Options{TopN: 1})
	require.NoError(t, err)
	var cutoffs int
	for _, x := range r.Excluded {
		if x.Category == CategoryRankCutoff {
			cutoffs++
		}
	}
	assert.Positive(t, cutoffs)
}

func TestScenario_DisabledStandardWorkplace(t *testing.T) {
	r, err := NewEngine(nil).Match(disabledWorkplaceProfile(), seed(t), Options{})
	require.NoError(t, err)

	assert.Contains(t, r.TrackDecision.BlockedTracks, catalog.TrackGeneral)
	assert.Contains(t, r.TrackDecision.Rationale, string(catalog.StatusDisabledStandardWorkplace))

	general, ok := findExcluded(r, "kosmes-emergency")
	require.True(t, ok)
	assert.Equal(t, CategoryTrackBlocked, general.Category)

	exclusive, ok := findMatched(r, "kosmes-disabled-workplace")
	require.True(t, ok, "exclusive disability fund should be matched")
	assert.Equal(t, ConfidenceExclusivePriority, exclusive.Confidence)
	assert.Equal(t, 1, exclusive.Rank)
	assert.Equal(t, BaseScoreEligible+ExclusiveStatusBonus, exclusive.Score)
}

func TestScenario_TaxDelinquency(t *testing.T) {
	cat := seed(t)
	engine := NewEngine(nil)

	active := smallManufacturer()
	active.Delinquency = profile.DelinquencyActive
	r, err := engine.Match(active, cat, Options{})
	require.NoError(t, err)

	assert.Empty(t, r.Matched)
	assert.Empty(t, r.Conditional)
	for _, x := range r.Excluded {
		if x.Category == CategoryTrackBlocked {
			continue
		}
		assert.Equal(t, CategoryDelinquency, x.Category, x.FundID)
	}
	x, ok := findExcluded(r, "kosmes-new-market")
	require.True(t, ok)
	assert.Equal(t, CategoryDelinquency, x.Category)

	resolving := smallManufacturer()
	resolving.Delinquency = profile.DelinquencyResolving
	r, err = engine.Match(resolving, cat, Options{})
	require.NoError(t, err)

	c, ok := findConditional(r, "kosmes-new-market")
	require.True(t, ok, "resolving delinquency should make the fund conditional")
	var notes []string
	for _, m := range c.Missing {
		notes = append(notes, m.HowToConfirm)
	}
	assert.Contains(t, notes, "체납 해소 후 납세증명서 제출")
}

func TestScenario_MicroVersusTargetScale(t *testing.T) {
	p := smallManufacturer()
	p.BusinessAgeYears = floatPtr(10)
	p.EmployeeCount = intPtr(5)
	p.AnnualRevenue = int64Ptr(800_000_000)

	r, err := NewEngine(nil).Match(p, seed(t), Options{})
	require.NoError(t, err)
	require.Equal(t, catalog.ScaleMicro, r.Scale)

	x, ok := findExcluded(r, "kosmes-growth-facility")
	require.True(t, ok)
	assert.Equal(t, CategoryScaleNotMet, x.Category)
	assert.Equal(t, "기업규모 미충족", x.Reason)
}

func TestScenario_GraduationCap(t *testing.T) {
	cat := seed(t)
	p := smallManufacturer()
	p.PriorUsage = map[string]profile.Usage{"kosmes": {Count: 5}}

	r, err := NewEngine(nil).Match(p, cat, Options{})
	require.NoError(t, err)

	inst, ok := cat.Institution("kosmes")
	require.True(t, ok)
	for _, f := range inst.Funds {
		_, matched := findMatched(r, f.ID)
		_, conditional := findConditional(r, f.ID)
		assert.False(t, matched || conditional, f.ID)
		_, excluded := findExcluded(r, f.ID)
		assert.True(t, excluded, f.ID)
	}
	for _, id := range []string{"kosmes-startup-base", "kosmes-new-market", "kosmes-emergency"} {
		x, _ := findExcluded(r, id)
		assert.Equal(t, CategoryGraduation, x.Category, id)
		assert.Equal(t, "graduation", x.Rule, id)
	}

	// other institutions are unaffected
	_, ok = findMatched(r, "kodit-general")
	assert.True(t, ok)
}

func TestMatch_DiversityCapAndOrdering(t *testing.T) {
	r, err := NewEngine(nil).Match(smallManufacturer(), seed(t), Options{})
	require.NoError(t, err)

	var ids []string
	for _, m := range r.Matched {
		ids = append(ids, m.FundID)
	}
	assert.Equal(t, []string{
		"kosmes-startup-base",
		"kosmes-new-market",
		"kodit-general",
		"kodit-startup",
		"koreg-disaster",
	}, ids)

	x, ok := findExcluded(r, "kosmes-emergency")
	require.True(t, ok)
	assert.Equal(t, CategoryDiversityCap, x.Category)
}

func TestMatch_ConditionalIgnoresScore(t *testing.T) {
	p := smallManufacturer()
	p.DebtRatio = nil
	p.ExistingLoanBalance = 2_000_000_000

	r, err := NewEngine(nil).Match(p, seed(t), Options{MinScore: ScoreFloor(90)})
	require.NoError(t, err)

	c, ok := findConditional(r, "kodit-general")
	require.True(t, ok)
	assert.Less(t, c.Score, 90)
	require.Len(t, c.Missing, 1)
	assert.Equal(t, "최근 결산 재무제표(재무상태표) 제출", c.Missing[0].HowToConfirm)
}

func TestMatch_BelowThreshold(t *testing.T) {
	r, err := NewEngine(nil).Match(smallManufacturer(), seed(t), Options{MinScore: ScoreFloor(61)})
	require.NoError(t, err)

	assert.Empty(t, r.Matched)
	x, ok := findExcluded(r, "kosmes-new-market")
	require.True(t, ok)
	assert.Equal(t, CategoryBelowThreshold, x.Category)
}

func TestMatch_StrictPurpose(t *testing.T) {
	p := smallManufacturer()
	p.FundingPurpose = profile.FundingFacility

	r, err := NewEngine(nil).Match(p, seed(t), Options{StrictPurpose: true})
	require.NoError(t, err)

	x, ok := findExcluded(r, "kosmes-emergency")
	require.True(t, ok)
	assert.Equal(t, CategoryPurposeNotApplicable, x.Category)

	r, err = NewEngine(nil).Match(p, seed(t), Options{})
	require.NoError(t, err)
	x, ok = findExcluded(r, "kosmes-emergency")
	if ok {
		assert.NotEqual(t, CategoryPurposeNotApplicable, x.Category)
	}
}

func TestMatch_InvalidInput(t *testing.T) {
	p := smallManufacturer()
	p.AnnualRevenue = nil

	r, err := NewEngine(nil).Match(p, seed(t), Options{})
	require.Error(t, err)
	assert.Nil(t, r)
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
	assert.Contains(t, err.Error(), "annual_revenue")

	_, err = NewEngine(nil).Match(smallManufacturer(), seed(t), Options{TopN: -1})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))

	_, err = NewEngine(nil).Match(smallManufacturer(), nil, Options{})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidCatalog))
}

func TestMatch_SkipsAndLogsCatalogDefects(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	engine := NewEngine(logger.NewZapAdapter(zap.New(core)))

	cat := seed(t)
	broken := catalog.PolicyFundKnowledge{ID: "broken-fund", Name: "깨진 자금", Track: "vip"}
	cat.Institutions[0].Funds = append(cat.Institutions[0].Funds, broken)

	r, err := engine.Match(smallManufacturer(), cat, Options{})
	require.NoError(t, err)

	require.Len(t, r.Skipped, 1)
	assert.Equal(t, "broken-fund", r.Skipped[0].FundID)
	assert.NotContains(t, r.FundIDs(), "broken-fund")
	assert.NotEmpty(t, r.Matched)

	entries := logs.FilterMessage("skipping invalid catalog record").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "broken-fund", entries[0].ContextMap()["fund_id"])
}

func TestEngine_Track(t *testing.T) {
	d, err := NewEngine(nil).Track(disabledWorkplaceProfile())
	require.NoError(t, err)
	assert.True(t, d.Blocks(catalog.TrackGeneral))

	_, err = NewEngine(nil).Track(profile.CompanyProfile{})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}

func TestMatch_ZeroFloorDisablesThreshold(t *testing.T) {
	p := smallManufacturer()
	p.ExistingLoanBalance = 1_000_000_000

	def, err := NewEngine(nil).Match(p, seed(t), Options{TopN: 50})
	require.NoError(t, err)

	var low []string
	for _, x := range def.Excluded {
		if x.Category == CategoryBelowThreshold {
			low = append(low, x.FundID)
		}
	}
	require.NotEmpty(t, low, "expected debt load to push some funds under the default floor")

	open, err := NewEngine(nil).Match(p, seed(t), Options{TopN: 50, MinScore: ScoreFloor(0)})
	require.NoError(t, err)
	for _, x := range open.Excluded {
		assert.NotEqual(t, CategoryBelowThreshold, x.Category, x.FundID)
	}
	for _, id := range low {
		if m, ok := findMatched(open, id); ok {
			assert.Less(t, m.Score, DefaultMinScore)
			continue
		}
		x, ok := findExcluded(open, id)
		require.True(t, ok, id)
		assert.Equal(t, CategoryDiversityCap, x.Category)
	}
}

func TestOptions_Floor(t *testing.T) {
	assert.Equal(t, DefaultMinScore, Options{}.Floor())
	assert.Equal(t, 0, Options{MinScore: ScoreFloor(0)}.Floor())
	assert.Equal(t, DefaultMinScore, *Options{}.WithDefaults().MinScore)
	assert.Equal(t, 0, *Options{MinScore: ScoreFloor(0)}.WithDefaults().MinScore)

	_, err := NewEngine(nil).Match(smallManufacturer(), seed(t), Options{MinScore: ScoreFloor(-1)})
	assert.True(t, apperrors.Is(err, apperrors.ErrCodeInvalidInput))
}

// holdEvaluator excludes one fund, or adds flat points to every fund when id is empty
type holdEvaluator struct {
	name     string
	priority int
	id       string
	points   int
}

func (h holdEvaluator) Name() string  { return h.name }
func (h holdEvaluator) Priority() int { return h.priority }

func (h holdEvaluator) Applies(_ *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return h.id == "" || f.ID == h.id
}

func (h holdEvaluator) Evaluate(ScoreCard, *profile.Normalized, *catalog.PolicyFundKnowledge) []Adjustment {
	if h.id != "" {
		return []Adjustment{{Kind: AdjustExclusion, Category: CategoryHardExclusion, Reason: "내부 심사 보류"}}
	}
	return []Adjustment{{Kind: AdjustBonus, Points: h.points, Reason: "지역 특화 가점"}}
}

func TestEngine_WithEvaluators(t *testing.T) {
	p := smallManufacturer()
	p.Status.SocialEnterprise = boolPtr(true)
	opts := Options{TopN: 50, AsOf: testAsOf()}

	base, err := NewEngine(nil).Match(p, seed(t), opts)
	require.NoError(t, err)
	require.NotEmpty(t, base.Matched)
	held := base.Matched[0].FundID

	regional := holdEvaluator{name: "regional_bonus", priority: 75, points: 5}
	hold := holdEvaluator{name: "manual_hold", priority: 5, id: held}
	got, err := NewEngine(nil, WithEvaluators(regional, hold)).Match(p, seed(t), opts)
	require.NoError(t, err)

	x, ok := findExcluded(got, held)
	require.True(t, ok)
	assert.Equal(t, CategoryHardExclusion, x.Category)
	assert.Equal(t, "manual_hold", x.Rule)

	priority := map[string]int{regional.Name(): regional.Priority()}
	for _, ev := range DefaultEvaluators(opts.AsOf) {
		priority[ev.Name()] = ev.Priority()
	}

	require.NotEmpty(t, got.Matched)
	for _, m := range got.Matched {
		before, ok := findMatched(base, m.FundID)
		if ok {
			assert.Equal(t, before.Score+5, m.Score, m.FundID)
		}

		seen := false
		last := 0
		for _, a := range m.Adjustments {
			assert.GreaterOrEqual(t, priority[a.Evaluator], last, "%s: %s out of order", m.FundID, a.Evaluator)
			last = priority[a.Evaluator]
			seen = seen || a.Evaluator == regional.Name()
		}
		assert.True(t, seen, m.FundID)
	}
}
