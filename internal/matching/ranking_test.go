package matching

import (
	"testing"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func testAsOf() time.Time {
	return time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
}

func cand(id, inst string, track catalog.Track, product catalog.ProductType, fit, score, index int) candidate {
	return candidate{
		fund: &catalog.PolicyFundKnowledge{
			ID:            id,
			InstitutionID: inst,
			Track:         track,
			Product:       product,
		},
		index:    index,
		card:     ScoreCard{FundID: id, Score: score},
		scaleFit: fit,
	}
}

func ids(cs []candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.fund.ID
	}
	return out
}

func TestSortCandidates_FourTiers(t *testing.T) {
	cs := []candidate{
		cand("general-high", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 95, 0),
		cand("guarantee-exact", "b", catalog.TrackGuarantee, catalog.ProductGuarantee, 3, 90, 1),
		cand("loan-exact-low", "c", catalog.TrackPolicyLinked, catalog.ProductDirectLoan, 3, 50, 2),
		cand("loan-exact-high", "d", catalog.TrackPolicyLinked, catalog.ProductDirectLoan, 3, 70, 3),
		cand("exclusive-low", "e", catalog.TrackExclusive, catalog.ProductDirectLoan, 1, 41, 4),
		cand("loan-exact-high-later", "f", catalog.TrackGeneral, catalog.ProductDirectLoan, 3, 70, 5),
		cand("cert-fit", "g", catalog.TrackGeneral, catalog.ProductDirectLoan, 2, 99, 6),
	}

	sortCandidates(cs)
	assert.Equal(t, []string{
		"exclusive-low",
		"loan-exact-high",
		"loan-exact-high-later",
		"loan-exact-low",
		"guarantee-exact",
		"cert-fit",
		"general-high",
	}, ids(cs))
}

func TestSelectTop_InstitutionCapAndTopN(t *testing.T) {
	sorted := []candidate{
		cand("a1", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 90, 0),
		cand("a2", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 80, 1),
		cand("a3", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 70, 2),
		cand("b1", "b", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 60, 3),
		cand("b2", "b", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 50, 4),
	}
	special := cand("a-special", "a", catalog.TrackGuarantee, catalog.ProductGuarantee, 1, 45, 5)
	special.fund.SpecialPurpose = true
	sorted = append(sorted, special)

	kept, cut := selectTop(sorted, 4)
	assert.Equal(t, []string{"a1", "a2", "b1", "b2"}, ids(kept))

	categories := map[string]ExclusionCategory{}
	for _, x := range cut {
		categories[x.fund.FundID] = x.fund.Category
	}
	assert.Equal(t, map[string]ExclusionCategory{
		"a3":        CategoryDiversityCap,
		"a-special": CategoryRankCutoff,
	}, categories)
}

func TestSelectTop_SpecialPurposeExemptFromCap(t *testing.T) {
	s1 := cand("s1", "a", catalog.TrackGuarantee, catalog.ProductGuarantee, 1, 60, 2)
	s1.fund.SpecialPurpose = true
	sorted := []candidate{
		cand("a1", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 90, 0),
		cand("a2", "a", catalog.TrackGeneral, catalog.ProductDirectLoan, 1, 80, 1),
		s1,
	}

	kept, cut := selectTop(sorted, 5)
	assert.Equal(t, []string{"a1", "a2", "s1"}, ids(kept))
	assert.Empty(t, cut)
}

func TestSelectTop_NeverPads(t *testing.T) {
	kept, cut := selectTop(nil, 5)
	assert.Empty(t, kept)
	assert.Empty(t, cut)
}

func TestProject_StripsInternalKeys(t *testing.T) {
	c := cand("x", "inst", catalog.TrackExclusive, catalog.ProductDirectLoan, 3, 75, 9)
	c.card.Eligibility.Passed = []string{"업력 충족"}
	c.card.Adjustments = []Adjustment{{Evaluator: "exclusive_status_priority", Kind: AdjustBonus, Points: 15}}

	m := project(c, 1)
	assert.Equal(t, 1, m.Rank)
	assert.Equal(t, ConfidenceExclusivePriority, m.Confidence)
	assert.Equal(t, []string{"업력 충족"}, m.PassedRules)

	c.card.Adjustments[0].Points = 0
	assert.Equal(t, 15, m.Adjustments[0].Points)
}
