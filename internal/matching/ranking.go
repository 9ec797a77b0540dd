package matching

import (
	"fmt"
	"sort"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
)

// sortCandidates orders by: exclusive track first, scale fit, direct loan
// before guarantee, score descending, then catalog order.
func sortCandidates(cs []candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		ax, bx := a.fund.Track == catalog.TrackExclusive, b.fund.Track == catalog.TrackExclusive
		if ax != bx {
			return ax
		}
		if a.scaleFit != b.scaleFit {
			return a.scaleFit > b.scaleFit
		}
		ad, bd := a.fund.Product == catalog.ProductDirectLoan, b.fund.Product == catalog.ProductDirectLoan
		if ad != bd {
			return ad
		}
		if a.card.Score != b.card.Score {
			return a.card.Score > b.card.Score
		}
		return a.index < b.index
	})
}

// selectTop walks sorted candidates applying the per-institution cap and topN.
// Nothing is added to fill a quota; funds that do not fit are returned as exclusions.
func selectTop(sorted []candidate, topN int) ([]candidate, []indexedExclusion) {
	var kept []candidate
	var cut []indexedExclusion
	perInstitution := make(map[string]int)

	for _, c := range sorted {
		f := c.fund
		if !f.SpecialPurpose && perInstitution[f.InstitutionID] >= InstitutionCap {
			cut = append(cut, indexedExclusion{index: c.index, fund: excludedFund(f, CategoryDiversityCap, "institution_cap",
				fmt.Sprintf("동일 기관 추천 한도 %d건 초과", InstitutionCap),
				fmt.Sprintf("점수 %d점", c.card.Score))})
			continue
		}
		if len(kept) >= topN {
			cut = append(cut, indexedExclusion{index: c.index, fund: excludedFund(f, CategoryRankCutoff, "top_n",
				fmt.Sprintf("상위 %d건 밖 순위", topN),
				fmt.Sprintf("점수 %d점", c.card.Score))})
			continue
		}
		if !f.SpecialPurpose {
			perInstitution[f.InstitutionID]++
		}
		kept = append(kept, c)
	}
	return kept, cut
}

// project strips internal sort keys and emits the public record
func project(c candidate, rank int) MatchedFund {
	f := c.fund
	passed := make([]string, len(c.card.Eligibility.Passed))
	copy(passed, c.card.Eligibility.Passed)
	adjs := make([]Adjustment, len(c.card.Adjustments))
	copy(adjs, c.card.Adjustments)

	return MatchedFund{
		Rank:          rank,
		FundID:        f.ID,
		FundName:      f.Name,
		InstitutionID: f.InstitutionID,
		Track:         f.Track,
		Product:       f.Product,
		Score:         c.card.Score,
		Confidence:    Confidence(f.Track, c.card.Score),
		PassedRules:   passed,
		Adjustments:   adjs,
		SupportTerms:  f.Terms,
		Notes:         notes(f),
	}
}
