package matching

import (
	"fmt"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
)

type bucket int

const (
	bucketCandidate bucket = iota
	bucketConditional
	bucketExcluded
)

// candidate is the internal matched record; it carries sort keys that never reach the output
type candidate struct {
	fund     *catalog.PolicyFundKnowledge
	index    int
	card     ScoreCard
	scaleFit int
}

type indexedExclusion struct {
	index int
	fund  ExcludedFund
}

type placement struct {
	bucket      bucket
	candidate   candidate
	conditional ConditionalFund
	excluded    ExcludedFund
}

// classify places one scored fund. The track gate is consulted before anything
// computed per fund; conditional funds stay conditional whatever their score.
func classify(track TrackDecision, f *catalog.PolicyFundKnowledge, index int, card ScoreCard, scaleFit, minScore int) placement {
	if track.Blocks(f.Track) {
		return excludedPlacement(f, CategoryTrackBlocked, "track:"+string(f.Track),
			fmt.Sprintf("%s 트랙 차단", f.Track), track.Rationale)
	}

	elig := card.Eligibility
	if elig.State == StateExcluded {
		return excludedPlacement(f, elig.ExclusionCategory, elig.ExclusionRule, elig.ExclusionReason, elig.ExclusionDetail)
	}
	if card.Excluded {
		return excludedPlacement(f, card.ExclusionCategory, card.ExclusionRule, card.ExclusionReason, "")
	}

	if elig.State == StateConditional {
		return placement{bucket: bucketConditional, conditional: ConditionalFund{
			FundID:        f.ID,
			FundName:      f.Name,
			InstitutionID: f.InstitutionID,
			Track:         f.Track,
			Score:         card.Score,
			Missing:       elig.Missing,
			Adjustments:   card.Adjustments,
			Notes:         notes(f),
		}}
	}

	if card.Score < minScore {
		return excludedPlacement(f, CategoryBelowThreshold, "min_score",
			fmt.Sprintf("점수 %d점, 기준 %d점 미만", card.Score, minScore), "")
	}

	return placement{bucket: bucketCandidate, candidate: candidate{
		fund:     f,
		index:    index,
		card:     card,
		scaleFit: scaleFit,
	}}
}

func excludedPlacement(f *catalog.PolicyFundKnowledge, category ExclusionCategory, rule, reason, detail string) placement {
	return placement{bucket: bucketExcluded, excluded: excludedFund(f, category, rule, reason, detail)}
}

func excludedFund(f *catalog.PolicyFundKnowledge, category ExclusionCategory, rule, reason, detail string) ExcludedFund {
	return ExcludedFund{
		FundID:        f.ID,
		FundName:      f.Name,
		InstitutionID: f.InstitutionID,
		Track:         f.Track,
		Category:      category,
		Rule:          rule,
		Reason:        reason,
		Detail:        detail,
	}
}

// Confidence labels a matched fund: exclusive funds always get the top label
func Confidence(track catalog.Track, score int) ConfidenceLabel {
	switch {
	case track == catalog.TrackExclusive:
		return ConfidenceExclusivePriority
	case score >= ConfidenceStrongMin:
		return ConfidenceStrong
	case score >= ConfidenceAlternativeMin:
		return ConfidenceAlternative
	default:
		return ConfidenceFallback
	}
}

func notes(f *catalog.PolicyFundKnowledge) []string {
	if len(f.Criteria.AdditionalRequirements) == 0 {
		return nil
	}
	out := make([]string, len(f.Criteria.AdditionalRequirements))
	for i, r := range f.Criteria.AdditionalRequirements {
		out[i] = "추가 요건: " + r
	}
	return out
}
