package matching

import (
	"sort"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// ScoreCard is the running result the scoring pipeline threads through its evaluators
type ScoreCard struct {
	FundID      string
	Eligibility EligibilityResult
	Score       int
	Adjustments []Adjustment

	Excluded          bool
	ExclusionCategory ExclusionCategory
	ExclusionRule     string
	ExclusionReason   string
}

// NewScoreCard starts a card from the eligibility base score
func NewScoreCard(e EligibilityResult) ScoreCard {
	return ScoreCard{FundID: e.FundID, Eligibility: e, Score: e.BaseScore}
}

// Evaluator is one named, independent scoring rule
type Evaluator interface {
	Name() string
	// Priority orders evaluators; lower runs first
	Priority() int
	// Applies is the relevance guard; a false result skips Evaluate
	Applies(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool
	Evaluate(card ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment
}

// Pipeline composes evaluators in priority order
type Pipeline struct {
	evaluators []Evaluator
}

// NewPipeline sorts evaluators by Priority; ties keep the given order
func NewPipeline(evaluators ...Evaluator) *Pipeline {
	sorted := make([]Evaluator, len(evaluators))
	copy(sorted, evaluators)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return &Pipeline{evaluators: sorted}
}

// Evaluators returns the composition order
func (p *Pipeline) Evaluators() []Evaluator {
	out := make([]Evaluator, len(p.evaluators))
	copy(out, p.evaluators)
	return out
}

// Run applies every relevant evaluator to card. Scores merge additively and
// every adjustment is kept; an exclusion stops the remaining evaluators.
func (p *Pipeline) Run(card ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) ScoreCard {
	for _, ev := range p.evaluators {
		if card.Excluded {
			break
		}
		if !ev.Applies(n, f) {
			continue
		}
		for _, adj := range ev.Evaluate(card, n, f) {
			if adj.Evaluator == "" {
				adj.Evaluator = ev.Name()
			}
			card = apply(card, adj)
		}
	}
	return card
}

func apply(card ScoreCard, adj Adjustment) ScoreCard {
	adjs := make([]Adjustment, len(card.Adjustments), len(card.Adjustments)+1)
	copy(adjs, card.Adjustments)
	card.Adjustments = append(adjs, adj)

	switch adj.Kind {
	case AdjustBonus, AdjustPenalty:
		card.Score += adj.Points
	case AdjustExclusion:
		card.Excluded = true
		card.ExclusionCategory = adj.Category
		if card.ExclusionCategory == "" {
			card.ExclusionCategory = CategoryHardExclusion
		}
		card.ExclusionRule = adj.Evaluator
		card.ExclusionReason = adj.Reason
	}
	return card
}
