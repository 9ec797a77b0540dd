package matching

import (
	"fmt"
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// DefaultEvaluators returns the standard evaluator set. asOf anchors the
// recent-use window; a zero asOf disables that check.
func DefaultEvaluators(asOf time.Time) []Evaluator {
	return []Evaluator{
		GraduationEvaluator{AsOf: asOf},
		DebtLoadEvaluator{},
		BenefitConcentrationEvaluator{},
		PurposeMatchEvaluator{},
		ConflictRulesEvaluator{Rules: DefaultConflictRules},
		DebtRatioEvaluator{},
		BonusConditionsEvaluator{},
		ExclusiveStatusEvaluator{},
	}
}

// GraduationEvaluator enforces the per-institution usage cap
type GraduationEvaluator struct {
	AsOf time.Time
}

func (GraduationEvaluator) Name() string  { return "graduation" }
func (GraduationEvaluator) Priority() int { return 10 }

func (GraduationEvaluator) Applies(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	u := n.UsageOf(f.InstitutionID)
	return u.Count > 0 || u.LastUsedAt != nil
}

func (g GraduationEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment {
	u := n.UsageOf(f.InstitutionID)
	var out []Adjustment

	switch {
	case u.Count >= GraduationLimit:
		return []Adjustment{{
			Kind:     AdjustExclusion,
			Category: CategoryGraduation,
			Reason:   fmt.Sprintf("졸업제 적용: 동일 기관 정책자금 %d회 이용 (한도 %d회)", u.Count, GraduationLimit),
		}}
	case u.Count == GraduationLimit-1:
		out = append(out, Adjustment{
			Kind:   AdjustPenalty,
			Points: GraduationPenalty,
			Reason: fmt.Sprintf("졸업제 임박: 동일 기관 %d회 이용", u.Count),
		})
	case u.Count == GraduationLimit-2:
		out = append(out, Adjustment{
			Kind:   AdjustWarning,
			Reason: fmt.Sprintf("졸업제 주의: 동일 기관 %d회 이용", u.Count),
		})
	}

	if !g.AsOf.IsZero() && u.LastUsedAt != nil && !u.LastUsedAt.After(g.AsOf) &&
		g.AsOf.Sub(*u.LastUsedAt) <= RecentUseWindowDays*24*time.Hour {
		out = append(out, Adjustment{
			Kind:   AdjustPenalty,
			Points: RecentUsePenalty,
			Reason: fmt.Sprintf("최근 %d일 이내 동일 기관 이용 (%s)", RecentUseWindowDays, u.LastUsedAt.Format("2006-01-02")),
		})
	}
	return out
}

// DebtLoadEvaluator penalizes large existing balances, direct loans harder than guarantees
type DebtLoadEvaluator struct{}

func (DebtLoadEvaluator) Name() string  { return "debt_load" }
func (DebtLoadEvaluator) Priority() int { return 20 }

func (DebtLoadEvaluator) Applies(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return f.InstitutionKind.ExtendsCredit() && n.ExistingLoanBalance > 0
}

func (DebtLoadEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment {
	for _, tier := range debtLoadTiers {
		if n.ExistingLoanBalance < tier.minBalance {
			continue
		}
		points := tier.direct
		product := "직접대출"
		if f.Product == catalog.ProductGuarantee {
			points = tier.guarantee
			product = "보증"
		}
		return []Adjustment{{
			Kind:   AdjustPenalty,
			Points: points,
			Reason: fmt.Sprintf("기존 대출잔액 %s (%s 이상, %s 상품)",
				catalog.FormatWon(n.ExistingLoanBalance), catalog.FormatWon(tier.minBalance), product),
		}}
	}
	return nil
}

// BenefitConcentrationEvaluator penalizes heavy recent subsidy relative to revenue
type BenefitConcentrationEvaluator struct{}

func (BenefitConcentrationEvaluator) Name() string  { return "benefit_concentration" }
func (BenefitConcentrationEvaluator) Priority() int { return 30 }

func (BenefitConcentrationEvaluator) Applies(n *profile.Normalized, _ *catalog.PolicyFundKnowledge) bool {
	return n.RecentSubsidy > 0
}

func (BenefitConcentrationEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, _ *catalog.PolicyFundKnowledge) []Adjustment {
	if n.AnnualRevenue == 0 {
		if n.RecentSubsidy >= UnknownRevenueSubsidyLimit {
			return []Adjustment{{
				Kind:   AdjustPenalty,
				Points: UnknownRevenueSubsidyPenalty,
				Reason: fmt.Sprintf("매출 미확인 상태에서 최근 정부지원 %s 수혜", catalog.FormatWon(n.RecentSubsidy)),
			}}
		}
		return nil
	}

	ratio := float64(n.RecentSubsidy) / float64(n.AnnualRevenue)
	for _, tier := range concentrationTiers {
		if ratio > tier.ratio {
			return []Adjustment{{
				Kind:   AdjustPenalty,
				Points: tier.points,
				Reason: fmt.Sprintf("매출 대비 최근 정부지원 비중 %.1f%% (%.0f%% 초과)", ratio*100, tier.ratio*100),
			}}
		}
	}
	return nil
}

// PurposeMatchEvaluator compares requested and supported funding purposes
type PurposeMatchEvaluator struct{}

func (PurposeMatchEvaluator) Name() string  { return "purpose_match" }
func (PurposeMatchEvaluator) Priority() int { return 40 }

func (PurposeMatchEvaluator) Applies(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return len(n.Purposes) > 0 && len(f.SupportedPurposes) > 0
}

func (PurposeMatchEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment {
	if samePurposes(n.Purposes, f.SupportedPurposes) {
		return []Adjustment{{
			Kind:   AdjustBonus,
			Points: PurposeExactBonus,
			Reason: fmt.Sprintf("자금 용도 일치 (%s)", describePurposes(f.SupportedPurposes)),
		}}
	}
	if len(f.SupportedPurposes) == 1 && len(n.Purposes) == 1 && n.Purposes[0] != f.SupportedPurposes[0] {
		return []Adjustment{{
			Kind:   AdjustPenalty,
			Points: PurposeMismatchPenalty,
			Reason: fmt.Sprintf("자금 용도 불일치 (신청: %s, 지원: %s)",
				describePurposes(n.Purposes), describePurposes(f.SupportedPurposes)),
		}}
	}
	return nil
}

// ConflictRule is a named, situationally contradictory combination
type ConflictRule struct {
	Name   string
	Points int
	Reason string
	Match  func(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool
}

// DefaultConflictRules are the listed mutual-exclusivity conflicts
var DefaultConflictRules = []ConflictRule{
	{
		Name:   "emergency_vs_equity_raise",
		Points: -20,
		Reason: "긴급경영안정자금 신청과 투자유치(지분 희석) 계획이 상충",
		Match: func(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
			return n.PlanningEquityRaise && f.HasTag(catalog.TagEmergencyStabilization)
		},
	},
	{
		Name:   "micro_program_vs_venture",
		Points: -25,
		Reason: "벤처기업 인증 보유 기업의 소상공인 전용 프로그램 신청",
		Match: func(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
			return n.Has(catalog.StatusVentureCertified) && f.HasTag(catalog.TagMicroEnterprise)
		},
	},
}

// ConflictRulesEvaluator applies every matching conflict rule
type ConflictRulesEvaluator struct {
	Rules []ConflictRule
}

func (ConflictRulesEvaluator) Name() string  { return "conflict_rules" }
func (ConflictRulesEvaluator) Priority() int { return 50 }

func (c ConflictRulesEvaluator) Applies(n *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return len(c.Rules) > 0
}

func (c ConflictRulesEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment {
	var out []Adjustment
	for _, rule := range c.Rules {
		if rule.Match(n, f) {
			out = append(out, Adjustment{
				Kind:   AdjustPenalty,
				Points: rule.Points,
				Reason: fmt.Sprintf("%s [%s]", rule.Reason, rule.Name),
			})
		}
	}
	return out
}

// DebtRatioEvaluator reacts to a known high debt ratio
type DebtRatioEvaluator struct{}

func (DebtRatioEvaluator) Name() string  { return "debt_ratio" }
func (DebtRatioEvaluator) Priority() int { return 60 }

func (DebtRatioEvaluator) Applies(n *profile.Normalized, _ *catalog.PolicyFundKnowledge) bool {
	return n.DebtRatio != nil
}

func (DebtRatioEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, _ *catalog.PolicyFundKnowledge) []Adjustment {
	ratio := *n.DebtRatio
	switch {
	case ratio > DebtRatioPenaltyAbove:
		return []Adjustment{{
			Kind:   AdjustPenalty,
			Points: DebtRatioPenalty,
			Reason: fmt.Sprintf("부채비율 %s (%.0f%% 초과)", formatPercent(ratio), DebtRatioPenaltyAbove),
		}}
	case ratio > DebtRatioWarnAbove:
		return []Adjustment{{
			Kind:   AdjustWarning,
			Reason: fmt.Sprintf("부채비율 %s (%.0f%% 초과, 심사 시 유의)", formatPercent(ratio), DebtRatioWarnAbove),
		}}
	}
	return nil
}

// BonusConditionsEvaluator turns satisfied bonus checks into score
type BonusConditionsEvaluator struct{}

func (BonusConditionsEvaluator) Name() string  { return "bonus_conditions" }
func (BonusConditionsEvaluator) Priority() int { return 70 }

func (BonusConditionsEvaluator) Applies(_ *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return len(f.Criteria.BonusConditions) > 0
}

func (BonusConditionsEvaluator) Evaluate(card ScoreCard, _ *profile.Normalized, _ *catalog.PolicyFundKnowledge) []Adjustment {
	var out []Adjustment
	for _, c := range card.Eligibility.Checks {
		if c.State != CheckBonus {
			continue
		}
		out = append(out, Adjustment{Kind: AdjustBonus, Points: c.Points, Reason: c.Description})
	}
	return out
}

// ExclusiveStatusEvaluator lifts exclusive funds whose required statuses the applicant holds
type ExclusiveStatusEvaluator struct{}

func (ExclusiveStatusEvaluator) Name() string  { return "exclusive_status_priority" }
func (ExclusiveStatusEvaluator) Priority() int { return 80 }

func (ExclusiveStatusEvaluator) Applies(_ *profile.Normalized, f *catalog.PolicyFundKnowledge) bool {
	return f.Track == catalog.TrackExclusive && len(f.Criteria.RequiredConditions) > 0
}

func (ExclusiveStatusEvaluator) Evaluate(_ ScoreCard, n *profile.Normalized, f *catalog.PolicyFundKnowledge) []Adjustment {
	var held []catalog.Status
	for _, c := range f.Criteria.RequiredConditions {
		if !n.Has(c.Status) {
			return nil
		}
		held = append(held, c.Status)
	}
	return []Adjustment{{
		Kind:   AdjustBonus,
		Points: ExclusiveStatusBonus,
		Reason: fmt.Sprintf("전용자금 자격 보유: %s", describeStatuses(held)),
	}}
}

func samePurposes(a, b []catalog.Purpose) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[catalog.Purpose]bool, len(a))
	for _, p := range a {
		set[p] = true
	}
	for _, p := range b {
		if !set[p] {
			return false
		}
	}
	return true
}

var purposeLabels = map[catalog.Purpose]string{
	catalog.PurposeWorkingCapital: "운전자금",
	catalog.PurposeFacility:       "시설자금",
}

func describePurposes(ps []catalog.Purpose) string {
	out := ""
	for i, p := range ps {
		if i > 0 {
			out += "·"
		}
		out += purposeLabels[p]
	}
	return out
}
