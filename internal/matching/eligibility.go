package matching

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// ReasonScaleNotMet is the fixed reason text of a failed scale gate
const ReasonScaleNotMet = "기업규모 미충족"

// How an applicant proves a status the profile left blank
var howToConfirm = map[catalog.Status]string{
	catalog.StatusVentureCertified:          "벤처기업확인서 제출",
	catalog.StatusInnobizCertified:          "이노비즈(기술혁신형 중소기업) 확인서 제출",
	catalog.StatusMainbizCertified:          "메인비즈(경영혁신형 중소기업) 확인서 제출",
	catalog.StatusFemaleOwned:               "여성기업확인서 제출",
	catalog.StatusDisabledOwned:             "장애인기업확인서 제출",
	catalog.StatusDisabledStandardWorkplace: "장애인표준사업장 인증서 제출",
	catalog.StatusSocialEnterprise:          "사회적기업 인증서 제출",
	catalog.StatusRestartAfterFailure:       "폐업사실증명원 등 재창업 확인 서류 제출",
	catalog.StatusYouthOwned:                "대표자 신분증 사본(연령 확인) 제출",
	catalog.StatusRnDActive:                 "기업부설연구소 인정서 또는 R&D 수행 실적 제출",
	catalog.StatusExportActive:              "수출실적증명서 제출",
	catalog.StatusPatentHolding:             "특허등록원부 제출",
}

const (
	delinquencyResolveStep = "체납 해소 후 납세증명서 제출"
	debtRatioConfirmStep   = "최근 결산 재무제표(재무상태표) 제출"
)

type eligibilityBuilder struct {
	r        EligibilityResult
	unknowns int
	firstBad *CheckResult
}

func (b *eligibilityBuilder) add(c CheckResult) {
	b.r.Checks = append(b.r.Checks, c)
	switch c.State {
	case CheckPass:
		b.r.Passed = append(b.r.Passed, c.Description)
	case CheckFail:
		b.r.Failed = append(b.r.Failed, c.Description)
		if b.firstBad == nil {
			cc := c
			b.firstBad = &cc
		}
	case CheckUnknown:
		b.unknowns++
	}
}

func (b *eligibilityBuilder) missing(condition, how string) {
	b.r.Missing = append(b.r.Missing, MissingCondition{Condition: condition, HowToConfirm: how})
}

func (b *eligibilityBuilder) exclude(category ExclusionCategory, rule, reason string) EligibilityResult {
	b.r.State = StateExcluded
	b.r.Eligible = false
	b.r.BaseScore = 0
	b.r.ExclusionCategory = category
	b.r.ExclusionRule = rule
	b.r.ExclusionReason = reason
	if n := len(b.r.Failed); n > 0 && b.r.Failed[n-1] != reason {
		b.r.ExclusionDetail = b.r.Failed[n-1]
	}
	return b.r
}

// EvaluateEligibility decides whether n can in principle apply to f and itemizes why.
// Absolute exclusions and the scale gate short-circuit; numeric ranges and required
// conditions are all evaluated so the rationale is complete.
func EvaluateEligibility(n *profile.Normalized, f *catalog.PolicyFundKnowledge) EligibilityResult {
	b := &eligibilityBuilder{r: EligibilityResult{
		FundID: f.ID,
		Passed: []string{},
		Failed: []string{},
	}}
	c := f.Criteria

	// 1. absolute exclusions
	if n.Delinquency == profile.DelinquencyActive {
		desc := "국세·지방세 체납 중으로 신청 불가"
		b.add(CheckResult{Rule: "delinquency_active", Label: "체납 여부", State: CheckFail, Description: desc})
		return b.exclude(CategoryDelinquency, "delinquency_active", desc)
	}
	for _, ind := range c.ExcludedIndustries {
		if ind == n.Industry {
			desc := fmt.Sprintf("지원 제외 업종: %s", ind.Label())
			b.add(CheckResult{Rule: "excluded_industry", Label: "제외 업종", State: CheckFail, Description: desc})
			return b.exclude(CategoryHardExclusion, "excluded_industry:"+string(ind), desc)
		}
	}
	if len(c.AllowedIndustries) > 0 && !containsIndustry(c.AllowedIndustries, n.Industry) {
		desc := fmt.Sprintf("지원 대상 업종 아님: %s", n.Industry.Label())
		b.add(CheckResult{Rule: "industry_not_allowed", Label: "대상 업종", State: CheckFail, Description: desc})
		return b.exclude(CategoryHardExclusion, "industry_not_allowed", desc)
	}
	for _, s := range c.ExcludedSituations {
		if n.InSituation(s) {
			desc := fmt.Sprintf("지원 제외 대상: %s", s.Label())
			b.add(CheckResult{Rule: "excluded_situation", Label: "제외 사유", State: CheckFail, Description: desc})
			return b.exclude(CategoryHardExclusion, "excluded_situation:"+string(s), desc)
		}
	}
	b.add(CheckResult{Rule: "absolute_exclusions", Label: "절대 제외 요건", State: CheckPass,
		Description: "체납·제외 업종·제외 사유 해당 없음"})

	// 2. scale gate
	if len(f.TargetScale) > 0 {
		if ScaleFit(n, f) == 0 {
			b.add(CheckResult{Rule: "target_scale", Label: "기업규모", State: CheckFail,
				Description: fmt.Sprintf("%s (대상: %s, 현재: %s)", ReasonScaleNotMet, joinScales(f.TargetScale), n.Scale)})
			return b.exclude(CategoryScaleNotMet, "target_scale", ReasonScaleNotMet)
		}
		b.add(CheckResult{Rule: "target_scale", Label: "기업규모", State: CheckPass,
			Description: fmt.Sprintf("기업규모 충족 (대상: %s, 현재: %s)", joinScales(f.TargetScale), n.Scale)})
	}

	// 3. numeric ranges
	checkRange(b, "business_age_range", "업력", c.BusinessAge, n.BusinessAgeYears, formatYears)
	checkRange(b, "revenue_range", "매출액", c.Revenue, float64(n.AnnualRevenue), formatWonFloat)
	checkRange(b, "employee_range", "상시근로자 수", c.Employees, float64(n.EmployeeCount), formatHeadcount)
	if !c.DebtRatio.IsZero() {
		if n.DebtRatio == nil {
			b.add(CheckResult{Rule: "debt_ratio_range", Label: "부채비율", State: CheckUnknown,
				Description: fmt.Sprintf("부채비율 미확인 (기준: %s)", c.DebtRatio.Describe(formatPercent))})
			b.missing("부채비율 확인", debtRatioConfirmStep)
		} else {
			checkRange(b, "debt_ratio_range", "부채비율", c.DebtRatio, *n.DebtRatio, formatPercent)
		}
	}

	// 4. required conditions
	for _, cond := range c.RequiredConditions {
		label := cond.Label
		if label == "" {
			label = cond.Status.Label()
		}
		rule := "required:" + string(cond.Status)
		switch {
		case n.Has(cond.Status):
			b.add(CheckResult{Rule: rule, Label: label, State: CheckPass, Description: label + " 충족"})
		case n.IsUnanswered(cond.Status):
			b.add(CheckResult{Rule: rule, Label: label, State: CheckUnknown, Description: label + " 여부 미확인"})
			b.missing(label+" 확인", howToConfirm[cond.Status])
		default:
			b.add(CheckResult{Rule: rule, Label: label, State: CheckFail, Description: label + " 미충족"})
		}
	}

	if b.firstBad != nil {
		return b.exclude(CategoryRequirementNotMet, b.firstBad.Rule, b.firstBad.Description)
	}
	if b.unknowns > MaxUnknownsForConditional {
		return b.exclude(CategoryInsufficientEvidence, "unknown_conditions",
			fmt.Sprintf("확인되지 않은 필수 요건 %d건", b.unknowns))
	}

	b.r.State = StateEligible
	if b.unknowns > 0 {
		b.r.State = StateConditional
	}

	// 5. delinquency soft state
	if n.Delinquency == profile.DelinquencyResolving {
		b.add(CheckResult{Rule: "delinquency_resolving", Label: "체납 여부", State: CheckUnknown,
			Description: "체납 해소 진행 중"})
		b.missing("체납 해소", delinquencyResolveStep)
		b.r.State = StateConditional
	}

	// 6. bonus-only conditions
	for _, bc := range c.BonusConditions {
		if !n.Has(bc.Status) {
			continue
		}
		label := bc.Label
		if label == "" {
			label = bc.Status.Label()
		}
		b.add(CheckResult{Rule: "bonus:" + string(bc.Status), Label: label, State: CheckBonus,
			Description: fmt.Sprintf("%s (+%d)", label, bc.Points), Points: bc.Points})
	}

	b.r.Eligible = b.r.State == StateEligible
	b.r.BaseScore = BaseScoreEligible
	return b.r
}

// ScaleFit grades how the profile's scale bucket meets targetScale: exact,
// via the certification track's base bucket, generic (no targetScale) or 0 for no fit.
func ScaleFit(n *profile.Normalized, f *catalog.PolicyFundKnowledge) int {
	if len(f.TargetScale) == 0 {
		return ScaleFitGeneric
	}
	if f.TargetsScale(n.Scale) {
		return ScaleFitExact
	}
	if n.OnCertificationTrack() && f.TargetsScale(n.BaseScale) {
		return ScaleFitCertification
	}
	return 0
}

func checkRange(b *eligibilityBuilder, rule, label string, r catalog.Range, v float64, format func(float64) string) {
	if r.IsZero() {
		return
	}
	state := CheckPass
	if !r.Contains(v) {
		state = CheckFail
	}
	b.add(CheckResult{
		Rule:        rule,
		Label:       label,
		State:       state,
		Description: fmt.Sprintf("%s %s (기준: %s)", label, format(v), r.Describe(format)),
	})
}

func containsIndustry(list []catalog.Industry, ind catalog.Industry) bool {
	for _, i := range list {
		if i == ind {
			return true
		}
	}
	return false
}

func joinScales(scales []catalog.ScaleBucket) string {
	parts := make([]string, len(scales))
	for i, s := range scales {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}

func formatYears(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "년"
}

func formatWonFloat(v float64) string {
	return catalog.FormatWon(int64(v))
}

func formatHeadcount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "명"
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64) + "%"
}
