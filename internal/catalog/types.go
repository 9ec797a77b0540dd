package catalog

import (
	"fmt"
	"strconv"
)

// Track is the coarse category a fund belongs to
type Track string

const (
	TrackExclusive    Track = "exclusive"
	TrackPolicyLinked Track = "policy_linked"
	TrackGeneral      Track = "general"
	TrackGuarantee    Track = "guarantee"
)

// AllTracks lists every track in canonical order
var AllTracks = []Track{TrackExclusive, TrackPolicyLinked, TrackGeneral, TrackGuarantee}

// Purpose is what the requested money is for
type Purpose string

const (
	PurposeWorkingCapital Purpose = "working_capital"
	PurposeFacility       Purpose = "facility"
)

// ScaleBucket is the resolved company-scale bucket
type ScaleBucket string

const (
	ScaleMicro        ScaleBucket = "micro"
	ScaleSmall        ScaleBucket = "small"
	ScaleMedium       ScaleBucket = "medium"
	ScaleVentureTrack ScaleBucket = "venture_track"
	ScaleInnobizTrack ScaleBucket = "innobiz_track"
	ScaleMainbizTrack ScaleBucket = "mainbiz_track"
)

// IsCertificationTrack reports whether the bucket came from a certification override
func (s ScaleBucket) IsCertificationTrack() bool {
	return s == ScaleVentureTrack || s == ScaleInnobizTrack || s == ScaleMainbizTrack
}

// ProductType distinguishes direct loans from guarantees
type ProductType string

const (
	ProductDirectLoan ProductType = "direct_loan"
	ProductGuarantee  ProductType = "guarantee"
)

// InstitutionKind says what an issuing institution extends
type InstitutionKind string

const (
	KindDirectLender InstitutionKind = "direct_lender"
	KindGuarantor    InstitutionKind = "guarantor"
	KindGrantAgency  InstitutionKind = "grant_agency"
)

// ExtendsCredit reports whether the institution lends or guarantees
func (k InstitutionKind) ExtendsCredit() bool {
	return k == KindDirectLender || k == KindGuarantor
}

// FundTag marks situational families of funds referenced by conflict rules
type FundTag string

const (
	TagEmergencyStabilization FundTag = "emergency_stabilization"
	TagMicroEnterprise        FundTag = "micro_enterprise"
	TagStartup                FundTag = "startup"
	TagExport                 FundTag = "export"
	TagRestart                FundTag = "restart"
)

// Industry is the enumerated industry category of an applicant
type Industry string

const (
	IndustryManufacturing     Industry = "manufacturing"
	IndustryConstruction      Industry = "construction"
	IndustryLogistics         Industry = "logistics"
	IndustryWholesaleRetail   Industry = "wholesale_retail"
	IndustryFoodService       Industry = "food_service"
	IndustryITServices        Industry = "it_services"
	IndustryKnowledgeServices Industry = "knowledge_services"
	IndustryTourism           Industry = "tourism"
	IndustryAgriculture       Industry = "agriculture"
	IndustryGambling          Industry = "gambling"
	IndustryRealEstate        Industry = "real_estate"
	IndustryFinance           Industry = "finance"
	IndustryEntertainment     Industry = "entertainment"
	IndustryOther             Industry = "other"
)

var industryLabels = map[Industry]string{
	IndustryManufacturing:     "제조업",
	IndustryConstruction:      "건설업",
	IndustryLogistics:         "운수·물류업",
	IndustryWholesaleRetail:   "도소매업",
	IndustryFoodService:       "음식점업",
	IndustryITServices:        "정보통신업",
	IndustryKnowledgeServices: "지식서비스업",
	IndustryTourism:           "관광업",
	IndustryAgriculture:       "농림어업",
	IndustryGambling:          "사행시설 관리 및 운영업",
	IndustryRealEstate:        "부동산업",
	IndustryFinance:           "금융·보험업",
	IndustryEntertainment:     "유흥주점업",
	IndustryOther:             "기타",
}

// Valid reports whether i is a known industry
func (i Industry) Valid() bool {
	_, ok := industryLabels[i]
	return ok
}

// Label returns the Korean display name
func (i Industry) Label() string {
	if l, ok := industryLabels[i]; ok {
		return l
	}
	return string(i)
}

// Status is a boolean fact about the applicant that criteria can require or reward
type Status string

const (
	StatusVentureCertified          Status = "venture_certified"
	StatusInnobizCertified          Status = "innobiz_certified"
	StatusMainbizCertified          Status = "mainbiz_certified"
	StatusFemaleOwned               Status = "female_owned"
	StatusDisabledOwned             Status = "disabled_owned"
	StatusDisabledStandardWorkplace Status = "disabled_standard_workplace"
	StatusSocialEnterprise          Status = "social_enterprise"
	StatusRestartAfterFailure       Status = "restart_after_failure"
	StatusYouthOwned                Status = "youth_owned"
	StatusRnDActive                 Status = "rnd_active"
	StatusExportActive              Status = "export_active"
	StatusPatentHolding             Status = "patent_holding"
)

// AllStatuses fixes iteration order wherever statuses are listed
var AllStatuses = []Status{
	StatusVentureCertified,
	StatusInnobizCertified,
	StatusMainbizCertified,
	StatusFemaleOwned,
	StatusDisabledOwned,
	StatusDisabledStandardWorkplace,
	StatusSocialEnterprise,
	StatusRestartAfterFailure,
	StatusYouthOwned,
	StatusRnDActive,
	StatusExportActive,
	StatusPatentHolding,
}

var statusLabels = map[Status]string{
	StatusVentureCertified:          "벤처기업 인증",
	StatusInnobizCertified:          "이노비즈 인증",
	StatusMainbizCertified:          "메인비즈 인증",
	StatusFemaleOwned:               "여성기업",
	StatusDisabledOwned:             "장애인기업",
	StatusDisabledStandardWorkplace: "장애인표준사업장",
	StatusSocialEnterprise:          "사회적기업",
	StatusRestartAfterFailure:       "재창업기업",
	StatusYouthOwned:                "청년 대표자",
	StatusRnDActive:                 "R&D 수행",
	StatusExportActive:              "수출 실적",
	StatusPatentHolding:             "특허 보유",
}

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the Korean display name
func (s Status) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// Situation is an adverse owner/company situation a fund may exclude
type Situation string

const (
	SituationCapitalImpaired   Situation = "capital_impaired"
	SituationBusinessSuspended Situation = "business_suspended"
	SituationFinancialDefault  Situation = "financial_default"
)

var situationLabels = map[Situation]string{
	SituationCapitalImpaired:   "완전자본잠식",
	SituationBusinessSuspended: "휴·폐업",
	SituationFinancialDefault:  "금융기관 연체·부실",
}

// Valid reports whether s is a known situation
func (s Situation) Valid() bool {
	_, ok := situationLabels[s]
	return ok
}

// Label returns the Korean display name
func (s Situation) Label() string {
	if l, ok := situationLabels[s]; ok {
		return l
	}
	return string(s)
}

// Range is a numeric bound pair; a nil side means no constraint
type Range struct {
	Min          *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max          *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	MaxExclusive bool     `json:"max_exclusive,omitempty" yaml:"max_exclusive,omitempty"`
}

// IsZero reports whether the range constrains nothing
func (r Range) IsZero() bool {
	return r.Min == nil && r.Max == nil
}

// Contains reports whether v satisfies both bounds. Min is inclusive.
func (r Range) Contains(v float64) bool {
	if r.Min != nil && v < *r.Min {
		return false
	}
	if r.Max != nil {
		if r.MaxExclusive && v >= *r.Max {
			return false
		}
		if !r.MaxExclusive && v > *r.Max {
			return false
		}
	}
	return true
}

// Inverted reports a range whose lower bound exceeds its upper bound
func (r Range) Inverted() bool {
	return r.Min != nil && r.Max != nil && *r.Min > *r.Max
}

// Describe renders the range with a value formatter, e.g. "7년 미만"
func (r Range) Describe(format func(float64) string) string {
	switch {
	case r.Min != nil && r.Max != nil:
		upper := "이하"
		if r.MaxExclusive {
			upper = "미만"
		}
		return fmt.Sprintf("%s 이상 %s %s", format(*r.Min), format(*r.Max), upper)
	case r.Min != nil:
		return format(*r.Min) + " 이상"
	case r.Max != nil:
		if r.MaxExclusive {
			return format(*r.Max) + " 미만"
		}
		return format(*r.Max) + " 이하"
	default:
		return "제한 없음"
	}
}

// Condition is a required boolean status
type Condition struct {
	Status Status `json:"status" yaml:"status"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// BonusCondition adds points when the applicant holds the status; it never fails
type BonusCondition struct {
	Status Status `json:"status" yaml:"status"`
	Points int    `json:"points" yaml:"points"`
	Label  string `json:"label,omitempty" yaml:"label,omitempty"`
}

// EligibilityCriteria is the declarative rule block interpreted by the matching engine
type EligibilityCriteria struct {
	BusinessAge            Range            `json:"business_age" yaml:"business_age"`
	Revenue                Range            `json:"revenue" yaml:"revenue"`
	Employees              Range            `json:"employees" yaml:"employees"`
	DebtRatio              Range            `json:"debt_ratio" yaml:"debt_ratio"`
	AllowedIndustries      []Industry       `json:"allowed_industries,omitempty" yaml:"allowed_industries,omitempty"`
	ExcludedIndustries     []Industry       `json:"excluded_industries,omitempty" yaml:"excluded_industries,omitempty"`
	ExcludedSituations     []Situation      `json:"excluded_situations,omitempty" yaml:"excluded_situations,omitempty"`
	RequiredConditions     []Condition      `json:"required_conditions,omitempty" yaml:"required_conditions,omitempty"`
	BonusConditions        []BonusCondition `json:"bonus_conditions,omitempty" yaml:"bonus_conditions,omitempty"`
	AdditionalRequirements []string         `json:"additional_requirements,omitempty" yaml:"additional_requirements,omitempty"`
}

// SupportTerms are the published loan/guarantee terms. Amounts are won, rates percent.
type SupportTerms struct {
	AmountMin         int64   `json:"amount_min" yaml:"amount_min"`
	AmountMax         int64   `json:"amount_max" yaml:"amount_max"`
	RateMin           float64 `json:"rate_min" yaml:"rate_min"`
	RateMax           float64 `json:"rate_max" yaml:"rate_max"`
	GuaranteeRatioMin float64 `json:"guarantee_ratio_min,omitempty" yaml:"guarantee_ratio_min,omitempty"`
	GuaranteeRatioMax float64 `json:"guarantee_ratio_max,omitempty" yaml:"guarantee_ratio_max,omitempty"`
}

// PolicyFundKnowledge is one program definition
type PolicyFundKnowledge struct {
	ID                string              `json:"id" yaml:"id"`
	InstitutionID     string              `json:"institution_id" yaml:"institution_id,omitempty"`
	Name              string              `json:"name" yaml:"name"`
	Track             Track               `json:"track" yaml:"track"`
	Product           ProductType         `json:"product" yaml:"product"`
	SupportedPurposes []Purpose           `json:"supported_purposes" yaml:"supported_purposes"`
	Criteria          EligibilityCriteria `json:"criteria" yaml:"criteria"`
	Terms             SupportTerms        `json:"terms" yaml:"terms"`
	TargetScale       []ScaleBucket       `json:"target_scale,omitempty" yaml:"target_scale,omitempty"`
	Tags              []FundTag           `json:"tags,omitempty" yaml:"tags,omitempty"`
	SpecialPurpose    bool                `json:"special_purpose,omitempty" yaml:"special_purpose,omitempty"`

	// Filled from the owning institution when the catalog is flattened
	InstitutionKind InstitutionKind `json:"institution_kind,omitempty" yaml:"-"`
}

// HasTag reports whether the fund carries tag
func (f *PolicyFundKnowledge) HasTag(tag FundTag) bool {
	for _, t := range f.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Supports reports whether the fund lends for purpose p
func (f *PolicyFundKnowledge) Supports(p Purpose) bool {
	for _, sp := range f.SupportedPurposes {
		if sp == p {
			return true
		}
	}
	return false
}

// TargetsScale reports whether s is listed in targetScale
func (f *PolicyFundKnowledge) TargetsScale(s ScaleBucket) bool {
	for _, t := range f.TargetScale {
		if t == s {
			return true
		}
	}
	return false
}

// Institution is an issuing body and its funds in catalog order
type Institution struct {
	ID    string                `json:"id" yaml:"id"`
	Name  string                `json:"name" yaml:"name"`
	Kind  InstitutionKind       `json:"kind" yaml:"kind"`
	Funds []PolicyFundKnowledge `json:"funds" yaml:"funds"`
}

// FormatWon renders an amount in 억/만 units for templates
func FormatWon(v int64) string {
	const eok = 100_000_000
	const man = 10_000
	switch {
	case v >= eok && v%eok == 0:
		return strconv.FormatInt(v/eok, 10) + "억원"
	case v >= eok:
		return strconv.FormatFloat(float64(v)/eok, 'f', 1, 64) + "억원"
	case v >= man && v%man == 0:
		return strconv.FormatInt(v/man, 10) + "만원"
	default:
		return strconv.FormatInt(v, 10) + "원"
	}
}
