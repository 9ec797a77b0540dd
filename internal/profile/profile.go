package profile

import (
	"time"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
)

// Delinquency is the applicant's tax/credit arrears state
type Delinquency string

const (
	DelinquencyNone      Delinquency = "none"
	DelinquencyResolving Delinquency = "resolving"
	DelinquencyActive    Delinquency = "active"
)

// FundingPurpose is the request-side purpose, which may name both purposes
type FundingPurpose string

const (
	FundingWorkingCapital FundingPurpose = "working_capital"
	FundingFacility       FundingPurpose = "facility"
	FundingBoth           FundingPurpose = "both"
)

// OwnerTrait compresses owner-characteristic flags into one value
type OwnerTrait string

const (
	OwnerYouth    OwnerTrait = "youth"
	OwnerFemale   OwnerTrait = "female"
	OwnerDisabled OwnerTrait = "disabled"
	OwnerNone     OwnerTrait = "none"
)

// StatusFlags are the applicant's self-reported statuses; nil means unanswered
type StatusFlags struct {
	VentureCertified          *bool `json:"venture_certified,omitempty"`
	InnobizCertified          *bool `json:"innobiz_certified,omitempty"`
	MainbizCertified          *bool `json:"mainbiz_certified,omitempty"`
	FemaleOwned               *bool `json:"female_owned,omitempty"`
	DisabledOwned             *bool `json:"disabled_owned,omitempty"`
	DisabledStandardWorkplace *bool `json:"disabled_standard_workplace,omitempty"`
	SocialEnterprise          *bool `json:"social_enterprise,omitempty"`
	RestartAfterFailure       *bool `json:"restart_after_failure,omitempty"`
	YouthOwned                *bool `json:"youth_owned,omitempty"`
	RnDActive                 *bool `json:"rnd_active,omitempty"`
	ExportActive              *bool `json:"export_active,omitempty"`
	PatentHolding             *bool `json:"patent_holding,omitempty"`
}

func (s StatusFlags) byStatus() map[catalog.Status]*bool {
	return map[catalog.Status]*bool{
		catalog.StatusVentureCertified:          s.VentureCertified,
		catalog.StatusInnobizCertified:          s.InnobizCertified,
		catalog.StatusMainbizCertified:          s.MainbizCertified,
		catalog.StatusFemaleOwned:               s.FemaleOwned,
		catalog.StatusDisabledOwned:             s.DisabledOwned,
		catalog.StatusDisabledStandardWorkplace: s.DisabledStandardWorkplace,
		catalog.StatusSocialEnterprise:          s.SocialEnterprise,
		catalog.StatusRestartAfterFailure:       s.RestartAfterFailure,
		catalog.StatusYouthOwned:                s.YouthOwned,
		catalog.StatusRnDActive:                 s.RnDActive,
		catalog.StatusExportActive:              s.ExportActive,
		catalog.StatusPatentHolding:             s.PatentHolding,
	}
}

// SituationFlags are adverse situations funds may exclude outright
type SituationFlags struct {
	CapitalImpaired   bool `json:"capital_impaired"`
	BusinessSuspended bool `json:"business_suspended"`
	FinancialDefault  bool `json:"financial_default"`
}

// Usage counts prior use of one institution's programs
type Usage struct {
	Count      int        `json:"count"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

// CompanyProfile is the application-facing profile as submitted
type CompanyProfile struct {
	Name     string           `json:"name"`
	Industry catalog.Industry `json:"industry"`
	Region   string           `json:"region,omitempty"`

	BusinessAgeYears *float64 `json:"business_age_years"`
	AnnualRevenue    *int64   `json:"annual_revenue"`
	EmployeeCount    *int     `json:"employee_count"`
	DebtRatio        *float64 `json:"debt_ratio,omitempty"`

	Status    StatusFlags    `json:"status"`
	Situation SituationFlags `json:"situation"`

	RequestedAmount     int64            `json:"requested_amount,omitempty"`
	FundingPurpose      FundingPurpose   `json:"funding_purpose,omitempty"`
	ExistingLoanBalance int64            `json:"existing_loan_balance,omitempty"`
	RecentSubsidy       int64            `json:"recent_subsidy,omitempty"`
	PriorUsage          map[string]Usage `json:"prior_usage,omitempty"`
	PlanningEquityRaise bool             `json:"planning_equity_raise,omitempty"`
	Delinquency         Delinquency      `json:"delinquency,omitempty"`
}

// Normalized is the canonical profile the rule evaluators consume
type Normalized struct {
	Name     string
	Region   string
	Industry catalog.Industry

	Scale      catalog.ScaleBucket
	BaseScale  catalog.ScaleBucket
	OwnerTrait OwnerTrait

	BusinessAgeYears float64
	AnnualRevenue    int64
	EmployeeCount    int
	DebtRatio        *float64

	Statuses   map[catalog.Status]bool
	Unanswered map[catalog.Status]bool
	Situations map[catalog.Situation]bool

	RequestedAmount     int64
	Purposes            []catalog.Purpose
	ExistingLoanBalance int64
	RecentSubsidy       int64
	PriorUsage          map[string]Usage
	PlanningEquityRaise bool
	Delinquency         Delinquency
}

// Has reports whether the applicant holds status s
func (n *Normalized) Has(s catalog.Status) bool {
	return n.Statuses[s]
}

// IsUnanswered reports whether the applicant left status s blank
func (n *Normalized) IsUnanswered(s catalog.Status) bool {
	return n.Unanswered[s]
}

// InSituation reports whether situation s applies
func (n *Normalized) InSituation(s catalog.Situation) bool {
	return n.Situations[s]
}

// OnCertificationTrack reports whether Scale came from a certification override
func (n *Normalized) OnCertificationTrack() bool {
	return n.Scale.IsCertificationTrack()
}

// UsageOf returns prior usage of one institution's programs
func (n *Normalized) UsageOf(institutionID string) Usage {
	return n.PriorUsage[institutionID]
}

// HeldStatuses lists held statuses in canonical order
func (n *Normalized) HeldStatuses() []catalog.Status {
	var out []catalog.Status
	for _, s := range catalog.AllStatuses {
		if n.Statuses[s] {
			out = append(out, s)
		}
	}
	return out
}
