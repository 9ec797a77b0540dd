package profile

import (
	"errors"
	"fmt"
	"sort"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
)

var (
	// ErrMissingField marks an absent required numeric field
	ErrMissingField = errors.New("required field is missing")
	// ErrInvalidValue marks a present but unusable field
	ErrInvalidValue = errors.New("invalid field value")
)

// FieldError names the profile field that failed normalization
type FieldError struct {
	Field string
	Err   error
	Value interface{}
}

func (e *FieldError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("%s: %v (%v)", e.Field, e.Err, e.Value)
	}
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldErrors extracts every FieldError from a Normalize error
func FieldErrors(err error) []*FieldError {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		return []*FieldError{fe}
	}
	var out []*FieldError
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, e := range joined.Unwrap() {
			out = append(out, FieldErrors(e)...)
		}
	}
	return out
}

// Normalize resolves a submitted profile into the canonical shape. It never
// guesses a missing required numeric; every problem is reported as a FieldError.
func Normalize(p CompanyProfile) (*Normalized, error) {
	var errs []error
	missing := func(field string) {
		errs = append(errs, &FieldError{Field: field, Err: ErrMissingField})
	}
	invalid := func(field string, v interface{}) {
		errs = append(errs, &FieldError{Field: field, Err: ErrInvalidValue, Value: v})
	}

	if p.BusinessAgeYears == nil {
		missing("business_age_years")
	} else if *p.BusinessAgeYears < 0 {
		invalid("business_age_years", *p.BusinessAgeYears)
	}
	if p.AnnualRevenue == nil {
		missing("annual_revenue")
	} else if *p.AnnualRevenue < 0 {
		invalid("annual_revenue", *p.AnnualRevenue)
	}
	if p.EmployeeCount == nil {
		missing("employee_count")
	} else if *p.EmployeeCount < 0 {
		invalid("employee_count", *p.EmployeeCount)
	}
	if p.DebtRatio != nil && *p.DebtRatio < 0 {
		invalid("debt_ratio", *p.DebtRatio)
	}

	for field, v := range map[string]int64{
		"requested_amount":      p.RequestedAmount,
		"existing_loan_balance": p.ExistingLoanBalance,
		"recent_subsidy":        p.RecentSubsidy,
	} {
		if v < 0 {
			invalid(field, v)
		}
	}
	for inst, u := range p.PriorUsage {
		if u.Count < 0 {
			invalid("prior_usage."+inst+".count", u.Count)
		}
	}

	industry := p.Industry
	if industry == "" {
		industry = catalog.IndustryOther
	}
	if !industry.Valid() {
		invalid("industry", p.Industry)
	}

	delinquency := p.Delinquency
	switch delinquency {
	case "":
		delinquency = DelinquencyNone
	case DelinquencyNone, DelinquencyResolving, DelinquencyActive:
	default:
		invalid("delinquency", p.Delinquency)
	}

	var purposes []catalog.Purpose
	switch p.FundingPurpose {
	case "":
	case FundingWorkingCapital:
		purposes = []catalog.Purpose{catalog.PurposeWorkingCapital}
	case FundingFacility:
		purposes = []catalog.Purpose{catalog.PurposeFacility}
	case FundingBoth:
		purposes = []catalog.Purpose{catalog.PurposeWorkingCapital, catalog.PurposeFacility}
	default:
		invalid("funding_purpose", p.FundingPurpose)
	}

	if len(errs) > 0 {
		sort.SliceStable(errs, func(i, j int) bool {
			return errs[i].(*FieldError).Field < errs[j].(*FieldError).Field
		})
		return nil, errors.Join(errs...)
	}

	n := &Normalized{
		Name:                p.Name,
		Region:              p.Region,
		Industry:            industry,
		BusinessAgeYears:    *p.BusinessAgeYears,
		AnnualRevenue:       *p.AnnualRevenue,
		EmployeeCount:       *p.EmployeeCount,
		DebtRatio:           p.DebtRatio,
		Statuses:            make(map[catalog.Status]bool),
		Unanswered:          make(map[catalog.Status]bool),
		Situations:          make(map[catalog.Situation]bool),
		RequestedAmount:     p.RequestedAmount,
		Purposes:            purposes,
		ExistingLoanBalance: p.ExistingLoanBalance,
		RecentSubsidy:       p.RecentSubsidy,
		PriorUsage:          make(map[string]Usage, len(p.PriorUsage)),
		PlanningEquityRaise: p.PlanningEquityRaise,
		Delinquency:         delinquency,
	}

	for s, v := range p.Status.byStatus() {
		switch {
		case v == nil:
			n.Unanswered[s] = true
		case *v:
			n.Statuses[s] = true
		}
	}
	if p.Situation.CapitalImpaired {
		n.Situations[catalog.SituationCapitalImpaired] = true
	}
	if p.Situation.BusinessSuspended {
		n.Situations[catalog.SituationBusinessSuspended] = true
	}
	if p.Situation.FinancialDefault {
		n.Situations[catalog.SituationFinancialDefault] = true
	}
	for inst, u := range p.PriorUsage {
		n.PriorUsage[inst] = u
	}

	n.BaseScale = BaseScale(n.Industry, n.AnnualRevenue, n.EmployeeCount, n.BusinessAgeYears)
	n.Scale = resolveScale(n.BaseScale, n.Statuses)
	n.OwnerTrait = resolveOwnerTrait(n.Statuses)

	return n, nil
}

// BaseScale buckets a company from its numbers alone
func BaseScale(industry catalog.Industry, revenue int64, employees int, ageYears float64) catalog.ScaleBucket {
	microEmployees := MicroEmployeesOther
	if laborIntensiveIndustries[industry] {
		microEmployees = MicroEmployeesLaborIntensive
	}

	if employees < microEmployees && revenue < MicroRevenueLimit {
		return catalog.ScaleMicro
	}
	if ageYears < NewBusinessAgeYears && revenue < NewBusinessMicroRevenueLimit {
		return catalog.ScaleMicro
	}
	if revenue <= SmallRevenueLimit && employees < SmallEmployeeLimit {
		return catalog.ScaleSmall
	}
	return catalog.ScaleMedium
}

func resolveScale(base catalog.ScaleBucket, statuses map[catalog.Status]bool) catalog.ScaleBucket {
	if base == catalog.ScaleMicro {
		return base
	}
	for _, ct := range certificationTracks {
		if statuses[ct.status] {
			return ct.scale
		}
	}
	return base
}

func resolveOwnerTrait(statuses map[catalog.Status]bool) OwnerTrait {
	for _, ot := range ownerTraitOrder {
		if statuses[ot.status] {
			return ot.trait
		}
	}
	return OwnerNone
}
