package catalog

import (
	"fmt"

	apperrors "github.com/ajharbinger/policy-fund-matcher/internal/errors"
)

// Validate checks one fund record against the catalog schema
func Validate(f PolicyFundKnowledge) error {
	problem := validate(f)
	if problem == "" {
		return nil
	}
	return apperrors.InvalidCatalog(problem, nil).WithDetails(f.ID)
}

func validate(f PolicyFundKnowledge) string {
	if f.ID == "" {
		return "fund id is required"
	}
	if f.InstitutionID == "" {
		return "institution id is required"
	}
	if f.Name == "" {
		return "fund name is required"
	}

	switch f.Track {
	case TrackExclusive, TrackPolicyLinked, TrackGeneral, TrackGuarantee:
	case "":
		return "track is required"
	default:
		return fmt.Sprintf("unknown track %q", f.Track)
	}

	switch f.Product {
	case ProductDirectLoan, ProductGuarantee:
	case "":
		return "product type is required"
	default:
		return fmt.Sprintf("unknown product type %q", f.Product)
	}

	if len(f.SupportedPurposes) == 0 {
		return "supported purposes are required"
	}
	for _, p := range f.SupportedPurposes {
		if p != PurposeWorkingCapital && p != PurposeFacility {
			return fmt.Sprintf("unknown purpose %q", p)
		}
	}

	for _, s := range f.TargetScale {
		switch s {
		case ScaleMicro, ScaleSmall, ScaleMedium, ScaleVentureTrack, ScaleInnobizTrack, ScaleMainbizTrack:
		default:
			return fmt.Sprintf("unknown target scale %q", s)
		}
	}

	c := f.Criteria
	ranges := []struct {
		name string
		r    Range
	}{
		{"business_age", c.BusinessAge},
		{"revenue", c.Revenue},
		{"employees", c.Employees},
		{"debt_ratio", c.DebtRatio},
	}
	for _, rg := range ranges {
		if rg.r.Inverted() {
			return fmt.Sprintf("%s range is inverted", rg.name)
		}
		if (rg.r.Min != nil && *rg.r.Min < 0) || (rg.r.Max != nil && *rg.r.Max < 0) {
			return fmt.Sprintf("%s range has a negative bound", rg.name)
		}
	}

	for _, ind := range append(append([]Industry{}, c.AllowedIndustries...), c.ExcludedIndustries...) {
		if !ind.Valid() {
			return fmt.Sprintf("unknown industry %q", ind)
		}
	}
	for _, s := range c.ExcludedSituations {
		if !s.Valid() {
			return fmt.Sprintf("unknown situation %q", s)
		}
	}
	for _, cond := range c.RequiredConditions {
		if !cond.Status.Valid() {
			return fmt.Sprintf("unknown required status %q", cond.Status)
		}
	}
	for _, b := range c.BonusConditions {
		if !b.Status.Valid() {
			return fmt.Sprintf("unknown bonus status %q", b.Status)
		}
		if b.Points <= 0 {
			return fmt.Sprintf("bonus %q must carry positive points", b.Status)
		}
	}

	if f.Terms.AmountMax > 0 && f.Terms.AmountMin > f.Terms.AmountMax {
		return "support amount range is inverted"
	}
	if f.Terms.RateMax > 0 && f.Terms.RateMin > f.Terms.RateMax {
		return "interest rate range is inverted"
	}
	return ""
}
