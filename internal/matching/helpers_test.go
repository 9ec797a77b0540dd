package matching

import (
	"testing"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
	"github.com/stretchr/testify/require"
)

func boolPtr(v bool) *bool { return &v }
func floatPtr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64 { return &v }
func intPtr(v int) *int { return &v }

// allAnswered returns status flags with every flag answered false
func allAnswered() profile.StatusFlags {
	f := func() *bool { return boolPtr(false) }
	return profile.StatusFlags{
		VentureCertified:          f(),
		InnobizCertified:          f(),
		MainbizCertified:          f(),
		FemaleOwned:               f(),
		DisabledOwned:             f(),
		DisabledStandardWorkplace: f(),
		SocialEnterprise:          f(),
		RestartAfterFailure:       f(),
		YouthOwned:                f(),
		RnDActive:                 f(),
		ExportActive:              f(),
		PatentHolding:             f(),
	}
}

// smallManufacturer is a 3-year-old small firm with every status answered false
func smallManufacturer() profile.CompanyProfile {
	return profile.CompanyProfile{
		Name:             "한빛정밀",
		Industry:         catalog.IndustryManufacturing,
		Region:           "경기",
		BusinessAgeYears: floatPtr(3),
		AnnualRevenue:    int64Ptr(3_000_000_000),
		EmployeeCount:    intPtr(25),
		DebtRatio:        floatPtr(150),
		Status:           allAnswered(),
	}
}

func seed(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Seed()
	require.NoError(t, err)
	return c
}

func normalize(t *testing.T, p profile.CompanyProfile) *profile.Normalized {
	t.Helper()
	n, err := profile.Normalize(p)
	require.NoError(t, err)
	return n
}

func seedFund(t *testing.T, id string) *catalog.PolicyFundKnowledge {
	t.Helper()
	for _, f := range seed(t).Funds() {
		if f.ID == id {
			f := f
			return &f
		}
	}
	t.Fatalf("fund %s not in seed catalog", id)
	return nil
}

func findMatched(r *MatchResult, id string) (MatchedFund, bool) {
	for _, m := range r.Matched {
		if m.FundID == id {
			return m, true
		}
	}
	return MatchedFund{}, false
}

func findConditional(r *MatchResult, id string) (ConditionalFund, bool) {
	for _, c := range r.Conditional {
		if c.FundID == id {
			return c, true
		}
	}
	return ConditionalFund{}, false
}

func findExcluded(r *MatchResult, id string) (ExcludedFund, bool) {
	for _, e := range r.Excluded {
		if e.FundID == id {
			return e, true
		}
	}
	return ExcludedFund{}, false
}
