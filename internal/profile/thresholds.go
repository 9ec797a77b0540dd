package profile

import "github.com/ajharbinger/policy-fund-matcher/internal/catalog"

// Company-scale thresholds. Amounts are won.
const (
	MicroRevenueLimit             int64 = 1_000_000_000
	MicroEmployeesLaborIntensive        = 10
	MicroEmployeesOther                 = 5
	NewBusinessAgeYears                 = 1.0
	NewBusinessMicroRevenueLimit  int64 = 100_000_000
	SmallRevenueLimit             int64 = 12_000_000_000
	SmallEmployeeLimit                  = 300
)

// Industries using the higher micro employee threshold
var laborIntensiveIndustries = map[catalog.Industry]bool{
	catalog.IndustryManufacturing: true,
	catalog.IndustryConstruction:  true,
	catalog.IndustryLogistics:     true,
}

// Certification overrides, first match wins
var certificationTracks = []struct {
	status catalog.Status
	scale  catalog.ScaleBucket
}{
	{catalog.StatusVentureCertified, catalog.ScaleVentureTrack},
	{catalog.StatusInnobizCertified, catalog.ScaleInnobizTrack},
	{catalog.StatusMainbizCertified, catalog.ScaleMainbizTrack},
}

// Owner traits, first match wins
var ownerTraitOrder = []struct {
	status catalog.Status
	trait  OwnerTrait
}{
	{catalog.StatusYouthOwned, OwnerYouth},
	{catalog.StatusFemaleOwned, OwnerFemale},
	{catalog.StatusDisabledOwned, OwnerDisabled},
}
