package matching

import (
	"testing"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/stretchr/testify/assert"
)

func TestDecideTrack(t *testing.T) {
	tests := []struct {
		name    string
		status  catalog.Status
		driving bool
	}{
		{"disabled standard workplace", catalog.StatusDisabledStandardWorkplace, true},
		{"social enterprise", catalog.StatusSocialEnterprise, true},
		{"restart", catalog.StatusRestartAfterFailure, true},
		{"female owned", catalog.StatusFemaleOwned, true},
		{"disabled owned is not enough", catalog.StatusDisabledOwned, false},
		{"venture is not enough", catalog.StatusVentureCertified, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := normalize(t, smallManufacturer())
			n.Statuses[tt.status] = true

			d := DecideTrack(n)
			assert.True(t, d.Allows(catalog.TrackPolicyLinked))
			assert.True(t, d.Allows(catalog.TrackGuarantee))

			if tt.driving {
				assert.Equal(t, []catalog.Track{catalog.TrackGeneral}, d.BlockedTracks)
				assert.True(t, d.Allows(catalog.TrackExclusive))
				assert.Equal(t, []catalog.Status{tt.status}, d.DrivingStatuses)
				assert.Contains(t, d.Rationale, string(tt.status))
			} else {
				assert.Equal(t, []catalog.Track{catalog.TrackExclusive}, d.BlockedTracks)
				assert.True(t, d.Allows(catalog.TrackGeneral))
				assert.Empty(t, d.DrivingStatuses)
			}
		})
	}
}

func TestDecideTrack_NamesEveryDrivingStatus(t *testing.T) {
	n := normalize(t, smallManufacturer())
	n.Statuses[catalog.StatusFemaleOwned] = true
	n.Statuses[catalog.StatusSocialEnterprise] = true

	d := DecideTrack(n)
	assert.Equal(t, []catalog.Status{catalog.StatusSocialEnterprise, catalog.StatusFemaleOwned}, d.DrivingStatuses)
	assert.Contains(t, d.Rationale, "social_enterprise")
	assert.Contains(t, d.Rationale, "female_owned")
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		track catalog.Track
		score int
		want  ConfidenceLabel
	}{
		{catalog.TrackExclusive, 10, ConfidenceExclusivePriority},
		{catalog.TrackGeneral, 75, ConfidenceStrong},
		{catalog.TrackGuarantee, 74, ConfidenceAlternative},
		{catalog.TrackPolicyLinked, 55, ConfidenceAlternative},
		{catalog.TrackPolicyLinked, 54, ConfidenceFallback},
	}

	for _, tt := range tests {
		if got := Confidence(tt.track, tt.score); got != tt.want {
			t.Errorf("Confidence(%s, %d) = %s, want %s", tt.track, tt.score, got, tt.want)
		}
	}
}
