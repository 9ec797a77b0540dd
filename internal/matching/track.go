package matching

import (
	"fmt"
	"strings"

	"github.com/ajharbinger/policy-fund-matcher/internal/catalog"
	"github.com/ajharbinger/policy-fund-matcher/internal/profile"
)

// DecideTrack computes allowed and blocked tracks from the profile alone.
// Any status in ExclusiveQualifyingStatuses opens the exclusive track and closes
// the general one; policy_linked and guarantee are always open.
func DecideTrack(n *profile.Normalized) TrackDecision {
	var driving []catalog.Status
	for _, s := range ExclusiveQualifyingStatuses {
		if n.Has(s) {
			driving = append(driving, s)
		}
	}

	if len(driving) > 0 {
		return TrackDecision{
			AllowedTracks:   []catalog.Track{catalog.TrackExclusive, catalog.TrackPolicyLinked, catalog.TrackGuarantee},
			BlockedTracks:   []catalog.Track{catalog.TrackGeneral},
			DrivingStatuses: driving,
			Rationale:       fmt.Sprintf("%s 보유로 전용 트랙 허용, 일반 트랙 차단", describeStatuses(driving)),
		}
	}

	return TrackDecision{
		AllowedTracks:   []catalog.Track{catalog.TrackPolicyLinked, catalog.TrackGeneral, catalog.TrackGuarantee},
		BlockedTracks:   []catalog.Track{catalog.TrackExclusive},
		DrivingStatuses: []catalog.Status{},
		Rationale: fmt.Sprintf("전용 트랙 자격(%s) 해당 없음: 전용 트랙 차단",
			describeStatuses(ExclusiveQualifyingStatuses)),
	}
}

func describeStatuses(statuses []catalog.Status) string {
	parts := make([]string, len(statuses))
	for i, s := range statuses {
		parts[i] = fmt.Sprintf("%s(%s)", s.Label(), s)
	}
	return strings.Join(parts, ", ")
}
