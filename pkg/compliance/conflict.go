package compliance

import "rpascore/pkg/domain"

// Overlaps reports whether two half-open time windows share any instant.
// Windows that merely touch at an endpoint do not overlap.
func Overlaps(a, b domain.TimeWindow) bool {
	return a.Start.Before(b.End) && b.Start.Before(a.End)
}

// Claim is one accepted reservation of airspace over a time window, derived
// from an accepted flight plan.
type Claim struct {
	RecordID   string            `json:"record_id"`
	Category   string            `json:"category"`
	MissionRef string            `json:"mission_ref,omitempty"`
	Window     domain.TimeWindow `json:"window"`
	Area       domain.Ring       `json:"area"`
}

// ConflictPolicy declares claim category pairs whose members may share time
// and space without conflicting. The zero policy treats every pair as
// mutually exclusive.
type ConflictPolicy struct {
	ExclusiveSafe [][2]string `json:"exclusive_safe,omitempty" toml:"exclusive_safe"`
}

func (p ConflictPolicy) safe(a, b string) bool {
	for _, pair := range p.ExclusiveSafe {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return true
		}
	}
	return false
}

// FindConflicts returns the existing claims that collide with the candidate:
// overlapping windows, intersecting areas, different records, different
// missions, and no safe-pair exemption. The relation is symmetric, so if the
// candidate conflicts with an existing claim the reverse evaluation reports
// the same pair. Conflicts are advisory; detecting one never rejects the
// candidate.
func FindConflicts(candidate Claim, existing []Claim, policy ConflictPolicy) []Claim {
	var conflicts []Claim
	for _, claim := range existing {
		if claim.RecordID == candidate.RecordID {
			continue
		}
		if candidate.MissionRef != "" && claim.MissionRef == candidate.MissionRef {
			continue
		}
		if policy.safe(candidate.Category, claim.Category) {
			continue
		}
		if !Overlaps(candidate.Window, claim.Window) {
			continue
		}
		if !RingsIntersect(candidate.Area, claim.Area) {
			continue
		}
		conflicts = append(conflicts, claim)
	}
	return conflicts
}
