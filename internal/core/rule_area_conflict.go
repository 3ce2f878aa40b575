package core

import (
	"context"
	"fmt"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// NewAreaConflictRule returns the advisory rule flagging flight plans whose
// time window and operating area collide with another accepted plan. Conflicts
// warn rather than block: coordinated concurrent operations are legitimate and
// the decision to reject or escalate belongs to the operator.
func NewAreaConflictRule(cfg Config) domain.Rule {
	return areaConflictRule{cfg: cfg}
}

type areaConflictRule struct {
	cfg Config
}

func (areaConflictRule) Name() string { return "area_conflict" }

func (r areaConflictRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Entity != domain.EntityFlightPlan || change.Action == domain.ActionDelete {
			continue
		}
		plan, ok := payloadAs[domain.FlightPlan](change.After)
		if !ok || terminalOperation(plan.Status) {
			continue
		}
		candidate := planClaim(view, plan)
		var existing []compliance.Claim
		for _, other := range view.ListFlightPlans() {
			if other.ID == plan.ID || terminalOperation(other.Status) {
				continue
			}
			existing = append(existing, planClaim(view, other))
		}
		for _, conflict := range compliance.FindConflicts(candidate, existing, r.cfg.ConflictPolicy) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "area_conflict",
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("flight plan %s overlaps %s in time and area", plan.RecordID, conflict.RecordID),
				Entity:   domain.EntityFlightPlan,
				EntityID: plan.ID,
			})
		}
	}
	return res, nil
}

// planClaim derives the airspace claim a flight plan asserts: its window, its
// operating ring (falling back to the assigned area boundary), the aircraft
// weight category, and the mission it belongs to.
func planClaim(view domain.TransactionView, plan domain.FlightPlan) compliance.Claim {
	claim := compliance.Claim{
		RecordID:   plan.RecordID,
		MissionRef: plan.MissionID,
		Window:     plan.Window,
		Area:       plan.OperatingArea,
	}
	if aircraft, ok := view.FindAircraft(plan.AircraftID); ok {
		claim.Category = string(aircraft.Profile.Category)
	}
	if len(claim.Area) == 0 && plan.AreaID != nil {
		if area, ok := view.FindOperationalArea(*plan.AreaID); ok {
			claim.Area = area.Boundary
		}
	}
	return claim
}

func terminalOperation(status domain.OperationStatus) bool {
	switch status {
	case domain.OperationCompleted, domain.OperationCancelled, domain.OperationAborted:
		return true
	}
	return false
}
