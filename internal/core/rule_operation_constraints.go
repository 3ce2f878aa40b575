package core

import (
	"context"
	"errors"
	"fmt"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// NewOperationConstraintsRule returns the rule validating regulatory
// constraints at commit: aircraft compliance profiles must match the
// classification table, and flight plans must satisfy certification,
// authorization, altitude, and geometry constraints. Certificates are checked
// at the flight window start so evaluation never depends on the wall clock.
// Plans above the advisory ceiling draw a warning without blocking.
func NewOperationConstraintsRule(cfg Config) domain.Rule {
	return operationConstraintsRule{cfg: cfg}
}

type operationConstraintsRule struct {
	cfg Config
}

func (operationConstraintsRule) Name() string { return "operation_constraints" }

func (r operationConstraintsRule) Evaluate(_ context.Context, view domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		switch change.Entity {
		case domain.EntityAircraft:
			aircraft, ok := payloadAs[domain.Aircraft](change.After)
			if !ok {
				continue
			}
			for _, reason := range compliance.ValidateProfile(aircraft.Profile, r.cfg.Validation()) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "operation_constraints",
					Severity: domain.SeverityBlock,
					Message:  reason.String(),
					Entity:   domain.EntityAircraft,
					EntityID: aircraft.ID,
				})
			}
		case domain.EntityFlightPlan:
			plan, ok := payloadAs[domain.FlightPlan](change.After)
			if !ok {
				continue
			}
			res.Merge(r.evaluatePlan(view, plan))
		}
	}
	return res, nil
}

func (r operationConstraintsRule) evaluatePlan(view domain.TransactionView, plan domain.FlightPlan) domain.Result {
	res := domain.Result{}

	mission, _ := view.FindMission(plan.MissionID)
	candidate := compliance.CandidateOperation{
		OwnerRef:      mission.OwnerRef,
		PilotRef:      mission.PilotRef,
		Commercial:    mission.Commercial,
		Authorization: plan.Authorization,
		MaxAltitudeFT: plan.MaxAltitudeFT,
		Window:        plan.Window,
		Boundary:      plan.OperatingArea,
	}

	var profile domain.ComplianceProfile
	if aircraft, ok := view.FindAircraft(plan.AircraftID); ok {
		profile = aircraft.Profile
	}

	ref := compliance.Reference{Certificates: view.ListCertificates()}
	if plan.AreaID != nil {
		if area, ok := view.FindOperationalArea(*plan.AreaID); ok {
			ref.Area = &area
		}
	}

	err := compliance.ValidateOperation(candidate, profile, ref, r.cfg.Validation(), plan.Window.Start)
	var violation domain.ConstraintViolationError
	if errors.As(err, &violation) {
		for _, reason := range violation.Reasons {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "operation_constraints",
				Severity: domain.SeverityBlock,
				Message:  reason.String(),
				Entity:   domain.EntityFlightPlan,
				EntityID: plan.ID,
			})
		}
	}

	if r.cfg.AdvisoryAltitudeFT > 0 && plan.MaxAltitudeFT > r.cfg.AdvisoryAltitudeFT {
		res.Violations = append(res.Violations, domain.Violation{
			Rule:     "operation_constraints",
			Severity: domain.SeverityWarn,
			Message:  fmt.Sprintf("planned altitude %.0f ft exceeds the %.0f ft advisory ceiling", plan.MaxAltitudeFT, r.cfg.AdvisoryAltitudeFT),
			Entity:   domain.EntityFlightPlan,
			EntityID: plan.ID,
		})
	}
	return res
}
