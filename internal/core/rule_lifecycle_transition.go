package core

import (
	"context"
	"fmt"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// NewLifecycleTransitionRule returns the rule blocking status mutations that
// bypass a record's declared transition table: unknown states, creation in
// anything but the machine's initial state, exits from terminal states, and
// undeclared edges. Capability checks belong to the service transition
// operations; at commit time only the table is consulted.
func NewLifecycleTransitionRule() domain.Rule {
	return lifecycleTransitionRule{}
}

type lifecycleTransitionRule struct{}

type lifecycleBinding struct {
	entity    domain.EntityType
	label     string
	machine   compliance.Machine
	extractor func(payload any) (id string, status string, ok bool)
}

var lifecycleBindings = map[domain.EntityType]lifecycleBinding{
	domain.EntityManual: {
		entity:  domain.EntityManual,
		label:   "manual",
		machine: compliance.DocumentMachine(),
		extractor: func(payload any) (string, string, bool) {
			m, ok := payloadAs[domain.Manual](payload)
			if !ok {
				return "", "", false
			}
			return m.ID, string(m.Status), true
		},
	},
	domain.EntityMission: {
		entity:  domain.EntityMission,
		label:   "mission",
		machine: compliance.OperationMachine(),
		extractor: func(payload any) (string, string, bool) {
			m, ok := payloadAs[domain.Mission](payload)
			if !ok {
				return "", "", false
			}
			return m.ID, string(m.Status), true
		},
	},
	domain.EntityFlightPlan: {
		entity:  domain.EntityFlightPlan,
		label:   "flight plan",
		machine: compliance.OperationMachine(),
		extractor: func(payload any) (string, string, bool) {
			p, ok := payloadAs[domain.FlightPlan](payload)
			if !ok {
				return "", "", false
			}
			return p.ID, string(p.Status), true
		},
	},
	domain.EntityIncident: {
		entity:  domain.EntityIncident,
		label:   "incident report",
		machine: compliance.IncidentMachine(),
		extractor: func(payload any) (string, string, bool) {
			r, ok := payloadAs[domain.IncidentReport](payload)
			if !ok {
				return "", "", false
			}
			return r.ID, string(r.Status), true
		},
	},
}

func (lifecycleTransitionRule) Name() string { return "lifecycle_transition" }

func (lifecycleTransitionRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		binding, ok := lifecycleBindings[change.Entity]
		if !ok {
			continue
		}

		afterID, afterStatus, ok := binding.extractor(change.After)
		if ok && !binding.machine.Contains(afterStatus) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s is set to unknown status %s", binding.label, afterID, afterStatus),
				Entity:   binding.entity,
				EntityID: afterID,
			})
			continue
		}

		if change.Action == domain.ActionCreate {
			if ok && afterStatus != binding.machine.Initial {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "lifecycle_transition",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("%s %s must be created in status %s, not %s", binding.label, afterID, binding.machine.Initial, afterStatus),
					Entity:   binding.entity,
					EntityID: afterID,
				})
			}
			continue
		}
		if change.Action != domain.ActionUpdate {
			continue
		}
		beforeID, beforeStatus, ok := binding.extractor(change.Before)
		if !ok || beforeStatus == afterStatus {
			continue
		}
		if binding.machine.IsTerminal(beforeStatus) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("cannot move %s %s out of terminal status %s", binding.label, beforeID, beforeStatus),
				Entity:   binding.entity,
				EntityID: afterID,
			})
			continue
		}
		if !binding.machine.Allows(beforeStatus, afterStatus) {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "lifecycle_transition",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("%s %s has no transition from %s to %s", binding.label, beforeID, beforeStatus, afterStatus),
				Entity:   binding.entity,
				EntityID: afterID,
			})
		}
	}
	return res, nil
}
