package core

import (
	"context"
	"fmt"

	"rpascore/pkg/domain"
)

// NewCompletionImmutableRule returns the rule blocking updates that clear or
// rewrite a completion timestamp once an obligation has been discharged: a
// completed maintenance task stays completed and a reported incident stays
// reported.
func NewCompletionImmutableRule() domain.Rule {
	return completionImmutableRule{}
}

type completionImmutableRule struct{}

func (completionImmutableRule) Name() string { return "completion_immutable" }

func (completionImmutableRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action != domain.ActionUpdate {
			continue
		}
		switch change.Entity {
		case domain.EntityMaintenance:
			before, okBefore := payloadAs[domain.MaintenanceRecord](change.Before)
			after, okAfter := payloadAs[domain.MaintenanceRecord](change.After)
			if !okBefore || !okAfter || before.CompletedAt == nil {
				continue
			}
			if after.CompletedAt == nil || !after.CompletedAt.Equal(*before.CompletedAt) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "completion_immutable",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("maintenance record %s is completed; the completion timestamp cannot change", after.RecordID),
					Entity:   domain.EntityMaintenance,
					EntityID: after.ID,
				})
			}
		case domain.EntityIncident:
			before, okBefore := payloadAs[domain.IncidentReport](change.Before)
			after, okAfter := payloadAs[domain.IncidentReport](change.After)
			if !okBefore || !okAfter || before.ReportedAt == nil {
				continue
			}
			if after.ReportedAt == nil || !after.ReportedAt.Equal(*before.ReportedAt) {
				res.Violations = append(res.Violations, domain.Violation{
					Rule:     "completion_immutable",
					Severity: domain.SeverityBlock,
					Message:  fmt.Sprintf("incident report %s has been reported; the report timestamp cannot change", after.RecordID),
					Entity:   domain.EntityIncident,
					EntityID: after.ID,
				})
			}
		}
	}
	return res, nil
}
