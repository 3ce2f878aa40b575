package core

import (
	"context"
	"fmt"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// NewRecordIdentifierRule returns the rule blocking regulated records whose
// register identifier is missing, malformed, or carries another category's
// prefix. Uniqueness is enforced by the transaction itself; this rule guards
// the format.
func NewRecordIdentifierRule() domain.Rule {
	return recordIdentifierRule{}
}

type recordIdentifierRule struct{}

// recordIdentity captures the identifier facts of one changed record.
type recordIdentity struct {
	id       string
	recordID string
}

var recordIdentityExtractors = map[domain.EntityType]func(payload any) (recordIdentity, bool){
	domain.EntityManual: func(payload any) (recordIdentity, bool) {
		m, ok := payloadAs[domain.Manual](payload)
		return recordIdentity{id: m.ID, recordID: m.RecordID}, ok
	},
	domain.EntityMission: func(payload any) (recordIdentity, bool) {
		m, ok := payloadAs[domain.Mission](payload)
		return recordIdentity{id: m.ID, recordID: m.RecordID}, ok
	},
	domain.EntityFlightPlan: func(payload any) (recordIdentity, bool) {
		p, ok := payloadAs[domain.FlightPlan](payload)
		return recordIdentity{id: p.ID, recordID: p.RecordID}, ok
	},
	domain.EntityMaintenance: func(payload any) (recordIdentity, bool) {
		r, ok := payloadAs[domain.MaintenanceRecord](payload)
		return recordIdentity{id: r.ID, recordID: r.RecordID}, ok
	},
	domain.EntityIncident: func(payload any) (recordIdentity, bool) {
		r, ok := payloadAs[domain.IncidentReport](payload)
		return recordIdentity{id: r.ID, recordID: r.RecordID}, ok
	},
	domain.EntityArea: func(payload any) (recordIdentity, bool) {
		a, ok := payloadAs[domain.OperationalArea](payload)
		return recordIdentity{id: a.ID, recordID: a.RecordID}, ok
	},
}

func (recordIdentifierRule) Name() string { return "record_identifier" }

func (recordIdentifierRule) Evaluate(_ context.Context, _ domain.TransactionView, changes []domain.Change) (domain.Result, error) {
	res := domain.Result{}
	for _, change := range changes {
		if change.Action == domain.ActionDelete {
			continue
		}
		extract, ok := recordIdentityExtractors[change.Entity]
		if !ok {
			continue
		}
		ref, ok := extract(change.After)
		if !ok {
			continue
		}
		parsed, err := compliance.ParseID(ref.recordID)
		if err != nil {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "record_identifier",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("record id %q is not a valid register identifier: %v", ref.recordID, err),
				Entity:   change.Entity,
				EntityID: ref.id,
			})
			continue
		}
		prefix, ok := compliance.RecordPrefix(change.Entity)
		if !ok {
			continue
		}
		if parsed.Prefix != prefix {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     "record_identifier",
				Severity: domain.SeverityBlock,
				Message:  fmt.Sprintf("record id %s carries prefix %s, %s records use %s", ref.recordID, parsed.Prefix, change.Entity, prefix),
				Entity:   change.Entity,
				EntityID: ref.id,
			})
		}
	}
	return res, nil
}
