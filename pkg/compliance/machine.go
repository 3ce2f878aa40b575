package compliance

import (
	"time"

	"rpascore/pkg/domain"
)

// Edge declares one permitted transition. Requires is empty when the edge
// needs no capability. Audit marks edges whose completion must be recorded in
// the audit trail.
type Edge struct {
	From     string
	To       string
	Requires domain.Capability
	Audit    bool
}

// Machine is the declared transition table for one record category. States
// absent from the table and edges absent from Edges are rejected; terminal
// states carry no outgoing edges.
type Machine struct {
	Label   string
	Initial string
	Edges   []Edge

	states map[string]struct{}
}

// Outcome reports a validated transition. Audit is non-nil for edges that
// must be recorded; the caller assigns the entry identifier and persists it.
type Outcome struct {
	From  string
	To    string
	Audit *domain.AuditEntry
}

func newMachine(label, initial string, edges []Edge, extraStates ...string) Machine {
	m := Machine{Label: label, Initial: initial, Edges: edges, states: map[string]struct{}{initial: {}}}
	for _, e := range edges {
		m.states[e.From] = struct{}{}
		m.states[e.To] = struct{}{}
	}
	for _, s := range extraStates {
		m.states[s] = struct{}{}
	}
	return m
}

// Contains reports whether state belongs to the machine.
func (m Machine) Contains(state string) bool {
	_, ok := m.states[state]
	return ok
}

// IsTerminal reports whether state has no outgoing edges.
func (m Machine) IsTerminal(state string) bool {
	if !m.Contains(state) {
		return false
	}
	for _, e := range m.Edges {
		if e.From == state {
			return false
		}
	}
	return true
}

func (m Machine) edge(from, to string) (Edge, bool) {
	for _, e := range m.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}

// Allows reports whether the machine declares an edge from one status to
// another. Authority requirements are not consulted.
func (m Machine) Allows(from, to string) bool {
	_, ok := m.edge(from, to)
	return ok
}

// Transition validates one step of the machine for the given actor. A missing
// edge yields InvalidTransitionError and an edge whose capability the actor
// lacks yields InsufficientAuthorityError; in both cases the record is left
// for the caller to keep unchanged.
func (m Machine) Transition(current, target string, actor domain.Actor, now time.Time) (Outcome, error) {
	edge, ok := m.edge(current, target)
	if !ok {
		return Outcome{}, domain.InvalidTransitionError{Machine: m.Label, From: current, To: target}
	}
	if edge.Requires != "" && !actor.Has(edge.Requires) {
		return Outcome{}, domain.InsufficientAuthorityError{Machine: m.Label, From: current, To: target, Required: edge.Requires}
	}
	out := Outcome{From: current, To: target}
	if edge.Audit {
		out.Audit = &domain.AuditEntry{
			Actor:      actor.Ref,
			FromStatus: current,
			ToStatus:   target,
			Action:     target,
			At:         now,
		}
	}
	return out, nil
}

// DocumentMachine returns the lifecycle for governed documents such as
// operational manuals. Superseded is terminal; approval and publication are
// audited.
func DocumentMachine() Machine {
	return newMachine("document", string(domain.DocumentDraft), []Edge{
		{From: string(domain.DocumentDraft), To: string(domain.DocumentReview)},
		{From: string(domain.DocumentReview), To: string(domain.DocumentApproved), Requires: domain.CapabilityApprove, Audit: true},
		{From: string(domain.DocumentReview), To: string(domain.DocumentDraft), Requires: domain.CapabilityReview},
		{From: string(domain.DocumentApproved), To: string(domain.DocumentPublished), Requires: domain.CapabilityPublish, Audit: true},
		{From: string(domain.DocumentPublished), To: string(domain.DocumentSuperseded), Requires: domain.CapabilityPublish, Audit: true},
	})
}

// OperationMachine returns the lifecycle for missions and flight plans.
// Completed, cancelled, and aborted are terminal.
func OperationMachine() Machine {
	return newMachine("operation", string(domain.OperationPlanning), []Edge{
		{From: string(domain.OperationPlanning), To: string(domain.OperationActive), Requires: domain.CapabilityActivate, Audit: true},
		{From: string(domain.OperationPlanning), To: string(domain.OperationCancelled)},
		{From: string(domain.OperationActive), To: string(domain.OperationCompleted), Audit: true},
		{From: string(domain.OperationActive), To: string(domain.OperationAborted), Audit: true},
	})
}

// IncidentMachine returns the lifecycle for incident reports. No state is
// terminal: a closed investigation can always be reopened.
func IncidentMachine() Machine {
	return newMachine("incident", string(domain.IncidentDraft), []Edge{
		{From: string(domain.IncidentDraft), To: string(domain.IncidentSubmitted)},
		{From: string(domain.IncidentSubmitted), To: string(domain.IncidentUnderInvestigation), Requires: domain.CapabilityInvestigate},
		{From: string(domain.IncidentUnderInvestigation), To: string(domain.IncidentClosed), Requires: domain.CapabilityClose, Audit: true},
		{From: string(domain.IncidentClosed), To: string(domain.IncidentReopened), Requires: domain.CapabilityInvestigate, Audit: true},
		{From: string(domain.IncidentReopened), To: string(domain.IncidentUnderInvestigation), Requires: domain.CapabilityInvestigate},
	})
}
