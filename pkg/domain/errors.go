package domain

import (
	"fmt"
	"strings"
)

// InvalidTransitionError reports a status change along an undeclared edge,
// including any attempt to leave a terminal state.
type InvalidTransitionError struct {
	Machine string
	From    string
	To      string
}

func (e InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s: no transition from %s to %s", e.Machine, e.From, e.To)
}

// InsufficientAuthorityError reports a transition whose edge requires a
// capability the acting party does not hold.
type InsufficientAuthorityError struct {
	Machine  string
	From     string
	To       string
	Required Capability
}

func (e InsufficientAuthorityError) Error() string {
	return fmt.Sprintf("%s: transition %s to %s requires capability %q", e.Machine, e.From, e.To, e.Required)
}

// Reason is one field-level failure inside a constraint violation.
type Reason struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (r Reason) String() string {
	if r.Field == "" {
		return r.Message
	}
	return r.Field + ": " + r.Message
}

// ConstraintViolationError carries every reason a candidate record failed
// validation. Reasons accumulate so callers can report all problems at once.
type ConstraintViolationError struct {
	Reasons []Reason
}

func (e ConstraintViolationError) Error() string {
	if len(e.Reasons) == 0 {
		return "constraint violation"
	}
	parts := make([]string, 0, len(e.Reasons))
	for _, r := range e.Reasons {
		parts = append(parts, r.String())
	}
	return "constraint violation: " + strings.Join(parts, "; ")
}

// DuplicateIdentifierError reports a record identifier that has already been
// issued. The caller retries with a refreshed sequence number.
type DuplicateIdentifierError struct {
	RecordID string
}

func (e DuplicateIdentifierError) Error() string {
	return fmt.Sprintf("identifier %s already issued", e.RecordID)
}

// InvalidGeometryError reports coordinates or a boundary ring that cannot
// describe a usable area.
type InvalidGeometryError struct {
	Reason string
}

func (e InvalidGeometryError) Error() string {
	return "invalid geometry: " + e.Reason
}

// ErrNotFound is returned when a referenced record does not exist.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}
