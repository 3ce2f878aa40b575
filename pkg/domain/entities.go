// Package domain defines the persistent record types, value objects, and
// rule evaluation primitives shared by the rpascore engine and its stores.
package domain

import "time"

// EntityType identifies the type of record stored in the registry.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityAircraft identifies an aircraft record.
	EntityAircraft EntityType = "aircraft"
	// EntityManual identifies a controlled operations-manual document.
	EntityManual EntityType = "manual"
	// EntityMission identifies a mission record.
	EntityMission EntityType = "mission"
	// EntityFlightPlan identifies a flight plan record.
	EntityFlightPlan EntityType = "flight_plan"
	// EntityMaintenance identifies a maintenance record.
	EntityMaintenance EntityType = "maintenance_record"
	// EntityIncident identifies an incident report.
	EntityIncident EntityType = "incident_report"
	// EntityArea identifies an operational area record.
	EntityArea EntityType = "operational_area"
	// EntityCertificate identifies a certificate record.
	EntityCertificate EntityType = "certificate"
	// EntityAudit identifies an append-only audit entry.
	EntityAudit EntityType = "audit_entry"
)

// DocumentStatus enumerates the controlled-document workflow states.
type DocumentStatus string

// Canonical document statuses enforced by the document lifecycle machine.
const (
	DocumentDraft      DocumentStatus = "draft"
	DocumentReview     DocumentStatus = "review"
	DocumentApproved   DocumentStatus = "approved"
	DocumentPublished  DocumentStatus = "published"
	DocumentSuperseded DocumentStatus = "superseded"
)

// OperationStatus enumerates mission and flight-plan workflow states.
type OperationStatus string

// Canonical operation statuses shared by missions and flight plans.
const (
	OperationPlanning  OperationStatus = "planning"
	OperationActive    OperationStatus = "active"
	OperationCompleted OperationStatus = "completed"
	OperationCancelled OperationStatus = "cancelled"
	OperationAborted   OperationStatus = "aborted"
)

// IncidentStatus enumerates incident report workflow states.
type IncidentStatus string

// Canonical incident statuses enforced by the incident lifecycle machine.
const (
	IncidentDraft              IncidentStatus = "draft"
	IncidentSubmitted          IncidentStatus = "submitted"
	IncidentUnderInvestigation IncidentStatus = "under_investigation"
	IncidentClosed             IncidentStatus = "closed"
	IncidentReopened           IncidentStatus = "reopened"
)

// WeightCategory classifies aircraft by maximum take-off weight.
type WeightCategory string

// Weight categories recognised by the classification table. CategoryExcluded is
// declared by the operator and checked against the configured excluded limits
// rather than derived from weight alone.
const (
	CategoryExcluded WeightCategory = "excluded"
	CategoryMicro    WeightCategory = "micro"
	CategorySmall    WeightCategory = "small"
	CategoryMedium   WeightCategory = "medium"
	CategoryLarge    WeightCategory = "large"
)

// AuthorizationLevel orders the airspace authorizations an operation can hold
// and an operational area can require.
type AuthorizationLevel string

// Authorization levels, weakest to strongest. AuthorizationProhibited marks an
// area that admits no operation regardless of the authorization held.
const (
	AuthorizationNone         AuthorizationLevel = "none"
	AuthorizationNotification AuthorizationLevel = "notification"
	AuthorizationClearance    AuthorizationLevel = "atc_clearance"
	AuthorizationApproval     AuthorizationLevel = "casa_approval"
	AuthorizationProhibited   AuthorizationLevel = "prohibited"
)

// CertificateKind distinguishes the certificates tracked for owners and types.
type CertificateKind string

// Certificate kinds referenced by the constraint validator.
const (
	CertificateOperator CertificateKind = "operator"
	CertificatePilot    CertificateKind = "pilot"
	CertificateType     CertificateKind = "type"
)

// ManualKind categorises controlled manuals.
type ManualKind string

// Manual kinds carried over from the operations-manual suite.
const (
	ManualOperations  ManualKind = "operations"
	ManualMaintenance ManualKind = "maintenance"
	ManualTraining    ManualKind = "training"
	ManualEmergency   ManualKind = "emergency"
	ManualSafety      ManualKind = "safety"
	ManualQuality     ManualKind = "quality"
)

// IncidentSeverity grades incident reports.
type IncidentSeverity string

// Incident severities, mildest to most severe.
const (
	IncidentLow      IncidentSeverity = "low"
	IncidentMedium   IncidentSeverity = "medium"
	IncidentHigh     IncidentSeverity = "high"
	IncidentCritical IncidentSeverity = "critical"
)

// Capability names an action an actor may be authorised to perform on a
// lifecycle edge.
type Capability string

// Capabilities referenced by the default transition tables.
const (
	CapabilityReview      Capability = "review"
	CapabilityApprove     Capability = "approve"
	CapabilityPublish     Capability = "publish"
	CapabilityActivate    Capability = "activate"
	CapabilityInvestigate Capability = "investigate"
	CapabilityClose       Capability = "close"
)

// Actor identifies who is requesting an operation together with the
// capabilities they hold. The reference is opaque to this system.
type Actor struct {
	Ref          string       `json:"ref"`
	Capabilities []Capability `json:"capabilities"`
}

// Has reports whether the actor holds the given capability.
func (a Actor) Has(c Capability) bool {
	for _, held := range a.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock blocks transaction commit.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LatLon is a geographic coordinate in decimal degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Ring is a polygon boundary. A valid ring is explicitly closed: the final
// vertex repeats the first.
type Ring []LatLon

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// ComplianceProfile holds the regulatory classification facts for an aircraft.
type ComplianceProfile struct {
	Category      WeightCategory `json:"category"`
	WeightKG      float64        `json:"weight_kg"`
	MaxAltitudeFT float64        `json:"max_altitude_ft"`
	TypeCertified bool           `json:"type_certified"`
}

// Aircraft is a registered remotely piloted aircraft.
type Aircraft struct {
	Base
	Registration string            `json:"registration"`
	Model        string            `json:"model"`
	Serial       string            `json:"serial"`
	Profile      ComplianceProfile `json:"profile"`
	InsuredUntil *time.Time        `json:"insured_until,omitempty"`
}

// Manual is a controlled operations-manual document.
type Manual struct {
	Base
	RecordID       string         `json:"record_id"`
	Title          string         `json:"title"`
	Kind           ManualKind     `json:"kind"`
	Version        string         `json:"version"`
	Status         DocumentStatus `json:"status"`
	OwnerRef       string         `json:"owner_ref"`
	ApprovedBy     *string        `json:"approved_by,omitempty"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	AttachmentKeys []string       `json:"attachment_keys"`
}

// Mission groups flight plans under one planned operation.
type Mission struct {
	Base
	RecordID   string          `json:"record_id"`
	Name       string          `json:"name"`
	Status     OperationStatus `json:"status"`
	Commercial bool            `json:"commercial"`
	OwnerRef   string          `json:"owner_ref"`
	PilotRef   string          `json:"pilot_ref"`
	Window     TimeWindow      `json:"window"`
	AreaID     *string         `json:"area_id,omitempty"`
}

// FlightPlan reserves a time window and operating area for one flight.
type FlightPlan struct {
	Base
	RecordID      string             `json:"record_id"`
	MissionID     string             `json:"mission_id"`
	AircraftID    string             `json:"aircraft_id"`
	Status        OperationStatus    `json:"status"`
	Window        TimeWindow         `json:"window"`
	OperatingArea Ring               `json:"operating_area"`
	AreaID        *string            `json:"area_id,omitempty"`
	MaxAltitudeFT float64            `json:"max_altitude_ft"`
	Authorization AuthorizationLevel `json:"authorization"`
}

// MaintenanceRecord is a due-date-bearing maintenance obligation for an aircraft.
type MaintenanceRecord struct {
	Base
	RecordID    string     `json:"record_id"`
	AircraftID  string     `json:"aircraft_id"`
	Kind        string     `json:"kind"`
	Description string     `json:"description"`
	DueAt       time.Time  `json:"due_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	GraceDays   int        `json:"grace_days"`
}

// IncidentReport records an occurrence that may carry a reporting deadline.
type IncidentReport struct {
	Base
	RecordID        string           `json:"record_id"`
	AircraftID      *string          `json:"aircraft_id,omitempty"`
	MissionID       *string          `json:"mission_id,omitempty"`
	OccurredAt      time.Time        `json:"occurred_at"`
	Severity        IncidentSeverity `json:"severity"`
	Description     string           `json:"description"`
	Reportable      bool             `json:"reportable"`
	ReportWithinHrs int              `json:"report_within_hours"`
	ReportedAt      *time.Time       `json:"reported_at,omitempty"`
	Location        *LatLon          `json:"location,omitempty"`
	Status          IncidentStatus   `json:"status"`
	AttachmentKeys  []string         `json:"attachment_keys"`
}

// OperationalArea bounds where operations may take place and what
// authorization they require.
type OperationalArea struct {
	Base
	RecordID              string             `json:"record_id"`
	Name                  string             `json:"name"`
	Boundary              Ring               `json:"boundary"`
	RequiredAuthorization AuthorizationLevel `json:"required_authorization"`
	FloorFT               float64            `json:"floor_ft"`
	CeilingFT             float64            `json:"ceiling_ft"`
	EffectiveFrom         time.Time          `json:"effective_from"`
	EffectiveUntil        *time.Time         `json:"effective_until,omitempty"`
}

// Certificate is a regulatory authorization held by an owner, pilot, or type.
type Certificate struct {
	Base
	Holder    string          `json:"holder"`
	Kind      CertificateKind `json:"kind"`
	Reference string          `json:"reference"`
	Authority string          `json:"authority"`
	IssuedAt  time.Time       `json:"issued_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// AuditEntry records one validated lifecycle transition. Entries are append-only.
type AuditEntry struct {
	ID         string     `json:"id"`
	Entity     EntityType `json:"entity"`
	RecordID   string     `json:"record_id"`
	Actor      string     `json:"actor"`
	FromStatus string     `json:"from_status"`
	ToStatus   string     `json:"to_status"`
	Action     string     `json:"action"`
	At         time.Time  `json:"at"`
	Comments   string     `json:"comments,omitempty"`
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported CRUD operations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string
	Severity Severity
	Message  string
	Entity   EntityType
	EntityID string
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Warnings returns the non-blocking violations.
func (r Result) Warnings() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity != SeverityBlock {
			out = append(out, v)
		}
	}
	return out
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return "transaction blocked by rules"
}
