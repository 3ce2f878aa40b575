package domain

import "context"

// TransactionView provides read-only access to snapshot data for rules and
// service queries.
type TransactionView interface {
	ListAircraft() []Aircraft
	FindAircraft(id string) (Aircraft, bool)
	ListManuals() []Manual
	FindManual(id string) (Manual, bool)
	ListMissions() []Mission
	FindMission(id string) (Mission, bool)
	ListFlightPlans() []FlightPlan
	FindFlightPlan(id string) (FlightPlan, bool)
	ListMaintenanceRecords() []MaintenanceRecord
	FindMaintenanceRecord(id string) (MaintenanceRecord, bool)
	ListIncidentReports() []IncidentReport
	FindIncidentReport(id string) (IncidentReport, bool)
	ListOperationalAreas() []OperationalArea
	FindOperationalArea(id string) (OperationalArea, bool)
	ListCertificates() []Certificate
	FindCertificate(id string) (Certificate, bool)
	ListAuditEntries(recordID string) []AuditEntry
	// HighestSequence reports the largest identifier sequence already issued
	// for the given prefix and calendar year, zero when none.
	HighestSequence(prefix string, year int) int
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope.
type Transaction interface {
	Snapshot() TransactionView
	CreateAircraft(Aircraft) (Aircraft, error)
	UpdateAircraft(id string, mutator func(*Aircraft) error) (Aircraft, error)
	DeleteAircraft(id string) error
	CreateManual(Manual) (Manual, error)
	UpdateManual(id string, mutator func(*Manual) error) (Manual, error)
	DeleteManual(id string) error
	CreateMission(Mission) (Mission, error)
	UpdateMission(id string, mutator func(*Mission) error) (Mission, error)
	DeleteMission(id string) error
	CreateFlightPlan(FlightPlan) (FlightPlan, error)
	UpdateFlightPlan(id string, mutator func(*FlightPlan) error) (FlightPlan, error)
	DeleteFlightPlan(id string) error
	CreateMaintenanceRecord(MaintenanceRecord) (MaintenanceRecord, error)
	UpdateMaintenanceRecord(id string, mutator func(*MaintenanceRecord) error) (MaintenanceRecord, error)
	DeleteMaintenanceRecord(id string) error
	CreateIncidentReport(IncidentReport) (IncidentReport, error)
	UpdateIncidentReport(id string, mutator func(*IncidentReport) error) (IncidentReport, error)
	DeleteIncidentReport(id string) error
	CreateOperationalArea(OperationalArea) (OperationalArea, error)
	UpdateOperationalArea(id string, mutator func(*OperationalArea) error) (OperationalArea, error)
	DeleteOperationalArea(id string) error
	CreateCertificate(Certificate) (Certificate, error)
	UpdateCertificate(id string, mutator func(*Certificate) error) (Certificate, error)
	DeleteCertificate(id string) error
	AppendAuditEntry(AuditEntry) (AuditEntry, error)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetAircraft(id string) (Aircraft, bool)
	ListAircraft() []Aircraft
	GetManual(id string) (Manual, bool)
	ListManuals() []Manual
	GetMission(id string) (Mission, bool)
	ListMissions() []Mission
	GetFlightPlan(id string) (FlightPlan, bool)
	ListFlightPlans() []FlightPlan
	GetMaintenanceRecord(id string) (MaintenanceRecord, bool)
	ListMaintenanceRecords() []MaintenanceRecord
	GetIncidentReport(id string) (IncidentReport, bool)
	ListIncidentReports() []IncidentReport
	GetOperationalArea(id string) (OperationalArea, bool)
	ListOperationalAreas() []OperationalArea
	GetCertificate(id string) (Certificate, bool)
	ListCertificates() []Certificate
	ListAuditEntries(recordID string) []AuditEntry
	Close() error
}
