// Package memory provides the canonical in-memory implementation of the
// persistence contracts. Transactions run against a cloned state, rule
// evaluation gates the commit, and the sqlite and postgres stores reuse the
// same state through exported snapshots.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"rpascore/pkg/domain"
)

var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Transaction     = (*transaction)(nil)
	_ domain.TransactionView = (transactionView{})
)

type (
	// Aircraft aliases domain.Aircraft for in-memory persistence operations.
	Aircraft = domain.Aircraft
	// Manual aliases domain.Manual.
	Manual = domain.Manual
	// Mission aliases domain.Mission.
	Mission = domain.Mission
	// FlightPlan aliases domain.FlightPlan.
	FlightPlan = domain.FlightPlan
	// MaintenanceRecord aliases domain.MaintenanceRecord.
	MaintenanceRecord = domain.MaintenanceRecord
	// IncidentReport aliases domain.IncidentReport.
	IncidentReport = domain.IncidentReport
	// OperationalArea aliases domain.OperationalArea.
	OperationalArea = domain.OperationalArea
	// Certificate aliases domain.Certificate.
	Certificate = domain.Certificate
	// AuditEntry aliases domain.AuditEntry.
	AuditEntry = domain.AuditEntry
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	aircraft     map[string]Aircraft
	manuals      map[string]Manual
	missions     map[string]Mission
	flightPlans  map[string]FlightPlan
	maintenance  map[string]MaintenanceRecord
	incidents    map[string]IncidentReport
	areas        map[string]OperationalArea
	certificates map[string]Certificate
	audits       []AuditEntry
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Aircraft     map[string]Aircraft          `json:"aircraft"`
	Manuals      map[string]Manual            `json:"manuals"`
	Missions     map[string]Mission           `json:"missions"`
	FlightPlans  map[string]FlightPlan        `json:"flight_plans"`
	Maintenance  map[string]MaintenanceRecord `json:"maintenance"`
	Incidents    map[string]IncidentReport    `json:"incidents"`
	Areas        map[string]OperationalArea   `json:"areas"`
	Certificates map[string]Certificate       `json:"certificates"`
	Audits       []AuditEntry                 `json:"audits"`
}

func newMemoryState() memoryState {
	return memoryState{
		aircraft:     make(map[string]Aircraft),
		manuals:      make(map[string]Manual),
		missions:     make(map[string]Mission),
		flightPlans:  make(map[string]FlightPlan),
		maintenance:  make(map[string]MaintenanceRecord),
		incidents:    make(map[string]IncidentReport),
		areas:        make(map[string]OperationalArea),
		certificates: make(map[string]Certificate),
	}
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.aircraft {
		cloned.aircraft[k] = cloneAircraft(v)
	}
	for k, v := range s.manuals {
		cloned.manuals[k] = cloneManual(v)
	}
	for k, v := range s.missions {
		cloned.missions[k] = cloneMission(v)
	}
	for k, v := range s.flightPlans {
		cloned.flightPlans[k] = cloneFlightPlan(v)
	}
	for k, v := range s.maintenance {
		cloned.maintenance[k] = cloneMaintenance(v)
	}
	for k, v := range s.incidents {
		cloned.incidents[k] = cloneIncident(v)
	}
	for k, v := range s.areas {
		cloned.areas[k] = cloneArea(v)
	}
	for k, v := range s.certificates {
		cloned.certificates[k] = v
	}
	cloned.audits = append([]AuditEntry(nil), s.audits...)
	return cloned
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Aircraft:     make(map[string]Aircraft, len(state.aircraft)),
		Manuals:      make(map[string]Manual, len(state.manuals)),
		Missions:     make(map[string]Mission, len(state.missions)),
		FlightPlans:  make(map[string]FlightPlan, len(state.flightPlans)),
		Maintenance:  make(map[string]MaintenanceRecord, len(state.maintenance)),
		Incidents:    make(map[string]IncidentReport, len(state.incidents)),
		Areas:        make(map[string]OperationalArea, len(state.areas)),
		Certificates: make(map[string]Certificate, len(state.certificates)),
		Audits:       append([]AuditEntry(nil), state.audits...),
	}
	for k, v := range state.aircraft {
		s.Aircraft[k] = cloneAircraft(v)
	}
	for k, v := range state.manuals {
		s.Manuals[k] = cloneManual(v)
	}
	for k, v := range state.missions {
		s.Missions[k] = cloneMission(v)
	}
	for k, v := range state.flightPlans {
		s.FlightPlans[k] = cloneFlightPlan(v)
	}
	for k, v := range state.maintenance {
		s.Maintenance[k] = cloneMaintenance(v)
	}
	for k, v := range state.incidents {
		s.Incidents[k] = cloneIncident(v)
	}
	for k, v := range state.areas {
		s.Areas[k] = cloneArea(v)
	}
	for k, v := range state.certificates {
		s.Certificates[k] = v
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Aircraft {
		state.aircraft[k] = cloneAircraft(v)
	}
	for k, v := range s.Manuals {
		state.manuals[k] = cloneManual(v)
	}
	for k, v := range s.Missions {
		state.missions[k] = cloneMission(v)
	}
	for k, v := range s.FlightPlans {
		state.flightPlans[k] = cloneFlightPlan(v)
	}
	for k, v := range s.Maintenance {
		state.maintenance[k] = cloneMaintenance(v)
	}
	for k, v := range s.Incidents {
		state.incidents[k] = cloneIncident(v)
	}
	for k, v := range s.Areas {
		state.areas[k] = cloneArea(v)
	}
	for k, v := range s.Certificates {
		state.certificates[k] = v
	}
	state.audits = append([]AuditEntry(nil), s.Audits...)
	return state
}

// migrateSnapshot repairs snapshots restored from disk: nil maps become empty
// and records referencing entities that no longer exist are dropped or
// detached so the restored state satisfies the same integrity checks the
// transaction path enforces.
func migrateSnapshot(snapshot Snapshot) Snapshot {
	if snapshot.Aircraft == nil {
		snapshot.Aircraft = map[string]Aircraft{}
	}
	if snapshot.Manuals == nil {
		snapshot.Manuals = map[string]Manual{}
	}
	if snapshot.Missions == nil {
		snapshot.Missions = map[string]Mission{}
	}
	if snapshot.FlightPlans == nil {
		snapshot.FlightPlans = map[string]FlightPlan{}
	}
	if snapshot.Maintenance == nil {
		snapshot.Maintenance = map[string]MaintenanceRecord{}
	}
	if snapshot.Incidents == nil {
		snapshot.Incidents = map[string]IncidentReport{}
	}
	if snapshot.Areas == nil {
		snapshot.Areas = map[string]OperationalArea{}
	}
	if snapshot.Certificates == nil {
		snapshot.Certificates = map[string]Certificate{}
	}

	aircraftExists := func(id string) bool {
		_, ok := snapshot.Aircraft[id]
		return ok
	}
	missionExists := func(id string) bool {
		_, ok := snapshot.Missions[id]
		return ok
	}
	areaExists := func(id string) bool {
		_, ok := snapshot.Areas[id]
		return ok
	}

	for id, mission := range snapshot.Missions {
		if mission.AreaID != nil && !areaExists(*mission.AreaID) {
			mission.AreaID = nil
			snapshot.Missions[id] = mission
		}
	}
	for id, plan := range snapshot.FlightPlans {
		if plan.MissionID == "" || !missionExists(plan.MissionID) {
			delete(snapshot.FlightPlans, id)
			continue
		}
		if plan.AircraftID == "" || !aircraftExists(plan.AircraftID) {
			delete(snapshot.FlightPlans, id)
			continue
		}
		if plan.AreaID != nil && !areaExists(*plan.AreaID) {
			plan.AreaID = nil
		}
		snapshot.FlightPlans[id] = plan
	}
	for id, rec := range snapshot.Maintenance {
		if rec.AircraftID == "" || !aircraftExists(rec.AircraftID) {
			delete(snapshot.Maintenance, id)
		}
	}
	for id, report := range snapshot.Incidents {
		if report.AircraftID != nil && !aircraftExists(*report.AircraftID) {
			report.AircraftID = nil
		}
		if report.MissionID != nil && !missionExists(*report.MissionID) {
			report.MissionID = nil
		}
		snapshot.Incidents[id] = report
	}
	return snapshot
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func cloneStrings(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneRing(r domain.Ring) domain.Ring {
	if len(r) == 0 {
		return nil
	}
	return append(domain.Ring(nil), r...)
}

func cloneAircraft(a Aircraft) Aircraft {
	cp := a
	cp.InsuredUntil = cloneTimePtr(a.InsuredUntil)
	return cp
}

func cloneManual(m Manual) Manual {
	cp := m
	cp.ApprovedBy = cloneStringPtr(m.ApprovedBy)
	cp.PublishedAt = cloneTimePtr(m.PublishedAt)
	cp.AttachmentKeys = cloneStrings(m.AttachmentKeys)
	return cp
}

func cloneMission(m Mission) Mission {
	cp := m
	cp.AreaID = cloneStringPtr(m.AreaID)
	return cp
}

func cloneFlightPlan(p FlightPlan) FlightPlan {
	cp := p
	cp.OperatingArea = cloneRing(p.OperatingArea)
	cp.AreaID = cloneStringPtr(p.AreaID)
	return cp
}

func cloneMaintenance(m MaintenanceRecord) MaintenanceRecord {
	cp := m
	cp.CompletedAt = cloneTimePtr(m.CompletedAt)
	return cp
}

func cloneIncident(r IncidentReport) IncidentReport {
	cp := r
	cp.AircraftID = cloneStringPtr(r.AircraftID)
	cp.MissionID = cloneStringPtr(r.MissionID)
	cp.ReportedAt = cloneTimePtr(r.ReportedAt)
	if r.Location != nil {
		loc := *r.Location
		cp.Location = &loc
	}
	cp.AttachmentKeys = cloneStrings(r.AttachmentKeys)
	return cp
}

func cloneArea(a OperationalArea) OperationalArea {
	cp := a
	cp.Boundary = cloneRing(a.Boundary)
	cp.EffectiveUntil = cloneTimePtr(a.EffectiveUntil)
	return cp
}

// recordIDInUse reports whether any record in the state already carries the
// identifier, optionally skipping one entity instance during updates.
func recordIDInUse(state *memoryState, recordID, exceptID string) bool {
	if recordID == "" {
		return false
	}
	for id, m := range state.manuals {
		if id != exceptID && m.RecordID == recordID {
			return true
		}
	}
	for id, m := range state.missions {
		if id != exceptID && m.RecordID == recordID {
			return true
		}
	}
	for id, p := range state.flightPlans {
		if id != exceptID && p.RecordID == recordID {
			return true
		}
	}
	for id, r := range state.maintenance {
		if id != exceptID && r.RecordID == recordID {
			return true
		}
	}
	for id, r := range state.incidents {
		if id != exceptID && r.RecordID == recordID {
			return true
		}
	}
	for id, a := range state.areas {
		if id != exceptID && a.RecordID == recordID {
			return true
		}
	}
	return false
}

// Store provides the in-memory transactional store for the compliance domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store gated by the provided rules engine.
// A nil engine means no rules are evaluated.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(migrateSnapshot(snapshot))
}

// RulesEngine exposes the configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc replaces the store clock. Tests use this for deterministic
// timestamps.
func (s *Store) SetNowFunc(fn func() time.Time) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// Close releases nothing for the in-memory store.
func (s *Store) Close() error { return nil }

// RunInTransaction executes fn within a transactional copy of the store
// state. The rules engine evaluates the recorded changes before commit; any
// blocking violation discards the copy and surfaces RuleViolationError
// together with the full result.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

// GetAircraft returns the aircraft with the given ID.
func (s *Store) GetAircraft(id string) (Aircraft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.aircraft[id]
	if !ok {
		return Aircraft{}, false
	}
	return cloneAircraft(a), true
}

// ListAircraft returns every aircraft ordered by registration.
func (s *Store) ListAircraft() []Aircraft {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Aircraft, 0, len(s.state.aircraft))
	for _, a := range s.state.aircraft {
		out = append(out, cloneAircraft(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	return out
}

// GetManual returns the manual with the given ID.
func (s *Store) GetManual(id string) (Manual, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.manuals[id]
	if !ok {
		return Manual{}, false
	}
	return cloneManual(m), true
}

// ListManuals returns every manual ordered by record identifier.
func (s *Store) ListManuals() []Manual {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Manual, 0, len(s.state.manuals))
	for _, m := range s.state.manuals {
		out = append(out, cloneManual(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetMission returns the mission with the given ID.
func (s *Store) GetMission(id string) (Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.missions[id]
	if !ok {
		return Mission{}, false
	}
	return cloneMission(m), true
}

// ListMissions returns every mission ordered by record identifier.
func (s *Store) ListMissions() []Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mission, 0, len(s.state.missions))
	for _, m := range s.state.missions {
		out = append(out, cloneMission(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetFlightPlan returns the flight plan with the given ID.
func (s *Store) GetFlightPlan(id string) (FlightPlan, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.flightPlans[id]
	if !ok {
		return FlightPlan{}, false
	}
	return cloneFlightPlan(p), true
}

// ListFlightPlans returns every flight plan ordered by record identifier.
func (s *Store) ListFlightPlans() []FlightPlan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]FlightPlan, 0, len(s.state.flightPlans))
	for _, p := range s.state.flightPlans {
		out = append(out, cloneFlightPlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetMaintenanceRecord returns the maintenance record with the given ID.
func (s *Store) GetMaintenanceRecord(id string) (MaintenanceRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.maintenance[id]
	if !ok {
		return MaintenanceRecord{}, false
	}
	return cloneMaintenance(r), true
}

// ListMaintenanceRecords returns every maintenance record ordered by record
// identifier.
func (s *Store) ListMaintenanceRecords() []MaintenanceRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]MaintenanceRecord, 0, len(s.state.maintenance))
	for _, r := range s.state.maintenance {
		out = append(out, cloneMaintenance(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetIncidentReport returns the incident report with the given ID.
func (s *Store) GetIncidentReport(id string) (IncidentReport, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.state.incidents[id]
	if !ok {
		return IncidentReport{}, false
	}
	return cloneIncident(r), true
}

// ListIncidentReports returns every incident report ordered by record
// identifier.
func (s *Store) ListIncidentReports() []IncidentReport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]IncidentReport, 0, len(s.state.incidents))
	for _, r := range s.state.incidents {
		out = append(out, cloneIncident(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetOperationalArea returns the operational area with the given ID.
func (s *Store) GetOperationalArea(id string) (OperationalArea, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.state.areas[id]
	if !ok {
		return OperationalArea{}, false
	}
	return cloneArea(a), true
}

// ListOperationalAreas returns every operational area ordered by record
// identifier.
func (s *Store) ListOperationalAreas() []OperationalArea {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]OperationalArea, 0, len(s.state.areas))
	for _, a := range s.state.areas {
		out = append(out, cloneArea(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// GetCertificate returns the certificate with the given ID.
func (s *Store) GetCertificate(id string) (Certificate, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.state.certificates[id]
	if !ok {
		return Certificate{}, false
	}
	return c, true
}

// ListCertificates returns every certificate ordered by holder then expiry.
func (s *Store) ListCertificates() []Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Certificate, 0, len(s.state.certificates))
	for _, c := range s.state.certificates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Holder != out[j].Holder {
			return out[i].Holder < out[j].Holder
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// ListAuditEntries returns audit entries ordered by time. An empty record ID
// returns the full trail.
func (s *Store) ListAuditEntries(recordID string) []AuditEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return auditEntriesFor(s.state.audits, recordID)
}

func auditEntriesFor(audits []AuditEntry, recordID string) []AuditEntry {
	out := make([]AuditEntry, 0, len(audits))
	for _, entry := range audits {
		if recordID != "" && entry.RecordID != recordID {
			continue
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].At.Equal(out[j].At) {
			return out[i].At.Before(out[j].At)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListAircraft returns all aircraft within the transaction snapshot.
func (v transactionView) ListAircraft() []Aircraft {
	out := make([]Aircraft, 0, len(v.state.aircraft))
	for _, a := range v.state.aircraft {
		out = append(out, cloneAircraft(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Registration < out[j].Registration })
	return out
}

// FindAircraft retrieves an aircraft by ID from the snapshot.
func (v transactionView) FindAircraft(id string) (Aircraft, bool) {
	a, ok := v.state.aircraft[id]
	if !ok {
		return Aircraft{}, false
	}
	return cloneAircraft(a), true
}

// ListManuals returns all manuals within the transaction snapshot.
func (v transactionView) ListManuals() []Manual {
	out := make([]Manual, 0, len(v.state.manuals))
	for _, m := range v.state.manuals {
		out = append(out, cloneManual(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindManual retrieves a manual by ID from the snapshot.
func (v transactionView) FindManual(id string) (Manual, bool) {
	m, ok := v.state.manuals[id]
	if !ok {
		return Manual{}, false
	}
	return cloneManual(m), true
}

// ListMissions returns all missions within the transaction snapshot.
func (v transactionView) ListMissions() []Mission {
	out := make([]Mission, 0, len(v.state.missions))
	for _, m := range v.state.missions {
		out = append(out, cloneMission(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindMission retrieves a mission by ID from the snapshot.
func (v transactionView) FindMission(id string) (Mission, bool) {
	m, ok := v.state.missions[id]
	if !ok {
		return Mission{}, false
	}
	return cloneMission(m), true
}

// ListFlightPlans returns all flight plans within the transaction snapshot.
func (v transactionView) ListFlightPlans() []FlightPlan {
	out := make([]FlightPlan, 0, len(v.state.flightPlans))
	for _, p := range v.state.flightPlans {
		out = append(out, cloneFlightPlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindFlightPlan retrieves a flight plan by ID from the snapshot.
func (v transactionView) FindFlightPlan(id string) (FlightPlan, bool) {
	p, ok := v.state.flightPlans[id]
	if !ok {
		return FlightPlan{}, false
	}
	return cloneFlightPlan(p), true
}

// ListMaintenanceRecords returns all maintenance records in the snapshot.
func (v transactionView) ListMaintenanceRecords() []MaintenanceRecord {
	out := make([]MaintenanceRecord, 0, len(v.state.maintenance))
	for _, r := range v.state.maintenance {
		out = append(out, cloneMaintenance(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindMaintenanceRecord retrieves a maintenance record by ID.
func (v transactionView) FindMaintenanceRecord(id string) (MaintenanceRecord, bool) {
	r, ok := v.state.maintenance[id]
	if !ok {
		return MaintenanceRecord{}, false
	}
	return cloneMaintenance(r), true
}

// ListIncidentReports returns all incident reports in the snapshot.
func (v transactionView) ListIncidentReports() []IncidentReport {
	out := make([]IncidentReport, 0, len(v.state.incidents))
	for _, r := range v.state.incidents {
		out = append(out, cloneIncident(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindIncidentReport retrieves an incident report by ID.
func (v transactionView) FindIncidentReport(id string) (IncidentReport, bool) {
	r, ok := v.state.incidents[id]
	if !ok {
		return IncidentReport{}, false
	}
	return cloneIncident(r), true
}

// ListOperationalAreas returns all operational areas in the snapshot.
func (v transactionView) ListOperationalAreas() []OperationalArea {
	out := make([]OperationalArea, 0, len(v.state.areas))
	for _, a := range v.state.areas {
		out = append(out, cloneArea(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out
}

// FindOperationalArea retrieves an operational area by ID.
func (v transactionView) FindOperationalArea(id string) (OperationalArea, bool) {
	a, ok := v.state.areas[id]
	if !ok {
		return OperationalArea{}, false
	}
	return cloneArea(a), true
}

// ListCertificates returns all certificates in the snapshot.
func (v transactionView) ListCertificates() []Certificate {
	out := make([]Certificate, 0, len(v.state.certificates))
	for _, c := range v.state.certificates {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Holder != out[j].Holder {
			return out[i].Holder < out[j].Holder
		}
		return out[i].ExpiresAt.Before(out[j].ExpiresAt)
	})
	return out
}

// FindCertificate retrieves a certificate by ID.
func (v transactionView) FindCertificate(id string) (Certificate, bool) {
	c, ok := v.state.certificates[id]
	if !ok {
		return Certificate{}, false
	}
	return c, true
}

// ListAuditEntries returns the audit trail for a record, or the full trail
// for an empty record ID, ordered by time.
func (v transactionView) ListAuditEntries(recordID string) []AuditEntry {
	return auditEntriesFor(v.state.audits, recordID)
}

// HighestSequence returns the largest issued sequence number for the prefix
// and calendar year across every record bucket, or zero when none exists.
func (v transactionView) HighestSequence(prefix string, year int) int {
	series := fmt.Sprintf("%s-%04d-", prefix, year)
	highest := 0
	scan := func(recordID string) {
		if !strings.HasPrefix(recordID, series) {
			return
		}
		seq, err := strconv.Atoi(recordID[len(series):])
		if err != nil {
			return
		}
		if seq > highest {
			highest = seq
		}
	}
	for _, m := range v.state.manuals {
		scan(m.RecordID)
	}
	for _, m := range v.state.missions {
		scan(m.RecordID)
	}
	for _, p := range v.state.flightPlans {
		scan(p.RecordID)
	}
	for _, r := range v.state.maintenance {
		scan(r.RecordID)
	}
	for _, r := range v.state.incidents {
		scan(r.RecordID)
	}
	for _, a := range v.state.areas {
		scan(a.RecordID)
	}
	return highest
}
