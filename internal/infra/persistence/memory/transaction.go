package memory

import (
	"errors"
	"fmt"

	"rpascore/pkg/domain"
)

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// CreateAircraft stores a new airframe record.
func (tx *transaction) CreateAircraft(a Aircraft) (Aircraft, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.aircraft[a.ID]; exists {
		return Aircraft{}, fmt.Errorf("aircraft %q already exists", a.ID)
	}
	if a.Registration == "" {
		return Aircraft{}, errors.New("aircraft requires a registration mark")
	}
	for _, other := range tx.state.aircraft {
		if other.Registration == a.Registration {
			return Aircraft{}, fmt.Errorf("registration %q already in use by aircraft %q", a.Registration, other.ID)
		}
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.aircraft[a.ID] = cloneAircraft(a)
	tx.recordChange(Change{Entity: domain.EntityAircraft, Action: domain.ActionCreate, After: cloneAircraft(a)})
	return cloneAircraft(a), nil
}

// UpdateAircraft mutates an aircraft using the provided mutator function.
func (tx *transaction) UpdateAircraft(id string, mutator func(*Aircraft) error) (Aircraft, error) {
	current, ok := tx.state.aircraft[id]
	if !ok {
		return Aircraft{}, domain.ErrNotFound{Entity: domain.EntityAircraft, ID: id}
	}
	before := cloneAircraft(current)
	if err := mutator(&current); err != nil {
		return Aircraft{}, err
	}
	if current.Registration == "" {
		return Aircraft{}, errors.New("aircraft requires a registration mark")
	}
	for otherID, other := range tx.state.aircraft {
		if otherID != id && other.Registration == current.Registration {
			return Aircraft{}, fmt.Errorf("registration %q already in use by aircraft %q", current.Registration, otherID)
		}
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.aircraft[id] = cloneAircraft(current)
	tx.recordChange(Change{Entity: domain.EntityAircraft, Action: domain.ActionUpdate, Before: before, After: cloneAircraft(current)})
	return cloneAircraft(current), nil
}

// DeleteAircraft removes an airframe that no other record references.
func (tx *transaction) DeleteAircraft(id string) error {
	current, ok := tx.state.aircraft[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityAircraft, ID: id}
	}
	for _, plan := range tx.state.flightPlans {
		if plan.AircraftID == id {
			return fmt.Errorf("aircraft %q still referenced by flight plan %q", id, plan.RecordID)
		}
	}
	for _, rec := range tx.state.maintenance {
		if rec.AircraftID == id {
			return fmt.Errorf("aircraft %q still referenced by maintenance record %q", id, rec.RecordID)
		}
	}
	for _, report := range tx.state.incidents {
		if report.AircraftID != nil && *report.AircraftID == id {
			return fmt.Errorf("aircraft %q still referenced by incident report %q", id, report.RecordID)
		}
	}
	delete(tx.state.aircraft, id)
	tx.recordChange(Change{Entity: domain.EntityAircraft, Action: domain.ActionDelete, Before: cloneAircraft(current)})
	return nil
}

// CreateManual stores a new governed document.
func (tx *transaction) CreateManual(m Manual) (Manual, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.manuals[m.ID]; exists {
		return Manual{}, fmt.Errorf("manual %q already exists", m.ID)
	}
	if m.RecordID == "" {
		return Manual{}, errors.New("manual requires a record identifier")
	}
	if recordIDInUse(&tx.state, m.RecordID, "") {
		return Manual{}, domain.DuplicateIdentifierError{RecordID: m.RecordID}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.manuals[m.ID] = cloneManual(m)
	tx.recordChange(Change{Entity: domain.EntityManual, Action: domain.ActionCreate, After: cloneManual(m)})
	return cloneManual(m), nil
}

// UpdateManual mutates a manual. The record identifier is immutable.
func (tx *transaction) UpdateManual(id string, mutator func(*Manual) error) (Manual, error) {
	current, ok := tx.state.manuals[id]
	if !ok {
		return Manual{}, domain.ErrNotFound{Entity: domain.EntityManual, ID: id}
	}
	before := cloneManual(current)
	if err := mutator(&current); err != nil {
		return Manual{}, err
	}
	if current.RecordID != before.RecordID {
		return Manual{}, fmt.Errorf("manual %q record identifier is immutable", before.RecordID)
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.manuals[id] = cloneManual(current)
	tx.recordChange(Change{Entity: domain.EntityManual, Action: domain.ActionUpdate, Before: before, After: cloneManual(current)})
	return cloneManual(current), nil
}

// DeleteManual removes a manual from state.
func (tx *transaction) DeleteManual(id string) error {
	current, ok := tx.state.manuals[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityManual, ID: id}
	}
	delete(tx.state.manuals, id)
	tx.recordChange(Change{Entity: domain.EntityManual, Action: domain.ActionDelete, Before: cloneManual(current)})
	return nil
}

// CreateMission stores a new mission record.
func (tx *transaction) CreateMission(m Mission) (Mission, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.missions[m.ID]; exists {
		return Mission{}, fmt.Errorf("mission %q already exists", m.ID)
	}
	if m.RecordID == "" {
		return Mission{}, errors.New("mission requires a record identifier")
	}
	if recordIDInUse(&tx.state, m.RecordID, "") {
		return Mission{}, domain.DuplicateIdentifierError{RecordID: m.RecordID}
	}
	if m.AreaID != nil {
		if _, ok := tx.state.areas[*m.AreaID]; !ok {
			return Mission{}, fmt.Errorf("operational area %q not found", *m.AreaID)
		}
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.missions[m.ID] = cloneMission(m)
	tx.recordChange(Change{Entity: domain.EntityMission, Action: domain.ActionCreate, After: cloneMission(m)})
	return cloneMission(m), nil
}

// UpdateMission mutates a mission. The record identifier is immutable.
func (tx *transaction) UpdateMission(id string, mutator func(*Mission) error) (Mission, error) {
	current, ok := tx.state.missions[id]
	if !ok {
		return Mission{}, domain.ErrNotFound{Entity: domain.EntityMission, ID: id}
	}
	before := cloneMission(current)
	if err := mutator(&current); err != nil {
		return Mission{}, err
	}
	if current.RecordID != before.RecordID {
		return Mission{}, fmt.Errorf("mission %q record identifier is immutable", before.RecordID)
	}
	if current.AreaID != nil {
		if _, ok := tx.state.areas[*current.AreaID]; !ok {
			return Mission{}, fmt.Errorf("operational area %q not found", *current.AreaID)
		}
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.missions[id] = cloneMission(current)
	tx.recordChange(Change{Entity: domain.EntityMission, Action: domain.ActionUpdate, Before: before, After: cloneMission(current)})
	return cloneMission(current), nil
}

// DeleteMission removes a mission that no flight plan or incident references.
func (tx *transaction) DeleteMission(id string) error {
	current, ok := tx.state.missions[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityMission, ID: id}
	}
	for _, plan := range tx.state.flightPlans {
		if plan.MissionID == id {
			return fmt.Errorf("mission %q still referenced by flight plan %q", current.RecordID, plan.RecordID)
		}
	}
	for _, report := range tx.state.incidents {
		if report.MissionID != nil && *report.MissionID == id {
			return fmt.Errorf("mission %q still referenced by incident report %q", current.RecordID, report.RecordID)
		}
	}
	delete(tx.state.missions, id)
	tx.recordChange(Change{Entity: domain.EntityMission, Action: domain.ActionDelete, Before: cloneMission(current)})
	return nil
}

// CreateFlightPlan stores a new flight plan bound to a mission and aircraft.
func (tx *transaction) CreateFlightPlan(p FlightPlan) (FlightPlan, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.flightPlans[p.ID]; exists {
		return FlightPlan{}, fmt.Errorf("flight plan %q already exists", p.ID)
	}
	if p.RecordID == "" {
		return FlightPlan{}, errors.New("flight plan requires a record identifier")
	}
	if recordIDInUse(&tx.state, p.RecordID, "") {
		return FlightPlan{}, domain.DuplicateIdentifierError{RecordID: p.RecordID}
	}
	if p.MissionID == "" {
		return FlightPlan{}, errors.New("flight plan requires a mission")
	}
	if _, ok := tx.state.missions[p.MissionID]; !ok {
		return FlightPlan{}, fmt.Errorf("mission %q not found", p.MissionID)
	}
	if p.AircraftID == "" {
		return FlightPlan{}, errors.New("flight plan requires an aircraft")
	}
	if _, ok := tx.state.aircraft[p.AircraftID]; !ok {
		return FlightPlan{}, fmt.Errorf("aircraft %q not found", p.AircraftID)
	}
	if p.AreaID != nil {
		if _, ok := tx.state.areas[*p.AreaID]; !ok {
			return FlightPlan{}, fmt.Errorf("operational area %q not found", *p.AreaID)
		}
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.flightPlans[p.ID] = cloneFlightPlan(p)
	tx.recordChange(Change{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: cloneFlightPlan(p)})
	return cloneFlightPlan(p), nil
}

// UpdateFlightPlan mutates a flight plan. The record identifier is immutable.
func (tx *transaction) UpdateFlightPlan(id string, mutator func(*FlightPlan) error) (FlightPlan, error) {
	current, ok := tx.state.flightPlans[id]
	if !ok {
		return FlightPlan{}, domain.ErrNotFound{Entity: domain.EntityFlightPlan, ID: id}
	}
	before := cloneFlightPlan(current)
	if err := mutator(&current); err != nil {
		return FlightPlan{}, err
	}
	if current.RecordID != before.RecordID {
		return FlightPlan{}, fmt.Errorf("flight plan %q record identifier is immutable", before.RecordID)
	}
	if _, ok := tx.state.missions[current.MissionID]; !ok {
		return FlightPlan{}, fmt.Errorf("mission %q not found", current.MissionID)
	}
	if _, ok := tx.state.aircraft[current.AircraftID]; !ok {
		return FlightPlan{}, fmt.Errorf("aircraft %q not found", current.AircraftID)
	}
	if current.AreaID != nil {
		if _, ok := tx.state.areas[*current.AreaID]; !ok {
			return FlightPlan{}, fmt.Errorf("operational area %q not found", *current.AreaID)
		}
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.flightPlans[id] = cloneFlightPlan(current)
	tx.recordChange(Change{Entity: domain.EntityFlightPlan, Action: domain.ActionUpdate, Before: before, After: cloneFlightPlan(current)})
	return cloneFlightPlan(current), nil
}

// DeleteFlightPlan removes a flight plan from state.
func (tx *transaction) DeleteFlightPlan(id string) error {
	current, ok := tx.state.flightPlans[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityFlightPlan, ID: id}
	}
	delete(tx.state.flightPlans, id)
	tx.recordChange(Change{Entity: domain.EntityFlightPlan, Action: domain.ActionDelete, Before: cloneFlightPlan(current)})
	return nil
}

// CreateMaintenanceRecord stores a new maintenance obligation.
func (tx *transaction) CreateMaintenanceRecord(r MaintenanceRecord) (MaintenanceRecord, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.maintenance[r.ID]; exists {
		return MaintenanceRecord{}, fmt.Errorf("maintenance record %q already exists", r.ID)
	}
	if r.RecordID == "" {
		return MaintenanceRecord{}, errors.New("maintenance record requires a record identifier")
	}
	if recordIDInUse(&tx.state, r.RecordID, "") {
		return MaintenanceRecord{}, domain.DuplicateIdentifierError{RecordID: r.RecordID}
	}
	if r.AircraftID == "" {
		return MaintenanceRecord{}, errors.New("maintenance record requires an aircraft")
	}
	if _, ok := tx.state.aircraft[r.AircraftID]; !ok {
		return MaintenanceRecord{}, fmt.Errorf("aircraft %q not found", r.AircraftID)
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.maintenance[r.ID] = cloneMaintenance(r)
	tx.recordChange(Change{Entity: domain.EntityMaintenance, Action: domain.ActionCreate, After: cloneMaintenance(r)})
	return cloneMaintenance(r), nil
}

// UpdateMaintenanceRecord mutates a maintenance record.
func (tx *transaction) UpdateMaintenanceRecord(id string, mutator func(*MaintenanceRecord) error) (MaintenanceRecord, error) {
	current, ok := tx.state.maintenance[id]
	if !ok {
		return MaintenanceRecord{}, domain.ErrNotFound{Entity: domain.EntityMaintenance, ID: id}
	}
	before := cloneMaintenance(current)
	if err := mutator(&current); err != nil {
		return MaintenanceRecord{}, err
	}
	if current.RecordID != before.RecordID {
		return MaintenanceRecord{}, fmt.Errorf("maintenance record %q record identifier is immutable", before.RecordID)
	}
	if _, ok := tx.state.aircraft[current.AircraftID]; !ok {
		return MaintenanceRecord{}, fmt.Errorf("aircraft %q not found", current.AircraftID)
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.maintenance[id] = cloneMaintenance(current)
	tx.recordChange(Change{Entity: domain.EntityMaintenance, Action: domain.ActionUpdate, Before: before, After: cloneMaintenance(current)})
	return cloneMaintenance(current), nil
}

// DeleteMaintenanceRecord removes a maintenance record from state.
func (tx *transaction) DeleteMaintenanceRecord(id string) error {
	current, ok := tx.state.maintenance[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityMaintenance, ID: id}
	}
	delete(tx.state.maintenance, id)
	tx.recordChange(Change{Entity: domain.EntityMaintenance, Action: domain.ActionDelete, Before: cloneMaintenance(current)})
	return nil
}

// CreateIncidentReport stores a new incident report.
func (tx *transaction) CreateIncidentReport(r IncidentReport) (IncidentReport, error) {
	if r.ID == "" {
		r.ID = tx.store.newID()
	}
	if _, exists := tx.state.incidents[r.ID]; exists {
		return IncidentReport{}, fmt.Errorf("incident report %q already exists", r.ID)
	}
	if r.RecordID == "" {
		return IncidentReport{}, errors.New("incident report requires a record identifier")
	}
	if recordIDInUse(&tx.state, r.RecordID, "") {
		return IncidentReport{}, domain.DuplicateIdentifierError{RecordID: r.RecordID}
	}
	if r.AircraftID != nil {
		if _, ok := tx.state.aircraft[*r.AircraftID]; !ok {
			return IncidentReport{}, fmt.Errorf("aircraft %q not found", *r.AircraftID)
		}
	}
	if r.MissionID != nil {
		if _, ok := tx.state.missions[*r.MissionID]; !ok {
			return IncidentReport{}, fmt.Errorf("mission %q not found", *r.MissionID)
		}
	}
	r.CreatedAt = tx.now
	r.UpdatedAt = tx.now
	tx.state.incidents[r.ID] = cloneIncident(r)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionCreate, After: cloneIncident(r)})
	return cloneIncident(r), nil
}

// UpdateIncidentReport mutates an incident report.
func (tx *transaction) UpdateIncidentReport(id string, mutator func(*IncidentReport) error) (IncidentReport, error) {
	current, ok := tx.state.incidents[id]
	if !ok {
		return IncidentReport{}, domain.ErrNotFound{Entity: domain.EntityIncident, ID: id}
	}
	before := cloneIncident(current)
	if err := mutator(&current); err != nil {
		return IncidentReport{}, err
	}
	if current.RecordID != before.RecordID {
		return IncidentReport{}, fmt.Errorf("incident report %q record identifier is immutable", before.RecordID)
	}
	if current.AircraftID != nil {
		if _, ok := tx.state.aircraft[*current.AircraftID]; !ok {
			return IncidentReport{}, fmt.Errorf("aircraft %q not found", *current.AircraftID)
		}
	}
	if current.MissionID != nil {
		if _, ok := tx.state.missions[*current.MissionID]; !ok {
			return IncidentReport{}, fmt.Errorf("mission %q not found", *current.MissionID)
		}
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.incidents[id] = cloneIncident(current)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionUpdate, Before: before, After: cloneIncident(current)})
	return cloneIncident(current), nil
}

// DeleteIncidentReport removes an incident report from state.
func (tx *transaction) DeleteIncidentReport(id string) error {
	current, ok := tx.state.incidents[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityIncident, ID: id}
	}
	delete(tx.state.incidents, id)
	tx.recordChange(Change{Entity: domain.EntityIncident, Action: domain.ActionDelete, Before: cloneIncident(current)})
	return nil
}

// CreateOperationalArea stores a new operational area definition.
func (tx *transaction) CreateOperationalArea(a OperationalArea) (OperationalArea, error) {
	if a.ID == "" {
		a.ID = tx.store.newID()
	}
	if _, exists := tx.state.areas[a.ID]; exists {
		return OperationalArea{}, fmt.Errorf("operational area %q already exists", a.ID)
	}
	if a.RecordID == "" {
		return OperationalArea{}, errors.New("operational area requires a record identifier")
	}
	if recordIDInUse(&tx.state, a.RecordID, "") {
		return OperationalArea{}, domain.DuplicateIdentifierError{RecordID: a.RecordID}
	}
	a.CreatedAt = tx.now
	a.UpdatedAt = tx.now
	tx.state.areas[a.ID] = cloneArea(a)
	tx.recordChange(Change{Entity: domain.EntityArea, Action: domain.ActionCreate, After: cloneArea(a)})
	return cloneArea(a), nil
}

// UpdateOperationalArea mutates an operational area.
func (tx *transaction) UpdateOperationalArea(id string, mutator func(*OperationalArea) error) (OperationalArea, error) {
	current, ok := tx.state.areas[id]
	if !ok {
		return OperationalArea{}, domain.ErrNotFound{Entity: domain.EntityArea, ID: id}
	}
	before := cloneArea(current)
	if err := mutator(&current); err != nil {
		return OperationalArea{}, err
	}
	if current.RecordID != before.RecordID {
		return OperationalArea{}, fmt.Errorf("operational area %q record identifier is immutable", before.RecordID)
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.areas[id] = cloneArea(current)
	tx.recordChange(Change{Entity: domain.EntityArea, Action: domain.ActionUpdate, Before: before, After: cloneArea(current)})
	return cloneArea(current), nil
}

// DeleteOperationalArea removes an area no mission or flight plan references.
func (tx *transaction) DeleteOperationalArea(id string) error {
	current, ok := tx.state.areas[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityArea, ID: id}
	}
	for _, mission := range tx.state.missions {
		if mission.AreaID != nil && *mission.AreaID == id {
			return fmt.Errorf("operational area %q still referenced by mission %q", current.RecordID, mission.RecordID)
		}
	}
	for _, plan := range tx.state.flightPlans {
		if plan.AreaID != nil && *plan.AreaID == id {
			return fmt.Errorf("operational area %q still referenced by flight plan %q", current.RecordID, plan.RecordID)
		}
	}
	delete(tx.state.areas, id)
	tx.recordChange(Change{Entity: domain.EntityArea, Action: domain.ActionDelete, Before: cloneArea(current)})
	return nil
}

// CreateCertificate stores a new certificate register entry.
func (tx *transaction) CreateCertificate(c Certificate) (Certificate, error) {
	if c.ID == "" {
		c.ID = tx.store.newID()
	}
	if _, exists := tx.state.certificates[c.ID]; exists {
		return Certificate{}, fmt.Errorf("certificate %q already exists", c.ID)
	}
	if c.Holder == "" {
		return Certificate{}, errors.New("certificate requires a holder")
	}
	if !c.ExpiresAt.After(c.IssuedAt) {
		return Certificate{}, errors.New("certificate expiry must follow issue")
	}
	c.CreatedAt = tx.now
	c.UpdatedAt = tx.now
	tx.state.certificates[c.ID] = c
	tx.recordChange(Change{Entity: domain.EntityCertificate, Action: domain.ActionCreate, After: c})
	return c, nil
}

// UpdateCertificate mutates a certificate register entry.
func (tx *transaction) UpdateCertificate(id string, mutator func(*Certificate) error) (Certificate, error) {
	current, ok := tx.state.certificates[id]
	if !ok {
		return Certificate{}, domain.ErrNotFound{Entity: domain.EntityCertificate, ID: id}
	}
	before := current
	if err := mutator(&current); err != nil {
		return Certificate{}, err
	}
	if current.Holder == "" {
		return Certificate{}, errors.New("certificate requires a holder")
	}
	if !current.ExpiresAt.After(current.IssuedAt) {
		return Certificate{}, errors.New("certificate expiry must follow issue")
	}
	current.ID = id
	current.CreatedAt = before.CreatedAt
	current.UpdatedAt = tx.now
	tx.state.certificates[id] = current
	tx.recordChange(Change{Entity: domain.EntityCertificate, Action: domain.ActionUpdate, Before: before, After: current})
	return current, nil
}

// DeleteCertificate removes a certificate register entry.
func (tx *transaction) DeleteCertificate(id string) error {
	current, ok := tx.state.certificates[id]
	if !ok {
		return domain.ErrNotFound{Entity: domain.EntityCertificate, ID: id}
	}
	delete(tx.state.certificates, id)
	tx.recordChange(Change{Entity: domain.EntityCertificate, Action: domain.ActionDelete, Before: current})
	return nil
}

// AppendAuditEntry appends to the audit trail. Entries are never updated or
// deleted.
func (tx *transaction) AppendAuditEntry(entry AuditEntry) (AuditEntry, error) {
	if entry.RecordID == "" {
		return AuditEntry{}, errors.New("audit entry requires a record identifier")
	}
	if entry.ID == "" {
		entry.ID = tx.store.newID()
	}
	if entry.At.IsZero() {
		entry.At = tx.now
	}
	tx.state.audits = append(tx.state.audits, entry)
	tx.recordChange(Change{Entity: domain.EntityAudit, Action: domain.ActionCreate, After: entry})
	return entry, nil
}
