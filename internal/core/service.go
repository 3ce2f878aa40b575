package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"rpascore/internal/blob"
	"rpascore/internal/infra/persistence/memory"
	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
	"rpascore/pkg/logger"
)

// Service exposes the transactional record operations of the register:
// creation with identifier issue, capability-checked lifecycle transitions,
// obligation completion, the schedule dashboard, conflict queries, and
// attachment storage. Every write runs through the store's rules engine.
type Service struct {
	store   domain.PersistentStore
	cfg     Config
	blobs   blob.Store
	log     *logger.Logger
	metrics MetricsRecorder
	tracer  Tracer
	now     func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithLogger attaches a structured logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetricsRecorder attaches a metrics backend observing every operation.
func WithMetricsRecorder(rec MetricsRecorder) Option {
	return func(s *Service) {
		if rec != nil {
			s.metrics = rec
		}
	}
}

// WithTracer attaches a tracing backend spanning every operation.
func WithTracer(tr Tracer) Option {
	return func(s *Service) {
		if tr != nil {
			s.tracer = tr
		}
	}
}

// WithClock overrides the service clock, fixing identifier years, audit
// timestamps, and obligation evaluation in tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBlobStore attaches attachment storage. Without one the attachment
// operations fail with ErrNoBlobStore.
func WithBlobStore(store blob.Store) Option {
	return func(s *Service) {
		s.blobs = store
	}
}

// NewService wraps an opened store.
func NewService(store domain.PersistentStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:   store,
		cfg:     cfg,
		log:     logger.NewNop(),
		metrics: noopMetricsRecorder{},
		tracer:  noopTracer{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewInMemoryService builds a service over a fresh in-memory store running
// the default rules for cfg.
func NewInMemoryService(cfg Config, opts ...Option) *Service {
	return NewService(memory.NewStore(NewDefaultRulesEngine(cfg)), cfg, opts...)
}

// Store returns the underlying persistent store for read access.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// Config returns the engine configuration the service evaluates against.
func (s *Service) Config() Config {
	return s.cfg
}

// instrument wraps one service operation with tracing and metrics.
func (s *Service) instrument(ctx context.Context, operation string, fn func(context.Context) error) error {
	ctx, span := s.tracer.Start(ctx, operation)
	started := time.Now()
	err := fn(ctx)
	s.metrics.Observe(ctx, operation, err == nil, time.Since(started))
	span.End(err)
	if err != nil {
		s.log.Debug("operation failed", logger.String("operation", operation), logger.Error(err))
	}
	return err
}

func (s *Service) logWarnings(res domain.Result) {
	for _, v := range res.Warnings() {
		s.log.Warn("rule warning",
			logger.String("rule", v.Rule),
			logger.String("entity", string(v.Entity)),
			logger.String("entity_id", v.EntityID),
			logger.String("message", v.Message),
		)
	}
}

func (s *Service) runTx(ctx context.Context, operation string, fn func(domain.Transaction) error) (domain.Result, error) {
	var res domain.Result
	err := s.instrument(ctx, operation, func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, fn)
		return err
	})
	s.logWarnings(res)
	return res, err
}

// issueRecordID runs fn in a transaction, passing the next register
// identifier for prefix unless the caller supplied one. A create that loses
// an identifier race is retried with a refreshed sequence until the
// configured budget is spent, then the duplicate surfaces to the caller.
func (s *Service) issueRecordID(ctx context.Context, operation, prefix, explicit string, fn func(tx domain.Transaction, recordID string) error) (domain.Result, error) {
	if explicit != "" {
		return s.runTx(ctx, operation, func(tx domain.Transaction) error {
			return fn(tx, explicit)
		})
	}
	var res domain.Result
	err := s.instrument(ctx, operation, func(ctx context.Context) error {
		year := s.now().UTC().Year()
		var lastErr error
		for attempt := 0; attempt < s.cfg.retryBudget(); attempt++ {
			var last int
			if err := s.store.View(ctx, func(v domain.TransactionView) error {
				last = v.HighestSequence(prefix, year)
				return nil
			}); err != nil {
				return err
			}
			recordID, _, err := compliance.NextID(prefix, year, last)
			if err != nil {
				return err
			}
			r, err := s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
				return fn(tx, recordID)
			})
			if err == nil {
				res = r
				return nil
			}
			var dup domain.DuplicateIdentifierError
			if !errors.As(err, &dup) {
				res = r
				return err
			}
			lastErr = err
			s.log.Debug("identifier race lost, retrying",
				logger.String("operation", operation),
				logger.String("record_id", recordID),
				logger.Int("attempt", attempt+1),
			)
		}
		return lastErr
	})
	s.logWarnings(res)
	return res, err
}

// appendAudit persists the audit entry a validated transition produced,
// assigning its identifier.
func (s *Service) appendAudit(tx domain.Transaction, outcome compliance.Outcome, entity domain.EntityType, recordID string) error {
	if outcome.Audit == nil {
		return nil
	}
	entry := *outcome.Audit
	entry.ID = uuid.NewString()
	entry.Entity = entity
	entry.RecordID = recordID
	_, err := tx.AppendAuditEntry(entry)
	return err
}

// CreateAircraft registers an aircraft.
func (s *Service) CreateAircraft(ctx context.Context, aircraft domain.Aircraft) (domain.Aircraft, domain.Result, error) {
	var created domain.Aircraft
	res, err := s.runTx(ctx, "create_aircraft", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateAircraft(aircraft)
		return err
	})
	return created, res, err
}

// UpdateAircraft mutates an aircraft using the provided mutator.
func (s *Service) UpdateAircraft(ctx context.Context, id string, mutator func(*domain.Aircraft) error) (domain.Aircraft, domain.Result, error) {
	var updated domain.Aircraft
	res, err := s.runTx(ctx, "update_aircraft", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateAircraft(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteAircraft removes an aircraft record.
func (s *Service) DeleteAircraft(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_aircraft", func(tx domain.Transaction) error {
		return tx.DeleteAircraft(id)
	})
}

// CreateManual registers a controlled manual, issuing its identifier.
func (s *Service) CreateManual(ctx context.Context, manual domain.Manual) (domain.Manual, domain.Result, error) {
	var created domain.Manual
	res, err := s.issueRecordID(ctx, "create_manual", compliance.PrefixManual, manual.RecordID, func(tx domain.Transaction, recordID string) error {
		manual.RecordID = recordID
		var err error
		created, err = tx.CreateManual(manual)
		return err
	})
	return created, res, err
}

// UpdateManual mutates a manual using the provided mutator.
func (s *Service) UpdateManual(ctx context.Context, id string, mutator func(*domain.Manual) error) (domain.Manual, domain.Result, error) {
	var updated domain.Manual
	res, err := s.runTx(ctx, "update_manual", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateManual(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteManual removes a manual record.
func (s *Service) DeleteManual(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_manual", func(tx domain.Transaction) error {
		return tx.DeleteManual(id)
	})
}

// CreateMission registers a mission, issuing its identifier.
func (s *Service) CreateMission(ctx context.Context, mission domain.Mission) (domain.Mission, domain.Result, error) {
	var created domain.Mission
	res, err := s.issueRecordID(ctx, "create_mission", compliance.PrefixMission, mission.RecordID, func(tx domain.Transaction, recordID string) error {
		mission.RecordID = recordID
		var err error
		created, err = tx.CreateMission(mission)
		return err
	})
	return created, res, err
}

// UpdateMission mutates a mission using the provided mutator.
func (s *Service) UpdateMission(ctx context.Context, id string, mutator func(*domain.Mission) error) (domain.Mission, domain.Result, error) {
	var updated domain.Mission
	res, err := s.runTx(ctx, "update_mission", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMission(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteMission removes a mission record.
func (s *Service) DeleteMission(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_mission", func(tx domain.Transaction) error {
		return tx.DeleteMission(id)
	})
}

// CreateFlightPlan registers a flight plan, issuing its identifier.
func (s *Service) CreateFlightPlan(ctx context.Context, plan domain.FlightPlan) (domain.FlightPlan, domain.Result, error) {
	var created domain.FlightPlan
	res, err := s.issueRecordID(ctx, "create_flight_plan", compliance.PrefixFlightPlan, plan.RecordID, func(tx domain.Transaction, recordID string) error {
		plan.RecordID = recordID
		var err error
		created, err = tx.CreateFlightPlan(plan)
		return err
	})
	return created, res, err
}

// UpdateFlightPlan mutates a flight plan using the provided mutator.
func (s *Service) UpdateFlightPlan(ctx context.Context, id string, mutator func(*domain.FlightPlan) error) (domain.FlightPlan, domain.Result, error) {
	var updated domain.FlightPlan
	res, err := s.runTx(ctx, "update_flight_plan", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateFlightPlan(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteFlightPlan removes a flight plan record.
func (s *Service) DeleteFlightPlan(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_flight_plan", func(tx domain.Transaction) error {
		return tx.DeleteFlightPlan(id)
	})
}

// CreateMaintenanceRecord registers a maintenance obligation, issuing its identifier.
func (s *Service) CreateMaintenanceRecord(ctx context.Context, rec domain.MaintenanceRecord) (domain.MaintenanceRecord, domain.Result, error) {
	var created domain.MaintenanceRecord
	res, err := s.issueRecordID(ctx, "create_maintenance_record", compliance.PrefixMaintenance, rec.RecordID, func(tx domain.Transaction, recordID string) error {
		rec.RecordID = recordID
		var err error
		created, err = tx.CreateMaintenanceRecord(rec)
		return err
	})
	return created, res, err
}

// UpdateMaintenanceRecord mutates a maintenance record using the provided mutator.
func (s *Service) UpdateMaintenanceRecord(ctx context.Context, id string, mutator func(*domain.MaintenanceRecord) error) (domain.MaintenanceRecord, domain.Result, error) {
	var updated domain.MaintenanceRecord
	res, err := s.runTx(ctx, "update_maintenance_record", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMaintenanceRecord(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteMaintenanceRecord removes a maintenance record.
func (s *Service) DeleteMaintenanceRecord(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_maintenance_record", func(tx domain.Transaction) error {
		return tx.DeleteMaintenanceRecord(id)
	})
}

// CreateIncidentReport registers an incident report, issuing its identifier.
func (s *Service) CreateIncidentReport(ctx context.Context, rep domain.IncidentReport) (domain.IncidentReport, domain.Result, error) {
	var created domain.IncidentReport
	res, err := s.issueRecordID(ctx, "create_incident_report", compliance.PrefixIncident, rep.RecordID, func(tx domain.Transaction, recordID string) error {
		rep.RecordID = recordID
		var err error
		created, err = tx.CreateIncidentReport(rep)
		return err
	})
	return created, res, err
}

// UpdateIncidentReport mutates an incident report using the provided mutator.
func (s *Service) UpdateIncidentReport(ctx context.Context, id string, mutator func(*domain.IncidentReport) error) (domain.IncidentReport, domain.Result, error) {
	var updated domain.IncidentReport
	res, err := s.runTx(ctx, "update_incident_report", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateIncidentReport(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteIncidentReport removes an incident report.
func (s *Service) DeleteIncidentReport(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_incident_report", func(tx domain.Transaction) error {
		return tx.DeleteIncidentReport(id)
	})
}

// CreateOperationalArea registers an operational area, issuing its identifier.
// The boundary must be a valid closed ring.
func (s *Service) CreateOperationalArea(ctx context.Context, area domain.OperationalArea) (domain.OperationalArea, domain.Result, error) {
	var created domain.OperationalArea
	res, err := s.issueRecordID(ctx, "create_operational_area", compliance.PrefixArea, area.RecordID, func(tx domain.Transaction, recordID string) error {
		area.RecordID = recordID
		if err := compliance.ValidateRing(area.Boundary); err != nil {
			return err
		}
		var err error
		created, err = tx.CreateOperationalArea(area)
		return err
	})
	return created, res, err
}

// UpdateOperationalArea mutates an operational area using the provided mutator.
func (s *Service) UpdateOperationalArea(ctx context.Context, id string, mutator func(*domain.OperationalArea) error) (domain.OperationalArea, domain.Result, error) {
	var updated domain.OperationalArea
	res, err := s.runTx(ctx, "update_operational_area", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateOperationalArea(id, func(area *domain.OperationalArea) error {
			if err := mutator(area); err != nil {
				return err
			}
			return compliance.ValidateRing(area.Boundary)
		})
		return err
	})
	return updated, res, err
}

// DeleteOperationalArea removes an operational area record.
func (s *Service) DeleteOperationalArea(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_operational_area", func(tx domain.Transaction) error {
		return tx.DeleteOperationalArea(id)
	})
}

// CreateCertificate registers a certificate.
func (s *Service) CreateCertificate(ctx context.Context, cert domain.Certificate) (domain.Certificate, domain.Result, error) {
	var created domain.Certificate
	res, err := s.runTx(ctx, "create_certificate", func(tx domain.Transaction) error {
		var err error
		created, err = tx.CreateCertificate(cert)
		return err
	})
	return created, res, err
}

// UpdateCertificate mutates a certificate using the provided mutator.
func (s *Service) UpdateCertificate(ctx context.Context, id string, mutator func(*domain.Certificate) error) (domain.Certificate, domain.Result, error) {
	var updated domain.Certificate
	res, err := s.runTx(ctx, "update_certificate", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateCertificate(id, mutator)
		return err
	})
	return updated, res, err
}

// DeleteCertificate removes a certificate record.
func (s *Service) DeleteCertificate(ctx context.Context, id string) (domain.Result, error) {
	return s.runTx(ctx, "delete_certificate", func(tx domain.Transaction) error {
		return tx.DeleteCertificate(id)
	})
}

// TransitionManual moves a manual along the document machine, recording the
// audit entry for audited edges. Approval stamps the approver and publication
// stamps the publication time.
func (s *Service) TransitionManual(ctx context.Context, id, target string, actor domain.Actor) (domain.Manual, domain.Result, error) {
	var updated domain.Manual
	res, err := s.runTx(ctx, "transition_manual", func(tx domain.Transaction) error {
		current, ok := tx.Snapshot().FindManual(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityManual, ID: id}
		}
		outcome, err := compliance.DocumentMachine().Transition(string(current.Status), target, actor, s.now().UTC())
		if err != nil {
			return err
		}
		updated, err = tx.UpdateManual(id, func(m *domain.Manual) error {
			m.Status = domain.DocumentStatus(outcome.To)
			switch outcome.To {
			case string(domain.DocumentApproved):
				ref := actor.Ref
				m.ApprovedBy = &ref
			case string(domain.DocumentPublished):
				at := s.now().UTC()
				m.PublishedAt = &at
			}
			return nil
		})
		if err != nil {
			return err
		}
		return s.appendAudit(tx, outcome, domain.EntityManual, updated.RecordID)
	})
	return updated, res, err
}

// TransitionMission moves a mission along the operation machine.
func (s *Service) TransitionMission(ctx context.Context, id, target string, actor domain.Actor) (domain.Mission, domain.Result, error) {
	var updated domain.Mission
	res, err := s.runTx(ctx, "transition_mission", func(tx domain.Transaction) error {
		current, ok := tx.Snapshot().FindMission(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityMission, ID: id}
		}
		outcome, err := compliance.OperationMachine().Transition(string(current.Status), target, actor, s.now().UTC())
		if err != nil {
			return err
		}
		updated, err = tx.UpdateMission(id, func(m *domain.Mission) error {
			m.Status = domain.OperationStatus(outcome.To)
			return nil
		})
		if err != nil {
			return err
		}
		return s.appendAudit(tx, outcome, domain.EntityMission, updated.RecordID)
	})
	return updated, res, err
}

// TransitionFlightPlan moves a flight plan along the operation machine.
func (s *Service) TransitionFlightPlan(ctx context.Context, id, target string, actor domain.Actor) (domain.FlightPlan, domain.Result, error) {
	var updated domain.FlightPlan
	res, err := s.runTx(ctx, "transition_flight_plan", func(tx domain.Transaction) error {
		current, ok := tx.Snapshot().FindFlightPlan(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityFlightPlan, ID: id}
		}
		outcome, err := compliance.OperationMachine().Transition(string(current.Status), target, actor, s.now().UTC())
		if err != nil {
			return err
		}
		updated, err = tx.UpdateFlightPlan(id, func(p *domain.FlightPlan) error {
			p.Status = domain.OperationStatus(outcome.To)
			return nil
		})
		if err != nil {
			return err
		}
		return s.appendAudit(tx, outcome, domain.EntityFlightPlan, updated.RecordID)
	})
	return updated, res, err
}

// TransitionIncident moves an incident report along the incident machine.
func (s *Service) TransitionIncident(ctx context.Context, id, target string, actor domain.Actor) (domain.IncidentReport, domain.Result, error) {
	var updated domain.IncidentReport
	res, err := s.runTx(ctx, "transition_incident", func(tx domain.Transaction) error {
		current, ok := tx.Snapshot().FindIncidentReport(id)
		if !ok {
			return domain.ErrNotFound{Entity: domain.EntityIncident, ID: id}
		}
		outcome, err := compliance.IncidentMachine().Transition(string(current.Status), target, actor, s.now().UTC())
		if err != nil {
			return err
		}
		updated, err = tx.UpdateIncidentReport(id, func(r *domain.IncidentReport) error {
			r.Status = domain.IncidentStatus(outcome.To)
			return nil
		})
		if err != nil {
			return err
		}
		return s.appendAudit(tx, outcome, domain.EntityIncident, updated.RecordID)
	})
	return updated, res, err
}

// CompleteMaintenance discharges a maintenance obligation. A zero completedAt
// stamps the service clock; rewriting an existing completion is blocked by
// the completion immutability rule.
func (s *Service) CompleteMaintenance(ctx context.Context, id string, completedAt time.Time) (domain.MaintenanceRecord, domain.Result, error) {
	if completedAt.IsZero() {
		completedAt = s.now().UTC()
	}
	var updated domain.MaintenanceRecord
	res, err := s.runTx(ctx, "complete_maintenance", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateMaintenanceRecord(id, func(rec *domain.MaintenanceRecord) error {
			at := completedAt
			rec.CompletedAt = &at
			return nil
		})
		return err
	})
	return updated, res, err
}

// MarkIncidentReported records when a reportable incident reached the
// authority. A zero reportedAt stamps the service clock.
func (s *Service) MarkIncidentReported(ctx context.Context, id string, reportedAt time.Time) (domain.IncidentReport, domain.Result, error) {
	if reportedAt.IsZero() {
		reportedAt = s.now().UTC()
	}
	var updated domain.IncidentReport
	res, err := s.runTx(ctx, "mark_incident_reported", func(tx domain.Transaction) error {
		var err error
		updated, err = tx.UpdateIncidentReport(id, func(rep *domain.IncidentReport) error {
			at := reportedAt
			rep.ReportedAt = &at
			return nil
		})
		return err
	})
	return updated, res, err
}

// IncidentDistance pairs an incident report with its great-circle distance
// from a query point.
type IncidentDistance struct {
	Incident   domain.IncidentReport `json:"incident"`
	DistanceNM float64               `json:"distance_nm"`
}

// NearbyIncidents returns the incident reports whose recorded location lies
// within radiusNM nautical miles of center, nearest first. Reports without a
// location are skipped.
func (s *Service) NearbyIncidents(ctx context.Context, center domain.LatLon, radiusNM float64) ([]IncidentDistance, error) {
	if err := compliance.ValidateCoordinate(center); err != nil {
		return nil, err
	}
	if radiusNM <= 0 || math.IsNaN(radiusNM) || math.IsInf(radiusNM, 0) {
		return nil, domain.InvalidGeometryError{Reason: fmt.Sprintf("radius %v is not a positive distance", radiusNM)}
	}
	var out []IncidentDistance
	err := s.instrument(ctx, "nearby_incidents", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			for _, rep := range v.ListIncidentReports() {
				if rep.Location == nil {
					continue
				}
				d := compliance.DistanceNM(center, *rep.Location)
				if d <= radiusNM {
					out = append(out, IncidentDistance{Incident: rep, DistanceNM: d})
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].DistanceNM < out[j].DistanceNM })
			return nil
		})
	})
	return out, err
}

// ObligationKind labels a dashboard line.
type ObligationKind string

// Obligation kinds surfaced on the schedule dashboard.
const (
	ObligationMaintenance ObligationKind = "maintenance"
	ObligationCertificate ObligationKind = "certificate_renewal"
	ObligationIncident    ObligationKind = "incident_report"
)

// ScheduleItem is one obligation's standing at evaluation time.
type ScheduleItem struct {
	Kind     ObligationKind            `json:"kind"`
	RecordID string                    `json:"record_id"`
	Subject  string                    `json:"subject,omitempty"`
	DueAt    time.Time                 `json:"due_at"`
	Status   compliance.ScheduleStatus `json:"status"`
}

// Dashboard aggregates every open obligation, ordered by due time.
type Dashboard struct {
	EvaluatedAt time.Time      `json:"evaluated_at"`
	Items       []ScheduleItem `json:"items"`
	DueSoon     int            `json:"due_soon"`
	Overdue     int            `json:"overdue"`
}

func (d *Dashboard) add(item ScheduleItem) {
	d.Items = append(d.Items, item)
	switch item.Status {
	case compliance.ScheduleDueSoon:
		d.DueSoon++
	case compliance.ScheduleOverdue:
		d.Overdue++
	}
}

// ScheduleDashboard evaluates maintenance due dates, certificate expiry, and
// unreported reportable incidents at the given instant. A zero instant uses
// the service clock. The evaluation reads a consistent snapshot and writes
// nothing.
func (s *Service) ScheduleDashboard(ctx context.Context, at time.Time) (Dashboard, error) {
	if at.IsZero() {
		at = s.now().UTC()
	}
	dash := Dashboard{EvaluatedAt: at}
	err := s.instrument(ctx, "schedule_dashboard", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			for _, rec := range v.ListMaintenanceRecords() {
				ob := compliance.Obligation{DueAt: rec.DueAt, CompletedAt: rec.CompletedAt, Windows: s.cfg.maintenanceWindows(rec)}
				dash.add(ScheduleItem{
					Kind:     ObligationMaintenance,
					RecordID: rec.RecordID,
					Subject:  rec.AircraftID,
					DueAt:    rec.DueAt,
					Status:   compliance.StatusOf(ob, at),
				})
			}
			for _, cert := range v.ListCertificates() {
				ob := compliance.Obligation{DueAt: cert.ExpiresAt, Windows: s.cfg.CertificateWindows}
				ref := cert.Reference
				if ref == "" {
					ref = cert.ID
				}
				dash.add(ScheduleItem{
					Kind:     ObligationCertificate,
					RecordID: ref,
					Subject:  cert.Holder,
					DueAt:    cert.ExpiresAt,
					Status:   compliance.StatusOf(ob, at),
				})
			}
			for _, rep := range v.ListIncidentReports() {
				if !rep.Reportable || rep.ReportedAt != nil {
					continue
				}
				due := s.cfg.reportingDeadline(rep)
				ob := compliance.Obligation{DueAt: due, Windows: s.cfg.IncidentWindows}
				dash.add(ScheduleItem{
					Kind:     ObligationIncident,
					RecordID: rep.RecordID,
					Subject:  string(rep.Severity),
					DueAt:    due,
					Status:   compliance.StatusOf(ob, at),
				})
			}
			sort.Slice(dash.Items, func(i, j int) bool {
				if !dash.Items[i].DueAt.Equal(dash.Items[j].DueAt) {
					return dash.Items[i].DueAt.Before(dash.Items[j].DueAt)
				}
				return dash.Items[i].RecordID < dash.Items[j].RecordID
			})
			return nil
		})
	})
	if err != nil {
		return Dashboard{}, err
	}
	return dash, nil
}

// PlanConflicts reports the accepted plans whose window and area collide with
// the given plan. Plans in a terminal status hold no claim.
func (s *Service) PlanConflicts(ctx context.Context, planID string) ([]compliance.Claim, error) {
	var conflicts []compliance.Claim
	err := s.instrument(ctx, "plan_conflicts", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			plan, ok := v.FindFlightPlan(planID)
			if !ok {
				return domain.ErrNotFound{Entity: domain.EntityFlightPlan, ID: planID}
			}
			candidate := planClaim(v, plan)
			var existing []compliance.Claim
			for _, other := range v.ListFlightPlans() {
				if other.ID == plan.ID || terminalOperation(other.Status) {
					continue
				}
				existing = append(existing, planClaim(v, other))
			}
			conflicts = compliance.FindConflicts(candidate, existing, s.cfg.ConflictPolicy)
			return nil
		})
	})
	return conflicts, err
}

// AuditTrail returns the audit entries recorded against a register identifier,
// oldest first.
func (s *Service) AuditTrail(ctx context.Context, recordID string) ([]domain.AuditEntry, error) {
	var entries []domain.AuditEntry
	err := s.instrument(ctx, "audit_trail", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			entries = v.ListAuditEntries(recordID)
			return nil
		})
	})
	return entries, err
}
