package memory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"rpascore/internal/infra/persistence/memory"
	"rpascore/pkg/domain"
)

var fixedNow = time.Date(2025, 4, 10, 8, 0, 0, 0, time.UTC)

type seededIDs struct {
	aircraftID string
	areaID     string
	missionID  string
	planID     string
	recordID   string
	certID     string
}

func newFixedStore(engine *domain.RulesEngine) *memory.Store {
	store := memory.NewStore(engine)
	store.SetNowFunc(func() time.Time { return fixedNow })
	return store
}

func must[T any](t *testing.T, value T, err error) T {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return value
}

func mustNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func requireFound[T any](t *testing.T, value T, ok bool, msg string) T {
	t.Helper()
	if !ok {
		t.Fatal(msg)
	}
	return value
}

func testRing() domain.Ring {
	return domain.Ring{
		{Lat: -34, Lon: 151},
		{Lat: -34, Lon: 151.2},
		{Lat: -33.8, Lon: 151.2},
		{Lat: -33.8, Lon: 151},
		{Lat: -34, Lon: 151},
	}
}

func seedStore(t *testing.T, store *memory.Store) seededIDs {
	t.Helper()
	ctx := context.Background()

	var ids seededIDs
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		aircraftVal, err := tx.CreateAircraft(domain.Aircraft{
			Registration: "RPA-1001",
			Model:        "QuadSurvey X4",
			Serial:       "SN-0001",
			Profile:      domain.ComplianceProfile{Category: domain.CategorySmall, WeightKG: 8, MaxAltitudeFT: 400},
		})
		aircraft := must(t, aircraftVal, err)
		ids.aircraftID = aircraft.ID

		areaVal, err := tx.CreateOperationalArea(domain.OperationalArea{
			RecordID:              "OA-2025-000001",
			Name:                  "Survey Range",
			Boundary:              testRing(),
			RequiredAuthorization: domain.AuthorizationNone,
			CeilingFT:             400,
			EffectiveFrom:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		area := must(t, areaVal, err)
		ids.areaID = area.ID

		missionVal, err := tx.CreateMission(domain.Mission{
			RecordID: "MSN-2025-000001",
			Name:     "Quarry Survey",
			Status:   domain.OperationPlanning,
			OwnerRef: "org:acme",
			PilotRef: "user:frank",
			Window: domain.TimeWindow{
				Start: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
			},
			AreaID: &ids.areaID,
		})
		mission := must(t, missionVal, err)
		ids.missionID = mission.ID

		planVal, err := tx.CreateFlightPlan(domain.FlightPlan{
			RecordID:      "FPL-2025-000001",
			MissionID:     ids.missionID,
			AircraftID:    ids.aircraftID,
			Status:        domain.OperationPlanning,
			Window:        mission.Window,
			OperatingArea: testRing(),
			AreaID:        &ids.areaID,
			MaxAltitudeFT: 300,
			Authorization: domain.AuthorizationNone,
		})
		plan := must(t, planVal, err)
		ids.planID = plan.ID

		recordVal, err := tx.CreateMaintenanceRecord(domain.MaintenanceRecord{
			RecordID:   "MNT-2025-000001",
			AircraftID: ids.aircraftID,
			Kind:       "battery_inspection",
			DueAt:      time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
			GraceDays:  5,
		})
		record := must(t, recordVal, err)
		ids.recordID = record.ID

		certVal, err := tx.CreateCertificate(domain.Certificate{
			Holder:    "org:acme",
			Kind:      domain.CertificateOperator,
			Reference: "ReOC-0042",
			Authority: "CASA",
			IssuedAt:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		})
		cert := must(t, certVal, err)
		ids.certID = cert.ID
		return nil
	})
	mustNoErr(t, err)
	return ids
}

func TestMemoryStoreCRUDAndQueries(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)
	ctx := context.Background()

	gotAircraft, ok := store.GetAircraft(ids.aircraftID)
	aircraft := requireFound(t, gotAircraft, ok, "expected aircraft")
	if aircraft.Registration != "RPA-1001" || !aircraft.CreatedAt.Equal(fixedNow) {
		t.Fatalf("unexpected aircraft %+v", aircraft)
	}
	gotPlan, ok := store.GetFlightPlan(ids.planID)
	plan := requireFound(t, gotPlan, ok, "expected flight plan")
	if plan.MissionID != ids.missionID || plan.AircraftID != ids.aircraftID {
		t.Fatalf("unexpected flight plan references %+v", plan)
	}
	if got := len(store.ListFlightPlans()); got != 1 {
		t.Fatalf("expected one flight plan got %d", got)
	}

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		updated, err := tx.UpdateMaintenanceRecord(ids.recordID, func(r *domain.MaintenanceRecord) error {
			done := fixedNow
			r.CompletedAt = &done
			return nil
		})
		if err != nil {
			return err
		}
		if updated.CompletedAt == nil {
			return fmt.Errorf("completion not applied")
		}
		view := tx.Snapshot()
		found, ok := view.FindMaintenanceRecord(ids.recordID)
		if !ok || found.CompletedAt == nil {
			return fmt.Errorf("snapshot missing completion")
		}
		return nil
	})
	mustNoErr(t, err)

	gotRec, ok := store.GetMaintenanceRecord(ids.recordID)
	rec := requireFound(t, gotRec, ok, "expected maintenance record")
	if rec.CompletedAt == nil || !rec.UpdatedAt.Equal(fixedNow) {
		t.Fatalf("committed record missing completion %+v", rec)
	}
}

func TestMemoryStoreDeleteProtections(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteAircraft(ids.aircraftID); err == nil {
			return fmt.Errorf("expected referenced aircraft delete to fail")
		}
		if err := tx.DeleteMission(ids.missionID); err == nil {
			return fmt.Errorf("expected referenced mission delete to fail")
		}
		if err := tx.DeleteOperationalArea(ids.areaID); err == nil {
			return fmt.Errorf("expected referenced area delete to fail")
		}
		return nil
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if err := tx.DeleteFlightPlan(ids.planID); err != nil {
			return err
		}
		if err := tx.DeleteMaintenanceRecord(ids.recordID); err != nil {
			return err
		}
		if err := tx.DeleteMission(ids.missionID); err != nil {
			return err
		}
		if err := tx.DeleteAircraft(ids.aircraftID); err != nil {
			return err
		}
		return tx.DeleteOperationalArea(ids.areaID)
	})
	mustNoErr(t, err)

	if _, ok := store.GetAircraft(ids.aircraftID); ok {
		t.Fatalf("aircraft still present after delete")
	}
	if got := len(store.ListMissions()); got != 0 {
		t.Fatalf("expected no missions got %d", got)
	}
}

func TestMemoryStoreNotFoundErrors(t *testing.T) {
	store := newFixedStore(nil)
	ctx := context.Background()
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateManual("missing", func(*domain.Manual) error { return nil })
		return err
	})
	var notFound domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected typed not-found error got %v", err)
	}
	if notFound.Entity != domain.EntityManual || notFound.ID != "missing" {
		t.Fatalf("unexpected not-found payload %+v", notFound)
	}
}

func TestMemoryStoreRejectsDuplicateRecordIdentifiers(t *testing.T) {
	store := newFixedStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateManual(domain.Manual{RecordID: "OPS-2025-000007", Title: "Operations Manual", Kind: domain.ManualOperations, Version: "1.0", Status: domain.DocumentDraft, OwnerRef: "org:acme"})
		return err
	})
	mustNoErr(t, err)

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateManual(domain.Manual{RecordID: "OPS-2025-000007", Title: "Shadow Copy", Kind: domain.ManualOperations, Version: "1.0", Status: domain.DocumentDraft, OwnerRef: "org:acme"})
		return err
	})
	var dup domain.DuplicateIdentifierError
	if !errors.As(err, &dup) {
		t.Fatalf("expected duplicate identifier error got %v", err)
	}
	if dup.RecordID != "OPS-2025-000007" {
		t.Fatalf("unexpected identifier in error: %s", dup.RecordID)
	}
	if got := len(store.ListManuals()); got != 1 {
		t.Fatalf("duplicate create must not commit, have %d manuals", got)
	}
}

func TestMemoryStoreRecordIdentifierImmutable(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.UpdateMission(ids.missionID, func(m *domain.Mission) error {
			m.RecordID = "MSN-2025-000999"
			return nil
		})
		return err
	})
	if err == nil {
		t.Fatalf("expected identifier rewrite to fail")
	}
	gotMission, ok := store.GetMission(ids.missionID)
	mission := requireFound(t, gotMission, ok, "expected mission")
	if mission.RecordID != "MSN-2025-000001" {
		t.Fatalf("identifier changed to %s", mission.RecordID)
	}
}

func TestMemoryStoreHighestSequence(t *testing.T) {
	store := newFixedStore(nil)
	seedStore(t, store)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateMission(domain.Mission{RecordID: "MSN-2025-000041", Name: "Later Mission", Status: domain.OperationPlanning, OwnerRef: "org:acme", Window: domain.TimeWindow{
			Start: time.Date(2025, 8, 1, 9, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 8, 1, 11, 0, 0, 0, time.UTC),
		}})
		return err
	})
	mustNoErr(t, err)

	mustNoErr(t, store.View(ctx, func(view domain.TransactionView) error {
		if got := view.HighestSequence("MSN", 2025); got != 41 {
			return fmt.Errorf("expected highest mission sequence 41 got %d", got)
		}
		if got := view.HighestSequence("MNT", 2025); got != 1 {
			return fmt.Errorf("expected highest maintenance sequence 1 got %d", got)
		}
		if got := view.HighestSequence("MSN", 2024); got != 0 {
			return fmt.Errorf("expected no 2024 missions got %d", got)
		}
		if got := view.HighestSequence("INC", 2025); got != 0 {
			return fmt.Errorf("expected no incident sequences got %d", got)
		}
		return nil
	}))
}

type staticRule struct {
	name     string
	severity domain.Severity
}

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(_ context.Context, _ domain.TransactionView, _ []domain.Change) (domain.Result, error) {
	return domain.Result{Violations: []domain.Violation{{Rule: r.name, Severity: r.severity, Message: "static"}}}, nil
}

func TestMemoryStoreBlockingRuleAbortsCommit(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(staticRule{"warned", domain.SeverityWarn})
	engine.Register(staticRule{"blocked", domain.SeverityBlock})

	store := newFixedStore(engine)
	ctx := context.Background()

	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{Registration: "RPA-2002"})
		return err
	})
	var ruleErr domain.RuleViolationError
	if !errors.As(err, &ruleErr) {
		t.Fatalf("expected rule violation error got %v", err)
	}
	if !res.HasBlocking() {
		t.Fatalf("expected blocking result")
	}
	if got := len(res.Warnings()); got != 1 {
		t.Fatalf("expected the warning to ride along got %d", got)
	}
	if got := len(store.ListAircraft()); got != 0 {
		t.Fatalf("blocked transaction must not commit, have %d aircraft", got)
	}
}

func TestMemoryStoreWarningsDoNotBlock(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(staticRule{"advisory", domain.SeverityWarn})

	store := newFixedStore(engine)
	ctx := context.Background()

	res, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.CreateAircraft(domain.Aircraft{Registration: "RPA-3003"})
		return err
	})
	mustNoErr(t, err)
	if res.HasBlocking() {
		t.Fatalf("warning must not block")
	}
	if got := len(res.Violations); got != 1 {
		t.Fatalf("expected advisory violation got %d", got)
	}
	if got := len(store.ListAircraft()); got != 1 {
		t.Fatalf("expected committed aircraft got %d", got)
	}
}

func TestMemoryStoreSnapshotRoundTrip(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)

	snapshot := store.ExportState()
	restored := memory.NewStore(nil)
	restored.ImportState(snapshot)

	gotPlan, ok := restored.GetFlightPlan(ids.planID)
	plan := requireFound(t, gotPlan, ok, "expected flight plan after restore")
	if plan.RecordID != "FPL-2025-000001" {
		t.Fatalf("unexpected plan after restore %+v", plan)
	}
	if got := len(restored.ListOperationalAreas()); got != 1 {
		t.Fatalf("expected one area after restore got %d", got)
	}
}

func TestMemoryStoreImportDropsDanglingReferences(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)

	snapshot := store.ExportState()
	delete(snapshot.Aircraft, ids.aircraftID)

	restored := memory.NewStore(nil)
	restored.ImportState(snapshot)

	if _, ok := restored.GetFlightPlan(ids.planID); ok {
		t.Fatalf("flight plan without aircraft must be dropped on import")
	}
	if got := len(restored.ListMaintenanceRecords()); got != 0 {
		t.Fatalf("maintenance without aircraft must be dropped, have %d", got)
	}
	if _, ok := restored.GetMission(ids.missionID); !ok {
		t.Fatalf("mission should survive import")
	}
}

func TestMemoryStoreAuditTrailOrdering(t *testing.T) {
	store := newFixedStore(nil)
	ctx := context.Background()

	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.AppendAuditEntry(domain.AuditEntry{Entity: domain.EntityManual, RecordID: "OPS-2025-000001", Actor: "user:carol", Action: "published", At: fixedNow.Add(2 * time.Hour)}); err != nil {
			return err
		}
		if _, err := tx.AppendAuditEntry(domain.AuditEntry{Entity: domain.EntityManual, RecordID: "OPS-2025-000001", Actor: "user:carol", Action: "approved", At: fixedNow.Add(time.Hour)}); err != nil {
			return err
		}
		_, err := tx.AppendAuditEntry(domain.AuditEntry{Entity: domain.EntityMission, RecordID: "MSN-2025-000001", Actor: "user:frank", Action: "active", At: fixedNow})
		return err
	})
	mustNoErr(t, err)

	trail := store.ListAuditEntries("OPS-2025-000001")
	if len(trail) != 2 {
		t.Fatalf("expected two entries got %d", len(trail))
	}
	if trail[0].Action != "approved" || trail[1].Action != "published" {
		t.Fatalf("expected time ordering got %s then %s", trail[0].Action, trail[1].Action)
	}
	if got := len(store.ListAuditEntries("")); got != 3 {
		t.Fatalf("expected full trail of 3 got %d", got)
	}

	_, err = store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		_, err := tx.AppendAuditEntry(domain.AuditEntry{Entity: domain.EntityManual, Actor: "user:carol", Action: "approved"})
		return err
	})
	if err == nil {
		t.Fatalf("audit entry without record identifier must fail")
	}
}

func TestMemoryStoreMutatorErrorDiscardsTransaction(t *testing.T) {
	store := newFixedStore(nil)
	ids := seedStore(t, store)
	ctx := context.Background()

	boom := errors.New("boom")
	_, err := store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if _, err := tx.UpdateMission(ids.missionID, func(m *domain.Mission) error {
			m.Name = "changed"
			return nil
		}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected propagated error got %v", err)
	}
	gotMission, ok := store.GetMission(ids.missionID)
	mission := requireFound(t, gotMission, ok, "expected mission")
	if mission.Name != "Quarry Survey" {
		t.Fatalf("aborted transaction leaked a write: %+v", mission)
	}
}
