package core

import (
	"context"
	"testing"
	"time"

	"rpascore/internal/infra/persistence/memory"
	"rpascore/pkg/domain"
)

var testNow = time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

func testRing() domain.Ring {
	return domain.Ring{
		{Lat: -34.90, Lon: 150.50},
		{Lat: -34.90, Lon: 150.60},
		{Lat: -34.80, Lon: 150.60},
		{Lat: -34.80, Lon: 150.50},
		{Lat: -34.90, Lon: 150.50},
	}
}

// registerFixture seeds a store with an unguarded rules engine so tests can
// stage any state and evaluate rules against the resulting view directly.
type registerFixture struct {
	store    *memory.Store
	aircraft domain.Aircraft
	area     domain.OperationalArea
	mission  domain.Mission
	plan     domain.FlightPlan
}

func newRegisterFixture(t *testing.T) *registerFixture {
	t.Helper()
	fx := &registerFixture{store: memory.NewStore(domain.NewRulesEngine())}
	_, err := fx.store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		var err error
		fx.aircraft, err = tx.CreateAircraft(domain.Aircraft{
			Registration: "RPA-1001",
			Model:        "Quad X4",
			Serial:       "SN-100",
			Profile:      domain.ComplianceProfile{Category: domain.CategorySmall, WeightKG: 5, MaxAltitudeFT: 390},
		})
		if err != nil {
			return err
		}
		fx.area, err = tx.CreateOperationalArea(domain.OperationalArea{
			RecordID:              "OA-2026-000001",
			Name:                  "Training Range",
			Boundary:              testRing(),
			RequiredAuthorization: domain.AuthorizationNotification,
			CeilingFT:             500,
			EffectiveFrom:         testNow.Add(-24 * time.Hour),
		})
		if err != nil {
			return err
		}
		areaID := fx.area.ID
		fx.mission, err = tx.CreateMission(domain.Mission{
			RecordID:   "MSN-2026-000001",
			Name:       "Powerline Survey",
			Status:     domain.OperationPlanning,
			Commercial: true,
			OwnerRef:   "op-1",
			PilotRef:   "pilot-1",
			Window:     domain.TimeWindow{Start: testNow.Add(24 * time.Hour), End: testNow.Add(26 * time.Hour)},
			AreaID:     &areaID,
		})
		if err != nil {
			return err
		}
		if _, err = tx.CreateCertificate(domain.Certificate{
			Holder:    "op-1",
			Kind:      domain.CertificateOperator,
			Reference: "ReOC-0042",
			Authority: "CASA",
			IssuedAt:  testNow.Add(-365 * 24 * time.Hour),
			ExpiresAt: testNow.Add(365 * 24 * time.Hour),
		}); err != nil {
			return err
		}
		if _, err = tx.CreateCertificate(domain.Certificate{
			Holder:    "pilot-1",
			Kind:      domain.CertificatePilot,
			Reference: "RePL-0007",
			Authority: "CASA",
			IssuedAt:  testNow.Add(-365 * 24 * time.Hour),
			ExpiresAt: testNow.Add(365 * 24 * time.Hour),
		}); err != nil {
			return err
		}
		fx.plan, err = tx.CreateFlightPlan(domain.FlightPlan{
			RecordID:      "FPL-2026-000001",
			MissionID:     fx.mission.ID,
			AircraftID:    fx.aircraft.ID,
			Status:        domain.OperationPlanning,
			Window:        domain.TimeWindow{Start: testNow.Add(24 * time.Hour), End: testNow.Add(26 * time.Hour)},
			OperatingArea: testRing(),
			AreaID:        &areaID,
			MaxAltitudeFT: 350,
			Authorization: domain.AuthorizationNotification,
		})
		return err
	})
	if err != nil {
		t.Fatalf("seed register fixture: %v", err)
	}
	return fx
}

// mutate applies fn in a rule-free transaction.
func (fx *registerFixture) mutate(t *testing.T, fn func(tx domain.Transaction) error) {
	t.Helper()
	if _, err := fx.store.RunInTransaction(context.Background(), fn); err != nil {
		t.Fatalf("mutate fixture: %v", err)
	}
}

// evaluate runs the rule over the fixture's current view.
func (fx *registerFixture) evaluate(t *testing.T, rule domain.Rule, changes []domain.Change) domain.Result {
	t.Helper()
	var res domain.Result
	err := fx.store.View(context.Background(), func(v domain.TransactionView) error {
		var err error
		res, err = rule.Evaluate(context.Background(), v, changes)
		return err
	})
	if err != nil {
		t.Fatalf("evaluate %s: %v", rule.Name(), err)
	}
	return res
}

func blockingCount(res domain.Result) int {
	n := 0
	for _, v := range res.Violations {
		if v.Severity == domain.SeverityBlock {
			n++
		}
	}
	return n
}
