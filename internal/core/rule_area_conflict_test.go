package core

import (
	"testing"
	"time"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// overlappingPlan builds a second plan payload claiming the fixture's window
// and ring under a different mission.
func overlappingPlan(fx *registerFixture, missionID string) domain.FlightPlan {
	return domain.FlightPlan{
		Base:          domain.Base{ID: "plan-2"},
		RecordID:      "FPL-2026-000002",
		MissionID:     missionID,
		AircraftID:    fx.aircraft.ID,
		Status:        domain.OperationPlanning,
		Window:        fx.plan.Window,
		OperatingArea: testRing(),
		MaxAltitudeFT: 300,
		Authorization: domain.AuthorizationNotification,
	}
}

func secondMission(t *testing.T, fx *registerFixture) domain.Mission {
	t.Helper()
	var mission domain.Mission
	fx.mutate(t, func(tx domain.Transaction) error {
		var err error
		mission, err = tx.CreateMission(domain.Mission{
			RecordID: "MSN-2026-000002",
			Name:     "Bridge Inspection",
			Status:   domain.OperationPlanning,
			OwnerRef: "op-2",
			Window:   fx.mission.Window,
		})
		return err
	})
	return mission
}

func TestAreaConflictWarnsOnOverlap(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewAreaConflictRule(DefaultConfig())
	other := secondMission(t, fx)

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: overlappingPlan(fx, other.ID)},
	})
	if len(res.Violations) != 1 {
		t.Fatalf("expected one conflict warning, got %v", res.Violations)
	}
	v := res.Violations[0]
	if v.Severity != domain.SeverityWarn {
		t.Fatalf("conflicts must warn, not %s", v.Severity)
	}
	if v.EntityID != "plan-2" {
		t.Fatalf("expected violation against plan-2, got %q", v.EntityID)
	}
}

func TestAreaConflictSameMissionExempt(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewAreaConflictRule(DefaultConfig())

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: overlappingPlan(fx, fx.mission.ID)},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("expected same-mission plans to coexist, got %v", res.Violations)
	}
}

func TestAreaConflictDisjointWindowsPass(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewAreaConflictRule(DefaultConfig())
	other := secondMission(t, fx)

	plan := overlappingPlan(fx, other.ID)
	plan.Window = domain.TimeWindow{
		Start: fx.plan.Window.End,
		End:   fx.plan.Window.End.Add(2 * time.Hour),
	}

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: plan},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("expected back-to-back windows to pass, got %v", res.Violations)
	}
}

func TestAreaConflictIgnoresTerminalPlans(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewAreaConflictRule(DefaultConfig())
	other := secondMission(t, fx)

	fx.mutate(t, func(tx domain.Transaction) error {
		_, err := tx.UpdateFlightPlan(fx.plan.ID, func(p *domain.FlightPlan) error {
			p.Status = domain.OperationCancelled
			return nil
		})
		return err
	})

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: overlappingPlan(fx, other.ID)},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("expected cancelled plans to hold no claim, got %v", res.Violations)
	}
}

func TestAreaConflictSafePairExempt(t *testing.T) {
	fx := newRegisterFixture(t)
	cfg := DefaultConfig()
	cfg.ConflictPolicy = compliance.ConflictPolicy{ExclusiveSafe: [][2]string{{"micro", "small"}}}
	rule := NewAreaConflictRule(cfg)
	other := secondMission(t, fx)

	var micro domain.Aircraft
	fx.mutate(t, func(tx domain.Transaction) error {
		var err error
		micro, err = tx.CreateAircraft(domain.Aircraft{
			Registration: "RPA-1002",
			Model:        "Nano",
			Profile:      domain.ComplianceProfile{Category: domain.CategoryMicro, WeightKG: 0.2, MaxAltitudeFT: 200},
		})
		return err
	})

	plan := overlappingPlan(fx, other.ID)
	plan.AircraftID = micro.ID

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: plan},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("expected safe category pair to pass, got %v", res.Violations)
	}
}

func TestAreaConflictRuleName(t *testing.T) {
	if got := NewAreaConflictRule(DefaultConfig()).Name(); got != "area_conflict" {
		t.Fatalf("unexpected rule name: %s", got)
	}
}
