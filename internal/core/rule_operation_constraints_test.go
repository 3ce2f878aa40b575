package core

import (
	"strings"
	"testing"

	"rpascore/pkg/domain"
)

func TestOperationConstraintsAcceptsCompliantPlan(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionCreate, After: fx.plan},
	})
	if len(res.Violations) != 0 {
		t.Fatalf("expected compliant plan to pass, got %v", res.Violations)
	}
}

func TestOperationConstraintsBlocksCategoryMismatch(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	aircraft := fx.aircraft
	aircraft.Profile.Category = domain.CategoryMicro // 5 kg is small

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityAircraft, Action: domain.ActionUpdate, Before: fx.aircraft, After: aircraft},
	})
	if blockingCount(res) != 1 {
		t.Fatalf("expected one blocking violation, got %v", res.Violations)
	}
	if !strings.Contains(res.Violations[0].Message, "classifies as") {
		t.Fatalf("unexpected message %q", res.Violations[0].Message)
	}
}

func TestOperationConstraintsBlocksMissingOperatorCertificate(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	fx.mutate(t, func(tx domain.Transaction) error {
		_, err := tx.UpdateMission(fx.mission.ID, func(m *domain.Mission) error {
			m.OwnerRef = "ghost"
			m.PilotRef = ""
			return nil
		})
		return err
	})

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionUpdate, Before: fx.plan, After: fx.plan},
	})
	if blockingCount(res) != 1 {
		t.Fatalf("expected one blocking violation, got %v", res.Violations)
	}
	if !strings.Contains(res.Violations[0].Message, "operator certificate") {
		t.Fatalf("unexpected message %q", res.Violations[0].Message)
	}
}

func TestOperationConstraintsBlocksProhibitedArea(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	fx.mutate(t, func(tx domain.Transaction) error {
		_, err := tx.UpdateOperationalArea(fx.area.ID, func(a *domain.OperationalArea) error {
			a.RequiredAuthorization = domain.AuthorizationProhibited
			return nil
		})
		return err
	})

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionUpdate, Before: fx.plan, After: fx.plan},
	})
	if blockingCount(res) != 1 {
		t.Fatalf("expected one blocking violation, got %v", res.Violations)
	}
	if !strings.Contains(res.Violations[0].Message, "prohibits") {
		t.Fatalf("unexpected message %q", res.Violations[0].Message)
	}
}

func TestOperationConstraintsAccumulatesAllFailures(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	fx.mutate(t, func(tx domain.Transaction) error {
		if _, err := tx.UpdateMission(fx.mission.ID, func(m *domain.Mission) error {
			m.OwnerRef = "ghost"
			m.PilotRef = "ghost-pilot"
			return nil
		}); err != nil {
			return err
		}
		_, err := tx.UpdateOperationalArea(fx.area.ID, func(a *domain.OperationalArea) error {
			a.RequiredAuthorization = domain.AuthorizationApproval
			return nil
		})
		return err
	})

	plan := fx.plan
	plan.MaxAltitudeFT = 600 // above the 500 ft area ceiling

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionUpdate, Before: fx.plan, After: plan},
	})
	// operator cert, pilot cert, authorization, ceiling
	if blockingCount(res) != 4 {
		t.Fatalf("expected four blocking violations, got %d: %v", blockingCount(res), res.Violations)
	}
}

func TestOperationConstraintsWarnsAboveAdvisoryCeiling(t *testing.T) {
	fx := newRegisterFixture(t)
	rule := NewOperationConstraintsRule(DefaultConfig())

	plan := fx.plan
	plan.MaxAltitudeFT = 450 // under the 500 ft area ceiling, above the 400 ft advisory

	res := fx.evaluate(t, rule, []domain.Change{
		{Entity: domain.EntityFlightPlan, Action: domain.ActionUpdate, Before: fx.plan, After: plan},
	})
	if blockingCount(res) != 0 {
		t.Fatalf("expected no blocking violations, got %v", res.Violations)
	}
	warnings := res.Warnings()
	if len(warnings) != 1 || warnings[0].Severity != domain.SeverityWarn {
		t.Fatalf("expected one advisory warning, got %v", res.Violations)
	}
	if !strings.Contains(warnings[0].Message, "advisory ceiling") {
		t.Fatalf("unexpected message %q", warnings[0].Message)
	}
}

func TestOperationConstraintsRuleName(t *testing.T) {
	if got := NewOperationConstraintsRule(DefaultConfig()).Name(); got != "operation_constraints" {
		t.Fatalf("unexpected rule name: %s", got)
	}
}
