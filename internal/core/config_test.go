package core

import (
	"testing"
	"time"

	"rpascore/pkg/domain"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaintenanceWindows.Warning != 7*24*time.Hour {
		t.Fatalf("unexpected maintenance warning window %v", cfg.MaintenanceWindows.Warning)
	}
	if cfg.CertificateWindows.Warning != 30*24*time.Hour {
		t.Fatalf("unexpected certificate warning window %v", cfg.CertificateWindows.Warning)
	}
	if cfg.AdvisoryAltitudeFT != 400 {
		t.Fatalf("unexpected advisory altitude %v", cfg.AdvisoryAltitudeFT)
	}
	if cfg.IdentifierRetries != 3 {
		t.Fatalf("unexpected identifier retry budget %d", cfg.IdentifierRetries)
	}
	if len(cfg.Classification.Classes) == 0 {
		t.Fatalf("classification table must carry default weight classes")
	}
	if cfg.ReportingHours[domain.IncidentCritical] != 24 {
		t.Fatalf("critical incidents must default to 24h reporting, got %d", cfg.ReportingHours[domain.IncidentCritical])
	}
}

func TestReportingDeadlinePrecedence(t *testing.T) {
	cfg := DefaultConfig()
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	declared := domain.IncidentReport{OccurredAt: occurred, Severity: domain.IncidentCritical, ReportWithinHrs: 48}
	if got := cfg.reportingDeadline(declared); !got.Equal(occurred.Add(48 * time.Hour)) {
		t.Fatalf("declared deadline must win, got %v", got)
	}

	bySeverity := domain.IncidentReport{OccurredAt: occurred, Severity: domain.IncidentCritical}
	if got := cfg.reportingDeadline(bySeverity); !got.Equal(occurred.Add(24 * time.Hour)) {
		t.Fatalf("critical severity must default to 24h, got %v", got)
	}

	unknown := domain.IncidentReport{OccurredAt: occurred, Severity: domain.IncidentSeverity("novel")}
	if got := cfg.reportingDeadline(unknown); !got.Equal(occurred.Add(72 * time.Hour)) {
		t.Fatalf("unknown severity must fall back to 72h, got %v", got)
	}
}

func TestMaintenanceWindowsGraceOverride(t *testing.T) {
	cfg := DefaultConfig()

	plain := cfg.maintenanceWindows(domain.MaintenanceRecord{})
	if plain.Grace != 0 {
		t.Fatalf("default grace must be zero, got %v", plain.Grace)
	}

	extended := cfg.maintenanceWindows(domain.MaintenanceRecord{GraceDays: 5})
	if extended.Grace != 5*24*time.Hour {
		t.Fatalf("expected five days of grace, got %v", extended.Grace)
	}
	if extended.Warning != cfg.MaintenanceWindows.Warning {
		t.Fatalf("grace override must not touch the warning window")
	}
}
