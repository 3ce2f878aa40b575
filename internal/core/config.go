// Package core wires the compliance engine to the persistent stores: it owns
// the default rules, the transactional record service, and the schedule and
// conflict queries the HTTP layer exposes.
package core

import (
	"time"

	"rpascore/pkg/compliance"
	"rpascore/pkg/domain"
)

// Config carries the regulatory tables and windows the engine evaluates
// against. Values are configuration data, never hard-coded in rule bodies, so
// a deployment can follow the authoritative regulatory text without a code
// change.
type Config struct {
	// Classification maps gross weight to a category; Excluded bounds the
	// operator-declared excluded category.
	Classification compliance.ClassificationTable
	Excluded       compliance.ExcludedLimits

	// AdvisoryAltitudeFT is the altitude above which a flight plan draws an
	// advisory warning even when the hard ceilings pass.
	AdvisoryAltitudeFT float64

	// IdentifierRetries caps how often a create is retried after losing an
	// identifier race before the duplicate surfaces to the caller.
	IdentifierRetries int

	// MaintenanceWindows and CertificateWindows drive the schedule monitor for
	// maintenance due dates and certificate expiry. IncidentWindows applies to
	// incident reporting deadlines, which are measured in hours.
	MaintenanceWindows compliance.Windows
	CertificateWindows compliance.Windows
	IncidentWindows    compliance.Windows

	// ReportingHours supplies the reporting deadline per severity for
	// reportable incidents that do not declare their own.
	ReportingHours map[domain.IncidentSeverity]int

	// ConflictPolicy exempts declared category pairs from conflict detection.
	ConflictPolicy compliance.ConflictPolicy
}

// DefaultConfig returns the Part 101 defaults: standard weight bands, the
// 25 kg / 400 ft excluded limits, a 400 ft VLOS advisory ceiling, a week of
// maintenance warning, thirty days of certificate warning, and severity-based
// incident reporting deadlines.
func DefaultConfig() Config {
	return Config{
		Classification:     compliance.DefaultClassificationTable(),
		Excluded:           compliance.DefaultExcludedLimits(),
		AdvisoryAltitudeFT: 400,
		IdentifierRetries:  3,
		MaintenanceWindows: compliance.Windows{Warning: 7 * 24 * time.Hour},
		CertificateWindows: compliance.Windows{Warning: 30 * 24 * time.Hour},
		IncidentWindows:    compliance.Windows{Warning: 12 * time.Hour},
		ReportingHours: map[domain.IncidentSeverity]int{
			domain.IncidentCritical: 24,
			domain.IncidentHigh:     24,
			domain.IncidentMedium:   72,
			domain.IncidentLow:      72,
		},
	}
}

// Validation bundles the classification tables for the constraint validator.
func (c Config) Validation() compliance.ValidationConfig {
	return compliance.ValidationConfig{Classification: c.Classification, Excluded: c.Excluded}
}

// maintenanceWindows applies the per-record grace override when the record
// carries one.
func (c Config) maintenanceWindows(rec domain.MaintenanceRecord) compliance.Windows {
	w := c.MaintenanceWindows
	if rec.GraceDays > 0 {
		w.Grace = time.Duration(rec.GraceDays) * 24 * time.Hour
	}
	return w
}

// reportingDeadline resolves when a reportable incident must reach the
// authority: the record's own deadline when declared, otherwise the
// severity default.
func (c Config) reportingDeadline(rec domain.IncidentReport) time.Time {
	hours := rec.ReportWithinHrs
	if hours <= 0 {
		hours = c.ReportingHours[rec.Severity]
	}
	if hours <= 0 {
		hours = 72
	}
	return rec.OccurredAt.Add(time.Duration(hours) * time.Hour)
}

func (c Config) retryBudget() int {
	if c.IdentifierRetries < 1 {
		return 1
	}
	return c.IdentifierRetries
}
