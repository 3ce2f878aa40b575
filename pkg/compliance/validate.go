package compliance

import (
	"fmt"
	"time"

	"rpascore/pkg/domain"
)

// CandidateOperation gathers the declared facts of an operation submitted for
// constraint validation.
type CandidateOperation struct {
	OwnerRef      string
	PilotRef      string
	Commercial    bool
	Authorization domain.AuthorizationLevel
	MaxAltitudeFT float64
	Window        domain.TimeWindow
	Boundary      domain.Ring
}

// Reference carries the records the validator reads but never writes: the
// certificate register and the operational area the candidate flies in, when
// one is assigned.
type Reference struct {
	Certificates []domain.Certificate
	Area         *domain.OperationalArea
}

// ValidationConfig supplies the classification and excluded-category tables.
type ValidationConfig struct {
	Classification ClassificationTable
	Excluded       ExcludedLimits
}

// DefaultValidationConfig returns the Part 101 tables.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		Classification: DefaultClassificationTable(),
		Excluded:       DefaultExcludedLimits(),
	}
}

// authorizationRank orders the levels an operation can hold. Prohibited is
// absent: it is a property of airspace, not a level an operator can meet.
var authorizationRank = map[domain.AuthorizationLevel]int{
	domain.AuthorizationNone:         0,
	domain.AuthorizationNotification: 1,
	domain.AuthorizationClearance:    2,
	domain.AuthorizationApproval:     3,
}

// MeetsAuthorization reports whether the held level satisfies the required
// one. Prohibited airspace admits no level at all.
func MeetsAuthorization(held, required domain.AuthorizationLevel) bool {
	if required == domain.AuthorizationProhibited {
		return false
	}
	h, ok := authorizationRank[held]
	if !ok {
		return false
	}
	r, ok := authorizationRank[required]
	if !ok {
		return false
	}
	return h >= r
}

// CertificateValid reports whether the certificate covers the instant now.
// Expiry is exclusive: a certificate is invalid at its expiry time.
func CertificateValid(c domain.Certificate, now time.Time) bool {
	return !now.Before(c.IssuedAt) && now.Before(c.ExpiresAt)
}

// HoldsValidCertificate reports whether holder carries a certificate of the
// given kind valid at now.
func HoldsValidCertificate(certs []domain.Certificate, holder string, kind domain.CertificateKind, now time.Time) bool {
	for _, c := range certs {
		if c.Holder == holder && c.Kind == kind && CertificateValid(c, now) {
			return true
		}
	}
	return false
}

// ValidateProfile checks a declared compliance profile against the
// classification table: either the declared category matches the category
// derived from the gross weight, or the profile declares the excluded
// category and stays within its limits.
func ValidateProfile(profile domain.ComplianceProfile, cfg ValidationConfig) []domain.Reason {
	var reasons []domain.Reason
	if profile.Category == domain.CategoryExcluded {
		if profile.WeightKG > cfg.Excluded.MaxWeightKG {
			reasons = append(reasons, domain.Reason{
				Field:   "profile.weight_kg",
				Message: fmt.Sprintf("weight %.3f kg exceeds excluded-category limit %.3f kg", profile.WeightKG, cfg.Excluded.MaxWeightKG),
			})
		}
		if profile.MaxAltitudeFT > cfg.Excluded.MaxAltitudeFT {
			reasons = append(reasons, domain.Reason{
				Field:   "profile.max_altitude_ft",
				Message: fmt.Sprintf("altitude %.0f ft exceeds excluded-category ceiling %.0f ft", profile.MaxAltitudeFT, cfg.Excluded.MaxAltitudeFT),
			})
		}
		return reasons
	}
	derived, err := cfg.Classification.Classify(profile.WeightKG)
	if err != nil {
		return append(reasons, domain.Reason{Field: "profile.weight_kg", Message: err.Error()})
	}
	if derived != profile.Category {
		reasons = append(reasons, domain.Reason{
			Field:   "profile.category",
			Message: fmt.Sprintf("declared category %s but weight %.3f kg classifies as %s", profile.Category, profile.WeightKG, derived),
		})
	}
	return reasons
}

// ValidateOperation evaluates every operation constraint and accumulates the
// failures. A nil return means the candidate passed; otherwise the error is a
// ConstraintViolationError listing one reason per failed constraint, so a
// single round trip reports everything the operator must fix.
func ValidateOperation(op CandidateOperation, profile domain.ComplianceProfile, ref Reference, cfg ValidationConfig, now time.Time) error {
	reasons := ValidateProfile(profile, cfg)

	if op.Commercial {
		if !HoldsValidCertificate(ref.Certificates, op.OwnerRef, domain.CertificateOperator, now) {
			reasons = append(reasons, domain.Reason{
				Field:   "owner_ref",
				Message: fmt.Sprintf("commercial operation requires a valid operator certificate for %s", op.OwnerRef),
			})
		}
		if (profile.Category == domain.CategoryMedium || profile.Category == domain.CategoryLarge) && !profile.TypeCertified {
			reasons = append(reasons, domain.Reason{
				Field:   "profile.type_certified",
				Message: fmt.Sprintf("commercial operation of a %s aircraft requires a type certificate", profile.Category),
			})
		}
	}

	if op.PilotRef != "" && op.Commercial {
		if !HoldsValidCertificate(ref.Certificates, op.PilotRef, domain.CertificatePilot, now) {
			reasons = append(reasons, domain.Reason{
				Field:   "pilot_ref",
				Message: fmt.Sprintf("commercial operation requires a valid remote pilot licence for %s", op.PilotRef),
			})
		}
	}

	if !op.Window.End.After(op.Window.Start) {
		reasons = append(reasons, domain.Reason{
			Field:   "window",
			Message: "window end must be after window start",
		})
	}

	if area := ref.Area; area != nil {
		if area.RequiredAuthorization == domain.AuthorizationProhibited {
			reasons = append(reasons, domain.Reason{
				Field:   "authorization",
				Message: fmt.Sprintf("area %s prohibits RPA operations", area.RecordID),
			})
		} else if !MeetsAuthorization(op.Authorization, area.RequiredAuthorization) {
			reasons = append(reasons, domain.Reason{
				Field:   "authorization",
				Message: fmt.Sprintf("area %s requires %s authorization, operation holds %s", area.RecordID, area.RequiredAuthorization, op.Authorization),
			})
		}
		if op.MaxAltitudeFT > area.CeilingFT {
			reasons = append(reasons, domain.Reason{
				Field:   "max_altitude_ft",
				Message: fmt.Sprintf("planned altitude %.0f ft exceeds area ceiling %.0f ft", op.MaxAltitudeFT, area.CeilingFT),
			})
		}
		if op.Window.Start.Before(area.EffectiveFrom) {
			reasons = append(reasons, domain.Reason{
				Field:   "window",
				Message: fmt.Sprintf("window opens before area %s becomes effective", area.RecordID),
			})
		}
		if area.EffectiveUntil != nil && op.Window.End.After(*area.EffectiveUntil) {
			reasons = append(reasons, domain.Reason{
				Field:   "window",
				Message: fmt.Sprintf("window extends past area %s effective period", area.RecordID),
			})
		}
	}

	if len(op.Boundary) > 0 {
		if err := ValidateRing(op.Boundary); err != nil {
			reasons = append(reasons, domain.Reason{Field: "operating_area", Message: geometryReason(err)})
		}
	}

	if len(reasons) > 0 {
		return domain.ConstraintViolationError{Reasons: reasons}
	}
	return nil
}
