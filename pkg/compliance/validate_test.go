package compliance

import (
	"errors"
	"testing"
	"time"

	"rpascore/pkg/domain"
)

var validateNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

func testCertificates() []domain.Certificate {
	issued := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	expires := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Certificate{
		{Holder: "org:acme", Kind: domain.CertificateOperator, Reference: "ReOC-123", Authority: "CASA", IssuedAt: issued, ExpiresAt: expires},
		{Holder: "user:frank", Kind: domain.CertificatePilot, Reference: "RePL-456", Authority: "CASA", IssuedAt: issued, ExpiresAt: expires},
	}
}

func testArea(required domain.AuthorizationLevel) *domain.OperationalArea {
	return &domain.OperationalArea{
		RecordID:              "OA-2025-000001",
		Name:                  "Training Range North",
		Boundary:              square(-34, 151, 0.5),
		RequiredAuthorization: required,
		CeilingFT:             400,
		EffectiveFrom:         time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func compliantCandidate() (CandidateOperation, domain.ComplianceProfile) {
	op := CandidateOperation{
		OwnerRef:      "org:acme",
		PilotRef:      "user:frank",
		Commercial:    true,
		Authorization: domain.AuthorizationClearance,
		MaxAltitudeFT: 390,
		Window:        window(9, 12),
		Boundary:      square(-34, 151, 0.1),
	}
	profile := domain.ComplianceProfile{Category: domain.CategorySmall, WeightKG: 8, MaxAltitudeFT: 400}
	return op, profile
}

func requireReason(t *testing.T, err error, field string) domain.ConstraintViolationError {
	t.Helper()
	var cv domain.ConstraintViolationError
	if !errors.As(err, &cv) {
		t.Fatalf("expected constraint violation got %v", err)
	}
	for _, r := range cv.Reasons {
		if r.Field == field {
			return cv
		}
	}
	t.Fatalf("expected a reason for field %s in %v", field, cv.Reasons)
	return cv
}

func TestValidateOperationPassesCompliantCandidate(t *testing.T) {
	op, profile := compliantCandidate()
	ref := Reference{Certificates: testCertificates(), Area: testArea(domain.AuthorizationClearance)}
	if err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow); err != nil {
		t.Fatalf("compliant operation rejected: %v", err)
	}
}

func TestValidateOperationAccumulatesAllFailures(t *testing.T) {
	op, profile := compliantCandidate()
	op.MaxAltitudeFT = 450
	profile.Category = domain.CategoryMicro
	ref := Reference{Area: testArea(domain.AuthorizationClearance)}

	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	cv := requireReason(t, err, "owner_ref")
	requireReason(t, err, "pilot_ref")
	requireReason(t, err, "max_altitude_ft")
	requireReason(t, err, "profile.category")
	if len(cv.Reasons) < 4 {
		t.Fatalf("expected every failure reported in one pass got %v", cv.Reasons)
	}
}

func TestValidateOperationProhibitedAreaAdmitsNothing(t *testing.T) {
	op, profile := compliantCandidate()
	op.Authorization = domain.AuthorizationApproval
	ref := Reference{Certificates: testCertificates(), Area: testArea(domain.AuthorizationProhibited)}
	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "authorization")
}

func TestMeetsAuthorizationOrdering(t *testing.T) {
	levels := []domain.AuthorizationLevel{
		domain.AuthorizationNone,
		domain.AuthorizationNotification,
		domain.AuthorizationClearance,
		domain.AuthorizationApproval,
	}
	for i, required := range levels {
		for j, held := range levels {
			want := j >= i
			if got := MeetsAuthorization(held, required); got != want {
				t.Fatalf("held %s against required %s: expected %v got %v", held, required, want, got)
			}
		}
	}
	for _, held := range levels {
		if MeetsAuthorization(held, domain.AuthorizationProhibited) {
			t.Fatalf("prohibited must reject level %s", held)
		}
	}
}

func TestValidateOperationHigherAuthorizationSuffices(t *testing.T) {
	op, profile := compliantCandidate()
	op.Commercial = false
	op.Authorization = domain.AuthorizationApproval
	ref := Reference{Area: testArea(domain.AuthorizationNotification)}
	if err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow); err != nil {
		t.Fatalf("higher authorization level rejected: %v", err)
	}

	op.Authorization = domain.AuthorizationNotification
	ref = Reference{Area: testArea(domain.AuthorizationClearance)}
	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "authorization")
}

func TestValidateProfileExcludedCategory(t *testing.T) {
	cfg := DefaultValidationConfig()
	ok := domain.ComplianceProfile{Category: domain.CategoryExcluded, WeightKG: 20, MaxAltitudeFT: 350}
	if reasons := ValidateProfile(ok, cfg); len(reasons) != 0 {
		t.Fatalf("excluded profile within limits rejected: %v", reasons)
	}
	heavy := domain.ComplianceProfile{Category: domain.CategoryExcluded, WeightKG: 30, MaxAltitudeFT: 350}
	if reasons := ValidateProfile(heavy, cfg); len(reasons) != 1 || reasons[0].Field != "profile.weight_kg" {
		t.Fatalf("expected weight reason got %v", reasons)
	}
	high := domain.ComplianceProfile{Category: domain.CategoryExcluded, WeightKG: 20, MaxAltitudeFT: 500}
	if reasons := ValidateProfile(high, cfg); len(reasons) != 1 || reasons[0].Field != "profile.max_altitude_ft" {
		t.Fatalf("expected altitude reason got %v", reasons)
	}
}

func TestValidateOperationRequiresTypeCertificateForHeavyCommercial(t *testing.T) {
	op, profile := compliantCandidate()
	profile.Category = domain.CategoryMedium
	profile.WeightKG = 40
	ref := Reference{Certificates: testCertificates()}
	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "profile.type_certified")

	profile.TypeCertified = true
	if err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow); err != nil {
		t.Fatalf("type certified medium aircraft rejected: %v", err)
	}
}

func TestValidateOperationExpiredCertificate(t *testing.T) {
	op, profile := compliantCandidate()
	certs := testCertificates()
	certs[0].ExpiresAt = validateNow
	ref := Reference{Certificates: certs}
	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "owner_ref")
}

func TestValidateOperationGeometryFailure(t *testing.T) {
	op, profile := compliantCandidate()
	op.Boundary = domain.Ring{
		{Lat: 0, Lon: 0},
		{Lat: 1, Lon: 1},
		{Lat: 1, Lon: 0},
		{Lat: 0, Lon: 1},
		{Lat: 0, Lon: 0},
	}
	ref := Reference{Certificates: testCertificates()}
	err := ValidateOperation(op, profile, ref, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "operating_area")
}

func TestValidateOperationWindowChecks(t *testing.T) {
	op, profile := compliantCandidate()
	op.Commercial = false

	op.Window = domain.TimeWindow{Start: window(9, 12).End, End: window(9, 12).Start}
	err := ValidateOperation(op, profile, Reference{}, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "window")

	op.Window = domain.TimeWindow{
		Start: time.Date(2024, 12, 30, 9, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 12, 30, 12, 0, 0, 0, time.UTC),
	}
	err = ValidateOperation(op, profile, Reference{Area: testArea(domain.AuthorizationNone)}, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "window")

	until := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	area := testArea(domain.AuthorizationNone)
	area.EffectiveUntil = &until
	op.Window = window(9, 12)
	err = ValidateOperation(op, profile, Reference{Area: area}, DefaultValidationConfig(), validateNow)
	requireReason(t, err, "window")
}

func TestValidateOperationRecreationalNeedsNoCertificates(t *testing.T) {
	op, profile := compliantCandidate()
	op.Commercial = false
	if err := ValidateOperation(op, profile, Reference{}, DefaultValidationConfig(), validateNow); err != nil {
		t.Fatalf("recreational operation without certificates rejected: %v", err)
	}
}
