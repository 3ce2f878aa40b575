package compliance

import (
	"fmt"
	"regexp"
	"strconv"

	"rpascore/pkg/domain"
)

// Identifier prefixes assigned to regulated record categories.
const (
	PrefixManual      = "OPS"
	PrefixMaintenance = "MNT"
	PrefixIncident    = "INC"
	PrefixMission     = "MSN"
	PrefixFlightPlan  = "FPL"
	PrefixArea        = "OA"
)

// MaxSequence is the largest sequence number an identifier series can carry
// within one calendar year.
const MaxSequence = 999999

var (
	prefixPattern = regexp.MustCompile(`^[A-Z]{2,3}$`)
	idPattern     = regexp.MustCompile(`^([A-Z]{2,3})-(\d{4})-(\d{6})$`)
)

// RecordPrefix returns the identifier prefix for an entity type, or false for
// entity types that do not carry sequential record identifiers.
func RecordPrefix(entity domain.EntityType) (string, bool) {
	switch entity {
	case domain.EntityManual:
		return PrefixManual, true
	case domain.EntityMaintenance:
		return PrefixMaintenance, true
	case domain.EntityIncident:
		return PrefixIncident, true
	case domain.EntityMission:
		return PrefixMission, true
	case domain.EntityFlightPlan:
		return PrefixFlightPlan, true
	case domain.EntityArea:
		return PrefixArea, true
	default:
		return "", false
	}
}

// ParsedID is a record identifier decomposed into its fixed fields.
type ParsedID struct {
	Prefix   string
	Year     int
	Sequence int
}

// FormatID renders a record identifier as PREFIX-YYYY-NNNNNN.
func FormatID(prefix string, year, sequence int) string {
	return fmt.Sprintf("%s-%04d-%06d", prefix, year, sequence)
}

// NextID returns the identifier that follows lastSequence in the series for
// the given prefix and calendar year, together with the sequence number it
// consumed. Sequences restart at one for each prefix and year; passing zero
// for lastSequence yields the first identifier of a series.
func NextID(prefix string, year, lastSequence int) (string, int, error) {
	if !prefixPattern.MatchString(prefix) {
		return "", 0, fmt.Errorf("identifier prefix %q must be two or three uppercase letters", prefix)
	}
	if year < 1 || year > 9999 {
		return "", 0, fmt.Errorf("identifier year %d outside [1, 9999]", year)
	}
	if lastSequence < 0 {
		return "", 0, fmt.Errorf("identifier sequence %d is negative", lastSequence)
	}
	next := lastSequence + 1
	if next > MaxSequence {
		return "", 0, fmt.Errorf("identifier series %s-%04d exhausted at %d", prefix, year, MaxSequence)
	}
	return FormatID(prefix, year, next), next, nil
}

// ParseID decomposes a record identifier produced by FormatID. The parse is
// an exact inverse: FormatID(ParseID(id)) reproduces id for any valid input.
func ParseID(id string) (ParsedID, error) {
	m := idPattern.FindStringSubmatch(id)
	if m == nil {
		return ParsedID{}, fmt.Errorf("malformed record identifier %q", id)
	}
	year, err := strconv.Atoi(m[2])
	if err != nil {
		return ParsedID{}, fmt.Errorf("malformed record identifier %q: %w", id, err)
	}
	seq, err := strconv.Atoi(m[3])
	if err != nil {
		return ParsedID{}, fmt.Errorf("malformed record identifier %q: %w", id, err)
	}
	return ParsedID{Prefix: m[1], Year: year, Sequence: seq}, nil
}
