package compliance

import (
	"fmt"
	"math"
	"sort"

	"rpascore/pkg/domain"
)

// WeightClass binds a weight category to its inclusive lower bound in
// kilograms. A class covers [MinKG, nextClass.MinKG).
type WeightClass struct {
	Category domain.WeightCategory `json:"category" toml:"category"`
	MinKG    float64               `json:"min_kg" toml:"min_kg"`
}

// ClassificationTable maps gross weights onto weight categories. Classes are
// kept sorted by ascending lower bound; the highest class is unbounded above.
type ClassificationTable struct {
	Classes []WeightClass `json:"classes" toml:"classes"`
}

// DefaultClassificationTable returns the Part 101 weight bands. The 25 kg
// boundary belongs to the medium band; operators flying at exactly 25 kg fall
// under the stricter regime.
func DefaultClassificationTable() ClassificationTable {
	return ClassificationTable{Classes: []WeightClass{
		{Category: domain.CategoryMicro, MinKG: 0},
		{Category: domain.CategorySmall, MinKG: 0.25},
		{Category: domain.CategoryMedium, MinKG: 25},
		{Category: domain.CategoryLarge, MinKG: 150},
	}}
}

// Classify returns the category whose band contains weightKG. The mapping is
// total over non-negative finite weights: every such weight lands in exactly
// one band.
func (t ClassificationTable) Classify(weightKG float64) (domain.WeightCategory, error) {
	if len(t.Classes) == 0 {
		return "", fmt.Errorf("classification table has no classes")
	}
	if math.IsNaN(weightKG) || math.IsInf(weightKG, 0) || weightKG < 0 {
		return "", fmt.Errorf("weight %v kg is not classifiable", weightKG)
	}
	classes := make([]WeightClass, len(t.Classes))
	copy(classes, t.Classes)
	sort.SliceStable(classes, func(i, j int) bool { return classes[i].MinKG < classes[j].MinKG })
	if weightKG < classes[0].MinKG {
		return "", fmt.Errorf("weight %v kg below classification floor %v kg", weightKG, classes[0].MinKG)
	}
	category := classes[0].Category
	for _, class := range classes[1:] {
		if weightKG < class.MinKG {
			break
		}
		category = class.Category
	}
	return category, nil
}

// ExcludedLimits bounds the operator-declared excluded category: at or below
// both limits an operation runs under the standard operating conditions
// without individual approval.
type ExcludedLimits struct {
	MaxWeightKG   float64 `json:"max_weight_kg" toml:"max_weight_kg"`
	MaxAltitudeFT float64 `json:"max_altitude_ft" toml:"max_altitude_ft"`
}

// DefaultExcludedLimits returns the standard excluded-category bounds of
// 25 kg and 400 ft AGL.
func DefaultExcludedLimits() ExcludedLimits {
	return ExcludedLimits{MaxWeightKG: 25, MaxAltitudeFT: 400}
}
