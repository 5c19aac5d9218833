package enums

import "fmt"

// Generation is the fixed affiliation tag a customer may carry,
// matching the congregation's ministry groups.
type Generation string

const (
	GenerationAtos      Generation = "atos"
	GenerationEleazar   Generation = "eleazar"
	GenerationJosue     Generation = "josue"
	GenerationKadosh    Generation = "kadosh"
	GenerationLevi      Generation = "levi"
	GenerationMoria     Generation = "moria"
	GenerationVisitante Generation = "visitante"
)

var validGenerations = []Generation{
	GenerationAtos,
	GenerationEleazar,
	GenerationJosue,
	GenerationKadosh,
	GenerationLevi,
	GenerationMoria,
	GenerationVisitante,
}

// IsValid reports whether the value matches the canonical generation enum.
func (g Generation) IsValid() bool {
	for _, candidate := range validGenerations {
		if candidate == g {
			return true
		}
	}
	return false
}

// ParseGeneration converts the raw string to Generation.
func ParseGeneration(value string) (Generation, error) {
	for _, candidate := range validGenerations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid generation %q", value)
}
