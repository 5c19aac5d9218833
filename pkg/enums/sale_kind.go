package enums

import "fmt"

// SaleKind distinguishes an immediate sale from a reservation (a
// temporary stock hold pending payment confirmation).
type SaleKind string

const (
	SaleKindSale        SaleKind = "sale"
	SaleKindReservation SaleKind = "reservation"
)

var validSaleKinds = []SaleKind{
	SaleKindSale,
	SaleKindReservation,
}

// IsValid reports whether the value matches the canonical sale kind enum.
func (k SaleKind) IsValid() bool {
	for _, candidate := range validSaleKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseSaleKind converts the raw string to SaleKind.
func ParseSaleKind(value string) (SaleKind, error) {
	for _, candidate := range validSaleKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid sale kind %q", value)
}
