package enums

import "fmt"

// StockMovementType labels why a product's stock changed.
type StockMovementType string

const (
	StockMovementSale         StockMovementType = "sale"
	StockMovementCancellation StockMovementType = "cancellation"
	StockMovementItemAdded    StockMovementType = "item_added"
	StockMovementItemRemoved  StockMovementType = "item_removed"
	StockMovementAdjustment   StockMovementType = "adjustment"
)

var validStockMovementTypes = []StockMovementType{
	StockMovementSale,
	StockMovementCancellation,
	StockMovementItemAdded,
	StockMovementItemRemoved,
	StockMovementAdjustment,
}

// IsValid reports whether the value matches the canonical stock movement enum.
func (s StockMovementType) IsValid() bool {
	for _, candidate := range validStockMovementTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockMovementType converts the raw string to StockMovementType.
func ParseStockMovementType(value string) (StockMovementType, error) {
	for _, candidate := range validStockMovementTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock movement type %q", value)
}
