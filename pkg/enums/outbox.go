package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSale    OutboxAggregateType = "sale"
	AggregateProduct OutboxAggregateType = "product"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSale,
	AggregateProduct,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSaleCreated           OutboxEventType = "sale_created"
	EventSaleDeleted           OutboxEventType = "sale_deleted"
	EventSalePaymentChanged    OutboxEventType = "sale_payment_changed"
	EventSaleItemAdded         OutboxEventType = "sale_item_added"
	EventSaleItemRemoved       OutboxEventType = "sale_item_removed"
	EventReservationConfirmed  OutboxEventType = "reservation_confirmed"
	EventReservationCanceled   OutboxEventType = "reservation_canceled"
	EventProductStockAdjusted  OutboxEventType = "product_stock_adjusted"
	EventProductStockExhausted OutboxEventType = "product_stock_exhausted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventSaleCreated,
	EventSaleDeleted,
	EventSalePaymentChanged,
	EventSaleItemAdded,
	EventSaleItemRemoved,
	EventReservationConfirmed,
	EventReservationCanceled,
	EventProductStockAdjusted,
	EventProductStockExhausted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}
