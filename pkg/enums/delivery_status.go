package enums

import "fmt"

// DeliveryStatus tracks whether the goods left the counter.
type DeliveryStatus string

const (
	DeliveryStatusReserved  DeliveryStatus = "reserved"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

var validDeliveryStatuses = []DeliveryStatus{
	DeliveryStatusReserved,
	DeliveryStatusDelivered,
}

// IsValid reports whether the value matches the canonical delivery status enum.
func (d DeliveryStatus) IsValid() bool {
	for _, candidate := range validDeliveryStatuses {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDeliveryStatus converts the raw string to DeliveryStatus.
func ParseDeliveryStatus(value string) (DeliveryStatus, error) {
	for _, candidate := range validDeliveryStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid delivery status %q", value)
}
