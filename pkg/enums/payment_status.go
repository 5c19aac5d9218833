package enums

import "fmt"

// PaymentStatus tracks how a sale was settled. "Ofertado" marks a
// complimentary sale whose total is zeroed but recoverable.
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusCanceled PaymentStatus = "canceled"
	PaymentStatusOffered  PaymentStatus = "offered"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusPending,
	PaymentStatusPaid,
	PaymentStatusCanceled,
	PaymentStatusOffered,
}

// IsValid reports whether the value matches the canonical payment status enum.
func (p PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts the raw string to PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// DerivedSaleStatus maps a payment status to the sale status it implies.
// The sale status column is a cache of this mapping, never a source of truth.
func (p PaymentStatus) DerivedSaleStatus() SaleStatus {
	switch p {
	case PaymentStatusPaid:
		return SaleStatusCompleted
	case PaymentStatusCanceled:
		return SaleStatusCanceled
	default:
		return SaleStatusPending
	}
}
