package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/aramunz/bazar-backend/pkg/enums"
)

// Sale is the transaction header for both sales and reservations.
// TotalAmount is a cache of the sum of recomputed item subtotals; the
// aggregate recomputes it on every mutation and every money-bearing
// read. OriginalTotal is populated only while PaymentStatus is
// "offered" and holds the pre-zero total for restoration.
type Sale struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID     *uuid.UUID           `gorm:"column:customer_id;type:uuid"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	Kind           enums.SaleKind       `gorm:"column:kind;type:sale_kind;not null;default:'sale'"`
	PaymentStatus  enums.PaymentStatus  `gorm:"column:payment_status;type:payment_status;not null;default:'pending'"`
	SaleStatus     enums.SaleStatus     `gorm:"column:sale_status;type:sale_status;not null;default:'pending'"`
	DeliveryStatus enums.DeliveryStatus `gorm:"column:delivery_status;type:delivery_status;not null;default:'reserved'"`
	TotalAmount    decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	OriginalTotal  *decimal.Decimal     `gorm:"column:original_total;type:numeric(12,2)"`
	ReceiptURL     *string              `gorm:"column:receipt_url"`
	Items          []SaleItem           `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
