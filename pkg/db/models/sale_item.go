package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleItem is a line item owned by exactly one Sale. ProductName is a
// snapshot taken at creation. SubtotalAmount is a cache; it can be
// stale and must be recomputed from the unit price variant and the
// quantity before being trusted.
type SaleItem struct {
	ID                 uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	SaleID             uuid.UUID        `gorm:"column:sale_id;type:uuid;not null"`
	ProductID          *uuid.UUID       `gorm:"column:product_id;type:uuid"`
	ProductName        string           `gorm:"column:product_name;not null"`
	Quantity           int              `gorm:"column:quantity;not null"`
	UnitPriceAmount    *decimal.Decimal `gorm:"column:unit_price_amount;type:numeric(12,2)"`
	UnitPriceOnRequest bool             `gorm:"column:unit_price_on_request;not null;default:false"`
	SubtotalAmount     decimal.Decimal  `gorm:"column:subtotal_amount;type:numeric(12,2);not null"`
	CreatedAt          time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
