package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product is a storefront listing. Price carries the numeric-or-
// "Consulte Valores" variant as two columns: a nullable amount and an
// on-request flag. Stock is mutated exclusively by the inventory
// ledger and is never allowed to go negative.
type Product struct {
	ID             uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	Name           string           `gorm:"column:name;not null"`
	Description    *string          `gorm:"column:description"`
	Category       string           `gorm:"column:category;not null"`
	PriceAmount    *decimal.Decimal `gorm:"column:price_amount;type:numeric(12,2)"`
	PriceOnRequest bool             `gorm:"column:price_on_request;not null;default:false"`
	Stock          int              `gorm:"column:stock;not null;default:0"`
	ImageURLs      pq.StringArray   `gorm:"column:image_urls;type:text[]"`
	IsActive       bool             `gorm:"column:is_active;not null;default:true"`
	CreatedAt      time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
