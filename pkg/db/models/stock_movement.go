package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aramunz/bazar-backend/pkg/enums"
)

// StockMovement is an append-only audit row written by the inventory
// ledger for every stock adjustment. Delta is signed: negative for
// reservations, positive for restorations.
type StockMovement struct {
	ID        uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	ProductID uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	SaleID    *uuid.UUID              `gorm:"column:sale_id;type:uuid"`
	Type      enums.StockMovementType `gorm:"column:type;type:stock_movement_type;not null"`
	Delta     int                     `gorm:"column:delta;not null"`
	CreatedAt time.Time               `gorm:"column:created_at;autoCreateTime"`
}
