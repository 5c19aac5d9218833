package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/aramunz/bazar-backend/pkg/enums"
)

// Customer is a back-office contact record. Sales keep a denormalized
// name snapshot, so editing or deleting a customer never rewrites
// existing sales.
type Customer struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	Name       string            `gorm:"column:name;not null"`
	Phone      *string           `gorm:"column:phone"`
	Email      *string           `gorm:"column:email"`
	Generation *enums.Generation `gorm:"column:generation;type:generation"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
