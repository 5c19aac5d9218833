package models

import (
	"time"

	"github.com/google/uuid"
)

// SiteContent is a keyed block of editable text the public site renders
// (hero copy, announcements, contact details).
type SiteContent struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Key       string    `gorm:"column:key;not null;uniqueIndex"`
	Title     string    `gorm:"column:title;not null"`
	Body      string    `gorm:"column:body;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
