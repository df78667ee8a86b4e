package models

import (
	"time"

	"github.com/google/uuid"
)

// Sweet is a catalog row. Seq preserves insertion order; ID is the public identifier.
type Sweet struct {
	Seq         int64     `gorm:"column:seq;primaryKey;autoIncrement"`
	ID          uuid.UUID `gorm:"column:id;type:uuid;not null;uniqueIndex"`
	Name        string    `gorm:"column:name;not null"`
	Category    string    `gorm:"column:category;not null"`
	PriceCents  int64     `gorm:"column:price_cents;not null"`
	Stock       int       `gorm:"column:stock;not null"`
	Description string    `gorm:"column:description;not null;default:''"`
	Image       *string   `gorm:"column:image"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (Sweet) TableName() string { return "sweets" }
