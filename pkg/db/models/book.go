package models

import (
	"time"

	"github.com/google/uuid"
)

// Book represents a catalog title and its physical copy counts.
//
// AvailableCopies is mutated only by the borrow lifecycle (approve/return)
// and by the clamped total-copies edit; every writer goes through a
// conditional UPDATE so the invariant 0 <= available <= total holds.
type Book struct {
	ID              uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title           string     `gorm:"column:title;not null"`
	Author          string     `gorm:"column:author;not null"`
	ISBN            *string    `gorm:"column:isbn"`
	Description     *string    `gorm:"column:description"`
	TotalCopies     int        `gorm:"column:total_copies;not null;default:1"`
	AvailableCopies int        `gorm:"column:available_copies;not null;default:1"`
	CategoryID      *uuid.UUID `gorm:"column:category_id;type:uuid"`
	Category        *Category  `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
