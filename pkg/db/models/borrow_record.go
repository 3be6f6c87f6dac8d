package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesubash/library-management-system-sub000/pkg/enums"
)

// BorrowRecord tracks one user's hold on one book through the lifecycle
// requested -> approved -> borrowed -> returned, with rejected and
// cancel-while-requested (row deletion) as the other exits.
type BorrowRecord struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	BookID          uuid.UUID          `gorm:"column:book_id;type:uuid;not null;index"`
	Status          enums.BorrowStatus `gorm:"column:status;not null;default:requested"`
	RequestedDate   time.Time          `gorm:"column:requested_date;not null"`
	DueDate         time.Time          `gorm:"column:due_date;not null"`
	ApprovedDate    *time.Time         `gorm:"column:approved_date"`
	ApprovedBy      *uuid.UUID         `gorm:"column:approved_by;type:uuid"`
	BorrowDate      *time.Time         `gorm:"column:borrow_date"`
	ReturnDate      *time.Time         `gorm:"column:return_date"`
	RejectionReason *string            `gorm:"column:rejection_reason"`
	Fine            decimal.Decimal    `gorm:"column:fine;type:numeric(10,2);not null;default:0"`
	Book            *Book              `gorm:"foreignKey:BookID"`
	User            *User              `gorm:"foreignKey:UserID"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
