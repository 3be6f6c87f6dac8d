package stats

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesubash/library-management-system-sub000/pkg/enums"
)

// DashboardView summarizes the library for the admin landing page.
type DashboardView struct {
	Books           int64                        `json:"books"`
	TotalCopies     int64                        `json:"total_copies"`
	AvailableCopies int64                        `json:"available_copies"`
	RecordsByStatus map[enums.BorrowStatus]int64 `json:"records_by_status"`
}

// OverdueView describes one overdue loan with its accrued display fine.
type OverdueView struct {
	RecordID    uuid.UUID       `json:"record_id"`
	UserID      uuid.UUID       `json:"user_id"`
	UserName    string          `json:"user_name"`
	UserEmail   string          `json:"user_email"`
	BookID      uuid.UUID       `json:"book_id"`
	BookTitle   string          `json:"book_title"`
	DueDate     time.Time       `json:"due_date"`
	DaysOverdue int             `json:"days_overdue"`
	AccruedFine decimal.Decimal `json:"accrued_fine"`
}

// BookRankView ranks a title by how often it has been requested.
type BookRankView struct {
	BookID      uuid.UUID `json:"book_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	BorrowCount int64     `json:"borrow_count"`
}
