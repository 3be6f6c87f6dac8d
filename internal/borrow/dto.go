package borrow

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
)

// RequestInput carries a member's ask for a book.
type RequestInput struct {
	UserID  uuid.UUID
	BookID  uuid.UUID
	DueDate time.Time
}

// ListParams filters borrow-record listings.
type ListParams struct {
	UserID *uuid.UUID
	BookID *uuid.UUID
	Status *enums.BorrowStatus
	Limit  int
	Cursor string
}

// RecordView is the API shape of a borrow record. AccruedFine reports the
// display-only fine for overdue loans that have not been returned yet.
type RecordView struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	BookID          uuid.UUID          `json:"book_id"`
	BookTitle       string             `json:"book_title,omitempty"`
	Status          enums.BorrowStatus `json:"status"`
	RequestedDate   time.Time          `json:"requested_date"`
	DueDate         time.Time          `json:"due_date"`
	ApprovedDate    *time.Time         `json:"approved_date,omitempty"`
	ApprovedBy      *uuid.UUID         `json:"approved_by,omitempty"`
	BorrowDate      *time.Time         `json:"borrow_date,omitempty"`
	ReturnDate      *time.Time         `json:"return_date,omitempty"`
	RejectionReason *string            `json:"rejection_reason,omitempty"`
	Fine            decimal.Decimal    `json:"fine"`
	AccruedFine     decimal.Decimal    `json:"accrued_fine"`
	Overdue         bool               `json:"overdue"`
}

// ListResponse pages borrow records.
type ListResponse struct {
	Items  []RecordView `json:"items"`
	Cursor string       `json:"cursor,omitempty"`
}

func (s *service) viewOf(record models.BorrowRecord, now time.Time) RecordView {
	view := RecordView{
		ID:              record.ID,
		UserID:          record.UserID,
		BookID:          record.BookID,
		Status:          record.Status,
		RequestedDate:   record.RequestedDate,
		DueDate:         record.DueDate,
		ApprovedDate:    record.ApprovedDate,
		ApprovedBy:      record.ApprovedBy,
		BorrowDate:      record.BorrowDate,
		ReturnDate:      record.ReturnDate,
		RejectionReason: record.RejectionReason,
		Fine:            record.Fine,
		AccruedFine:     record.Fine,
	}
	if record.Book != nil {
		view.BookTitle = record.Book.Title
	}
	if record.Status == enums.BorrowStatusBorrowed && now.After(record.DueDate) {
		view.Overdue = true
		view.AccruedFine = AccruedFine(record.DueDate, now, s.policy.FinePerDay)
	}
	return view
}
