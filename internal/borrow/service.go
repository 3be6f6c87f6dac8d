package borrow

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/pagination"
)

// Service owns every borrow-record transition and keeps each book's
// available_copies consistent with its active records while doing so.
type Service interface {
	Request(ctx context.Context, input RequestInput) (*RecordView, error)
	Approve(ctx context.Context, recordID, approverID uuid.UUID) (*RecordView, error)
	Reject(ctx context.Context, recordID, approverID uuid.UUID, reason string) (*RecordView, error)
	ConfirmPickup(ctx context.Context, recordID uuid.UUID) (*RecordView, error)
	Return(ctx context.Context, recordID uuid.UUID) (*RecordView, error)
	Cancel(ctx context.Context, recordID, requesterID uuid.UUID) error
	Get(ctx context.Context, recordID, actorID uuid.UUID, role enums.UserRole) (*RecordView, error)
	List(ctx context.Context, params ListParams) (*ListResponse, error)
}

// Policy carries the lending rules applied by the service.
type Policy struct {
	MaxActiveRecords int
	FinePerDay       decimal.Decimal
	MaxLoanDays      int
}

// PolicyFromConfig parses the configured lending policy.
func PolicyFromConfig(cfg config.BorrowConfig) (Policy, error) {
	perDay, err := decimal.NewFromString(cfg.FinePerDay)
	if err != nil {
		return Policy{}, fmt.Errorf("parsing fine per day %q: %w", cfg.FinePerDay, err)
	}
	if perDay.IsNegative() {
		return Policy{}, fmt.Errorf("fine per day must not be negative")
	}
	return Policy{
		MaxActiveRecords: cfg.MaxActiveRecords,
		FinePerDay:       perDay,
		MaxLoanDays:      cfg.MaxLoanDays,
	}, nil
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx     transactor
	repo   Repository
	policy Policy
	logg   *logger.Logger
	now    func() time.Time
}

// NewService wires the borrow service.
func NewService(tx transactor, repo Repository, policy Policy, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if policy.MaxActiveRecords <= 0 {
		return nil, fmt.Errorf("max active records must be positive")
	}
	return &service{
		tx:     tx,
		repo:   repo,
		policy: policy,
		logg:   logg,
		now:    time.Now,
	}, nil
}

func (s *service) Request(ctx context.Context, input RequestInput) (*RecordView, error) {
	now := s.now()

	if input.UserID == uuid.Nil || input.BookID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "user id and book id are required")
	}
	if input.DueDate.IsZero() || !input.DueDate.After(now) {
		return nil, errors.New(errors.CodeValidation, "due date must be in the future")
	}
	if s.policy.MaxLoanDays > 0 {
		maxDue := now.AddDate(0, 0, s.policy.MaxLoanDays)
		if input.DueDate.After(maxDue) {
			return nil, errors.New(errors.CodeValidation, "due date exceeds the maximum loan period").
				WithDetails(map[string]any{"max_loan_days": s.policy.MaxLoanDays})
		}
	}

	var view RecordView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		book, err := repo.FindBook(ctx, input.BookID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading book")
		}
		if book == nil {
			return errors.New(errors.CodeNotFound, "book not found")
		}
		if book.AvailableCopies <= 0 {
			return errors.New(errors.CodeUnavailable, "no copies available to request").
				WithDetails(map[string]any{"book_id": book.ID})
		}

		duplicate, err := repo.HasActiveForBook(ctx, input.UserID, input.BookID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "checking existing requests")
		}
		if duplicate {
			return errors.New(errors.CodeConflict, "an active request for this book already exists")
		}

		active, err := repo.CountActive(ctx, input.UserID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "counting active records")
		}
		if active >= int64(s.policy.MaxActiveRecords) {
			return errors.New(errors.CodeBorrowLimit, "active borrow limit reached").
				WithDetails(map[string]any{"limit": s.policy.MaxActiveRecords})
		}

		record := models.BorrowRecord{
			UserID:        input.UserID,
			BookID:        input.BookID,
			Status:        enums.BorrowStatusRequested,
			RequestedDate: now,
			DueDate:       input.DueDate,
			Fine:          decimal.Zero,
		}
		if err := repo.CreateRecord(ctx, &record); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "creating borrow record")
		}
		record.Book = book
		view = s.viewOf(record, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"record_id": view.ID,
		"book_id":   input.BookID,
	}), "borrow request submitted")
	return &view, nil
}

func (s *service) Approve(ctx context.Context, recordID, approverID uuid.UUID) (*RecordView, error) {
	now := s.now()

	if approverID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "approver id is required")
	}

	var view RecordView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading borrow record")
		}
		if record == nil {
			return errors.New(errors.CodeNotFound, "borrow record not found")
		}
		if record.Status != enums.BorrowStatusRequested {
			return stateConflict(record.Status, enums.BorrowStatusApproved)
		}

		moved, err := repo.TransitionStatus(ctx, recordID, enums.BorrowStatusRequested, map[string]any{
			"status":        enums.BorrowStatusApproved,
			"approved_date": now,
			"approved_by":   approverID,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "approving borrow record")
		}
		if !moved {
			return stateConflict(record.Status, enums.BorrowStatusApproved)
		}

		// The rollback on failure leaves the record requested for manual
		// resolution rather than silently rejecting it.
		reserved, err := repo.ReserveCopy(ctx, record.BookID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "reserving copy")
		}
		if !reserved {
			return errors.New(errors.CodeUnavailable, "no copies available to approve").
				WithDetails(map[string]any{"book_id": record.BookID})
		}

		record.Status = enums.BorrowStatusApproved
		record.ApprovedDate = &now
		record.ApprovedBy = &approverID
		view = s.viewOf(*record, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "record_id", recordID), "borrow request approved")
	return &view, nil
}

func (s *service) Reject(ctx context.Context, recordID, approverID uuid.UUID, reason string) (*RecordView, error) {
	now := s.now()

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, errors.New(errors.CodeValidation, "a rejection reason is required")
	}
	if approverID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "approver id is required")
	}

	var view RecordView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading borrow record")
		}
		if record == nil {
			return errors.New(errors.CodeNotFound, "borrow record not found")
		}
		if record.Status != enums.BorrowStatusRequested {
			return stateConflict(record.Status, enums.BorrowStatusRejected)
		}

		moved, err := repo.TransitionStatus(ctx, recordID, enums.BorrowStatusRequested, map[string]any{
			"status":           enums.BorrowStatusRejected,
			"rejection_reason": reason,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "rejecting borrow record")
		}
		if !moved {
			return stateConflict(record.Status, enums.BorrowStatusRejected)
		}

		record.Status = enums.BorrowStatusRejected
		record.RejectionReason = &reason
		view = s.viewOf(*record, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "record_id", recordID), "borrow request rejected")
	return &view, nil
}

func (s *service) ConfirmPickup(ctx context.Context, recordID uuid.UUID) (*RecordView, error) {
	now := s.now()

	var view RecordView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading borrow record")
		}
		if record == nil {
			return errors.New(errors.CodeNotFound, "borrow record not found")
		}
		if record.Status != enums.BorrowStatusApproved {
			return stateConflict(record.Status, enums.BorrowStatusBorrowed)
		}

		moved, err := repo.TransitionStatus(ctx, recordID, enums.BorrowStatusApproved, map[string]any{
			"status":      enums.BorrowStatusBorrowed,
			"borrow_date": now,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "confirming pickup")
		}
		if !moved {
			return stateConflict(record.Status, enums.BorrowStatusBorrowed)
		}

		record.Status = enums.BorrowStatusBorrowed
		record.BorrowDate = &now
		view = s.viewOf(*record, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "record_id", recordID), "book picked up")
	return &view, nil
}

func (s *service) Return(ctx context.Context, recordID uuid.UUID) (*RecordView, error) {
	now := s.now()

	var view RecordView
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading borrow record")
		}
		if record == nil {
			return errors.New(errors.CodeNotFound, "borrow record not found")
		}
		if record.Status != enums.BorrowStatusBorrowed {
			return stateConflict(record.Status, enums.BorrowStatusReturned)
		}

		fine := AccruedFine(record.DueDate, now, s.policy.FinePerDay)
		moved, err := repo.TransitionStatus(ctx, recordID, enums.BorrowStatusBorrowed, map[string]any{
			"status":      enums.BorrowStatusReturned,
			"return_date": now,
			"fine":        fine,
		})
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "returning book")
		}
		if !moved {
			return stateConflict(record.Status, enums.BorrowStatusReturned)
		}

		released, err := repo.ReleaseCopy(ctx, record.BookID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "releasing copy")
		}
		if !released {
			// Availability already at total, which happens after a
			// total-copies edit shrank the book mid-loan. The return still
			// completes; the count stays capped.
			s.logg.Warn(s.logg.WithField(ctx, "book_id", record.BookID), "copy release capped at total")
		}

		record.Status = enums.BorrowStatusReturned
		record.ReturnDate = &now
		record.Fine = fine
		view = s.viewOf(*record, now)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "record_id", recordID), "book returned")
	return &view, nil
}

func (s *service) Cancel(ctx context.Context, recordID, requesterID uuid.UUID) error {
	if requesterID == uuid.Nil {
		return errors.New(errors.CodeValidation, "requester id is required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		record, err := repo.FindRecord(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "loading borrow record")
		}
		if record == nil {
			return errors.New(errors.CodeNotFound, "borrow record not found")
		}
		if record.UserID != requesterID {
			return errors.New(errors.CodeForbidden, "only the requesting user may cancel")
		}
		if record.Status != enums.BorrowStatusRequested {
			return errors.New(errors.CodeStateConflict, "only requested records can be cancelled").
				WithDetails(map[string]any{"current_status": record.Status})
		}

		deleted, err := repo.DeleteRequested(ctx, recordID)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "cancelling borrow record")
		}
		if !deleted {
			return errors.New(errors.CodeStateConflict, "only requested records can be cancelled")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "record_id", recordID), "borrow request cancelled")
	return nil
}

func (s *service) Get(ctx context.Context, recordID, actorID uuid.UUID, role enums.UserRole) (*RecordView, error) {
	record, err := s.repo.FindRecord(ctx, recordID)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading borrow record")
	}
	if record == nil {
		return nil, errors.New(errors.CodeNotFound, "borrow record not found")
	}
	if role != enums.UserRoleAdmin && record.UserID != actorID {
		return nil, errors.New(errors.CodeForbidden, "access denied")
	}

	view := s.viewOf(*record, s.now())
	return &view, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	records, err := s.repo.ListRecords(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing borrow records")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	resp := &ListResponse{Items: make([]RecordView, 0, len(records))}
	now := s.now()

	hasMore := len(records) > limit
	if hasMore {
		records = records[:limit]
	}
	for _, record := range records {
		resp.Items = append(resp.Items, s.viewOf(record, now))
	}
	if hasMore {
		last := records[len(records)-1]
		resp.Cursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return resp, nil
}

func stateConflict(current, attempted enums.BorrowStatus) *errors.Error {
	return errors.New(errors.CodeStateConflict,
		fmt.Sprintf("cannot move record from %s to %s", current, attempted)).
		WithDetails(map[string]any{
			"current_status":   current,
			"attempted_status": attempted,
		})
}
