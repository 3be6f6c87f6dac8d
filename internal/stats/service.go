package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesubash/library-management-system-sub000/internal/borrow"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

const defaultRankLimit = 10

// Service serves the read-only library dashboards.
type Service interface {
	Dashboard(ctx context.Context) (*DashboardView, error)
	Overdue(ctx context.Context) ([]OverdueView, error)
	MostBorrowed(ctx context.Context, limit int) ([]BookRankView, error)
}

type service struct {
	repo       Repository
	finePerDay decimal.Decimal
	logg       *logger.Logger
	now        func() time.Time
}

// NewService wires the stats service.
func NewService(repo Repository, finePerDay decimal.Decimal, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if finePerDay.IsNegative() {
		return nil, fmt.Errorf("fine per day must not be negative")
	}
	return &service{
		repo:       repo,
		finePerDay: finePerDay,
		logg:       logg,
		now:        time.Now,
	}, nil
}

func (s *service) Dashboard(ctx context.Context) (*DashboardView, error) {
	books, total, available, err := s.repo.CopyCounts(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "aggregating copy counts")
	}
	byStatus, err := s.repo.RecordCountsByStatus(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting records by status")
	}

	// Every status shows up in the response, zero or not.
	for _, status := range []enums.BorrowStatus{
		enums.BorrowStatusRequested,
		enums.BorrowStatusApproved,
		enums.BorrowStatusBorrowed,
		enums.BorrowStatusReturned,
		enums.BorrowStatusRejected,
	} {
		if _, ok := byStatus[status]; !ok {
			byStatus[status] = 0
		}
	}

	return &DashboardView{
		Books:           books,
		TotalCopies:     total,
		AvailableCopies: available,
		RecordsByStatus: byStatus,
	}, nil
}

func (s *service) Overdue(ctx context.Context) ([]OverdueView, error) {
	now := s.now()
	records, err := s.repo.ListOverdue(ctx, now)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing overdue records")
	}

	views := make([]OverdueView, 0, len(records))
	for _, record := range records {
		view := OverdueView{
			RecordID:    record.ID,
			UserID:      record.UserID,
			BookID:      record.BookID,
			DueDate:     record.DueDate,
			DaysOverdue: int(now.Sub(record.DueDate).Hours() / 24),
			AccruedFine: borrow.AccruedFine(record.DueDate, now, s.finePerDay),
		}
		if record.User != nil {
			view.UserName = record.User.Name
			view.UserEmail = record.User.Email
		}
		if record.Book != nil {
			view.BookTitle = record.Book.Title
		}
		views = append(views, view)
	}
	return views, nil
}

func (s *service) MostBorrowed(ctx context.Context, limit int) ([]BookRankView, error) {
	if limit <= 0 {
		limit = defaultRankLimit
	}
	rows, err := s.repo.MostBorrowed(ctx, limit)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "ranking books")
	}

	views := make([]BookRankView, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.BookID)
		if err != nil {
			continue
		}
		views = append(views, BookRankView{
			BookID:      id,
			Title:       row.Title,
			Author:      row.Author,
			BorrowCount: row.BorrowCount,
		})
	}
	return views, nil
}
