package stats

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
)

// Repository runs the read-only aggregate queries behind the dashboards.
type Repository interface {
	CopyCounts(ctx context.Context) (books, total, available int64, err error)
	RecordCountsByStatus(ctx context.Context) (map[enums.BorrowStatus]int64, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.BorrowRecord, error)
	MostBorrowed(ctx context.Context, limit int) ([]bookRank, error)
}

type bookRank struct {
	BookID      string
	Title       string
	Author      string
	BorrowCount int64
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the stats repository on the shared client.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{conn: client.DB()}
}

func (r *gormRepository) CopyCounts(ctx context.Context) (int64, int64, int64, error) {
	var row struct {
		Books     int64
		Total     int64
		Available int64
	}
	err := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Select("COUNT(*) AS books, COALESCE(SUM(total_copies), 0) AS total, COALESCE(SUM(available_copies), 0) AS available").
		Scan(&row).Error
	if err != nil {
		return 0, 0, 0, err
	}
	return row.Books, row.Total, row.Available, nil
}

func (r *gormRepository) RecordCountsByStatus(ctx context.Context) (map[enums.BorrowStatus]int64, error) {
	var rows []struct {
		Status enums.BorrowStatus
		Count  int64
	}
	err := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := map[enums.BorrowStatus]int64{}
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *gormRepository) ListOverdue(ctx context.Context, asOf time.Time) ([]models.BorrowRecord, error) {
	var records []models.BorrowRecord
	err := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Preload("Book").
		Preload("User").
		Where("status = ? AND due_date < ?", enums.BorrowStatusBorrowed, asOf).
		Order("due_date ASC").
		Find(&records).Error
	return records, err
}

func (r *gormRepository) MostBorrowed(ctx context.Context, limit int) ([]bookRank, error) {
	var rows []bookRank
	err := r.conn.WithContext(ctx).
		Table("borrow_records").
		Select("borrow_records.book_id AS book_id, books.title AS title, books.author AS author, COUNT(*) AS borrow_count").
		Joins("JOIN books ON books.id = borrow_records.book_id").
		Group("borrow_records.book_id, books.title, books.author").
		Order("borrow_count DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
