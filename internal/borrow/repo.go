package borrow

import (
	"context"
	stdErrors "errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/pagination"
)

// Repository persists borrow records and performs the guarded copy-count
// updates the lifecycle depends on. Every mutation that touches
// available_copies is a single conditional UPDATE so the invariant
// 0 <= available <= total cannot be broken by concurrent callers.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRecord(ctx context.Context, record *models.BorrowRecord) error
	FindRecord(ctx context.Context, id uuid.UUID) (*models.BorrowRecord, error)
	// TransitionStatus applies updates only while the record still holds the
	// expected status. Returns false when the guard did not match.
	TransitionStatus(ctx context.Context, id uuid.UUID, from enums.BorrowStatus, updates map[string]any) (bool, error)
	// DeleteRequested removes a record only while it is still requested.
	DeleteRequested(ctx context.Context, id uuid.UUID) (bool, error)

	CountActive(ctx context.Context, userID uuid.UUID) (int64, error)
	HasActiveForBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error)

	FindBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error)
	// ReserveCopy decrements available_copies iff at least one copy remains.
	ReserveCopy(ctx context.Context, bookID uuid.UUID) (bool, error)
	// ReleaseCopy increments available_copies iff it is below total_copies.
	ReleaseCopy(ctx context.Context, bookID uuid.UUID) (bool, error)

	ListRecords(ctx context.Context, params ListParams) ([]models.BorrowRecord, error)
	ListOverdue(ctx context.Context, asOf time.Time) ([]models.BorrowRecord, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the borrow repository on the shared client.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{conn: client.DB()}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) CreateRecord(ctx context.Context, record *models.BorrowRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(record).Error
}

func (r *gormRepository) FindRecord(ctx context.Context, id uuid.UUID) (*models.BorrowRecord, error) {
	var record models.BorrowRecord
	err := r.conn.WithContext(ctx).
		Preload("Book").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

func (r *gormRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from enums.BorrowStatus, updates map[string]any) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) DeleteRequested(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.conn.WithContext(ctx).
		Where("id = ? AND status = ?", id, enums.BorrowStatusRequested).
		Delete(&models.BorrowRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) CountActive(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("user_id = ? AND status IN ?", userID, enums.ActiveBorrowStatuses).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) HasActiveForBook(ctx context.Context, userID, bookID uuid.UUID) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("user_id = ? AND book_id = ? AND status IN ?", userID, bookID, enums.ActiveBorrowStatuses).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) FindBook(ctx context.Context, bookID uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.conn.WithContext(ctx).
		Where("id = ?", bookID).
		First(&book).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (r *gormRepository) ReserveCopy(ctx context.Context, bookID uuid.UUID) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies > 0", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies - 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) ReleaseCopy(ctx context.Context, bookID uuid.UUID) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND available_copies < total_copies", bookID).
		UpdateColumn("available_copies", gorm.Expr("available_copies + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) ListRecords(ctx context.Context, params ListParams) ([]models.BorrowRecord, error) {
	query := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Preload("Book")

	if params.UserID != nil {
		query = query.Where("user_id = ?", *params.UserID)
	}
	if params.BookID != nil {
		query = query.Where("book_id = ?", *params.BookID)
	}
	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var records []models.BorrowRecord
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&records).Error
	return records, err
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
