package catalog

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/pagination"
)

// Repository persists catalog titles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, book *models.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error)
	UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error)
	// SwapCopyCounts replaces both copy counts only while the stored counts
	// still match the observed ones, so concurrent lifecycle writes force a
	// re-read instead of clobbering each other.
	SwapCopyCounts(ctx context.Context, id uuid.UUID, oldTotal, oldAvailable, newTotal, newAvailable int) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	CountActiveRecords(ctx context.Context, bookID uuid.UUID) (int64, error)
	// PurgeRecords removes every borrow record referencing the book. The
	// records table holds a NOT NULL foreign key on books, so history must
	// go in the same transaction as the book row.
	PurgeRecords(ctx context.Context, bookID uuid.UUID) (int64, error)
	CategoryExists(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context, params ListParams) ([]models.Book, error)
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the catalog repository on the shared client.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{conn: client.DB()}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, book *models.Book) error {
	if book.ID == uuid.Nil {
		book.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(book).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Book, error) {
	var book models.Book
	err := r.conn.WithContext(ctx).
		Preload("Category").
		Where("id = ?", id).
		First(&book).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &book, nil
}

func (r *gormRepository) UpdateFields(ctx context.Context, id uuid.UUID, updates map[string]any) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) SwapCopyCounts(ctx context.Context, id uuid.UUID, oldTotal, oldAvailable, newTotal, newAvailable int) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("id = ? AND total_copies = ? AND available_copies = ?", id, oldTotal, oldAvailable).
		Updates(map[string]any{
			"total_copies":     newTotal,
			"available_copies": newAvailable,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.conn.WithContext(ctx).Where("id = ?", id).Delete(&models.Book{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) CountActiveRecords(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.BorrowRecord{}).
		Where("book_id = ? AND status IN ?", bookID, enums.ActiveBorrowStatuses).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) PurgeRecords(ctx context.Context, bookID uuid.UUID) (int64, error) {
	res := r.conn.WithContext(ctx).
		Where("book_id = ?", bookID).
		Delete(&models.BorrowRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *gormRepository) CategoryExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

func (r *gormRepository) List(ctx context.Context, params ListParams) ([]models.Book, error) {
	query := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Preload("Category")

	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		query = query.Where("title LIKE ? OR author LIKE ?", pattern, pattern)
	}
	if params.CategoryID != nil {
		query = query.Where("category_id = ?", *params.CategoryID)
	}
	if params.AvailableOnly {
		query = query.Where("available_copies > 0")
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

	var books []models.Book
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&books).Error
	return books, err
}
