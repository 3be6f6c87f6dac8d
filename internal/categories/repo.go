package categories

import (
	"context"
	stdErrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
)

// Repository persists categories.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, category *models.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	Rename(ctx context.Context, id uuid.UUID, name string) (bool, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
	List(ctx context.Context) ([]models.Category, error)
	CountBooks(ctx context.Context, id uuid.UUID) (int64, error)
	// DetachBooks clears category_id on every book in the category so a
	// category delete never orphans catalog rows.
	DetachBooks(ctx context.Context, id uuid.UUID) error
}

type gormRepository struct {
	conn *gorm.DB
}

// NewRepository builds the categories repository on the shared client.
func NewRepository(client *db.Client) Repository {
	return &gormRepository{conn: client.DB()}
}

func (r *gormRepository) WithTx(tx *gorm.DB) Repository {
	return &gormRepository{conn: tx}
}

func (r *gormRepository) Create(ctx context.Context, category *models.Category) error {
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	return r.conn.WithContext(ctx).Create(category).Error
}

func (r *gormRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.conn.WithContext(ctx).Where("id = ?", id).First(&category).Error
	if err != nil {
		if stdErrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *gormRepository) Rename(ctx context.Context, id uuid.UUID, name string) (bool, error) {
	res := r.conn.WithContext(ctx).
		Model(&models.Category{}).
		Where("id = ?", id).
		Update("name", name)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.conn.WithContext(ctx).Where("id = ?", id).Delete(&models.Category{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *gormRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.conn.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}

func (r *gormRepository) CountBooks(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("category_id = ?", id).
		Count(&count).Error
	return count, err
}

func (r *gormRepository) DetachBooks(ctx context.Context, id uuid.UUID) error {
	return r.conn.WithContext(ctx).
		Model(&models.Book{}).
		Where("category_id = ?", id).
		Update("category_id", nil).Error
}
