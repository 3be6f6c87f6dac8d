package categories

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

// Service manages the category taxonomy.
type Service interface {
	Create(ctx context.Context, input UpsertInput) (*CategoryView, error)
	Rename(ctx context.Context, id uuid.UUID, input UpsertInput) (*CategoryView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*CategoryView, error)
	List(ctx context.Context) ([]CategoryView, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx   transactor
	repo Repository
	logg *logger.Logger
}

// NewService wires the categories service.
func NewService(tx transactor, repo Repository, logg *logger.Logger) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transactor is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{tx: tx, repo: repo, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, input UpsertInput) (*CategoryView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "category name is required")
	}

	category := models.Category{Name: name}
	if err := s.repo.Create(ctx, &category); err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, errors.New(errors.CodeConflict, "a category with this name already exists")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "creating category")
	}

	s.logg.Info(s.logg.WithField(ctx, "category_id", category.ID), "category created")
	view := viewOf(category, 0)
	return &view, nil
}

func (s *service) Rename(ctx context.Context, id uuid.UUID, input UpsertInput) (*CategoryView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, errors.New(errors.CodeValidation, "category name is required")
	}

	renamed, err := s.repo.Rename(ctx, id, name)
	if err != nil {
		if db.IsUniqueViolation(err, "name") {
			return nil, errors.New(errors.CodeConflict, "a category with this name already exists")
		}
		return nil, errors.Wrap(errors.CodeInternal, err, "renaming category")
	}
	if !renamed {
		return nil, errors.New(errors.CodeNotFound, "category not found")
	}
	return s.Get(ctx, id)
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		if err := repo.DetachBooks(ctx, id); err != nil {
			return errors.Wrap(errors.CodeInternal, err, "detaching books")
		}
		deleted, err := repo.Delete(ctx, id)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "deleting category")
		}
		if !deleted {
			return errors.New(errors.CodeNotFound, "category not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "category_id", id), "category deleted")
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*CategoryView, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading category")
	}
	if category == nil {
		return nil, errors.New(errors.CodeNotFound, "category not found")
	}
	count, err := s.repo.CountBooks(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "counting books")
	}
	view := viewOf(*category, count)
	return &view, nil
}

func (s *service) List(ctx context.Context) ([]CategoryView, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing categories")
	}

	views := make([]CategoryView, 0, len(categories))
	for _, category := range categories {
		count, err := s.repo.CountBooks(ctx, category.ID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "counting books")
		}
		views = append(views, viewOf(category, count))
	}
	return views, nil
}
