package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
	"github.com/mesubash/library-management-system-sub000/pkg/pagination"
)

// copyEditAttempts bounds the compare-and-swap retries on a total-copies
// edit racing the borrow lifecycle.
const copyEditAttempts = 3

// Service manages catalog titles. Copy-count edits go through a
// compare-and-swap so they compose with concurrent approvals and returns.
type Service interface {
	Create(ctx context.Context, input CreateBookInput) (*BookView, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookView, error)
	UpdateTotalCopies(ctx context.Context, id uuid.UUID, newTotal int) (*BookView, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*BookView, error)
	List(ctx context.Context, params ListParams) (*ListResponse, error)
}

type transactor interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx   transactor
	repo Repository
	logg *logger.Logger
}

// NewService wires the catalog service.
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

func (s *service) Create(ctx context.Context, input CreateBookInput) (*BookView, error) {
	title := strings.TrimSpace(input.Title)
	author := strings.TrimSpace(input.Author)
	if title == "" || author == "" {
		return nil, errors.New(errors.CodeValidation, "title and author are required")
	}
	if input.TotalCopies < 1 {
		return nil, errors.New(errors.CodeValidation, "total copies must be at least 1")
	}
	if input.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "checking category")
		}
		if !exists {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
	}

	book := models.Book{
		Title:           title,
		Author:          author,
		ISBN:            input.ISBN,
		Description:     input.Description,
		TotalCopies:     input.TotalCopies,
		AvailableCopies: input.TotalCopies,
		CategoryID:      input.CategoryID,
	}
	if err := s.repo.Create(ctx, &book); err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "creating book")
	}

	s.logg.Info(s.logg.WithField(ctx, "book_id", book.ID), "book created")
	view := viewOf(book)
	return &view, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateBookInput) (*BookView, error) {
	updates := map[string]any{}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.New(errors.CodeValidation, "title must not be empty")
		}
		updates["title"] = title
	}
	if input.Author != nil {
		author := strings.TrimSpace(*input.Author)
		if author == "" {
			return nil, errors.New(errors.CodeValidation, "author must not be empty")
		}
		updates["author"] = author
	}
	if input.ISBN != nil {
		updates["isbn"] = *input.ISBN
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.CategoryID != nil {
		exists, err := s.repo.CategoryExists(ctx, *input.CategoryID)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "checking category")
		}
		if !exists {
			return nil, errors.New(errors.CodeNotFound, "category not found")
		}
		updates["category_id"] = *input.CategoryID
	}
	if len(updates) == 0 {
		return nil, errors.New(errors.CodeValidation, "no fields to update")
	}

	updated, err := s.repo.UpdateFields(ctx, id, updates)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "updating book")
	}
	if !updated {
		return nil, errors.New(errors.CodeNotFound, "book not found")
	}
	return s.Get(ctx, id)
}

// UpdateTotalCopies shifts availability by the total delta, clamped to
// [0, newTotal], and applies both counts in one guarded write.
func (s *service) UpdateTotalCopies(ctx context.Context, id uuid.UUID, newTotal int) (*BookView, error) {
	if newTotal < 1 {
		return nil, errors.New(errors.CodeValidation, "total copies must be at least 1")
	}

	for attempt := 0; attempt < copyEditAttempts; attempt++ {
		book, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "loading book")
		}
		if book == nil {
			return nil, errors.New(errors.CodeNotFound, "book not found")
		}

		newAvailable := clamp(book.AvailableCopies+(newTotal-book.TotalCopies), 0, newTotal)
		swapped, err := s.repo.SwapCopyCounts(ctx, id, book.TotalCopies, book.AvailableCopies, newTotal, newAvailable)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInternal, err, "updating copy counts")
		}
		if swapped {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"book_id":   id,
				"total":     newTotal,
				"available": newAvailable,
			}), "copy counts updated")
			return s.Get(ctx, id)
		}
	}
	return nil, errors.New(errors.CodeConflict, "copy counts changed concurrently, retry the edit")
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		active, err := repo.CountActiveRecords(ctx, id)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "counting active records")
		}
		if active > 0 {
			return errors.New(errors.CodeConflict, "book has active borrow records").
				WithDetails(map[string]any{"active_records": active})
		}

		// Only terminal records remain; they reference the book through a
		// NOT NULL foreign key and go with it.
		purged, err := repo.PurgeRecords(ctx, id)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "purging borrow history")
		}
		if purged > 0 {
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"book_id":        id,
				"purged_records": purged,
			}), "borrow history purged")
		}

		deleted, err := repo.Delete(ctx, id)
		if err != nil {
			return errors.Wrap(errors.CodeInternal, err, "deleting book")
		}
		if !deleted {
			return errors.New(errors.CodeNotFound, "book not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithField(ctx, "book_id", id), "book deleted")
	return nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*BookView, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "loading book")
	}
	if book == nil {
		return nil, errors.New(errors.CodeNotFound, "book not found")
	}
	view := viewOf(*book)
	return &view, nil
}

func (s *service) List(ctx context.Context, params ListParams) (*ListResponse, error) {
	books, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, errors.Wrap(errors.CodeInternal, err, "listing books")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	resp := &ListResponse{Items: make([]BookView, 0, len(books))}

	hasMore := len(books) > limit
	if hasMore {
		books = books[:limit]
	}
	for _, book := range books {
		resp.Items = append(resp.Items, viewOf(book))
	}
	if hasMore {
		last := books[len(books)-1]
		resp.Cursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return resp, nil
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
