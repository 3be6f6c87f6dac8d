package catalog

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
)

// CreateBookInput carries a new catalog title.
type CreateBookInput struct {
	Title       string     `json:"title" validate:"required,min=1,max=300"`
	Author      string     `json:"author" validate:"required,min=1,max=200"`
	ISBN        *string    `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	TotalCopies int        `json:"total_copies" validate:"required,min=1"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// UpdateBookInput carries a metadata edit. Nil fields are left unchanged;
// copy counts are edited through the dedicated operation.
type UpdateBookInput struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=1,max=300"`
	Author      *string    `json:"author,omitempty" validate:"omitempty,min=1,max=200"`
	ISBN        *string    `json:"isbn,omitempty" validate:"omitempty,max=20"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=4000"`
	CategoryID  *uuid.UUID `json:"category_id,omitempty"`
}

// ListParams filters catalog listings.
type ListParams struct {
	Search        string
	CategoryID    *uuid.UUID
	AvailableOnly bool
	Limit         int
	Cursor        string
}

// BookView is the API shape of a catalog title.
type BookView struct {
	ID              uuid.UUID  `json:"id"`
	Title           string     `json:"title"`
	Author          string     `json:"author"`
	ISBN            *string    `json:"isbn,omitempty"`
	Description     *string    `json:"description,omitempty"`
	TotalCopies     int        `json:"total_copies"`
	AvailableCopies int        `json:"available_copies"`
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	CategoryName    string     `json:"category_name,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// ListResponse pages catalog titles.
type ListResponse struct {
	Items  []BookView `json:"items"`
	Cursor string     `json:"cursor,omitempty"`
}

func viewOf(book models.Book) BookView {
	view := BookView{
		ID:              book.ID,
		Title:           book.Title,
		Author:          book.Author,
		ISBN:            book.ISBN,
		Description:     book.Description,
		TotalCopies:     book.TotalCopies,
		AvailableCopies: book.AvailableCopies,
		CategoryID:      book.CategoryID,
		CreatedAt:       book.CreatedAt,
	}
	if book.Category != nil {
		view.CategoryName = book.Category.Name
	}
	return view
}
