package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
)

// UpsertInput carries a category create or rename.
type UpsertInput struct {
	Name string `json:"name" validate:"required,min=1,max=120"`
}

// CategoryView is the API shape of a category.
type CategoryView struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	BookCount int64     `json:"book_count"`
	CreatedAt time.Time `json:"created_at"`
}

func viewOf(category models.Category, bookCount int64) CategoryView {
	return CategoryView{
		ID:        category.ID,
		Name:      category.Name,
		BookCount: bookCount,
		CreatedAt: category.CreatedAt,
	}
}
