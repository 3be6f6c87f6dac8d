package catalog

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/errors"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

const testSchema = `
CREATE TABLE categories (
    id text PRIMARY KEY,
    name text NOT NULL UNIQUE,
    created_at timestamp,
    updated_at timestamp
);
CREATE TABLE books (
    id text PRIMARY KEY,
    title text NOT NULL,
    author text NOT NULL,
    isbn text,
    description text,
    total_copies integer NOT NULL,
    available_copies integer NOT NULL,
    category_id text,
    created_at timestamp,
    updated_at timestamp
);
CREATE TABLE borrow_records (
    id text PRIMARY KEY,
    user_id text NOT NULL,
    book_id text NOT NULL,
    status text NOT NULL,
    requested_date timestamp NOT NULL,
    due_date timestamp NOT NULL,
    approved_date timestamp,
    approved_by text,
    borrow_date timestamp,
    return_date timestamp,
    rejection_reason text,
    fine numeric NOT NULL DEFAULT 0,
    created_at timestamp,
    updated_at timestamp
);
`

func newTestService(t *testing.T) (Service, *db.Client) {
	t.Helper()

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	client, err := db.New(context.Background(), config.DBConfig{DSN: dsn, Driver: "sqlite"}, logg)
	if err != nil {
		t.Fatalf("opening sqlite: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	if err := client.DB().Exec(testSchema).Error; err != nil {
		t.Fatalf("creating schema: %v", err)
	}

	svc, err := NewService(client, NewRepository(client), logg)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return svc, client
}

func assertCode(t *testing.T, err error, code errors.Code) {
	t.Helper()
	typed := errors.As(err)
	if typed == nil {
		t.Fatalf("expected coded error %s, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected code %s, got %s", code, typed.Code())
	}
}

func TestCreateSetsAvailabilityToTotal(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{
		Title:       "The Left Hand of Darkness",
		Author:      "Ursula K. Le Guin",
		TotalCopies: 4,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if view.AvailableCopies != 4 || view.TotalCopies != 4 {
		t.Fatalf("new book must start fully available, got %d/%d", view.AvailableCopies, view.TotalCopies)
	}

	_, err = svc.Create(ctx, CreateBookInput{Title: "X", Author: "Y", TotalCopies: 0})
	assertCode(t, err, errors.CodeValidation)

	_, err = svc.Create(ctx, CreateBookInput{Title: " ", Author: "Y", TotalCopies: 1})
	assertCode(t, err, errors.CodeValidation)
}

func TestCreateChecksCategory(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	missing := uuid.New()
	_, err := svc.Create(ctx, CreateBookInput{
		Title: "X", Author: "Y", TotalCopies: 1, CategoryID: &missing,
	})
	assertCode(t, err, errors.CodeNotFound)

	category := models.Category{ID: uuid.New(), Name: "Novels"}
	if err := client.DB().Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}
	view, err := svc.Create(ctx, CreateBookInput{
		Title: "X", Author: "Y", TotalCopies: 1, CategoryID: &category.ID,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Get(ctx, view.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.CategoryName != "Novels" {
		t.Fatalf("expected category preloaded, got %q", got.CategoryName)
	}
}

func TestUpdateMetadata(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{Title: "Drafty Title", Author: "Anon", TotalCopies: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	title := "Final Title"
	updated, err := svc.Update(ctx, view.ID, UpdateBookInput{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Final Title" {
		t.Fatalf("expected title update, got %q", updated.Title)
	}
	if updated.TotalCopies != 2 || updated.AvailableCopies != 2 {
		t.Fatal("metadata update must not touch copy counts")
	}

	_, err = svc.Update(ctx, view.ID, UpdateBookInput{})
	assertCode(t, err, errors.CodeValidation)

	_, err = svc.Update(ctx, uuid.New(), UpdateBookInput{Title: &title})
	assertCode(t, err, errors.CodeNotFound)
}

func TestUpdateTotalCopiesShiftsAvailability(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{Title: "Popular", Author: "Anon", TotalCopies: 3})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Two copies out on loan: 3 total, 1 available.
	if err := client.DB().Model(&models.Book{}).Where("id = ?", view.ID).
		Update("available_copies", 1).Error; err != nil {
		t.Fatalf("seeding availability: %v", err)
	}

	updated, err := svc.UpdateTotalCopies(ctx, view.ID, 5)
	if err != nil {
		t.Fatalf("update total: %v", err)
	}
	if updated.TotalCopies != 5 || updated.AvailableCopies != 3 {
		t.Fatalf("expected 5 total / 3 available, got %d/%d", updated.TotalCopies, updated.AvailableCopies)
	}
}

func TestUpdateTotalCopiesClampsAtZero(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{Title: "Shrinking", Author: "Anon", TotalCopies: 5})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Four copies out: 5 total, 1 available. Shrinking to 2 would push
	// availability to -2; it must clamp at 0.
	if err := client.DB().Model(&models.Book{}).Where("id = ?", view.ID).
		Update("available_copies", 1).Error; err != nil {
		t.Fatalf("seeding availability: %v", err)
	}

	updated, err := svc.UpdateTotalCopies(ctx, view.ID, 2)
	if err != nil {
		t.Fatalf("update total: %v", err)
	}
	if updated.TotalCopies != 2 || updated.AvailableCopies != 0 {
		t.Fatalf("expected 2 total / 0 available, got %d/%d", updated.TotalCopies, updated.AvailableCopies)
	}

	_, err = svc.UpdateTotalCopies(ctx, view.ID, 0)
	assertCode(t, err, errors.CodeValidation)
}

func TestDeleteRejectedWithActiveBorrows(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{Title: "Held", Author: "Anon", TotalCopies: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	record := models.BorrowRecord{
		ID:            uuid.New(),
		UserID:        uuid.New(),
		BookID:        view.ID,
		Status:        enums.BorrowStatusBorrowed,
		RequestedDate: time.Now(),
		DueDate:       time.Now().AddDate(0, 0, 14),
	}
	if err := client.DB().Create(&record).Error; err != nil {
		t.Fatalf("seeding record: %v", err)
	}

	err = svc.Delete(ctx, view.ID)
	assertCode(t, err, errors.CodeConflict)

	// Once the record is terminal, the delete goes through.
	if err := client.DB().Model(&models.BorrowRecord{}).Where("id = ?", record.ID).
		Update("status", enums.BorrowStatusReturned).Error; err != nil {
		t.Fatalf("closing record: %v", err)
	}
	if err := svc.Delete(ctx, view.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	err = svc.Delete(ctx, view.ID)
	assertCode(t, err, errors.CodeNotFound)
}

func TestDeletePurgesTerminalHistory(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	view, err := svc.Create(ctx, CreateBookInput{Title: "Retired", Author: "Anon", TotalCopies: 2})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, status := range []enums.BorrowStatus{enums.BorrowStatusReturned, enums.BorrowStatusRejected} {
		record := models.BorrowRecord{
			ID:            uuid.New(),
			UserID:        uuid.New(),
			BookID:        view.ID,
			Status:        status,
			RequestedDate: time.Now().AddDate(0, 0, -30),
			DueDate:       time.Now().AddDate(0, 0, -16),
		}
		if err := client.DB().Create(&record).Error; err != nil {
			t.Fatalf("seeding %s record: %v", status, err)
		}
	}

	if err := svc.Delete(ctx, view.ID); err != nil {
		t.Fatalf("delete with terminal history: %v", err)
	}

	var remaining int64
	if err := client.DB().Model(&models.BorrowRecord{}).
		Where("book_id = ?", view.ID).Count(&remaining).Error; err != nil {
		t.Fatalf("counting records: %v", err)
	}
	if remaining != 0 {
		t.Fatalf("expected history purged with the book, %d records remain", remaining)
	}
}

func TestListFiltersAndPaginates(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	category := models.Category{ID: uuid.New(), Name: "Sci-Fi"}
	if err := client.DB().Create(&category).Error; err != nil {
		t.Fatalf("seeding category: %v", err)
	}

	titles := []string{"Dune", "Dune Messiah", "Foundation"}
	for _, title := range titles {
		input := CreateBookInput{Title: title, Author: "Various", TotalCopies: 1, CategoryID: &category.ID}
		if _, err := svc.Create(ctx, input); err != nil {
			t.Fatalf("create %q: %v", title, err)
		}
	}
	if _, err := svc.Create(ctx, CreateBookInput{Title: "Uncategorized", Author: "Anon", TotalCopies: 1}); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err := svc.List(ctx, ListParams{Search: "Dune"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 matches for Dune, got %d", len(resp.Items))
	}

	resp, err = svc.List(ctx, ListParams{CategoryID: &category.ID})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 3 {
		t.Fatalf("expected 3 categorized books, got %d", len(resp.Items))
	}

	// Page through with limit 2.
	first, err := svc.List(ctx, ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Items) != 2 || first.Cursor == "" {
		t.Fatalf("expected full first page with cursor, got %d items", len(first.Items))
	}
	second, err := svc.List(ctx, ListParams{Limit: 2, Cursor: first.Cursor})
	if err != nil {
		t.Fatalf("second page: %v", err)
	}
	if len(second.Items) != 2 {
		t.Fatalf("expected 2 items on second page, got %d", len(second.Items))
	}
	seen := map[uuid.UUID]bool{}
	for _, item := range append(first.Items, second.Items...) {
		if seen[item.ID] {
			t.Fatalf("item %s appeared on both pages", item.ID)
		}
		seen[item.ID] = true
	}
}

func TestAvailableOnlyFilter(t *testing.T) {
	svc, client := newTestService(t)
	ctx := context.Background()

	available, err := svc.Create(ctx, CreateBookInput{Title: "In Stock", Author: "Anon", TotalCopies: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	out, err := svc.Create(ctx, CreateBookInput{Title: "All Out", Author: "Anon", TotalCopies: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := client.DB().Model(&models.Book{}).Where("id = ?", out.ID).
		Update("available_copies", 0).Error; err != nil {
		t.Fatalf("seeding: %v", err)
	}

	resp, err := svc.List(ctx, ListParams{AvailableOnly: true})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(resp.Items) != 1 || resp.Items[0].ID != available.ID {
		t.Fatalf("expected only the in-stock title, got %d items", len(resp.Items))
	}
}
