package stats

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mesubash/library-management-system-sub000/pkg/config"
	"github.com/mesubash/library-management-system-sub000/pkg/db"
	"github.com/mesubash/library-management-system-sub000/pkg/db/models"
	"github.com/mesubash/library-management-system-sub000/pkg/enums"
	"github.com/mesubash/library-management-system-sub000/pkg/logger"
)

const testSchema = `
CREATE TABLE users (
    id text PRIMARY KEY,
    name text NOT NULL,
    email text NOT NULL UNIQUE,
    password_hash text NOT NULL,
    role text NOT NULL,
    is_active integer NOT NULL DEFAULT 1,
    last_login_at timestamp,
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

type harness struct {
	svc    *service
	client *db.Client
}

func newHarness(t *testing.T) *harness {
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

	svc, err := NewService(NewRepository(client), decimal.RequireFromString("0.50"), logg)
	if err != nil {
		t.Fatalf("building service: %v", err)
	}
	return &harness{svc: svc.(*service), client: client}
}

func (h *harness) seedBook(t *testing.T, title string, total, available int) uuid.UUID {
	t.Helper()
	book := models.Book{
		ID:              uuid.New(),
		Title:           title,
		Author:          "Anon",
		TotalCopies:     total,
		AvailableCopies: available,
	}
	if err := h.client.DB().Create(&book).Error; err != nil {
		t.Fatalf("seeding book: %v", err)
	}
	return book.ID
}

func (h *harness) seedUser(t *testing.T, name string) uuid.UUID {
	t.Helper()
	user := models.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Role:         enums.UserRoleMember,
		IsActive:     true,
	}
	if err := h.client.DB().Create(&user).Error; err != nil {
		t.Fatalf("seeding user: %v", err)
	}
	return user.ID
}

func (h *harness) seedRecord(t *testing.T, userID, bookID uuid.UUID, status enums.BorrowStatus, due time.Time) uuid.UUID {
	t.Helper()
	record := models.BorrowRecord{
		ID:            uuid.New(),
		UserID:        userID,
		BookID:        bookID,
		Status:        status,
		RequestedDate: time.Now().Add(-24 * time.Hour),
		DueDate:       due,
	}
	if err := h.client.DB().Create(&record).Error; err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	return record.ID
}

func TestDashboardCounts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Reader")
	bookA := h.seedBook(t, "A", 3, 2)
	bookB := h.seedBook(t, "B", 2, 2)

	due := time.Now().AddDate(0, 0, 7)
	h.seedRecord(t, user, bookA, enums.BorrowStatusBorrowed, due)
	h.seedRecord(t, user, bookB, enums.BorrowStatusRequested, due)
	h.seedRecord(t, user, bookB, enums.BorrowStatusReturned, due)

	view, err := h.svc.Dashboard(ctx)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if view.Books != 2 || view.TotalCopies != 5 || view.AvailableCopies != 4 {
		t.Fatalf("unexpected copy counts: %+v", view)
	}
	if view.RecordsByStatus[enums.BorrowStatusBorrowed] != 1 {
		t.Fatalf("expected 1 borrowed, got %d", view.RecordsByStatus[enums.BorrowStatusBorrowed])
	}
	if count, ok := view.RecordsByStatus[enums.BorrowStatusRejected]; !ok || count != 0 {
		t.Fatal("absent statuses must be reported as zero")
	}
}

func TestOverdueListsAccruedFines(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Late Reader")
	book := h.seedBook(t, "Kept Too Long", 1, 0)

	now := time.Now()
	h.svc.now = func() time.Time { return now }

	h.seedRecord(t, user, book, enums.BorrowStatusBorrowed, now.Add(-4*24*time.Hour))
	// On-time loan must not appear.
	h.seedRecord(t, user, h.seedBook(t, "On Time", 1, 0), enums.BorrowStatusBorrowed, now.Add(7*24*time.Hour))

	views, err := h.svc.Overdue(ctx)
	if err != nil {
		t.Fatalf("overdue: %v", err)
	}
	if len(views) != 1 {
		t.Fatalf("expected 1 overdue loan, got %d", len(views))
	}
	item := views[0]
	if item.DaysOverdue != 4 {
		t.Fatalf("expected 4 days overdue, got %d", item.DaysOverdue)
	}
	want := decimal.RequireFromString("2.00")
	if !item.AccruedFine.Equal(want) {
		t.Fatalf("expected fine %s, got %s", want, item.AccruedFine)
	}
	if item.BookTitle != "Kept Too Long" || item.UserName != "Late Reader" {
		t.Fatalf("expected joined names, got %+v", item)
	}
}

func TestMostBorrowedRanking(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user := h.seedUser(t, "Reader")
	popular := h.seedBook(t, "Popular", 3, 3)
	quiet := h.seedBook(t, "Quiet", 1, 1)

	due := time.Now().AddDate(0, 0, 7)
	for i := 0; i < 3; i++ {
		h.seedRecord(t, user, popular, enums.BorrowStatusReturned, due)
	}
	h.seedRecord(t, user, quiet, enums.BorrowStatusReturned, due)

	views, err := h.svc.MostBorrowed(ctx, 5)
	if err != nil {
		t.Fatalf("most borrowed: %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("expected 2 ranked titles, got %d", len(views))
	}
	if views[0].Title != "Popular" || views[0].BorrowCount != 3 {
		t.Fatalf("unexpected top title: %+v", views[0])
	}
}
