package run

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
	domain "github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/platform/sqlite"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRun(id string, status domain.Status) *domain.Run {
	return &domain.Run{
		RunID:   id,
		Source:  "govmu",
		BaseURL: "https://mauritiusjobs.govmu.org/",
		Status:  status,
	}
}

func TestCreate_And_Get(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	r := newRun("run-1", domain.StatusRunning)
	if err := repo.Create(ctx, r); err != nil {
		t.Fatalf("create: %v", err)
	}
	if r.ID == 0 {
		t.Fatal("expected non-zero ID")
	}
	if r.StartedAt.IsZero() {
		t.Fatal("expected StartedAt to be set")
	}

	got, err := repo.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.RunID != "run-1" {
		t.Errorf("expected run-1, got %s", got.RunID)
	}
	if got.Status != domain.StatusRunning {
		t.Errorf("expected running, got %s", got.Status)
	}
	if !got.StartedAt.Equal(r.StartedAt) {
		t.Errorf("expected started_at %v, got %v", r.StartedAt, got.StartedAt)
	}
	if got.Error != "" {
		t.Errorf("expected no error, got %q", got.Error)
	}
}

func TestCreate_DuplicateRunID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	if err := repo.Create(ctx, newRun("run-1", domain.StatusRunning)); err != nil {
		t.Fatal(err)
	}
	if err := repo.Create(ctx, newRun("run-1", domain.StatusRunning)); err == nil {
		t.Fatal("expected unique constraint error")
	}
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	_, err := repo.Get(context.Background(), 42)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code() != apperror.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUpdate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	r := newRun("run-1", domain.StatusRunning)
	if err := repo.Create(ctx, r); err != nil {
		t.Fatal(err)
	}

	r.Status = domain.StatusCompleted
	r.Pages = 3
	r.FailedPages = 1
	r.NewCount = 4
	r.OpenCount = 10
	r.ClosedCount = 2
	if err := repo.Update(ctx, r); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := repo.Get(ctx, r.ID)
	if got.Status != domain.StatusCompleted {
		t.Errorf("expected completed, got %s", got.Status)
	}
	if got.Pages != 3 || got.FailedPages != 1 {
		t.Errorf("expected 3 pages with 1 failed, got %d/%d", got.Pages, got.FailedPages)
	}
	if got.NewCount != 4 || got.OpenCount != 10 || got.ClosedCount != 2 {
		t.Errorf("unexpected counts %d/%d/%d", got.NewCount, got.OpenCount, got.ClosedCount)
	}
}

func TestUpdate_Missing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)

	r := newRun("ghost", domain.StatusFailed)
	r.ID = 99
	err := repo.Update(context.Background(), r)
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code() != apperror.NotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	for i, st := range []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusCompleted} {
		r := newRun(string(rune('a'+i)), st)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	runs, err := repo.List(ctx, "govmu", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3, got %d", len(runs))
	}
	if runs[0].RunID != "c" {
		t.Errorf("expected newest first, got %s", runs[0].RunID)
	}

	runs, err = repo.List(ctx, "", domain.StatusCompleted)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 completed, got %d", len(runs))
	}

	runs, err = repo.List(ctx, "other", "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0, got %d", len(runs))
	}
}

func TestFailStale(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRepository(db.DB)
	ctx := context.Background()

	running := newRun("running", domain.StatusRunning)
	running.StartedAt = time.Now().Add(-time.Hour)
	for _, r := range []*domain.Run{running, newRun("done", domain.StatusCompleted)} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	n, err := repo.FailStale(ctx, "interrupted")
	if err != nil {
		t.Fatalf("fail stale: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 run failed, got %d", n)
	}

	got, err := repo.Get(ctx, running.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.StatusFailed {
		t.Errorf("expected failed, got %s", got.Status)
	}
	if got.Error != "interrupted" {
		t.Errorf("expected reason to be recorded, got %q", got.Error)
	}

	n, err = repo.FailStale(ctx, "interrupted")
	if err != nil {
		t.Fatalf("fail stale again: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
}

func TestFailStale_Error(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = mockDB.Close() }()

	mock.ExpectExec("UPDATE runs SET status").
		WillReturnError(errors.New("database is locked"))

	repo := NewRepository(sqlx.NewDb(mockDB, "sqlite"))
	if _, err := repo.FailStale(context.Background(), "interrupted"); err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
