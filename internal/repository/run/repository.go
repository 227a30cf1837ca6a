package run

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
	domain "github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
)

const columns = `id, run_id, source, base_url, status, error, pages, failed_pages,
	new_count, open_count, closed_count, started_at, updated_at`

type Repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID          int64          `db:"id"`
	RunID       string         `db:"run_id"`
	Source      string         `db:"source"`
	BaseURL     string         `db:"base_url"`
	Status      string         `db:"status"`
	Error       sql.NullString `db:"error"`
	Pages       int            `db:"pages"`
	FailedPages int            `db:"failed_pages"`
	NewCount    int            `db:"new_count"`
	OpenCount   int            `db:"open_count"`
	ClosedCount int            `db:"closed_count"`
	StartedAt   string         `db:"started_at"`
	UpdatedAt   string         `db:"updated_at"`
}

func (r row) toDomain() domain.Run {
	run := domain.Run{
		ID:          r.ID,
		RunID:       r.RunID,
		Source:      r.Source,
		BaseURL:     r.BaseURL,
		Status:      domain.Status(r.Status),
		Pages:       r.Pages,
		FailedPages: r.FailedPages,
		NewCount:    r.NewCount,
		OpenCount:   r.OpenCount,
		ClosedCount: r.ClosedCount,
	}
	if r.Error.Valid {
		run.Error = r.Error.String
	}
	run.StartedAt, _ = time.Parse(time.RFC3339, r.StartedAt)
	run.UpdatedAt, _ = time.Parse(time.RFC3339, r.UpdatedAt)
	return run
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *Repository) Create(ctx context.Context, run *domain.Run) error {
	query := r.db.Rebind(`INSERT INTO runs (run_id, source, base_url, status, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`)

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}
	run.StartedAt = run.StartedAt.Truncate(time.Second)
	run.UpdatedAt = run.StartedAt

	err := r.db.QueryRowxContext(ctx, query,
		run.RunID, run.Source, run.BaseURL, string(run.Status),
		run.StartedAt.Format(time.RFC3339), run.UpdatedAt.Format(time.RFC3339),
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("create run: %w", err)
	}
	return nil
}

func (r *Repository) Update(ctx context.Context, run *domain.Run) error {
	query := r.db.Rebind(`UPDATE runs SET status = ?, error = ?, pages = ?, failed_pages = ?,
		new_count = ?, open_count = ?, closed_count = ?, updated_at = ?
		WHERE id = ?`)

	now := time.Now().UTC().Truncate(time.Second)
	res, err := r.db.ExecContext(ctx, query,
		string(run.Status), nullString(run.Error), run.Pages, run.FailedPages,
		run.NewCount, run.OpenCount, run.ClosedCount, now.Format(time.RFC3339),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperror.New(apperror.NotFound, "run not found")
	}
	run.UpdatedAt = now
	return nil
}

func (r *Repository) Get(ctx context.Context, id int64) (*domain.Run, error) {
	var rw row
	err := r.db.GetContext(ctx, &rw, r.db.Rebind(`SELECT `+columns+` FROM runs WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.NotFound, "run not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	run := rw.toDomain()
	return &run, nil
}

// List returns the 100 most recent runs, optionally filtered.
func (r *Repository) List(ctx context.Context, source string, status domain.Status) ([]domain.Run, error) {
	query := `SELECT ` + columns + ` FROM runs WHERE 1=1`

	var args []any
	if source != "" {
		query += " AND source = ?"
		args = append(args, source)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	query += " ORDER BY id DESC LIMIT 100"

	var rows []row
	if err := r.db.SelectContext(ctx, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	runs := make([]domain.Run, len(rows))
	for i, rw := range rows {
		runs[i] = rw.toDomain()
	}
	return runs, nil
}

// FailStale marks every run still in the running state as failed with the
// given reason and reports how many were changed.
func (r *Repository) FailStale(ctx context.Context, reason string) (int64, error) {
	query := r.db.Rebind(`UPDATE runs SET status = ?, error = ?, updated_at = ?
		WHERE status = ?`)

	res, err := r.db.ExecContext(ctx, query,
		string(domain.StatusFailed), reason, time.Now().UTC().Format(time.RFC3339),
		string(domain.StatusRunning),
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale runs: %w", err)
	}
	return res.RowsAffected()
}
