package listing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
	domain "github.com/Axsh234/mauritius-jobs-webscraping/internal/listing"
)

const columns = `id, listing_id, title, sector, employer, country, closing_date, summary, created_at`

type Repository struct {
	db *sqlx.DB
}

// NewRepository works on any sqlx handle whose driver sqlx can rebind for,
// which covers both the sqlite and pgx drivers.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

type row struct {
	ID          int64  `db:"id"`
	ListingID   int64  `db:"listing_id"`
	Title       string `db:"title"`
	Sector      string `db:"sector"`
	Employer    string `db:"employer"`
	Country     string `db:"country"`
	ClosingDate string `db:"closing_date"`
	Summary     string `db:"summary"`
	CreatedAt   string `db:"created_at"`
}

func (r row) toDomain() domain.Listing {
	created, _ := time.Parse(time.RFC3339, r.CreatedAt)
	return domain.Listing{
		ID:          r.ID,
		ListingID:   r.ListingID,
		Title:       r.Title,
		Sector:      r.Sector,
		Employer:    r.Employer,
		Country:     r.Country,
		ClosingDate: r.ClosingDate,
		Summary:     r.Summary,
		CreatedAt:   created,
	}
}

// InsertIfAbsent runs in its own transaction so every stored listing is
// committed before the next one is attempted.
func (r *Repository) InsertIfAbsent(ctx context.Context, l *domain.Listing) (bool, error) {
	query := r.db.Rebind(`INSERT INTO listings
		(listing_id, title, sector, employer, country, closing_date, summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (listing_id) DO NOTHING
		RETURNING id`)

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("insert listing: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Truncate(time.Second)
	var id int64
	err = tx.QueryRowxContext(ctx, query,
		l.ListingID, l.Title, l.Sector, l.Employer, l.Country, l.ClosingDate, l.Summary,
		now.Format(time.RFC3339),
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("insert listing: commit: %w", err)
	}

	l.ID = id
	l.CreatedAt = now
	return true, nil
}

func (r *Repository) GetByListingID(ctx context.Context, listingID int64) (*domain.Listing, error) {
	var rw row
	err := r.db.GetContext(ctx, &rw, r.db.Rebind(`SELECT `+columns+` FROM listings WHERE listing_id = ?`), listingID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.New(apperror.NotFound, "listing not found")
	}
	if err != nil {
		return nil, fmt.Errorf("get listing: %w", err)
	}
	l := rw.toDomain()
	return &l, nil
}

// List returns every stored listing in insertion order.
func (r *Repository) List(ctx context.Context) ([]domain.Listing, error) {
	var rows []row
	if err := r.db.SelectContext(ctx, &rows, `SELECT `+columns+` FROM listings ORDER BY id ASC`); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	listings := make([]domain.Listing, len(rows))
	for i, rw := range rows {
		listings[i] = rw.toDomain()
	}
	return listings, nil
}

func (r *Repository) Delete(ctx context.Context, listingID int64) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM listings WHERE listing_id = ?`), listingID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}
