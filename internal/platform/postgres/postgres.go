// Package postgres opens a PostgreSQL-backed store through pgx's
// database/sql driver so the sqlx repositories work unchanged.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/001_initial.sql
var migration string

type DB struct {
	*sqlx.DB
}

// Open connects, verifies the connection and provisions the schema.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := sqlx.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}

	if _, err := db.ExecContext(ctx, migration); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &DB{db}, nil
}
