package main

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/config"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/listing"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/platform/postgres"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/platform/sqlite"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/report"
	listingrepo "github.com/Axsh234/mauritius-jobs-webscraping/internal/repository/listing"
	runrepo "github.com/Axsh234/mauritius-jobs-webscraping/internal/repository/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper/govmu"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/telemetry"
)

// app holds the wired services. Close releases the store.
type app struct {
	db         *sqlx.DB
	metrics    *telemetry.Metrics
	listingSvc *listing.Service
	runSvc     *run.Service
}

func openStore(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	switch cfg.DBDriver {
	case "postgres":
		db, err := postgres.Open(ctx, cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return db.DB, nil
	default:
		db, err := sqlite.Open(cfg.DBDSN)
		if err != nil {
			return nil, err
		}
		return db.DB, nil
	}
}

func newApp(ctx context.Context, cfg config.Config) (*app, error) {
	registry := scraper.NewRegistry()
	registry.Register(govmu.New())

	parser, err := registry.Get(cfg.Source)
	if err != nil {
		return nil, err
	}

	db, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	fetcher := scraper.NewFetcher(
		scraper.WithTimeout(cfg.HTTPTimeout),
		scraper.WithUserAgent(cfg.UserAgent),
	)
	crawler := scraper.NewCrawler(parser,
		scraper.WithFetcher(fetcher),
		scraper.WithDelay(cfg.PoliteDelay),
	)

	metrics := telemetry.New()
	runRepo := runrepo.NewRepository(db)
	listingSvc := listing.NewService(
		listingrepo.NewRepository(db),
		runRepo,
		crawler,
		report.NewFileSink(cfg.ReportDir, report.Format(cfg.ReportFormat)),
		metrics,
	)
	runSvc := run.NewService(runRepo, listingSvc, cfg.Source, cfg.BaseURL)

	return &app{
		db:         db,
		metrics:    metrics,
		listingSvc: listingSvc,
		runSvc:     runSvc,
	}, nil
}

func (a *app) Close() error { return a.db.Close() }
