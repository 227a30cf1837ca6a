package listing

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/report"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/telemetry"
)

// Crawler collects the currently open listings of a site.
type Crawler interface {
	Source() string
	Crawl(ctx context.Context, baseURL string) (*scraper.Result, error)
}

type Service struct {
	repo    Repository
	runRepo run.Repository
	crawler Crawler
	sink    report.Sink
	metrics *telemetry.Metrics
}

func NewService(repo Repository, runRepo run.Repository, crawler Crawler, sink report.Sink, metrics *telemetry.Metrics) *Service {
	return &Service{
		repo:    repo,
		runRepo: runRepo,
		crawler: crawler,
		sink:    sink,
		metrics: metrics,
	}
}

// List returns the stored snapshot.
func (s *Service) List(ctx context.Context, req ListListingsRequest) ([]Listing, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx)
}

// Reconcile classifies the crawled listings against the store and applies
// the difference: unseen listings are inserted, stored listings whose id is
// not in openIDs are deleted. Each store write commits on its own, so an
// interrupted pass leaves a consistent prefix behind.
//
// Store failures for a single listing are logged and the listing skipped.
// An error is returned only if ctx is done or the stored snapshot cannot be
// listed for the closing pass.
func (s *Service) Reconcile(ctx context.Context, openIDs map[int64]struct{}, scraped []scraper.ScrapedListing) (*Outcome, error) {
	return s.reconcile(ctx, slog.Default(), openIDs, scraped)
}

func (s *Service) reconcile(ctx context.Context, log *slog.Logger, openIDs map[int64]struct{}, scraped []scraper.ScrapedListing) (*Outcome, error) {
	out := &Outcome{}

	for _, sl := range scraped {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		l := fromScraped(sl)
		inserted, err := s.repo.InsertIfAbsent(ctx, &l)
		if err != nil {
			log.Error("store error", "error", &StoreError{Op: "insert", ListingID: l.ListingID, Err: err})
			continue
		}
		if inserted {
			log.Info("added new listing", "listing_id", l.ListingID, "title", l.Title)
			out.NewlyAdded = append(out.NewlyAdded, l)
			continue
		}

		existing, err := s.repo.GetByListingID(ctx, l.ListingID)
		if err != nil {
			log.Error("store error", "error", &StoreError{Op: "lookup", ListingID: l.ListingID, Err: err})
			continue
		}
		out.StillOpen = append(out.StillOpen, *existing)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stored, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list stored listings: %w", err)
	}

	for _, l := range stored {
		if _, open := openIDs[l.ListingID]; open {
			continue
		}
		if err := s.repo.Delete(ctx, l.ListingID); err != nil {
			log.Error("store error", "error", &StoreError{Op: "delete", ListingID: l.ListingID, Err: err})
			continue
		}
		log.Info("removed closed listing", "listing_id", l.ListingID, "title", l.Title)
		out.Closed = append(out.Closed, l)
	}

	return out, nil
}

// Process implements run.Processor. It crawls, reconciles, exports the
// report and records the outcome on r.
func (s *Service) Process(ctx context.Context, r *run.Run) error {
	log := slog.With("run_id", r.RunID)
	start := time.Now()

	res, err := s.crawler.Crawl(ctx, r.BaseURL)
	if err != nil {
		return s.failRun(ctx, r, start, fmt.Errorf("crawl: %w", err))
	}
	r.Pages = res.Pages
	r.FailedPages = len(res.FailedPages)
	s.metrics.ObserveCrawl(res.Pages, len(res.FailedPages), res.Rows)
	if len(res.FailedPages) > 0 {
		log.Warn("some pages could not be loaded", "failed_pages", res.FailedPages)
	}

	out, err := s.reconcile(ctx, log, res.OpenIDs, res.Listings)
	if err != nil {
		return s.failRun(ctx, r, start, fmt.Errorf("reconcile: %w", err))
	}
	r.NewCount = len(out.NewlyAdded)
	r.OpenCount = len(out.StillOpen)
	r.ClosedCount = len(out.Closed)
	s.metrics.ObserveOutcome(r.NewCount, r.OpenCount, r.ClosedCount)

	if s.sink != nil {
		if _, err := s.sink.Write(ctx, out.Report()); err != nil {
			return s.failRun(ctx, r, start, fmt.Errorf("write report: %w", err))
		}
	}

	log.Info("reconciliation summary", "new", r.NewCount, "existing", r.OpenCount, "removed", r.ClosedCount)

	r.Status = run.StatusCompleted
	r.UpdatedAt = time.Now().UTC()
	s.metrics.ObserveRun(string(r.Status), time.Since(start).Seconds(), r.UpdatedAt.Unix())
	if err := s.runRepo.Update(ctx, r); err != nil {
		log.Error("failed to record run", "error", err)
	}
	return nil
}

func (s *Service) failRun(ctx context.Context, r *run.Run, start time.Time, err error) error {
	r.Status = run.StatusFailed
	r.Error = err.Error()
	r.UpdatedAt = time.Now().UTC()
	s.metrics.ObserveRun(string(r.Status), time.Since(start).Seconds(), r.UpdatedAt.Unix())

	// The run context may be the reason for the failure.
	if uerr := s.runRepo.Update(context.WithoutCancel(ctx), r); uerr != nil {
		slog.Error("failed to record run", "run_id", r.RunID, "error", uerr)
	}
	return err
}

// Report converts the outcome into the export shape.
func (o *Outcome) Report() report.Report {
	return report.Report{
		New:      toRecords(o.NewlyAdded),
		Existing: toRecords(o.StillOpen),
		Removed:  toRecords(o.Closed),
	}
}

func toRecords(ls []Listing) []report.Record {
	if len(ls) == 0 {
		return nil
	}
	recs := make([]report.Record, len(ls))
	for i, l := range ls {
		recs[i] = report.Record{
			ID:          l.ID,
			ListingID:   l.ListingID,
			Title:       l.Title,
			Sector:      l.Sector,
			Employer:    l.Employer,
			Country:     l.Country,
			ClosingDate: l.ClosingDate,
			Summary:     l.Summary,
		}
	}
	return recs
}
