package run

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
)

// Processor executes a started run and records its outcome on r.
type Processor interface {
	Process(ctx context.Context, r *Run) error
}

// Service starts runs one at a time and exposes run history.
type Service struct {
	repo      Repository
	processor Processor
	source    string
	baseURL   string
	busy      atomic.Bool
	launched  sync.WaitGroup
}

func NewService(repo Repository, processor Processor, source, baseURL string) *Service {
	return &Service{
		repo:      repo,
		processor: processor,
		source:    source,
		baseURL:   baseURL,
	}
}

// FailStaleRuns marks runs left in the running state by a previous process
// as failed. Runs cannot be resumed; the next run crawls from page 1.
func (s *Service) FailStaleRuns(ctx context.Context) error {
	n, err := s.repo.FailStale(ctx, "interrupted before completion")
	if err != nil {
		return err
	}
	if n > 0 {
		slog.Warn("marked interrupted runs as failed", "count", n)
	}
	return nil
}

// Execute starts a run and blocks until it has been processed. The returned
// error is the processing error, if any; the run is returned either way once
// it was created.
func (s *Service) Execute(ctx context.Context) (*Run, error) {
	r, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.busy.Store(false)

	err = s.process(ctx, r)
	return r, err
}

// Launch starts a run in the background and returns a snapshot of it as
// created.
func (s *Service) Launch(ctx context.Context) (*Run, error) {
	r, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	snapshot := *r

	s.launched.Add(1)
	go func() {
		defer s.launched.Done()
		defer s.busy.Store(false)
		_ = s.process(ctx, r)
	}()

	return &snapshot, nil
}

// Wait blocks until every run started by Launch has returned.
func (s *Service) Wait() { s.launched.Wait() }

func (s *Service) begin(ctx context.Context) (*Run, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, apperror.New(apperror.Conflict, "a run is already in progress")
	}

	now := time.Now().UTC()
	r := &Run{
		RunID:     uuid.NewString(),
		Source:    s.source,
		BaseURL:   s.baseURL,
		Status:    StatusRunning,
		StartedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, r); err != nil {
		s.busy.Store(false)
		return nil, apperror.Wrap(apperror.Internal, "could not record run", err)
	}
	return r, nil
}

func (s *Service) process(ctx context.Context, r *Run) error {
	slog.Info("run started", "run_id", r.RunID, "source", r.Source, "url", r.BaseURL)

	if err := s.processor.Process(ctx, r); err != nil {
		slog.Error("run failed", "run_id", r.RunID, "error", err)
		return err
	}

	slog.Info("run finished", "run_id", r.RunID, "status", r.Status)
	return nil
}

// Running reports whether a run is in progress.
func (s *Service) Running() bool { return s.busy.Load() }

func (s *Service) Get(ctx context.Context, req GetRunRequest) (*Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, req.ID)
}

func (s *Service) List(ctx context.Context, req ListRunsRequest) ([]Run, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, req.Source, req.Status)
}
