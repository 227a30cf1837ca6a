package run

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
)

// Scheduler triggers runs on a cron schedule. A tick that arrives while a
// run is still in progress is skipped.
type Scheduler struct {
	cron *cron.Cron
	svc  *Service
	spec string
	wg   sync.WaitGroup
}

// NewScheduler accepts standard five-field cron specs as well as
// descriptors such as "@every 6h" or "@daily".
func NewScheduler(svc *Service, spec string) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", spec, err)
	}
	return &Scheduler{
		cron: cron.New(),
		svc:  svc,
		spec: spec,
	}, nil
}

// Start registers the run and starts the scheduler. One run is also started
// immediately so the store is fresh without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.spec, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("register schedule: %w", err)
	}
	s.cron.Start()
	slog.Info("scheduler started", "schedule", s.spec)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick(ctx)
	}()
	return nil
}

// Stop stops the scheduler and blocks until the run in flight, if any, has
// returned. Cancel the context given to Start first to cut that run short.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.wg.Wait()
	slog.Info("scheduler stopped")
}

func (s *Scheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.svc.Execute(ctx); err != nil {
		if apperror.Is(err, apperror.Conflict) {
			slog.Warn("skipping scheduled run", "reason", err)
		}
	}
}
