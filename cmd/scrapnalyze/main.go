package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/config"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/platform/logging"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/server"
)

func main() {
	os.Exit(realMain())
}

func realMain() int {
	cfg := config.Load()

	closeLog, err := logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.LogFile)
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = closeLog() }()

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		return 1
	}

	// Root context: cancelled on SIGINT/SIGTERM so an in-flight crawl stops
	// at the next page or record.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(rootCtx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		return 1
	}
	defer func() { _ = a.Close() }()

	// Runs cannot be resumed; mark the ones a previous process left behind.
	if err := a.runSvc.FailStaleRuns(rootCtx); err != nil {
		slog.Error("failed to mark interrupted runs", "error", err)
	}

	if cfg.Schedule == "" {
		return runOnce(rootCtx, a, cfg)
	}
	return serve(rootCtx, a, cfg)
}

// runOnce performs a single crawl-and-reconcile pass.
func runOnce(ctx context.Context, a *app, cfg config.Config) int {
	r, err := a.runSvc.Execute(ctx)

	// Metrics of a failed run are worth pushing too.
	if perr := a.metrics.Push(context.WithoutCancel(ctx), cfg.PushgatewayURL, "scrapnalyze"); perr != nil {
		slog.Warn("failed to push metrics", "error", perr)
	}

	if err != nil {
		return 1
	}
	slog.Info("done", "run_id", r.RunID, "new", r.NewCount, "existing", r.OpenCount, "removed", r.ClosedCount)
	return 0
}

// serve runs the scheduler and the HTTP API until the process is signalled.
func serve(ctx context.Context, a *app, cfg config.Config) int {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched, err := run.NewScheduler(a.runSvc, cfg.Schedule)
	if err != nil {
		slog.Error("invalid schedule", "error", err)
		return 1
	}
	if err := sched.Start(ctx); err != nil {
		slog.Error("failed to start scheduler", "error", err)
		return 1
	}

	srv := server.New(ctx, cfg.Port, a.listingSvc, a.runSvc, a.metrics)

	srvErr := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
	}()

	code := 0
	select {
	case <-ctx.Done():
	case err := <-srvErr:
		slog.Error("server error", "error", err)
		code = 1
	}
	cancel()

	// Wait for the scheduled and API-triggered runs to wind down before the
	// store is closed.
	sched.Stop()
	a.runSvc.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
	slog.Info("server stopped")
	return code
}
