package server

import (
	"context"
	"net/http"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/listing"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/telemetry"
)

// NewHandler creates the full HTTP handler with routes and middleware.
// Runs triggered through the API are bound to runCtx.
func NewHandler(runCtx context.Context, listingSvc *listing.Service, runSvc *run.Service, metrics *telemetry.Metrics) http.Handler {
	return newMux(runCtx, listingSvc, runSvc, metrics)
}

func newMux(runCtx context.Context, listingSvc *listing.Service, runSvc *run.Service, metrics *telemetry.Metrics) http.Handler {
	h := &handler{
		runCtx:     runCtx,
		listingSvc: listingSvc,
		runSvc:     runSvc,
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	mux.HandleFunc("GET /api/v1/listings", h.listListings)
	mux.HandleFunc("GET /api/v1/runs", h.listRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.getRun)
	mux.HandleFunc("POST /api/v1/runs", h.triggerRun)
	mux.Handle("GET /metrics", metrics.Handler())

	// Apply middleware stack: recovery -> requestID -> logging
	var handler http.Handler = mux
	handler = logging(handler)
	handler = requestID(handler)
	handler = recovery(handler)

	return handler
}
