package server

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/listing"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/run"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/telemetry"
)

type Server struct {
	srv *http.Server
}

// New creates a server. baseCtx is the base context of every request and
// of runs triggered over HTTP; cancelling it stops an in-flight crawl during
// graceful shutdown.
func New(baseCtx context.Context, port string, listingSvc *listing.Service, runSvc *run.Service, metrics *telemetry.Metrics) *Server {
	return &Server{
		srv: &http.Server{
			Addr:    fmt.Sprintf(":%s", port),
			Handler: newMux(baseCtx, listingSvc, runSvc, metrics),
			BaseContext: func(_ net.Listener) context.Context {
				return baseCtx
			},
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
	}
}

func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("shutting down server")
	return s.srv.Shutdown(ctx)
}
