// Package telemetry exposes Prometheus metrics for crawl runs. Long-running
// processes serve them on /metrics; one-shot runs can push them to a
// Pushgateway when they finish.
package telemetry

import (
	"context"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

const namespace = "jobscraper"

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	PagesCrawled  *prometheus.CounterVec
	RowsParsed    prometheus.Counter
	Listings      *prometheus.CounterVec
	Runs          *prometheus.CounterVec
	LastRunOpen   prometheus.Gauge
	RunDuration   prometheus.Histogram
	LastSuccessTS prometheus.Gauge
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		PagesCrawled: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pages_crawled_total",
			Help:      "Listing pages crawled, by outcome (ok, failed).",
		}, []string{"outcome"}),
		RowsParsed: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_parsed_total",
			Help:      "Listing rows extracted from crawled pages, duplicates included.",
		}),
		Listings: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Listings classified by reconciliation (new, open, closed).",
		}, []string{"class"}),
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Finished runs by status.",
		}, []string{"status"}),
		LastRunOpen: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "open_listings",
			Help:      "Open listings observed by the last successful run.",
		}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of a run from crawl start to report.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		}),
		LastSuccessTS: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}
}

func (m *Metrics) ObserveCrawl(pages, failedPages, rows int) {
	if m == nil {
		return
	}
	m.PagesCrawled.WithLabelValues("ok").Add(float64(pages - failedPages))
	m.PagesCrawled.WithLabelValues("failed").Add(float64(failedPages))
	m.RowsParsed.Add(float64(rows))
}

func (m *Metrics) ObserveOutcome(added, open, closed int) {
	if m == nil {
		return
	}
	m.Listings.WithLabelValues("new").Add(float64(added))
	m.Listings.WithLabelValues("open").Add(float64(open))
	m.Listings.WithLabelValues("closed").Add(float64(closed))
	m.LastRunOpen.Set(float64(added + open))
}

func (m *Metrics) ObserveRun(status string, seconds float64, finishedAt int64) {
	if m == nil {
		return
	}
	m.Runs.WithLabelValues(status).Inc()
	m.RunDuration.Observe(seconds)
	if status == "completed" {
		m.LastSuccessTS.Set(float64(finishedAt))
	}
}

// Handler serves the metrics in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Push sends the current metrics to a Pushgateway under the given job name.
func (m *Metrics) Push(ctx context.Context, gatewayURL, job string) error {
	if m == nil || gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, job).Gatherer(m.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
