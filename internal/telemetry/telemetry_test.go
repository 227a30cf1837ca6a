package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveCrawl(3, 1, 40)
	m.ObserveOutcome(2, 30, 5)
	m.ObserveRun("completed", 12, 1700000000)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PagesCrawled.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PagesCrawled.WithLabelValues("failed")))
	assert.Equal(t, 40.0, testutil.ToFloat64(m.RowsParsed))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.Listings.WithLabelValues("closed")))
	assert.Equal(t, 32.0, testutil.ToFloat64(m.LastRunOpen))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Runs.WithLabelValues("completed")))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(m.LastSuccessTS))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveCrawl(1, 0, 1)
	m.ObserveOutcome(1, 1, 1)
	m.ObserveRun("failed", 1, 0)
	assert.NoError(t, m.Push(context.Background(), "http://unused", "job"))
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveCrawl(1, 0, 4)

	ts := httptest.NewServer(m.Handler())
	defer ts.Close()

	res, err := http.Get(ts.URL)
	require.NoError(t, err)
	defer func() { _ = res.Body.Close() }()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)

	assert.True(t, strings.Contains(string(body), "jobscraper_rows_parsed_total 4"))
}

func TestPush(t *testing.T) {
	var gotPath string
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	m := New()
	m.ObserveRun("completed", 1, 1)
	require.NoError(t, m.Push(context.Background(), gw.URL, "govmu"))
	assert.Equal(t, "/metrics/job/govmu", gotPath)
}
