package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultUserAgent = "Mozilla/5.0"
	defaultTimeout   = 30 * time.Second
	maxBodyBytes     = 16 << 20
)

// Fetcher issues GET requests through one long-lived client with fixed
// default headers.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

func NewFetcher(opts ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    &http.Client{Timeout: defaultTimeout},
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

type FetcherOption func(*Fetcher)

func WithClient(c *http.Client) FetcherOption {
	return func(f *Fetcher) { f.client = c }
}

func WithUserAgent(ua string) FetcherOption {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithTimeout sets the timeout of the fetcher's client. Apply it after
// WithClient when both are used.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *Fetcher) { f.client.Timeout = d }
}

// Fetch returns the body of pageURL. Every failure is a *FetchError.
func (f *Fetcher) Fetch(ctx context.Context, page int, pageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	res, err := f.client.Do(req) //nolint:gosec // URL built from operator config
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: err}
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, maxBodyBytes))
		return nil, &FetchError{
			Page:       page,
			URL:        pageURL,
			StatusCode: res.StatusCode,
			Err:        fmt.Errorf("unexpected status %s", res.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{Page: page, URL: pageURL, Err: fmt.Errorf("read body: %w", err)}
	}
	return body, nil
}
