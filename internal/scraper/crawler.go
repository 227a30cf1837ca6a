package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// PageFetcher retrieves the raw markup of one page.
type PageFetcher interface {
	Fetch(ctx context.Context, page int, pageURL string) ([]byte, error)
}

// Result is the listing set observed by one crawl. Listings keeps crawl
// order; when an id shows up more than once the first record seen is kept.
type Result struct {
	OpenIDs     map[int64]struct{}
	Listings    []ScrapedListing
	Pages       int
	FailedPages []int
	Rows        int
}

func newResult(pages int) *Result {
	return &Result{
		OpenIDs: make(map[int64]struct{}),
		Pages:   pages,
	}
}

// Has reports whether id was seen as open during the crawl.
func (r *Result) Has(id int64) bool {
	_, ok := r.OpenIDs[id]
	return ok
}

func (r *Result) add(l ScrapedListing) bool {
	r.Rows++
	if r.Has(l.ListingID) {
		return false
	}
	r.OpenIDs[l.ListingID] = struct{}{}
	r.Listings = append(r.Listings, l)
	return true
}

func (r *Result) find(id int64) (ScrapedListing, bool) {
	for _, l := range r.Listings {
		if l.ListingID == id {
			return l, true
		}
	}
	return ScrapedListing{}, false
}

// Crawler walks every page of a listing site one page at a time.
type Crawler struct {
	fetcher PageFetcher
	parser  Parser
	limiter *rate.Limiter
}

func NewCrawler(parser Parser, opts ...Option) *Crawler {
	c := &Crawler{
		fetcher: NewFetcher(),
		parser:  parser,
		limiter: newLimiter(time.Second),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type Option func(*Crawler)

func WithFetcher(f PageFetcher) Option {
	return func(c *Crawler) { c.fetcher = f }
}

// WithDelay sets the pause between page fetches. Zero disables it.
func WithDelay(d time.Duration) Option {
	return func(c *Crawler) { c.limiter = newLimiter(d) }
}

func newLimiter(d time.Duration) *rate.Limiter {
	if d <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(d), 1)
}

func (c *Crawler) Source() string { return c.parser.Source() }

// Crawl discovers the page count from baseURL and collects the listings of
// every page. A page that cannot be fetched or parsed is logged and skipped.
// The crawl fails only when the page count cannot be established or ctx is
// cancelled; a partial listing set is never returned in those cases.
func (c *Crawler) Crawl(ctx context.Context, baseURL string) (*Result, error) {
	first, err := c.fetch(ctx, 1, baseURL)
	if err != nil {
		return nil, fmt.Errorf("discover page count: %w", err)
	}

	total, err := c.parser.PageCount(first)
	if err != nil {
		return nil, fmt.Errorf("discover page count: %w", err)
	}
	slog.Info("total pages found", "source", c.parser.Source(), "pages", total)

	urls, err := PageURLs(baseURL, total)
	if err != nil {
		return nil, err
	}

	res := newResult(total)
	for i, pageURL := range urls {
		page := i + 1
		slog.Info("processing page", "page", page, "url", pageURL)

		markup := first
		if page > 1 {
			markup, err = c.fetch(ctx, page, pageURL)
			if err != nil {
				var fe *FetchError
				if !errors.As(err, &fe) || ctx.Err() != nil {
					return nil, err
				}
				slog.Warn("failed to load page", "page", page, "url", pageURL, "error", err)
				res.FailedPages = append(res.FailedPages, page)
				continue
			}
		}

		listings, err := c.parser.ParsePage(markup)
		if err != nil {
			slog.Warn("failed to parse page", "page", page, "url", pageURL, "error", err)
			res.FailedPages = append(res.FailedPages, page)
			continue
		}
		slog.Info("found jobs on page", "page", page, "count", len(listings))

		for _, l := range listings {
			if !res.add(l) {
				if prev, _ := res.find(l.ListingID); prev != l {
					slog.Warn("duplicate listing with different fields, keeping first seen",
						"listing_id", l.ListingID, "page", page)
				}
			}
		}
	}

	return res, nil
}

func (c *Crawler) fetch(ctx context.Context, page int, pageURL string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("wait before page %d: %w", page, err)
	}
	body, err := c.fetcher.Fetch(ctx, page, pageURL)
	if err != nil {
		var fe *FetchError
		if !errors.As(err, &fe) {
			err = &FetchError{Page: page, URL: pageURL, Err: err}
		}
		return nil, err
	}
	return body, nil
}
