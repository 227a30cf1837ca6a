package scraper

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrMalformedPageCount is returned when a page advertises a page count that
// cannot be used. It is fatal for the crawl.
var ErrMalformedPageCount = errors.New("malformed page count")

type ScrapedListing struct {
	ListingID   int64
	Title       string
	Sector      string
	Employer    string
	Country     string
	ClosingDate string
	Summary     string
}

// Parser extracts listings from one origin's markup.
type Parser interface {
	Source() string
	PageCount(markup []byte) (int, error)
	ParsePage(markup []byte) ([]ScrapedListing, error)
}

type Registry struct {
	mu      sync.RWMutex
	parsers map[string]Parser
}

func NewRegistry() *Registry {
	return &Registry{
		parsers: make(map[string]Parser),
	}
}

func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Source()] = p
}

func (r *Registry) Get(source string) (Parser, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.parsers[source]
	if !ok {
		return nil, fmt.Errorf("parser not found for source: %s", source)
	}
	return p, nil
}

func (r *Registry) Sources() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	sources := make([]string, 0, len(r.parsers))
	for src := range r.parsers {
		sources = append(sources, src)
	}
	sort.Strings(sources)
	return sources
}

// FetchError reports a page that could not be retrieved. StatusCode is zero
// for transport failures.
type FetchError struct {
	Page       int
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch page %d (%s): HTTP %d", e.Page, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch page %d (%s): %v", e.Page, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ExtractionError reports a listing row that could not be turned into a
// record. The row is skipped; the rest of the page is still parsed.
type ExtractionError struct {
	Row int
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *ExtractionError) Unwrap() error { return e.Err }
