package listing

import (
	"fmt"
	"time"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper"
)

// Listing is one job posting. ID is the store's surrogate key and is zero
// until the listing has been persisted.
type Listing struct {
	ID          int64     `json:"id"`
	ListingID   int64     `json:"listingId"`
	Title       string    `json:"title"`
	Sector      string    `json:"sector"`
	Employer    string    `json:"employer"`
	Country     string    `json:"country"`
	ClosingDate string    `json:"closingDate"`
	Summary     string    `json:"summary"`
	CreatedAt   time.Time `json:"createdAt"`
}

func fromScraped(s scraper.ScrapedListing) Listing {
	return Listing{
		ListingID:   s.ListingID,
		Title:       s.Title,
		Sector:      s.Sector,
		Employer:    s.Employer,
		Country:     s.Country,
		ClosingDate: s.ClosingDate,
		Summary:     s.Summary,
	}
}

// Outcome classifies the listings of one run against the stored snapshot.
// The three sequences are disjoint by ListingID.
type Outcome struct {
	NewlyAdded []Listing `json:"newlyAdded"`
	StillOpen  []Listing `json:"stillOpen"`
	Closed     []Listing `json:"closed"`
}

// StoreError reports a store operation that failed for one listing. The
// listing is skipped and reconciliation carries on.
type StoreError struct {
	Op        string
	ListingID int64
	Err       error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s listing %d: %v", e.Op, e.ListingID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
