// Package govmu parses the listing pages of the Mauritius public service job
// portal (mauritiusjobs.govmu.org).
//
// Each listing is a table row carrying an onclick handler of the form
// showJob('<id>') followed, somewhere on the same page, by a hidden row whose
// div#<id> holds a job_details table with the extended fields.
package govmu

import (
	"bytes"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper"
)

const (
	source       = "govmu"
	summaryLabel = "Job Summary"
	minCells     = 6
)

type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Source() string { return source }

// PageCount reads the value of input#pages. A page without that input has a
// single page; an input whose value is not a positive integer is an error.
func (p *Parser) PageCount(markup []byte) (int, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return 0, err
	}

	input := doc.Find("input#pages").First()
	if input.Length() == 0 {
		return 1, nil
	}

	v, ok := input.Attr("value")
	if !ok {
		return 0, fmt.Errorf("%w: input#pages has no value", scraper.ErrMalformedPageCount)
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", scraper.ErrMalformedPageCount, v)
	}
	return n, nil
}

// ParsePage returns the listing rows of one page with their summaries
// resolved from the same page's hidden rows.
func (p *Parser) ParsePage(markup []byte) ([]scraper.ScrapedListing, error) {
	doc, err := newDocument(markup)
	if err != nil {
		return nil, err
	}

	listings := parseRows(doc)
	summaries := indexSummaries(doc)
	for i := range listings {
		listings[i].Summary = summaries[strconv.FormatInt(listings[i].ListingID, 10)]
	}
	return listings, nil
}

// ExtractSummary returns the "Job Summary" text of one listing, or "" when
// the page has no matching hidden block.
func ExtractSummary(markup []byte, listingID int64) string {
	doc, err := newDocument(markup)
	if err != nil {
		return ""
	}
	return indexSummaries(doc)[strconv.FormatInt(listingID, 10)]
}

func newDocument(markup []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

func parseRows(doc *goquery.Document) []scraper.ScrapedListing {
	var listings []scraper.ScrapedListing

	doc.Find("tr[onclick]").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < minCells {
			return
		}

		id, err := listingID(row.AttrOr("onclick", ""))
		if err != nil {
			slog.Error("skipping listing row", "error", &scraper.ExtractionError{Row: i, Err: err})
			return
		}

		listings = append(listings, scraper.ScrapedListing{
			ListingID:   id,
			Title:       cellText(cells, 1),
			Sector:      cellText(cells, 2),
			Employer:    cellText(cells, 3),
			Country:     cellText(cells, 4),
			ClosingDate: cellText(cells, 5),
		})
	})

	return listings
}

// listingID takes the second single-quoted token of an onclick value, so
// showJob('1234') yields 1234.
func listingID(onclick string) (int64, error) {
	parts := strings.Split(onclick, "'")
	if len(parts) < 2 {
		return 0, fmt.Errorf("no quoted id in onclick %q", onclick)
	}
	id, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid listing id %q: %w", parts[1], err)
	}
	return id, nil
}

func cellText(cells *goquery.Selection, i int) string {
	return strings.TrimSpace(cells.Eq(i).Text())
}

// indexSummaries maps listing ids to their summaries in one pass over the
// hidden rows. Only the first div with a given id inside a hidden row is
// considered, and the earliest hidden row with a match wins.
func indexSummaries(doc *goquery.Document) map[string]string {
	idx := make(map[string]string)

	doc.Find("tr.hidden").Each(func(_ int, hidden *goquery.Selection) {
		seen := make(map[string]bool)
		hidden.Find("div[id]").Each(func(_ int, div *goquery.Selection) {
			id := div.AttrOr("id", "")
			if seen[id] {
				return
			}
			seen[id] = true
			if _, done := idx[id]; done {
				return
			}
			if summary, ok := summaryOf(div); ok {
				idx[id] = summary
			}
		})
	})

	return idx
}

func summaryOf(block *goquery.Selection) (string, bool) {
	table := block.Find("table.job_details").First()
	if table.Length() == 0 {
		return "", false
	}

	var summary string
	var found bool
	table.Find("tr").EachWithBreak(func(_ int, tr *goquery.Selection) bool {
		tds := tr.Find("td")
		if tds.Length() >= 2 && strings.TrimSpace(tds.Eq(0).Text()) == summaryLabel {
			summary = strings.TrimSpace(tds.Eq(1).Text())
			found = true
			return false
		}
		return true
	})
	return summary, found
}
