package govmu

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Axsh234/mauritius-jobs-webscraping/internal/scraper"
)

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func TestParsePage(t *testing.T) {
	listings, err := New().ParsePage(readFixture(t, "page1.html"))
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, scraper.ScrapedListing{
		ListingID:   101,
		Title:       "Engineer",
		Sector:      "Public Infrastructure",
		Employer:    "Ministry of National Infrastructure",
		Country:     "Mauritius",
		ClosingDate: "2026-11-02",
		Summary:     "Plan and supervise civil works.",
	}, listings[0])

	assert.Equal(t, int64(104), listings[1].ListingID)
	assert.Equal(t, "Driver", listings[1].Title)
	assert.Empty(t, listings[1].Summary, "no hidden block for 104")
}

func TestParsePage_SkipsInvalidRows(t *testing.T) {
	listings, err := New().ParsePage(readFixture(t, "page1.html"))
	require.NoError(t, err)

	for _, l := range listings {
		assert.NotEqual(t, int64(103), l.ListingID, "row with fewer than 6 cells")
		assert.NotEqual(t, "No click action", l.Title)
		assert.NotEqual(t, "Broken", l.Title)
	}
}

func TestParsePage_SummaryFromFirstMatchingDetailsTable(t *testing.T) {
	listings, err := New().ParsePage(readFixture(t, "page2.html"))
	require.NoError(t, err)
	require.Len(t, listings, 1)

	assert.Equal(t, int64(102), listings[0].ListingID)
	assert.Equal(t, "File and record correspondence.", listings[0].Summary)
}

func TestParsePage_Empty(t *testing.T) {
	listings, err := New().ParsePage([]byte("<html><body><p>No vacancies</p></body></html>"))
	require.NoError(t, err)
	assert.Empty(t, listings)
}

func TestPageCount(t *testing.T) {
	tests := []struct {
		name    string
		markup  string
		want    int
		wantErr bool
	}{
		{"present", `<input id="pages" value="7">`, 7, false},
		{"padded", `<input id="pages" value=" 3 ">`, 3, false},
		{"absent falls back to one", `<input id="other" value="7">`, 1, false},
		{"not a number", `<input id="pages" value="seven">`, 0, true},
		{"zero", `<input id="pages" value="0">`, 0, true},
		{"no value", `<input id="pages">`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New().PageCount([]byte("<html><body>" + tt.markup + "</body></html>"))
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, scraper.ErrMalformedPageCount))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractSummary(t *testing.T) {
	page := readFixture(t, "page1.html")

	assert.Equal(t, "Plan and supervise civil works.", ExtractSummary(page, 101))
	assert.Equal(t, "", ExtractSummary(page, 104))
	assert.Equal(t, "", ExtractSummary(page, 999))
}

func TestListingID(t *testing.T) {
	id, err := listingID("showJob('4521')")
	require.NoError(t, err)
	assert.Equal(t, int64(4521), id)

	_, err = listingID("showJob()")
	assert.Error(t, err)

	_, err = listingID("showJob('x1')")
	assert.Error(t, err)
}

func TestSource(t *testing.T) {
	assert.Equal(t, "govmu", New().Source())
}
