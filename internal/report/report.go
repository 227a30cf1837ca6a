// Package report exports the classified listings of a run, one destination
// per classification.
package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

const (
	NewJobs      = "new_jobs"
	ExistingJobs = "existing_jobs"
	RemovedJobs  = "removed_jobs"
)

var header = []string{"id", "job_id", "title", "sector", "employer", "country", "closing_date", "summary"}

type Record struct {
	ID          int64
	ListingID   int64
	Title       string
	Sector      string
	Employer    string
	Country     string
	ClosingDate string
	Summary     string
}

func (r Record) row() []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		strconv.FormatInt(r.ListingID, 10),
		r.Title,
		r.Sector,
		r.Employer,
		r.Country,
		r.ClosingDate,
		r.Summary,
	}
}

type Report struct {
	New      []Record
	Existing []Record
	Removed  []Record
}

// Sink receives the classified sets of a run and returns the destinations
// it wrote.
type Sink interface {
	Write(ctx context.Context, r Report) ([]string, error)
}

// FileSink writes one file per non-empty classification into a directory.
type FileSink struct {
	dir    string
	format Format
}

func NewFileSink(dir string, format Format) *FileSink {
	return &FileSink{dir: dir, format: format}
}

func (s *FileSink) Write(ctx context.Context, r Report) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}

	sets := []struct {
		name    string
		records []Record
	}{
		{NewJobs, r.New},
		{ExistingJobs, r.Existing},
		{RemovedJobs, r.Removed},
	}

	paths := make([]string, len(sets))
	var g errgroup.Group
	for i, set := range sets {
		if len(set.records) == 0 {
			continue
		}
		path := filepath.Join(s.dir, set.name+"."+string(s.format))
		g.Go(func() error {
			if err := s.writeFile(path, set.name, set.records); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			paths[i] = path
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var written []string
	for _, p := range paths {
		if p != "" {
			written = append(written, p)
			slog.Info("report written", "path", p)
		}
	}
	return written, nil
}

func (s *FileSink) writeFile(path, sheet string, records []Record) error {
	switch s.format {
	case FormatXLSX:
		return writeXLSX(path, sheet, records)
	case FormatCSV, "":
		f, err := os.Create(path) //nolint:gosec // path from operator config
		if err != nil {
			return err
		}
		if err := WriteCSV(f, records); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	default:
		return fmt.Errorf("unsupported report format %q", s.format)
	}
}

// WriteCSV writes records with a header row.
func WriteCSV(w io.Writer, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		if err := cw.Write(r.row()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeXLSX(path, sheet string, records []Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	for i, r := range records {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []any{r.ID, r.ListingID, r.Title, r.Sector, r.Employer, r.Country, r.ClosingDate, r.Summary}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	return f.SaveAs(path)
}
