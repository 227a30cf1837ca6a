package listing

import (
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/apperror"
	"github.com/Axsh234/mauritius-jobs-webscraping/internal/report"
)

type ListListingsRequest struct {
	Format string // "json" or "csv"
}

func (r ListListingsRequest) Validate() *apperror.AppError {
	if r.Format != "" && r.Format != "json" && r.Format != "csv" {
		return apperror.New(apperror.BadRequest, "format must be json or csv")
	}
	return nil
}

// Records converts listings to the export shape used by CSV responses.
func Records(ls []Listing) []report.Record { return toRecords(ls) }
