package store

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/ian939/jobtrack/internal/model"
)

// ExportNewListings writes the run's newly discovered listings to a per-day
// file named new_jobs_{date}.csv under dir, in the active-store schema, and
// returns the written path. Nothing is written when the slice is empty. A
// second run on the same day overwrites the file with that run's findings.
func ExportNewListings(dir string, day time.Time, listings []model.Listing) (string, error) {
	if len(listings) == 0 {
		return "", nil
	}
	path := filepath.Join(dir, fmt.Sprintf("new_jobs_%s.csv", day.Format(model.DateLayout)))
	if err := writeCSV(path, activeColumns, listingRows(listings, false)); err != nil {
		return "", fmt.Errorf("export new listings: %w", err)
	}
	return path, nil
}
