package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"wedding-rsvp/internal/models"
)

// WriteCSV writes records with the persisted header row
func WriteCSV(w io.Writer, records []models.Response) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(models.Columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ExportFileName names an export, e.g. wedding_rsvps_attending_20260601.csv
func ExportFileName(kind string, now time.Time) string {
	return fmt.Sprintf("wedding_rsvps_%s_%s.csv", kind, now.Format("20060102"))
}
