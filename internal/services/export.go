package services

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"clinic-booking-server/internal/models"
)

var exportHeader = []string{"Patient Name", "Phone", "Date", "Time", "Status", "Description"}

// ExportFilename names the CSV download for the given day.
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("appointments_%s.csv", now.Format(models.DateLayout))
}

// ExportCSV writes the filtered list as CSV. The description column is
// always quoted; other columns are quoted only when they need it.
func (d *Dashboard) ExportCSV(ctx context.Context, f Filter, w io.Writer) error {
	appts, err := d.List(ctx, f)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(strings.Join(exportHeader, ",") + "\n")
	for _, a := range appts {
		row := []string{
			csvField(a.Patient.Name),
			csvField(a.Patient.Phone),
			csvField(a.Date),
			csvField(a.TimeSlot),
			csvField(string(a.Status)),
			quote(a.ProblemDescription),
		}
		bw.WriteString(strings.Join(row, ",") + "\n")
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("dashboard: write export: %w", err)
	}
	return nil
}

func csvField(s string) string {
	if strings.ContainsAny(s, ",\"\r\n") {
		return quote(s)
	}
	return s
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
