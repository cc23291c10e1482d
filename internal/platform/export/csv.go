// Package export renders care data into downloadable CSV and PDF documents.
// It takes flat row types so domain packages map their models in without a
// dependency cycle.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"
)

// DoseRow is one medication dose log entry in an export.
type DoseRow struct {
	Time       time.Time
	Medication string
	Dosage     string
	Status     string // taken, missed, skipped
	LoggedBy   string
	Notes      string
}

// AlertRow is one alert in an export.
type AlertRow struct {
	RaisedAt   time.Time
	Severity   string
	Category   string
	Message    string
	Status     string
	ResolvedAt *time.Time
}

// MealRow is one diet log entry in an export.
type MealRow struct {
	Time        time.Time
	MealType    string
	Description string
	Violations  []string
}

// WriteDoseCSV writes dose rows as CSV with a header line.
func WriteDoseCSV(w io.Writer, rows []DoseRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "medication", "dosage", "status", "logged_by", "notes"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			r.Time.UTC().Format(time.RFC3339),
			r.Medication,
			r.Dosage,
			r.Status,
			r.LoggedBy,
			r.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAlertCSV writes alert rows as CSV with a header line.
func WriteAlertCSV(w io.Writer, rows []AlertRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"raised_at", "severity", "category", "message", "status", "resolved_at"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range rows {
		resolved := ""
		if r.ResolvedAt != nil {
			resolved = r.ResolvedAt.UTC().Format(time.RFC3339)
		}
		record := []string{
			r.RaisedAt.UTC().Format(time.RFC3339),
			r.Severity,
			r.Category,
			r.Message,
			r.Status,
			resolved,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
