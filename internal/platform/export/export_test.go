package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"
)

func TestWriteDoseCSV(t *testing.T) {
	var buf bytes.Buffer
	rows := []DoseRow{
		{
			Time:       time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
			Medication: "Lisinopril",
			Dosage:     "10mg",
			Status:     "taken",
			LoggedBy:   "maria",
		},
		{
			Time:       time.Date(2025, 3, 10, 20, 0, 0, 0, time.UTC),
			Medication: "Metformin",
			Dosage:     "500mg",
			Status:     "missed",
			Notes:      "asleep, will retry",
		},
	}
	if err := WriteDoseCSV(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv output: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(records))
	}
	if records[0][0] != "time" || records[0][1] != "medication" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][1] != "Lisinopril" || records[1][3] != "taken" {
		t.Errorf("unexpected row: %v", records[1])
	}
	if records[2][5] != "asleep, will retry" {
		t.Errorf("expected notes preserved, got %v", records[2])
	}
}

func TestWriteAlertCSV_ResolvedAt(t *testing.T) {
	resolved := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	var buf bytes.Buffer
	rows := []AlertRow{
		{RaisedAt: time.Date(2025, 3, 11, 8, 0, 0, 0, time.UTC), Severity: "critical", Category: "fall", Message: "Fall detected", Status: "resolved", ResolvedAt: &resolved},
		{RaisedAt: time.Date(2025, 3, 11, 12, 0, 0, 0, time.UTC), Severity: "info", Category: "dose", Message: "Dose missed", Status: "open"},
	}
	if err := WriteAlertCSV(&buf, rows); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv output: %v", err)
	}
	if records[1][5] == "" {
		t.Error("expected resolved_at for resolved alert")
	}
	if records[2][5] != "" {
		t.Error("expected empty resolved_at for open alert")
	}
}

func TestWriteWeeklyPDF(t *testing.T) {
	var buf bytes.Buffer
	report := WeeklyReport{
		ElderName:     "Rosa Alvarez",
		WeekStart:     time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		WeekEnd:       time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC),
		AdherenceRate: 0.9,
		DosesTaken:    18,
		DosesMissed:   2,
		MealsLogged:   20,
		AlertsRaised:  1,
		Narrative:     "A good week overall.",
		Doses: []DoseRow{
			{Time: time.Date(2025, 3, 3, 8, 0, 0, 0, time.UTC), Medication: "Lisinopril", Dosage: "10mg", Status: "taken"},
		},
		Alerts: []AlertRow{
			{RaisedAt: time.Date(2025, 3, 4, 14, 0, 0, 0, time.UTC), Severity: "warning", Message: "Blood pressure reading elevated above configured range"},
		},
	}
	if err := WriteWeeklyPDF(&buf, report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "%PDF") {
		t.Errorf("output does not look like a PDF, starts with %q", buf.String()[:8])
	}
}
