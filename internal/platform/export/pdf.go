package export

import (
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
)

// WeeklyReport holds everything the weekly PDF renders.
type WeeklyReport struct {
	ElderName      string
	WeekStart      time.Time
	WeekEnd        time.Time
	AdherenceRate  float64
	DosesTaken     int
	DosesMissed    int
	MealsLogged    int
	DietViolations int
	AlertsRaised   int
	AlertsCritical int
	Narrative      string
	Doses          []DoseRow
	Alerts         []AlertRow
}

// WriteWeeklyPDF renders the weekly report as a PDF document.
func WriteWeeklyPDF(w io.Writer, report WeeklyReport) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Weekly Care Summary", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "Weekly Care Summary")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 8, fmt.Sprintf("%s  |  %s - %s",
		report.ElderName,
		report.WeekStart.Format("Jan 2, 2006"),
		report.WeekEnd.Format("Jan 2, 2006")))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 13)
	pdf.Cell(0, 8, "At a Glance")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	stats := []string{
		fmt.Sprintf("Medication adherence: %.0f%% (%d taken, %d missed)",
			report.AdherenceRate*100, report.DosesTaken, report.DosesMissed),
		fmt.Sprintf("Meals logged: %d (%d restriction concerns)", report.MealsLogged, report.DietViolations),
		fmt.Sprintf("Alerts: %d raised (%d critical)", report.AlertsRaised, report.AlertsCritical),
	}
	for _, s := range stats {
		pdf.Cell(0, 6, s)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	if report.Narrative != "" {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Summary")
		pdf.Ln(8)
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, report.Narrative, "", "L", false)
		pdf.Ln(4)
	}

	if len(report.Doses) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Medication Log")
		pdf.Ln(8)
		writeTable(pdf,
			[]string{"Time", "Medication", "Dosage", "Status"},
			[]float64{40, 60, 35, 30},
			doseCells(report.Doses))
		pdf.Ln(4)
	}

	if len(report.Alerts) > 0 {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, "Alerts")
		pdf.Ln(8)
		writeTable(pdf,
			[]string{"Raised", "Severity", "Message"},
			[]float64{40, 30, 100},
			alertCells(report.Alerts))
	}

	return pdf.Output(w)
}

func writeTable(pdf *fpdf.Fpdf, headers []string, widths []float64, rows [][]string) {
	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(235, 235, 235)
	for i, h := range headers {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "L", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	for _, row := range rows {
		for i, cell := range row {
			pdf.CellFormat(widths[i], 6, cell, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
	}
}

func doseCells(rows []DoseRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.Time.Format("Mon 15:04"),
			r.Medication,
			r.Dosage,
			r.Status,
		}
	}
	return out
}

func alertCells(rows []AlertRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		msg := r.Message
		if len(msg) > 60 {
			msg = msg[:57] + "..."
		}
		out[i] = []string{
			r.RaisedAt.Format("Mon 15:04"),
			r.Severity,
			msg,
		}
	}
	return out
}
