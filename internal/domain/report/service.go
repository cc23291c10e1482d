package report

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carelink/carelink/internal/domain/alert"
	"github.com/carelink/carelink/internal/domain/consent"
	"github.com/carelink/carelink/internal/domain/elder"
	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/platform/ai"
	"github.com/carelink/carelink/internal/platform/export"
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// ElderSource is satisfied by the elder service.
type ElderSource interface {
	AllInGroup(ctx context.Context, groupID uuid.UUID) ([]*elder.Elder, error)
	Get(ctx context.Context, userID, elderID uuid.UUID) (*elder.Elder, error)
}

// MedicationSource is satisfied by the medication service.
type MedicationSource interface {
	DoseCounts(ctx context.Context, elderID uuid.UUID, from, to time.Time) (taken, missed int, err error)
	ListDoseLogs(ctx context.Context, userID, elderID, groupID uuid.UUID, from, to time.Time) ([]*medication.DoseLog, error)
	ListByElder(ctx context.Context, userID, elderID, groupID uuid.UUID, activeOnly bool) ([]*medication.Medication, error)
}

// MealSource is satisfied by the diet service.
type MealSource interface {
	MealStats(ctx context.Context, elderID uuid.UUID, from, to time.Time) (meals, violations int, err error)
}

// AlertSource is satisfied by the alert service.
type AlertSource interface {
	WindowAlerts(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*alert.Alert, error)
}

// ShiftSource is satisfied by the shift service.
type ShiftSource interface {
	CompletedInWindow(ctx context.Context, groupID uuid.UUID, from, to time.Time) (completed, total int, err error)
	WindowHighlights(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]string, error)
}

// ConsentGate is satisfied by the consent service. Every export read passes
// through it.
type ConsentGate interface {
	Authorize(ctx context.Context, userID, elderID uuid.UUID, scope, resource string) error
}

type Service struct {
	members   MembershipChecker
	elders    ElderSource
	meds      MedicationSource
	meals     MealSource
	alerts    AlertSource
	shifts    ShiftSource
	consents  ConsentGate
	assistant ai.Assistant
}

func NewService(
	members MembershipChecker,
	elders ElderSource,
	meds MedicationSource,
	meals MealSource,
	alerts AlertSource,
	shifts ShiftSource,
	consents ConsentGate,
	assistant ai.Assistant,
) *Service {
	return &Service{
		members:   members,
		elders:    elders,
		meds:      meds,
		meals:     meals,
		alerts:    alerts,
		shifts:    shifts,
		consents:  consents,
		assistant: assistant,
	}
}

// WeekOf returns the Monday 00:00 UTC on or before t.
func WeekOf(t time.Time) time.Time {
	t = t.UTC().Truncate(24 * time.Hour)
	for t.Weekday() != time.Monday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// WeeklyForGroup builds the group's weekly summary. No membership check;
// the weekly job and the user-facing path below both funnel through here.
func (s *Service) WeeklyForGroup(ctx context.Context, groupID uuid.UUID, weekStart time.Time) (*GroupWeekly, error) {
	weekStart = weekStart.UTC()
	weekEnd := weekStart.AddDate(0, 0, 7)

	elders, err := s.elders.AllInGroup(ctx, groupID)
	if err != nil {
		return nil, fmt.Errorf("list elders: %w", err)
	}

	alerts, err := s.alerts.WindowAlerts(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	shiftsCompleted, shiftsTotal, err := s.shifts.CompletedInWindow(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("count shifts: %w", err)
	}
	highlights, err := s.shifts.WindowHighlights(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("collect highlights: %w", err)
	}

	summary := &GroupWeekly{
		GroupID:     groupID,
		WeekStart:   weekStart,
		WeekEnd:     weekEnd,
		GeneratedAt: time.Now().UTC(),
	}

	for _, e := range elders {
		ew, err := s.elderWeekly(ctx, e, weekStart, weekEnd, alerts, shiftsCompleted, shiftsTotal, highlights)
		if err != nil {
			return nil, err
		}
		summary.Elders = append(summary.Elders, ew)
	}
	return summary, nil
}

func (s *Service) elderWeekly(
	ctx context.Context,
	e *elder.Elder,
	weekStart, weekEnd time.Time,
	groupAlerts []*alert.Alert,
	shiftsCompleted, shiftsTotal int,
	highlights []string,
) (*ElderWeekly, error) {
	taken, missed, err := s.meds.DoseCounts(ctx, e.ID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("dose counts: %w", err)
	}
	meals, violations, err := s.meals.MealStats(ctx, e.ID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("meal stats: %w", err)
	}

	ew := &ElderWeekly{
		ElderID:         e.ID,
		ElderName:       e.FullName(),
		WeekStart:       weekStart,
		WeekEnd:         weekEnd,
		DosesTaken:      taken,
		DosesMissed:     missed,
		AdherenceRate:   adherenceRate(taken, missed),
		MealsLogged:     meals,
		DietViolations:  violations,
		ShiftsCompleted: shiftsCompleted,
		ShiftsTotal:     shiftsTotal,
		Highlights:      highlights,
	}
	for _, a := range groupAlerts {
		if a.ElderID != e.ID {
			continue
		}
		ew.AlertsRaised++
		if a.Severity == alert.SeverityCritical {
			ew.AlertsCritical++
		}
	}

	narrative, err := s.assistant.WeeklyNarrative(ctx, ai.WeeklyInput{
		ElderName:         ew.ElderName,
		WeekStart:         weekStart,
		AdherenceRate:     ew.AdherenceRate,
		DosesTaken:        taken,
		DosesMissed:       missed,
		MealsLogged:       meals,
		DietViolations:    violations,
		AlertsRaised:      ew.AlertsRaised,
		AlertsCritical:    ew.AlertsCritical,
		ShiftsCompleted:   shiftsCompleted,
		HandoffHighlights: highlights,
	})
	if err != nil {
		// the numbers stand on their own
		log.Warn().Err(err).Str("elder_id", e.ID.String()).Msg("weekly narrative generation failed")
	} else {
		ew.Narrative = narrative
	}
	return ew, nil
}

func adherenceRate(taken, missed int) float64 {
	if taken+missed == 0 {
		return 1.0
	}
	return float64(taken) / float64(taken+missed)
}

// WeeklyForUser serves the summary over the API, enforcing membership.
func (s *Service) WeeklyForUser(ctx context.Context, userID, groupID uuid.UUID, weekStart time.Time) (*GroupWeekly, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.WeeklyForGroup(ctx, groupID, weekStart)
}

// ExportDosesCSV writes the elder's dose log as CSV. Requires membership
// and a medication-scope consent; the read lands in the access log.
func (s *Service) ExportDosesCSV(ctx context.Context, w io.Writer, userID, groupID, elderID uuid.UUID, from, to time.Time) error {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return err
	}
	if err := s.consents.Authorize(ctx, userID, elderID, consent.ScopeMedication, "export.doses.csv"); err != nil {
		return err
	}
	rows, err := s.doseRows(ctx, userID, groupID, elderID, from, to)
	if err != nil {
		return err
	}
	return export.WriteDoseCSV(w, rows)
}

func (s *Service) doseRows(ctx context.Context, userID, groupID, elderID uuid.UUID, from, to time.Time) ([]export.DoseRow, error) {
	logs, err := s.meds.ListDoseLogs(ctx, userID, elderID, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list dose logs: %w", err)
	}
	meds, err := s.meds.ListByElder(ctx, userID, elderID, groupID, false)
	if err != nil {
		return nil, fmt.Errorf("list medications: %w", err)
	}
	names := make(map[uuid.UUID]*medication.Medication, len(meds))
	for _, m := range meds {
		names[m.ID] = m
	}

	rows := make([]export.DoseRow, 0, len(logs))
	for _, l := range logs {
		row := export.DoseRow{
			Time:     l.ScheduledFor,
			Status:   l.Status,
			LoggedBy: l.LoggedBy.String(),
		}
		if m, ok := names[l.MedicationID]; ok {
			row.Medication = m.Name
			row.Dosage = m.Dosage
		}
		if l.Notes != nil {
			row.Notes = *l.Notes
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ExportAlertsCSV writes the elder's alerts as CSV. Requires membership and
// an alerts-scope consent.
func (s *Service) ExportAlertsCSV(ctx context.Context, w io.Writer, userID, groupID, elderID uuid.UUID, from, to time.Time) error {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return err
	}
	if err := s.consents.Authorize(ctx, userID, elderID, consent.ScopeAlerts, "export.alerts.csv"); err != nil {
		return err
	}
	rows, err := s.alertRows(ctx, groupID, elderID, from, to)
	if err != nil {
		return err
	}
	return export.WriteAlertCSV(w, rows)
}

func (s *Service) alertRows(ctx context.Context, groupID, elderID uuid.UUID, from, to time.Time) ([]export.AlertRow, error) {
	alerts, err := s.alerts.WindowAlerts(ctx, groupID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	var rows []export.AlertRow
	for _, a := range alerts {
		if a.ElderID != elderID {
			continue
		}
		rows = append(rows, export.AlertRow{
			RaisedAt:   a.CreatedAt,
			Severity:   a.Severity,
			Category:   a.Category,
			Message:    a.Message,
			Status:     a.Status,
			ResolvedAt: a.ResolvedAt,
		})
	}
	return rows, nil
}

// ExportWeeklyPDF renders one elder's weekly report as PDF. Requires
// membership and a reports-scope consent.
func (s *Service) ExportWeeklyPDF(ctx context.Context, w io.Writer, userID, groupID, elderID uuid.UUID, weekStart time.Time) error {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return err
	}
	if err := s.consents.Authorize(ctx, userID, elderID, consent.ScopeReports, "export.weekly.pdf"); err != nil {
		return err
	}

	e, err := s.elders.Get(ctx, userID, elderID)
	if err != nil {
		return fmt.Errorf("elder not found")
	}
	weekStart = weekStart.UTC()
	weekEnd := weekStart.AddDate(0, 0, 7)

	alerts, err := s.alerts.WindowAlerts(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("list alerts: %w", err)
	}
	completed, total, err := s.shifts.CompletedInWindow(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("count shifts: %w", err)
	}
	highlights, err := s.shifts.WindowHighlights(ctx, groupID, weekStart, weekEnd)
	if err != nil {
		return fmt.Errorf("collect highlights: %w", err)
	}
	ew, err := s.elderWeekly(ctx, e, weekStart, weekEnd, alerts, completed, total, highlights)
	if err != nil {
		return err
	}

	doseRows, err := s.doseRows(ctx, userID, groupID, elderID, weekStart, weekEnd)
	if err != nil {
		return err
	}
	alertRows, err := s.alertRows(ctx, groupID, elderID, weekStart, weekEnd)
	if err != nil {
		return err
	}

	return export.WriteWeeklyPDF(w, export.WeeklyReport{
		ElderName:      ew.ElderName,
		WeekStart:      weekStart,
		WeekEnd:        weekEnd,
		AdherenceRate:  ew.AdherenceRate,
		DosesTaken:     ew.DosesTaken,
		DosesMissed:    ew.DosesMissed,
		MealsLogged:    ew.MealsLogged,
		DietViolations: ew.DietViolations,
		AlertsRaised:   ew.AlertsRaised,
		AlertsCritical: ew.AlertsCritical,
		Narrative:      ew.Narrative,
		Doses:          doseRows,
		Alerts:         alertRows,
	})
}
