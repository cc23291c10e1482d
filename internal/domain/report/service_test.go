package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/alert"
	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/domain/consent"
	"github.com/carelink/carelink/internal/domain/elder"
	"github.com/carelink/carelink/internal/domain/medication"
	"github.com/carelink/carelink/internal/platform/ai"
)

type allowAll struct{}

func (allowAll) RequireMember(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type denyAll struct{}

func (denyAll) RequireMember(context.Context, uuid.UUID, uuid.UUID) error {
	return caregroup.ErrNotMember
}

type mockElders struct {
	elders []*elder.Elder
}

func (m *mockElders) AllInGroup(context.Context, uuid.UUID) ([]*elder.Elder, error) {
	return m.elders, nil
}

func (m *mockElders) Get(_ context.Context, _, elderID uuid.UUID) (*elder.Elder, error) {
	for _, e := range m.elders {
		if e.ID == elderID {
			return e, nil
		}
	}
	return nil, context.Canceled
}

type mockMeds struct {
	counts map[uuid.UUID][2]int // elderID -> {taken, missed}
	logs   []*medication.DoseLog
	meds   []*medication.Medication
}

func (m *mockMeds) DoseCounts(_ context.Context, elderID uuid.UUID, _, _ time.Time) (int, int, error) {
	c := m.counts[elderID]
	return c[0], c[1], nil
}

func (m *mockMeds) ListDoseLogs(_ context.Context, _, elderID, _ uuid.UUID, _, _ time.Time) ([]*medication.DoseLog, error) {
	var out []*medication.DoseLog
	for _, l := range m.logs {
		if l.ElderID == elderID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *mockMeds) ListByElder(_ context.Context, _, _, _ uuid.UUID, _ bool) ([]*medication.Medication, error) {
	return m.meds, nil
}

type mockMeals struct {
	meals      int
	violations int
}

func (m *mockMeals) MealStats(context.Context, uuid.UUID, time.Time, time.Time) (int, int, error) {
	return m.meals, m.violations, nil
}

type mockAlerts struct {
	alerts []*alert.Alert
}

func (m *mockAlerts) WindowAlerts(context.Context, uuid.UUID, time.Time, time.Time) ([]*alert.Alert, error) {
	return m.alerts, nil
}

type mockShifts struct {
	completed  int
	total      int
	highlights []string
}

func (m *mockShifts) CompletedInWindow(context.Context, uuid.UUID, time.Time, time.Time) (int, int, error) {
	return m.completed, m.total, nil
}

func (m *mockShifts) WindowHighlights(context.Context, uuid.UUID, time.Time, time.Time) ([]string, error) {
	return m.highlights, nil
}

type mockConsents struct {
	allow    bool
	accessed []string
}

func (m *mockConsents) Authorize(_ context.Context, _, _ uuid.UUID, _ string, resource string) error {
	if !m.allow {
		return consent.ErrNoConsent
	}
	m.accessed = append(m.accessed, resource)
	return nil
}

func newTestService(elders *mockElders, meds *mockMeds, alerts *mockAlerts, shifts *mockShifts, consents *mockConsents) *Service {
	return NewService(
		allowAll{},
		elders,
		meds,
		&mockMeals{meals: 14, violations: 2},
		alerts,
		shifts,
		consents,
		&ai.MockAssistant{Narrative: "A steady week overall."},
	)
}

func TestWeekOf(t *testing.T) {
	// 2026-08-26 is a Wednesday.
	wed := time.Date(2026, 8, 26, 15, 30, 0, 0, time.UTC)
	got := WeekOf(wed)
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("WeekOf(wed) = %v, want %v", got, want)
	}
	if !WeekOf(want).Equal(want) {
		t.Fatalf("WeekOf should be a fixed point on Mondays")
	}
}

func TestWeeklyForGroupAggregates(t *testing.T) {
	groupID := uuid.New()
	alice := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	bob := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Bob", LastName: "Okafor"}

	week := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	svc := newTestService(
		&mockElders{elders: []*elder.Elder{alice, bob}},
		&mockMeds{counts: map[uuid.UUID][2]int{
			alice.ID: {9, 1},
			bob.ID:   {0, 0},
		}},
		&mockAlerts{alerts: []*alert.Alert{
			{ElderID: alice.ID, Severity: alert.SeverityCritical, CreatedAt: week.Add(24 * time.Hour)},
			{ElderID: alice.ID, Severity: alert.SeverityWarning, CreatedAt: week.Add(48 * time.Hour)},
			{ElderID: bob.ID, Severity: alert.SeverityInfo, CreatedAt: week.Add(72 * time.Hour)},
		}},
		&mockShifts{completed: 5, total: 6, highlights: []string{"Refused breakfast Tuesday"}},
		&mockConsents{allow: true},
	)

	summary, err := svc.WeeklyForGroup(context.Background(), groupID, week)
	if err != nil {
		t.Fatalf("WeeklyForGroup: %v", err)
	}
	if len(summary.Elders) != 2 {
		t.Fatalf("expected 2 elder summaries, got %d", len(summary.Elders))
	}

	a := summary.Elders[0]
	if a.ElderName != "Alice Nguyen" {
		t.Fatalf("unexpected elder name %q", a.ElderName)
	}
	if a.DosesTaken != 9 || a.DosesMissed != 1 {
		t.Fatalf("dose counts = %d/%d, want 9/1", a.DosesTaken, a.DosesMissed)
	}
	if a.AdherenceRate != 0.9 {
		t.Fatalf("adherence = %v, want 0.9", a.AdherenceRate)
	}
	if a.AlertsRaised != 2 || a.AlertsCritical != 1 {
		t.Fatalf("alerts = %d raised / %d critical, want 2/1", a.AlertsRaised, a.AlertsCritical)
	}
	if a.ShiftsCompleted != 5 || a.ShiftsTotal != 6 {
		t.Fatalf("shifts = %d/%d, want 5/6", a.ShiftsCompleted, a.ShiftsTotal)
	}
	if a.Narrative != "A steady week overall." {
		t.Fatalf("narrative = %q", a.Narrative)
	}

	b := summary.Elders[1]
	if b.AdherenceRate != 1.0 {
		t.Fatalf("elder with no doses should have adherence 1.0, got %v", b.AdherenceRate)
	}
	if b.AlertsRaised != 1 || b.AlertsCritical != 0 {
		t.Fatalf("alerts = %d raised / %d critical, want 1/0", b.AlertsRaised, b.AlertsCritical)
	}
}

func TestWeeklyNarrativeFailureTolerated(t *testing.T) {
	groupID := uuid.New()
	e := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	svc := NewService(
		allowAll{},
		&mockElders{elders: []*elder.Elder{e}},
		&mockMeds{counts: map[uuid.UUID][2]int{e.ID: {4, 0}}},
		&mockMeals{},
		&mockAlerts{},
		&mockShifts{},
		&mockConsents{allow: true},
		&ai.MockAssistant{ShouldFail: true},
	)

	summary, err := svc.WeeklyForGroup(context.Background(), groupID, WeekOf(time.Now()))
	if err != nil {
		t.Fatalf("WeeklyForGroup: %v", err)
	}
	if summary.Elders[0].Narrative != "" {
		t.Fatalf("expected empty narrative on assistant failure")
	}
	if summary.Elders[0].DosesTaken != 4 {
		t.Fatalf("numbers should survive a narrative failure")
	}
}

func TestWeeklyForUserRequiresMembership(t *testing.T) {
	svc := NewService(
		denyAll{}, &mockElders{}, &mockMeds{}, &mockMeals{}, &mockAlerts{},
		&mockShifts{}, &mockConsents{allow: true}, &ai.MockAssistant{},
	)
	_, err := svc.WeeklyForUser(context.Background(), uuid.New(), uuid.New(), WeekOf(time.Now()))
	if err == nil {
		t.Fatal("expected membership error")
	}
}

func TestExportDosesCSV(t *testing.T) {
	groupID := uuid.New()
	e := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	medID := uuid.New()
	note := "with food"
	meds := &mockMeds{
		logs: []*medication.DoseLog{
			{
				MedicationID: medID,
				ElderID:      e.ID,
				ScheduledFor: time.Date(2026, 8, 24, 8, 0, 0, 0, time.UTC),
				Status:       medication.DoseTaken,
				LoggedBy:     uuid.New(),
				Notes:        &note,
			},
		},
		meds: []*medication.Medication{{ID: medID, Name: "Lisinopril", Dosage: "10mg"}},
	}
	consents := &mockConsents{allow: true}
	svc := newTestService(&mockElders{elders: []*elder.Elder{e}}, meds, &mockAlerts{}, &mockShifts{}, consents)

	var buf bytes.Buffer
	from := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	err := svc.ExportDosesCSV(context.Background(), &buf, uuid.New(), groupID, e.ID, from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ExportDosesCSV: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Lisinopril") || !strings.Contains(out, "10mg") {
		t.Fatalf("medication name/dosage missing from CSV:\n%s", out)
	}
	if !strings.Contains(out, "taken") || !strings.Contains(out, "with food") {
		t.Fatalf("status/notes missing from CSV:\n%s", out)
	}
	if len(consents.accessed) != 1 || consents.accessed[0] != "export.doses.csv" {
		t.Fatalf("expected access log entry for export.doses.csv, got %v", consents.accessed)
	}
}

func TestExportRequiresConsent(t *testing.T) {
	groupID := uuid.New()
	e := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	svc := newTestService(&mockElders{elders: []*elder.Elder{e}}, &mockMeds{}, &mockAlerts{}, &mockShifts{}, &mockConsents{allow: false})

	var buf bytes.Buffer
	now := time.Now().UTC()
	err := svc.ExportDosesCSV(context.Background(), &buf, uuid.New(), groupID, e.ID, now.AddDate(0, 0, -7), now)
	if err == nil || !strings.Contains(err.Error(), "consent") {
		t.Fatalf("expected consent error, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatal("no data should be written without consent")
	}
}

func TestExportAlertsCSVFiltersElder(t *testing.T) {
	groupID := uuid.New()
	e := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	other := uuid.New()
	alerts := &mockAlerts{alerts: []*alert.Alert{
		{ElderID: e.ID, Severity: alert.SeverityCritical, Category: alert.CategoryFall, Message: "Fall in bathroom", Status: alert.StatusOpen, CreatedAt: time.Now().UTC()},
		{ElderID: other, Severity: alert.SeverityInfo, Category: alert.CategoryOther, Message: "Unrelated", Status: alert.StatusOpen, CreatedAt: time.Now().UTC()},
	}}
	svc := newTestService(&mockElders{elders: []*elder.Elder{e}}, &mockMeds{}, alerts, &mockShifts{}, &mockConsents{allow: true})

	var buf bytes.Buffer
	now := time.Now().UTC()
	if err := svc.ExportAlertsCSV(context.Background(), &buf, uuid.New(), groupID, e.ID, now.AddDate(0, 0, -7), now); err != nil {
		t.Fatalf("ExportAlertsCSV: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Fall in bathroom") {
		t.Fatalf("expected elder's alert in CSV:\n%s", out)
	}
	if strings.Contains(out, "Unrelated") {
		t.Fatalf("other elder's alert leaked into CSV:\n%s", out)
	}
}

func TestExportWeeklyPDF(t *testing.T) {
	groupID := uuid.New()
	e := &elder.Elder{ID: uuid.New(), GroupID: groupID, FirstName: "Alice", LastName: "Nguyen"}
	consents := &mockConsents{allow: true}
	svc := newTestService(
		&mockElders{elders: []*elder.Elder{e}},
		&mockMeds{counts: map[uuid.UUID][2]int{e.ID: {6, 1}}},
		&mockAlerts{},
		&mockShifts{completed: 3, total: 3},
		consents,
	)

	var buf bytes.Buffer
	err := svc.ExportWeeklyPDF(context.Background(), &buf, uuid.New(), groupID, e.ID, WeekOf(time.Now()))
	if err != nil {
		t.Fatalf("ExportWeeklyPDF: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output is not a PDF document")
	}
	if len(consents.accessed) == 0 || consents.accessed[len(consents.accessed)-1] != "export.weekly.pdf" {
		t.Fatalf("expected access log entry for export.weekly.pdf, got %v", consents.accessed)
	}
}
