package medication

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/ai"
)

// ErrDisclaimerRequired gates the interaction check behind the medical
// disclaimer. Handlers map it to 403.
var ErrDisclaimerRequired = fmt.Errorf("medical disclaimer must be accepted first")

var timeOfDayPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

var validDays = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// ElderResolver reports which group an elder belongs to. Satisfied by the
// elder service.
type ElderResolver interface {
	GroupOf(ctx context.Context, elderID uuid.UUID) (uuid.UUID, error)
}

// DisclaimerChecker is satisfied by the identity service.
type DisclaimerChecker interface {
	HasAcceptedDisclaimer(ctx context.Context, userID uuid.UUID) (bool, error)
}

// AlertRaiser receives missed-dose events. Wired to the alert service; may
// be nil.
type AlertRaiser interface {
	RaiseDoseMissed(ctx context.Context, groupID, elderID uuid.UUID, medicationName string) error
}

type Service struct {
	meds       MedicationRepository
	members    MembershipChecker
	elders     ElderResolver
	disclaimer DisclaimerChecker
	assistant  ai.Assistant
	alerts     AlertRaiser
}

func NewService(meds MedicationRepository, members MembershipChecker, elders ElderResolver, disclaimer DisclaimerChecker, assistant ai.Assistant) *Service {
	return &Service{meds: meds, members: members, elders: elders, disclaimer: disclaimer, assistant: assistant}
}

// requireElderInGroup verifies the elder really belongs to the claimed group
// and the caller is a member of it. Checking membership against the
// caller-supplied group alone would let a member of any group read any
// elder's data by passing their own group id.
func (s *Service) requireElderInGroup(ctx context.Context, userID, elderID, groupID uuid.UUID) error {
	actual, err := s.elders.GroupOf(ctx, elderID)
	if err != nil {
		return fmt.Errorf("elder not found")
	}
	if actual != groupID {
		return fmt.Errorf("elder does not belong to this group")
	}
	return s.members.RequireMember(ctx, groupID, userID)
}

// SetAlertRaiser wires the missed-dose alert hook.
func (s *Service) SetAlertRaiser(a AlertRaiser) {
	s.alerts = a
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, m *Medication) error {
	if m.Name == "" || m.Dosage == "" {
		return fmt.Errorf("name and dosage are required")
	}
	if m.ElderID == uuid.Nil || m.GroupID == uuid.Nil {
		return fmt.Errorf("elder_id and group_id are required")
	}
	if err := s.requireElderInGroup(ctx, userID, m.ElderID, m.GroupID); err != nil {
		return err
	}
	m.Active = true
	return s.meds.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, userID, medID uuid.UUID) (*Medication, error) {
	m, err := s.meds.GetByID(ctx, medID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, m.GroupID, userID); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, m *Medication) error {
	existing, err := s.meds.GetByID(ctx, m.ID)
	if err != nil {
		return err
	}
	if err := s.members.RequireMember(ctx, existing.GroupID, userID); err != nil {
		return err
	}
	m.ElderID = existing.ElderID
	m.GroupID = existing.GroupID
	return s.meds.Update(ctx, m)
}

// Discontinue marks a medication inactive instead of deleting it, so dose
// history stays intact.
func (s *Service) Discontinue(ctx context.Context, userID, medID uuid.UUID) (*Medication, error) {
	m, err := s.Get(ctx, userID, medID)
	if err != nil {
		return nil, err
	}
	m.Active = false
	if err := s.meds.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *Service) ListByElder(ctx context.Context, userID, elderID, groupID uuid.UUID, activeOnly bool) ([]*Medication, error) {
	if err := s.requireElderInGroup(ctx, userID, elderID, groupID); err != nil {
		return nil, err
	}
	return s.meds.ListByElder(ctx, elderID, activeOnly)
}

// AddSchedule attaches a recurring dose time to a medication.
func (s *Service) AddSchedule(ctx context.Context, userID uuid.UUID, sched *Schedule) error {
	m, err := s.Get(ctx, userID, sched.MedicationID)
	if err != nil {
		return err
	}
	if !m.Active {
		return fmt.Errorf("cannot schedule a discontinued medication")
	}
	if !timeOfDayPattern.MatchString(sched.TimeOfDay) {
		return fmt.Errorf("time_of_day must be HH:MM")
	}
	for _, d := range sched.DaysOfWeek {
		if !validDays[d] {
			return fmt.Errorf("invalid day: %s", d)
		}
	}
	sched.Active = true
	return s.meds.AddSchedule(ctx, sched)
}

func (s *Service) ListSchedules(ctx context.Context, userID, medID uuid.UUID) ([]*Schedule, error) {
	if _, err := s.Get(ctx, userID, medID); err != nil {
		return nil, err
	}
	return s.meds.ListSchedules(ctx, medID)
}

func (s *Service) RemoveSchedule(ctx context.Context, userID, scheduleID uuid.UUID) error {
	sched, err := s.meds.GetSchedule(ctx, scheduleID)
	if err != nil {
		return err
	}
	if _, err := s.Get(ctx, userID, sched.MedicationID); err != nil {
		return err
	}
	return s.meds.RemoveSchedule(ctx, scheduleID)
}

// LogDose records a dose outcome. A missed dose raises an alert for the
// group when an AlertRaiser is wired.
func (s *Service) LogDose(ctx context.Context, userID uuid.UUID, d *DoseLog) error {
	if d.Status != DoseTaken && d.Status != DoseMissed && d.Status != DoseSkipped {
		return fmt.Errorf("invalid dose status: %s", d.Status)
	}
	m, err := s.Get(ctx, userID, d.MedicationID)
	if err != nil {
		return err
	}
	d.ElderID = m.ElderID
	d.LoggedBy = userID
	if d.ScheduledFor.IsZero() {
		d.ScheduledFor = time.Now().UTC()
	}
	if err := s.meds.LogDose(ctx, d); err != nil {
		return err
	}

	if d.Status == DoseMissed && s.alerts != nil {
		if err := s.alerts.RaiseDoseMissed(ctx, m.GroupID, m.ElderID, m.Name); err != nil {
			return fmt.Errorf("dose logged but alert failed: %w", err)
		}
	}
	return nil
}

func (s *Service) ListDoseLogs(ctx context.Context, userID, elderID, groupID uuid.UUID, from, to time.Time) ([]*DoseLog, error) {
	if err := s.requireElderInGroup(ctx, userID, elderID, groupID); err != nil {
		return nil, err
	}
	return s.meds.ListDoseLogs(ctx, elderID, from, to)
}

// Adherence computes the dose adherence rate over a window.
func (s *Service) Adherence(ctx context.Context, userID, elderID, groupID uuid.UUID, from, to time.Time) (*AdherenceReport, error) {
	logs, err := s.ListDoseLogs(ctx, userID, elderID, groupID, from, to)
	if err != nil {
		return nil, err
	}
	return ComputeAdherence(elderID, from, to, logs), nil
}

// DoseCounts tallies taken and missed doses for an elder over a window. No
// membership check; callers are other services that have already gated
// access (shift handoff, weekly report).
func (s *Service) DoseCounts(ctx context.Context, elderID uuid.UUID, from, to time.Time) (taken, missed int, err error) {
	logs, err := s.meds.ListDoseLogs(ctx, elderID, from, to)
	if err != nil {
		return 0, 0, err
	}
	for _, l := range logs {
		switch l.Status {
		case DoseTaken:
			taken++
		case DoseMissed:
			missed++
		}
	}
	return taken, missed, nil
}

// ComputeAdherence tallies dose outcomes. Exported for the report service.
func ComputeAdherence(elderID uuid.UUID, from, to time.Time, logs []*DoseLog) *AdherenceReport {
	report := &AdherenceReport{ElderID: elderID, From: from, To: to}
	for _, l := range logs {
		switch l.Status {
		case DoseTaken:
			report.Taken++
		case DoseMissed:
			report.Missed++
		case DoseSkipped:
			report.Skipped++
		}
	}
	if report.Taken+report.Missed == 0 {
		report.Rate = 1.0
	} else {
		report.Rate = float64(report.Taken) / float64(report.Taken+report.Missed)
	}
	return report
}

// CheckInteractions runs the AI interaction check over the elder's active
// medications. Requires the caller to have accepted the medical disclaimer.
func (s *Service) CheckInteractions(ctx context.Context, userID, elderID, groupID uuid.UUID) (*ai.InteractionReport, error) {
	if err := s.requireElderInGroup(ctx, userID, elderID, groupID); err != nil {
		return nil, err
	}
	accepted, err := s.disclaimer.HasAcceptedDisclaimer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, ErrDisclaimerRequired
	}

	meds, err := s.meds.ListByElder(ctx, elderID, true)
	if err != nil {
		return nil, err
	}
	if len(meds) < 2 {
		return &ai.InteractionReport{
			Summary:   "At least two active medications are needed for an interaction check.",
			Source:    "rules",
			CheckedAt: time.Now().UTC(),
		}, nil
	}

	names := make([]string, len(meds))
	for i, m := range meds {
		names[i] = m.Name
	}
	return s.assistant.CheckInteractions(ctx, names)
}

// DueSchedules returns the active schedules due in the window ending at now.
// The reminder job calls this every sweep.
func (s *Service) DueSchedules(ctx context.Context, now time.Time, window time.Duration) ([]*ScheduleWithMedication, error) {
	all, err := s.meds.ListActiveSchedules(ctx)
	if err != nil {
		return nil, err
	}

	day := now.Format("Mon")
	var due []*ScheduleWithMedication
	for _, sw := range all {
		if !scheduleOnDay(sw.Schedule, day) {
			continue
		}
		t, err := time.Parse("15:04", sw.Schedule.TimeOfDay)
		if err != nil {
			continue
		}
		at := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if !at.After(now) && at.After(now.Add(-window)) {
			due = append(due, sw)
		}
	}
	return due, nil
}

func scheduleOnDay(s *Schedule, day string) bool {
	if len(s.DaysOfWeek) == 0 {
		return true
	}
	for _, d := range s.DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}
