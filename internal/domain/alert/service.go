package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/platform/ws"
)

// Auto-tune thresholds, evaluated over the trailing 30 days.
const (
	tuneWindow         = 30 * 24 * time.Hour
	dismissalRateLower = 0.60 // above this, the group is over-alerted
	falsePositiveLower = 0.30
	actionRateRaise    = 0.70 // above this, alerts are consistently useful
	minAlertsForTuning = 5    // below this, too quiet; raise to surface more
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// GroupDirectory exposes the sensitivity state the auto-tuner reads and the
// recommendation slot it writes. Satisfied by the caregroup service.
type GroupDirectory interface {
	Sensitivity(ctx context.Context, groupID uuid.UUID) (caregroup.Sensitivity, error)
	RecordRecommendation(ctx context.Context, groupID uuid.UUID, level caregroup.Sensitivity, reason string) error
	AllGroupIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Notifier delivers out-of-band notifications for alerts that pass the
// group's sensitivity gate. May be nil.
type Notifier interface {
	NotifyGroup(ctx context.Context, groupID uuid.UUID, severity, message string) error
}

type Service struct {
	alerts    AlertRepository
	members   MembershipChecker
	groups    GroupDirectory
	publisher ws.EventPublisher
	notifier  Notifier
}

func NewService(alerts AlertRepository, members MembershipChecker, groups GroupDirectory) *Service {
	return &Service{alerts: alerts, members: members, groups: groups}
}

// SetPublisher wires the WebSocket event feed.
func (s *Service) SetPublisher(p ws.EventPublisher) {
	s.publisher = p
}

// SetNotifier wires SMS/push delivery.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

var validSeverities = map[string]bool{
	SeverityInfo: true, SeverityWarning: true, SeverityCritical: true,
}

var validCategories = map[string]bool{
	CategoryDose: true, CategoryDiet: true, CategoryFall: true,
	CategoryVitals: true, CategoryOther: true,
}

// Raise records a new alert, publishes it to the group's event feed, and
// notifies members when the severity clears the group's sensitivity gate.
func (s *Service) Raise(ctx context.Context, a *Alert) error {
	if !validSeverities[a.Severity] {
		return fmt.Errorf("invalid severity: %s", a.Severity)
	}
	if a.Category == "" {
		a.Category = CategoryOther
	}
	if !validCategories[a.Category] {
		return fmt.Errorf("invalid category: %s", a.Category)
	}
	if a.Message == "" {
		return fmt.Errorf("message is required")
	}
	if a.GroupID == uuid.Nil {
		return fmt.Errorf("group_id is required")
	}

	a.Status = StatusOpen
	if err := s.alerts.Create(ctx, a); err != nil {
		return fmt.Errorf("create alert: %w", err)
	}

	s.publish(ctx, "alert.created", a)

	if s.notifier != nil && s.shouldNotify(ctx, a) {
		if err := s.notifier.NotifyGroup(ctx, a.GroupID, a.Severity, a.Message); err != nil {
			log.Warn().Err(err).Str("alert_id", a.ID.String()).Msg("alert notification failed")
		}
	}
	return nil
}

// shouldNotify applies the group's sensitivity gate: low sensitivity only
// notifies critical alerts, medium adds warnings, high notifies everything.
// The alert itself is always recorded regardless.
func (s *Service) shouldNotify(ctx context.Context, a *Alert) bool {
	level, err := s.groups.Sensitivity(ctx, a.GroupID)
	if err != nil {
		return a.Severity == SeverityCritical
	}
	switch level {
	case caregroup.SensitivityLow:
		return a.Severity == SeverityCritical
	case caregroup.SensitivityMedium:
		return a.Severity == SeverityCritical || a.Severity == SeverityWarning
	default:
		return true
	}
}

// RaiseManual is the user-facing raise path; it checks group membership and
// stamps the raiser.
func (s *Service) RaiseManual(ctx context.Context, userID uuid.UUID, a *Alert) error {
	if err := s.members.RequireMember(ctx, a.GroupID, userID); err != nil {
		return err
	}
	a.RaisedBy = &userID
	return s.Raise(ctx, a)
}

// RaiseDoseMissed implements the medication package's alert hook.
func (s *Service) RaiseDoseMissed(ctx context.Context, groupID, elderID uuid.UUID, medicationName string) error {
	return s.Raise(ctx, &Alert{
		GroupID:  groupID,
		ElderID:  elderID,
		Severity: SeverityWarning,
		Category: CategoryDose,
		Message:  fmt.Sprintf("Missed dose of %s", medicationName),
	})
}

// RaiseDietViolation implements the diet package's alert hook.
func (s *Service) RaiseDietViolation(ctx context.Context, groupID, elderID uuid.UUID, substances []string) error {
	msg := "Meal conflicts with dietary restrictions"
	if len(substances) > 0 {
		msg = fmt.Sprintf("Meal contains restricted items: %v", substances)
	}
	return s.Raise(ctx, &Alert{
		GroupID:  groupID,
		ElderID:  elderID,
		Severity: SeverityWarning,
		Category: CategoryDiet,
		Message:  msg,
	})
}

func (s *Service) Get(ctx context.Context, userID, alertID uuid.UUID) (*Alert, error) {
	a, err := s.alerts.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, a.GroupID, userID); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) ListByGroup(ctx context.Context, userID, groupID uuid.UUID, status string, limit, offset int) ([]*Alert, int, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}
	if status != "" && status != StatusOpen && status != StatusAcknowledged && status != StatusDismissed && status != StatusResolved {
		return nil, 0, fmt.Errorf("invalid status filter: %s", status)
	}
	return s.alerts.ListByGroup(ctx, groupID, status, limit, offset)
}

// Acknowledge marks an open alert as seen.
func (s *Service) Acknowledge(ctx context.Context, userID, alertID uuid.UUID) (*Alert, error) {
	return s.transition(ctx, userID, alertID, func(a *Alert) error {
		if a.Status != StatusOpen {
			return fmt.Errorf("only open alerts can be acknowledged")
		}
		a.Status = StatusAcknowledged
		return nil
	})
}

// Dismiss closes an alert without action. falsePositive marks it as noise
// for the auto-tuner.
func (s *Service) Dismiss(ctx context.Context, userID, alertID uuid.UUID, falsePositive bool) (*Alert, error) {
	return s.transition(ctx, userID, alertID, func(a *Alert) error {
		if a.Status == StatusResolved || a.Status == StatusDismissed {
			return fmt.Errorf("alert is already closed")
		}
		a.Status = StatusDismissed
		a.FalsePositive = falsePositive
		return nil
	})
}

// Resolve closes an alert after action was taken.
func (s *Service) Resolve(ctx context.Context, userID, alertID uuid.UUID) (*Alert, error) {
	return s.transition(ctx, userID, alertID, func(a *Alert) error {
		if a.Status == StatusResolved || a.Status == StatusDismissed {
			return fmt.Errorf("alert is already closed")
		}
		a.Status = StatusResolved
		a.ActionTaken = true
		now := time.Now().UTC()
		a.ResolvedAt = &now
		return nil
	})
}

func (s *Service) transition(ctx context.Context, userID, alertID uuid.UUID, apply func(*Alert) error) (*Alert, error) {
	a, err := s.Get(ctx, userID, alertID)
	if err != nil {
		return nil, err
	}
	if err := apply(a); err != nil {
		return nil, err
	}
	if err := s.alerts.Update(ctx, a); err != nil {
		return nil, err
	}
	s.publish(ctx, "alert.updated", a)
	return a, nil
}

func (s *Service) publish(ctx context.Context, kind string, a *Alert) {
	if s.publisher == nil {
		return
	}
	data, err := json.Marshal(a)
	if err != nil {
		return
	}
	_ = s.publisher.Publish(ctx, ws.Event{
		Kind:    kind,
		Topic:   ws.GroupTopic(a.GroupID),
		GroupID: a.GroupID.String(),
		Data:    data,
	})
}

// AnalyticsForGroup computes handling rates over the window, for members.
func (s *Service) AnalyticsForGroup(ctx context.Context, userID, groupID uuid.UUID, from, to time.Time) (*Analytics, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.analytics(ctx, groupID, from, to)
}

// WindowAlerts lists a group's alerts in a window without a membership
// check. Used by the weekly report aggregation and the export surface,
// which gate access themselves.
func (s *Service) WindowAlerts(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*Alert, error) {
	return s.alerts.ListWindow(ctx, groupID, from, to)
}

func (s *Service) analytics(ctx context.Context, groupID uuid.UUID, from, to time.Time) (*Analytics, error) {
	alerts, err := s.alerts.ListWindow(ctx, groupID, from, to)
	if err != nil {
		return nil, err
	}
	return ComputeAnalytics(groupID, from, to, alerts), nil
}

// ComputeAnalytics tallies alert outcomes. Rates are zero when there are no
// alerts in the window.
func ComputeAnalytics(groupID uuid.UUID, from, to time.Time, alerts []*Alert) *Analytics {
	an := &Analytics{GroupID: groupID, From: from, To: to, Total: len(alerts)}
	for _, a := range alerts {
		if a.Status == StatusDismissed {
			an.Dismissed++
		}
		if a.ActionTaken {
			an.ActionTaken++
		}
		if a.FalsePositive {
			an.FalsePositives++
		}
	}
	if an.Total > 0 {
		an.DismissalRate = float64(an.Dismissed) / float64(an.Total)
		an.ActionRate = float64(an.ActionTaken) / float64(an.Total)
		an.FalsePositiveRate = float64(an.FalsePositives) / float64(an.Total)
	}
	return an
}

// TuneResult records one auto-tune decision.
type TuneResult struct {
	GroupID     uuid.UUID             `json:"groupId"`
	Current     caregroup.Sensitivity `json:"current"`
	Recommended caregroup.Sensitivity `json:"recommended"`
	Reason      string                `json:"reason"`
	Analytics   *Analytics            `json:"analytics"`
}

// AutoTune evaluates one group against the trailing window and, when a rule
// fires, records a one-step sensitivity recommendation on the group. The
// change takes effect only when an owner accepts it. Rules that lower
// sensitivity (too noisy) win over rules that raise it.
func (s *Service) AutoTune(ctx context.Context, groupID uuid.UUID) (*TuneResult, error) {
	now := time.Now().UTC()
	an, err := s.analytics(ctx, groupID, now.Add(-tuneWindow), now)
	if err != nil {
		return nil, err
	}

	current, err := s.groups.Sensitivity(ctx, groupID)
	if err != nil {
		return nil, err
	}

	result := &TuneResult{GroupID: groupID, Current: current, Recommended: current, Analytics: an}

	var lowerReason, raiseReason string
	switch {
	case an.Total > 0 && an.DismissalRate > dismissalRateLower:
		lowerReason = fmt.Sprintf("dismissal rate %.0f%% exceeds %.0f%%", an.DismissalRate*100, dismissalRateLower*100)
	case an.Total > 0 && an.FalsePositiveRate > falsePositiveLower:
		lowerReason = fmt.Sprintf("false positive rate %.0f%% exceeds %.0f%%", an.FalsePositiveRate*100, falsePositiveLower*100)
	}
	switch {
	case an.Total > 0 && an.ActionRate > actionRateRaise:
		raiseReason = fmt.Sprintf("action rate %.0f%% exceeds %.0f%%", an.ActionRate*100, actionRateRaise*100)
	case an.Total < minAlertsForTuning:
		raiseReason = fmt.Sprintf("only %d alerts in window, below %d", an.Total, minAlertsForTuning)
	}

	switch {
	case lowerReason != "":
		result.Recommended = current.Lower()
		result.Reason = lowerReason
	case raiseReason != "":
		result.Recommended = current.Raise()
		result.Reason = raiseReason
	default:
		result.Reason = "rates within normal range"
		return result, nil
	}

	if result.Recommended == result.Current {
		result.Reason += " (already at limit)"
		return result, nil
	}

	if err := s.groups.RecordRecommendation(ctx, groupID, result.Recommended, result.Reason); err != nil {
		return nil, fmt.Errorf("record recommendation: %w", err)
	}
	log.Info().
		Str("group_id", groupID.String()).
		Str("current", string(result.Current)).
		Str("recommended", string(result.Recommended)).
		Str("reason", result.Reason).
		Msg("alert sensitivity recommendation recorded")
	return result, nil
}

// AutoTuneAll runs the tuner over every group. The nightly job entry point.
func (s *Service) AutoTuneAll(ctx context.Context) ([]*TuneResult, error) {
	ids, err := s.groups.AllGroupIDs(ctx)
	if err != nil {
		return nil, err
	}
	var results []*TuneResult
	for _, id := range ids {
		result, err := s.AutoTune(ctx, id)
		if err != nil {
			log.Error().Err(err).Str("group_id", id.String()).Msg("auto-tune failed for group")
			continue
		}
		results = append(results, result)
	}
	return results, nil
}
