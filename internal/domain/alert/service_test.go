package alert

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/platform/ws"
)

type mockAlertRepo struct {
	alerts map[uuid.UUID]*Alert
}

func newMockAlertRepo() *mockAlertRepo {
	return &mockAlertRepo{alerts: make(map[uuid.UUID]*Alert)}
}

func (m *mockAlertRepo) Create(_ context.Context, a *Alert) error {
	a.ID = uuid.New()
	a.CreatedAt = time.Now().UTC()
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockAlertRepo) GetByID(_ context.Context, id uuid.UUID) (*Alert, error) {
	a, ok := m.alerts[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *mockAlertRepo) Update(_ context.Context, a *Alert) error {
	cp := *a
	m.alerts[a.ID] = &cp
	return nil
}

func (m *mockAlertRepo) ListByGroup(_ context.Context, groupID uuid.UUID, status string, limit, offset int) ([]*Alert, int, error) {
	var out []*Alert
	for _, a := range m.alerts {
		if a.GroupID == groupID && (status == "" || a.Status == status) {
			out = append(out, a)
		}
	}
	return out, len(out), nil
}

func (m *mockAlertRepo) ListWindow(_ context.Context, groupID uuid.UUID, from, to time.Time) ([]*Alert, error) {
	var out []*Alert
	for _, a := range m.alerts {
		if a.GroupID == groupID && !a.CreatedAt.Before(from) && a.CreatedAt.Before(to) {
			out = append(out, a)
		}
	}
	return out, nil
}

var errNotFound = &notFoundError{}

type notFoundError struct{}

func (*notFoundError) Error() string { return "not found" }

type allowAll struct{}

func (allowAll) RequireMember(context.Context, uuid.UUID, uuid.UUID) error { return nil }

type denyAll struct{}

func (denyAll) RequireMember(context.Context, uuid.UUID, uuid.UUID) error {
	return caregroup.ErrNotMember
}

type mockDirectory struct {
	levels      map[uuid.UUID]caregroup.Sensitivity
	recommended map[uuid.UUID]caregroup.Sensitivity
	reasons     map[uuid.UUID]string
}

func newMockDirectory() *mockDirectory {
	return &mockDirectory{
		levels:      make(map[uuid.UUID]caregroup.Sensitivity),
		recommended: make(map[uuid.UUID]caregroup.Sensitivity),
		reasons:     make(map[uuid.UUID]string),
	}
}

func (m *mockDirectory) Sensitivity(_ context.Context, id uuid.UUID) (caregroup.Sensitivity, error) {
	if lvl, ok := m.levels[id]; ok {
		return lvl, nil
	}
	return caregroup.SensitivityMedium, nil
}

func (m *mockDirectory) RecordRecommendation(_ context.Context, id uuid.UUID, level caregroup.Sensitivity, reason string) error {
	m.recommended[id] = level
	m.reasons[id] = reason
	return nil
}

func (m *mockDirectory) AllGroupIDs(context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id := range m.levels {
		ids = append(ids, id)
	}
	return ids, nil
}

type mockNotifier struct {
	sent []string
}

func (m *mockNotifier) NotifyGroup(_ context.Context, _ uuid.UUID, severity, _ string) error {
	m.sent = append(m.sent, severity)
	return nil
}

type nopPublisher struct {
	events []ws.Event
}

func (p *nopPublisher) Publish(_ context.Context, e ws.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newTestService() (*Service, *mockAlertRepo, *mockDirectory, *mockNotifier) {
	repo := newMockAlertRepo()
	dir := newMockDirectory()
	notifier := &mockNotifier{}
	svc := NewService(repo, allowAll{}, dir)
	svc.SetNotifier(notifier)
	return svc, repo, dir, notifier
}

func TestRaiseValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	err := svc.Raise(ctx, &Alert{GroupID: uuid.New(), Severity: "urgent", Message: "x"})
	if err == nil {
		t.Fatal("expected error for invalid severity")
	}

	err = svc.Raise(ctx, &Alert{GroupID: uuid.New(), Severity: SeverityInfo})
	if err == nil {
		t.Fatal("expected error for empty message")
	}

	a := &Alert{GroupID: uuid.New(), Severity: SeverityInfo, Message: "hello"}
	if err := svc.Raise(ctx, a); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if a.Category != CategoryOther {
		t.Errorf("category = %q, want default %q", a.Category, CategoryOther)
	}
	if a.Status != StatusOpen {
		t.Errorf("status = %q, want %q", a.Status, StatusOpen)
	}
}

func TestSensitivityGatesNotifications(t *testing.T) {
	cases := []struct {
		level    caregroup.Sensitivity
		severity string
		notified bool
	}{
		{caregroup.SensitivityLow, SeverityInfo, false},
		{caregroup.SensitivityLow, SeverityWarning, false},
		{caregroup.SensitivityLow, SeverityCritical, true},
		{caregroup.SensitivityMedium, SeverityInfo, false},
		{caregroup.SensitivityMedium, SeverityWarning, true},
		{caregroup.SensitivityMedium, SeverityCritical, true},
		{caregroup.SensitivityHigh, SeverityInfo, true},
		{caregroup.SensitivityHigh, SeverityWarning, true},
		{caregroup.SensitivityHigh, SeverityCritical, true},
	}

	for _, tc := range cases {
		svc, repo, dir, notifier := newTestService()
		groupID := uuid.New()
		dir.levels[groupID] = tc.level

		err := svc.Raise(context.Background(), &Alert{
			GroupID: groupID, Severity: tc.severity, Category: CategoryOther, Message: "m",
		})
		if err != nil {
			t.Fatalf("%s/%s: Raise: %v", tc.level, tc.severity, err)
		}
		if len(repo.alerts) != 1 {
			t.Errorf("%s/%s: alert not recorded", tc.level, tc.severity)
		}
		got := len(notifier.sent) > 0
		if got != tc.notified {
			t.Errorf("%s/%s: notified = %v, want %v", tc.level, tc.severity, got, tc.notified)
		}
	}
}

func TestRaiseAlwaysPublishes(t *testing.T) {
	svc, _, dir, _ := newTestService()
	pub := &nopPublisher{}
	svc.SetPublisher(pub)

	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityLow

	// info would be below the notification gate but still hits the feed
	err := svc.Raise(context.Background(), &Alert{
		GroupID: groupID, Severity: SeverityInfo, Category: CategoryOther, Message: "m",
	})
	if err != nil {
		t.Fatalf("Raise: %v", err)
	}
	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	if pub.events[0].Kind != "alert.created" {
		t.Errorf("event kind = %q", pub.events[0].Kind)
	}
	if pub.events[0].Topic != ws.GroupTopic(groupID) {
		t.Errorf("event topic = %q", pub.events[0].Topic)
	}
}

func TestRaiseDoseMissedHook(t *testing.T) {
	svc, repo, _, _ := newTestService()

	if err := svc.RaiseDoseMissed(context.Background(), uuid.New(), uuid.New(), "Metformin"); err != nil {
		t.Fatalf("RaiseDoseMissed: %v", err)
	}
	for _, a := range repo.alerts {
		if a.Category != CategoryDose || a.Severity != SeverityWarning {
			t.Errorf("got category=%q severity=%q", a.Category, a.Severity)
		}
		if a.RaisedBy != nil {
			t.Error("system alert should have nil RaisedBy")
		}
	}
}

func TestLifecycle(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	userID := uuid.New()

	a := &Alert{GroupID: uuid.New(), Severity: SeverityWarning, Category: CategoryFall, Message: "fall detected"}
	if err := svc.Raise(ctx, a); err != nil {
		t.Fatalf("Raise: %v", err)
	}

	acked, err := svc.Acknowledge(ctx, userID, a.ID)
	if err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if acked.Status != StatusAcknowledged {
		t.Errorf("status = %q", acked.Status)
	}

	// acknowledging twice fails
	if _, err := svc.Acknowledge(ctx, userID, a.ID); err == nil {
		t.Error("expected error acknowledging a non-open alert")
	}

	resolved, err := svc.Resolve(ctx, userID, a.ID)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !resolved.ActionTaken || resolved.ResolvedAt == nil {
		t.Error("resolve should record action and timestamp")
	}

	// no transitions out of resolved
	if _, err := svc.Dismiss(ctx, userID, a.ID, false); err == nil {
		t.Error("expected error dismissing a resolved alert")
	}
}

func TestDismissFalsePositive(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()

	a := &Alert{GroupID: uuid.New(), Severity: SeverityInfo, Category: CategoryOther, Message: "m"}
	if err := svc.Raise(ctx, a); err != nil {
		t.Fatalf("Raise: %v", err)
	}
	d, err := svc.Dismiss(ctx, uuid.New(), a.ID, true)
	if err != nil {
		t.Fatalf("Dismiss: %v", err)
	}
	if d.Status != StatusDismissed || !d.FalsePositive {
		t.Errorf("got status=%q falsePositive=%v", d.Status, d.FalsePositive)
	}
}

func TestMembershipEnforced(t *testing.T) {
	repo := newMockAlertRepo()
	svc := NewService(repo, denyAll{}, newMockDirectory())

	a := &Alert{GroupID: uuid.New(), Severity: SeverityInfo, Category: CategoryOther, Message: "m"}
	if err := svc.RaiseManual(context.Background(), uuid.New(), a); err != caregroup.ErrNotMember {
		t.Errorf("RaiseManual error = %v, want ErrNotMember", err)
	}
}

func TestComputeAnalytics(t *testing.T) {
	groupID := uuid.New()
	now := time.Now().UTC()
	alerts := []*Alert{
		{Status: StatusDismissed, FalsePositive: true},
		{Status: StatusDismissed},
		{Status: StatusResolved, ActionTaken: true},
		{Status: StatusOpen},
	}

	an := ComputeAnalytics(groupID, now.AddDate(0, 0, -30), now, alerts)
	if an.Total != 4 {
		t.Fatalf("total = %d", an.Total)
	}
	if an.DismissalRate != 0.5 {
		t.Errorf("dismissal rate = %v, want 0.5", an.DismissalRate)
	}
	if an.ActionRate != 0.25 {
		t.Errorf("action rate = %v, want 0.25", an.ActionRate)
	}
	if an.FalsePositiveRate != 0.25 {
		t.Errorf("false positive rate = %v, want 0.25", an.FalsePositiveRate)
	}

	empty := ComputeAnalytics(groupID, now, now, nil)
	if empty.DismissalRate != 0 || empty.ActionRate != 0 {
		t.Error("rates should be zero with no alerts")
	}
}

func seedAlerts(repo *mockAlertRepo, groupID uuid.UUID, statuses []string, falsePositives, actions int) {
	for i, status := range statuses {
		a := &Alert{
			ID:        uuid.New(),
			GroupID:   groupID,
			Severity:  SeverityWarning,
			Category:  CategoryOther,
			Message:   "seed",
			Status:    status,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
		}
		if i < falsePositives {
			a.FalsePositive = true
		}
		if i < actions {
			a.ActionTaken = true
		}
		repo.alerts[a.ID] = a
	}
}

func TestAutoTuneHighDismissalLowers(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityMedium

	// 7 of 10 dismissed: 70% > 60%
	statuses := []string{
		StatusDismissed, StatusDismissed, StatusDismissed, StatusDismissed,
		StatusDismissed, StatusDismissed, StatusDismissed,
		StatusOpen, StatusOpen, StatusOpen,
	}
	seedAlerts(repo, groupID, statuses, 0, 0)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityLow {
		t.Errorf("recommended = %q, want low", result.Recommended)
	}
	if dir.recommended[groupID] != caregroup.SensitivityLow {
		t.Error("recommendation was not persisted")
	}
	if dir.levels[groupID] != caregroup.SensitivityMedium {
		t.Error("active sensitivity should not change until accepted")
	}
}

func TestAutoTuneFalsePositivesLower(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityHigh

	// 4 of 10 false positives: 40% > 30%, dismissal stays under 60%
	statuses := []string{
		StatusDismissed, StatusDismissed, StatusDismissed, StatusDismissed,
		StatusOpen, StatusOpen, StatusOpen, StatusOpen, StatusOpen, StatusOpen,
	}
	seedAlerts(repo, groupID, statuses, 4, 0)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityMedium {
		t.Errorf("recommended = %q, want medium", result.Recommended)
	}
}

func TestAutoTuneHighActionRaises(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityMedium

	// 8 of 10 acted on: 80% > 70%
	statuses := make([]string, 10)
	for i := range statuses {
		statuses[i] = StatusResolved
	}
	seedAlerts(repo, groupID, statuses, 0, 8)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityHigh {
		t.Errorf("recommended = %q, want high", result.Recommended)
	}
}

func TestAutoTuneQuietGroupRaises(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityLow

	// only 2 alerts in window, below the minimum of 5
	seedAlerts(repo, groupID, []string{StatusOpen, StatusOpen}, 0, 0)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityMedium {
		t.Errorf("recommended = %q, want medium", result.Recommended)
	}
}

func TestAutoTuneLoweringWinsOverRaising(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityMedium

	// 7 of 10 dismissed AND 8 of 10 acted on: both rules fire, lowering wins
	statuses := []string{
		StatusDismissed, StatusDismissed, StatusDismissed, StatusDismissed,
		StatusDismissed, StatusDismissed, StatusDismissed,
		StatusResolved, StatusResolved, StatusResolved,
	}
	seedAlerts(repo, groupID, statuses, 0, 8)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityLow {
		t.Errorf("recommended = %q, want low (noise reduction wins)", result.Recommended)
	}
}

func TestAutoTuneAtLimitNoChange(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityHigh

	statuses := make([]string, 10)
	for i := range statuses {
		statuses[i] = StatusResolved
	}
	seedAlerts(repo, groupID, statuses, 0, 10)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityHigh {
		t.Errorf("recommended = %q, want unchanged high", result.Recommended)
	}
	if _, ok := dir.recommended[groupID]; ok {
		t.Error("no recommendation should be persisted at the limit")
	}
}

func TestAutoTuneNormalRangeNoChange(t *testing.T) {
	svc, repo, dir, _ := newTestService()
	groupID := uuid.New()
	dir.levels[groupID] = caregroup.SensitivityMedium

	// 10 alerts, 3 dismissed (30%), 5 acted on (50%), no false positives
	statuses := []string{
		StatusDismissed, StatusDismissed, StatusDismissed,
		StatusResolved, StatusResolved, StatusResolved, StatusResolved, StatusResolved,
		StatusOpen, StatusOpen,
	}
	seedAlerts(repo, groupID, statuses, 0, 5)

	result, err := svc.AutoTune(context.Background(), groupID)
	if err != nil {
		t.Fatalf("AutoTune: %v", err)
	}
	if result.Recommended != caregroup.SensitivityMedium {
		t.Errorf("recommended = %q, want unchanged medium", result.Recommended)
	}
}

func TestAutoTuneAll(t *testing.T) {
	svc, repo, dir, _ := newTestService()

	quiet := uuid.New()
	dir.levels[quiet] = caregroup.SensitivityLow

	noisy := uuid.New()
	dir.levels[noisy] = caregroup.SensitivityHigh
	statuses := make([]string, 10)
	for i := range statuses {
		statuses[i] = StatusDismissed
	}
	seedAlerts(repo, noisy, statuses, 0, 0)

	results, err := svc.AutoTuneAll(context.Background())
	if err != nil {
		t.Fatalf("AutoTuneAll: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if dir.recommended[quiet] != caregroup.SensitivityMedium {
		t.Errorf("quiet group recommendation = %q, want medium", dir.recommended[quiet])
	}
	if dir.recommended[noisy] != caregroup.SensitivityMedium {
		t.Errorf("noisy group recommendation = %q, want medium", dir.recommended[noisy])
	}
}
