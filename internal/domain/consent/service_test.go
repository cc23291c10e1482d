package consent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockConsentRepo struct {
	consents map[uuid.UUID]*Consent
	access   []*AccessEntry
}

func newMockConsentRepo() *mockConsentRepo {
	return &mockConsentRepo{consents: make(map[uuid.UUID]*Consent)}
}

var errNotFound = errors.New("not found")

func (m *mockConsentRepo) Create(_ context.Context, c *Consent) error {
	c.ID = uuid.New()
	c.GrantedAt = time.Now().UTC()
	cp := *c
	m.consents[c.ID] = &cp
	return nil
}

func (m *mockConsentRepo) GetByID(_ context.Context, id uuid.UUID) (*Consent, error) {
	c, ok := m.consents[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockConsentRepo) Update(_ context.Context, c *Consent) error {
	cp := *c
	m.consents[c.ID] = &cp
	return nil
}

func (m *mockConsentRepo) ListByElder(_ context.Context, elderID uuid.UUID) ([]*Consent, error) {
	var out []*Consent
	for _, c := range m.consents {
		if c.ElderID == elderID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConsentRepo) FindGranted(_ context.Context, userID, elderID uuid.UUID) ([]*Consent, error) {
	var out []*Consent
	for _, c := range m.consents {
		if c.GrantedTo == userID && c.ElderID == elderID && c.Status == StatusGranted {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockConsentRepo) RecordAccess(_ context.Context, e *AccessEntry) error {
	e.ID = uuid.New()
	e.OccurredAt = time.Now().UTC()
	m.access = append(m.access, e)
	return nil
}

func (m *mockConsentRepo) ListAccess(_ context.Context, elderID uuid.UUID, _, _ int) ([]*AccessEntry, int, error) {
	var out []*AccessEntry
	for _, e := range m.access {
		if e.ElderID == elderID {
			out = append(out, e)
		}
	}
	return out, len(out), nil
}

type allowAll struct{}

func (allowAll) RequireMember(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func newTestService() (*Service, *mockConsentRepo) {
	repo := newMockConsentRepo()
	return NewService(repo, allowAll{}), repo
}

func grant(t *testing.T, svc *Service, grantee, elderID uuid.UUID, scope string) *Consent {
	t.Helper()
	c := &Consent{
		ElderID:   elderID,
		GroupID:   uuid.New(),
		GrantedTo: grantee,
		Scope:     scope,
	}
	if err := svc.Grant(context.Background(), uuid.New(), c); err != nil {
		t.Fatalf("Grant: %v", err)
	}
	return c
}

func TestGrantAndCheck(t *testing.T) {
	svc, _ := newTestService()
	grantee := uuid.New()
	elderID := uuid.New()

	grant(t, svc, grantee, elderID, ScopeMedication)

	ok, err := svc.HasConsent(context.Background(), grantee, elderID, ScopeMedication)
	if err != nil || !ok {
		t.Errorf("HasConsent = %v, %v; want true", ok, err)
	}
	ok, _ = svc.HasConsent(context.Background(), grantee, elderID, ScopeDiet)
	if ok {
		t.Error("diet scope should not be covered by a medication grant")
	}
	ok, _ = svc.HasConsent(context.Background(), uuid.New(), elderID, ScopeMedication)
	if ok {
		t.Error("other users should have no consent")
	}
}

func TestFullScopeCoversAll(t *testing.T) {
	svc, _ := newTestService()
	grantee := uuid.New()
	elderID := uuid.New()

	grant(t, svc, grantee, elderID, ScopeFull)

	for _, scope := range []string{ScopeMedication, ScopeDiet, ScopeAlerts, ScopeReports} {
		ok, err := svc.HasConsent(context.Background(), grantee, elderID, scope)
		if err != nil || !ok {
			t.Errorf("full grant should cover %s", scope)
		}
	}
}

func TestGrantValidation(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	err := svc.Grant(ctx, uuid.New(), &Consent{
		ElderID: uuid.New(), GroupID: uuid.New(), GrantedTo: uuid.New(), Scope: "everything",
	})
	if err == nil {
		t.Error("expected error for invalid scope")
	}

	err = svc.Grant(ctx, uuid.New(), &Consent{
		ElderID: uuid.New(), GroupID: uuid.New(), Scope: ScopeDiet,
	})
	if err == nil {
		t.Error("expected error for missing grantee")
	}
}

func TestDuplicateGrantRejected(t *testing.T) {
	svc, _ := newTestService()
	grantee := uuid.New()
	elderID := uuid.New()

	grant(t, svc, grantee, elderID, ScopeAlerts)

	err := svc.Grant(context.Background(), uuid.New(), &Consent{
		ElderID: elderID, GroupID: uuid.New(), GrantedTo: grantee, Scope: ScopeAlerts,
	})
	if err == nil {
		t.Error("expected duplicate grant rejection")
	}
}

func TestRevokeAndRegrant(t *testing.T) {
	svc, _ := newTestService()
	grantee := uuid.New()
	elderID := uuid.New()
	ctx := context.Background()

	c := grant(t, svc, grantee, elderID, ScopeReports)

	revoked, err := svc.Revoke(ctx, uuid.New(), c.ID)
	if err != nil {
		t.Fatalf("Revoke: %v", err)
	}
	if revoked.Status != StatusRevoked || revoked.RevokedAt == nil {
		t.Errorf("got status=%q revokedAt=%v", revoked.Status, revoked.RevokedAt)
	}

	ok, _ := svc.HasConsent(ctx, grantee, elderID, ScopeReports)
	if ok {
		t.Error("revoked consent should not authorize access")
	}

	// double revoke fails
	if _, err := svc.Revoke(ctx, uuid.New(), c.ID); err == nil {
		t.Error("expected error revoking twice")
	}

	// regrant works after revoke
	grant(t, svc, grantee, elderID, ScopeReports)
	ok, _ = svc.HasConsent(ctx, grantee, elderID, ScopeReports)
	if !ok {
		t.Error("regrant after revoke should authorize access")
	}
}

func TestAuthorizeRecordsAccess(t *testing.T) {
	svc, repo := newTestService()
	grantee := uuid.New()
	elderID := uuid.New()
	ctx := context.Background()

	grant(t, svc, grantee, elderID, ScopeReports)

	if err := svc.Authorize(ctx, grantee, elderID, ScopeReports, "report.weekly"); err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if len(repo.access) != 1 {
		t.Fatalf("access log has %d entries, want 1", len(repo.access))
	}
	if repo.access[0].Resource != "report.weekly" {
		t.Errorf("resource = %q", repo.access[0].Resource)
	}

	// denied access is not logged
	err := svc.Authorize(ctx, uuid.New(), elderID, ScopeReports, "report.weekly")
	if !errors.Is(err, ErrNoConsent) {
		t.Errorf("err = %v, want ErrNoConsent", err)
	}
	if len(repo.access) != 1 {
		t.Error("denied access must not be logged")
	}
}
