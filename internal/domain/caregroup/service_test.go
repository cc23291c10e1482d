package caregroup

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockGroupRepo struct {
	groups  map[uuid.UUID]*CareGroup
	members map[uuid.UUID][]*Member
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		groups:  make(map[uuid.UUID]*CareGroup),
		members: make(map[uuid.UUID][]*Member),
	}
}

func (m *mockGroupRepo) Create(_ context.Context, g *CareGroup) error {
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupRepo) GetByID(_ context.Context, id uuid.UUID) (*CareGroup, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return g, nil
}

func (m *mockGroupRepo) Update(_ context.Context, g *CareGroup) error {
	m.groups[g.ID] = g
	return nil
}

func (m *mockGroupRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.groups, id)
	return nil
}

func (m *mockGroupRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]*CareGroup, error) {
	var out []*CareGroup
	for gid, members := range m.members {
		for _, mem := range members {
			if mem.UserID == userID {
				out = append(out, m.groups[gid])
			}
		}
	}
	return out, nil
}

func (m *mockGroupRepo) ListAll(_ context.Context) ([]*CareGroup, error) {
	var out []*CareGroup
	for _, g := range m.groups {
		out = append(out, g)
	}
	return out, nil
}

func (m *mockGroupRepo) AddMember(_ context.Context, mem *Member) error {
	mem.ID = uuid.New()
	mem.JoinedAt = time.Now()
	m.members[mem.GroupID] = append(m.members[mem.GroupID], mem)
	return nil
}

func (m *mockGroupRepo) GetMember(_ context.Context, groupID, userID uuid.UUID) (*Member, error) {
	for _, mem := range m.members[groupID] {
		if mem.UserID == userID {
			return mem, nil
		}
	}
	return nil, errors.New("not found")
}

func (m *mockGroupRepo) ListMembers(_ context.Context, groupID uuid.UUID) ([]*Member, error) {
	return m.members[groupID], nil
}

func (m *mockGroupRepo) RemoveMember(_ context.Context, groupID, userID uuid.UUID) error {
	members := m.members[groupID]
	for i, mem := range members {
		if mem.UserID == userID {
			m.members[groupID] = append(members[:i], members[i+1:]...)
			return nil
		}
	}
	return errors.New("not found")
}

func TestCreate_EnrollsOwner(t *testing.T) {
	svc := NewService(newMockGroupRepo())
	owner := uuid.New()

	g, err := svc.Create(context.Background(), "Mom's care", owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.AlertSensitivity != SensitivityMedium {
		t.Errorf("expected default medium sensitivity, got %s", g.AlertSensitivity)
	}

	members, err := svc.ListMembers(context.Background(), g.ID, owner)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(members) != 1 || members[0].Role != MemberRoleOwner {
		t.Errorf("expected creator enrolled as owner, got %+v", members)
	}
}

func TestGet_NonMemberForbidden(t *testing.T) {
	svc := NewService(newMockGroupRepo())
	owner := uuid.New()
	g, _ := svc.Create(context.Background(), "Mom's care", owner)

	if _, err := svc.Get(context.Background(), g.ID, uuid.New()); !errors.Is(err, ErrNotMember) {
		t.Errorf("expected ErrNotMember, got %v", err)
	}
}

func TestAddMember_OwnerOnly(t *testing.T) {
	svc := NewService(newMockGroupRepo())
	owner := uuid.New()
	other := uuid.New()
	g, _ := svc.Create(context.Background(), "Mom's care", owner)

	if err := svc.AddMember(context.Background(), g.ID, owner, &Member{UserID: other}); err != nil {
		t.Fatalf("owner add failed: %v", err)
	}
	if err := svc.AddMember(context.Background(), g.ID, other, &Member{UserID: uuid.New()}); err == nil {
		t.Error("expected non-owner add to fail")
	}
	if err := svc.AddMember(context.Background(), g.ID, owner, &Member{UserID: other}); err == nil {
		t.Error("expected duplicate member add to fail")
	}
}

func TestRemoveMember_LastOwnerProtected(t *testing.T) {
	svc := NewService(newMockGroupRepo())
	owner := uuid.New()
	g, _ := svc.Create(context.Background(), "Mom's care", owner)

	if err := svc.RemoveMember(context.Background(), g.ID, owner, owner); err == nil {
		t.Error("expected removing the last owner to fail")
	}
}

func TestSensitivity_Steps(t *testing.T) {
	cases := []struct {
		in          Sensitivity
		lower, rise Sensitivity
	}{
		{SensitivityLow, SensitivityLow, SensitivityMedium},
		{SensitivityMedium, SensitivityLow, SensitivityHigh},
		{SensitivityHigh, SensitivityMedium, SensitivityHigh},
	}
	for _, tc := range cases {
		if got := tc.in.Lower(); got != tc.lower {
			t.Errorf("%s.Lower() = %s, want %s", tc.in, got, tc.lower)
		}
		if got := tc.in.Raise(); got != tc.rise {
			t.Errorf("%s.Raise() = %s, want %s", tc.in, got, tc.rise)
		}
	}
}

func TestSetSensitivity(t *testing.T) {
	svc := NewService(newMockGroupRepo())
	owner := uuid.New()
	g, _ := svc.Create(context.Background(), "Mom's care", owner)

	updated, err := svc.SetSensitivity(context.Background(), g.ID, owner, SensitivityHigh)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.AlertSensitivity != SensitivityHigh {
		t.Errorf("expected high, got %s", updated.AlertSensitivity)
	}

	if _, err := svc.SetSensitivity(context.Background(), g.ID, owner, "extreme"); err == nil {
		t.Error("expected invalid sensitivity to fail")
	}
}
