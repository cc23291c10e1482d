package caregroup

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotMember is returned when a user tries to act on a group they do not
// belong to.
var ErrNotMember = fmt.Errorf("not a member of this care group")

type Service struct {
	groups GroupRepository
}

func NewService(groups GroupRepository) *Service {
	return &Service{groups: groups}
}

// Create makes a new care group and enrolls the creator as owner.
func (s *Service) Create(ctx context.Context, name string, creator uuid.UUID) (*CareGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	g := &CareGroup{
		Name:             name,
		CreatedBy:        creator,
		AlertSensitivity: SensitivityMedium,
	}
	if err := s.groups.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("create group: %w", err)
	}
	if err := s.groups.AddMember(ctx, &Member{
		GroupID: g.ID,
		UserID:  creator,
		Role:    MemberRoleOwner,
	}); err != nil {
		return nil, fmt.Errorf("enroll creator: %w", err)
	}
	return g, nil
}

// Get returns a group, enforcing membership.
func (s *Service) Get(ctx context.Context, groupID, userID uuid.UUID) (*CareGroup, error) {
	if err := s.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.groups.GetByID(ctx, groupID)
}

// ListMine returns the groups the user belongs to.
func (s *Service) ListMine(ctx context.Context, userID uuid.UUID) ([]*CareGroup, error) {
	return s.groups.ListForUser(ctx, userID)
}

// Rename changes the group name. Owner only.
func (s *Service) Rename(ctx context.Context, groupID, userID uuid.UUID, name string) (*CareGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if err := s.requireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	g.Name = name
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// SetSensitivity changes the group's alert sensitivity. Owner only; the
// auto-tune job uses UpdateSensitivity directly.
func (s *Service) SetSensitivity(ctx context.Context, groupID, userID uuid.UUID, level Sensitivity) (*CareGroup, error) {
	if !level.Valid() {
		return nil, fmt.Errorf("invalid sensitivity: %s", level)
	}
	if err := s.requireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.UpdateSensitivity(ctx, groupID, level)
}

// UpdateSensitivity persists a sensitivity change without a permission check.
// Callers are the owner path above and the nightly auto-tune job.
func (s *Service) UpdateSensitivity(ctx context.Context, groupID uuid.UUID, level Sensitivity) (*CareGroup, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	g.AlertSensitivity = level
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Sensitivity returns the group's current alert sensitivity.
func (s *Service) Sensitivity(ctx context.Context, groupID uuid.UUID) (Sensitivity, error) {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return "", err
	}
	return g.AlertSensitivity, nil
}

// RecordRecommendation stores an auto-tune suggestion on the group. It does
// not change the active sensitivity; an owner applies it via
// AcceptRecommendation.
func (s *Service) RecordRecommendation(ctx context.Context, groupID uuid.UUID, level Sensitivity, reason string) error {
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	g.RecommendedSensitivity = &level
	g.RecommendationReason = &reason
	g.RecommendedAt = &now
	return s.groups.Update(ctx, g)
}

// AcceptRecommendation applies the pending sensitivity recommendation and
// clears it. Owner only.
func (s *Service) AcceptRecommendation(ctx context.Context, groupID, userID uuid.UUID) (*CareGroup, error) {
	if err := s.requireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if g.RecommendedSensitivity == nil {
		return nil, fmt.Errorf("no pending sensitivity recommendation")
	}
	g.AlertSensitivity = *g.RecommendedSensitivity
	g.RecommendedSensitivity = nil
	g.RecommendationReason = nil
	g.RecommendedAt = nil
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// DismissRecommendation discards the pending recommendation. Owner only.
func (s *Service) DismissRecommendation(ctx context.Context, groupID, userID uuid.UUID) (*CareGroup, error) {
	if err := s.requireOwner(ctx, groupID, userID); err != nil {
		return nil, err
	}
	g, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	g.RecommendedSensitivity = nil
	g.RecommendationReason = nil
	g.RecommendedAt = nil
	if err := s.groups.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// AllGroupIDs returns every group id. Used by the nightly auto-tune sweep.
func (s *Service) AllGroupIDs(ctx context.Context) ([]uuid.UUID, error) {
	groups, err := s.groups.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(groups))
	for i, g := range groups {
		ids[i] = g.ID
	}
	return ids, nil
}

// MemberIDs returns the user ids of a group's members without a membership
// check. Used by the notification fan-out, which runs on behalf of the
// system rather than a caller.
func (s *Service) MemberIDs(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	members, err := s.groups.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	return ids, nil
}

// AddMember enrolls a user. Owner only.
func (s *Service) AddMember(ctx context.Context, groupID, actorID uuid.UUID, m *Member) error {
	if err := s.requireOwner(ctx, groupID, actorID); err != nil {
		return err
	}
	if m.Role == "" {
		m.Role = MemberRoleMember
	}
	if m.Role != MemberRoleOwner && m.Role != MemberRoleMember && m.Role != MemberRoleCaregiver {
		return fmt.Errorf("invalid member role: %s", m.Role)
	}
	if existing, err := s.groups.GetMember(ctx, groupID, m.UserID); err == nil && existing != nil {
		return fmt.Errorf("user is already a member")
	}
	m.GroupID = groupID
	return s.groups.AddMember(ctx, m)
}

// RemoveMember drops a user from the group. Owner only; the last owner
// cannot be removed.
func (s *Service) RemoveMember(ctx context.Context, groupID, actorID, userID uuid.UUID) error {
	if err := s.requireOwner(ctx, groupID, actorID); err != nil {
		return err
	}
	target, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil {
		return fmt.Errorf("member not found")
	}
	if target.Role == MemberRoleOwner {
		owners := 0
		members, err := s.groups.ListMembers(ctx, groupID)
		if err != nil {
			return err
		}
		for _, m := range members {
			if m.Role == MemberRoleOwner {
				owners++
			}
		}
		if owners <= 1 {
			return fmt.Errorf("cannot remove the last owner")
		}
	}
	return s.groups.RemoveMember(ctx, groupID, userID)
}

// ListMembers returns the group roster, enforcing membership.
func (s *Service) ListMembers(ctx context.Context, groupID, userID uuid.UUID) ([]*Member, error) {
	if err := s.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.groups.ListMembers(ctx, groupID)
}

// RequireMember returns ErrNotMember unless the user belongs to the group.
// Other domain services use this as their access check.
func (s *Service) RequireMember(ctx context.Context, groupID, userID uuid.UUID) error {
	m, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil || m == nil {
		return ErrNotMember
	}
	return nil
}

func (s *Service) requireOwner(ctx context.Context, groupID, userID uuid.UUID) error {
	m, err := s.groups.GetMember(ctx, groupID, userID)
	if err != nil || m == nil {
		return ErrNotMember
	}
	if m.Role != MemberRoleOwner {
		return fmt.Errorf("only the group owner can do this")
	}
	return nil
}
