package elder

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

type Service struct {
	elders  ElderRepository
	members MembershipChecker
}

func NewService(elders ElderRepository, members MembershipChecker) *Service {
	return &Service{elders: elders, members: members}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, e *Elder) error {
	if e.FirstName == "" || e.LastName == "" {
		return fmt.Errorf("first and last name are required")
	}
	if e.GroupID == uuid.Nil {
		return fmt.Errorf("group_id is required")
	}
	if (e.Latitude == nil) != (e.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	if err := s.members.RequireMember(ctx, e.GroupID, userID); err != nil {
		return err
	}
	return s.elders.Create(ctx, e)
}

func (s *Service) Get(ctx context.Context, userID, elderID uuid.UUID) (*Elder, error) {
	e, err := s.elders.GetByID(ctx, elderID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, e.GroupID, userID); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, userID uuid.UUID, e *Elder) error {
	existing, err := s.elders.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if err := s.members.RequireMember(ctx, existing.GroupID, userID); err != nil {
		return err
	}
	if (e.Latitude == nil) != (e.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	e.GroupID = existing.GroupID
	return s.elders.Update(ctx, e)
}

func (s *Service) Delete(ctx context.Context, userID, elderID uuid.UUID) error {
	e, err := s.elders.GetByID(ctx, elderID)
	if err != nil {
		return err
	}
	if err := s.members.RequireMember(ctx, e.GroupID, userID); err != nil {
		return err
	}
	return s.elders.Delete(ctx, elderID)
}

// GroupOf returns the group an elder belongs to. Other domain services use
// it to anchor their membership checks to the elder's real group instead of
// a caller-supplied one.
func (s *Service) GroupOf(ctx context.Context, elderID uuid.UUID) (uuid.UUID, error) {
	e, err := s.elders.GetByID(ctx, elderID)
	if err != nil {
		return uuid.Nil, err
	}
	return e.GroupID, nil
}

// AllInGroup lists a group's elders without a membership check. Used by the
// weekly report job, which runs without a requesting user.
func (s *Service) AllInGroup(ctx context.Context, groupID uuid.UUID) ([]*Elder, error) {
	return s.elders.ListByGroup(ctx, groupID)
}

func (s *Service) ListByGroup(ctx context.Context, userID, groupID uuid.UUID) ([]*Elder, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.elders.ListByGroup(ctx, groupID)
}
