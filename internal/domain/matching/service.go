package matching

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/domain/agency"
	"github.com/carelink/carelink/internal/domain/elder"
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// PoolProvider supplies the matchable caregiver pool. Satisfied by the
// agency service.
type PoolProvider interface {
	MatchablePool(ctx context.Context) ([]*agency.CaregiverProfile, error)
}

// ElderSource resolves elders for location defaults. Satisfied by the elder
// service.
type ElderSource interface {
	Get(ctx context.Context, userID, elderID uuid.UUID) (*elder.Elder, error)
}

type Service struct {
	pool     PoolProvider
	elders   ElderSource
	members  MembershipChecker
	radiusKm float64
}

func NewService(pool PoolProvider, elders ElderSource, members MembershipChecker, radiusKm float64) *Service {
	if radiusKm <= 0 {
		radiusKm = DefaultRadiusKm
	}
	return &Service{pool: pool, elders: elders, members: members, radiusKm: radiusKm}
}

// FindForElder runs a match search seeded from the elder's profile: stored
// location and languages fill in whatever the request leaves unset.
func (s *Service) FindForElder(ctx context.Context, userID, groupID, elderID uuid.UUID, req Request) ([]Match, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	e, err := s.elders.Get(ctx, userID, elderID)
	if err != nil {
		return nil, fmt.Errorf("elder not found")
	}
	if e.GroupID != groupID {
		return nil, fmt.Errorf("elder does not belong to this group")
	}
	if req.Latitude == nil || req.Longitude == nil {
		req.Latitude = e.Latitude
		req.Longitude = e.Longitude
	}
	if len(req.Languages) == 0 {
		req.Languages = e.Languages
	}
	if req.RadiusKm <= 0 {
		req.RadiusKm = s.radiusKm
	}

	candidates, err := s.pool.MatchablePool(ctx)
	if err != nil {
		return nil, fmt.Errorf("load candidate pool: %w", err)
	}
	return FindMatches(req, candidates), nil
}
