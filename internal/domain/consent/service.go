package consent

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrNoConsent is returned when a user reads elder data through a surface
// that requires an explicit consent grant.
var ErrNoConsent = fmt.Errorf("no consent granted for this data")

var validScopes = map[string]bool{
	ScopeMedication: true, ScopeDiet: true, ScopeAlerts: true,
	ScopeReports: true, ScopeFull: true,
}

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

type Service struct {
	repo    ConsentRepository
	members MembershipChecker
}

func NewService(repo ConsentRepository, members MembershipChecker) *Service {
	return &Service{repo: repo, members: members}
}

// Grant authorizes a user for a scope of an elder's data. The granter must
// be a group member; regranting a revoked scope creates a fresh record.
func (s *Service) Grant(ctx context.Context, granterID uuid.UUID, c *Consent) error {
	if err := s.members.RequireMember(ctx, c.GroupID, granterID); err != nil {
		return err
	}
	if !validScopes[c.Scope] {
		return fmt.Errorf("invalid scope: %s", c.Scope)
	}
	if c.GrantedTo == uuid.Nil {
		return fmt.Errorf("granted_to is required")
	}
	existing, err := s.repo.FindGranted(ctx, c.GrantedTo, c.ElderID)
	if err == nil {
		for _, g := range existing {
			if g.Scope == c.Scope {
				return fmt.Errorf("consent already granted for scope %s", c.Scope)
			}
		}
	}
	c.Status = StatusGranted
	c.GrantedBy = granterID
	return s.repo.Create(ctx, c)
}

// Revoke withdraws a granted consent. Any group member can revoke.
func (s *Service) Revoke(ctx context.Context, userID, consentID uuid.UUID) (*Consent, error) {
	c, err := s.repo.GetByID(ctx, consentID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, c.GroupID, userID); err != nil {
		return nil, err
	}
	if c.Status == StatusRevoked {
		return nil, fmt.Errorf("consent is already revoked")
	}
	now := time.Now().UTC()
	c.Status = StatusRevoked
	c.RevokedAt = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListByElder returns all consent records for an elder, for members.
func (s *Service) ListByElder(ctx context.Context, userID, groupID, elderID uuid.UUID) ([]*Consent, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.repo.ListByElder(ctx, elderID)
}

// HasConsent reports whether the user holds a granted consent covering the
// scope. A full-scope grant covers everything.
func (s *Service) HasConsent(ctx context.Context, userID, elderID uuid.UUID, scope string) (bool, error) {
	grants, err := s.repo.FindGranted(ctx, userID, elderID)
	if err != nil {
		return false, err
	}
	for _, g := range grants {
		if g.Scope == scope || g.Scope == ScopeFull {
			return true, nil
		}
	}
	return false, nil
}

// Authorize checks consent and records the access when it passes. The
// export and report surfaces call this before reading elder data.
func (s *Service) Authorize(ctx context.Context, userID, elderID uuid.UUID, scope, resource string) error {
	ok, err := s.HasConsent(ctx, userID, elderID, scope)
	if err != nil {
		return fmt.Errorf("check consent: %w", err)
	}
	if !ok {
		return ErrNoConsent
	}
	return s.RecordAccess(ctx, userID, elderID, resource)
}

// RecordAccess appends a compliance-log entry. Failures are logged but never
// block the read that triggered them.
func (s *Service) RecordAccess(ctx context.Context, userID, elderID uuid.UUID, resource string) error {
	entry := &AccessEntry{UserID: userID, ElderID: elderID, Resource: resource}
	if err := s.repo.RecordAccess(ctx, entry); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("elder_id", elderID.String()).
			Str("resource", resource).
			Msg("failed to record access log entry")
	}
	return nil
}

// AccessLog returns the elder's compliance log, newest first, for members.
func (s *Service) AccessLog(ctx context.Context, userID, groupID, elderID uuid.UUID, limit, offset int) ([]*AccessEntry, int, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, 0, err
	}
	return s.repo.ListAccess(ctx, elderID, limit, offset)
}
