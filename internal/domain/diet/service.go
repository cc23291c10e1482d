package diet

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// ElderResolver reports which group an elder belongs to. Satisfied by the
// elder service.
type ElderResolver interface {
	GroupOf(ctx context.Context, elderID uuid.UUID) (uuid.UUID, error)
}

// AlertRaiser receives diet-violation events. Wired to the alert service;
// may be nil.
type AlertRaiser interface {
	RaiseDietViolation(ctx context.Context, groupID, elderID uuid.UUID, substances []string) error
}

var validMealTypes = map[string]bool{
	MealBreakfast: true, MealLunch: true, MealDinner: true, MealSnack: true,
}

type Service struct {
	diet    DietRepository
	members MembershipChecker
	elders  ElderResolver
	alerts  AlertRaiser
}

func NewService(diet DietRepository, members MembershipChecker, elders ElderResolver) *Service {
	return &Service{diet: diet, members: members, elders: elders}
}

// requireElderInGroup verifies the elder really belongs to the claimed group
// and the caller is a member of it. Without the first check a member of any
// group could act on any elder by passing their own group id.
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

// SetAlertRaiser wires the violation alert hook.
func (s *Service) SetAlertRaiser(a AlertRaiser) {
	s.alerts = a
}

// LogMeal records a meal, checking its description against the elder's
// restrictions. Any matches are stored on the entry and raise an alert.
func (s *Service) LogMeal(ctx context.Context, userID uuid.UUID, e *Entry) error {
	if !validMealTypes[e.MealType] {
		return fmt.Errorf("invalid meal type: %s", e.MealType)
	}
	if strings.TrimSpace(e.Description) == "" {
		return fmt.Errorf("description is required")
	}
	if err := s.requireElderInGroup(ctx, userID, e.ElderID, e.GroupID); err != nil {
		return err
	}

	restrictions, err := s.diet.ListRestrictions(ctx, e.ElderID)
	if err != nil {
		return err
	}
	e.Violations = FindViolations(e.Description, restrictions)
	e.LoggedBy = userID
	if e.ConsumedAt.IsZero() {
		e.ConsumedAt = time.Now().UTC()
	}

	if err := s.diet.CreateEntry(ctx, e); err != nil {
		return err
	}

	if len(e.Violations) > 0 && s.alerts != nil {
		if err := s.alerts.RaiseDietViolation(ctx, e.GroupID, e.ElderID, e.Violations); err != nil {
			return fmt.Errorf("meal logged but alert failed: %w", err)
		}
	}
	return nil
}

// FindViolations returns the restricted substances mentioned in a meal
// description. Matching is case-insensitive substring containment.
func FindViolations(description string, restrictions []*Restriction) []string {
	desc := strings.ToLower(description)
	violations := []string{}
	for _, r := range restrictions {
		substance := strings.ToLower(strings.TrimSpace(r.Substance))
		if substance == "" {
			continue
		}
		if strings.Contains(desc, substance) {
			violations = append(violations, r.Substance)
		}
	}
	return violations
}

func (s *Service) ListEntries(ctx context.Context, userID, elderID, groupID uuid.UUID, from, to time.Time) ([]*Entry, error) {
	if err := s.requireElderInGroup(ctx, userID, elderID, groupID); err != nil {
		return nil, err
	}
	return s.diet.ListEntries(ctx, elderID, from, to)
}

// MealStats counts meals and restriction violations for an elder over a
// window. No membership check; used by the weekly report aggregation.
func (s *Service) MealStats(ctx context.Context, elderID uuid.UUID, from, to time.Time) (meals, violations int, err error) {
	entries, err := s.diet.ListEntries(ctx, elderID, from, to)
	if err != nil {
		return 0, 0, err
	}
	for _, e := range entries {
		meals++
		if len(e.Violations) > 0 {
			violations++
		}
	}
	return meals, violations, nil
}

func (s *Service) DeleteEntry(ctx context.Context, userID, entryID uuid.UUID) error {
	e, err := s.diet.GetEntry(ctx, entryID)
	if err != nil {
		return err
	}
	if err := s.members.RequireMember(ctx, e.GroupID, userID); err != nil {
		return err
	}
	return s.diet.DeleteEntry(ctx, entryID)
}

// AddRestriction registers a substance the elder must avoid.
func (s *Service) AddRestriction(ctx context.Context, userID, groupID uuid.UUID, r *Restriction) error {
	if strings.TrimSpace(r.Substance) == "" {
		return fmt.Errorf("substance is required")
	}
	if err := s.requireElderInGroup(ctx, userID, r.ElderID, groupID); err != nil {
		return err
	}
	existing, err := s.diet.ListRestrictions(ctx, r.ElderID)
	if err != nil {
		return err
	}
	for _, ex := range existing {
		if strings.EqualFold(ex.Substance, r.Substance) {
			return fmt.Errorf("restriction already exists: %s", ex.Substance)
		}
	}
	return s.diet.AddRestriction(ctx, r)
}

func (s *Service) ListRestrictions(ctx context.Context, userID, elderID, groupID uuid.UUID) ([]*Restriction, error) {
	if err := s.requireElderInGroup(ctx, userID, elderID, groupID); err != nil {
		return nil, err
	}
	return s.diet.ListRestrictions(ctx, elderID)
}

func (s *Service) RemoveRestriction(ctx context.Context, userID, groupID, restrictionID uuid.UUID) error {
	r, err := s.diet.GetRestriction(ctx, restrictionID)
	if err != nil {
		return fmt.Errorf("restriction not found")
	}
	if err := s.requireElderInGroup(ctx, userID, r.ElderID, groupID); err != nil {
		return err
	}
	return s.diet.RemoveRestriction(ctx, restrictionID)
}
