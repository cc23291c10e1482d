package shift

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MembershipChecker is satisfied by the caregroup service.
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID uuid.UUID) error
}

// DoseCounter reports dose outcomes for an elder over a window. Satisfied by
// the medication service; used to include administration counts in handoffs.
type DoseCounter interface {
	DoseCounts(ctx context.Context, elderID uuid.UUID, from, to time.Time) (taken, missed int, err error)
}

type Service struct {
	shifts  ShiftRepository
	members MembershipChecker
	doses   DoseCounter
}

func NewService(shifts ShiftRepository, members MembershipChecker, doses DoseCounter) *Service {
	return &Service{shifts: shifts, members: members, doses: doses}
}

// Schedule creates a shift. The caregiver must not already have a shift
// overlapping the window.
func (s *Service) Schedule(ctx context.Context, userID uuid.UUID, sh *Shift) error {
	if err := s.members.RequireMember(ctx, sh.GroupID, userID); err != nil {
		return err
	}
	if sh.CaregiverID == uuid.Nil {
		return fmt.Errorf("caregiver_id is required")
	}
	if sh.ElderID == uuid.Nil {
		return fmt.Errorf("elder_id is required")
	}
	if !sh.ScheduledEnd.After(sh.ScheduledStart) {
		return fmt.Errorf("shift end must be after start")
	}
	overlapping, err := s.shifts.ListOverlapping(ctx, sh.CaregiverID, sh.ScheduledStart, sh.ScheduledEnd)
	if err != nil {
		return fmt.Errorf("check overlap: %w", err)
	}
	if len(overlapping) > 0 {
		return fmt.Errorf("caregiver already has a shift in this window")
	}
	sh.Status = StatusScheduled
	return s.shifts.Create(ctx, sh)
}

func (s *Service) Get(ctx context.Context, userID, shiftID uuid.UUID) (*Shift, error) {
	sh, err := s.shifts.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if err := s.members.RequireMember(ctx, sh.GroupID, userID); err != nil {
		return nil, err
	}
	return sh, nil
}

func (s *Service) ListByGroup(ctx context.Context, userID, groupID uuid.UUID, from, to time.Time) ([]*Shift, error) {
	if err := s.members.RequireMember(ctx, groupID, userID); err != nil {
		return nil, err
	}
	return s.shifts.ListByGroup(ctx, groupID, from, to)
}

// ClockIn starts a scheduled shift. Only the assigned caregiver can clock in.
func (s *Service) ClockIn(ctx context.Context, userID, shiftID uuid.UUID) (*Shift, error) {
	sh, err := s.Get(ctx, userID, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.CaregiverID != userID {
		return nil, fmt.Errorf("only the assigned caregiver can clock in")
	}
	if sh.Status != StatusScheduled {
		return nil, fmt.Errorf("shift is %s, not scheduled", sh.Status)
	}
	now := time.Now().UTC()
	sh.ClockInAt = &now
	sh.Status = StatusInProgress
	if err := s.shifts.Update(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// ClockOut ends an in-progress shift and generates the handoff summary.
func (s *Service) ClockOut(ctx context.Context, userID, shiftID uuid.UUID) (*Shift, error) {
	sh, err := s.Get(ctx, userID, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.CaregiverID != userID {
		return nil, fmt.Errorf("only the assigned caregiver can clock out")
	}
	if sh.Status != StatusInProgress {
		return nil, fmt.Errorf("shift is %s, not in progress", sh.Status)
	}
	now := time.Now().UTC()
	sh.ClockOutAt = &now
	sh.Status = StatusCompleted

	handoff, err := s.buildHandoff(ctx, sh)
	if err != nil {
		return nil, err
	}
	sh.HandoffSummary = &handoff.Summary

	if err := s.shifts.Update(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// Cancel drops a shift that has not started.
func (s *Service) Cancel(ctx context.Context, userID, shiftID uuid.UUID) (*Shift, error) {
	sh, err := s.Get(ctx, userID, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.Status != StatusScheduled {
		return nil, fmt.Errorf("only scheduled shifts can be cancelled")
	}
	sh.Status = StatusCancelled
	if err := s.shifts.Update(ctx, sh); err != nil {
		return nil, err
	}
	return sh, nil
}

// AddNote appends an observation to an in-progress shift.
func (s *Service) AddNote(ctx context.Context, userID, shiftID uuid.UUID, content string) (*Note, error) {
	if content == "" {
		return nil, fmt.Errorf("note content is required")
	}
	sh, err := s.Get(ctx, userID, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.Status != StatusInProgress {
		return nil, fmt.Errorf("notes can only be added during a shift")
	}
	n := &Note{ShiftID: sh.ID, AuthorID: userID, Content: content}
	if err := s.shifts.AddNote(ctx, n); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) ListNotes(ctx context.Context, userID, shiftID uuid.UUID) ([]*Note, error) {
	if _, err := s.Get(ctx, userID, shiftID); err != nil {
		return nil, err
	}
	return s.shifts.ListNotes(ctx, shiftID)
}

// GetHandoff generates the handoff for a shift on demand.
func (s *Service) GetHandoff(ctx context.Context, userID, shiftID uuid.UUID) (*Handoff, error) {
	sh, err := s.Get(ctx, userID, shiftID)
	if err != nil {
		return nil, err
	}
	if sh.Status == StatusScheduled || sh.Status == StatusCancelled {
		return nil, fmt.Errorf("shift has no notes to hand off")
	}
	return s.buildHandoff(ctx, sh)
}

func (s *Service) buildHandoff(ctx context.Context, sh *Shift) (*Handoff, error) {
	notes, err := s.shifts.ListNotes(ctx, sh.ID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	start, end := sh.Window()
	taken, missed := 0, 0
	if s.doses != nil {
		taken, missed, err = s.doses.DoseCounts(ctx, sh.ElderID, start, end)
		if err != nil {
			return nil, fmt.Errorf("dose counts: %w", err)
		}
	}
	return BuildHandoff(sh, notes, taken, missed), nil
}

// WindowHighlights collects the critical and concern notes from a group's
// shifts in a window, for the weekly report. Capped at 10.
func (s *Service) WindowHighlights(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]string, error) {
	shifts, err := s.shifts.ListByGroup(ctx, groupID, from, to)
	if err != nil {
		return nil, err
	}
	var highlights []string
	for _, sh := range shifts {
		notes, err := s.shifts.ListNotes(ctx, sh.ID)
		if err != nil {
			return nil, err
		}
		for _, n := range notes {
			if classifyNote(n.Content) != "routine" {
				highlights = append(highlights, n.Content)
				if len(highlights) == 10 {
					return highlights, nil
				}
			}
		}
	}
	return highlights, nil
}

// CompletedInWindow counts completed shifts for a group. Used by the weekly
// report.
func (s *Service) CompletedInWindow(ctx context.Context, groupID uuid.UUID, from, to time.Time) (completed, total int, err error) {
	shifts, err := s.shifts.ListByGroup(ctx, groupID, from, to)
	if err != nil {
		return 0, 0, err
	}
	for _, sh := range shifts {
		if sh.Status == StatusCancelled {
			continue
		}
		total++
		if sh.Status == StatusCompleted {
			completed++
		}
	}
	return completed, total, nil
}
