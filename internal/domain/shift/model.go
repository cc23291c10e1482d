// Package shift manages caregiver shift sessions: scheduling, clock-in/out,
// free-text notes, and the handoff summary generated for the next caregiver.
package shift

import (
	"time"

	"github.com/google/uuid"
)

// Shift statuses.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusCancelled  = "cancelled"
)

// Shift is one caregiver session with an elder.
type Shift struct {
	ID             uuid.UUID  `json:"id"`
	GroupID        uuid.UUID  `json:"groupId"`
	ElderID        uuid.UUID  `json:"elderId"`
	CaregiverID    uuid.UUID  `json:"caregiverId"`
	ScheduledStart time.Time  `json:"scheduledStart"`
	ScheduledEnd   time.Time  `json:"scheduledEnd"`
	ClockInAt      *time.Time `json:"clockInAt,omitempty"`
	ClockOutAt     *time.Time `json:"clockOutAt,omitempty"`
	Status         string     `json:"status"`
	HandoffSummary *string    `json:"handoffSummary,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

// Window returns the actual shift window when clocked, falling back to the
// scheduled one.
func (s *Shift) Window() (time.Time, time.Time) {
	start, end := s.ScheduledStart, s.ScheduledEnd
	if s.ClockInAt != nil {
		start = *s.ClockInAt
	}
	if s.ClockOutAt != nil {
		end = *s.ClockOutAt
	}
	return start, end
}

// Note is a free-text observation appended during a shift.
type Note struct {
	ID        uuid.UUID `json:"id"`
	ShiftID   uuid.UUID `json:"shiftId"`
	AuthorID  uuid.UUID `json:"authorId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Handoff is the tiered summary generated from a shift's notes.
type Handoff struct {
	ShiftID     uuid.UUID `json:"shiftId"`
	CaregiverID uuid.UUID `json:"caregiverId"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Critical    []string  `json:"critical"`
	Concerns    []string  `json:"concerns"`
	Routine     []string  `json:"routine"`
	DosesTaken  int       `json:"dosesTaken"`
	DosesMissed int       `json:"dosesMissed"`
	Summary     string    `json:"summary"`
	GeneratedAt time.Time `json:"generatedAt"`
}
