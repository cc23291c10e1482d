// Package medication manages medications, dose schedules, dose logging,
// adherence reporting, and the AI-backed interaction check.
package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication is one prescribed or over-the-counter medication for an elder.
type Medication struct {
	ID           uuid.UUID `json:"id"`
	ElderID      uuid.UUID `json:"elderId"`
	GroupID      uuid.UUID `json:"groupId"`
	Name         string    `json:"name"`
	Dosage       string    `json:"dosage"` // "10mg"
	Instructions *string   `json:"instructions,omitempty"`
	PrescribedBy *string   `json:"prescribedBy,omitempty"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Schedule is a recurring dose time for a medication. TimeOfDay is "HH:MM"
// in the group's local time; DaysOfWeek uses Mon..Sun abbreviations, empty
// meaning every day.
type Schedule struct {
	ID           uuid.UUID `json:"id"`
	MedicationID uuid.UUID `json:"medicationId"`
	TimeOfDay    string    `json:"timeOfDay"`
	DaysOfWeek   []string  `json:"daysOfWeek"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Dose log statuses.
const (
	DoseTaken   = "taken"
	DoseMissed  = "missed"
	DoseSkipped = "skipped"
)

// DoseLog records what happened with one scheduled (or ad-hoc) dose.
type DoseLog struct {
	ID           uuid.UUID  `json:"id"`
	MedicationID uuid.UUID  `json:"medicationId"`
	ScheduleID   *uuid.UUID `json:"scheduleId,omitempty"`
	ElderID      uuid.UUID  `json:"elderId"`
	ScheduledFor time.Time  `json:"scheduledFor"`
	Status       string     `json:"status"`
	LoggedBy     uuid.UUID  `json:"loggedBy"`
	Notes        *string    `json:"notes,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// AdherenceReport summarizes dose outcomes over a window. Skipped doses are
// excluded from the rate: they are deliberate, not missed.
type AdherenceReport struct {
	ElderID uuid.UUID `json:"elderId"`
	From    time.Time `json:"from"`
	To      time.Time `json:"to"`
	Taken   int       `json:"taken"`
	Missed  int       `json:"missed"`
	Skipped int       `json:"skipped"`
	Rate    float64   `json:"rate"` // taken / (taken + missed), 1.0 when no doses
}

// ScheduleWithMedication joins a schedule with its medication for the
// reminder sweep.
type ScheduleWithMedication struct {
	Schedule   *Schedule
	Medication *Medication
}
