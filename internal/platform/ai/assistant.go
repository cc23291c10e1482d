// Package ai provides the language-model integration used for medication
// interaction checks, weekly summary narratives, and the caregiver chat
// assistant. A rule-based fallback covers operation without an API key.
package ai

import (
	"context"
	"time"
)

// InteractionSeverity grades a detected medication interaction.
type InteractionSeverity string

const (
	SeverityMinor    InteractionSeverity = "minor"
	SeverityModerate InteractionSeverity = "moderate"
	SeverityMajor    InteractionSeverity = "major"
)

// Interaction describes one pairwise medication interaction.
type Interaction struct {
	MedicationA string              `json:"medicationA"`
	MedicationB string              `json:"medicationB"`
	Severity    InteractionSeverity `json:"severity"`
	Description string              `json:"description"`
}

// InteractionReport is the result of checking a medication list.
type InteractionReport struct {
	Medications  []string      `json:"medications"`
	Interactions []Interaction `json:"interactions"`
	Summary      string        `json:"summary"`
	Source       string        `json:"source"` // "gemini" or "rules"
	CheckedAt    time.Time     `json:"checkedAt"`
}

// WeeklyInput carries the aggregated numbers a narrative is written from.
type WeeklyInput struct {
	ElderName         string
	WeekStart         time.Time
	AdherenceRate     float64 // 0..1
	DosesTaken        int
	DosesMissed       int
	MealsLogged       int
	DietViolations    int
	AlertsRaised      int
	AlertsCritical    int
	ShiftsCompleted   int
	HandoffHighlights []string
}

// ChatTurn is one exchange in a chat history.
type ChatTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// Assistant is implemented by both the Gemini client and the rule-based
// fallback.
type Assistant interface {
	CheckInteractions(ctx context.Context, medications []string) (*InteractionReport, error)
	WeeklyNarrative(ctx context.Context, input WeeklyInput) (string, error)
	Chat(ctx context.Context, history []ChatTurn, question string) (string, error)
	SummarizeDocument(ctx context.Context, text string) (string, error)
}

// WithFallback wraps a primary assistant so that any failure falls through to
// the secondary. Used to keep interaction checks available when the Gemini
// API is unreachable.
type WithFallback struct {
	Primary   Assistant
	Secondary Assistant
}

func (w *WithFallback) CheckInteractions(ctx context.Context, medications []string) (*InteractionReport, error) {
	if w.Primary != nil {
		if report, err := w.Primary.CheckInteractions(ctx, medications); err == nil {
			return report, nil
		}
	}
	return w.Secondary.CheckInteractions(ctx, medications)
}

func (w *WithFallback) WeeklyNarrative(ctx context.Context, input WeeklyInput) (string, error) {
	if w.Primary != nil {
		if narrative, err := w.Primary.WeeklyNarrative(ctx, input); err == nil {
			return narrative, nil
		}
	}
	return w.Secondary.WeeklyNarrative(ctx, input)
}

func (w *WithFallback) Chat(ctx context.Context, history []ChatTurn, question string) (string, error) {
	if w.Primary != nil {
		if answer, err := w.Primary.Chat(ctx, history, question); err == nil {
			return answer, nil
		}
	}
	return w.Secondary.Chat(ctx, history, question)
}

func (w *WithFallback) SummarizeDocument(ctx context.Context, text string) (string, error) {
	if w.Primary != nil {
		if summary, err := w.Primary.SummarizeDocument(ctx, text); err == nil {
			return summary, nil
		}
	}
	return w.Secondary.SummarizeDocument(ctx, text)
}
