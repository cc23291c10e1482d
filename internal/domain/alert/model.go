// Package alert manages the group alert feed: raising alerts, their
// lifecycle, usage analytics, and the nightly sensitivity auto-tune.
package alert

import (
	"time"

	"github.com/google/uuid"
)

// Severities, in ascending order of urgency.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Categories.
const (
	CategoryDose   = "dose"
	CategoryDiet   = "diet"
	CategoryFall   = "fall"
	CategoryVitals = "vitals"
	CategoryOther  = "other"
)

// Statuses.
const (
	StatusOpen         = "open"
	StatusAcknowledged = "acknowledged"
	StatusDismissed    = "dismissed"
	StatusResolved     = "resolved"
)

// Alert is one event surfaced to the care group.
type Alert struct {
	ID            uuid.UUID  `json:"id"`
	GroupID       uuid.UUID  `json:"groupId"`
	ElderID       uuid.UUID  `json:"elderId"`
	Severity      string     `json:"severity"`
	Category      string     `json:"category"`
	Message       string     `json:"message"`
	Status        string     `json:"status"`
	ActionTaken   bool       `json:"actionTaken"`
	FalsePositive bool       `json:"falsePositive"`
	RaisedBy      *uuid.UUID `json:"raisedBy,omitempty"` // nil for system-raised alerts
	CreatedAt     time.Time  `json:"createdAt"`
	ResolvedAt    *time.Time `json:"resolvedAt,omitempty"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// Analytics summarizes alert handling over a window. The auto-tune rules
// read these rates.
type Analytics struct {
	GroupID           uuid.UUID `json:"groupId"`
	From              time.Time `json:"from"`
	To                time.Time `json:"to"`
	Total             int       `json:"total"`
	Dismissed         int       `json:"dismissed"`
	ActionTaken       int       `json:"actionTaken"`
	FalsePositives    int       `json:"falsePositives"`
	DismissalRate     float64   `json:"dismissalRate"`
	ActionRate        float64   `json:"actionRate"`
	FalsePositiveRate float64   `json:"falsePositiveRate"`
}
