// Package caregroup manages care groups: the family circle coordinating care
// for one or more elders. Membership gates access to everything group-scoped.
package caregroup

import (
	"time"

	"github.com/google/uuid"
)

// Sensitivity controls how aggressively the group's alert rules fire. The
// nightly auto-tune job recommends moving it one step at a time.
type Sensitivity string

const (
	SensitivityLow    Sensitivity = "low"
	SensitivityMedium Sensitivity = "medium"
	SensitivityHigh   Sensitivity = "high"
)

// Valid reports whether s is a recognized sensitivity level.
func (s Sensitivity) Valid() bool {
	return s == SensitivityLow || s == SensitivityMedium || s == SensitivityHigh
}

// Lower returns the next less sensitive level, clamped at low.
func (s Sensitivity) Lower() Sensitivity {
	switch s {
	case SensitivityHigh:
		return SensitivityMedium
	case SensitivityMedium:
		return SensitivityLow
	}
	return SensitivityLow
}

// Raise returns the next more sensitive level, clamped at high.
func (s Sensitivity) Raise() Sensitivity {
	switch s {
	case SensitivityLow:
		return SensitivityMedium
	case SensitivityMedium:
		return SensitivityHigh
	}
	return SensitivityHigh
}

// CareGroup is the coordination unit for one household.
//
// The nightly tuner writes a sensitivity recommendation onto the group; it
// takes effect only when an owner accepts it.
type CareGroup struct {
	ID                     uuid.UUID    `json:"id"`
	Name                   string       `json:"name"`
	CreatedBy              uuid.UUID    `json:"createdBy"`
	AlertSensitivity       Sensitivity  `json:"alertSensitivity"`
	RecommendedSensitivity *Sensitivity `json:"recommendedSensitivity,omitempty"`
	RecommendationReason   *string      `json:"recommendationReason,omitempty"`
	RecommendedAt          *time.Time   `json:"recommendedAt,omitempty"`
	CreatedAt              time.Time    `json:"createdAt"`
	UpdatedAt              time.Time    `json:"updatedAt"`
}

// Member roles within a group.
const (
	MemberRoleOwner     = "owner"
	MemberRoleMember    = "member"
	MemberRoleCaregiver = "caregiver"
)

// Member links a user to a care group.
type Member struct {
	ID           uuid.UUID `json:"id"`
	GroupID      uuid.UUID `json:"groupId"`
	UserID       uuid.UUID `json:"userId"`
	Role         string    `json:"role"`
	Relationship *string   `json:"relationship,omitempty"` // daughter, son, hired caregiver, ...
	JoinedAt     time.Time `json:"joinedAt"`
}
