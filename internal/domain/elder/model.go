// Package elder manages the care recipient profiles inside a care group.
package elder

import (
	"time"

	"github.com/google/uuid"
)

// Elder is a care recipient.
type Elder struct {
	ID         uuid.UUID  `json:"id"`
	GroupID    uuid.UUID  `json:"groupId"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	BirthDate  *time.Time `json:"birthDate,omitempty"`
	Conditions []string   `json:"conditions"`
	Allergies  []string   `json:"allergies"`
	Languages  []string   `json:"languages"` // seeds caregiver matching requirements
	Notes      *string    `json:"notes,omitempty"`

	// Home location, used for caregiver matching distance scoring.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	Address   *string  `json:"address,omitempty"`
	City      *string  `json:"city,omitempty"`

	EmergencyContactName  *string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone *string `json:"emergencyContactPhone,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName returns the display name.
func (e *Elder) FullName() string {
	return e.FirstName + " " + e.LastName
}
