// Package agency manages caregiver agencies, caregiver profiles, and the
// verification-document review workflow that feeds the matching pool.
package agency

import (
	"time"

	"github.com/google/uuid"
)

// Agency is a home-care agency employing caregivers.
type Agency struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Phone     *string   `json:"phone,omitempty"`
	Email     *string   `json:"email,omitempty"`
	Address   *string   `json:"address,omitempty"`
	CreatedBy uuid.UUID `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CaregiverProfile is the matchable profile for one caregiver. Verified and
// Active gate entry into the matching pool; TrustScore is maintained by the
// agency and normalized to 0..1.
type CaregiverProfile struct {
	ID               uuid.UUID  `json:"id"`
	UserID           uuid.UUID  `json:"userId"`
	AgencyID         *uuid.UUID `json:"agencyId,omitempty"`
	Bio              *string    `json:"bio,omitempty"`
	Languages        []string   `json:"languages"`
	Skills           []string   `json:"skills"`
	AvailabilityDays []string   `json:"availabilityDays"` // Mon..Sun
	YearsExperience  float64    `json:"yearsExperience"`
	TrustScore       float64    `json:"trustScore"`
	HourlyRate       *float64   `json:"hourlyRate,omitempty"`
	Latitude         *float64   `json:"latitude,omitempty"`
	Longitude        *float64   `json:"longitude,omitempty"`
	Verified         bool       `json:"verified"`
	Active           bool       `json:"active"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Verification document kinds.
const (
	DocKindLicense       = "license"
	DocKindCertification = "certification"
	DocKindIdentity      = "identity"
	DocKindBackground    = "background_check"
)

// Verification document statuses.
const (
	DocStatusPending  = "pending"
	DocStatusVerified = "verified"
	DocStatusRejected = "rejected"
)

// VerificationDocument is one submitted credential. ExtractedText is the
// document's text content; Summary is generated for the review queue.
type VerificationDocument struct {
	ID            uuid.UUID  `json:"id"`
	ProfileID     uuid.UUID  `json:"profileId"`
	Kind          string     `json:"kind"`
	FileName      string     `json:"fileName"`
	ExtractedText string     `json:"extractedText"`
	Summary       string     `json:"summary"`
	Status        string     `json:"status"`
	ReviewedBy    *uuid.UUID `json:"reviewedBy,omitempty"`
	ReviewNote    *string    `json:"reviewNote,omitempty"`
	SubmittedAt   time.Time  `json:"submittedAt"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
}
