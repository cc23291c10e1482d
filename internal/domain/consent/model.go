// Package consent tracks who may see an elder's data and records every read
// through the export and reporting surfaces in a compliance access log.
package consent

import (
	"time"

	"github.com/google/uuid"
)

// Consent scopes. ScopeFull implies all others.
const (
	ScopeMedication = "medication"
	ScopeDiet       = "diet"
	ScopeAlerts     = "alerts"
	ScopeReports    = "reports"
	ScopeFull       = "full"
)

// Consent statuses.
const (
	StatusGranted = "granted"
	StatusRevoked = "revoked"
)

// Consent authorizes one user to access one scope of an elder's data.
type Consent struct {
	ID        uuid.UUID  `json:"id"`
	ElderID   uuid.UUID  `json:"elderId"`
	GroupID   uuid.UUID  `json:"groupId"`
	GrantedTo uuid.UUID  `json:"grantedTo"`
	Scope     string     `json:"scope"`
	Status    string     `json:"status"`
	GrantedBy uuid.UUID  `json:"grantedBy"`
	GrantedAt time.Time  `json:"grantedAt"`
	RevokedAt *time.Time `json:"revokedAt,omitempty"`
}

// AccessEntry is one compliance-log record of elder data being read.
type AccessEntry struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	ElderID    uuid.UUID `json:"elderId"`
	Resource   string    `json:"resource"` // e.g. "report.weekly", "export.doses.csv"
	OccurredAt time.Time `json:"occurredAt"`
}
