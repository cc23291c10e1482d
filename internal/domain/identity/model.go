// Package identity manages user accounts: signup, login, profile, and the
// medical disclaimer acceptance that gates clinical features.
package identity

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder: a family member, caregiver, or agency admin.
type User struct {
	ID                   uuid.UUID  `json:"id"`
	Email                string     `json:"email"`
	Phone                *string    `json:"phone,omitempty"`
	PasswordHash         string     `json:"-"`
	FirstName            string     `json:"firstName"`
	LastName             string     `json:"lastName"`
	Roles                []string   `json:"roles"`
	DisclaimerAcceptedAt *time.Time `json:"disclaimerAcceptedAt,omitempty"`
	Active               bool       `json:"active"`

	// Quiet hours for SMS, local hours in [0,23]. Both set or both unset;
	// non-urgent notifications inside the window are suppressed.
	QuietHoursStart *int      `json:"quietHoursStart,omitempty"`
	QuietHoursEnd   *int      `json:"quietHoursEnd,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// HasAcceptedDisclaimer reports whether the user has accepted the medical
// disclaimer. Medication interaction checks require it.
func (u *User) HasAcceptedDisclaimer() bool {
	return u.DisclaimerAcceptedAt != nil
}

// SignupRequest is the payload for account creation.
type SignupRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Phone     *string `json:"phone,omitempty"`
	Role      string  `json:"role"`
}

// ProfileUpdate carries the caller-editable profile fields. Nil pointers and
// empty names leave the current value unchanged. Quiet hours must be set as
// a pair; an equal start and end disables the window.
type ProfileUpdate struct {
	FirstName       string  `json:"firstName"`
	LastName        string  `json:"lastName"`
	Phone           *string `json:"phone"`
	QuietHoursStart *int    `json:"quietHoursStart"`
	QuietHoursEnd   *int    `json:"quietHoursEnd"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token alongside the user profile.
type AuthResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}
