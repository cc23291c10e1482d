package identity

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/carelink/carelink/internal/platform/auth"
)

// ErrInvalidCredentials is returned for unknown emails and wrong passwords
// alike, so login responses do not reveal which accounts exist.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password")

var validSignupRoles = map[string]bool{
	auth.RoleFamily:      true,
	auth.RoleCaregiver:   true,
	auth.RoleAgencyAdmin: true,
}

type Service struct {
	users  UserRepository
	issuer *auth.TokenIssuer
}

func NewService(users UserRepository, issuer *auth.TokenIssuer) *Service {
	return &Service{users: users, issuer: issuer}
}

// Signup creates an account and returns a bearer token for it.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResponse, error) {
	if _, err := mail.ParseAddress(req.Email); err != nil {
		return nil, fmt.Errorf("invalid email address")
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("first and last name are required")
	}
	role := req.Role
	if role == "" {
		role = auth.RoleFamily
	}
	if !validSignupRoles[role] {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	if existing, err := s.users.GetByEmail(ctx, req.Email); err == nil && existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:        strings.ToLower(req.Email),
		Phone:        req.Phone,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Roles:        []string{role},
		Active:       true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issuer.Issue(u.ID, u.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: u}, nil
}

// Login verifies credentials and returns a bearer token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !u.Active {
		return nil, fmt.Errorf("account is disabled")
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(u.ID, u.Roles)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResponse{Token: token, User: u}, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateProfile changes the mutable profile fields. Email and roles are not
// user-editable.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, upd ProfileUpdate) (*User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if upd.FirstName != "" {
		u.FirstName = upd.FirstName
	}
	if upd.LastName != "" {
		u.LastName = upd.LastName
	}
	if upd.Phone != nil {
		u.Phone = upd.Phone
	}
	if (upd.QuietHoursStart == nil) != (upd.QuietHoursEnd == nil) {
		return nil, fmt.Errorf("quiet hours start and end must be set together")
	}
	if upd.QuietHoursStart != nil {
		if *upd.QuietHoursStart < 0 || *upd.QuietHoursStart > 23 || *upd.QuietHoursEnd < 0 || *upd.QuietHoursEnd > 23 {
			return nil, fmt.Errorf("quiet hours must be between 0 and 23")
		}
		u.QuietHoursStart = upd.QuietHoursStart
		u.QuietHoursEnd = upd.QuietHoursEnd
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// QuietWindow resolves a phone number to its owner's quiet-hours window. The
// notification manager consults it before each non-urgent send.
func (s *Service) QuietWindow(ctx context.Context, recipient string) (start, end int, ok bool) {
	u, err := s.users.GetByPhone(ctx, recipient)
	if err != nil || u == nil {
		return 0, 0, false
	}
	if u.QuietHoursStart == nil || u.QuietHoursEnd == nil {
		return 0, 0, false
	}
	return *u.QuietHoursStart, *u.QuietHoursEnd, true
}

// PhonesFor resolves the SMS-reachable phone numbers for a set of users.
// Users without a phone on file are skipped, not an error.
func (s *Service) PhonesFor(ctx context.Context, ids []uuid.UUID) ([]string, error) {
	var phones []string
	for _, id := range ids {
		u, err := s.users.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if u.Phone != nil && *u.Phone != "" {
			phones = append(phones, *u.Phone)
		}
	}
	return phones, nil
}

// AcceptDisclaimer records the medical disclaimer acceptance. Idempotent.
func (s *Service) AcceptDisclaimer(ctx context.Context, id uuid.UUID) (*User, error) {
	if err := s.users.SetDisclaimerAccepted(ctx, id); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, id)
}

// HasAcceptedDisclaimer reports whether the user may access features that
// require the medical disclaimer.
func (s *Service) HasAcceptedDisclaimer(ctx context.Context, id uuid.UUID) (bool, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	return u.HasAcceptedDisclaimer(), nil
}
