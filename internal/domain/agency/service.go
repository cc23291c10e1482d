package agency

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carelink/carelink/internal/platform/ai"
)

var validDays = map[string]bool{
	"Mon": true, "Tue": true, "Wed": true, "Thu": true,
	"Fri": true, "Sat": true, "Sun": true,
}

var validDocKinds = map[string]bool{
	DocKindLicense: true, DocKindCertification: true,
	DocKindIdentity: true, DocKindBackground: true,
}

type Service struct {
	repo      AgencyRepository
	assistant ai.Assistant
}

func NewService(repo AgencyRepository, assistant ai.Assistant) *Service {
	return &Service{repo: repo, assistant: assistant}
}

// CreateAgency registers a new agency.
func (s *Service) CreateAgency(ctx context.Context, creator uuid.UUID, a *Agency) error {
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	a.CreatedBy = creator
	return s.repo.Create(ctx, a)
}

func (s *Service) GetAgency(ctx context.Context, id uuid.UUID) (*Agency, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListAgencies(ctx context.Context) ([]*Agency, error) {
	return s.repo.List(ctx)
}

// UpdateAgency edits agency details. Only the creating admin can edit.
func (s *Service) UpdateAgency(ctx context.Context, userID uuid.UUID, a *Agency) error {
	existing, err := s.repo.GetByID(ctx, a.ID)
	if err != nil {
		return err
	}
	if existing.CreatedBy != userID {
		return fmt.Errorf("only the agency creator can edit it")
	}
	if a.Name == "" {
		return fmt.Errorf("name is required")
	}
	a.CreatedBy = existing.CreatedBy
	return s.repo.Update(ctx, a)
}

func (s *Service) validateProfile(p *CaregiverProfile) error {
	for _, d := range p.AvailabilityDays {
		if !validDays[d] {
			return fmt.Errorf("invalid availability day: %s", d)
		}
	}
	if p.YearsExperience < 0 {
		return fmt.Errorf("years_experience cannot be negative")
	}
	if p.TrustScore < 0 || p.TrustScore > 1 {
		return fmt.Errorf("trust_score must be between 0 and 1")
	}
	if (p.Latitude == nil) != (p.Longitude == nil) {
		return fmt.Errorf("latitude and longitude must be set together")
	}
	return nil
}

// CreateProfile makes the caller's caregiver profile. One per user; profiles
// start unverified and enter the matching pool only after document review.
func (s *Service) CreateProfile(ctx context.Context, userID uuid.UUID, p *CaregiverProfile) error {
	if existing, err := s.repo.GetProfileByUser(ctx, userID); err == nil && existing != nil {
		return fmt.Errorf("profile already exists")
	}
	if err := s.validateProfile(p); err != nil {
		return err
	}
	p.UserID = userID
	p.Verified = false
	p.Active = true
	return s.repo.CreateProfile(ctx, p)
}

func (s *Service) GetProfile(ctx context.Context, id uuid.UUID) (*CaregiverProfile, error) {
	return s.repo.GetProfile(ctx, id)
}

func (s *Service) GetMyProfile(ctx context.Context, userID uuid.UUID) (*CaregiverProfile, error) {
	return s.repo.GetProfileByUser(ctx, userID)
}

// UpdateProfile edits the caller's own profile. Verification state cannot be
// self-assigned.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, p *CaregiverProfile) (*CaregiverProfile, error) {
	existing, err := s.repo.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile not found")
	}
	if err := s.validateProfile(p); err != nil {
		return nil, err
	}
	p.ID = existing.ID
	p.UserID = existing.UserID
	p.Verified = existing.Verified
	p.TrustScore = existing.TrustScore
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// SetTrustScore adjusts a caregiver's trust score. Agency admin operation.
func (s *Service) SetTrustScore(ctx context.Context, profileID uuid.UUID, score float64) (*CaregiverProfile, error) {
	if score < 0 || score > 1 {
		return nil, fmt.Errorf("trust_score must be between 0 and 1")
	}
	p, err := s.repo.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}
	p.TrustScore = score
	if err := s.repo.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]*CaregiverProfile, error) {
	return s.repo.ListByAgency(ctx, agencyID)
}

// MatchablePool returns verified, active profiles for the matcher.
func (s *Service) MatchablePool(ctx context.Context) ([]*CaregiverProfile, error) {
	return s.repo.ListMatchable(ctx)
}

// SubmitDocument files a verification document against the caller's profile
// and generates the reviewer summary from the extracted text.
func (s *Service) SubmitDocument(ctx context.Context, userID uuid.UUID, d *VerificationDocument) error {
	p, err := s.repo.GetProfileByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("profile not found")
	}
	if !validDocKinds[d.Kind] {
		return fmt.Errorf("invalid document kind: %s", d.Kind)
	}
	if d.ExtractedText == "" {
		return fmt.Errorf("extracted_text is required")
	}

	d.ProfileID = p.ID
	d.Status = DocStatusPending

	summary, err := s.assistant.SummarizeDocument(ctx, d.ExtractedText)
	if err != nil {
		// the reviewer still has the full text
		log.Warn().Err(err).Msg("document summarization failed")
		summary = ""
	}
	d.Summary = summary

	return s.repo.CreateDocument(ctx, d)
}

func (s *Service) ListDocuments(ctx context.Context, userID uuid.UUID) ([]*VerificationDocument, error) {
	p, err := s.repo.GetProfileByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("profile not found")
	}
	return s.repo.ListDocuments(ctx, p.ID)
}

// ReviewQueue lists pending documents. Agency admin operation.
func (s *Service) ReviewQueue(ctx context.Context) ([]*VerificationDocument, error) {
	return s.repo.ListPendingDocuments(ctx)
}

// ReviewDocument verifies or rejects a pending document. A verified license
// or certification marks the profile verified, admitting it to the matching
// pool.
func (s *Service) ReviewDocument(ctx context.Context, reviewerID, docID uuid.UUID, approve bool, note string) (*VerificationDocument, error) {
	d, err := s.repo.GetDocument(ctx, docID)
	if err != nil {
		return nil, err
	}
	if d.Status != DocStatusPending {
		return nil, fmt.Errorf("document has already been reviewed")
	}

	now := time.Now().UTC()
	d.ReviewedBy = &reviewerID
	d.ReviewedAt = &now
	if note != "" {
		d.ReviewNote = &note
	}
	if approve {
		d.Status = DocStatusVerified
	} else {
		d.Status = DocStatusRejected
	}
	if err := s.repo.UpdateDocument(ctx, d); err != nil {
		return nil, err
	}

	if approve && (d.Kind == DocKindLicense || d.Kind == DocKindCertification) {
		p, err := s.repo.GetProfile(ctx, d.ProfileID)
		if err != nil {
			return nil, err
		}
		if !p.Verified {
			p.Verified = true
			if err := s.repo.UpdateProfile(ctx, p); err != nil {
				return nil, err
			}
			log.Info().Str("profile_id", p.ID.String()).Msg("caregiver profile verified")
		}
	}
	return d, nil
}
