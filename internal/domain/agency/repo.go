package agency

import (
	"context"

	"github.com/google/uuid"
)

type AgencyRepository interface {
	Create(ctx context.Context, a *Agency) error
	GetByID(ctx context.Context, id uuid.UUID) (*Agency, error)
	Update(ctx context.Context, a *Agency) error
	List(ctx context.Context) ([]*Agency, error)

	CreateProfile(ctx context.Context, p *CaregiverProfile) error
	GetProfile(ctx context.Context, id uuid.UUID) (*CaregiverProfile, error)
	GetProfileByUser(ctx context.Context, userID uuid.UUID) (*CaregiverProfile, error)
	UpdateProfile(ctx context.Context, p *CaregiverProfile) error
	ListMatchable(ctx context.Context) ([]*CaregiverProfile, error)
	ListByAgency(ctx context.Context, agencyID uuid.UUID) ([]*CaregiverProfile, error)

	CreateDocument(ctx context.Context, d *VerificationDocument) error
	GetDocument(ctx context.Context, id uuid.UUID) (*VerificationDocument, error)
	UpdateDocument(ctx context.Context, d *VerificationDocument) error
	ListDocuments(ctx context.Context, profileID uuid.UUID) ([]*VerificationDocument, error)
	ListPendingDocuments(ctx context.Context) ([]*VerificationDocument, error)
}
