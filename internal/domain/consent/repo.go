package consent

import (
	"context"

	"github.com/google/uuid"
)

type ConsentRepository interface {
	Create(ctx context.Context, c *Consent) error
	GetByID(ctx context.Context, id uuid.UUID) (*Consent, error)
	Update(ctx context.Context, c *Consent) error
	ListByElder(ctx context.Context, elderID uuid.UUID) ([]*Consent, error)
	FindGranted(ctx context.Context, userID, elderID uuid.UUID) ([]*Consent, error)

	RecordAccess(ctx context.Context, e *AccessEntry) error
	ListAccess(ctx context.Context, elderID uuid.UUID, limit, offset int) ([]*AccessEntry, int, error)
}
