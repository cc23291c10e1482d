package diet

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type DietRepository interface {
	CreateEntry(ctx context.Context, e *Entry) error
	ListEntries(ctx context.Context, elderID uuid.UUID, from, to time.Time) ([]*Entry, error)
	DeleteEntry(ctx context.Context, id uuid.UUID) error
	GetEntry(ctx context.Context, id uuid.UUID) (*Entry, error)

	AddRestriction(ctx context.Context, r *Restriction) error
	ListRestrictions(ctx context.Context, elderID uuid.UUID) ([]*Restriction, error)
	RemoveRestriction(ctx context.Context, id uuid.UUID) error
	GetRestriction(ctx context.Context, id uuid.UUID) (*Restriction, error)
}
