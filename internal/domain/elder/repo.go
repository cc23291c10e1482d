package elder

import (
	"context"

	"github.com/google/uuid"
)

type ElderRepository interface {
	Create(ctx context.Context, e *Elder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Elder, error)
	Update(ctx context.Context, e *Elder) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]*Elder, error)
}
