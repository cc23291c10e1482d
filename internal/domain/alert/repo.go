package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type AlertRepository interface {
	Create(ctx context.Context, a *Alert) error
	GetByID(ctx context.Context, id uuid.UUID) (*Alert, error)
	Update(ctx context.Context, a *Alert) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, status string, limit, offset int) ([]*Alert, int, error)
	ListWindow(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*Alert, error)
}
