package shift

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type ShiftRepository interface {
	Create(ctx context.Context, s *Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	Update(ctx context.Context, s *Shift) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, from, to time.Time) ([]*Shift, error)
	ListByCaregiver(ctx context.Context, caregiverID uuid.UUID, from, to time.Time) ([]*Shift, error)
	ListOverlapping(ctx context.Context, caregiverID uuid.UUID, start, end time.Time) ([]*Shift, error)

	AddNote(ctx context.Context, n *Note) error
	ListNotes(ctx context.Context, shiftID uuid.UUID) ([]*Note, error)
}
