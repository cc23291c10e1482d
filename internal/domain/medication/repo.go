package medication

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type MedicationRepository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByElder(ctx context.Context, elderID uuid.UUID, activeOnly bool) ([]*Medication, error)

	AddSchedule(ctx context.Context, s *Schedule) error
	GetSchedule(ctx context.Context, id uuid.UUID) (*Schedule, error)
	ListSchedules(ctx context.Context, medicationID uuid.UUID) ([]*Schedule, error)
	RemoveSchedule(ctx context.Context, id uuid.UUID) error
	ListActiveSchedules(ctx context.Context) ([]*ScheduleWithMedication, error)

	LogDose(ctx context.Context, d *DoseLog) error
	ListDoseLogs(ctx context.Context, elderID uuid.UUID, from, to time.Time) ([]*DoseLog, error)
}
