package caregroup

import (
	"context"

	"github.com/google/uuid"
)

type GroupRepository interface {
	Create(ctx context.Context, g *CareGroup) error
	GetByID(ctx context.Context, id uuid.UUID) (*CareGroup, error)
	Update(ctx context.Context, g *CareGroup) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*CareGroup, error)
	ListAll(ctx context.Context) ([]*CareGroup, error)

	AddMember(ctx context.Context, m *Member) error
	GetMember(ctx context.Context, groupID, userID uuid.UUID) (*Member, error)
	ListMembers(ctx context.Context, groupID uuid.UUID) ([]*Member, error)
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error
}
