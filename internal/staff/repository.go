package staff

import (
	"context"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// ListFilter narrows a staff listing. An empty Owner matches staff of every tenant.
type ListFilter struct {
	Owner     string
	Search    string
	StaffRole *domain.StaffRole
	Status    *domain.UserStatus
	Limit     int
	Offset    int
}

// Repository defines the interface for staff data access.
// Every lookup is scoped by owner; an empty owner is unscoped.
type Repository interface {
	Create(ctx context.Context, user *domain.User) error
	Get(ctx context.Context, owner, id string) (*domain.User, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.User, int, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, owner, id string) error
}
