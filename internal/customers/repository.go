package customers

import (
	"context"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// ListFilter narrows a customer listing for one owner.
type ListFilter struct {
	Owner  string
	Search string
	Limit  int
	Offset int
}

// Repository defines the interface for customer data access.
type Repository interface {
	// Create inserts c and assigns its customer code.
	Create(ctx context.Context, c *domain.Customer) error
	Get(ctx context.Context, owner, id string) (*domain.Customer, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Customer, int, error)
	UpdateNotes(ctx context.Context, owner, id string, notes *string) (*domain.Customer, error)
}
