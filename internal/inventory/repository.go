package inventory

import (
	"context"
	"time"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// ListFilter narrows a product listing for one owner.
type ListFilter struct {
	Owner             string
	Category          string
	Stock             StockFilter
	Today             time.Time
	LowStockThreshold int
}

// Repository defines the interface for product data access.
type Repository interface {
	// Create inserts p and assigns its product code.
	Create(ctx context.Context, p *domain.Product) error
	Get(ctx context.Context, owner, code string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.Product, error)
	Update(ctx context.Context, p *domain.Product) error
	Delete(ctx context.Context, owner, code string) error
}
