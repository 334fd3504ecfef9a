package pharmacy

import (
	"context"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// Repository defines the interface for pharmacy data access.
type Repository interface {
	Create(ctx context.Context, pharmacy *domain.Pharmacy) error
	GetByUserID(ctx context.Context, userID string) (*domain.Pharmacy, error)
}
