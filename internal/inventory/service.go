// Package inventory tracks the products a pharmacy keeps in stock.
package inventory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// AddInput holds data for a new product.
type AddInput struct {
	ProductName   string
	Category      string
	BatchNumber   string
	BoxNumber     string
	ExpiryDate    string
	PurchasePrice decimal.Decimal
	SellingPrice  decimal.Decimal
	StockQuantity int
	Supplier      string
	InvoiceNumber string
}

// UpdateInput holds the editable product fields. At least one must be set.
type UpdateInput struct {
	SellingPrice  *decimal.Decimal
	StockQuantity *int
}

// ListInput holds raw listing parameters.
type ListInput struct {
	Category string
	Stock    string
}

// Service implements inventory business logic. Every operation is scoped to an owner tenant.
type Service struct {
	repo              Repository
	lowStockThreshold int
	now               func() time.Time
}

// NewService creates a new inventory service.
// A non-positive threshold falls back to DefaultLowStockThreshold.
func NewService(repo Repository, lowStockThreshold int) *Service {
	if lowStockThreshold <= 0 {
		lowStockThreshold = DefaultLowStockThreshold
	}
	return &Service{
		repo:              repo,
		lowStockThreshold: lowStockThreshold,
		now:               time.Now,
	}
}

// Add creates a product for owner.
func (s *Service) Add(ctx context.Context, owner string, input AddInput) (*domain.Product, error) {
	category := strings.ToLower(strings.TrimSpace(input.Category))
	if !ValidCategory(category) {
		return nil, ErrInvalidCategory
	}

	expiry, err := time.Parse(dateLayout, strings.TrimSpace(input.ExpiryDate))
	if err != nil {
		return nil, ErrInvalidExpiry
	}

	if input.PurchasePrice.IsNegative() || input.SellingPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	p := &domain.Product{
		ID:            uuid.NewString(),
		OwnerID:       owner,
		Name:          strings.TrimSpace(input.ProductName),
		Category:      category,
		BatchNumber:   strings.TrimSpace(input.BatchNumber),
		BoxNumber:     strings.TrimSpace(input.BoxNumber),
		ExpiryDate:    expiry,
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
		StockQuantity: input.StockQuantity,
		Supplier:      strings.TrimSpace(input.Supplier),
		InvoiceNumber: strings.TrimSpace(input.InvoiceNumber),
	}
	p.Status = s.status(p)

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	ctxlog.FromContext(ctx).Info("product added", "product_code", p.Code, "owner_id", owner)
	return p, nil
}

// Get returns a product by code with its status evaluated for today.
func (s *Service) Get(ctx context.Context, owner, code string) (*domain.Product, error) {
	p, err := s.repo.Get(ctx, owner, code)
	if err != nil {
		return nil, err
	}
	p.Status = s.status(p)
	return p, nil
}

// Update changes selling price and/or stock quantity and re-derives the status.
func (s *Service) Update(ctx context.Context, owner, code string, input UpdateInput) (*domain.Product, error) {
	if input.SellingPrice == nil && input.StockQuantity == nil {
		return nil, ErrNothingToUpdate
	}
	if input.SellingPrice != nil && input.SellingPrice.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if input.StockQuantity != nil && *input.StockQuantity < 0 {
		return nil, ErrInvalidQuantity
	}

	p, err := s.repo.Get(ctx, owner, code)
	if err != nil {
		return nil, err
	}

	if input.SellingPrice != nil {
		p.SellingPrice = *input.SellingPrice
	}
	if input.StockQuantity != nil {
		p.StockQuantity = *input.StockQuantity
	}
	p.Status = s.status(p)

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Delete removes a product.
func (s *Service) Delete(ctx context.Context, owner, code string) error {
	if err := s.repo.Delete(ctx, owner, code); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("product deleted", "product_code", code, "owner_id", owner)
	return nil
}

// List returns the owner's products, optionally filtered by category and availability.
func (s *Service) List(ctx context.Context, owner string, input ListInput) ([]*domain.Product, error) {
	filter := ListFilter{
		Owner:             owner,
		Today:             truncateToDay(s.now()),
		LowStockThreshold: s.lowStockThreshold,
	}

	if c := strings.ToLower(strings.TrimSpace(input.Category)); c != "" && c != "all" {
		if !ValidCategory(c) {
			return nil, ErrInvalidCategory
		}
		filter.Category = c
	}

	stock, ok := ParseStockFilter(strings.ToLower(strings.TrimSpace(input.Stock)))
	if !ok {
		return nil, ErrInvalidStock
	}
	filter.Stock = stock

	products, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	for _, p := range products {
		p.Status = s.status(p)
	}
	return products, nil
}

func (s *Service) status(p *domain.Product) domain.StockStatus {
	return DeriveStatus(p.ExpiryDate, p.StockQuantity, truncateToDay(s.now()), s.lowStockThreshold)
}
