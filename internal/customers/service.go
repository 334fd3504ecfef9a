// Package customers keeps the customer records of a pharmacy.
package customers

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
)

const avatarBaseURL = "https://ui-avatars.com/api/"

// CreateInput holds data for a new customer.
type CreateInput struct {
	Name   string
	Mobile string
	Email  string
}

// ListInput holds listing parameters.
type ListInput struct {
	Search string
	Page   int
	Limit  int
}

// ListResult is one page of customers.
type ListResult struct {
	Customers []*domain.Customer
	Total     int
}

// Service implements customer business logic.
type Service struct {
	repo Repository
}

// NewService creates a new customers service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create adds a customer for owner with a generated avatar.
func (s *Service) Create(ctx context.Context, owner string, input CreateInput) (*domain.Customer, error) {
	name := strings.TrimSpace(input.Name)
	c := &domain.Customer{
		ID:      uuid.NewString(),
		OwnerID: owner,
		Name:    name,
		Mobile:  strings.TrimSpace(input.Mobile),
		Avatar:  AvatarURL(name),
	}
	if email := domain.NormalizeEmail(input.Email); email != "" {
		c.Email = &email
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	ctxlog.FromContext(ctx).Info("customer added", "customer_code", c.Code, "owner_id", owner)
	return c, nil
}

// List returns one page of the owner's customers, newest first.
func (s *Service) List(ctx context.Context, owner string, input ListInput) (*ListResult, error) {
	list, total, err := s.repo.List(ctx, ListFilter{
		Owner:  owner,
		Search: strings.TrimSpace(input.Search),
		Limit:  input.Limit,
		Offset: (input.Page - 1) * input.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return &ListResult{Customers: list, Total: total}, nil
}

// Get returns one of the owner's customers.
func (s *Service) Get(ctx context.Context, owner, id string) (*domain.Customer, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrCustomerNotFound
	}
	return s.repo.Get(ctx, owner, id)
}

// SaveNotes replaces the customer's notes. Blank notes clear them.
func (s *Service) SaveNotes(ctx context.Context, owner, id, notes string) (*domain.Customer, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrCustomerNotFound
	}

	var value *string
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		value = &trimmed
	}
	return s.repo.UpdateNotes(ctx, owner, id, value)
}

// AvatarURL builds an initials avatar for name.
func AvatarURL(name string) string {
	q := url.Values{}
	q.Set("name", name)
	q.Set("background", "0D9488")
	q.Set("color", "fff")
	return avatarBaseURL + "?" + q.Encode()
}
