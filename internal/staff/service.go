// Package staff manages staff accounts created by pharmacy admins.
package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/identity/password"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
)

// PasswordHasher hashes initial staff passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// Actor is the admin performing a staff operation.
type Actor struct {
	ID   string
	Role domain.Role
}

// scope is the owner filter applied to the actor's lookups.
// Super admins are not limited to their own staff.
func (a Actor) scope() string {
	if a.Role == domain.RoleSuperAdmin {
		return ""
	}
	return a.ID
}

// CreateInput holds data for a new staff account.
type CreateInput struct {
	Name      string
	Email     string
	Phone     string
	StaffRole string
	Password  string
	Status    string
}

// UpdateInput holds optional staff changes. Nil fields are left untouched.
type UpdateInput struct {
	Name      *string
	Email     *string
	Phone     *string
	StaffRole *string
	Status    *string
}

// ListInput holds raw listing parameters. "all" or empty disables a filter.
type ListInput struct {
	Search    string
	StaffRole string
	Status    string
	Page      int
	Limit     int
}

// ListResult is one page of staff.
type ListResult struct {
	Staff []*domain.User
	Total int
}

// Service implements staff management.
type Service struct {
	repo   Repository
	hasher PasswordHasher
}

// NewService creates a new staff service.
func NewService(repo Repository, hasher PasswordHasher) *Service {
	return &Service{repo: repo, hasher: hasher}
}

// Create adds a staff account owned by the actor.
func (s *Service) Create(ctx context.Context, actor Actor, input CreateInput) (*domain.User, error) {
	staffRole, ok := domain.ParseStaffRole(input.StaffRole)
	if !ok {
		return nil, ErrInvalidStaffRole
	}

	status := domain.UserStatusActive
	if strings.TrimSpace(input.Status) != "" {
		if status, ok = domain.ParseUserStatus(input.Status); !ok {
			return nil, ErrInvalidStatus
		}
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return nil, ErrPasswordTooLong
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	owner := actor.ID
	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        domain.NormalizeEmail(input.Email),
		Phone:        strings.TrimSpace(input.Phone),
		PasswordHash: hash,
		Role:         domain.RoleStaff,
		StaffRole:    &staffRole,
		Status:       status,
		CreatedBy:    &owner,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("staff created", "staff_id", user.ID, "created_by", owner)
	return user, nil
}

// List returns one page of the actor's staff.
func (s *Service) List(ctx context.Context, actor Actor, input ListInput) (*ListResult, error) {
	filter := ListFilter{
		Owner:  actor.scope(),
		Search: strings.TrimSpace(input.Search),
		Limit:  input.Limit,
		Offset: (input.Page - 1) * input.Limit,
	}

	if v := strings.TrimSpace(input.StaffRole); v != "" && !strings.EqualFold(v, "all") {
		staffRole, ok := domain.ParseStaffRole(v)
		if !ok {
			return nil, ErrInvalidStaffRole
		}
		filter.StaffRole = &staffRole
	}

	if v := strings.TrimSpace(input.Status); v != "" && !strings.EqualFold(v, "all") {
		status, ok := domain.ParseUserStatus(v)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filter.Status = &status
	}

	staff, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return &ListResult{Staff: staff, Total: total}, nil
}

// Get returns a staff member visible to the actor.
func (s *Service) Get(ctx context.Context, actor Actor, id string) (*domain.User, error) {
	if uuid.Validate(id) != nil {
		return nil, ErrStaffNotFound
	}
	return s.repo.Get(ctx, actor.scope(), id)
}

// Update applies the non-nil fields of input.
func (s *Service) Update(ctx context.Context, actor Actor, id string, input UpdateInput) (*domain.User, error) {
	user, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Email != nil {
		user.Email = domain.NormalizeEmail(*input.Email)
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.StaffRole != nil {
		staffRole, ok := domain.ParseStaffRole(*input.StaffRole)
		if !ok {
			return nil, ErrInvalidStaffRole
		}
		user.StaffRole = &staffRole
	}
	if input.Status != nil {
		status, ok := domain.ParseUserStatus(*input.Status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		user.Status = status
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// SetStatus activates or deactivates a staff account.
func (s *Service) SetStatus(ctx context.Context, actor Actor, id, status string) (*domain.User, error) {
	user, err := s.Update(ctx, actor, id, UpdateInput{Status: &status})
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Info("staff status changed", "staff_id", id, "status", user.Status)
	return user, nil
}

// Delete removes a staff account.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	if uuid.Validate(id) != nil {
		return ErrStaffNotFound
	}
	if err := s.repo.Delete(ctx, actor.scope(), id); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Info("staff deleted", "staff_id", id)
	return nil
}
