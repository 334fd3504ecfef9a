// Package pharmacy manages the business profile attached to a pharmacy admin.
package pharmacy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/shopspring/decimal"
)

const defaultInvoicePrefix = "INV"

var maxGSTPercentage = decimal.NewFromInt(100)

// SetupInput holds the business fields of a pharmacy profile.
// WorkingDays is passed to NormalizeWorkingDays as received.
type SetupInput struct {
	PharmacyName  string
	Phone         string
	Email         string
	Address       string
	City          string
	State         string
	Pincode       string
	OpenTime      string
	CloseTime     string
	WorkingDays   any
	GSTPercentage string
	InvoicePrefix string
}

// Service implements pharmacy business logic.
type Service struct {
	repo  Repository
	logos LogoStore
}

// NewService creates a new pharmacy service.
func NewService(repo Repository, logos LogoStore) *Service {
	return &Service{repo: repo, logos: logos}
}

// Setup creates the pharmacy profile of userID. It can be called once per identity.
// logo may be nil.
func (s *Service) Setup(ctx context.Context, userID string, input SetupInput, logo io.Reader) (*domain.Pharmacy, error) {
	_, err := s.repo.GetByUserID(ctx, userID)
	if err == nil {
		return nil, ErrPharmacyExists
	}
	if !errors.Is(err, ErrPharmacyNotFound) {
		return nil, fmt.Errorf("get pharmacy: %w", err)
	}

	days, err := NormalizeWorkingDays(input.WorkingDays)
	if err != nil {
		return nil, err
	}

	gst, err := parseGSTPercentage(input.GSTPercentage)
	if err != nil {
		return nil, err
	}

	p := &domain.Pharmacy{
		ID:            uuid.NewString(),
		UserID:        userID,
		PharmacyName:  strings.TrimSpace(input.PharmacyName),
		Phone:         strings.TrimSpace(input.Phone),
		Email:         domain.NormalizeEmail(input.Email),
		Address:       strings.TrimSpace(input.Address),
		City:          strings.TrimSpace(input.City),
		State:         strings.TrimSpace(input.State),
		Pincode:       strings.TrimSpace(input.Pincode),
		OpenTime:      strings.TrimSpace(input.OpenTime),
		CloseTime:     strings.TrimSpace(input.CloseTime),
		WorkingDays:   days,
		GSTPercentage: gst,
		InvoicePrefix: valueOr(input.InvoicePrefix, defaultInvoicePrefix),
	}

	if logo != nil {
		url, err := s.logos.Save(ctx, logo)
		if err != nil {
			return nil, err
		}
		p.Logo = &url
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if p.Logo != nil {
			if delErr := s.logos.Delete(ctx, *p.Logo); delErr != nil {
				ctxlog.FromContext(ctx).Warn("failed to remove orphaned logo", "logo", *p.Logo, "error", delErr)
			}
		}
		return nil, err
	}

	ctxlog.FromContext(ctx).Info("pharmacy set up", "pharmacy_id", p.ID, "user_id", userID)
	return p, nil
}

// Get returns the pharmacy profile owned by userID.
func (s *Service) Get(ctx context.Context, userID string) (*domain.Pharmacy, error) {
	return s.repo.GetByUserID(ctx, userID)
}

// parseGSTPercentage returns the canonical form of s, "0" when it is blank.
func parseGSTPercentage(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0", nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil || d.IsNegative() || d.GreaterThan(maxGSTPercentage) {
		return "", ErrInvalidGSTRate
	}
	return d.String(), nil
}

func valueOr(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
