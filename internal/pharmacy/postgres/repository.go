// Package postgres provides PostgreSQL implementation of the pharmacy repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pharmacy"
	"github.com/rxdesk/pharmacy-api/internal/pkg/postgres"
)

// Repository implements pharmacy.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a pharmacy. A second pharmacy for the same user returns pharmacy.ErrPharmacyExists.
func (r *Repository) Create(ctx context.Context, p *domain.Pharmacy) error {
	query := `
		INSERT INTO pharmacies (
			id, user_id, pharmacy_name, phone, email, address, city, state, pincode,
			open_time, close_time, working_days, gst_percentage, invoice_prefix, logo
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.UserID,
		p.PharmacyName,
		p.Phone,
		p.Email,
		p.Address,
		p.City,
		p.State,
		p.Pincode,
		p.OpenTime,
		p.CloseTime,
		p.WorkingDays,
		p.GSTPercentage,
		p.InvoicePrefix,
		p.Logo,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "pharmacies_user_id_key") {
			return pharmacy.ErrPharmacyExists
		}
		return fmt.Errorf("create pharmacy: %w", err)
	}
	return nil
}

// GetByUserID retrieves the pharmacy owned by userID.
func (r *Repository) GetByUserID(ctx context.Context, userID string) (*domain.Pharmacy, error) {
	query := `
		SELECT id, user_id, pharmacy_name, phone, email, address, city, state, pincode,
		       open_time, close_time, working_days, gst_percentage, invoice_prefix, logo,
		       created_at, updated_at
		FROM pharmacies
		WHERE user_id = $1
	`
	var p domain.Pharmacy
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&p.ID,
		&p.UserID,
		&p.PharmacyName,
		&p.Phone,
		&p.Email,
		&p.Address,
		&p.City,
		&p.State,
		&p.Pincode,
		&p.OpenTime,
		&p.CloseTime,
		&p.WorkingDays,
		&p.GSTPercentage,
		&p.InvoicePrefix,
		&p.Logo,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, pharmacy.ErrPharmacyNotFound
		}
		return nil, fmt.Errorf("get pharmacy: %w", err)
	}
	return &p, nil
}
