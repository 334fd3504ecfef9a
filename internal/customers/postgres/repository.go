// Package postgres provides PostgreSQL implementation of the customers repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxdesk/pharmacy-api/internal/customers"
	"github.com/rxdesk/pharmacy-api/internal/domain"
)

const customerColumns = `id, customer_code, owner_id, name, mobile, email, avatar, notes, created_at, updated_at`

// Repository implements customers.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a customer; customer_code comes from the column default.
func (r *Repository) Create(ctx context.Context, c *domain.Customer) error {
	query := `
		INSERT INTO customers (id, owner_id, name, mobile, email, avatar)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING customer_code, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, c.ID, c.OwnerID, c.Name, c.Mobile, c.Email, c.Avatar).
		Scan(&c.Code, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	return nil
}

// Get retrieves an owner's customer.
func (r *Repository) Get(ctx context.Context, owner, id string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE owner_id = $1 AND id = $2`
	c, err := scanCustomer(r.db.QueryRow(ctx, query, owner, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customers.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}
	return c, nil
}

// List returns a page of customers matching filter and the total match count.
func (r *Repository) List(ctx context.Context, filter customers.ListFilter) ([]*domain.Customer, int, error) {
	where := ` WHERE owner_id = $1`
	args := []any{filter.Owner}
	if filter.Search != "" {
		args = append(args, "%"+escapeLike(filter.Search)+"%")
		where += ` AND (name ILIKE $2 OR mobile ILIKE $2)`
	}

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM customers`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count customers: %w", err)
	}

	query := `SELECT ` + customerColumns + ` FROM customers` + where +
		fmt.Sprintf(` ORDER BY created_at DESC, customer_code DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Customer, 0)
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate customers: %w", err)
	}
	return list, total, nil
}

// UpdateNotes replaces the notes of an owner's customer.
func (r *Repository) UpdateNotes(ctx context.Context, owner, id string, notes *string) (*domain.Customer, error) {
	query := `
		UPDATE customers
		SET notes = $3, updated_at = NOW()
		WHERE owner_id = $1 AND id = $2
		RETURNING ` + customerColumns
	c, err := scanCustomer(r.db.QueryRow(ctx, query, owner, id, notes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customers.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("update customer notes: %w", err)
	}
	return c, nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.Code,
		&c.OwnerID,
		&c.Name,
		&c.Mobile,
		&c.Email,
		&c.Avatar,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
