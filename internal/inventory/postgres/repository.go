// Package postgres provides PostgreSQL implementation of the inventory repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/inventory"
)

const productColumns = `
	id, product_code, owner_id, product_name, category, batch_number, box_number, expiry_date,
	purchase_price, selling_price, stock_quantity, supplier, invoice_number, status, created_at, updated_at`

// Repository implements inventory.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a product; product_code comes from the column default.
func (r *Repository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (
			id, owner_id, product_name, category, batch_number, box_number, expiry_date,
			purchase_price, selling_price, stock_quantity, supplier, invoice_number, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING product_code, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Category,
		p.BatchNumber,
		p.BoxNumber,
		p.ExpiryDate,
		p.PurchasePrice,
		p.SellingPrice,
		p.StockQuantity,
		p.Supplier,
		p.InvoiceNumber,
		p.Status,
	).Scan(&p.Code, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// Get retrieves an owner's product by code.
func (r *Repository) Get(ctx context.Context, owner, code string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE owner_id = $1 AND product_code = $2`
	p, err := scanProduct(r.db.QueryRow(ctx, query, owner, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return p, nil
}

// List returns an owner's products, newest first.
func (r *Repository) List(ctx context.Context, filter inventory.ListFilter) ([]*domain.Product, error) {
	conds := []string{"owner_id = $1"}
	args := []any{filter.Owner}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conds = append(conds, "category = "+arg(filter.Category))
	}

	switch filter.Stock {
	case inventory.StockExpired:
		conds = append(conds, "expiry_date < "+arg(filter.Today))
	case inventory.StockOutOfStock:
		conds = append(conds, "expiry_date >= "+arg(filter.Today), "stock_quantity = 0")
	case inventory.StockLowStock:
		conds = append(conds, "expiry_date >= "+arg(filter.Today),
			"stock_quantity BETWEEN 1 AND "+arg(filter.LowStockThreshold))
	case inventory.StockInStock:
		conds = append(conds, "expiry_date >= "+arg(filter.Today), "stock_quantity > 0")
	}

	query := `SELECT ` + productColumns + ` FROM products WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, product_code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	products := make([]*domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}

// Update persists selling price, quantity and status.
func (r *Repository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET selling_price = $3, stock_quantity = $4, status = $5, updated_at = NOW()
		WHERE owner_id = $1 AND product_code = $2
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, p.OwnerID, p.Code, p.SellingPrice, p.StockQuantity, p.Status).Scan(&p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return inventory.ErrProductNotFound
		}
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

// Delete removes an owner's product.
func (r *Repository) Delete(ctx context.Context, owner, code string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE owner_id = $1 AND product_code = $2`, owner, code)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return inventory.ErrProductNotFound
	}
	return nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.Code,
		&p.OwnerID,
		&p.Name,
		&p.Category,
		&p.BatchNumber,
		&p.BoxNumber,
		&p.ExpiryDate,
		&p.PurchasePrice,
		&p.SellingPrice,
		&p.StockQuantity,
		&p.Supplier,
		&p.InvoiceNumber,
		&p.Status,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
