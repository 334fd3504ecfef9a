// Package postgres provides PostgreSQL implementation of the staff repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/postgres"
	"github.com/rxdesk/pharmacy-api/internal/staff"
)

const staffColumns = `id, name, email, phone, role, staff_role, status, created_by, created_at, updated_at`

// Repository implements staff.Repository on the users table.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a staff identity.
func (r *Repository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, name, email, phone, password_hash, role, staff_role, status, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Role,
		user.StaffRole,
		user.Status,
		user.CreatedBy,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if postgres.IsUniqueViolation(err, "users_email_key") {
			return staff.ErrEmailExists
		}
		return fmt.Errorf("create staff: %w", err)
	}
	return nil
}

// Get retrieves a staff member, optionally scoped to owner.
func (r *Repository) Get(ctx context.Context, owner, id string) (*domain.User, error) {
	query := `SELECT ` + staffColumns + ` FROM users WHERE id = $1 AND role = 'STAFF'`
	args := []any{id}
	if owner != "" {
		query += ` AND created_by = $2`
		args = append(args, owner)
	}

	user, err := scanStaff(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, staff.ErrStaffNotFound
		}
		return nil, fmt.Errorf("get staff: %w", err)
	}
	return user, nil
}

// List returns a page of staff matching filter and the total match count.
func (r *Repository) List(ctx context.Context, filter staff.ListFilter) ([]*domain.User, int, error) {
	var (
		conds = []string{"role = 'STAFF'"}
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Owner != "" {
		conds = append(conds, "created_by = "+arg(filter.Owner))
	}
	if filter.Search != "" {
		p := arg("%" + escapeLike(filter.Search) + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR email ILIKE %[1]s OR phone ILIKE %[1]s)", p))
	}
	if filter.StaffRole != nil {
		conds = append(conds, "staff_role = "+arg(*filter.StaffRole))
	}
	if filter.Status != nil {
		conds = append(conds, "status = "+arg(*filter.Status))
	}

	where := " WHERE " + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count staff: %w", err)
	}

	query := `SELECT ` + staffColumns + ` FROM users` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT %s OFFSET %s", arg(filter.Limit), arg(filter.Offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.User, 0)
	for rows.Next() {
		user, err := scanStaff(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan staff: %w", err)
		}
		list = append(list, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate staff: %w", err)
	}
	return list, total, nil
}

// Update persists editable staff fields.
func (r *Repository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, staff_role = $5, status = $6, updated_at = NOW()
		WHERE id = $1 AND role = 'STAFF'
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		user.ID,
		user.Name,
		user.Email,
		user.Phone,
		user.StaffRole,
		user.Status,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.ErrStaffNotFound
		}
		if postgres.IsUniqueViolation(err, "users_email_key") {
			return staff.ErrEmailExists
		}
		return fmt.Errorf("update staff: %w", err)
	}
	return nil
}

// Delete removes a staff member, optionally scoped to owner.
func (r *Repository) Delete(ctx context.Context, owner, id string) error {
	query := `DELETE FROM users WHERE id = $1 AND role = 'STAFF'`
	args := []any{id}
	if owner != "" {
		query += ` AND created_by = $2`
		args = append(args, owner)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete staff: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return staff.ErrStaffNotFound
	}
	return nil
}

func scanStaff(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.Role,
		&user.StaffRole,
		&user.Status,
		&user.CreatedBy,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
