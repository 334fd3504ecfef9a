// Package postgres provides PostgreSQL implementation of the identity repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/identity"
	"github.com/rxdesk/pharmacy-api/internal/pkg/postgres"
)

const userColumns = `
	id, name, email, phone, password_hash, role, staff_role, status, created_by,
	otp, otp_expires_at, otp_purpose, reset_token, reset_token_expires_at, created_at, updated_at`

// Repository implements identity.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
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
			return identity.ErrEmailExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by id.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.getUser(ctx, "get user by id", query, id)
}

// GetUserByEmail retrieves a user by normalized email.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getUser(ctx, "get user by email", query, email)
}

// GetUserByEmailAndRole retrieves a user matching both email and role.
func (r *Repository) GetUserByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1 AND role = $2`
	return r.getUser(ctx, "get user by email and role", query, email, role)
}

// GetUserByResetToken retrieves the user holding token.
func (r *Repository) GetUserByResetToken(ctx context.Context, token string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE reset_token = $1`
	return r.getUser(ctx, "get user by reset token", query, token)
}

// EmailTakenByOther reports whether a user other than excludeID has email.
func (r *Repository) EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1 AND id <> $2)`
	var taken bool
	if err := r.db.QueryRow(ctx, query, email, excludeID).Scan(&taken); err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return taken, nil
}

// UpdateProfile persists name, email and password hash.
func (r *Repository) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET name = $2, email = $3, password_hash = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.PasswordHash).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return identity.ErrUserNotFound
		}
		if postgres.IsUniqueViolation(err, "users_email_key") {
			return identity.ErrEmailExists
		}
		return fmt.Errorf("update profile: %w", err)
	}
	return nil
}

// SetOTP stores a code unless an unexpired one is present.
// The condition is evaluated by the UPDATE itself, so concurrent requests issue at most one code.
func (r *Repository) SetOTP(ctx context.Context, userID string, purpose identity.OTPPurpose, code string, expiresAt, now time.Time) error {
	query := `
		UPDATE users
		SET otp = $2, otp_expires_at = $3, otp_purpose = $5, updated_at = NOW()
		WHERE id = $1 AND (otp IS NULL OR otp_expires_at <= $4)
	`
	tag, err := r.db.Exec(ctx, query, userID, code, expiresAt, now, string(purpose))
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		exists, err := r.exists(ctx, userID)
		if err != nil {
			return err
		}
		if !exists {
			return identity.ErrUserNotFound
		}
		return identity.ErrOTPPending
	}
	return nil
}

// ClearOTP removes any stored code.
func (r *Repository) ClearOTP(ctx context.Context, userID string) error {
	query := `UPDATE users SET otp = NULL, otp_expires_at = NULL, otp_purpose = NULL, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("clear otp: %w", err)
	}
	return nil
}

// ConsumeOTP clears the code if it still matches and belongs to purpose.
func (r *Repository) ConsumeOTP(ctx context.Context, userID string, purpose identity.OTPPurpose, code string) error {
	query := `
		UPDATE users
		SET otp = NULL, otp_expires_at = NULL, otp_purpose = NULL, updated_at = NOW()
		WHERE id = $1 AND otp = $2 AND otp_purpose = $3
	`
	tag, err := r.db.Exec(ctx, query, userID, code, string(purpose))
	if err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrInvalidOTP
	}
	return nil
}

// SetResetToken replaces any previous reset token.
func (r *Repository) SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_token = $2, reset_token_expires_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.db.Exec(ctx, query, userID, token, expiresAt)
	if err != nil {
		return fmt.Errorf("set reset token: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrUserNotFound
	}
	return nil
}

// ResetPassword stores the new hash and clears the reset token if it still matches.
func (r *Repository) ResetPassword(ctx context.Context, userID, token, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $3, reset_token = NULL, reset_token_expires_at = NULL, updated_at = NOW()
		WHERE id = $1 AND reset_token = $2
	`
	tag, err := r.db.Exec(ctx, query, userID, token, passwordHash)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return identity.ErrInvalidResetToken
	}
	return nil
}

func (r *Repository) exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check user exists: %w", err)
	}
	return exists, nil
}

func (r *Repository) getUser(ctx context.Context, op, query string, args ...any) (*domain.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, identity.ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Role,
		&user.StaffRole,
		&user.Status,
		&user.CreatedBy,
		&user.OTP,
		&user.OTPExpiresAt,
		&user.OTPPurpose,
		&user.ResetToken,
		&user.ResetTokenExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}
