package identity

import (
	"context"
	"time"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// Repository defines the credential store used by the identity module.
type Repository interface {
	// CreateUser returns ErrEmailExists when the email is taken.
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.User, error)
	GetUserByResetToken(ctx context.Context, token string) (*domain.User, error)
	EmailTakenByOther(ctx context.Context, email, excludeID string) (bool, error)
	// UpdateProfile persists name, email and password hash.
	UpdateProfile(ctx context.Context, user *domain.User) error

	// SetOTP stores code for purpose only if the user has no OTP or it expired
	// at or before now. Otherwise it returns ErrOTPPending.
	SetOTP(ctx context.Context, userID string, purpose OTPPurpose, code string, expiresAt, now time.Time) error
	ClearOTP(ctx context.Context, userID string) error
	// ConsumeOTP clears the OTP only if it still equals code and was issued for
	// purpose. Returns ErrInvalidOTP otherwise.
	ConsumeOTP(ctx context.Context, userID string, purpose OTPPurpose, code string) error

	SetResetToken(ctx context.Context, userID, token string, expiresAt time.Time) error
	// ResetPassword stores hash and clears the reset token only if it still equals token.
	// Returns ErrInvalidResetToken otherwise.
	ResetPassword(ctx context.Context, userID, token, passwordHash string) error
}
