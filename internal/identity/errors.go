package identity

import (
	"errors"

	"github.com/rxdesk/pharmacy-api/internal/domain"
)

// Repository errors.
var (
	ErrUserNotFound = domain.ErrUserNotFound
	ErrEmailExists  = errors.New("email already registered")
	// ErrOTPPending is returned by SetOTP when an unexpired code is already stored.
	ErrOTPPending = errors.New("an OTP was already sent, wait before requesting a new one")
)

// Authentication errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is inactive")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Registration and profile errors.
var (
	ErrStaffSelfRegistration   = errors.New("staff accounts are created by a pharmacy admin")
	ErrEmailInUse              = errors.New("email already in use")
	ErrCurrentPasswordRequired = errors.New("current password is required")
	ErrIncorrectPassword       = errors.New("current password is incorrect")
	ErrPasswordReused          = errors.New("new password must be different")
	ErrPasswordTooLong         = errors.New("password is too long")
)

// OTP and reset errors.
var (
	ErrInvalidOTP        = errors.New("invalid OTP")
	ErrOTPExpired        = errors.New("OTP expired")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrInvalidResetToken = errors.New("invalid or expired reset token")
)
