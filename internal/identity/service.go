// Package identity provides registration, login, OTP flows and profile management.
package identity

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/identity/otp"
	"github.com/rxdesk/pharmacy-api/internal/identity/password"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
	"github.com/rxdesk/pharmacy-api/internal/pkg/metrics"
)

// OTPPurpose tells the notifier which message to send.
type OTPPurpose string

// OTP purposes.
const (
	OTPPurposePasswordReset OTPPurpose = "password_reset"
	OTPPurposeLogin         OTPPurpose = "login"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
	DummyVerify(plaintext string)
}

// TokenIssuer issues and parses session tokens.
type TokenIssuer interface {
	Issue(userID string) (string, time.Time, error)
	Parse(token string) (string, error)
}

// Notifier delivers OTP and password-change messages.
type Notifier interface {
	SendOTP(ctx context.Context, to, name, code string, purpose OTPPurpose, ttl time.Duration) error
	SendPasswordChanged(ctx context.Context, to, name string) error
}

// Config contains OTP windows and delivery mode.
type Config struct {
	ForgotPasswordTTL time.Duration
	LoginTTL          time.Duration
	ResetTokenTTL     time.Duration
	// DiagnosticMode returns codes to the caller instead of sending them.
	DiagnosticMode bool
}

// Service implements the identity flows.
type Service struct {
	repo     Repository
	hasher   PasswordHasher
	tokens   TokenIssuer
	notifier Notifier
	config   Config

	now           func() time.Time
	generateOTP   func() (string, error)
	newResetToken func() (string, error)
}

// NewService creates a new identity service.
func NewService(repo Repository, hasher PasswordHasher, tokens TokenIssuer, notifier Notifier, config Config) *Service {
	return &Service{
		repo:          repo,
		hasher:        hasher,
		tokens:        tokens,
		notifier:      notifier,
		config:        config,
		now:           time.Now,
		generateOTP:   otp.Generate,
		newResetToken: otp.NewResetToken,
	}
}

// RegisterInput contains data for registration.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// LoginInput contains data for login.
type LoginInput struct {
	Email    string
	Password string
}

// UpdateProfileInput contains optional profile changes.
type UpdateProfileInput struct {
	Name            *string
	Email           *string
	CurrentPassword string
	NewPassword     string
}

// AuthResult is a session token together with the authenticated user.
type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *domain.User
}

// OTPChallenge describes an issued code. Code is set only in diagnostic mode.
type OTPChallenge struct {
	ExpiresAt time.Time
	Code      string
}

// ResetGrant is the credential returned after a forgot-password OTP is verified.
type ResetGrant struct {
	Token     string
	ExpiresAt time.Time
}

// Register creates a new identity. Unknown or empty roles default to PHARMACY_ADMIN.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*domain.User, error) {
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		role = domain.RolePharmacyAdmin
	}
	if role == domain.RoleStaff {
		return nil, ErrStaffSelfRegistration
	}

	email := domain.NormalizeEmail(input.Email)

	_, err := s.repo.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		Status:       domain.UserStatusActive,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	ctxlog.FromContext(ctx).Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login authenticates by email and password.
// Unknown email and wrong password produce the same error.
func (s *Service) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, domain.NormalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.hasher.DummyVerify(input.Password)
			metrics.AuthLogins.WithLabelValues("password", "invalid_credentials").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		metrics.AuthLogins.WithLabelValues("password", "invalid_credentials").Inc()
		return nil, ErrInvalidCredentials
	}

	if user.Status == domain.UserStatusInactive {
		metrics.AuthLogins.WithLabelValues("password", "inactive").Inc()
		return nil, ErrAccountInactive
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthLogins.WithLabelValues("password", "success").Inc()
	return result, nil
}

// ForgotPassword issues a password-reset OTP with the forgot-password window.
func (s *Service) ForgotPassword(ctx context.Context, email string) (*OTPChallenge, error) {
	user, err := s.repo.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}

	return s.issueOTP(ctx, user, OTPPurposePasswordReset, s.config.ForgotPasswordTTL)
}

// VerifyForgotOTP checks a password-reset OTP and exchanges it for a reset token.
func (s *Service) VerifyForgotOTP(ctx context.Context, email, role, code string) (*ResetGrant, error) {
	user, err := s.lookupByEmailAndRole(ctx, email, role)
	if err != nil {
		return nil, err
	}

	if err := s.checkOTP(user, OTPPurposePasswordReset, code); err != nil {
		return nil, err
	}

	if err := s.repo.ConsumeOTP(ctx, user.ID, OTPPurposePasswordReset, code); err != nil {
		return nil, err
	}

	token, err := s.newResetToken()
	if err != nil {
		return nil, err
	}
	expiresAt := s.now().Add(s.config.ResetTokenTTL)

	if err := s.repo.SetResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return nil, fmt.Errorf("set reset token: %w", err)
	}

	return &ResetGrant{Token: token, ExpiresAt: expiresAt}, nil
}

// ResetPassword sets a new password using a reset token. The token is single use.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword, confirmPassword string) error {
	if newPassword != confirmPassword {
		return ErrPasswordMismatch
	}

	user, err := s.repo.GetUserByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("get user by reset token: %w", err)
	}

	if user.ResetTokenExpiresAt == nil || !s.now().Before(*user.ResetTokenExpiresAt) {
		return ErrInvalidResetToken
	}

	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}

	if err := s.repo.ResetPassword(ctx, user.ID, token, hash); err != nil {
		return err
	}

	metrics.AuthPasswordResets.Inc()
	ctxlog.FromContext(ctx).Info("password reset", "user_id", user.ID)

	if err := s.notifier.SendPasswordChanged(ctx, user.Email, user.Name); err != nil {
		ctxlog.FromContext(ctx).Warn("failed to send password changed email", "user_id", user.ID, "error", err)
	}

	return nil
}

// RequestLoginOTP issues a login OTP with the login window.
func (s *Service) RequestLoginOTP(ctx context.Context, email, role string) (*OTPChallenge, error) {
	user, err := s.lookupByEmailAndRole(ctx, email, role)
	if err != nil {
		return nil, err
	}

	return s.issueOTP(ctx, user, OTPPurposeLogin, s.config.LoginTTL)
}

// VerifyLoginOTP checks a login OTP and issues a session token.
func (s *Service) VerifyLoginOTP(ctx context.Context, email, role, code string) (*AuthResult, error) {
	user, err := s.lookupByEmailAndRole(ctx, email, role)
	if err != nil {
		return nil, err
	}

	if err := s.checkOTP(user, OTPPurposeLogin, code); err != nil {
		metrics.AuthLogins.WithLabelValues("otp", "invalid_otp").Inc()
		return nil, err
	}

	if err := s.repo.ConsumeOTP(ctx, user.ID, OTPPurposeLogin, code); err != nil {
		return nil, err
	}

	if user.Status == domain.UserStatusInactive {
		metrics.AuthLogins.WithLabelValues("otp", "inactive").Inc()
		return nil, ErrAccountInactive
	}

	result, err := s.session(user)
	if err != nil {
		return nil, err
	}

	metrics.AuthLogins.WithLabelValues("otp", "success").Inc()
	return result, nil
}

// UpdateProfile changes name, email and password of the user.
func (s *Service) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*domain.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if name := strings.TrimSpace(*input.Name); name != "" {
			user.Name = name
		}
	}

	if input.Email != nil {
		email := domain.NormalizeEmail(*input.Email)
		if email != "" && email != user.Email {
			taken, err := s.repo.EmailTakenByOther(ctx, email, user.ID)
			if err != nil {
				return nil, fmt.Errorf("check email: %w", err)
			}
			if taken {
				return nil, ErrEmailInUse
			}
			user.Email = email
		}
	}

	if input.NewPassword != "" {
		if input.CurrentPassword == "" {
			return nil, ErrCurrentPasswordRequired
		}
		if !s.hasher.Verify(input.CurrentPassword, user.PasswordHash) {
			return nil, ErrIncorrectPassword
		}
		if s.hasher.Verify(input.NewPassword, user.PasswordHash) {
			return nil, ErrPasswordReused
		}
		hash, err := s.hash(input.NewPassword)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.repo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailInUse
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *Service) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

// ValidateToken verifies a session token and returns the user id it was issued for.
func (s *Service) ValidateToken(_ context.Context, token string) (string, error) {
	userID, err := s.tokens.Parse(token)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return userID, nil
}

func (s *Service) lookupByEmailAndRole(ctx context.Context, email, role string) (*domain.User, error) {
	parsed, ok := domain.ParseRole(role)
	if !ok {
		return nil, ErrUserNotFound
	}
	return s.repo.GetUserByEmailAndRole(ctx, domain.NormalizeEmail(email), parsed)
}

func (s *Service) issueOTP(ctx context.Context, user *domain.User, purpose OTPPurpose, ttl time.Duration) (*OTPChallenge, error) {
	code, err := s.generateOTP()
	if err != nil {
		return nil, err
	}

	now := s.now()
	expiresAt := now.Add(ttl)

	if err := s.repo.SetOTP(ctx, user.ID, purpose, code, expiresAt, now); err != nil {
		return nil, err
	}

	metrics.AuthOTPIssued.WithLabelValues(string(purpose)).Inc()

	if s.config.DiagnosticMode {
		ctxlog.FromContext(ctx).Warn("diagnostic mode: returning OTP in response", "user_id", user.ID, "purpose", purpose)
		return &OTPChallenge{ExpiresAt: expiresAt, Code: code}, nil
	}

	if err := s.notifier.SendOTP(ctx, user.Email, user.Name, code, purpose, ttl); err != nil {
		// An undelivered code must not block new requests.
		if clearErr := s.repo.ClearOTP(ctx, user.ID); clearErr != nil {
			ctxlog.FromContext(ctx).Error("failed to clear undelivered OTP", "user_id", user.ID, "error", clearErr)
		}
		return nil, fmt.Errorf("deliver otp: %w", err)
	}

	ctxlog.FromContext(ctx).Info("otp sent", "user_id", user.ID, "purpose", purpose)
	return &OTPChallenge{ExpiresAt: expiresAt}, nil
}

// checkOTP compares the code first; expiry is reported only for a matching code.
// A code issued by the other flow is invalid here.
func (s *Service) checkOTP(user *domain.User, purpose OTPPurpose, code string) error {
	if user.OTP == nil || user.OTPExpiresAt == nil {
		return ErrInvalidOTP
	}
	if user.OTPPurpose == nil || *user.OTPPurpose != string(purpose) {
		return ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(code), []byte(*user.OTP)) != 1 {
		return ErrInvalidOTP
	}
	if !s.now().Before(*user.OTPExpiresAt) {
		return ErrOTPExpired
	}
	return nil
}

func (s *Service) session(user *domain.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) hash(plaintext string) (string, error) {
	hash, err := s.hasher.Hash(plaintext)
	if err != nil {
		if errors.Is(err, password.ErrTooLong) {
			return "", ErrPasswordTooLong
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return hash, nil
}
