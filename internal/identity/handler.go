package identity

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
)

var errorMappings = []httputil.ErrorMapping{
	{Error: ErrUserNotFound, Status: http.StatusNotFound, Message: "user not found"},
	{Error: ErrEmailExists, Status: http.StatusConflict},
	{Error: ErrEmailInUse, Status: http.StatusConflict},
	{Error: ErrInvalidCredentials, Status: http.StatusUnauthorized},
	{Error: ErrInvalidToken, Status: http.StatusUnauthorized, Message: "unauthorized"},
	{Error: ErrIncorrectPassword, Status: http.StatusUnauthorized},
	{Error: ErrAccountInactive, Status: http.StatusForbidden},
	{Error: ErrOTPPending, Status: http.StatusTooManyRequests},
	{Error: ErrStaffSelfRegistration, Status: http.StatusBadRequest},
	{Error: ErrCurrentPasswordRequired, Status: http.StatusBadRequest},
	{Error: ErrPasswordReused, Status: http.StatusBadRequest},
	{Error: ErrPasswordTooLong, Status: http.StatusBadRequest},
	{Error: ErrInvalidOTP, Status: http.StatusBadRequest},
	{Error: ErrOTPExpired, Status: http.StatusBadRequest},
	{Error: ErrPasswordMismatch, Status: http.StatusBadRequest},
	{Error: ErrInvalidResetToken, Status: http.StatusBadRequest},
}

// Handler handles HTTP requests for the identity module.
type Handler struct {
	service   *Service
	validator *validator.Validate
}

// NewHandler creates a new identity handler.
func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(),
	}
}

// RegisterRoutes registers public auth routes. They are mounted under /auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/logout", h.Logout)
	r.Post("/forgot-password", h.ForgotPassword)
	r.Post("/verify-forgot-otp", h.VerifyForgotOTP)
	r.Post("/reset-password", h.ResetPassword)
	r.Post("/login-otp/request", h.RequestLoginOTP)
	r.Post("/login-otp/verify", h.VerifyLoginOTP)
}

// RegisterProtectedRoutes registers routes that require authentication.
func (h *Handler) RegisterProtectedRoutes(r chi.Router) {
	r.Put("/auth/update-profile", h.UpdateProfile)
	r.Get("/me", h.Me)
}

// RegisterRequest represents registration request body.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Role     string `json:"role"`
}

// LoginRequest represents login request body.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SessionResponse is returned by both login flows.
type SessionResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	User      *domain.PublicUser `json:"user"`
}

// ForgotPasswordRequest represents forgot-password request body.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// OTPRequest represents a login-OTP request body.
type OTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role" validate:"required"`
}

// VerifyOTPRequest represents an OTP verification body.
type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,len=6,numeric"`
	Role  string `json:"role" validate:"required"`
}

// OTPResponse acknowledges an issued code. OTP is only set in diagnostic mode.
type OTPResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
	OTP       string    `json:"otp,omitempty"`
}

// ResetGrantResponse carries the reset token.
type ResetGrantResponse struct {
	ResetToken string    `json:"resetToken"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// ResetPasswordRequest represents reset-password request body.
type ResetPasswordRequest struct {
	ResetToken      string `json:"resetToken" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// UpdateProfileRequest represents update-profile request body.
type UpdateProfileRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	Email           *string `json:"email" validate:"omitempty,email"`
	CurrentPassword string  `json:"currentPassword"`
	NewPassword     string  `json:"newPassword" validate:"omitempty,min=6,max=72"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.Register(r.Context(), RegisterInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusCreated, user.Public())
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.Login(r.Context(), LoginInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, sessionResponse(result))
}

// Logout handles POST /auth/logout. Sessions are stateless; the client discards its token.
func (h *Handler) Logout(w http.ResponseWriter, _ *http.Request) {
	httputil.Success(w, http.StatusOK, MessageResponse{Message: "logged out"})
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	challenge, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, otpResponse("OTP sent to your email", challenge))
}

// VerifyForgotOTP handles POST /auth/verify-forgot-otp.
func (h *Handler) VerifyForgotOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	grant, err := h.service.VerifyForgotOTP(r.Context(), req.Email, req.Role, req.OTP)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, ResetGrantResponse{
		ResetToken: grant.Token,
		ExpiresAt:  grant.ExpiresAt,
	})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.ResetToken, req.NewPassword, req.ConfirmPassword); err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, MessageResponse{Message: "password reset successful"})
}

// RequestLoginOTP handles POST /auth/login-otp/request.
func (h *Handler) RequestLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req OTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	challenge, err := h.service.RequestLoginOTP(r.Context(), req.Email, req.Role)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, otpResponse("login OTP sent to your email", challenge))
}

// VerifyLoginOTP handles POST /auth/login-otp/verify.
func (h *Handler) VerifyLoginOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	result, err := h.service.VerifyLoginOTP(r.Context(), req.Email, req.Role, req.OTP)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, sessionResponse(result))
}

// UpdateProfile handles PUT /auth/update-profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req UpdateProfileRequest
	if !h.decode(w, r, &req) {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), userID, UpdateProfileInput(req))
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user.Public())
}

// Me handles GET /me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r.Context())
	if userID == "" {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUserByID(r.Context(), userID)
	if err != nil {
		httputil.HandleError(r.Context(), w, err, errorMappings)
		return
	}

	httputil.Success(w, http.StatusOK, user.Public())
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		httputil.Error(w, http.StatusBadRequest, "invalid json")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		httputil.ValidationError(w, err)
		return false
	}
	return true
}

func sessionResponse(result *AuthResult) SessionResponse {
	return SessionResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User.Public(),
	}
}

func otpResponse(message string, challenge *OTPChallenge) OTPResponse {
	return OTPResponse{
		Message:   message,
		ExpiresAt: challenge.ExpiresAt,
		OTP:       challenge.Code,
	}
}
