package httputil

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ctxlog"
)

// Principal is the caller of an authenticated request. AuthMiddleware sets
// UserID; RequireRole adds Role and TenantID.
type Principal struct {
	UserID   string
	Role     domain.Role
	TenantID string
}

type principalKey struct{}

// WithPrincipal returns a copy of ctx carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFrom returns the caller attached to ctx, if any.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// GetUserID returns the authenticated user id, or "" outside AuthMiddleware.
func GetUserID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.UserID
}

// GetRole returns the caller's current role, or "" outside RequireRole.
func GetRole(ctx context.Context) domain.Role {
	p, _ := PrincipalFrom(ctx)
	return p.Role
}

// GetTenantID returns the pharmacy admin id owning the caller's data, or "" outside RequireRole.
func GetTenantID(ctx context.Context) string {
	p, _ := PrincipalFrom(ctx)
	return p.TenantID
}

// TokenValidator validates a session token and returns the user id it carries.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (userID string, err error)
}

// UserLookup fetches the current state of a user. A missing user is reported
// as domain.ErrUserNotFound.
type UserLookup interface {
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
}

// AuthMiddleware rejects requests without a valid bearer token.
// Every rejection returns the same 401 body; the reason is only logged.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := ctxlog.FromContext(r.Context())

			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Debug("unauthenticated request", "reason", "missing or malformed authorization header")
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				log.Info("unauthenticated request", "reason", err.Error())
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			ctx := WithPrincipal(r.Context(), Principal{UserID: userID})
			ctx = ctxlog.With(ctx, "user_id", userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken accepts exactly "Bearer <token>" with a non-empty token and no further parts.
func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, "Bearer ")
	if !ok || token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// RequireRole lets through active users whose role is one of allowed. The user
// is re-read on every request, so role and status changes apply to tokens
// already issued.
func RequireRole(lookup UserLookup, allowed ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFrom(r.Context())
			if !ok || p.UserID == "" {
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			user, err := lookup.GetUserByID(r.Context(), p.UserID)
			if errors.Is(err, domain.ErrUserNotFound) {
				ctxlog.FromContext(r.Context()).Info("unauthenticated request", "reason", "user no longer exists")
				Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if err != nil {
				HandleError(r.Context(), w, fmt.Errorf("look up caller: %w", err), nil)
				return
			}

			switch {
			case !slices.Contains(allowed, user.Role):
				Error(w, http.StatusForbidden, "insufficient permissions")
				return
			case user.Status == domain.UserStatusInactive:
				Error(w, http.StatusForbidden, "account is inactive")
				return
			}

			p.Role = user.Role
			p.TenantID = user.TenantID()
			ctx := WithPrincipal(r.Context(), p)
			ctx = ctxlog.With(ctx, "tenant_id", p.TenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
