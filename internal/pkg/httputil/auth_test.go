package httputil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct {
	tokens map[string]string
}

func (s stubValidator) ValidateToken(_ context.Context, token string) (string, error) {
	if id, ok := s.tokens[token]; ok {
		return id, nil
	}
	return "", errors.New("signature is invalid")
}

type stubLookup struct {
	users map[string]*domain.User
}

func (s stubLookup) GetUserByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func TestAuthMiddleware_Header(t *testing.T) {
	validator := stubValidator{tokens: map[string]string{"good": "u1"}}

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid", header: "Bearer good", wantStatus: http.StatusOK},
		{name: "missing", header: "", wantStatus: http.StatusUnauthorized},
		{name: "lowercase scheme", header: "bearer good", wantStatus: http.StatusUnauthorized},
		{name: "no token", header: "Bearer ", wantStatus: http.StatusUnauthorized},
		{name: "scheme only", header: "Bearer", wantStatus: http.StatusUnauthorized},
		{name: "extra parts", header: "Bearer good extra", wantStatus: http.StatusUnauthorized},
		{name: "double space", header: "Bearer  good", wantStatus: http.StatusUnauthorized},
		{name: "basic scheme", header: "Basic good", wantStatus: http.StatusUnauthorized},
		{name: "unknown token", header: "Bearer bad", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUserID string
			handler := AuthMiddleware(validator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUserID = GetUserID(r.Context())
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "u1", gotUserID)
			} else {
				assert.JSONEq(t, `{"error":{"message":"unauthorized"}}`, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	adminID := "admin-1"
	lookup := stubLookup{users: map[string]*domain.User{
		"admin-1":  {ID: "admin-1", Role: domain.RolePharmacyAdmin, Status: domain.UserStatusActive},
		"staff-1":  {ID: "staff-1", Role: domain.RoleStaff, Status: domain.UserStatusActive, CreatedBy: &adminID},
		"retired":  {ID: "retired", Role: domain.RolePharmacyAdmin, Status: domain.UserStatusInactive},
		"promoted": {ID: "promoted", Role: domain.RoleSuperAdmin, Status: domain.UserStatusActive},
	}}
	validator := stubValidator{tokens: map[string]string{
		"admin":    "admin-1",
		"staff":    "staff-1",
		"retired":  "retired",
		"promoted": "promoted",
		"ghost":    "deleted-user",
	}}

	r := chi.NewRouter()
	r.Use(AuthMiddleware(validator))
	r.With(RequireRole(lookup, domain.RolePharmacyAdmin, domain.RoleSuperAdmin)).
		Get("/admin", func(w http.ResponseWriter, r *http.Request) {
			Success(w, http.StatusOK, map[string]string{
				"role":   string(GetRole(r.Context())),
				"tenant": GetTenantID(r.Context()),
			})
		})
	r.With(RequireRole(lookup, domain.RolePharmacyAdmin, domain.RoleStaff, domain.RoleSuperAdmin)).
		Get("/shared", func(w http.ResponseWriter, r *http.Request) {
			Success(w, http.StatusOK, map[string]string{"tenant": GetTenantID(r.Context())})
		})

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
		wantBody   string
	}{
		{name: "admin allowed", path: "/admin", token: "admin", wantStatus: http.StatusOK,
			wantBody: `{"data":{"role":"PHARMACY_ADMIN","tenant":"admin-1"}}`},
		{name: "staff forbidden", path: "/admin", token: "staff", wantStatus: http.StatusForbidden,
			wantBody: `{"error":{"message":"insufficient permissions"}}`},
		{name: "role read from store", path: "/admin", token: "promoted", wantStatus: http.StatusOK,
			wantBody: `{"data":{"role":"SUPER_ADMIN","tenant":"promoted"}}`},
		{name: "inactive forbidden", path: "/admin", token: "retired", wantStatus: http.StatusForbidden},
		{name: "identity gone", path: "/admin", token: "ghost", wantStatus: http.StatusUnauthorized},
		{name: "staff tenant is creator", path: "/shared", token: "staff", wantStatus: http.StatusOK,
			wantBody: `{"data":{"tenant":"admin-1"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

type failingLookup struct{}

func (failingLookup) GetUserByID(context.Context, string) (*domain.User, error) {
	return nil, errors.New("get user by id: connection refused")
}

func TestRequireRole_LookupFailure(t *testing.T) {
	r := chi.NewRouter()
	r.Use(AuthMiddleware(stubValidator{tokens: map[string]string{"admin": "admin-1"}}))
	r.With(RequireRole(failingLookup{}, domain.RolePharmacyAdmin)).
		Get("/admin", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.Header.Set("Authorization", "Bearer admin")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":{"message":"internal error"}}`, rec.Body.String())
}

func TestRequireRole_NoUserInContext(t *testing.T) {
	handler := RequireRole(stubLookup{})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPrincipal_Context(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, GetUserID(ctx))
	assert.Empty(t, GetTenantID(ctx))

	ctx = WithPrincipal(ctx, Principal{UserID: "staff-1", Role: domain.RoleStaff, TenantID: "admin-1"})
	p, ok := PrincipalFrom(ctx)
	require.True(t, ok)
	assert.Equal(t, "staff-1", p.UserID)
	assert.Equal(t, domain.RoleStaff, GetRole(ctx))
	assert.Equal(t, "admin-1", GetTenantID(ctx))
}
