package app

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rxdesk/pharmacy-api/internal/config"
	"github.com/rxdesk/pharmacy-api/internal/customers"
	customerspostgres "github.com/rxdesk/pharmacy-api/internal/customers/postgres"
	"github.com/rxdesk/pharmacy-api/internal/domain"
	"github.com/rxdesk/pharmacy-api/internal/identity"
	"github.com/rxdesk/pharmacy-api/internal/identity/jwt"
	"github.com/rxdesk/pharmacy-api/internal/identity/password"
	identitypostgres "github.com/rxdesk/pharmacy-api/internal/identity/postgres"
	"github.com/rxdesk/pharmacy-api/internal/inventory"
	inventorypostgres "github.com/rxdesk/pharmacy-api/internal/inventory/postgres"
	"github.com/rxdesk/pharmacy-api/internal/notifications"
	"github.com/rxdesk/pharmacy-api/internal/notifications/email"
	"github.com/rxdesk/pharmacy-api/internal/pharmacy"
	pharmacypostgres "github.com/rxdesk/pharmacy-api/internal/pharmacy/postgres"
	"github.com/rxdesk/pharmacy-api/internal/pkg/httputil"
	"github.com/rxdesk/pharmacy-api/internal/pkg/ratelimit"
	"github.com/rxdesk/pharmacy-api/internal/staff"
	staffpostgres "github.com/rxdesk/pharmacy-api/internal/staff/postgres"
)

const (
	uploadsURLPrefix = "/uploads"
	requestTimeout   = 60 * time.Second
)

var (
	adminRoles  = []domain.Role{domain.RolePharmacyAdmin, domain.RoleSuperAdmin}
	memberRoles = []domain.Role{domain.RolePharmacyAdmin, domain.RoleSuperAdmin, domain.RoleStaff}
)

// handlers are the feature handlers mounted under /api.
type handlers struct {
	identityService *identity.Service
	identity        *identity.Handler
	pharmacy        *pharmacy.Handler
	staff           *staff.Handler
	inventory       *inventory.Handler
	customers       *customers.Handler
}

func (a *App) newHandlers() (*handlers, error) {
	mailer, err := newMailer(a.config.Notifications.Email)
	if err != nil {
		return nil, err
	}

	issuer, err := jwt.NewIssuer(jwt.Config{
		SecretKey:           a.config.JWT.SecretKey,
		Issuer:              a.config.JWT.Issuer,
		AccessTokenDuration: a.config.JWT.AccessTokenDuration,
	})
	if err != nil {
		return nil, fmt.Errorf("create token issuer: %w", err)
	}

	if a.config.App.DiagnosticMode {
		a.logger.Warn("diagnostic mode is on: one-time codes are returned in API responses")
	}

	hasher := password.NewHasher(a.config.OTP.BcryptCost)
	identityService := identity.NewService(identitypostgres.NewRepository(a.db), hasher, issuer, mailer, identity.Config{
		ForgotPasswordTTL: a.config.OTP.ForgotPasswordTTL,
		LoginTTL:          a.config.OTP.LoginTTL,
		ResetTokenTTL:     a.config.OTP.ResetTokenTTL,
		DiagnosticMode:    a.config.App.DiagnosticMode,
	})

	uploads := a.config.Uploads
	logos, err := pharmacy.NewDiskLogoStore(uploads.Dir, uploadsURLPrefix, uploads.MaxLogoBytes)
	if err != nil {
		return nil, fmt.Errorf("create logo store: %w", err)
	}

	return &handlers{
		identityService: identityService,
		identity:        identity.NewHandler(identityService),
		pharmacy:        pharmacy.NewHandler(pharmacy.NewService(pharmacypostgres.NewRepository(a.db), logos), uploads.MaxLogoBytes),
		staff:           staff.NewHandler(staff.NewService(staffpostgres.NewRepository(a.db), hasher)),
		inventory: inventory.NewHandler(
			inventory.NewService(inventorypostgres.NewRepository(a.db), a.config.Inventory.LowStockThreshold),
		),
		customers: customers.NewHandler(customers.NewService(customerspostgres.NewRepository(a.db))),
	}, nil
}

func (a *App) routes() (*chi.Mux, error) {
	h, err := a.newHandlers()
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()

	// Outermost, so the duration covers every other middleware.
	r.Use(httputil.MetricsMiddleware)
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Get("/healthz", a.healthz)
	r.Get("/readyz", a.readyz)
	r.Get("/version", versionInfo)
	r.Get("/api/openapi.yaml", openAPIDocument)
	r.Get("/docs", apiDocs)

	r.Handle(uploadsURLPrefix+"/*", http.StripPrefix(uploadsURLPrefix, http.FileServer(http.Dir(a.config.Uploads.Dir))))

	limiter := a.newLimiter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if limiter != nil {
				r.Use(ratelimit.Middleware(limiter, "auth"))
			}
			h.identity.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(h.identityService))
			h.identity.RegisterProtectedRoutes(r)

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(h.identityService, adminRoles...))
				h.pharmacy.RegisterAdminRoutes(r)
				h.staff.RegisterRoutes(r)
			})

			r.Group(func(r chi.Router) {
				r.Use(httputil.RequireRole(h.identityService, memberRoles...))
				h.pharmacy.RegisterRoutes(r)
				h.inventory.RegisterRoutes(r)
				h.customers.RegisterRoutes(r)
			})
		})
	})

	return r, nil
}

func newMailer(cfg config.EmailConfig) (*notifications.Mailer, error) {
	sender, err := email.NewSender(email.Config{
		Enabled:      cfg.Enabled,
		SMTPHost:     cfg.SMTPHost,
		SMTPPort:     cfg.SMTPPort,
		SMTPUser:     cfg.SMTPUser,
		SMTPPassword: cfg.SMTPPassword,
		FromAddress:  cfg.FromAddress,
	})
	if err != nil {
		return nil, fmt.Errorf("create email sender: %w", err)
	}
	if !cfg.Enabled {
		slog.Warn("email is disabled: one-time codes and password change notices will not be delivered")
	}

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return nil, fmt.Errorf("create notification renderer: %w", err)
	}

	return notifications.NewMailer(sender, renderer, notifications.DefaultRetryConfig()), nil
}

// newLimiter returns nil when rate limiting is disabled.
func (a *App) newLimiter() ratelimit.Limiter {
	cfg := a.config.RateLimit
	if !cfg.Enabled {
		return nil
	}

	a.logger.Info("rate limiting auth endpoints",
		"backend", cfg.Backend,
		"requests", cfg.Requests,
		"window", cfg.Window,
	)
	if cfg.Backend == config.RateLimitBackendRedis {
		return ratelimit.NewRedisLimiter(a.redis, cfg.Requests, cfg.Window)
	}
	return ratelimit.NewMemoryLimiter(cfg.Requests, cfg.Window)
}
