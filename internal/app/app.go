// Package app wires configuration, stores and HTTP handlers into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rxdesk/pharmacy-api/internal/config"
	"github.com/rxdesk/pharmacy-api/internal/pkg/metrics"
	"github.com/rxdesk/pharmacy-api/internal/pkg/postgres"
	"golang.org/x/sync/errgroup"
)

const poolMetricsInterval = 15 * time.Second

// App owns the API and metrics servers and the stores behind them.
type App struct {
	config *config.Config
	logger *slog.Logger
	db     *pgxpool.Pool
	redis  *redis.Client

	server        *http.Server
	metricsServer *http.Server
	stopMetrics   context.CancelFunc
}

type namedServer struct {
	name string
	srv  *http.Server
}

// New connects to PostgreSQL (and Redis when it backs the rate limiter) and
// builds the HTTP servers. Nothing listens until Run.
func New(cfg *config.Config) (*App, error) {
	a := &App{config: cfg, logger: NewLogger(cfg.Log)}

	if err := a.openStores(); err != nil {
		return nil, err
	}

	router, err := a.routes()
	if err != nil {
		a.closeStores()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	a.server = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())
	a.metricsServer = &http.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
	}

	metricsCtx, stop := context.WithCancel(context.Background())
	a.stopMetrics = stop
	go a.observePool(metricsCtx)

	return a, nil
}

func (a *App) openStores() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.Database.ConnectTimeout)
	defer cancel()

	db, err := postgres.Connect(ctx, postgres.Config{
		URL:             a.config.Database.URL,
		MaxOpenConns:    a.config.Database.MaxOpenConns,
		MaxIdleConns:    a.config.Database.MaxIdleConns,
		ConnMaxLifetime: a.config.Database.ConnMaxLifetime,
		ConnectAttempts: a.config.Database.ConnectAttempts,
	})
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	a.db = db

	rl := a.config.RateLimit
	if !rl.Enabled || rl.Backend != config.RateLimitBackendRedis {
		return nil
	}

	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.config.Redis.Addr,
		Password: a.config.Redis.Password,
		DB:       a.config.Redis.DB,
	})
	if err := a.redis.Ping(ctx).Err(); err != nil {
		a.closeStores()
		return fmt.Errorf("connect to redis at %s: %w", a.config.Redis.Addr, err)
	}
	return nil
}

func (a *App) closeStores() error {
	if a.db != nil {
		a.db.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			return fmt.Errorf("close redis: %w", err)
		}
	}
	return nil
}

func (a *App) servers() []namedServer {
	return []namedServer{{"api", a.server}, {"metrics", a.metricsServer}}
}

// Run serves the API and metrics until Shutdown. If either listener fails the
// other is closed and the error is returned.
func (a *App) Run() error {
	var g errgroup.Group
	for _, s := range a.servers() {
		g.Go(func() error {
			a.logger.Info("listening", "server", s.name, "addr", s.srv.Addr)
			err := s.srv.ListenAndServe()
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			for _, other := range a.servers() {
				_ = other.srv.Close()
			}
			return fmt.Errorf("%s server: %w", s.name, err)
		})
	}
	return g.Wait()
}

// Shutdown drains both servers, then closes the stores.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down")
	a.stopMetrics()

	var g errgroup.Group
	for _, s := range a.servers() {
		g.Go(func() error {
			if err := s.srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown %s server: %w", s.name, err)
			}
			return nil
		})
	}

	return errors.Join(g.Wait(), a.closeStores())
}

// Router returns the API handler, for serving with httptest.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) observePool(ctx context.Context) {
	metrics.ObservePool(a.db)

	ticker := time.NewTicker(poolMetricsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			metrics.ObservePool(a.db)
		case <-ctx.Done():
			return
		}
	}
}
