// Package config loads application configuration from defaults, an optional YAML file and environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"golang.org/x/crypto/bcrypt"
)

// EnvProduction is the value of app.env that forbids diagnostic mode.
const EnvProduction = "production"

// Config is the root application configuration.
type Config struct {
	App           AppConfig           `koanf:"app"`
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Log           LogConfig           `koanf:"log"`
	JWT           JWTConfig           `koanf:"jwt"`
	OTP           OTPConfig           `koanf:"otp"`
	CORS          CORSConfig          `koanf:"cors"`
	RateLimit     RateLimitConfig     `koanf:"ratelimit"`
	Redis         RedisConfig         `koanf:"redis"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Uploads       UploadsConfig       `koanf:"uploads"`
	Inventory     InventoryConfig     `koanf:"inventory"`
}

// AppConfig holds deployment-wide settings.
type AppConfig struct {
	Env string `koanf:"env"`
	// DiagnosticMode returns OTP codes in API responses instead of emailing them.
	DiagnosticMode bool `koanf:"diagnostic_mode"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host              string        `koanf:"host"`
	Port              string        `koanf:"port"`
	MetricsPort       string        `koanf:"metrics_port"`
	ReadTimeout       time.Duration `koanf:"read_timeout"`
	ReadHeaderTimeout time.Duration `koanf:"read_header_timeout"`
	WriteTimeout      time.Duration `koanf:"write_timeout"`
	IdleTimeout       time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout   time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
	ConnectAttempts int           `koanf:"connect_attempts"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// JWTConfig holds session token settings.
type JWTConfig struct {
	SecretKey           string        `koanf:"secret_key"`
	Issuer              string        `koanf:"issuer"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
}

// OTPConfig holds one-time code and reset token windows.
type OTPConfig struct {
	ForgotPasswordTTL time.Duration `koanf:"forgot_password_ttl"`
	LoginTTL          time.Duration `koanf:"login_ttl"`
	ResetTokenTTL     time.Duration `koanf:"reset_token_ttl"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `koanf:"allowed_origins"`
}

// Rate limiter backends.
const (
	RateLimitBackendMemory = "memory"
	RateLimitBackendRedis  = "redis"
)

// RateLimitConfig holds per-client throttling for unauthenticated auth endpoints.
type RateLimitConfig struct {
	Enabled bool `koanf:"enabled"`
	// Backend is RateLimitBackendMemory or RateLimitBackendRedis.
	Backend  string        `koanf:"backend"`
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// NotificationsConfig holds outbound email settings.
type NotificationsConfig struct {
	Email EmailConfig `koanf:"email"`
}

// EmailConfig holds SMTP settings.
type EmailConfig struct {
	Enabled      bool   `koanf:"enabled"`
	SMTPHost     string `koanf:"smtp_host"`
	SMTPPort     int    `koanf:"smtp_port"`
	SMTPUser     string `koanf:"smtp_user"`
	SMTPPassword string `koanf:"smtp_password"`
	FromAddress  string `koanf:"from_address"`
}

// UploadsConfig holds logo storage settings.
type UploadsConfig struct {
	Dir          string `koanf:"dir"`
	MaxLogoBytes int64  `koanf:"max_logo_bytes"`
}

// InventoryConfig holds inventory status thresholds.
type InventoryConfig struct {
	LowStockThreshold int `koanf:"low_stock_threshold"`
}

// Defaults returns configuration with every optional value filled in.
func Defaults() Config {
	return Config{
		App: AppConfig{Env: "development"},
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              "8080",
			MetricsPort:       "9090",
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			ShutdownTimeout:   30 * time.Second,
		},
		Database: DatabaseConfig{
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			ConnectTimeout:  30 * time.Second,
			ConnectAttempts: 5,
		},
		Log: LogConfig{Level: "info", Format: "json"},
		JWT: JWTConfig{
			Issuer:              "pharmacy-api",
			AccessTokenDuration: 24 * time.Hour,
		},
		OTP: OTPConfig{
			ForgotPasswordTTL: 10 * time.Minute,
			LoginTTL:          5 * time.Minute,
			ResetTokenTTL:     15 * time.Minute,
			BcryptCost:        10,
		},
		CORS: CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: RateLimitConfig{
			Enabled:  true,
			Backend:  RateLimitBackendMemory,
			Requests: 20,
			Window:   time.Minute,
		},
		Redis: RedisConfig{Addr: "localhost:6379"},
		Notifications: NotificationsConfig{
			Email: EmailConfig{SMTPPort: 587},
		},
		Uploads:   UploadsConfig{Dir: "uploads", MaxLogoBytes: 2 << 20},
		Inventory: InventoryConfig{LowStockThreshold: 10},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if it exists),
// then environment variables such as JWT_SECRET_KEY or DATABASE_URL.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// Keys absent from file and env keep their default values.
	cfg := Defaults()
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// sections lists the top-level keys env variables may target.
var sections = []string{
	"app", "server", "database", "log", "jwt", "otp", "cors",
	"ratelimit", "redis", "notifications_email", "uploads", "inventory",
}

// envKey maps SERVER_PORT to server.port and NOTIFICATIONS_EMAIL_SMTP_HOST to
// notifications.email.smtp_host. Unrelated variables are dropped.
func envKey(key, value string) (string, any) {
	lower := strings.ToLower(key)
	for _, section := range sections {
		prefix := section + "_"
		if !strings.HasPrefix(lower, prefix) {
			continue
		}
		field := strings.TrimPrefix(lower, prefix)
		if field == "" {
			return "", nil
		}
		return strings.ReplaceAll(section, "_", ".") + "." + field, value
	}
	return "", nil
}

// Validate checks values that have no usable default.
func (c *Config) Validate() error {
	var errs []error

	if c.Database.URL == "" {
		errs = append(errs, errors.New("database.url is required"))
	}
	if len(c.JWT.SecretKey) < 16 {
		errs = append(errs, errors.New("jwt.secret_key must be at least 16 characters"))
	}
	if c.JWT.AccessTokenDuration <= 0 {
		errs = append(errs, errors.New("jwt.access_token_duration must be positive"))
	}
	if c.OTP.ForgotPasswordTTL <= 0 || c.OTP.LoginTTL <= 0 || c.OTP.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("otp windows must be positive"))
	}
	if c.OTP.BcryptCost < 10 || c.OTP.BcryptCost > bcrypt.MaxCost {
		errs = append(errs, fmt.Errorf("otp.bcrypt_cost must be between 10 and %d", bcrypt.MaxCost))
	}
	if c.App.DiagnosticMode && c.App.Env == EnvProduction {
		errs = append(errs, errors.New("app.diagnostic_mode cannot be enabled in production"))
	}
	if c.RateLimit.Enabled {
		switch c.RateLimit.Backend {
		case RateLimitBackendMemory, RateLimitBackendRedis:
		default:
			errs = append(errs, fmt.Errorf("ratelimit.backend %q is not supported", c.RateLimit.Backend))
		}
		if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
			errs = append(errs, errors.New("ratelimit.requests and ratelimit.window must be positive"))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}
