package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr              string        `env:"APP_ADDR" envDefault:":8080"`
	DatabaseURL       string        `env:"DATABASE_URL"`
	JWTSecret         string        `env:"JWT_SECRET"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"60m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	RefreshCookieName string        `env:"REFRESH_COOKIE_NAME" envDefault:"pg_refresh_token"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"true"`
	DataEncryptionKey string        `env:"DATA_ENCRYPTION_KEY"`
	Environment       string        `env:"APP_ENV" envDefault:"development"`

	MigrationsDir     string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	RunMigrations     bool   `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed           bool   `env:"RUN_SEED" envDefault:"true"`
	SeedAdminEmail    string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword string `env:"SEED_ADMIN_PASSWORD"`

	StorageRoot      string `env:"STORAGE_ROOT" envDefault:"storage"`
	WarningLetterDir string `env:"WARNING_LETTER_DIR" envDefault:"warnings"`
	MaxUploadBytes   int64  `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	MaxBodyBytes     int64  `env:"MAX_BODY_BYTES" envDefault:"1048576"`

	RateLimitPerMinute int `env:"RATE_LIMIT_PER_MINUTE" envDefault:"120"`

	QRPublicBaseURL  string        `env:"QR_PUBLIC_BASE_URL"`
	QRTokenTTL       time.Duration `env:"QR_TOKEN_TTL" envDefault:"720h"`
	QRAllowAnonymous bool          `env:"QR_ALLOW_ANONYMOUS" envDefault:"true"`
	QRExpiryInterval time.Duration `env:"QR_EXPIRY_INTERVAL" envDefault:"1h"`

	AuditRetentionDays   int           `env:"AUDIT_RETENTION_DAYS" envDefault:"90"`
	AuditExportMaxRows   int           `env:"AUDIT_EXPORT_MAX_ROWS" envDefault:"10000"`
	AuditCleanupInterval time.Duration `env:"AUDIT_CLEANUP_INTERVAL" envDefault:"24h"`

	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@peopleguard.local"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`
}

// Load reads the process environment. Unset keys fall back to their defaults.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.IsProduction() {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if strings.TrimSpace(c.DataEncryptionKey) == "" {
			return fmt.Errorf("DATA_ENCRYPTION_KEY must be set in production for encryption at rest")
		}
		if !c.CookieSecure {
			return fmt.Errorf("COOKIE_SECURE cannot be disabled in production")
		}
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.MaxUploadBytes < 1024 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.AuditRetentionDays < 1 {
		return fmt.Errorf("AUDIT_RETENTION_DAYS must be at least 1")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
