package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/peopleguard")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Fatalf("expected default addr, got %q", cfg.Addr)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("expected 60m access ttl, got %s", cfg.AccessTokenTTL)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("expected 7 day refresh ttl, got %s", cfg.RefreshTokenTTL)
	}
	if cfg.RefreshCookieName != "pg_refresh_token" {
		t.Fatalf("unexpected cookie name %q", cfg.RefreshCookieName)
	}
	if !cfg.QRAllowAnonymous {
		t.Fatal("expected anonymous qr submissions enabled by default")
	}
	if cfg.AuditRetentionDays != 90 || cfg.AuditExportMaxRows != 10000 {
		t.Fatalf("unexpected audit defaults: %d %d", cfg.AuditRetentionDays, cfg.AuditExportMaxRows)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected defaults to validate, got %v", err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/peopleguard")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")
	t.Setenv("QR_ALLOW_ANONYMOUS", "false")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "30")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AccessTokenTTL != 15*time.Minute {
		t.Fatalf("expected 15m, got %s", cfg.AccessTokenTTL)
	}
	if cfg.QRAllowAnonymous {
		t.Fatal("expected anonymous submissions disabled")
	}
	if cfg.RateLimitPerMinute != 30 {
		t.Fatalf("expected 30, got %d", cfg.RateLimitPerMinute)
	}
}

func TestLoadRejectsMalformedDuration(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_TTL", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	base := Config{
		DatabaseURL:        "postgres://x",
		AccessTokenTTL:     time.Hour,
		RefreshTokenTTL:    time.Hour,
		MaxBodyBytes:       2048,
		MaxUploadBytes:     2048,
		RateLimitPerMinute: 10,
		AuditRetentionDays: 90,
		CookieSecure:       true,
	}

	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing database", func(c *Config) { c.DatabaseURL = "" }, true},
		{"production without secret", func(c *Config) { c.Environment = "production" }, true},
		{"production complete", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
			c.DataEncryptionKey = "k"
		}, false},
		{"production insecure cookie", func(c *Config) {
			c.Environment = "production"
			c.JWTSecret = "s"
			c.DataEncryptionKey = "k"
			c.CookieSecure = false
		}, true},
		{"small body limit", func(c *Config) { c.MaxBodyBytes = 10 }, true},
		{"zero rate limit", func(c *Config) { c.RateLimitPerMinute = 0 }, true},
		{"zero retention", func(c *Config) { c.AuditRetentionDays = 0 }, true},
		{"email without host", func(c *Config) { c.EmailEnabled = true }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr && err == nil {
				t.Fatal("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
