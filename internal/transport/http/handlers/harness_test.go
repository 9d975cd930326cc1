package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"peopleguard/internal/app/server"
	"peopleguard/internal/platform/config"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

const (
	adminEmail    = "admin@test.local"
	adminPassword = "ChangeMe123!"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	cfg := config.Config{
		DatabaseURL:          dbURL,
		JWTSecret:            "test-secret",
		AccessTokenTTL:       15 * time.Minute,
		RefreshTokenTTL:      24 * time.Hour,
		RefreshCookieName:    "pg_refresh_token",
		DataEncryptionKey:    "0123456789abcdef0123456789abcdef",
		Environment:          "test",
		MigrationsDir:        "../../../../migrations",
		RunMigrations:        true,
		RunSeed:              true,
		SeedAdminEmail:       adminEmail,
		SeedAdminPassword:    adminPassword,
		StorageRoot:          t.TempDir(),
		WarningLetterDir:     "warnings",
		MaxUploadBytes:       1 << 20,
		MaxBodyBytes:         1 << 20,
		RateLimitPerMinute:   1000,
		QRTokenTTL:           24 * time.Hour,
		QRAllowAnonymous:     true,
		QRExpiryInterval:     time.Hour,
		AuditRetentionDays:   90,
		AuditExportMaxRows:   1000,
		AuditCleanupInterval: 24 * time.Hour,
		EmailFrom:            "no-reply@test.local",
	}
	app, err := server.New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("failed to start app: %v", err)
	}
	ts := httptest.NewServer(app.Router)
	t.Cleanup(func() {
		ts.Close()
		app.Close()
	})
	return ts
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	env := doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    adminEmail,
		"password": adminPassword,
	}, http.StatusOK)
	var session struct {
		AccessToken string `json:"accessToken"`
	}
	decode(t, env, &session)
	if session.AccessToken == "" {
		t.Fatal("expected access token")
	}
	return session.AccessToken
}

func doJSON(t *testing.T, ts *httptest.Server, method, path, token string, body any, want int) envelope {
	t.Helper()
	resp, raw := send(t, ts, method, path, token, body, nil)
	if resp.StatusCode != want {
		t.Fatalf("%s %s: expected status %d, got %d: %s", method, path, want, resp.StatusCode, string(raw))
	}
	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
	}
	return env
}

func send(t *testing.T, ts *httptest.Server, method, path, token string, body any, headers map[string]string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode payload: %v", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequest(method, ts.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response: %v", err)
	}
	return resp, raw
}

func decode(t *testing.T, env envelope, out any) {
	t.Helper()
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("failed to decode data %s: %v", string(env.Data), err)
	}
}

func decodeRaw(t *testing.T, raw string, out any) {
	t.Helper()
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		t.Fatalf("failed to decode %s: %v", raw, err)
	}
}
