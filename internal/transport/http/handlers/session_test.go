package handlers_test

import (
	"net/http"
	"testing"
)

const refreshCookie = "pg_refresh_token"

func refreshCookieFrom(t *testing.T, resp *http.Response) string {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == refreshCookie {
			return c.Value
		}
	}
	t.Fatalf("expected %s cookie", refreshCookie)
	return ""
}

func TestRefreshRotationAndReuseDetection(t *testing.T) {
	ts := newTestServer(t)

	resp, raw := send(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    adminEmail,
		"password": adminPassword,
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: %d %s", resp.StatusCode, string(raw))
	}
	original := refreshCookieFrom(t, resp)

	resp, raw = send(t, ts, http.MethodPost, "/api/v1/auth/refresh", "", nil, map[string]string{"Cookie": refreshCookie + "=" + original})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", resp.StatusCode, string(raw))
	}
	rotated := refreshCookieFrom(t, resp)
	if rotated == original {
		t.Fatal("expected refresh token rotation")
	}

	// Replaying the rotated-out token revokes the whole family.
	resp, _ = send(t, ts, http.MethodPost, "/api/v1/auth/refresh", "", nil, map[string]string{"Cookie": refreshCookie + "=" + original})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 on reuse, got %d", resp.StatusCode)
	}
	resp, _ = send(t, ts, http.MethodPost, "/api/v1/auth/refresh", "", nil, map[string]string{"Cookie": refreshCookie + "=" + rotated})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected rotated token to be revoked, got %d", resp.StatusCode)
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	ts := newTestServer(t)
	env := doJSON(t, ts, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"email":    adminEmail,
		"password": "wrong-password",
	}, http.StatusUnauthorized)
	if env.Error == nil || env.Error.Code == "" {
		t.Fatalf("expected error body, got %+v", env)
	}
}
