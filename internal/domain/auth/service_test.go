package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pquerna/otp/totp"

	cryptoutil "peopleguard/internal/platform/crypto"
)

type fakeStore struct {
	users  map[string]User
	tokens map[string]RefreshToken
	perms  map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:  map[string]User{},
		tokens: map[string]RefreshToken{},
		perms:  map[string][]string{},
	}
}

func (f *fakeStore) UserByEmail(_ context.Context, email string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (f *fakeStore) UserByID(_ context.Context, id string) (User, error) {
	u, ok := f.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return u, nil
}

func (f *fakeStore) CreateUser(_ context.Context, email, name, hash, role string) (User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return User{}, ErrUserExists
		}
	}
	u := User{ID: "u-" + email, Email: email, DisplayName: name, PasswordHash: hash, RoleID: "r-" + role, RoleName: role, IsActive: true}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeStore) ListUsers(context.Context, int, int) ([]User, int, error) {
	out := make([]User, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, len(out), nil
}

func (f *fakeStore) SetUserActive(_ context.Context, id string, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return ErrUserNotFound
	}
	u.IsActive = active
	f.users[id] = u
	return nil
}

func (f *fakeStore) UpdateLastLogin(context.Context, string) error { return nil }

func (f *fakeStore) UserIDsByRole(_ context.Context, roles ...string) ([]string, error) {
	var ids []string
	for _, u := range f.users {
		for _, r := range roles {
			if u.RoleName == r {
				ids = append(ids, u.ID)
			}
		}
	}
	return ids, nil
}

func (f *fakeStore) InsertRefreshToken(_ context.Context, t RefreshToken) error {
	f.tokens[t.TokenHash] = t
	return nil
}

func (f *fakeStore) RefreshTokenByHash(_ context.Context, hash string) (RefreshToken, error) {
	t, ok := f.tokens[hash]
	if !ok {
		return RefreshToken{}, ErrInvalidRefresh
	}
	return t, nil
}

func (f *fakeStore) RotateRefreshToken(_ context.Context, oldHash, _ string, next RefreshToken) error {
	old, ok := f.tokens[oldHash]
	if !ok || old.RevokedAt != nil {
		return ErrTokenReuse
	}
	now := time.Now()
	old.RevokedAt = &now
	old.ReplacedByHash = next.TokenHash
	f.tokens[oldHash] = old
	f.tokens[next.TokenHash] = next
	return nil
}

func (f *fakeStore) RevokeRefreshToken(_ context.Context, hash, _ string) error {
	if t, ok := f.tokens[hash]; ok && t.RevokedAt == nil {
		now := time.Now()
		t.RevokedAt = &now
		f.tokens[hash] = t
	}
	return nil
}

func (f *fakeStore) RevokeUserRefreshTokens(_ context.Context, userID, _ string) (int64, error) {
	var n int64
	now := time.Now()
	for h, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			t.RevokedAt = &now
			f.tokens[h] = t
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) PurgeRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for h, t := range f.tokens {
		if t.ExpiresAt.Before(before) {
			delete(f.tokens, h)
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) UpdateMFASecret(_ context.Context, id string, secret []byte) error {
	u := f.users[id]
	u.MFASecretEnc = secret
	u.MFAEnabled = false
	f.users[id] = u
	return nil
}

func (f *fakeStore) SetMFAEnabled(_ context.Context, id string, enabled bool) error {
	u := f.users[id]
	u.MFAEnabled = enabled
	f.users[id] = u
	return nil
}

func (f *fakeStore) HasPermission(_ context.Context, roleID, perm string) (bool, error) {
	for _, p := range f.perms[roleID] {
		if p == perm {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) activeTokens(userID string) int {
	n := 0
	for _, t := range f.tokens {
		if t.UserID == userID && t.RevokedAt == nil {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := newFakeStore()
	crypto, err := cryptoutil.New(strings.Repeat("ab", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	svc := NewService(store, crypto, "test-secret", 15*time.Minute, 7*24*time.Hour)
	if _, err := svc.CreateUser(context.Background(), CreateUserInput{
		Email: "er@example.com", DisplayName: "ER Officer", Password: "Passw0rd!", Role: RoleER,
	}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return svc, store
}

func TestLoginIssuesAccessAndRefreshTokens(t *testing.T) {
	svc, store := newTestService(t)
	session, err := svc.Login(context.Background(), "er@example.com", "Passw0rd!", "", "10.0.0.1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", session)
	}
	claims, err := ParseToken("test-secret", session.AccessToken)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	if claims.RoleName != RoleER || claims.Email != "er@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if _, ok := store.tokens[HashToken(session.RefreshToken)]; !ok {
		t.Fatalf("refresh token should be stored hashed")
	}
	if _, ok := store.tokens[session.RefreshToken]; ok {
		t.Fatalf("raw refresh token must not be stored")
	}
}

func TestLoginRejectsBadPasswordAndInactiveUser(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Login(ctx, "er@example.com", "wrong", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "Passw0rd!", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials for unknown user, got %v", err)
	}
	user, _ := store.UserByEmail(ctx, "er@example.com")
	if err := svc.SetUserActive(ctx, user.ID, false, ""); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := svc.Login(ctx, "er@example.com", "Passw0rd!", "", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected inactive user to be rejected, got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	session, err := svc.Login(ctx, "er@example.com", "Passw0rd!", "", "")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	next, err := svc.Refresh(ctx, session.RefreshToken, "")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.RefreshToken == session.RefreshToken {
		t.Fatalf("refresh token should rotate")
	}
	old := store.tokens[HashToken(session.RefreshToken)]
	if old.RevokedAt == nil || old.ReplacedByHash != HashToken(next.RefreshToken) {
		t.Fatalf("old token should be revoked and linked, got %+v", old)
	}
}

func TestRefreshReuseRevokesAllTokens(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	session, _ := svc.Login(ctx, "er@example.com", "Passw0rd!", "", "")
	if _, err := svc.Refresh(ctx, session.RefreshToken, ""); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken, ""); !errors.Is(err, ErrTokenReuse) {
		t.Fatalf("expected reuse detection, got %v", err)
	}
	if n := store.activeTokens(session.User.ID); n != 0 {
		t.Fatalf("expected all tokens revoked, %d still active", n)
	}
}

func TestRefreshRejectsUnknownAndExpiredTokens(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	if _, err := svc.Refresh(ctx, "", ""); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected invalid refresh for empty token, got %v", err)
	}
	if _, err := svc.Refresh(ctx, "not-a-token", ""); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected invalid refresh for unknown token, got %v", err)
	}
	session, _ := svc.Login(ctx, "er@example.com", "Passw0rd!", "", "")
	svc.now = func() time.Time { return time.Now().Add(8 * 24 * time.Hour) }
	if _, err := svc.Refresh(ctx, session.RefreshToken, ""); !errors.Is(err, ErrInvalidRefresh) {
		t.Fatalf("expected expired token rejection, got %v", err)
	}
	if n, _ := svc.PurgeExpiredRefreshTokens(ctx); n != 1 {
		t.Fatalf("expected one purged token, got %d", n)
	}
	if len(store.tokens) != 0 {
		t.Fatalf("expected token table empty after purge")
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	session, _ := svc.Login(ctx, "er@example.com", "Passw0rd!", "", "")
	if err := svc.Logout(ctx, session.RefreshToken, ""); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, session.RefreshToken, ""); err == nil {
		t.Fatalf("expected refresh after logout to fail")
	}
	if err := svc.Logout(ctx, "", ""); err != nil {
		t.Fatalf("logout without cookie should be a no-op, got %v", err)
	}
}

func TestCreateUserValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	cases := []struct {
		name  string
		input CreateUserInput
		want  error
	}{
		{"bad email", CreateUserInput{Email: "nope", Password: "Passw0rd!", Role: RoleHR}, ErrInvalidEmail},
		{"bad role", CreateUserInput{Email: "a@example.com", Password: "Passw0rd!", Role: "Janitor"}, ErrInvalidRole},
		{"weak password", CreateUserInput{Email: "a@example.com", Password: "short", Role: RoleHR}, ErrWeakPassword},
		{"duplicate", CreateUserInput{Email: "er@example.com", Password: "Passw0rd!", Role: RoleHR}, ErrUserExists},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.CreateUser(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestMFAEnrollmentAndLogin(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	user, _ := store.UserByEmail(ctx, "er@example.com")

	secret, url, err := svc.SetupMFA(ctx, user.ID)
	if err != nil {
		t.Fatalf("setup mfa: %v", err)
	}
	if secret == "" || url == "" {
		t.Fatalf("expected secret and otpauth url")
	}
	if string(store.users[user.ID].MFASecretEnc) == secret {
		t.Fatalf("mfa secret should be stored encrypted")
	}
	if err := svc.SetMFA(ctx, user.ID, "000000", true); !errors.Is(err, ErrMFAInvalid) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	code, err := totp.GenerateCode(secret, time.Now())
	if err != nil {
		t.Fatalf("generate code: %v", err)
	}
	if err := svc.SetMFA(ctx, user.ID, code, true); err != nil {
		t.Fatalf("enable mfa: %v", err)
	}
	if _, err := svc.Login(ctx, "er@example.com", "Passw0rd!", "", ""); !errors.Is(err, ErrMFARequired) {
		t.Fatalf("expected mfa required, got %v", err)
	}
	if _, err := svc.Login(ctx, "er@example.com", "Passw0rd!", code, ""); err != nil {
		t.Fatalf("login with mfa: %v", err)
	}
}

func TestMFAUnavailableWithoutKey(t *testing.T) {
	crypto, _ := cryptoutil.New("")
	svc := NewService(newFakeStore(), crypto, "s", time.Minute, time.Hour)
	if _, _, err := svc.SetupMFA(context.Background(), "u"); !errors.Is(err, ErrMFAUnavailable) {
		t.Fatalf("expected mfa unavailable, got %v", err)
	}
}
