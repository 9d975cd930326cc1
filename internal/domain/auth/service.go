package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	cryptoutil "peopleguard/internal/platform/crypto"
)

const mfaIssuer = "PeopleGuard"

type Service struct {
	store      StoreAPI
	Crypto     *cryptoutil.Service
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	now        func() time.Time
}

func NewService(store StoreAPI, crypto *cryptoutil.Service, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{
		store:      store,
		Crypto:     crypto,
		Secret:     secret,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
		now:        time.Now,
	}
}

func (s *Service) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	return s.store.HasPermission(ctx, roleID, permission)
}

func (s *Service) Login(ctx context.Context, email, password, mfaCode, ip string) (Session, error) {
	user, err := s.store.UserByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, ErrUserNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !user.IsActive {
		return Session{}, ErrInvalidCredentials
	}
	if err := CheckPassword(user.PasswordHash, password); err != nil {
		return Session{}, ErrInvalidCredentials
	}
	if user.MFAEnabled {
		if strings.TrimSpace(mfaCode) == "" {
			return Session{}, ErrMFARequired
		}
		if err := s.verifyTOTP(user, mfaCode); err != nil {
			return Session{}, err
		}
	}

	session, err := s.issueSession(ctx, user, ip)
	if err != nil {
		return Session{}, err
	}
	if err := s.store.UpdateLastLogin(ctx, user.ID); err != nil {
		slog.Warn("update last_login failed", "userId", user.ID, "err", err)
	}
	return session, nil
}

// Refresh exchanges a refresh token for a new access token and a rotated
// refresh token. Presenting a revoked token revokes every token of its owner.
func (s *Service) Refresh(ctx context.Context, rawToken, ip string) (Session, error) {
	if strings.TrimSpace(rawToken) == "" {
		return Session{}, ErrInvalidRefresh
	}
	oldHash := HashToken(rawToken)
	current, err := s.store.RefreshTokenByHash(ctx, oldHash)
	if err != nil {
		return Session{}, ErrInvalidRefresh
	}
	if current.RevokedAt != nil {
		s.revokeFamily(ctx, current.UserID, ip)
		return Session{}, ErrTokenReuse
	}
	if !current.Active(s.now()) {
		return Session{}, ErrInvalidRefresh
	}

	user, err := s.store.UserByID(ctx, current.UserID)
	if err != nil || !user.IsActive {
		return Session{}, ErrInvalidRefresh
	}

	raw, err := NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	next := RefreshToken{
		UserID:      user.ID,
		TokenHash:   HashToken(raw),
		ExpiresAt:   s.now().Add(s.RefreshTTL),
		CreatedByIP: ip,
	}
	if err := s.store.RotateRefreshToken(ctx, oldHash, ip, next); err != nil {
		if errors.Is(err, ErrTokenReuse) {
			s.revokeFamily(ctx, user.ID, ip)
		}
		return Session{}, err
	}

	access, err := s.accessToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:    access,
		ExpiresIn:      int(s.AccessTTL.Seconds()),
		User:           user,
		RefreshToken:   raw,
		RefreshExpires: next.ExpiresAt,
	}, nil
}

func (s *Service) Logout(ctx context.Context, rawToken, ip string) error {
	if strings.TrimSpace(rawToken) == "" {
		return nil
	}
	return s.store.RevokeRefreshToken(ctx, HashToken(rawToken), ip)
}

func (s *Service) Me(ctx context.Context, userID string) (User, error) {
	return s.store.UserByID(ctx, userID)
}

func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (User, error) {
	email := strings.TrimSpace(input.Email)
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, ErrInvalidEmail
	}
	if !ValidRole(input.Role) {
		return User{}, ErrInvalidRole
	}
	if err := ValidatePassword(input.Password); err != nil {
		return User{}, err
	}
	hash, err := HashPassword(input.Password)
	if err != nil {
		return User{}, err
	}
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		name = email
	}
	return s.store.CreateUser(ctx, email, name, hash, input.Role)
}

func (s *Service) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	return s.store.ListUsers(ctx, limit, offset)
}

// SetUserActive toggles a user and, on deactivation, revokes their sessions.
func (s *Service) SetUserActive(ctx context.Context, userID string, active bool, ip string) error {
	if err := s.store.SetUserActive(ctx, userID, active); err != nil {
		return err
	}
	if !active {
		if _, err := s.store.RevokeUserRefreshTokens(ctx, userID, ip); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
	}
	return nil
}

func (s *Service) UserIDsByRole(ctx context.Context, roles ...string) ([]string, error) {
	return s.store.UserIDsByRole(ctx, roles...)
}

func (s *Service) PurgeExpiredRefreshTokens(ctx context.Context) (int64, error) {
	return s.store.PurgeRefreshTokens(ctx, s.now())
}

func (s *Service) SetupMFA(ctx context.Context, userID string) (string, string, error) {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return "", "", ErrMFAUnavailable
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return "", "", err
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      mfaIssuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return "", "", err
	}
	encrypted, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return "", "", err
	}
	if err := s.store.UpdateMFASecret(ctx, userID, encrypted); err != nil {
		return "", "", err
	}
	return key.Secret(), key.URL(), nil
}

func (s *Service) SetMFA(ctx context.Context, userID, code string, enabled bool) error {
	if s.Crypto == nil || !s.Crypto.Configured() {
		return ErrMFAUnavailable
	}
	user, err := s.store.UserByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := s.verifyTOTP(user, code); err != nil {
		return err
	}
	return s.store.SetMFAEnabled(ctx, userID, enabled)
}

func (s *Service) verifyTOTP(user User, code string) error {
	if len(user.MFASecretEnc) == 0 {
		return ErrMFAInvalid
	}
	secret := string(user.MFASecretEnc)
	if s.Crypto != nil && s.Crypto.Configured() {
		decoded, err := s.Crypto.DecryptString(user.MFASecretEnc)
		if err != nil {
			return ErrMFAInvalid
		}
		secret = decoded
	}
	if secret == "" || !totp.Validate(strings.TrimSpace(code), secret) {
		return ErrMFAInvalid
	}
	return nil
}

func (s *Service) issueSession(ctx context.Context, user User, ip string) (Session, error) {
	raw, err := NewRefreshToken()
	if err != nil {
		return Session{}, err
	}
	expires := s.now().Add(s.RefreshTTL)
	if err := s.store.InsertRefreshToken(ctx, RefreshToken{
		UserID:      user.ID,
		TokenHash:   HashToken(raw),
		ExpiresAt:   expires,
		CreatedByIP: ip,
	}); err != nil {
		return Session{}, fmt.Errorf("store refresh token: %w", err)
	}
	access, err := s.accessToken(user)
	if err != nil {
		return Session{}, err
	}
	return Session{
		AccessToken:    access,
		ExpiresIn:      int(s.AccessTTL.Seconds()),
		User:           user,
		RefreshToken:   raw,
		RefreshExpires: expires,
	}, nil
}

func (s *Service) accessToken(user User) (string, error) {
	return GenerateToken(s.Secret, Claims{
		UserID:   user.ID,
		RoleID:   user.RoleID,
		RoleName: user.RoleName,
		Name:     user.DisplayName,
		Email:    user.Email,
	}, s.AccessTTL)
}

func (s *Service) revokeFamily(ctx context.Context, userID, ip string) {
	revoked, err := s.store.RevokeUserRefreshTokens(ctx, userID, ip)
	if err != nil {
		slog.Warn("refresh token family revoke failed", "userId", userID, "err", err)
		return
	}
	slog.Warn("refresh token reuse detected", "userId", userID, "revoked", revoked)
}
