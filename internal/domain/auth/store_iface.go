package auth

import (
	"context"
	"time"
)

type StoreAPI interface {
	UserByEmail(ctx context.Context, email string) (User, error)
	UserByID(ctx context.Context, userID string) (User, error)
	CreateUser(ctx context.Context, email, displayName, passwordHash, roleName string) (User, error)
	ListUsers(ctx context.Context, limit, offset int) ([]User, int, error)
	SetUserActive(ctx context.Context, userID string, active bool) error
	UpdateLastLogin(ctx context.Context, userID string) error
	UserIDsByRole(ctx context.Context, roles ...string) ([]string, error)

	InsertRefreshToken(ctx context.Context, token RefreshToken) error
	RefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error)
	RotateRefreshToken(ctx context.Context, oldHash, ip string, next RefreshToken) error
	RevokeRefreshToken(ctx context.Context, tokenHash, ip string) error
	RevokeUserRefreshTokens(ctx context.Context, userID, ip string) (int64, error)
	PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error)

	UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error
	SetMFAEnabled(ctx context.Context, userID string, enabled bool) error

	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}
