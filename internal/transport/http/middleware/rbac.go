package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"peopleguard/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, roleID, permission string) (bool, error)
}

// RequirePermission lets the request through only when the caller's role
// holds permission.
func RequirePermission(permission string, store PermissionStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqID := GetRequestID(r.Context())
			user, ok := GetUser(r.Context())
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
				return
			}
			allowed, err := store.HasPermission(r.Context(), user.RoleID, permission)
			if err != nil {
				slog.Error("permission lookup failed", "permission", permission, "err", err, "requestId", reqID)
				api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", reqID)
				return
			}
			if !allowed {
				slog.Info("permission denied", "permission", permission, "userId", user.UserID, "role", user.RoleName, "requestId", reqID)
				api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", reqID)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type permissionKey struct {
	role, permission string
}

type permissionEntry struct {
	allowed bool
	expires time.Time
}

// PermissionCache memoizes role grants for ttl. Lookup errors are not cached.
type PermissionCache struct {
	store PermissionStore
	ttl   time.Duration
	now   func() time.Time

	mu      sync.Mutex
	entries map[permissionKey]permissionEntry
}

func NewPermissionCache(store PermissionStore, ttl time.Duration) *PermissionCache {
	return &PermissionCache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[permissionKey]permissionEntry),
	}
}

func (c *PermissionCache) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	key := permissionKey{roleID, permission}
	now := c.now()
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && now.Before(entry.expires) {
		return entry.allowed, nil
	}

	allowed, err := c.store.HasPermission(ctx, roleID, permission)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.entries[key] = permissionEntry{allowed: allowed, expires: now.Add(c.ttl)}
	c.mu.Unlock()
	return allowed, nil
}
