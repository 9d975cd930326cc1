package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const userColumns = `u.id, u.email, u.display_name, u.role_id, r.name, u.is_active, u.mfa_enabled,
       u.mfa_secret_enc, u.password_hash, u.last_login, u.created_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &u.RoleID, &u.RoleName, &u.IsActive, &u.MFAEnabled,
		&u.MFASecretEnc, &u.PasswordHash, &u.LastLogin, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	return u, err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE lower(u.email) = lower($1)
  `, email))
}

func (s *Store) UserByID(ctx context.Context, userID string) (User, error) {
	return scanUser(s.DB.QueryRow(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE u.id = $1
  `, userID))
}

func (s *Store) CreateUser(ctx context.Context, email, displayName, passwordHash, roleName string) (User, error) {
	var id string
	err := s.DB.QueryRow(ctx, `
    INSERT INTO users (email, display_name, password_hash, role_id)
    SELECT $1, $2, $3, r.id FROM roles r WHERE r.name = $4
    RETURNING id
  `, email, displayName, passwordHash, roleName).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrInvalidRole
	}
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return User{}, ErrUserExists
		}
		return User{}, err
	}
	return s.UserByID(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context, limit, offset int) ([]User, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM users").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+userColumns+`
    FROM users u
    JOIN roles r ON u.role_id = r.id
    ORDER BY u.created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (s *Store) SetUserActive(ctx context.Context, userID string, active bool) error {
	tag, err := s.DB.Exec(ctx, "UPDATE users SET is_active = $1 WHERE id = $2", active, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *Store) UpdateLastLogin(ctx context.Context, userID string) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET last_login = now() WHERE id = $1", userID)
	return err
}

func (s *Store) UserIDsByRole(ctx context.Context, roles ...string) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT u.id
    FROM users u
    JOIN roles r ON u.role_id = r.id
    WHERE r.name = ANY($1) AND u.is_active
  `, roles)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) InsertRefreshToken(ctx context.Context, token RefreshToken) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_by_ip)
    VALUES ($1,$2,$3,$4)
  `, token.UserID, token.TokenHash, token.ExpiresAt, token.CreatedByIP)
	return err
}

func (s *Store) RefreshTokenByHash(ctx context.Context, tokenHash string) (RefreshToken, error) {
	var t RefreshToken
	var replaced *string
	err := s.DB.QueryRow(ctx, `
    SELECT id, user_id, token_hash, expires_at, created_at, created_by_ip, revoked_at, replaced_by_hash
    FROM refresh_tokens
    WHERE token_hash = $1
  `, tokenHash).Scan(&t.ID, &t.UserID, &t.TokenHash, &t.ExpiresAt, &t.CreatedAt, &t.CreatedByIP, &t.RevokedAt, &replaced)
	if errors.Is(err, pgx.ErrNoRows) {
		return RefreshToken{}, ErrInvalidRefresh
	}
	if replaced != nil {
		t.ReplacedByHash = *replaced
	}
	return t, err
}

// RotateRefreshToken revokes oldHash and stores next atomically. A token
// that was already revoked reports ErrTokenReuse.
func (s *Store) RotateRefreshToken(ctx context.Context, oldHash, ip string, next RefreshToken) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE refresh_tokens
      SET revoked_at = now(), revoked_by_ip = $2, replaced_by_hash = $3
      WHERE token_hash = $1 AND revoked_at IS NULL
    `, oldHash, ip, next.TokenHash)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrTokenReuse
		}
		if _, err := tx.Exec(ctx, `
      INSERT INTO refresh_tokens (user_id, token_hash, expires_at, created_by_ip)
      VALUES ($1,$2,$3,$4)
    `, next.UserID, next.TokenHash, next.ExpiresAt, next.CreatedByIP); err != nil {
			return fmt.Errorf("insert rotated token: %w", err)
		}
		return nil
	})
}

func (s *Store) RevokeRefreshToken(ctx context.Context, tokenHash, ip string) error {
	_, err := s.DB.Exec(ctx, `
    UPDATE refresh_tokens SET revoked_at = now(), revoked_by_ip = $2
    WHERE token_hash = $1 AND revoked_at IS NULL
  `, tokenHash, ip)
	return err
}

func (s *Store) RevokeUserRefreshTokens(ctx context.Context, userID, ip string) (int64, error) {
	tag, err := s.DB.Exec(ctx, `
    UPDATE refresh_tokens SET revoked_at = now(), revoked_by_ip = $2
    WHERE user_id = $1 AND revoked_at IS NULL
  `, userID, ip)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) PurgeRefreshTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM refresh_tokens WHERE expires_at < $1", before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) UpdateMFASecret(ctx context.Context, userID string, secretEnc []byte) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_secret_enc = $1, mfa_enabled = false WHERE id = $2", secretEnc, userID)
	return err
}

func (s *Store) SetMFAEnabled(ctx context.Context, userID string, enabled bool) error {
	_, err := s.DB.Exec(ctx, "UPDATE users SET mfa_enabled = $1 WHERE id = $2", enabled, userID)
	return err
}

func (s *Store) HasPermission(ctx context.Context, roleID, permission string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1)
    FROM role_permissions rp
    JOIN permissions p ON rp.permission_id = p.id
    WHERE rp.role_id = $1 AND p.key = $2
  `, roleID, permission).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
