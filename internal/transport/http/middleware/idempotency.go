package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// IdempotencyTTL is how long a stored response can be replayed.
const IdempotencyTTL = 24 * time.Hour

var (
	ErrIdempotencyConflict = errors.New("idempotency key conflicts with existing request")
	ErrIdempotencyInFlight = errors.New("idempotency key is held by a request in progress")
)

// IdempotencyStore remembers responses per (scope, key, endpoint). Public QR
// submissions use the token as scope so keys never collide across forms.
type IdempotencyStore struct {
	db  *pgxpool.Pool
	ttl time.Duration
}

func NewIdempotencyStore(db *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{db: db, ttl: IdempotencyTTL}
}

// RequestHash fingerprints a request body.
func RequestHash(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

// Reserve claims key for a request before it runs. It returns the stored
// response when the key already completed, ErrIdempotencyInFlight while
// another request holds it, and ErrIdempotencyConflict when the key was used
// with a different body. An expired key is reclaimed.
func (s *IdempotencyStore) Reserve(ctx context.Context, scope, endpoint, key, requestHash string) (json.RawMessage, bool, error) {
	if s == nil || s.db == nil || key == "" {
		return nil, false, nil
	}
	cutoff := time.Now().Add(-s.ttl)
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (scope, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, NULL)
    ON CONFLICT (scope, key, endpoint)
    DO UPDATE SET request_hash = EXCLUDED.request_hash,
                  response_json = NULL,
                  created_at = now()
    WHERE idempotency_keys.created_at <= $5
  `, scope, key, endpoint, requestHash, cutoff)
	if err != nil {
		return nil, false, err
	}
	if tag.RowsAffected() == 1 {
		return nil, false, nil
	}

	var (
		storedHash string
		stored     []byte
	)
	err = s.db.QueryRow(ctx, `
    SELECT request_hash, response_json
    FROM idempotency_keys
    WHERE scope = $1 AND key = $2 AND endpoint = $3
  `, scope, key, endpoint).Scan(&storedHash, &stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		// Released between the insert and the read.
		return nil, false, ErrIdempotencyInFlight
	case err != nil:
		return nil, false, err
	}
	return resolveReservation(storedHash, stored, requestHash)
}

// resolveReservation decides what a request gets when its key is already held.
func resolveReservation(storedHash string, stored []byte, requestHash string) (json.RawMessage, bool, error) {
	switch {
	case storedHash != requestHash:
		return nil, false, ErrIdempotencyConflict
	case stored == nil:
		return nil, false, ErrIdempotencyInFlight
	}
	return json.RawMessage(stored), true, nil
}

// Release drops an unfinished reservation so the key can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, scope, endpoint, key string) error {
	if s == nil || s.db == nil || key == "" {
		return nil
	}
	_, err := s.db.Exec(ctx, `
    DELETE FROM idempotency_keys
    WHERE scope = $1 AND key = $2 AND endpoint = $3 AND response_json IS NULL
  `, scope, key, endpoint)
	return err
}

// Save records response for key, completing its reservation or replacing an
// expired entry. A live entry with a different request hash is a conflict.
func (s *IdempotencyStore) Save(ctx context.Context, scope, endpoint, key, requestHash string, response json.RawMessage) error {
	if s == nil || s.db == nil || key == "" {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
    INSERT INTO idempotency_keys (scope, key, endpoint, request_hash, response_json)
    VALUES ($1, $2, $3, $4, $5)
    ON CONFLICT (scope, key, endpoint)
    DO UPDATE SET request_hash = EXCLUDED.request_hash,
                  response_json = EXCLUDED.response_json,
                  created_at = now()
    WHERE idempotency_keys.request_hash = EXCLUDED.request_hash
       OR idempotency_keys.created_at <= $6
  `, scope, key, endpoint, requestHash, response, time.Now().Add(-s.ttl))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrIdempotencyConflict
	}
	return nil
}

// Purge deletes expired keys and reports how many were removed.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	tag, err := s.db.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at <= $1`, time.Now().Add(-s.ttl))
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
