package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const entryColumns = `id, user_id, user_name, entity_type, entity_id, action, old_values, new_values,
       endpoint, http_method, status_code, ip_address, duration_ms, notes, request_id, created_at`

func (s *Store) Insert(ctx context.Context, e Entry) error {
	_, err := s.DB.Exec(ctx, `
    INSERT INTO audit_logs (user_id, user_name, entity_type, entity_id, action, old_values, new_values,
                            endpoint, http_method, status_code, ip_address, duration_ms, notes, request_id)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
  `, e.UserID, e.UserName, e.EntityType, e.EntityID, e.Action, nullJSON(e.OldValues), nullJSON(e.NewValues),
		e.Endpoint, e.HTTPMethod, e.StatusCode, e.IPAddress, e.DurationMs, e.Notes, e.RequestID)
	return err
}

func (s *Store) Count(ctx context.Context, filter Filter) (int, error) {
	where, args := buildWhere(filter)
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_logs"+where, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (s *Store) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, error) {
	where, args := buildWhere(filter)
	query := "SELECT " + entryColumns + " FROM audit_logs" + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, limit, offset)
	return s.query(ctx, query, args...)
}

func (s *Store) ByEntity(ctx context.Context, entityType, entityID string, limit int) ([]Entry, error) {
	return s.query(ctx, "SELECT "+entryColumns+`
    FROM audit_logs
    WHERE lower(entity_type) = lower($1) AND entity_id = $2
    ORDER BY created_at DESC
    LIMIT $3`, entityType, entityID, limit)
}

func (s *Store) ByUser(ctx context.Context, userID string, limit int) ([]Entry, error) {
	return s.query(ctx, "SELECT "+entryColumns+`
    FROM audit_logs
    WHERE user_id = $1
    ORDER BY created_at DESC
    LIMIT $2`, userID, limit)
}

func (s *Store) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "DELETE FROM audit_logs WHERE created_at < $1", cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) query(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	var oldValues, newValues []byte
	err := row.Scan(&e.ID, &e.UserID, &e.UserName, &e.EntityType, &e.EntityID, &e.Action, &oldValues, &newValues,
		&e.Endpoint, &e.HTTPMethod, &e.StatusCode, &e.IPAddress, &e.DurationMs, &e.Notes, &e.RequestID, &e.CreatedAt)
	e.OldValues = oldValues
	e.NewValues = newValues
	return e, err
}

func buildWhere(filter Filter) (string, []any) {
	clause := " WHERE 1=1"
	args := []any{}
	add := func(cond string, value any) {
		args = append(args, value)
		clause += fmt.Sprintf(cond, len(args))
	}
	if filter.UserName != "" {
		add(" AND user_name ILIKE '%%' || $%d || '%%'", filter.UserName)
	}
	if filter.Action != "" {
		add(" AND action ILIKE '%%' || $%d || '%%'", filter.Action)
	}
	if filter.EntityType != "" {
		add(" AND entity_type ILIKE '%%' || $%d || '%%'", filter.EntityType)
	}
	if !filter.From.IsZero() {
		add(" AND created_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		add(" AND created_at <= $%d", filter.To)
	}
	return clause, args
}

func nullJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return raw
}
