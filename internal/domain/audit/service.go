package audit

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

type FailureCounter interface {
	AuditFailure()
}

type Service struct {
	store        StoreAPI
	Failures     FailureCounter
	ExportMaxRow int
	now          func() time.Time
}

func New(store StoreAPI, exportMaxRows int, failures FailureCounter) *Service {
	if exportMaxRows <= 0 {
		exportMaxRows = 10000
	}
	return &Service{store: store, Failures: failures, ExportMaxRow: exportMaxRows, now: time.Now}
}

// Write persists an entry. Failures are logged and counted, never returned.
func (s *Service) Write(ctx context.Context, e Entry) {
	if strings.TrimSpace(e.UserName) == "" {
		e.UserName = UnknownUser
	}
	if e.EntityID == "" {
		e.EntityID = EntityUnknown
	}
	if err := s.store.Insert(ctx, e); err != nil {
		slog.Warn("audit write failed", "entityType", e.EntityType, "entityId", e.EntityID, "action", e.Action, "err", err)
		if s.Failures != nil {
			s.Failures.AuditFailure()
		}
	}
}

// Record stores an explicit change with before and after snapshots.
func (s *Service) Record(ctx context.Context, actor Actor, action, entityType, entityID string, before, after any) {
	e := Entry{
		UserID:     actor.UserID,
		UserName:   actor.UserName,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Endpoint:   actor.Endpoint,
		HTTPMethod: actor.Method,
		IPAddress:  actor.IP,
		RequestID:  actor.RequestID,
	}
	var err error
	if e.OldValues, err = marshalValues(before); err != nil {
		slog.Warn("audit old values marshal failed", "err", err)
	}
	if e.NewValues, err = marshalValues(after); err != nil {
		slog.Warn("audit new values marshal failed", "err", err)
	}
	s.Write(ctx, e)
}

func (s *Service) List(ctx context.Context, filter Filter, limit, offset int) ([]Entry, int, error) {
	total, err := s.store.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	entries, err := s.store.List(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return maskAll(entries), total, nil
}

func (s *Service) ByEntity(ctx context.Context, entityType, entityID string) ([]Entry, error) {
	entries, err := s.store.ByEntity(ctx, entityType, entityID, EntityQueryLimit)
	if err != nil {
		return nil, err
	}
	return maskAll(entries), nil
}

func (s *Service) ByUser(ctx context.Context, userID string) ([]Entry, error) {
	entries, err := s.store.ByUser(ctx, userID, EntityQueryLimit)
	if err != nil {
		return nil, err
	}
	return maskAll(entries), nil
}

// Export writes masked entries as CSV, capped at ExportMaxRow rows.
func (s *Service) Export(ctx context.Context, filter Filter, w io.Writer) (int, error) {
	entries, err := s.store.List(ctx, filter, s.ExportMaxRow, 0)
	if err != nil {
		return 0, err
	}
	return len(entries), WriteCSV(w, maskAll(entries))
}

// Cleanup deletes entries older than retentionDays and audits itself.
func (s *Service) Cleanup(ctx context.Context, retentionDays int, actor Actor) (int64, error) {
	if retentionDays < 1 {
		return 0, ErrInvalidRetention
	}
	cutoff := s.now().AddDate(0, 0, -retentionDays)
	deleted, err := s.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete audit logs: %w", err)
	}
	slog.Info("audit logs cleaned up", "deleted", deleted, "retentionDays", retentionDays)
	s.Record(ctx, actor, "CLEANUP", EntityAuditLog, EntityUnknown, nil, map[string]any{
		"retentionDays": retentionDays,
		"cutoff":        cutoff.UTC().Format(time.RFC3339),
		"deleted":       deleted,
	})
	return deleted, nil
}

func WriteCSV(w io.Writer, entries []Entry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"User", "Entity Type", "Entity ID", "Action", "Endpoint", "HTTP Method", "Status", "IP Address", "Timestamp"}); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writer.Write([]string{
			e.UserName, e.EntityType, e.EntityID, e.Action, e.Endpoint, e.HTTPMethod,
			strconv.Itoa(e.StatusCode), e.IPAddress, e.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func maskAll(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Masked()
	}
	return out
}

func marshalValues(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
