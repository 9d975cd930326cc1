package cases

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const caseColumns = `i.id, i.employee_id, i.title, i.description, i.case_type, i.status, i.outcome,
       COALESCE(i.created_by::text, ''), i.created_at, i.updated_at, i.closed_at`

const listColumns = caseColumns + `, e.name, e.employee_code, e.factory, e.department`

func scanCase(row pgx.Row, extra ...any) (Case, error) {
	var c Case
	var caseType, status int
	var outcome *int
	dest := append([]any{&c.ID, &c.EmployeeID, &c.Title, &c.Description, &caseType, &status, &outcome,
		&c.CreatedBy, &c.CreatedAt, &c.UpdatedAt, &c.ClosedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Case{}, ErrNotFound
		}
		return Case{}, err
	}
	c.CaseType = CaseType(caseType)
	c.Status = Status(status)
	if outcome != nil {
		o := Outcome(*outcome)
		c.Outcome = &o
	}
	c.CaseCode = CaseCode(c.ID, c.CreatedAt)
	return c, nil
}

func scanListItem(row pgx.Row, extra ...any) (ListItem, error) {
	var item ListItem
	dest := append([]any{&item.EmployeeName, &item.EmployeeCode, &item.EmployeeFactory, &item.EmployeeDepartment}, extra...)
	c, err := scanCase(row, dest...)
	item.Case = c
	return item, err
}

func (s *Store) EmployeeExists(ctx context.Context, employeeID string) (bool, error) {
	var count int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees WHERE id = $1 AND NOT is_deleted", employeeID).Scan(&count)
	return count > 0, err
}

func (s *Store) Create(ctx context.Context, c Case, actor Actor) (Case, error) {
	var created Case
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		created, err = InsertCase(ctx, tx, c)
		if err != nil {
			return err
		}
		return InsertHistory(ctx, tx, HistoryEntry{
			InvestigationID: created.ID,
			UserID:          actor.UserID,
			EventType:       EventCreated,
			Description:     "Case created",
			NewValue:        created.Status.String(),
		})
	})
	return created, err
}

// InsertCase writes a new case inside tx. Callers add the Created history row.
func InsertCase(ctx context.Context, tx pgx.Tx, c Case) (Case, error) {
	if c.Status == 0 {
		c.Status = StatusOpen
	}
	row := tx.QueryRow(ctx, `
    INSERT INTO investigations AS i (employee_id, title, description, case_type, status, created_by)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
    RETURNING `+caseColumns,
		c.EmployeeID, c.Title, c.Description, int(c.CaseType), int(c.Status), c.CreatedBy)
	return scanCase(row)
}

// InsertHistory appends a case history row inside tx.
func InsertHistory(ctx context.Context, tx pgx.Tx, h HistoryEntry) error {
	_, err := tx.Exec(ctx, `
    INSERT INTO case_history (investigation_id, user_id, event_type, description, old_value, new_value, reference_id)
    VALUES ($1, NULLIF($2, '')::uuid, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, '')::uuid)
  `, h.InvestigationID, h.UserID, int(h.EventType), h.Description, h.OldValue, h.NewValue, h.ReferenceID)
	if err != nil {
		return fmt.Errorf("insert case history: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, caseID string) (Case, error) {
	return scanCase(s.DB.QueryRow(ctx, `
    SELECT `+caseColumns+`
    FROM investigations i
    WHERE i.id = $1 AND NOT i.is_deleted
  `, caseID))
}

func (s *Store) Detail(ctx context.Context, caseID string) (Detail, error) {
	var d Detail
	var latest *string
	item, err := scanListItem(s.DB.QueryRow(ctx, `
    SELECT `+listColumns+`,
           e.designation,
           (SELECT COUNT(1) FROM investigation_remarks r WHERE r.investigation_id = i.id),
           (SELECT COUNT(1) FROM investigation_attachments a WHERE a.investigation_id = i.id),
           (SELECT w.id::text FROM warning_letters w WHERE w.investigation_id = i.id ORDER BY w.issued_at DESC LIMIT 1)
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id
    WHERE i.id = $1 AND NOT i.is_deleted
  `, caseID), &d.EmployeeDesignation, &d.RemarksCount, &d.AttachmentsCount, &latest)
	if err != nil {
		return Detail{}, err
	}
	d.ListItem = item
	if item.Outcome != nil {
		d.OutcomeName = item.Outcome.String()
	}
	if latest != nil {
		d.LatestLetterID = *latest
	}
	return d, nil
}

var sortColumns = map[string]string{
	"caseid":   "i.id",
	"employee": "e.name",
	"factory":  "e.factory",
	"type":     "i.case_type",
	"status":   "i.status",
	"updated":  "i.updated_at",
	"created":  "i.created_at",
}

func buildListWhere(filter ListFilter) (string, []any) {
	clause := " WHERE NOT i.is_deleted"
	args := []any{}
	add := func(cond string, value any) {
		args = append(args, value)
		clause += strings.ReplaceAll(cond, "$N", fmt.Sprintf("$%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Employee); v != "" {
		add(" AND (e.employee_code ILIKE '%' || $N || '%' OR e.name ILIKE '%' || $N || '%')", v)
	}
	if v := strings.TrimSpace(filter.Factory); v != "" {
		add(" AND lower(e.factory) = lower($N)", v)
	}
	if filter.Type != 0 {
		add(" AND i.case_type = $N", int(filter.Type))
	}
	if filter.Status != 0 {
		add(" AND i.status = $N", int(filter.Status))
	}
	if !filter.From.IsZero() {
		add(" AND i.created_at >= $N", filter.From)
	}
	if !filter.Before.IsZero() {
		add(" AND i.created_at < $N", filter.Before)
	}
	return clause, args
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]ListItem, int, error) {
	where, args := buildListWhere(filter)
	from := " FROM investigations i JOIN employees e ON e.id = i.employee_id"

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1)"+from+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "i.created_at DESC"
	if col, ok := sortColumns[strings.ToLower(filter.SortBy)]; ok {
		dir := "ASC"
		if filter.SortDesc {
			dir = "DESC"
		}
		order = col + " " + dir + ", i.created_at DESC"
	}
	query := "SELECT " + listColumns + from + where +
		fmt.Sprintf(" ORDER BY %s LIMIT $%d OFFSET $%d", order, len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]ListItem, 0, limit)
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	err := s.DB.QueryRow(ctx, `
    SELECT COUNT(1),
           COUNT(1) FILTER (WHERE status = $1),
           COUNT(1) FILTER (WHERE status = $2),
           COUNT(1) FILTER (WHERE status = $3)
    FROM investigations
    WHERE NOT is_deleted
  `, int(StatusOpen), int(StatusUnderInvestigation), int(StatusClosed)).Scan(&st.Total, &st.Open, &st.UnderInvestigation, &st.Closed)
	return st, err
}

func (s *Store) Update(ctx context.Context, caseID string, input Input) error {
	tag, err := s.DB.Exec(ctx, `
    UPDATE investigations
    SET title = $2, description = $3, case_type = $4, updated_at = now()
    WHERE id = $1 AND NOT is_deleted
  `, caseID, input.Title, input.Description, int(input.CaseType))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SoftDelete(ctx context.Context, caseID string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE investigations SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted", caseID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Factories(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT DISTINCT e.factory
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id
    WHERE NOT i.is_deleted AND e.factory <> ''
    ORDER BY e.factory
  `)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// ApplyStatus persists a transition and its history rows atomically. The
// update is guarded on the expected current status.
func (s *Store) ApplyStatus(ctx context.Context, caseID string, change StatusChange, entries []HistoryEntry) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var outcome *int
		if change.Outcome != nil {
			v := int(*change.Outcome)
			outcome = &v
		}
		tag, err := tx.Exec(ctx, `
      UPDATE investigations
      SET status = $3,
          outcome = COALESCE($4, outcome),
          closed_at = CASE WHEN $5 THEN now() ELSE NULL END,
          updated_at = now()
      WHERE id = $1 AND status = $2 AND NOT is_deleted
    `, caseID, int(change.From), int(change.To), outcome, change.To == StatusClosed)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrInvalidTransition
		}
		for _, entry := range entries {
			if err := InsertHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) SetOutcome(ctx context.Context, caseID string, outcome Outcome, entry HistoryEntry) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
      UPDATE investigations SET outcome = $2, updated_at = now()
      WHERE id = $1 AND status <> $3 AND NOT is_deleted
    `, caseID, int(outcome), int(StatusClosed))
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrCaseClosed
		}
		return InsertHistory(ctx, tx, entry)
	})
}

const userNameExpr = `COALESCE(NULLIF(u.display_name, ''), u.email, 'System')`

func (s *Store) ListRemarks(ctx context.Context, caseID string) ([]Remark, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT r.id, r.investigation_id, COALESCE(r.user_id::text, ''), `+userNameExpr+`, r.remark, r.created_at
    FROM investigation_remarks r
    LEFT JOIN users u ON u.id = r.user_id
    WHERE r.investigation_id = $1
    ORDER BY r.created_at DESC
  `, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Remark, 0)
	for rows.Next() {
		var r Remark
		if err := rows.Scan(&r.ID, &r.InvestigationID, &r.UserID, &r.UserName, &r.Remark, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) AddRemark(ctx context.Context, remark Remark) (Remark, error) {
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockOpenCase(ctx, tx, remark.InvestigationID); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      INSERT INTO investigation_remarks (investigation_id, user_id, remark)
      VALUES ($1, NULLIF($2, '')::uuid, $3)
      RETURNING id, created_at
    `, remark.InvestigationID, remark.UserID, remark.Remark).Scan(&remark.ID, &remark.CreatedAt); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, "UPDATE investigations SET updated_at = now() WHERE id = $1", remark.InvestigationID); err != nil {
			return err
		}
		return InsertHistory(ctx, tx, HistoryEntry{
			InvestigationID: remark.InvestigationID,
			UserID:          remark.UserID,
			EventType:       EventRemarkAdded,
			Description:     remarkPreview(remark.Remark),
			ReferenceID:     remark.ID,
		})
	})
	return remark, err
}

func (s *Store) ListAttachments(ctx context.Context, caseID string) ([]Attachment, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, investigation_id, file_name, storage_key, content_type, file_size,
           COALESCE(uploaded_by::text, ''), uploaded_at
    FROM investigation_attachments
    WHERE investigation_id = $1
    ORDER BY uploaded_at DESC
  `, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Attachment, 0)
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanAttachment(row pgx.Row) (Attachment, error) {
	var a Attachment
	err := row.Scan(&a.ID, &a.InvestigationID, &a.FileName, &a.StorageKey, &a.ContentType, &a.FileSize, &a.UploadedBy, &a.UploadedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Attachment{}, ErrAttachmentNotFound
	}
	return a, err
}

func (s *Store) GetAttachment(ctx context.Context, caseID, attachmentID string) (Attachment, error) {
	return scanAttachment(s.DB.QueryRow(ctx, `
    SELECT id, investigation_id, file_name, storage_key, content_type, file_size,
           COALESCE(uploaded_by::text, ''), uploaded_at
    FROM investigation_attachments
    WHERE investigation_id = $1 AND id = $2
  `, caseID, attachmentID))
}

func (s *Store) AddAttachment(ctx context.Context, att Attachment) (Attachment, error) {
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockOpenCase(ctx, tx, att.InvestigationID); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      INSERT INTO investigation_attachments (investigation_id, file_name, storage_key, content_type, file_size, uploaded_by)
      VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
      RETURNING id, uploaded_at
    `, att.InvestigationID, att.FileName, att.StorageKey, att.ContentType, att.FileSize, att.UploadedBy).Scan(&att.ID, &att.UploadedAt); err != nil {
			return err
		}
		return InsertHistory(ctx, tx, HistoryEntry{
			InvestigationID: att.InvestigationID,
			UserID:          att.UploadedBy,
			EventType:       EventAttachmentAdded,
			Description:     "Attachment added: " + att.FileName,
			NewValue:        att.FileName,
			ReferenceID:     att.ID,
		})
	})
	return att, err
}

func (s *Store) DeleteAttachment(ctx context.Context, caseID, attachmentID, userID string) (Attachment, error) {
	var att Attachment
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := lockOpenCase(ctx, tx, caseID); err != nil {
			return err
		}
		var err error
		att, err = scanAttachment(tx.QueryRow(ctx, `
      DELETE FROM investigation_attachments
      WHERE investigation_id = $1 AND id = $2
      RETURNING id, investigation_id, file_name, storage_key, content_type, file_size,
                COALESCE(uploaded_by::text, ''), uploaded_at
    `, caseID, attachmentID))
		if err != nil {
			return err
		}
		return InsertHistory(ctx, tx, HistoryEntry{
			InvestigationID: caseID,
			UserID:          userID,
			EventType:       EventAttachmentRemoved,
			Description:     "Attachment removed: " + att.FileName,
			OldValue:        att.FileName,
			ReferenceID:     att.ID,
		})
	})
	return att, err
}

// lockOpenCase row-locks the case and rejects closed or missing cases.
func lockOpenCase(ctx context.Context, tx pgx.Tx, caseID string) error {
	var status int
	err := tx.QueryRow(ctx, "SELECT status FROM investigations WHERE id = $1 AND NOT is_deleted FOR UPDATE", caseID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if Status(status) == StatusClosed {
		return ErrCaseClosed
	}
	return nil
}

func (s *Store) History(ctx context.Context, caseID string) ([]HistoryEntry, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT h.id, h.investigation_id, COALESCE(h.user_id::text, ''), `+userNameExpr+`,
           h.event_type, h.description, COALESCE(h.old_value, ''), COALESCE(h.new_value, ''),
           COALESCE(h.reference_id::text, ''), h.created_at
    FROM case_history h
    LEFT JOIN users u ON u.id = h.user_id
    WHERE h.investigation_id = $1
    ORDER BY h.created_at DESC, h.id
  `, caseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]HistoryEntry, 0)
	for rows.Next() {
		var h HistoryEntry
		var eventType int
		if err := rows.Scan(&h.ID, &h.InvestigationID, &h.UserID, &h.UserName, &eventType, &h.Description,
			&h.OldValue, &h.NewValue, &h.ReferenceID, &h.CreatedAt); err != nil {
			return nil, err
		}
		h.EventType = EventType(eventType)
		out = append(out, h)
	}
	return out, rows.Err()
}
