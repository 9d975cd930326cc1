package leave

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

const requestColumns = `r.id, r.employee_code, r.employee_name, r.type, r.status, r.start_date, r.end_date, r.reason,
       COALESCE(r.created_by::text, ''), r.created_by_name, r.created_at, r.updated_at, r.reviewed_at,
       COALESCE(r.reviewed_by::text, ''), COALESCE(r.reviewed_by_name, ''), COALESCE(r.review_remark, '')`

func scanRequest(row pgx.Row) (Request, error) {
	var r Request
	var leaveType, status int
	err := row.Scan(&r.ID, &r.EmployeeCode, &r.EmployeeName, &leaveType, &status, &r.StartDate, &r.EndDate, &r.Reason,
		&r.CreatedBy, &r.CreatedByName, &r.CreatedAt, &r.UpdatedAt, &r.ReviewedAt,
		&r.ReviewedBy, &r.ReviewedByName, &r.ReviewRemark)
	if errors.Is(err, pgx.ErrNoRows) {
		return Request{}, ErrNotFound
	}
	if err != nil {
		return Request{}, err
	}
	r.Type = Type(leaveType)
	r.Status = Status(status)
	r.Days, _ = CalculateDays(r.StartDate, r.EndDate)
	return r, nil
}

func (s *Store) Create(ctx context.Context, req Request, attachments []AttachmentInput) (Request, error) {
	var created Request
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		created, err = scanRequest(tx.QueryRow(ctx, `
      INSERT INTO leave_requests AS r (employee_code, employee_name, type, status, start_date, end_date, reason,
                                       created_by, created_by_name)
      VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, '')::uuid, $9)
      RETURNING `+requestColumns,
			req.EmployeeCode, req.EmployeeName, int(req.Type), int(req.Status), req.StartDate, req.EndDate, req.Reason,
			req.CreatedBy, req.CreatedByName))
		if err != nil {
			return err
		}
		for _, a := range attachments {
			var att Attachment
			if err := tx.QueryRow(ctx, `
        INSERT INTO leave_attachments (leave_request_id, file_id, file_name, size_bytes, url, uploaded_by)
        VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid)
        RETURNING id, file_id, file_name, size_bytes, url, COALESCE(uploaded_by::text, ''), uploaded_at
      `, created.ID, a.FileID, a.FileName, a.SizeBytes, a.URL, req.CreatedBy).Scan(
				&att.ID, &att.FileID, &att.FileName, &att.SizeBytes, &att.URL, &att.UploadedBy, &att.UploadedAt); err != nil {
				return fmt.Errorf("insert leave attachment: %w", err)
			}
			created.Attachments = append(created.Attachments, att)
		}
		return nil
	})
	return created, err
}

func (s *Store) Get(ctx context.Context, id string) (Request, error) {
	req, err := scanRequest(s.DB.QueryRow(ctx, "SELECT "+requestColumns+" FROM leave_requests r WHERE r.id = $1", id))
	if err != nil {
		return Request{}, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT id, file_id, file_name, size_bytes, url, COALESCE(uploaded_by::text, ''), uploaded_at
    FROM leave_attachments
    WHERE leave_request_id = $1
    ORDER BY uploaded_at
  `, id)
	if err != nil {
		return Request{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var att Attachment
		if err := rows.Scan(&att.ID, &att.FileID, &att.FileName, &att.SizeBytes, &att.URL, &att.UploadedBy, &att.UploadedAt); err != nil {
			return Request{}, err
		}
		req.Attachments = append(req.Attachments, att)
	}
	return req, rows.Err()
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Request, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	add := func(cond string, value any) {
		args = append(args, value)
		where += strings.ReplaceAll(cond, "$N", fmt.Sprintf("$%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Employee); v != "" {
		add(" AND (r.employee_code ILIKE '%' || $N || '%' OR r.employee_name ILIKE '%' || $N || '%')", v)
	}
	if filter.Type != 0 {
		add(" AND r.type = $N", int(filter.Type))
	}
	if filter.Status != 0 {
		add(" AND r.status = $N", int(filter.Status))
	}
	// from/to select requests overlapping the window.
	if !filter.From.IsZero() {
		add(" AND r.end_date >= $N", filter.From)
	}
	if !filter.To.IsZero() {
		add(" AND r.start_date <= $N", filter.To)
	}

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM leave_requests r"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + requestColumns + " FROM leave_requests r" + where +
		fmt.Sprintf(" ORDER BY r.created_at DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := make([]Request, 0)
	for rows.Next() {
		r, err := scanRequest(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, r)
	}
	return items, total, rows.Err()
}

func (s *Store) UpdateStatus(ctx context.Context, id string, from, to Status, review *Review) error {
	var tag pgconn.CommandTag
	var err error
	if review == nil {
		tag, err = s.DB.Exec(ctx, `
      UPDATE leave_requests SET status = $3, updated_at = now()
      WHERE id = $1 AND status = $2
    `, id, int(from), int(to))
	} else {
		tag, err = s.DB.Exec(ctx, `
      UPDATE leave_requests
      SET status = $3, updated_at = now(), reviewed_at = now(),
          reviewed_by = NULLIF($4, '')::uuid, reviewed_by_name = $5, review_remark = NULLIF($6, '')
      WHERE id = $1 AND status = $2
    `, id, int(from), int(to), review.UserID, review.UserName, review.Remark)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}
