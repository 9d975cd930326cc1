package qr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleguard/internal/domain/cases"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const tokenColumns = `id, token, target_type, target_id, label, expires_at, is_active,
       COALESCE(created_by::text, ''), png_key, created_at`

func scanToken(row pgx.Row) (Token, error) {
	var t Token
	err := row.Scan(&t.ID, &t.Token, &t.TargetType, &t.TargetID, &t.Label, &t.ExpiresAt, &t.IsActive,
		&t.CreatedBy, &t.PNGKey, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Token{}, ErrNotFound
	}
	return t, err
}

func (s *Store) Create(ctx context.Context, t Token) (Token, error) {
	return scanToken(s.DB.QueryRow(ctx, `
    INSERT INTO qr_tokens (token, target_type, target_id, label, expires_at, created_by, png_key)
    VALUES ($1, $2, $3, $4, $5, NULLIF($6, '')::uuid, $7)
    RETURNING `+tokenColumns,
		t.Token, t.TargetType, t.TargetID, t.Label, t.ExpiresAt, t.CreatedBy, t.PNGKey))
}

func (s *Store) Get(ctx context.Context, id string) (Token, error) {
	return scanToken(s.DB.QueryRow(ctx, "SELECT "+tokenColumns+" FROM qr_tokens WHERE id = $1", id))
}

func (s *Store) ByToken(ctx context.Context, token string) (Token, error) {
	return scanToken(s.DB.QueryRow(ctx, "SELECT "+tokenColumns+" FROM qr_tokens WHERE token = $1", token))
}

func (s *Store) List(ctx context.Context, limit, offset int) ([]Token, int, error) {
	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM qr_tokens").Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := s.DB.Query(ctx, `
    SELECT `+tokenColumns+`
    FROM qr_tokens
    ORDER BY created_at DESC
    LIMIT $1 OFFSET $2
  `, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *Store) Deactivate(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE qr_tokens SET is_active = false WHERE id = $1", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ExpireTokens(ctx context.Context, now time.Time) (int64, error) {
	tag, err := s.DB.Exec(ctx, "UPDATE qr_tokens SET is_active = false WHERE is_active AND expires_at <= $1", now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (s *Store) Submissions(ctx context.Context, tokenID string) ([]Submission, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT id, qr_token_id, category, message, submitter_name, submitter_email, submitter_phone,
           attachment_urls, COALESCE(related_investigation_id::text, ''), ip_address, created_at
    FROM qr_submissions
    WHERE qr_token_id = $1
    ORDER BY created_at DESC
  `, tokenID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Submission, error) {
		var sub Submission
		err := row.Scan(&sub.ID, &sub.TokenID, &sub.Category, &sub.Message, &sub.SubmitterName,
			&sub.SubmitterEmail, &sub.SubmitterPhone, &sub.AttachmentURLs, &sub.RelatedInvestigationID,
			&sub.IPAddress, &sub.CreatedAt)
		return sub, err
	})
}

func (s *Store) Submit(ctx context.Context, c cases.Case, sub Submission) (Submission, cases.Case, error) {
	var created cases.Case
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		employeeID, err := ensureAnonymousEmployee(ctx, tx)
		if err != nil {
			return err
		}
		c.EmployeeID = employeeID
		created, err = cases.InsertCase(ctx, tx, c)
		if err != nil {
			return fmt.Errorf("insert case: %w", err)
		}
		if err := cases.InsertHistory(ctx, tx, cases.HistoryEntry{
			InvestigationID: created.ID,
			EventType:       cases.EventCreated,
			Description:     "Case created from QR submission",
			NewValue:        created.Status.String(),
		}); err != nil {
			return err
		}
		if sub.AttachmentURLs == nil {
			sub.AttachmentURLs = []string{}
		}
		sub.RelatedInvestigationID = created.ID
		return tx.QueryRow(ctx, `
      INSERT INTO qr_submissions (qr_token_id, category, message, submitter_name, submitter_email,
                                  submitter_phone, attachment_urls, related_investigation_id, ip_address)
      VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
      RETURNING id, created_at
    `, sub.TokenID, sub.Category, sub.Message, sub.SubmitterName, sub.SubmitterEmail,
			sub.SubmitterPhone, sub.AttachmentURLs, created.ID, sub.IPAddress).Scan(&sub.ID, &sub.CreatedAt)
	})
	if err != nil {
		return Submission{}, cases.Case{}, err
	}
	return sub, created, nil
}

// ensureAnonymousEmployee returns the id of the placeholder employee that
// public submissions are filed against, creating it on first use.
func ensureAnonymousEmployee(ctx context.Context, tx pgx.Tx) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
    INSERT INTO employees (employee_code, name, department, factory, designation)
    VALUES ($1, 'Anonymous Submitter', 'Public', 'External', 'N/A')
    ON CONFLICT (employee_code) DO UPDATE SET updated_at = employees.updated_at
    RETURNING id
  `, AnonymousEmployeeCode).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("ensure anonymous employee: %w", err)
	}
	return id, nil
}
