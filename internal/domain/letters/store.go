package letters

import (
	"context"
	"errors"
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

func (s *Store) CaseInfo(ctx context.Context, caseID string) (CaseInfo, error) {
	var info CaseInfo
	var status, caseType int
	var outcome *int
	err := s.DB.QueryRow(ctx, `
    SELECT i.id, i.title, i.description, i.case_type, i.status, i.outcome, i.created_at,
           e.id, e.name, e.employee_code, e.department, e.factory, e.designation
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id
    WHERE i.id = $1 AND NOT i.is_deleted
  `, caseID).Scan(&info.ID, &info.Title, &info.Description, &caseType, &status, &outcome, &info.CreatedAt,
		&info.EmployeeID, &info.EmployeeName, &info.EmployeeCode, &info.Department, &info.Factory, &info.Designation)
	if errors.Is(err, pgx.ErrNoRows) {
		return CaseInfo{}, ErrCaseNotFound
	}
	if err != nil {
		return CaseInfo{}, err
	}
	info.CaseType = cases.CaseType(caseType)
	info.Status = cases.Status(status)
	if outcome != nil {
		o := cases.Outcome(*outcome)
		info.Outcome = &o
	}
	return info, nil
}

// lockCase reads the case status and outcome with a row lock.
func lockCase(ctx context.Context, tx pgx.Tx, caseID string) (cases.Status, *cases.Outcome, error) {
	var status int
	var outcome *int
	err := tx.QueryRow(ctx, `
    SELECT status, outcome FROM investigations
    WHERE id = $1 AND NOT is_deleted
    FOR UPDATE
  `, caseID).Scan(&status, &outcome)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil, ErrCaseNotFound
	}
	if err != nil {
		return 0, nil, err
	}
	if outcome == nil {
		return cases.Status(status), nil, nil
	}
	o := cases.Outcome(*outcome)
	return cases.Status(status), &o, nil
}

// Insert stores the letter and its history rows in one transaction after
// re-checking the case status against req. Outcome letters also set the
// case outcome.
func (s *Store) Insert(ctx context.Context, letter Letter, req CaseRequirement) (Letter, error) {
	err := pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		status, current, err := lockCase(ctx, tx, letter.InvestigationID)
		if err != nil {
			return err
		}
		if err := req.check(status); err != nil {
			return err
		}
		if err := tx.QueryRow(ctx, `
      INSERT INTO warning_letters (investigation_id, employee_id, outcome, template, letter_content, storage_key, issued_by)
      VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::uuid)
      RETURNING id, issued_at
    `, letter.InvestigationID, letter.EmployeeID, int(letter.Outcome), letter.Template, letter.Reason,
			letter.StorageKey, letter.IssuedBy).Scan(&letter.ID, &letter.IssuedAt); err != nil {
			return err
		}
		if req == RequireClosed {
			if _, err := tx.Exec(ctx, "UPDATE investigations SET outcome = $2, updated_at = now() WHERE id = $1",
				letter.InvestigationID, int(letter.Outcome)); err != nil {
				return err
			}
		}
		for _, entry := range historyEntries(letter, req, current) {
			if err := cases.InsertHistory(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	return letter, err
}

const letterQuery = `
    SELECT w.id, w.investigation_id, i.created_at, w.employee_id, e.name, e.employee_code, w.outcome,
           w.template, w.letter_content, w.storage_key, COALESCE(w.issued_by::text, ''), w.issued_at
    FROM warning_letters w
    JOIN investigations i ON i.id = w.investigation_id
    JOIN employees e ON e.id = w.employee_id`

func scanLetter(row pgx.Row) (Letter, error) {
	var l Letter
	var caseCreated time.Time
	var outcome int
	err := row.Scan(&l.ID, &l.InvestigationID, &caseCreated, &l.EmployeeID, &l.EmployeeName, &l.EmployeeCode, &outcome,
		&l.Template, &l.Reason, &l.StorageKey, &l.IssuedBy, &l.IssuedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Letter{}, ErrNotFound
	}
	l.Outcome = cases.Outcome(outcome)
	l.CaseCode = cases.CaseCode(l.InvestigationID, caseCreated)
	return l, err
}

func (s *Store) query(ctx context.Context, sql string, args ...any) ([]Letter, error) {
	rows, err := s.DB.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Letter, 0)
	for rows.Next() {
		l, err := scanLetter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *Store) List(ctx context.Context) ([]Letter, error) {
	return s.query(ctx, letterQuery+" ORDER BY w.issued_at DESC")
}

func (s *Store) ByInvestigation(ctx context.Context, caseID string) ([]Letter, error) {
	return s.query(ctx, letterQuery+" WHERE w.investigation_id = $1 ORDER BY w.issued_at DESC", caseID)
}

func (s *Store) Get(ctx context.Context, id string) (Letter, error) {
	return scanLetter(s.DB.QueryRow(ctx, letterQuery+" WHERE w.id = $1", id))
}
