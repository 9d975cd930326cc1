package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleguard/internal/domain/cases"
)

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

const employeeColumns = `id, employee_code, name, department, factory, designation, email, status, created_at, updated_at`

func scanEmployee(row pgx.Row) (Employee, error) {
	var e Employee
	err := row.Scan(&e.ID, &e.EmployeeCode, &e.Name, &e.Department, &e.Factory, &e.Designation,
		&e.Email, &e.Status, &e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Employee{}, ErrNotFound
	}
	return e, err
}

func collectEmployees(rows pgx.Rows) ([]Employee, error) {
	defer rows.Close()
	out := make([]Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func mapWriteError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrExists
	}
	return err
}

func buildListWhere(filter ListFilter) (string, []any) {
	where := " WHERE NOT is_deleted"
	args := []any{}
	add := func(cond string, value any) {
		args = append(args, value)
		where += strings.ReplaceAll(cond, "$N", fmt.Sprintf("$%d", len(args)))
	}
	if v := strings.TrimSpace(filter.Search); v != "" {
		add(" AND (name ILIKE '%' || $N || '%' OR employee_code ILIKE '%' || $N || '%')", v)
	}
	if v := strings.TrimSpace(filter.Department); v != "" {
		add(" AND lower(department) = lower($N)", v)
	}
	if v := strings.TrimSpace(filter.Factory); v != "" {
		add(" AND lower(factory) = lower($N)", v)
	}
	if v := strings.TrimSpace(filter.Status); v != "" {
		add(" AND lower(status) = lower($N)", v)
	}
	return where, args
}

func (s *Store) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Employee, int, error) {
	where, args := buildListWhere(filter)

	var total int
	if err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM employees"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := "SELECT " + employeeColumns + " FROM employees" + where +
		fmt.Sprintf(" ORDER BY name, employee_code LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectEmployees(rows)
	return items, total, err
}

func (s *Store) Get(ctx context.Context, id string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE id = $1 AND NOT is_deleted", id))
}

func (s *Store) ByCode(ctx context.Context, code string) (Employee, error) {
	return scanEmployee(s.DB.QueryRow(ctx, "SELECT "+employeeColumns+" FROM employees WHERE employee_code = $1 AND NOT is_deleted", code))
}

func (s *Store) Create(ctx context.Context, input Input) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    INSERT INTO employees (employee_code, name, department, factory, designation, email, status)
    VALUES ($1, $2, $3, $4, $5, $6, $7)
    RETURNING `+employeeColumns,
		input.EmployeeCode, input.Name, input.Department, input.Factory, input.Designation, input.Email, input.Status))
	return e, mapWriteError(err)
}

func (s *Store) Update(ctx context.Context, id string, input Input) (Employee, error) {
	e, err := scanEmployee(s.DB.QueryRow(ctx, `
    UPDATE employees
    SET employee_code = $2, name = $3, department = $4, factory = $5, designation = $6,
        email = $7, status = $8, updated_at = now()
    WHERE id = $1 AND NOT is_deleted
    RETURNING `+employeeColumns,
		id, input.EmployeeCode, input.Name, input.Department, input.Factory, input.Designation, input.Email, input.Status))
	return e, mapWriteError(err)
}

func (s *Store) SoftDelete(ctx context.Context, id string) error {
	tag, err := s.DB.Exec(ctx, "UPDATE employees SET is_deleted = true, updated_at = now() WHERE id = $1 AND NOT is_deleted", id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Search(ctx context.Context, query string, limit int) ([]Employee, error) {
	rows, err := s.DB.Query(ctx, `
    SELECT `+employeeColumns+`
    FROM employees
    WHERE NOT is_deleted
      AND (name ILIKE '%' || $1 || '%' OR department ILIKE '%' || $1 || '%' OR factory ILIKE '%' || $1 || '%')
    ORDER BY name
    LIMIT $2
  `, query, limit)
	if err != nil {
		return nil, err
	}
	return collectEmployees(rows)
}

func (s *Store) Stats(ctx context.Context, id string) (Stats, error) {
	st := Stats{EmployeeID: id}
	err := s.DB.QueryRow(ctx, `
    SELECT
      (SELECT COUNT(1) FROM investigations WHERE employee_id = $1 AND NOT is_deleted),
      (SELECT COUNT(1) FROM investigations WHERE employee_id = $1 AND NOT is_deleted AND status = $2),
      (SELECT COUNT(1) FROM investigations WHERE employee_id = $1 AND NOT is_deleted AND status = $3),
      (SELECT COUNT(1) FROM investigations WHERE employee_id = $1 AND NOT is_deleted AND status = $4),
      (SELECT COUNT(1) FROM warning_letters WHERE employee_id = $1 AND outcome = $5),
      (SELECT COUNT(1) FROM warning_letters WHERE employee_id = $1 AND outcome = $6)
  `, id, int(cases.StatusOpen), int(cases.StatusUnderInvestigation), int(cases.StatusClosed),
		int(cases.OutcomeVerbalWarning), int(cases.OutcomeWrittenWarning)).
		Scan(&st.TotalCases, &st.Open, &st.UnderInvestigation, &st.Closed, &st.VerbalWarnings, &st.WrittenWarnings)
	return st, err
}

// History merges investigations and warning letters into one timeline.
func (s *Store) History(ctx context.Context, id string, filter HistoryFilter, limit, offset int) ([]HistoryItem, int, error) {
	args := []any{id}
	where := " WHERE 1=1"
	add := func(cond string, value any) {
		args = append(args, value)
		where += fmt.Sprintf(cond, len(args))
	}
	if filter.Type != "" {
		add(" AND kind = $%d", filter.Type)
	}
	if !filter.From.IsZero() {
		add(" AND event_date >= $%d", filter.From)
	}
	if !filter.Before.IsZero() {
		add(" AND event_date < $%d", filter.Before)
	}
	timeline := `
    WITH timeline AS (
      SELECT 'investigation' AS kind, i.id::text AS id, i.id::text AS investigation_id, i.title,
             i.status AS status, i.outcome AS outcome, i.created_at AS event_date, i.created_at AS case_created
      FROM investigations i
      WHERE i.employee_id = $1 AND NOT i.is_deleted
      UNION ALL
      SELECT 'warning', w.id::text, w.investigation_id::text, i.title,
             NULL, w.outcome, w.issued_at, i.created_at
      FROM warning_letters w
      JOIN investigations i ON i.id = w.investigation_id
      WHERE w.employee_id = $1
    )`

	var total int
	if err := s.DB.QueryRow(ctx, timeline+" SELECT COUNT(1) FROM timeline"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	query := timeline + " SELECT kind, id, investigation_id, title, status, outcome, event_date, case_created FROM timeline" + where +
		fmt.Sprintf(" ORDER BY event_date DESC LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	rows, err := s.DB.Query(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]HistoryItem, 0)
	for rows.Next() {
		var item HistoryItem
		var status, outcome *int16
		var caseCreated time.Time
		if err := rows.Scan(&item.Type, &item.ID, &item.InvestigationID, &item.Title, &status, &outcome, &item.Date, &caseCreated); err != nil {
			return nil, 0, err
		}
		item.CaseCode = cases.CaseCode(item.InvestigationID, caseCreated)
		if status != nil {
			item.Status = cases.Status(*status).String()
		}
		if outcome != nil {
			item.Outcome = cases.Outcome(*outcome).String()
		}
		items = append(items, item)
	}
	return items, total, rows.Err()
}

func (s *Store) Factories(ctx context.Context) ([]string, error) {
	rows, err := s.DB.Query(ctx, "SELECT DISTINCT factory FROM employees WHERE NOT is_deleted AND factory <> '' ORDER BY factory")
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
