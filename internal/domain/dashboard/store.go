package dashboard

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"peopleguard/internal/domain/cases"
)

type Dimension string

const (
	DimFactory    Dimension = "factory"
	DimDepartment Dimension = "department"
	DimType       Dimension = "type"
	DimOutcome    Dimension = "outcome"
)

var dimensionColumns = map[Dimension]string{
	DimFactory:    "e.factory",
	DimDepartment: "e.department",
	DimType:       "i.case_type::text",
	DimOutcome:    "i.outcome::text",
}

type Store struct {
	DB *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{DB: db}
}

// where builds the employee and date predicates shared by every aggregate.
// dateColumn may be empty when the source has no date to filter on.
func where(filter Filter, dateColumn string, base ...string) (string, []any) {
	clauses := append([]string{}, base...)
	var args []any
	add := func(cond string, value any) {
		args = append(args, value)
		clauses = append(clauses, strings.ReplaceAll(cond, "$N", "$"+strconv.Itoa(len(args))))
	}
	if v := strings.TrimSpace(filter.Factory); v != "" {
		add("e.factory = $N", v)
	}
	if v := strings.TrimSpace(filter.Department); v != "" {
		add("e.department = $N", v)
	}
	if dateColumn != "" {
		if !filter.From.IsZero() {
			add(dateColumn+" >= $N", filter.From)
		}
		if !filter.To.IsZero() {
			add(dateColumn+" < $N", filter.To)
		}
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	err := s.DB.QueryRow(ctx, query, args...).Scan(&n)
	return n, err
}

func (s *Store) Totals(ctx context.Context, filter Filter, activeSince time.Time) (Totals, error) {
	var t Totals
	var err error

	caseWhere, caseArgs := where(filter, "i.created_at", "NOT i.is_deleted")
	const caseFrom = " FROM investigations i JOIN employees e ON e.id = i.employee_id"
	if t.TotalViolations, err = s.count(ctx, "SELECT COUNT(1)"+caseFrom+caseWhere, caseArgs...); err != nil {
		return Totals{}, fmt.Errorf("count cases: %w", err)
	}
	activeArgs := append(append([]any{}, caseArgs...), int(cases.StatusClosed))
	activeQuery := "SELECT COUNT(1)" + caseFrom + caseWhere + " AND i.status <> $" + strconv.Itoa(len(activeArgs))
	if t.ActiveInvestigations, err = s.count(ctx, activeQuery, activeArgs...); err != nil {
		return Totals{}, fmt.Errorf("count active cases: %w", err)
	}
	recentArgs := append(append([]any{}, caseArgs...), activeSince)
	recentQuery := "SELECT COUNT(DISTINCT i.employee_id)" + caseFrom + caseWhere + " AND i.created_at >= $" + strconv.Itoa(len(recentArgs))
	if t.EmployeesWithViolations, err = s.count(ctx, recentQuery, recentArgs...); err != nil {
		return Totals{}, fmt.Errorf("count recent offenders: %w", err)
	}

	letterWhere, letterArgs := where(filter, "w.issued_at")
	if t.WarningLetters, err = s.count(ctx, "SELECT COUNT(1) FROM warning_letters w JOIN employees e ON e.id = w.employee_id"+letterWhere, letterArgs...); err != nil {
		return Totals{}, fmt.Errorf("count letters: %w", err)
	}

	employeeWhere, employeeArgs := where(filter, "", "NOT e.is_deleted")
	if t.TotalEmployees, err = s.count(ctx, "SELECT COUNT(1) FROM employees e"+employeeWhere, employeeArgs...); err != nil {
		return Totals{}, fmt.Errorf("count employees: %w", err)
	}
	return t, nil
}

func (s *Store) Breakdown(ctx context.Context, filter Filter, dimension Dimension) ([]ChartPoint, error) {
	column, ok := dimensionColumns[dimension]
	if !ok {
		return nil, fmt.Errorf("unknown dimension %q", dimension)
	}
	base := []string{"NOT i.is_deleted"}
	if dimension == DimOutcome {
		base = append(base, "i.outcome IS NOT NULL")
	}
	clause, args := where(filter, "i.created_at", base...)
	rows, err := s.DB.Query(ctx, `
    SELECT `+column+` AS label, COUNT(1)
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id`+clause+`
    GROUP BY label
    ORDER BY COUNT(1) DESC, label
  `, args...)
	if err != nil {
		return nil, err
	}
	points, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ChartPoint, error) {
		var p ChartPoint
		err := row.Scan(&p.Label, &p.Value)
		return p, err
	})
	if err != nil {
		return nil, err
	}
	for i := range points {
		points[i].Label = dimensionLabel(dimension, points[i].Label)
	}
	return points, nil
}

func dimensionLabel(dimension Dimension, raw string) string {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return raw
	}
	switch dimension {
	case DimType:
		return cases.CaseType(n).String()
	case DimOutcome:
		return cases.Outcome(n).String()
	}
	return raw
}

func (s *Store) MonthlyCounts(ctx context.Context, filter Filter, since time.Time) (map[string]int, error) {
	clause, args := where(filter, "i.created_at", "NOT i.is_deleted")
	args = append(args, since)
	rows, err := s.DB.Query(ctx, `
    SELECT to_char(date_trunc('month', i.created_at AT TIME ZONE 'UTC'), 'MM/YYYY'), COUNT(1)
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id`+clause+` AND i.created_at >= $`+strconv.Itoa(len(args))+`
    GROUP BY 1
  `, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := map[string]int{}
	for rows.Next() {
		var month string
		var n int
		if err := rows.Scan(&month, &n); err != nil {
			return nil, err
		}
		counts[month] = n
	}
	return counts, rows.Err()
}

func (s *Store) TopViolators(ctx context.Context, filter Filter, limit int) ([]Violator, error) {
	clause, args := where(filter, "i.created_at", "NOT i.is_deleted")
	args = append(args, int(cases.OutcomeWrittenWarning), limit)
	written, lim := len(args)-1, len(args)
	rows, err := s.DB.Query(ctx, `
    SELECT e.id, e.name, e.employee_code, e.department, e.factory, COUNT(i.id),
           (SELECT COUNT(1) FROM warning_letters w WHERE w.employee_id = e.id AND w.outcome = $`+strconv.Itoa(written)+`),
           (SELECT COUNT(1) FROM warning_letters w WHERE w.employee_id = e.id)
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id`+clause+`
    GROUP BY e.id, e.name, e.employee_code, e.department, e.factory
    ORDER BY COUNT(i.id) DESC, e.name
    LIMIT $`+strconv.Itoa(lim), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (Violator, error) {
		var v Violator
		if err := row.Scan(&v.EmployeeID, &v.Name, &v.EmployeeCode, &v.Department, &v.Factory,
			&v.ViolationCount, &v.WrittenWarnings, &v.Letters); err != nil {
			return Violator{}, err
		}
		v.RiskScore = RiskScore(v.WrittenWarnings, v.Letters, v.ViolationCount)
		v.RiskLevel = RiskLevel(v.RiskScore)
		return v, nil
	})
}

func (s *Store) Recent(ctx context.Context, filter Filter, limit int) ([]RecentCase, error) {
	clause, args := where(filter, "i.created_at", "NOT i.is_deleted")
	args = append(args, limit)
	rows, err := s.DB.Query(ctx, `
    SELECT i.id, i.title, i.case_type, i.status, i.outcome, i.created_at,
           e.name, e.employee_code, e.factory, e.department
    FROM investigations i
    JOIN employees e ON e.id = i.employee_id`+clause+`
    ORDER BY i.created_at DESC
    LIMIT $`+strconv.Itoa(len(args)), args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (RecentCase, error) {
		var c RecentCase
		var caseType, status int
		var outcome *int
		if err := row.Scan(&c.InvestigationID, &c.Title, &caseType, &status, &outcome, &c.CreatedAt,
			&c.EmployeeName, &c.EmployeeCode, &c.Factory, &c.Department); err != nil {
			return RecentCase{}, err
		}
		c.CaseCode = cases.CaseCode(c.InvestigationID, c.CreatedAt)
		c.CaseType = cases.CaseType(caseType).String()
		c.Status = cases.Status(status).String()
		if outcome != nil {
			c.Outcome = cases.Outcome(*outcome).String()
		}
		return c, nil
	})
}
