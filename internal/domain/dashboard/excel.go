package dashboard

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
)

const (
	sheetSummary      = "Summary"
	sheetByFactory    = "ByFactory"
	sheetByDepartment = "ByDepartment"
	sheetTopViolators = "TopViolators"
	sheetCases        = "Cases"
)

// RenderWorkbook writes the dashboard and case rows to an xlsx workbook.
func RenderWorkbook(d Dashboard, rows []RecentCase, generated time.Time) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	if err := f.SetSheetName("Sheet1", sheetSummary); err != nil {
		return nil, err
	}

	summary := [][]any{
		{"Investigation & Violation Report"},
		{"Generated", generated.Format(time.RFC3339)},
		{},
		{"Metric", "Value"},
		{"Total Violations", d.TotalViolations},
		{"Active Investigations", d.ActiveInvestigations},
		{"Warning Letters", d.WarningLetters},
		{"Total Employees", d.TotalEmployees},
		{"Employees with Violations (30d)", d.EmployeesWithViolations},
	}
	if err := writeRows(f, sheetSummary, summary); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A1", "A1", bold); err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheetSummary, "A4", "B4", bold); err != nil {
		return nil, err
	}

	if err := writeSheet(f, bold, sheetByFactory, []any{"Factory", "Count", "Percentage"}, chartRows(d.ByFactory)); err != nil {
		return nil, err
	}
	if err := writeSheet(f, bold, sheetByDepartment, []any{"Department", "Count", "Percentage"}, chartRows(d.ByDepartment)); err != nil {
		return nil, err
	}

	violators := make([][]any, 0, len(d.TopViolators))
	for _, v := range d.TopViolators {
		violators = append(violators, []any{v.Name, v.EmployeeCode, v.Department, v.Factory, v.ViolationCount, v.RiskLevel})
	}
	if err := writeSheet(f, bold, sheetTopViolators,
		[]any{"Name", "Employee ID", "Department", "Factory", "Violations", "Risk Level"}, violators); err != nil {
		return nil, err
	}

	caseRows := make([][]any, 0, len(rows))
	for _, c := range rows {
		caseRows = append(caseRows, []any{c.CaseCode, c.Title, c.EmployeeName, c.EmployeeCode, c.Factory,
			c.Department, c.CaseType, c.Status, c.Outcome, c.CreatedAt.UTC().Format(time.DateOnly)})
	}
	if err := writeSheet(f, bold, sheetCases,
		[]any{"Case", "Title", "Employee", "Employee ID", "Factory", "Department", "Type", "Status", "Outcome", "Created"}, caseRows); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func chartRows(points []ChartPoint) [][]any {
	out := make([][]any, 0, len(points))
	for _, p := range points {
		out = append(out, []any{p.Label, p.Value, fmt.Sprintf("%.2f%%", p.Percentage)})
	}
	return out
}

func writeSheet(f *excelize.File, headerStyle int, sheet string, header []any, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return err
	}
	if err := writeRows(f, sheet, append([][]any{header}, rows...)); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, headerStyle)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
