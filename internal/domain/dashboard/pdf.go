package dashboard

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RenderPDF lays out a one-document summary report.
func RenderPDF(d Dashboard, filter Filter, generated time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Investigation & Violation Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated: "+generated.Format("2006-01-02 15:04:05")+" UTC", "", 1, "C", false, 0, "")
	if scope := filterScope(filter); scope != "" {
		pdf.CellFormat(0, 6, tr(scope), "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	section(pdf, "Summary")
	for _, kv := range []struct {
		label string
		value int
	}{
		{"Total Violations", d.TotalViolations},
		{"Active Investigations", d.ActiveInvestigations},
		{"Warning Letters", d.WarningLetters},
		{"Total Employees", d.TotalEmployees},
		{"Employees with Violations (30 days)", d.EmployeesWithViolations},
	} {
		pdf.CellFormat(100, 6, kv.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%d", kv.value), "", 1, "R", false, 0, "")
	}

	breakdown(pdf, tr, "Violations by Factory", d.ByFactory)
	breakdown(pdf, tr, "Violations by Department", d.ByDepartment)
	breakdown(pdf, tr, "Violations by Type", d.ByType)

	section(pdf, "Top Violators")
	if len(d.TopViolators) == 0 {
		pdf.CellFormat(0, 6, "No violations recorded.", "", 1, "L", false, 0, "")
	}
	for _, v := range d.TopViolators {
		pdf.CellFormat(0, 6, tr(fmt.Sprintf("%s (%s)", v.Name, v.EmployeeCode)), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, tr(fmt.Sprintf("    %s, %s: %d violations, risk %s", v.Department, v.Factory, v.ViolationCount, v.RiskLevel)), "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func section(pdf *gofpdf.Fpdf, title string) {
	pdf.Ln(3)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
}

func breakdown(pdf *gofpdf.Fpdf, tr func(string) string, title string, points []ChartPoint) {
	section(pdf, title)
	for _, p := range points {
		pdf.CellFormat(100, 6, tr(p.Label), "", 0, "L", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%d", p.Value), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 6, fmt.Sprintf("%.2f%%", p.Percentage), "", 1, "R", false, 0, "")
	}
}

func filterScope(f Filter) string {
	var parts []string
	if !f.From.IsZero() {
		parts = append(parts, "from "+f.From.Format(time.DateOnly))
	}
	if !f.To.IsZero() {
		parts = append(parts, "to "+f.To.AddDate(0, 0, -1).Format(time.DateOnly))
	}
	if f.Factory != "" {
		parts = append(parts, "factory "+f.Factory)
	}
	if f.Department != "" {
		parts = append(parts, "department "+f.Department)
	}
	if len(parts) == 0 {
		return ""
	}
	out := "Scope:"
	for _, p := range parts {
		out += " " + p
	}
	return out
}
