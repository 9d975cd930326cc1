package letters

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"peopleguard/internal/domain/cases"
)

func outcomeLabel(o cases.Outcome) string {
	switch o {
	case cases.OutcomeVerbalWarning:
		return "VERBAL WARNING"
	case cases.OutcomeWrittenWarning:
		return "WRITTEN WARNING"
	default:
		return strings.ToUpper(o.String())
	}
}

// RenderPDF lays out the standard warning letter.
func RenderPDF(info CaseInfo, outcome cases.Outcome, reason string, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "EMPLOYEE WARNING LETTER", "", 1, "C", false, 0, "")
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, "Date of issue: "+issuedAt.Format("02 January 2006"))
	pdf.Ln(7)
	pdf.Cell(0, 7, "Case reference: "+cases.CaseCode(info.ID, info.CreatedAt))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Employee details")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Name: %s", info.EmployeeName)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Employee code: %s", info.EmployeeCode)))
	pdf.Ln(7)
	pdf.Cell(0, 7, tr(fmt.Sprintf("Department: %s", info.Department)))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(180, 0, 0)
	pdf.CellFormat(0, 10, outcomeLabel(outcome), "1", 1, "C", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Violation details")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(reason), "", "L", false)
	pdf.Ln(8)

	pdf.MultiCell(0, 6, "This letter serves as a formal notice. Any further violation may result in "+
		"additional disciplinary action up to and including termination of employment. "+
		"A copy of this letter will be kept in your employee file.", "", "L", false)
	pdf.Ln(16)
	pdf.Cell(80, 7, "Employee signature: ____________")
	pdf.Cell(0, 7, "HR representative: ____________")

	return output(pdf)
}

// RenderCaseLetterPDF lays out the standard letter drafted from an active case.
func RenderCaseLetterPDF(info CaseInfo, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 12, "Warning Letter")
	pdf.Ln(14)

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(75, 85, 99)
	for _, line := range []string{
		"Date: " + issuedAt.Format(time.DateOnly),
		"Case: " + cases.CaseCode(info.ID, info.CreatedAt),
		fmt.Sprintf("Employee: %s (%s)", info.EmployeeName, info.EmployeeCode),
		"Factory: " + info.Factory,
		"Case Type: " + info.CaseType.String(),
	} {
		pdf.Cell(0, 6, tr(line))
		pdf.Ln(6)
	}
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.Cell(0, 7, "Summary")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, tr(info.Description), "", "L", false)
	pdf.Ln(8)
	pdf.Cell(0, 6, "Please acknowledge receipt of this letter.")

	return output(pdf)
}

// RenderManualPDF prints a caller-written letter body. Only the basic tags
// gofpdf understands (b, i, u, a, br) are interpreted; everything else is text.
func RenderManualPDF(info CaseInfo, body string, issuedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(75, 85, 99)
	pdf.Cell(0, 5, tr(fmt.Sprintf("%s | %s | %s", issuedAt.Format(time.DateOnly), cases.CaseCode(info.ID, info.CreatedAt), info.EmployeeCode)))
	pdf.Ln(10)
	pdf.SetTextColor(0, 0, 0)

	pdf.SetFont("Helvetica", "", 11)
	html := pdf.HTMLBasicNew()
	html.Write(6, tr(body))

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render warning letter: %w", err)
	}
	return buf.Bytes(), nil
}
