package dashboard

import "time"

type Dashboard struct {
	TotalViolations         int          `json:"totalViolations"`
	ActiveInvestigations    int          `json:"activeInvestigations"`
	WarningLetters          int          `json:"warningLetters"`
	TotalEmployees          int          `json:"totalEmployees"`
	EmployeesWithViolations int          `json:"employeesWithViolations"`
	ByFactory               []ChartPoint `json:"violationsByFactory"`
	ByDepartment            []ChartPoint `json:"violationsByDepartment"`
	ByType                  []ChartPoint `json:"violationsByType"`
	ByOutcome               []ChartPoint `json:"violationsByOutcome"`
	Trend                   []TrendPoint `json:"violationsTrend"`
	TopViolators            []Violator   `json:"topViolators"`
	RecentCases             []RecentCase `json:"recentInvestigations"`
}

// Totals holds the headline counters.
type Totals struct {
	TotalViolations         int
	ActiveInvestigations    int
	WarningLetters          int
	TotalEmployees          int
	EmployeesWithViolations int
}

type ChartPoint struct {
	Label      string  `json:"label"`
	Value      int     `json:"value"`
	Percentage float64 `json:"percentage"`
}

type TrendPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type Violator struct {
	EmployeeID      string  `json:"employeeId"`
	Name            string  `json:"name"`
	EmployeeCode    string  `json:"employeeCode"`
	Department      string  `json:"department"`
	Factory         string  `json:"factory"`
	ViolationCount  int     `json:"violationCount"`
	WrittenWarnings int     `json:"writtenWarnings"`
	Letters         int     `json:"warningLetters"`
	RiskScore       float64 `json:"riskScore"`
	RiskLevel       string  `json:"riskLevel"`
}

type RecentCase struct {
	InvestigationID string    `json:"investigationId"`
	CaseCode        string    `json:"caseCode"`
	Title           string    `json:"title"`
	EmployeeName    string    `json:"employeeName"`
	EmployeeCode    string    `json:"employeeCode"`
	Factory         string    `json:"factory"`
	Department      string    `json:"department"`
	CaseType        string    `json:"caseType"`
	Status          string    `json:"status"`
	Outcome         string    `json:"outcome,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// Filter narrows aggregates. Zero values mean no restriction; To is inclusive
// of the whole day when it carries no time component.
type Filter struct {
	From       time.Time
	To         time.Time
	Factory    string
	Department string
}

const (
	FormatExcel = "excel"
	FormatPDF   = "pdf"
)

type ExportRequest struct {
	Format     string `json:"format"`
	From       string `json:"from"`
	To         string `json:"to"`
	Factory    string `json:"factory"`
	Department string `json:"department"`
}

// Export is a rendered report ready for download.
type Export struct {
	FileName    string
	ContentType string
	Data        []byte
}
