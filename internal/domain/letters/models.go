package letters

import (
	"time"

	"peopleguard/internal/domain/cases"
)

const (
	TemplateStandard = "standard"
	TemplateManual   = "manual"
)

type Letter struct {
	ID              string        `json:"id"`
	InvestigationID string        `json:"investigationId"`
	CaseCode        string        `json:"caseCode"`
	EmployeeID      string        `json:"employeeId"`
	EmployeeName    string        `json:"employeeName"`
	EmployeeCode    string        `json:"employeeCode"`
	Outcome         cases.Outcome `json:"outcome"`
	Template        string        `json:"template"`
	Reason          string        `json:"reason"`
	StorageKey      string        `json:"-"`
	IssuedBy        string        `json:"issuedBy,omitempty"`
	IssuedAt        time.Time     `json:"issuedAt"`
}

type IssueInput struct {
	InvestigationID string        `json:"investigationId"`
	Outcome         cases.Outcome `json:"outcome"`
	Reason          string        `json:"reason"`
}

// DraftInput is a letter generated from an open case. Manual letters carry
// their own body as basic HTML.
type DraftInput struct {
	Template string `json:"template"`
	HTML     string `json:"html"`
}

// CaseInfo is the case and employee data a letter is rendered from.
type CaseInfo struct {
	ID           string
	Title        string
	Description  string
	CaseType     cases.CaseType
	Status       cases.Status
	Outcome      *cases.Outcome
	CreatedAt    time.Time
	EmployeeID   string
	EmployeeName string
	EmployeeCode string
	Department   string
	Factory      string
	Designation  string
}
