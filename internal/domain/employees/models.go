package employees

import "time"

const (
	StatusActive     = "Active"
	StatusInactive   = "Inactive"
	StatusSuspended  = "Suspended"
	StatusTerminated = "Terminated"
)

var Statuses = []string{StatusActive, StatusInactive, StatusSuspended, StatusTerminated}

type Employee struct {
	ID           string    `json:"id"`
	EmployeeCode string    `json:"employeeCode"`
	Name         string    `json:"name"`
	Department   string    `json:"department"`
	Factory      string    `json:"factory"`
	Designation  string    `json:"designation"`
	Email        string    `json:"email,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Input struct {
	EmployeeCode string `json:"employeeCode"`
	Name         string `json:"name"`
	Department   string `json:"department"`
	Factory      string `json:"factory"`
	Designation  string `json:"designation"`
	Email        string `json:"email"`
	Status       string `json:"status"`
}

type ListFilter struct {
	Search     string
	Department string
	Factory    string
	Status     string
}

type Stats struct {
	EmployeeID         string `json:"employeeId"`
	TotalCases         int    `json:"totalCases"`
	Open               int    `json:"open"`
	UnderInvestigation int    `json:"underInvestigation"`
	Closed             int    `json:"closed"`
	VerbalWarnings     int    `json:"verbalWarnings"`
	WrittenWarnings    int    `json:"writtenWarnings"`
}

const (
	HistoryInvestigation = "investigation"
	HistoryWarning       = "warning"
)

// HistoryItem is one row of an employee's disciplinary timeline.
type HistoryItem struct {
	Type            string    `json:"type"`
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigationId"`
	CaseCode        string    `json:"caseCode"`
	Title           string    `json:"title"`
	Status          string    `json:"status,omitempty"`
	Outcome         string    `json:"outcome,omitempty"`
	Date            time.Time `json:"date"`
}

type HistoryFilter struct {
	Type   string
	From   time.Time
	Before time.Time
}
