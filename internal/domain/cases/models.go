package cases

import "time"

type Case struct {
	ID          string     `json:"id"`
	CaseCode    string     `json:"caseCode"`
	EmployeeID  string     `json:"employeeId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	CaseType    CaseType   `json:"caseType"`
	Status      Status     `json:"status"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	ClosedAt    *time.Time `json:"closedAt,omitempty"`
}

// ListItem is a case row joined with its employee.
type ListItem struct {
	Case
	EmployeeName       string `json:"employeeName"`
	EmployeeCode       string `json:"employeeCode"`
	EmployeeFactory    string `json:"factory"`
	EmployeeDepartment string `json:"department"`
}

type Detail struct {
	ListItem
	EmployeeDesignation string `json:"designation"`
	OutcomeName         string `json:"outcomeName,omitempty"`
	RemarksCount        int    `json:"remarksCount"`
	AttachmentsCount    int    `json:"attachmentsCount"`
	LatestLetterID      string `json:"latestWarningLetterId,omitempty"`
}

type Input struct {
	EmployeeID  string   `json:"employeeId"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	CaseType    CaseType `json:"caseType"`
}

type ListFilter struct {
	Employee string
	Factory  string
	Type     CaseType
	Status   Status
	From     time.Time
	// Before is an exclusive upper bound on created_at.
	Before   time.Time
	SortBy   string
	SortDesc bool
}

type Stats struct {
	Total              int `json:"total"`
	Open               int `json:"open"`
	UnderInvestigation int `json:"underInvestigation"`
	Closed             int `json:"closed"`
}

type Remark struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigationId"`
	UserID          string    `json:"userId,omitempty"`
	UserName        string    `json:"userName"`
	Remark          string    `json:"remark"`
	CreatedAt       time.Time `json:"createdAt"`
}

type Attachment struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigationId"`
	FileName        string    `json:"fileName"`
	StorageKey      string    `json:"-"`
	ContentType     string    `json:"contentType"`
	FileSize        int64     `json:"fileSize"`
	UploadedBy      string    `json:"uploadedBy,omitempty"`
	UploadedAt      time.Time `json:"uploadedAt"`
}

type HistoryEntry struct {
	ID              string    `json:"id"`
	InvestigationID string    `json:"investigationId"`
	UserID          string    `json:"userId,omitempty"`
	UserName        string    `json:"userName"`
	EventType       EventType `json:"eventType"`
	Description     string    `json:"description"`
	OldValue        string    `json:"oldValue,omitempty"`
	NewValue        string    `json:"newValue,omitempty"`
	ReferenceID     string    `json:"referenceId,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

// StatusChange is the persisted effect of a validated transition.
type StatusChange struct {
	From    Status
	To      Status
	Outcome *Outcome
}

// Actor is the user performing a change.
type Actor struct {
	UserID string
	Name   string
}
