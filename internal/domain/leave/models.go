package leave

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

type Type int

const (
	TypeEmergency  Type = 1
	TypeSick       Type = 2
	TypeOutsideKSA Type = 3
)

var typeNames = map[Type]string{
	TypeEmergency:  "Emergency",
	TypeSick:       "Sick",
	TypeOutsideKSA: "OutsideKSA",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

func (t Type) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

func (t Type) MarshalJSON() ([]byte, error) { return json.Marshal(t.String()) }

func (t *Type) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*t = Type(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t, _ = ParseType(s)
	return nil
}

func ParseType(raw string) (Type, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		return Type(n), Type(n).Valid()
	}
	for t, name := range typeNames {
		if strings.EqualFold(name, raw) {
			return t, true
		}
	}
	return 0, false
}

type Status int

const (
	StatusDraft       Status = 1
	StatusSubmitted   Status = 2
	StatusUnderReview Status = 3
	StatusApproved    Status = 4
	StatusRejected    Status = 5
	StatusCancelled   Status = 6
)

var statusNames = map[Status]string{
	StatusDraft:       "Draft",
	StatusSubmitted:   "Submitted",
	StatusUnderReview: "UnderReview",
	StatusApproved:    "Approved",
	StatusRejected:    "Rejected",
	StatusCancelled:   "Cancelled",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "Unknown"
}

func (s Status) MarshalJSON() ([]byte, error) { return json.Marshal(s.String()) }

func ParseStatus(raw string) (Status, bool) {
	raw = strings.TrimSpace(raw)
	if n, err := strconv.Atoi(raw); err == nil {
		_, ok := statusNames[Status(n)]
		return Status(n), ok
	}
	for s, name := range statusNames {
		if strings.EqualFold(name, raw) {
			return s, true
		}
	}
	return 0, false
}

type Request struct {
	ID             string       `json:"id"`
	EmployeeCode   string       `json:"employeeId"`
	EmployeeName   string       `json:"employeeName"`
	Type           Type         `json:"type"`
	Status         Status       `json:"status"`
	StartDate      time.Time    `json:"startDate"`
	EndDate        time.Time    `json:"endDate"`
	Days           float64      `json:"days"`
	Reason         string       `json:"reason"`
	CreatedBy      string       `json:"createdBy,omitempty"`
	CreatedByName  string       `json:"createdByName"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
	ReviewedAt     *time.Time   `json:"reviewedAt,omitempty"`
	ReviewedBy     string       `json:"reviewedBy,omitempty"`
	ReviewedByName string       `json:"reviewedByName,omitempty"`
	ReviewRemark   string       `json:"reviewRemark,omitempty"`
	Attachments    []Attachment `json:"attachments,omitempty"`
}

type Attachment struct {
	ID         string    `json:"id"`
	FileID     string    `json:"fileId"`
	FileName   string    `json:"fileName"`
	SizeBytes  int64     `json:"sizeBytes"`
	URL        string    `json:"url"`
	UploadedBy string    `json:"uploadedBy,omitempty"`
	UploadedAt time.Time `json:"uploadedAt"`
}

type AttachmentInput struct {
	FileID    string `json:"fileId"`
	FileName  string `json:"fileName"`
	SizeBytes int64  `json:"sizeBytes"`
	URL       string `json:"url"`
}

type CreateInput struct {
	EmployeeCode string
	EmployeeName string
	Type         Type
	StartDate    time.Time
	EndDate      time.Time
	Reason       string
	Attachments  []AttachmentInput
	Submit       bool
}

type ListFilter struct {
	Employee string
	Type     Type
	Status   Status
	From     time.Time
	To       time.Time
}

const (
	DecisionStartReview = "startreview"
	DecisionApprove     = "approve"
	DecisionReject      = "reject"
)

var Decisions = []string{DecisionStartReview, DecisionApprove, DecisionReject}

// Review is the persisted effect of a reviewer decision.
type Review struct {
	UserID   string
	UserName string
	Remark   string
}
