package cases

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Status int

const (
	StatusOpen               Status = 1
	StatusUnderInvestigation Status = 2
	StatusClosed             Status = 3
)

var statusNames = map[Status]string{
	StatusOpen:               "Open",
	StatusUnderInvestigation: "UnderInvestigation",
	StatusClosed:             "Closed",
}

func (s Status) String() string { return nameOf(statusNames, s) }
func (s Status) Valid() bool    { _, ok := statusNames[s]; return ok }

func ParseStatus(raw string) (Status, bool) { return parseEnum(statusNames, raw) }

func (s Status) MarshalJSON() ([]byte, error)     { return json.Marshal(s.String()) }
func (s *Status) UnmarshalJSON(data []byte) error { return unmarshalEnum(statusNames, data, s) }

type CaseType int

const (
	TypeViolation     CaseType = 1
	TypeSafety        CaseType = 2
	TypeMisbehavior   CaseType = 3
	TypeInvestigation CaseType = 4
	TypeComplaint     CaseType = 5
)

var caseTypeNames = map[CaseType]string{
	TypeViolation:     "Violation",
	TypeSafety:        "Safety",
	TypeMisbehavior:   "Misbehavior",
	TypeInvestigation: "Investigation",
	TypeComplaint:     "Complaint",
}

func (t CaseType) String() string { return nameOf(caseTypeNames, t) }
func (t CaseType) Valid() bool    { _, ok := caseTypeNames[t]; return ok }

func ParseCaseType(raw string) (CaseType, bool) { return parseEnum(caseTypeNames, raw) }

func (t CaseType) MarshalJSON() ([]byte, error)     { return json.Marshal(t.String()) }
func (t *CaseType) UnmarshalJSON(data []byte) error { return unmarshalEnum(caseTypeNames, data, t) }

type Outcome int

const (
	OutcomeNoAction       Outcome = 1
	OutcomeVerbalWarning  Outcome = 2
	OutcomeWrittenWarning Outcome = 3
)

var outcomeNames = map[Outcome]string{
	OutcomeNoAction:       "NoAction",
	OutcomeVerbalWarning:  "VerbalWarning",
	OutcomeWrittenWarning: "WrittenWarning",
}

func (o Outcome) String() string { return nameOf(outcomeNames, o) }
func (o Outcome) Valid() bool    { _, ok := outcomeNames[o]; return ok }

// IsWarning reports whether a warning letter can be issued for o.
func (o Outcome) IsWarning() bool {
	return o == OutcomeVerbalWarning || o == OutcomeWrittenWarning
}

func ParseOutcome(raw string) (Outcome, bool) { return parseEnum(outcomeNames, raw) }

func (o Outcome) MarshalJSON() ([]byte, error)     { return json.Marshal(o.String()) }
func (o *Outcome) UnmarshalJSON(data []byte) error { return unmarshalEnum(outcomeNames, data, o) }

type EventType int

const (
	EventCreated             EventType = 1
	EventStatusChanged       EventType = 2
	EventRemarkAdded         EventType = 3
	EventAttachmentAdded     EventType = 4
	EventAttachmentRemoved   EventType = 5
	EventWarningLetterIssued EventType = 6
	EventOutcomeSet          EventType = 7
)

var eventNames = map[EventType]string{
	EventCreated:             "Created",
	EventStatusChanged:       "StatusChanged",
	EventRemarkAdded:         "RemarkAdded",
	EventAttachmentAdded:     "AttachmentAdded",
	EventAttachmentRemoved:   "AttachmentRemoved",
	EventWarningLetterIssued: "WarningLetterIssued",
	EventOutcomeSet:          "OutcomeSet",
}

func (e EventType) String() string               { return nameOf(eventNames, e) }
func (e EventType) MarshalJSON() ([]byte, error) { return json.Marshal(e.String()) }

func nameOf[T ~int](names map[T]string, v T) string {
	if name, ok := names[v]; ok {
		return name
	}
	return "Unknown"
}

// parseEnum accepts the numeric value or the case-insensitive name.
func parseEnum[T ~int](names map[T]string, raw string) (T, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(raw); err == nil {
		v := T(n)
		_, ok := names[v]
		return v, ok
	}
	for v, name := range names {
		if strings.EqualFold(name, raw) {
			return v, true
		}
	}
	return 0, false
}

// unmarshalEnum leaves unknown values as 0 so validators can report them.
func unmarshalEnum[T ~int](names map[T]string, data []byte, out *T) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*out = T(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	v, _ := parseEnum(names, s)
	*out = v
	return nil
}
