package letters

import (
	"strings"

	"peopleguard/internal/domain/cases"
)

// CaseRequirement is the case status a letter insert re-checks under lock.
type CaseRequirement int

const (
	// RequireClosed is for outcome letters; issuing one also sets the case outcome.
	RequireClosed CaseRequirement = iota + 1
	// RequireActive is for letters drafted while the case is still being worked.
	RequireActive
)

func (r CaseRequirement) check(status cases.Status) error {
	switch r {
	case RequireClosed:
		if status != cases.StatusClosed {
			return ErrCaseNotClosed
		}
	case RequireActive:
		if status == cases.StatusClosed {
			return ErrCaseClosed
		}
	}
	return nil
}

// NormalizeTemplate maps anything other than "manual" to the standard template.
func NormalizeTemplate(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), TemplateManual) {
		return TemplateManual
	}
	return TemplateStandard
}

// historyEntries returns the case history rows written with a letter.
// current is the case outcome read under lock.
func historyEntries(letter Letter, req CaseRequirement, current *cases.Outcome) []cases.HistoryEntry {
	if req != RequireClosed {
		return []cases.HistoryEntry{{
			InvestigationID: letter.InvestigationID,
			UserID:          letter.IssuedBy,
			EventType:       cases.EventWarningLetterIssued,
			Description:     "Warning letter generated (" + letter.Template + ")",
			ReferenceID:     letter.ID,
		}}
	}
	var out []cases.HistoryEntry
	if current == nil || *current != letter.Outcome {
		old := ""
		if current != nil {
			old = current.String()
		}
		out = append(out, cases.HistoryEntry{
			InvestigationID: letter.InvestigationID,
			UserID:          letter.IssuedBy,
			EventType:       cases.EventOutcomeSet,
			Description:     "Outcome set to " + letter.Outcome.String(),
			OldValue:        old,
			NewValue:        letter.Outcome.String(),
		})
	}
	return append(out, cases.HistoryEntry{
		InvestigationID: letter.InvestigationID,
		UserID:          letter.IssuedBy,
		EventType:       cases.EventWarningLetterIssued,
		Description:     "Warning letter issued: " + outcomeLabel(letter.Outcome),
		NewValue:        letter.Outcome.String(),
		ReferenceID:     letter.ID,
	})
}
