package cases

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type transition struct {
	from Status
	to   Status
}

// transitions lists the allowed status moves. needsOutcome marks moves that
// require an outcome to be set on the case or in the request.
var transitions = map[transition]struct{ needsOutcome bool }{
	{StatusOpen, StatusUnderInvestigation}:   {},
	{StatusOpen, StatusClosed}:               {needsOutcome: true},
	{StatusUnderInvestigation, StatusClosed}: {},
	{StatusUnderInvestigation, StatusOpen}:   {},
	{StatusClosed, StatusOpen}:               {},
}

// CheckTransition validates a status move. Same-status moves are reported
// as noop and are never an error.
func CheckTransition(from, to Status, hasOutcome bool) (noop bool, err error) {
	if !to.Valid() {
		return false, ErrInvalidTransition
	}
	if from == to {
		return true, nil
	}
	rule, ok := transitions[transition{from, to}]
	if !ok {
		return false, ErrInvalidTransition
	}
	if rule.needsOutcome && !hasOutcome {
		return false, ErrOutcomeRequired
	}
	return false, nil
}

// CaseCode renders the short reference shown to users, e.g. C-2026-3F2B.
func CaseCode(id string, createdAt time.Time) string {
	hex := strings.ReplaceAll(id, "-", "")
	if len(hex) > 4 {
		hex = hex[:4]
	}
	return fmt.Sprintf("C-%d-%s", createdAt.Year(), strings.ToUpper(hex))
}

const remarkPreviewLength = 100

func remarkPreview(remark string) string {
	if utf8.RuneCountInString(remark) <= remarkPreviewLength {
		return remark
	}
	return string([]rune(remark)[:remarkPreviewLength]) + "..."
}

func statusChangeDescription(from, to Status) string {
	return fmt.Sprintf("Status changed from %s to %s", from, to)
}

func outcomeDescription(outcome Outcome, note string) string {
	desc := "Outcome set to " + outcome.String()
	if note = strings.TrimSpace(note); note != "" {
		desc += ": " + note
	}
	return desc
}

func validRemark(remark string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(remark))
	return n >= 5 && n <= 1000
}
