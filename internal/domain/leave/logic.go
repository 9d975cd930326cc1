package leave

import (
	"errors"
	"strings"
	"time"
)

// CalculateDays returns inclusive day count between start and end.
func CalculateDays(start, end time.Time) (float64, error) {
	if end.Before(start) {
		return 0, errors.New("end date before start date")
	}
	return end.Sub(start).Hours()/24 + 1, nil
}

// RequiresAttachment reports whether a leave type needs supporting documents.
func RequiresAttachment(t Type) bool {
	return t == TypeSick || t == TypeOutsideKSA
}

func (s Status) Finalized() bool {
	return s == StatusApproved || s == StatusRejected || s == StatusCancelled
}

// NextStatus resolves a reviewer decision against the current status.
func NextStatus(current Status, decision, remark string) (Status, error) {
	if current.Finalized() {
		return 0, ErrFinalized
	}
	switch strings.ToLower(strings.TrimSpace(decision)) {
	case DecisionStartReview:
		if current != StatusSubmitted {
			return 0, ErrInvalidState
		}
		return StatusUnderReview, nil
	case DecisionApprove:
		if current != StatusSubmitted && current != StatusUnderReview {
			return 0, ErrInvalidState
		}
		return StatusApproved, nil
	case DecisionReject:
		if current != StatusSubmitted && current != StatusUnderReview {
			return 0, ErrInvalidState
		}
		if strings.TrimSpace(remark) == "" {
			return 0, ErrRemarkRequired
		}
		return StatusRejected, nil
	default:
		return 0, ErrInvalidDecision
	}
}

func CanCancel(s Status) bool {
	return s == StatusDraft || s == StatusSubmitted || s == StatusUnderReview
}
