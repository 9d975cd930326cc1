package leave

import (
	"errors"
	"testing"
	"time"
)

func TestCalculateDays(t *testing.T) {
	start := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)

	days, err := CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 1 {
		t.Fatalf("expected 1 day, got %v", days)
	}

	end = time.Date(2025, 1, 12, 0, 0, 0, 0, time.UTC)
	days, err = CalculateDays(start, end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 3 {
		t.Fatalf("expected 3 days, got %v", days)
	}

	if _, err := CalculateDays(end, start); err == nil {
		t.Fatalf("expected error for reversed range")
	}
}

func TestNextStatus(t *testing.T) {
	cases := []struct {
		current  Status
		decision string
		remark   string
		want     Status
		err      error
	}{
		{StatusSubmitted, "startreview", "", StatusUnderReview, nil},
		{StatusUnderReview, "startreview", "", 0, ErrInvalidState},
		{StatusDraft, "approve", "", 0, ErrInvalidState},
		{StatusSubmitted, "approve", "", StatusApproved, nil},
		{StatusUnderReview, "Approve", "", StatusApproved, nil},
		{StatusUnderReview, "reject", "", 0, ErrRemarkRequired},
		{StatusUnderReview, "reject", "missing documents", StatusRejected, nil},
		{StatusApproved, "reject", "late", 0, ErrFinalized},
		{StatusCancelled, "startreview", "", 0, ErrFinalized},
		{StatusSubmitted, "escalate", "", 0, ErrInvalidDecision},
	}
	for _, tc := range cases {
		got, err := NextStatus(tc.current, tc.decision, tc.remark)
		if got != tc.want || !errors.Is(err, tc.err) {
			t.Fatalf("%s/%s: got %s, %v", tc.current, tc.decision, got, err)
		}
	}
}

func TestRequiresAttachmentAndCancel(t *testing.T) {
	if RequiresAttachment(TypeEmergency) || !RequiresAttachment(TypeSick) || !RequiresAttachment(TypeOutsideKSA) {
		t.Fatalf("unexpected attachment rules")
	}
	for _, s := range []Status{StatusDraft, StatusSubmitted, StatusUnderReview} {
		if !CanCancel(s) {
			t.Fatalf("expected %s cancellable", s)
		}
	}
	if CanCancel(StatusApproved) || CanCancel(StatusRejected) {
		t.Fatalf("finalized requests must not be cancellable")
	}
}
