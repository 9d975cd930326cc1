package letterhandler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/cases"
	"peopleguard/internal/domain/letters"
	"peopleguard/internal/transport/http/middleware"
)

func TestValidateIssue(t *testing.T) {
	tests := []struct {
		name  string
		in    letters.IssueInput
		field string
	}{
		{"valid", letters.IssueInput{InvestigationID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Outcome: cases.OutcomeWrittenWarning, Reason: "Repeated lateness"}, ""},
		{"no action outcome", letters.IssueInput{InvestigationID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Outcome: cases.OutcomeNoAction, Reason: "x"}, "outcome"},
		{"bad case id", letters.IssueInput{InvestigationID: "7", Outcome: cases.OutcomeVerbalWarning, Reason: "x"}, "investigationId"},
		{"missing reason", letters.IssueInput{InvestigationID: "1b4e28ba-2fa1-11d2-883f-0016d3cca427", Outcome: cases.OutcomeVerbalWarning}, "reason"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := validateIssue(tt.in).Issues()
			if tt.field == "" {
				if len(issues) != 0 {
					t.Fatalf("expected no issues, got %+v", issues)
				}
				return
			}
			if len(issues) == 0 || issues[0].Field != tt.field {
				t.Fatalf("expected %s issue, got %+v", tt.field, issues)
			}
		})
	}
}

func TestIssueRejectsNameOutsideWarnings(t *testing.T) {
	h := NewHandler(nil, nil)
	body := `{"investigationId":"1b4e28ba-2fa1-11d2-883f-0016d3cca427","outcome":"NoAction","reason":"x"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/warningletters", strings.NewReader(body))
	req = req.WithContext(middleware.WithUser(req.Context(), auth.UserContext{UserID: "u1"}))
	rec := httptest.NewRecorder()
	h.handleIssue(rec, req)
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "outcome") {
		t.Fatalf("expected outcome validation failure, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{letters.ErrNotFound, http.StatusNotFound},
		{letters.ErrCaseNotFound, http.StatusNotFound},
		{letters.ErrCaseNotClosed, http.StatusBadRequest},
		{letters.ErrInvalidOutcome, http.StatusBadRequest},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err, "")
		if rec.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
