package letters

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"peopleguard/internal/domain/cases"
	"peopleguard/internal/platform/storage"
)

type fakeStore struct {
	info     map[string]CaseInfo
	letters  []Letter
	reqs     []CaseRequirement
	failNext bool
	// lockedStatus overrides the status seen inside the insert transaction.
	lockedStatus map[string]cases.Status
}

func (f *fakeStore) CaseInfo(_ context.Context, id string) (CaseInfo, error) {
	info, ok := f.info[id]
	if !ok {
		return CaseInfo{}, ErrCaseNotFound
	}
	return info, nil
}

func (f *fakeStore) Insert(_ context.Context, l Letter, req CaseRequirement) (Letter, error) {
	if f.failNext {
		return Letter{}, errors.New("db down")
	}
	if status, ok := f.lockedStatus[l.InvestigationID]; ok {
		if err := req.check(status); err != nil {
			return Letter{}, err
		}
	}
	l.ID = fmt.Sprintf("letter-%d", len(f.letters)+1)
	l.IssuedAt = time.Now()
	f.letters = append(f.letters, l)
	f.reqs = append(f.reqs, req)
	return l, nil
}

func (f *fakeStore) List(context.Context) ([]Letter, error) { return f.letters, nil }

func (f *fakeStore) ByInvestigation(_ context.Context, id string) ([]Letter, error) {
	var out []Letter
	for _, l := range f.letters {
		if l.InvestigationID == id {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Letter, error) {
	for _, l := range f.letters {
		if l.ID == id {
			return l, nil
		}
	}
	return Letter{}, ErrNotFound
}

func newTestService(t *testing.T) (*Service, *fakeStore) {
	t.Helper()
	store := &fakeStore{info: map[string]CaseInfo{
		"open":   {ID: "3f2b8f5e-0000-0000-0000-000000000001", Status: cases.StatusOpen},
		"closed": {ID: "9abc8f5e-0000-0000-0000-000000000002", Status: cases.StatusClosed, EmployeeName: "Omar Haddad", EmployeeCode: "E-77", Department: "Assembly", CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)},
		"review": {ID: "7d1e8f5e-0000-0000-0000-000000000003", Status: cases.StatusUnderInvestigation, Description: "Left the line unattended twice.", CaseType: cases.TypeViolation, EmployeeName: "Lina Saleh", EmployeeCode: "E-12", Factory: "North", CreatedAt: time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC)},
	}}
	return NewService(store, storage.New(t.TempDir(), 1<<20, nil), "warnings"), store
}

func TestIssueRules(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tests := []struct {
		name    string
		input   IssueInput
		wantErr error
	}{
		{"missing case", IssueInput{InvestigationID: "nope", Outcome: cases.OutcomeVerbalWarning}, ErrCaseNotFound},
		{"open case", IssueInput{InvestigationID: "open", Outcome: cases.OutcomeVerbalWarning}, ErrCaseNotClosed},
		{"no action outcome", IssueInput{InvestigationID: "closed", Outcome: cases.OutcomeNoAction}, ErrInvalidOutcome},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Issue(ctx, tc.input, "u1"); !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestIssueRendersAndStoresPDF(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	letter, err := svc.Issue(ctx, IssueInput{InvestigationID: "closed", Outcome: cases.OutcomeWrittenWarning, Reason: "Repeated absence without notice."}, "u1")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if letter.Template != TemplateStandard || letter.CaseCode != "C-2026-9ABC" {
		t.Fatalf("unexpected letter %+v", letter)
	}
	if store.reqs[0] != RequireClosed {
		t.Fatalf("expected outcome letter to require a closed case, got %v", store.reqs[0])
	}

	got, data, err := svc.PDF(ctx, letter.ID)
	if err != nil {
		t.Fatalf("pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected a PDF document, got %q", data[:8])
	}
	if FileName(got) != "warning-letter-c-2026-9abc.pdf" {
		t.Fatalf("unexpected file name %s", FileName(got))
	}

	byCase, err := svc.ByInvestigation(ctx, "closed")
	if err != nil || len(byCase) != 1 {
		t.Fatalf("expected one letter for case, got %v %v", byCase, err)
	}
	if _, err := svc.ByInvestigation(ctx, "nope"); !errors.Is(err, ErrCaseNotFound) {
		t.Fatalf("expected ErrCaseNotFound, got %v", err)
	}
}

func TestIssueRemovesBlobOnFailure(t *testing.T) {
	svc, store := newTestService(t)
	store.failNext = true
	if _, err := svc.Issue(context.Background(), IssueInput{InvestigationID: "closed", Outcome: cases.OutcomeVerbalWarning, Reason: "x"}, ""); err == nil {
		t.Fatalf("expected insert failure")
	}
	if len(store.letters) != 0 {
		t.Fatalf("no letter should be stored")
	}
}

func TestIssueRejectsCaseReopenedBeforeInsert(t *testing.T) {
	svc, store := newTestService(t)
	closedID := store.info["closed"].ID
	store.lockedStatus = map[string]cases.Status{closedID: cases.StatusOpen}

	_, err := svc.Issue(context.Background(), IssueInput{InvestigationID: "closed", Outcome: cases.OutcomeVerbalWarning, Reason: "x"}, "")
	if !errors.Is(err, ErrCaseNotClosed) {
		t.Fatalf("expected ErrCaseNotClosed, got %v", err)
	}
	if len(store.letters) != 0 {
		t.Fatalf("no letter should be stored")
	}
	stored, _ := filepath.Glob(filepath.Join(svc.Files.(*storage.Store).Root, "warnings", "*"))
	if len(stored) != 0 {
		t.Fatalf("expected rendered blob to be removed, found %v", stored)
	}
}

func TestDraftCaseLetters(t *testing.T) {
	svc, store := newTestService(t)
	ctx := context.Background()
	tests := []struct {
		name     string
		caseKey  string
		input    DraftInput
		wantErr  error
		template string
	}{
		{"standard", "review", DraftInput{}, nil, TemplateStandard},
		{"manual", "review", DraftInput{Template: "Manual", HTML: "<b>Final notice</b><br>Report to HR."}, nil, TemplateManual},
		{"manual without body", "review", DraftInput{Template: "manual", HTML: "  "}, ErrHTMLRequired, ""},
		{"closed case", "closed", DraftInput{}, ErrCaseClosed, ""},
		{"missing case", "nope", DraftInput{}, ErrCaseNotFound, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			letter, err := svc.Draft(ctx, tc.caseKey, tc.input, "u1")
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if tc.wantErr != nil {
				return
			}
			if letter.Template != tc.template || letter.Outcome != cases.OutcomeNoAction {
				t.Fatalf("unexpected letter %+v", letter)
			}
			got, data, err := svc.CaseLetterPDF(ctx, letter.InvestigationID, letter.ID)
			if err != nil || got.ID != letter.ID || !bytes.HasPrefix(data, []byte("%PDF")) {
				t.Fatalf("expected stored PDF, got %v", err)
			}
		})
	}
	if store.letters[0].Reason != "Left the line unattended twice." {
		t.Fatalf("standard letter should carry the case description, got %q", store.letters[0].Reason)
	}
	for _, req := range store.reqs {
		if req != RequireActive {
			t.Fatalf("drafts must require an active case, got %v", req)
		}
	}
	if _, _, err := svc.CaseLetterPDF(ctx, store.info["closed"].ID, store.letters[0].ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a letter of another case, got %v", err)
	}
}

func TestDraftRejectsCaseClosedBeforeInsert(t *testing.T) {
	svc, store := newTestService(t)
	store.lockedStatus = map[string]cases.Status{store.info["review"].ID: cases.StatusClosed}
	if _, err := svc.Draft(context.Background(), "review", DraftInput{}, ""); !errors.Is(err, ErrCaseClosed) {
		t.Fatalf("expected ErrCaseClosed, got %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(svc.Files.(*storage.Store).Root, "warnings")); len(entries) != 0 {
		t.Fatalf("expected rendered blob to be removed, found %d", len(entries))
	}
}

func TestDraftNeverCountsAsWarning(t *testing.T) {
	svc, store := newTestService(t)
	written := cases.OutcomeWrittenWarning
	info := store.info["review"]
	info.Outcome = &written
	store.info["review"] = info
	letter, err := svc.Draft(context.Background(), "review", DraftInput{}, "u1")
	if err != nil {
		t.Fatalf("draft: %v", err)
	}
	if letter.Outcome != cases.OutcomeNoAction {
		t.Fatalf("expected draft to carry NoAction, got %v", letter.Outcome)
	}
}
