package qr

import (
	"context"
	"errors"
	"testing"
	"time"

	"peopleguard/internal/domain/cases"
)

type fakeStore struct {
	tokens      map[string]Token
	submissions []Submission
	cases       []cases.Case
}

func newFakeStore() *fakeStore {
	return &fakeStore{tokens: map[string]Token{}}
}

func (f *fakeStore) Create(_ context.Context, t Token) (Token, error) {
	t.ID = "tok-id"
	t.IsActive = true
	t.CreatedAt = time.Now()
	f.tokens[t.ID] = t
	return t, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Token, error) {
	t, ok := f.tokens[id]
	if !ok {
		return Token{}, ErrNotFound
	}
	return t, nil
}

func (f *fakeStore) ByToken(_ context.Context, raw string) (Token, error) {
	for _, t := range f.tokens {
		if t.Token == raw {
			return t, nil
		}
	}
	return Token{}, ErrNotFound
}

func (f *fakeStore) List(context.Context, int, int) ([]Token, int, error) {
	var out []Token
	for _, t := range f.tokens {
		out = append(out, t)
	}
	return out, len(out), nil
}

func (f *fakeStore) Deactivate(_ context.Context, id string) error {
	t, ok := f.tokens[id]
	if !ok {
		return ErrNotFound
	}
	t.IsActive = false
	f.tokens[id] = t
	return nil
}

func (f *fakeStore) ExpireTokens(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, t := range f.tokens {
		if t.IsActive && !now.Before(t.ExpiresAt) {
			t.IsActive = false
			f.tokens[id] = t
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) Submissions(context.Context, string) ([]Submission, error) {
	return f.submissions, nil
}

func (f *fakeStore) Submit(_ context.Context, c cases.Case, sub Submission) (Submission, cases.Case, error) {
	c.ID = "9a1c2b3d-0000-4000-8000-000000000001"
	c.EmployeeID = "anon"
	c.CreatedAt = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	c.CaseCode = cases.CaseCode(c.ID, c.CreatedAt)
	sub.ID = "sub-1"
	sub.RelatedInvestigationID = c.ID
	f.cases = append(f.cases, c)
	f.submissions = append(f.submissions, sub)
	return sub, c, nil
}

type memFiles struct {
	blobs map[string][]byte
}

func (m *memFiles) Put(category, ext string, data []byte) (string, error) {
	key := category + "/img" + ext
	m.blobs[key] = data
	return key, nil
}

func (m *memFiles) Open(key string) ([]byte, error) { return m.blobs[key], nil }

func (m *memFiles) Delete(key string) error {
	delete(m.blobs, key)
	return nil
}

type captureNotifier struct {
	userIDs []string
	ntype   string
}

func (c *captureNotifier) Notify(_ context.Context, userIDs []string, ntype, _, _ string) {
	c.userIDs = userIDs
	c.ntype = ntype
}

type staticRecipients struct {
	roles []string
}

func (s *staticRecipients) UserIDsByRole(_ context.Context, roles ...string) ([]string, error) {
	s.roles = roles
	return []string{"er-1", "admin-1"}, nil
}

func newTestService(allowAnonymous bool) (*Service, *fakeStore, *captureNotifier) {
	store := newFakeStore()
	notifier := &captureNotifier{}
	svc := NewService(store, &memFiles{blobs: map[string][]byte{}}, notifier, &staticRecipients{}, "", 30*24*time.Hour, allowAnonymous)
	return svc, store, notifier
}

func TestGenerateDefaults(t *testing.T) {
	svc, _, _ := newTestService(true)
	tok, err := svc.Generate(context.Background(), GenerateInput{Label: "Canteen"}, "http://localhost:8080", "u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if tok.TargetType != DefaultTargetType || tok.TargetID != "" {
		t.Fatalf("unexpected target: %q %q", tok.TargetType, tok.TargetID)
	}
	if tok.PNGKey == "" {
		t.Fatalf("expected png key")
	}
	if want := "http://localhost:8080/qr/" + tok.Token; tok.PublicURL != want {
		t.Fatalf("public url %q want %q", tok.PublicURL, want)
	}
	if d := time.Until(tok.ExpiresAt); d < 29*24*time.Hour {
		t.Fatalf("expected default ttl, got %v", d)
	}

	if _, err := svc.Generate(context.Background(), GenerateInput{ExpiresInDays: 400}, "", "u1"); !errors.Is(err, ErrInvalidExpiry) {
		t.Fatalf("expected ErrInvalidExpiry, got %v", err)
	}
}

func TestImageRequiresValidToken(t *testing.T) {
	svc, store, _ := newTestService(true)
	tok, err := svc.Generate(context.Background(), GenerateInput{}, "http://x", "u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, data, err := svc.Image(context.Background(), tok.ID); err != nil || len(data) == 0 {
		t.Fatalf("expected image, got %v", err)
	}
	_ = store.Deactivate(context.Background(), tok.ID)
	if _, _, err := svc.Image(context.Background(), tok.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for inactive token, got %v", err)
	}
}

func TestSubmitCreatesComplaintCase(t *testing.T) {
	svc, store, notifier := newTestService(true)
	tok, _ := svc.Generate(context.Background(), GenerateInput{Label: "Warehouse"}, "http://x", "u1")

	res, err := svc.Submit(context.Background(), tok.Token, SubmitInput{Message: "Forklift driving too fast"}, "10.0.0.1")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.SubmissionID != "sub-1" || res.Reference != "C-2026-9A1C" {
		t.Fatalf("unexpected result %+v", res)
	}
	c := store.cases[0]
	if c.CaseType != cases.TypeComplaint || c.Status != cases.StatusOpen {
		t.Fatalf("unexpected case %+v", c)
	}
	if c.Title != "[COMPLAINT] Anonymous - Warehouse" {
		t.Fatalf("title %q", c.Title)
	}
	if store.submissions[0].Category != CategoryComplaint {
		t.Fatalf("category %q", store.submissions[0].Category)
	}
	if len(notifier.userIDs) != 2 {
		t.Fatalf("expected ER and Admin notified, got %v", notifier.userIDs)
	}
}

func TestSubmitRejections(t *testing.T) {
	svc, store, _ := newTestService(true)
	tok, _ := svc.Generate(context.Background(), GenerateInput{}, "http://x", "u1")

	tests := []struct {
		name  string
		token string
		input SubmitInput
		want  error
	}{
		{"unknown token", "nope", SubmitInput{Message: "long enough message"}, ErrInvalidToken},
		{"short message", tok.Token, SubmitInput{Message: "short"}, ErrInvalidMessage},
		{"bad category", tok.Token, SubmitInput{Category: "praise", Message: "long enough message"}, ErrInvalidCategory},
	}
	for _, tt := range tests {
		if _, err := svc.Submit(context.Background(), tt.token, tt.input, ""); !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	expired := store.tokens[tok.ID]
	expired.ExpiresAt = time.Now().Add(-time.Minute)
	store.tokens[tok.ID] = expired
	if _, err := svc.Submit(context.Background(), tok.Token, SubmitInput{Message: "long enough message"}, ""); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected expired token rejected, got %v", err)
	}
	if n, _ := svc.ExpireTokens(context.Background()); n != 1 {
		t.Fatalf("expected 1 expired token, got %d", n)
	}

	disabled, _, _ := newTestService(false)
	if _, err := disabled.Submit(context.Background(), tok.Token, SubmitInput{}, ""); !errors.Is(err, ErrAnonymousDisabled) {
		t.Fatalf("expected ErrAnonymousDisabled, got %v", err)
	}
}
