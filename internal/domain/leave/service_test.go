package leave

import (
	"context"
	"errors"
	"testing"
	"time"

	"peopleguard/internal/domain/audit"
)

type fakeStore struct {
	requests map[string]Request
	seq      int
}

func (f *fakeStore) Create(_ context.Context, req Request, atts []AttachmentInput) (Request, error) {
	f.seq++
	req.ID = "leave-" + string(rune('0'+f.seq))
	for _, a := range atts {
		req.Attachments = append(req.Attachments, Attachment{FileID: a.FileID, FileName: a.FileName})
	}
	f.requests[req.ID] = req
	return req, nil
}

func (f *fakeStore) Get(_ context.Context, id string) (Request, error) {
	r, ok := f.requests[id]
	if !ok {
		return Request{}, ErrNotFound
	}
	return r, nil
}

func (f *fakeStore) List(context.Context, ListFilter, int, int) ([]Request, int, error) {
	return nil, 0, nil
}

func (f *fakeStore) UpdateStatus(_ context.Context, id string, from, to Status, review *Review) error {
	r := f.requests[id]
	if r.Status != from {
		return ErrInvalidState
	}
	r.Status = to
	if review != nil {
		r.ReviewedBy = review.UserID
		r.ReviewRemark = review.Remark
	}
	f.requests[id] = r
	return nil
}

type recordedAudit struct {
	actions []string
}

func (r *recordedAudit) Record(_ context.Context, _ audit.Actor, action, entityType, _ string, _, _ any) {
	if entityType == audit.EntityLeaveRequest {
		r.actions = append(r.actions, action)
	}
}

type notifiedUsers struct{ ids []string }

func (n *notifiedUsers) Notify(_ context.Context, ids []string, _, _, _ string) {
	n.ids = append(n.ids, ids...)
}

func newTestService() (*Service, *fakeStore, *recordedAudit, *notifiedUsers) {
	store := &fakeStore{requests: map[string]Request{}}
	rec := &recordedAudit{}
	note := &notifiedUsers{}
	return NewService(store, rec, note), store, rec, note
}

func day(d int) time.Time {
	return time.Date(2026, 2, d, 0, 0, 0, 0, time.UTC)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	cases := []struct {
		name  string
		input CreateInput
		err   error
	}{
		{"reversed dates", CreateInput{Type: TypeEmergency, StartDate: day(5), EndDate: day(3)}, ErrInvalidDates},
		{"sick without file", CreateInput{Type: TypeSick, StartDate: day(1), EndDate: day(2)}, ErrAttachmentRequired},
		{"outside ksa without file", CreateInput{Type: TypeOutsideKSA, StartDate: day(1), EndDate: day(2)}, ErrAttachmentRequired},
		{"unknown type", CreateInput{Type: Type(7), StartDate: day(1), EndDate: day(2)}, ErrInvalidType},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, tc.input, audit.Actor{}); !errors.Is(err, tc.err) {
				t.Fatalf("expected %v, got %v", tc.err, err)
			}
		})
	}
}

func TestLeaveLifecycle(t *testing.T) {
	svc, _, rec, note := newTestService()
	ctx := context.Background()
	admin := audit.Actor{UserID: "admin-1", UserName: "Admin"}
	er := audit.Actor{UserID: "er-1", UserName: "ER"}

	draft, err := svc.Create(ctx, CreateInput{
		EmployeeCode: "E-10", EmployeeName: "Lina", Type: TypeSick,
		StartDate: day(1), EndDate: day(3),
		Attachments: []AttachmentInput{{FileID: "f1", FileName: "note.pdf"}},
	}, admin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if draft.Status != StatusDraft || len(draft.Attachments) != 1 {
		t.Fatalf("expected draft with attachment, got %+v", draft)
	}
	if _, err := svc.Review(ctx, draft.ID, DecisionApprove, "", er); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("draft cannot be approved, got %v", err)
	}

	submitted, err := svc.Submit(ctx, draft.ID, admin)
	if err != nil || submitted.Status != StatusSubmitted {
		t.Fatalf("submit: %v %v", submitted.Status, err)
	}
	if _, err := svc.Submit(ctx, draft.ID, admin); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second submit must fail, got %v", err)
	}

	reviewing, err := svc.Review(ctx, draft.ID, DecisionStartReview, "", er)
	if err != nil || reviewing.Status != StatusUnderReview {
		t.Fatalf("start review: %v %v", reviewing.Status, err)
	}
	if _, err := svc.Review(ctx, draft.ID, DecisionReject, " ", er); !errors.Is(err, ErrRemarkRequired) {
		t.Fatalf("reject without remark, got %v", err)
	}
	approved, err := svc.Review(ctx, draft.ID, DecisionApprove, "ok", er)
	if err != nil || approved.Status != StatusApproved || approved.ReviewedBy != "er-1" {
		t.Fatalf("approve: %+v %v", approved, err)
	}
	if _, err := svc.Cancel(ctx, draft.ID, admin); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("approved request cannot be cancelled, got %v", err)
	}
	if _, err := svc.Review(ctx, draft.ID, DecisionReject, "late", er); !errors.Is(err, ErrFinalized) {
		t.Fatalf("expected ErrFinalized, got %v", err)
	}

	want := []string{"CREATE", "SUBMIT", "REVIEW_STARTREVIEW", "REVIEW_APPROVE"}
	if len(rec.actions) != len(want) {
		t.Fatalf("expected audit actions %v, got %v", want, rec.actions)
	}
	for i := range want {
		if rec.actions[i] != want[i] {
			t.Fatalf("expected audit actions %v, got %v", want, rec.actions)
		}
	}
	if len(note.ids) != 2 || note.ids[0] != "admin-1" {
		t.Fatalf("expected creator notified twice, got %v", note.ids)
	}
}

func TestSubmitOnCreateAndCancel(t *testing.T) {
	svc, _, _, _ := newTestService()
	ctx := context.Background()
	req, err := svc.Create(ctx, CreateInput{Type: TypeEmergency, StartDate: day(4), EndDate: day(4), Submit: true}, audit.Actor{})
	if err != nil || req.Status != StatusSubmitted {
		t.Fatalf("expected submitted, got %v %v", req.Status, err)
	}
	cancelled, err := svc.Cancel(ctx, req.ID, audit.Actor{})
	if err != nil || cancelled.Status != StatusCancelled {
		t.Fatalf("cancel: %v %v", cancelled.Status, err)
	}
	if _, err := svc.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
