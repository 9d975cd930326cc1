package leave

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"peopleguard/internal/domain/audit"
	"peopleguard/internal/domain/notifications"
)

type Auditor interface {
	Record(ctx context.Context, actor audit.Actor, action, entityType, entityID string, before, after any)
}

type Notifier interface {
	Notify(ctx context.Context, userIDs []string, ntype, title, body string)
}

type Service struct {
	store    StoreAPI
	Audit    Auditor
	Notifier Notifier
}

func NewService(store StoreAPI, auditor Auditor, notifier Notifier) *Service {
	return &Service{store: store, Audit: auditor, Notifier: notifier}
}

func (s *Service) record(ctx context.Context, actor audit.Actor, action, id string, before, after any) {
	if s.Audit != nil {
		s.Audit.Record(ctx, actor, action, audit.EntityLeaveRequest, id, before, after)
	}
}

func (s *Service) Create(ctx context.Context, input CreateInput, actor audit.Actor) (Request, error) {
	if !input.Type.Valid() {
		return Request{}, ErrInvalidType
	}
	if input.EndDate.Before(input.StartDate) {
		return Request{}, ErrInvalidDates
	}
	if RequiresAttachment(input.Type) && len(input.Attachments) == 0 {
		return Request{}, ErrAttachmentRequired
	}
	status := StatusDraft
	if input.Submit {
		status = StatusSubmitted
	}
	created, err := s.store.Create(ctx, Request{
		EmployeeCode:  strings.TrimSpace(input.EmployeeCode),
		EmployeeName:  strings.TrimSpace(input.EmployeeName),
		Type:          input.Type,
		Status:        status,
		StartDate:     input.StartDate,
		EndDate:       input.EndDate,
		Reason:        strings.TrimSpace(input.Reason),
		CreatedBy:     actor.UserID,
		CreatedByName: actor.UserName,
	}, input.Attachments)
	if err != nil {
		return Request{}, fmt.Errorf("create leave request: %w", err)
	}
	s.record(ctx, actor, "CREATE", created.ID, nil, created)
	slog.Info("leave request created", "leaveId", created.ID, "type", created.Type.String(), "status", created.Status.String())
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (Request, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]Request, int, error) {
	return s.store.List(ctx, filter, limit, offset)
}

func (s *Service) Submit(ctx context.Context, id string, actor audit.Actor) (Request, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if before.Status != StatusDraft {
		return Request{}, ErrInvalidState
	}
	return s.transition(ctx, before, StatusSubmitted, nil, "SUBMIT", actor)
}

// Review applies a reviewer decision and notifies the request's creator.
func (s *Service) Review(ctx context.Context, id, decision, remark string, actor audit.Actor) (Request, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	next, err := NextStatus(before.Status, decision, remark)
	if err != nil {
		return Request{}, err
	}
	review := &Review{UserID: actor.UserID, UserName: actor.UserName, Remark: strings.TrimSpace(remark)}
	after, err := s.transition(ctx, before, next, review, "REVIEW_"+strings.ToUpper(strings.TrimSpace(decision)), actor)
	if err != nil {
		return Request{}, err
	}
	if s.Notifier != nil && before.CreatedBy != "" {
		s.Notifier.Notify(ctx, []string{before.CreatedBy}, notifications.TypeLeaveReviewed,
			"Leave request "+after.Status.String(),
			fmt.Sprintf("%s leave for %s (%s) is now %s.", after.Type, after.EmployeeName, after.EmployeeCode, after.Status))
	}
	return after, nil
}

func (s *Service) Cancel(ctx context.Context, id string, actor audit.Actor) (Request, error) {
	before, err := s.store.Get(ctx, id)
	if err != nil {
		return Request{}, err
	}
	if !CanCancel(before.Status) {
		return Request{}, ErrInvalidState
	}
	return s.transition(ctx, before, StatusCancelled, nil, "CANCEL", actor)
}

func (s *Service) transition(ctx context.Context, before Request, to Status, review *Review, action string, actor audit.Actor) (Request, error) {
	if err := s.store.UpdateStatus(ctx, before.ID, before.Status, to, review); err != nil {
		return Request{}, err
	}
	after, err := s.store.Get(ctx, before.ID)
	if err != nil {
		return Request{}, err
	}
	s.record(ctx, actor, action, before.ID, before, after)
	slog.Info("leave status changed", "leaveId", before.ID, "from", before.Status.String(), "to", to.String(), "userId", actor.UserID)
	return after, nil
}
