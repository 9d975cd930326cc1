package cases

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"peopleguard/internal/domain/notifications"
	"peopleguard/internal/platform/storage"
)

const attachmentCategory = "cases"

type Notifier interface {
	Notify(ctx context.Context, userIDs []string, ntype, title, body string)
}

type TransitionRecorder interface {
	CaseTransition(from, to string)
}

// FileStore is the subset of platform storage used for attachments.
type FileStore interface {
	Save(ctx context.Context, category, fileName string, r io.Reader, allowed []string) (storage.Object, error)
	Open(key string) ([]byte, error)
	Delete(key string) error
}

type Service struct {
	store    StoreAPI
	Files    FileStore
	Notifier Notifier
	Metrics  TransitionRecorder
}

func NewService(store StoreAPI, files FileStore, notifier Notifier, metrics TransitionRecorder) *Service {
	return &Service{store: store, Files: files, Notifier: notifier, Metrics: metrics}
}

func (s *Service) Create(ctx context.Context, input Input, actor Actor) (Case, error) {
	exists, err := s.store.EmployeeExists(ctx, input.EmployeeID)
	if err != nil {
		return Case{}, err
	}
	if !exists {
		return Case{}, ErrEmployeeNotFound
	}
	created, err := s.store.Create(ctx, Case{
		EmployeeID:  input.EmployeeID,
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		CaseType:    input.CaseType,
		Status:      StatusOpen,
		CreatedBy:   actor.UserID,
	}, actor)
	if err != nil {
		return Case{}, fmt.Errorf("create case: %w", err)
	}
	slog.Info("case created", "caseId", created.ID, "caseType", created.CaseType.String(), "userId", actor.UserID)
	return created, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) ([]ListItem, int, error) {
	return s.store.List(ctx, filter, limit, offset)
}

func (s *Service) Stats(ctx context.Context) (Stats, error) {
	return s.store.Stats(ctx)
}

func (s *Service) Get(ctx context.Context, caseID string) (Detail, error) {
	return s.store.Detail(ctx, caseID)
}

func (s *Service) Update(ctx context.Context, caseID string, input Input) (Detail, error) {
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Detail{}, err
	}
	if current.Status == StatusClosed {
		return Detail{}, ErrCaseClosed
	}
	input.Title = strings.TrimSpace(input.Title)
	input.Description = strings.TrimSpace(input.Description)
	if err := s.store.Update(ctx, caseID, input); err != nil {
		return Detail{}, err
	}
	return s.store.Detail(ctx, caseID)
}

func (s *Service) Delete(ctx context.Context, caseID string) error {
	return s.store.SoftDelete(ctx, caseID)
}

func (s *Service) Factories(ctx context.Context) ([]string, error) {
	return s.store.Factories(ctx)
}

// ChangeStatus applies a status transition. A request for the current status
// returns the case untouched.
func (s *Service) ChangeStatus(ctx context.Context, caseID string, to Status, outcome *Outcome, actor Actor) (Case, error) {
	if outcome != nil && !outcome.Valid() {
		return Case{}, ErrInvalidOutcome
	}
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	noop, err := CheckTransition(current.Status, to, current.Outcome != nil || outcome != nil)
	if err != nil {
		return Case{}, err
	}
	if noop {
		return current, nil
	}

	entries := []HistoryEntry{{
		InvestigationID: caseID,
		UserID:          actor.UserID,
		EventType:       EventStatusChanged,
		Description:     statusChangeDescription(current.Status, to),
		OldValue:        current.Status.String(),
		NewValue:        to.String(),
	}}
	if outcome != nil {
		old := ""
		if current.Outcome != nil {
			old = current.Outcome.String()
		}
		entries = append(entries, HistoryEntry{
			InvestigationID: caseID,
			UserID:          actor.UserID,
			EventType:       EventOutcomeSet,
			Description:     outcomeDescription(*outcome, ""),
			OldValue:        old,
			NewValue:        outcome.String(),
		})
	}
	change := StatusChange{From: current.Status, To: to, Outcome: outcome}
	if err := s.store.ApplyStatus(ctx, caseID, change, entries); err != nil {
		return Case{}, err
	}

	if s.Metrics != nil {
		s.Metrics.CaseTransition(current.Status.String(), to.String())
	}
	slog.Info("case status changed", "caseId", caseID, "from", current.Status.String(), "to", to.String(), "userId", actor.UserID)
	if s.Notifier != nil && current.CreatedBy != "" && current.CreatedBy != actor.UserID {
		s.Notifier.Notify(ctx, []string{current.CreatedBy}, notifications.TypeCaseStatusChanged,
			"Case "+current.CaseCode+" updated",
			statusChangeDescription(current.Status, to)+".")
	}
	return s.store.Get(ctx, caseID)
}

func (s *Service) SetOutcome(ctx context.Context, caseID string, outcome Outcome, note string, actor Actor) (Case, error) {
	if !outcome.Valid() {
		return Case{}, ErrInvalidOutcome
	}
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Case{}, err
	}
	if current.Status == StatusClosed {
		return Case{}, ErrCaseClosed
	}
	old := ""
	if current.Outcome != nil {
		old = current.Outcome.String()
	}
	if err := s.store.SetOutcome(ctx, caseID, outcome, HistoryEntry{
		InvestigationID: caseID,
		UserID:          actor.UserID,
		EventType:       EventOutcomeSet,
		Description:     outcomeDescription(outcome, note),
		OldValue:        old,
		NewValue:        outcome.String(),
	}); err != nil {
		return Case{}, err
	}
	return s.store.Get(ctx, caseID)
}

func (s *Service) ListRemarks(ctx context.Context, caseID string) ([]Remark, error) {
	if _, err := s.store.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListRemarks(ctx, caseID)
}

func (s *Service) AddRemark(ctx context.Context, caseID, text string, actor Actor) (Remark, error) {
	text = strings.TrimSpace(text)
	if !validRemark(text) {
		return Remark{}, ErrInvalidRemark
	}
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Remark{}, err
	}
	if current.Status == StatusClosed {
		return Remark{}, ErrCaseClosed
	}
	remark, err := s.store.AddRemark(ctx, Remark{InvestigationID: caseID, UserID: actor.UserID, Remark: text})
	if err != nil {
		return Remark{}, err
	}
	remark.UserName = actor.Name
	return remark, nil
}

func (s *Service) ListAttachments(ctx context.Context, caseID string) ([]Attachment, error) {
	if _, err := s.store.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ListAttachments(ctx, caseID)
}

// AddAttachment stores the upload and links it to an open case. The blob is
// removed again when the database write fails.
func (s *Service) AddAttachment(ctx context.Context, caseID, fileName string, r io.Reader, actor Actor) (Attachment, error) {
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Attachment{}, err
	}
	if current.Status == StatusClosed {
		return Attachment{}, ErrCaseClosed
	}
	obj, err := s.Files.Save(ctx, attachmentCategory, fileName, r, storage.CaseExtensions)
	if err != nil {
		return Attachment{}, err
	}
	att, err := s.store.AddAttachment(ctx, Attachment{
		InvestigationID: caseID,
		FileName:        obj.FileName,
		StorageKey:      obj.Key,
		ContentType:     storage.ContentTypeFor(obj.FileName, nil),
		FileSize:        obj.Size,
		UploadedBy:      actor.UserID,
	})
	if err != nil {
		if delErr := s.Files.Delete(obj.Key); delErr != nil {
			slog.Warn("orphaned attachment cleanup failed", "key", obj.Key, "err", delErr)
		}
		return Attachment{}, err
	}
	slog.Info("case attachment added", "caseId", caseID, "attachmentId", att.ID, "size", att.FileSize)
	return att, nil
}

func (s *Service) DownloadAttachment(ctx context.Context, caseID, attachmentID string) (Attachment, []byte, error) {
	att, err := s.store.GetAttachment(ctx, caseID, attachmentID)
	if err != nil {
		return Attachment{}, nil, err
	}
	data, err := s.Files.Open(att.StorageKey)
	if err != nil {
		return Attachment{}, nil, err
	}
	return att, data, nil
}

func (s *Service) DeleteAttachment(ctx context.Context, caseID, attachmentID string, actor Actor) error {
	current, err := s.store.Get(ctx, caseID)
	if err != nil {
		return err
	}
	if current.Status == StatusClosed {
		return ErrCaseClosed
	}
	att, err := s.store.DeleteAttachment(ctx, caseID, attachmentID, actor.UserID)
	if err != nil {
		return err
	}
	if err := s.Files.Delete(att.StorageKey); err != nil {
		slog.Warn("attachment blob delete failed", "attachmentId", att.ID, "err", err)
	}
	return nil
}

func (s *Service) History(ctx context.Context, caseID string) ([]HistoryEntry, error) {
	if _, err := s.store.Get(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.History(ctx, caseID)
}
