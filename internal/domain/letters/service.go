package letters

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peopleguard/internal/domain/cases"
)

type FileStore interface {
	Put(category, ext string, data []byte) (string, error)
	Open(key string) ([]byte, error)
	Delete(key string) error
}

type Service struct {
	store StoreAPI
	Files FileStore
	// Dir is the storage category rendered letters are kept under.
	Dir string
	now func() time.Time
}

func NewService(store StoreAPI, files FileStore, dir string) *Service {
	if dir == "" {
		dir = "warnings"
	}
	return &Service{store: store, Files: files, Dir: dir, now: time.Now}
}

// Issue renders and stores a warning letter for a closed case.
func (s *Service) Issue(ctx context.Context, input IssueInput, issuedBy string) (Letter, error) {
	if !input.Outcome.IsWarning() {
		return Letter{}, ErrInvalidOutcome
	}
	info, err := s.store.CaseInfo(ctx, input.InvestigationID)
	if err != nil {
		return Letter{}, err
	}
	if info.Status != cases.StatusClosed {
		return Letter{}, ErrCaseNotClosed
	}

	reason := strings.TrimSpace(input.Reason)
	issuedAt := s.now().UTC()
	data, err := RenderPDF(info, input.Outcome, reason, issuedAt)
	if err != nil {
		return Letter{}, err
	}
	letter, err := s.persist(ctx, data, Letter{
		InvestigationID: info.ID,
		CaseCode:        cases.CaseCode(info.ID, info.CreatedAt),
		EmployeeID:      info.EmployeeID,
		EmployeeName:    info.EmployeeName,
		EmployeeCode:    info.EmployeeCode,
		Outcome:         input.Outcome,
		Template:        TemplateStandard,
		Reason:          reason,
		IssuedBy:        issuedBy,
	}, RequireClosed)
	if err != nil {
		return Letter{}, err
	}
	slog.Info("warning letter issued", "letterId", letter.ID, "caseId", info.ID, "outcome", input.Outcome.String())
	return letter, nil
}

// Draft generates a letter for a case that is still open or under
// investigation. Drafts carry NoAction so they never count as warnings.
func (s *Service) Draft(ctx context.Context, caseID string, input DraftInput, issuedBy string) (Letter, error) {
	template := NormalizeTemplate(input.Template)
	body := strings.TrimSpace(input.HTML)
	if template == TemplateManual && body == "" {
		return Letter{}, ErrHTMLRequired
	}
	info, err := s.store.CaseInfo(ctx, caseID)
	if err != nil {
		return Letter{}, err
	}
	if info.Status == cases.StatusClosed {
		return Letter{}, ErrCaseClosed
	}

	issuedAt := s.now().UTC()
	var data []byte
	if template == TemplateManual {
		data, err = RenderManualPDF(info, body, issuedAt)
	} else {
		body = info.Description
		data, err = RenderCaseLetterPDF(info, issuedAt)
	}
	if err != nil {
		return Letter{}, err
	}
	letter, err := s.persist(ctx, data, Letter{
		InvestigationID: info.ID,
		CaseCode:        cases.CaseCode(info.ID, info.CreatedAt),
		EmployeeID:      info.EmployeeID,
		EmployeeName:    info.EmployeeName,
		EmployeeCode:    info.EmployeeCode,
		Outcome:         cases.OutcomeNoAction,
		Template:        template,
		Reason:          body,
		IssuedBy:        issuedBy,
	}, RequireActive)
	if err != nil {
		return Letter{}, err
	}
	slog.Info("case letter generated", "letterId", letter.ID, "caseId", info.ID, "template", template)
	return letter, nil
}

// persist stores the rendered document and then the letter row. The blob is
// removed again when the insert fails.
func (s *Service) persist(ctx context.Context, data []byte, letter Letter, req CaseRequirement) (Letter, error) {
	key, err := s.Files.Put(s.Dir, ".pdf", data)
	if err != nil {
		return Letter{}, fmt.Errorf("store warning letter: %w", err)
	}
	letter.StorageKey = key
	stored, err := s.store.Insert(ctx, letter, req)
	if err != nil {
		if delErr := s.Files.Delete(key); delErr != nil {
			slog.Warn("orphaned letter cleanup failed", "key", key, "err", delErr)
		}
		return Letter{}, err
	}
	return stored, nil
}

func (s *Service) List(ctx context.Context) ([]Letter, error) {
	return s.store.List(ctx)
}

func (s *Service) ByInvestigation(ctx context.Context, caseID string) ([]Letter, error) {
	if _, err := s.store.CaseInfo(ctx, caseID); err != nil {
		return nil, err
	}
	return s.store.ByInvestigation(ctx, caseID)
}

func (s *Service) PDF(ctx context.Context, id string) (Letter, []byte, error) {
	letter, err := s.store.Get(ctx, id)
	if err != nil {
		return Letter{}, nil, err
	}
	data, err := s.Files.Open(letter.StorageKey)
	if err != nil {
		return Letter{}, nil, err
	}
	return letter, data, nil
}

// CaseLetterPDF returns a letter only when it belongs to caseID.
func (s *Service) CaseLetterPDF(ctx context.Context, caseID, letterID string) (Letter, []byte, error) {
	letter, err := s.store.Get(ctx, letterID)
	if err != nil {
		return Letter{}, nil, err
	}
	if letter.InvestigationID != caseID {
		return Letter{}, nil, ErrNotFound
	}
	data, err := s.Files.Open(letter.StorageKey)
	if err != nil {
		return Letter{}, nil, err
	}
	return letter, data, nil
}

func FileName(l Letter) string {
	return fmt.Sprintf("warning-letter-%s.pdf", strings.ToLower(l.CaseCode))
}
