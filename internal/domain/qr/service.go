package qr

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/cases"
	"peopleguard/internal/domain/notifications"
)

const imageCategory = "qr"

type FileStore interface {
	Put(category, ext string, data []byte) (string, error)
	Open(key string) ([]byte, error)
	Delete(key string) error
}

type Notifier interface {
	Notify(ctx context.Context, userIDs []string, ntype, title, body string)
}

// Recipients resolves the users notified about new submissions.
type Recipients interface {
	UserIDsByRole(ctx context.Context, roles ...string) ([]string, error)
}

type Service struct {
	store          StoreAPI
	Files          FileStore
	Notifier       Notifier
	Recipients     Recipients
	BaseURL        string
	TTL            time.Duration
	AllowAnonymous bool
	now            func() time.Time
}

func NewService(store StoreAPI, files FileStore, notifier Notifier, recipients Recipients, baseURL string, ttl time.Duration, allowAnonymous bool) *Service {
	return &Service{
		store:          store,
		Files:          files,
		Notifier:       notifier,
		Recipients:     recipients,
		BaseURL:        baseURL,
		TTL:            ttl,
		AllowAnonymous: allowAnonymous,
		now:            time.Now,
	}
}

// Generate creates a token and stores its PNG. requestBase is used when no
// public base URL is configured.
func (s *Service) Generate(ctx context.Context, input GenerateInput, requestBase, createdBy string) (Token, error) {
	ttl := s.TTL
	if input.ExpiresInDays != 0 {
		if input.ExpiresInDays < 1 || input.ExpiresInDays > maxExpiry {
			return Token{}, ErrInvalidExpiry
		}
		ttl = time.Duration(input.ExpiresInDays) * 24 * time.Hour
	}
	raw, err := NewToken()
	if err != nil {
		return Token{}, err
	}
	image, err := EncodePNG(PublicURL(s.base(requestBase), raw), ImageSize)
	if err != nil {
		return Token{}, err
	}
	key, err := s.Files.Put(imageCategory, ".png", image)
	if err != nil {
		return Token{}, fmt.Errorf("store qr image: %w", err)
	}

	targetType := strings.TrimSpace(input.TargetType)
	if targetType == "" {
		targetType = DefaultTargetType
	}
	created, err := s.store.Create(ctx, Token{
		Token:      raw,
		TargetType: targetType,
		TargetID:   strings.TrimSpace(input.TargetID),
		Label:      strings.TrimSpace(input.Label),
		ExpiresAt:  s.now().Add(ttl),
		CreatedBy:  createdBy,
		PNGKey:     key,
	})
	if err != nil {
		if delErr := s.Files.Delete(key); delErr != nil {
			slog.Warn("qr image cleanup failed", "key", key, "err", delErr)
		}
		return Token{}, fmt.Errorf("create qr token: %w", err)
	}
	slog.Info("qr token generated", "qrTokenId", created.ID, "targetType", created.TargetType, "userId", createdBy)
	return s.decorate(created, requestBase), nil
}

func (s *Service) List(ctx context.Context, limit, offset int, requestBase string) ([]Token, int, error) {
	items, total, err := s.store.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	for i := range items {
		items[i] = s.decorate(items[i], requestBase)
	}
	return items, total, nil
}

func (s *Service) Get(ctx context.Context, id, requestBase string) (Token, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Token{}, err
	}
	return s.decorate(t, requestBase), nil
}

// Image returns the stored PNG of an active, unexpired token.
func (s *Service) Image(ctx context.Context, id string) (Token, []byte, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return Token{}, nil, err
	}
	if !t.Valid(s.now()) || t.PNGKey == "" {
		return Token{}, nil, ErrNotFound
	}
	data, err := s.Files.Open(t.PNGKey)
	if err != nil {
		return Token{}, nil, err
	}
	return t, data, nil
}

func ImageFileName(t Token) string {
	name := t.Label
	if name == "" {
		name = t.TargetID
	}
	if name == "" {
		name = t.ID
	}
	return "qr-" + name + ".png"
}

func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.store.Deactivate(ctx, id)
}

func (s *Service) Submissions(ctx context.Context, id string) ([]Submission, error) {
	if _, err := s.store.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Submissions(ctx, id)
}

func (s *Service) Public(ctx context.Context, raw string) (PublicInfo, error) {
	t, err := s.validToken(ctx, raw)
	if err != nil {
		return PublicInfo{}, err
	}
	return PublicInfo{Label: t.Label, TargetType: t.TargetType, ExpiresAt: t.ExpiresAt}, nil
}

// Submit files an anonymous submission as a new complaint case.
func (s *Service) Submit(ctx context.Context, raw string, input SubmitInput, ip string) (SubmitResult, error) {
	if !s.AllowAnonymous {
		return SubmitResult{}, ErrAnonymousDisabled
	}
	t, err := s.validToken(ctx, raw)
	if err != nil {
		return SubmitResult{}, err
	}
	category, err := NormalizeCategory(input.Category)
	if err != nil {
		return SubmitResult{}, err
	}
	if !validMessage(input.Message) {
		return SubmitResult{}, ErrInvalidMessage
	}

	sub, created, err := s.store.Submit(ctx, cases.Case{
		Title:       CaseTitle(category, input.SubmitterName, t),
		Description: CaseDescription(input),
		CaseType:    cases.TypeComplaint,
		Status:      cases.StatusOpen,
	}, Submission{
		TokenID:        t.ID,
		Category:       category,
		Message:        strings.TrimSpace(input.Message),
		SubmitterName:  strings.TrimSpace(input.SubmitterName),
		SubmitterEmail: strings.TrimSpace(input.SubmitterEmail),
		SubmitterPhone: strings.TrimSpace(input.SubmitterPhone),
		AttachmentURLs: input.AttachmentURLs,
		IPAddress:      ip,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("qr submit: %w", err)
	}
	slog.Info("qr submission received", "qrTokenId", t.ID, "submissionId", sub.ID, "caseId", created.ID, "category", category)
	s.notify(ctx, category, created)
	return SubmitResult{SubmissionID: sub.ID, CaseID: created.ID, Reference: created.CaseCode}, nil
}

// ExpireTokens deactivates tokens past their expiry.
func (s *Service) ExpireTokens(ctx context.Context) (int64, error) {
	return s.store.ExpireTokens(ctx, s.now())
}

func (s *Service) validToken(ctx context.Context, raw string) (Token, error) {
	if strings.TrimSpace(raw) == "" {
		return Token{}, ErrInvalidToken
	}
	t, err := s.store.ByToken(ctx, raw)
	if errors.Is(err, ErrNotFound) {
		return Token{}, ErrInvalidToken
	}
	if err != nil {
		return Token{}, err
	}
	if !t.Valid(s.now()) {
		return Token{}, ErrInvalidToken
	}
	return t, nil
}

func (s *Service) notify(ctx context.Context, category string, c cases.Case) {
	if s.Notifier == nil || s.Recipients == nil {
		return
	}
	userIDs, err := s.Recipients.UserIDsByRole(ctx, auth.RoleAdmin, auth.RoleER)
	if err != nil {
		slog.Warn("qr submission recipients lookup failed", "caseId", c.ID, "err", err)
		return
	}
	s.Notifier.Notify(ctx, userIDs, notifications.TypeQRSubmission,
		"New QR submission",
		fmt.Sprintf("A new %s was submitted and filed as case %s.", strings.ReplaceAll(category, "_", " "), c.CaseCode))
}

func (s *Service) base(requestBase string) string {
	if s.BaseURL != "" {
		return s.BaseURL
	}
	return requestBase
}

func (s *Service) decorate(t Token, requestBase string) Token {
	t.PublicURL = PublicURL(s.base(requestBase), t.Token)
	t.ImageURL = "/api/v1/qr/" + t.ID + "/image"
	return t
}
