package casehandler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/cases"
	"peopleguard/internal/domain/letters"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

// CaseLetters drafts and serves the letters attached to a case.
type CaseLetters interface {
	Draft(ctx context.Context, caseID string, input letters.DraftInput, issuedBy string) (letters.Letter, error)
	ByInvestigation(ctx context.Context, caseID string) ([]letters.Letter, error)
	CaseLetterPDF(ctx context.Context, caseID, letterID string) (letters.Letter, []byte, error)
}

type caseLetter struct {
	ID       string        `json:"id"`
	Template string        `json:"template"`
	Outcome  cases.Outcome `json:"outcome"`
	IssuedAt time.Time     `json:"issuedAt"`
	PDFURL   string        `json:"pdfUrl"`
}

func letterURL(caseID, letterID string) string {
	return "/api/v1/cases/" + caseID + "/letters/" + letterID + "/download"
}

func (h *Handler) handleDraftLetter(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	var payload letters.DraftInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil && !errors.Is(err, io.EOF) {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Enum("template", payload.Template, []string{letters.TemplateStandard, letters.TemplateManual}, "must be standard or manual")
	validator.Length("html", payload.HTML, 0, 20000)
	if validator.Reject(w, reqID) {
		return
	}
	letter, err := h.Letters.Draft(r.Context(), id, payload, user.UserID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, map[string]string{"letterId": letter.ID, "pdfUrl": letterURL(id, letter.ID)}, reqID)
}

func (h *Handler) handleListLetters(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	items, err := h.Letters.ByInvestigation(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	out := make([]caseLetter, 0, len(items))
	for _, l := range items {
		out = append(out, caseLetter{ID: l.ID, Template: l.Template, Outcome: l.Outcome, IssuedAt: l.IssuedAt, PDFURL: letterURL(id, l.ID)})
	}
	api.Success(w, out, reqID)
}

func (h *Handler) handleDownloadLetter(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	letterID := chi.URLParam(r, "letterID")
	if !shared.ValidID(letterID) {
		api.Fail(w, http.StatusNotFound, "not_found", "letter not found", reqID)
		return
	}
	letter, data, err := h.Letters.CaseLetterPDF(r.Context(), id, letterID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, "application/pdf", letters.FileName(letter), data)
}
