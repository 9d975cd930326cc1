package letterhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/letters"
	"peopleguard/internal/platform/storage"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

type Handler struct {
	Service *letters.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *letters.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermLettersRead, h.Perms)
	r.Route("/warningletters", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLettersIssue, h.Perms)).Post("/", h.handleIssue)
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/by-investigation/{caseID}", h.handleByInvestigation)
		r.With(read).Get("/{letterID}/pdf", h.handlePDF)
	})
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload letters.IssueInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if validateIssue(payload).Reject(w, reqID) {
		return
	}
	letter, err := h.Service.Issue(r.Context(), payload, user.UserID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, letter, reqID)
}

func validateIssue(in letters.IssueInput) *shared.Validator {
	validator := shared.NewValidator()
	validator.ID("investigationId", in.InvestigationID, "must be a valid case id")
	if !in.Outcome.IsWarning() {
		validator.Add("outcome", "must be VerbalWarning or WrittenWarning")
	}
	validator.Required("reason", in.Reason, "is required")
	validator.Length("reason", in.Reason, 1, 2000)
	return validator
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, err := h.Service.List(r.Context())
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []letters.Letter{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleByInvestigation(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	caseID := chi.URLParam(r, "caseID")
	if !shared.ValidID(caseID) {
		api.Fail(w, http.StatusNotFound, "not_found", "case not found", reqID)
		return
	}
	items, err := h.Service.ByInvestigation(r.Context(), caseID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []letters.Letter{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handlePDF(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "letterID")
	if !shared.ValidID(id) {
		api.Fail(w, http.StatusNotFound, "not_found", "warning letter not found", reqID)
		return
	}
	letter, data, err := h.Service.PDF(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, "application/pdf", letters.FileName(letter), data)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, letters.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "warning letter not found", reqID)
	case errors.Is(err, letters.ErrCaseNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "case not found", reqID)
	case errors.Is(err, letters.ErrCaseNotClosed):
		api.Fail(w, http.StatusBadRequest, "case_not_closed", "warning letters can only be issued for closed cases", reqID)
	case errors.Is(err, letters.ErrInvalidOutcome):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "outcome", Reason: "must be VerbalWarning or WrittenWarning"}})
	default:
		slog.Error("warning letter request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "letters_failed", "request failed", reqID)
	}
}
