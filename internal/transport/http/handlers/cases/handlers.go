package casehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/cases"
	"peopleguard/internal/domain/letters"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

var sortKeys = []string{"caseid", "employee", "factory", "type", "status", "updated", "created"}

type Handler struct {
	Service *cases.Service
	Letters CaseLetters
	Perms   middleware.PermissionStore
}

func NewHandler(service *cases.Service, letters CaseLetters, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Letters: letters, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermCasesRead, h.Perms)
	write := middleware.RequirePermission(auth.PermCasesWrite, h.Perms)
	r.Route("/cases", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/stats", h.handleStats)
		r.With(read).Get("/factories", h.handleFactories)
		r.With(write).Post("/", h.handleCreate)
		r.With(read).Get("/{caseID}", h.handleGet)
		r.With(write).Put("/{caseID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermCasesDelete, h.Perms)).Delete("/{caseID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermCasesStatus, h.Perms)).Patch("/{caseID}/status", h.handleStatus)
		r.With(write).Post("/{caseID}/outcome", h.handleOutcome)
		r.With(read).Get("/{caseID}/remarks", h.handleListRemarks)
		r.With(write).Post("/{caseID}/remarks", h.handleAddRemark)
		r.With(read).Get("/{caseID}/attachments", h.handleListAttachments)
		r.With(write).Post("/{caseID}/attachments", h.handleUpload)
		r.With(read).Get("/{caseID}/attachments/{attachmentID}/download", h.handleDownload)
		r.With(write).Delete("/{caseID}/attachments/{attachmentID}", h.handleDeleteAttachment)
		r.With(read).Get("/{caseID}/history", h.handleHistory)
		r.With(write).Post("/{caseID}/letters", h.handleDraftLetter)
		r.With(read).Get("/{caseID}/letters", h.handleListLetters)
		r.With(read).Get("/{caseID}/letters/{letterID}/download", h.handleDownloadLetter)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, validator := parseListFilter(r)
	if validator.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	items, total, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(items, total, page), reqID)
}

func parseListFilter(r *http.Request) (cases.ListFilter, *shared.Validator) {
	q := r.URL.Query()
	validator := shared.NewValidator()
	filter := cases.ListFilter{
		Employee: strings.TrimSpace(q.Get("employee")),
		Factory:  strings.TrimSpace(q.Get("factory")),
	}
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t, ok := cases.ParseCaseType(raw)
		if !ok {
			validator.Add("type", "must be a known case type")
		}
		filter.Type = t
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		s, ok := cases.ParseStatus(raw)
		if !ok {
			validator.Add("status", "must be Open, UnderInvestigation or Closed")
		}
		filter.Status = s
	}
	rng := validator.DateRange(q)
	filter.From, filter.Before = rng.From, rng.Before
	validator.Enum("sortBy", q.Get("sortBy"), sortKeys, "must be a sortable column")
	filter.SortBy = strings.TrimSpace(q.Get("sortBy"))
	if raw := q.Get("sortDesc"); raw != "" {
		desc, err := strconv.ParseBool(raw)
		if err != nil {
			validator.Add("sortDesc", "must be true or false")
		}
		filter.SortDesc = desc
	}
	return filter, validator
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	stats, err := h.Service.Stats(r.Context())
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, stats, reqID)
}

func (h *Handler) handleFactories(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	factories, err := h.Service.Factories(r.Context())
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if factories == nil {
		factories = []string{}
	}
	api.Success(w, factories, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var payload cases.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if validateInput(payload).Reject(w, reqID) {
		return
	}
	created, err := h.Service.Create(r.Context(), payload, actorOf(user))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, detail, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	var payload cases.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validateContent(validator, payload)
	if validator.Reject(w, reqID) {
		return
	}
	detail, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, detail, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.NoContent(w)
}

type statusRequest struct {
	Status  cases.Status   `json:"status"`
	Outcome *cases.Outcome `json:"outcome"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	var payload statusRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	if !payload.Status.Valid() {
		validator.Add("status", "must be Open, UnderInvestigation or Closed")
	}
	if payload.Outcome != nil && !payload.Outcome.Valid() {
		validator.Add("outcome", "must be NoAction, VerbalWarning or WrittenWarning")
	}
	if validator.Reject(w, reqID) {
		return
	}
	updated, err := h.Service.ChangeStatus(r.Context(), id, payload.Status, payload.Outcome, actorOf(user))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

type outcomeRequest struct {
	Outcome   cases.Outcome `json:"outcome"`
	FinalNote string        `json:"finalNote"`
}

func (h *Handler) handleOutcome(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	var payload outcomeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	if !payload.Outcome.Valid() {
		validator.Add("outcome", "must be NoAction, VerbalWarning or WrittenWarning")
	}
	validator.Length("finalNote", payload.FinalNote, 0, 2000)
	if validator.Reject(w, reqID) {
		return
	}
	updated, err := h.Service.SetOutcome(r.Context(), id, payload.Outcome, payload.FinalNote, actorOf(user))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, updated, reqID)
}

func (h *Handler) handleListRemarks(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	remarks, err := h.Service.ListRemarks(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if remarks == nil {
		remarks = []cases.Remark{}
	}
	api.Success(w, remarks, reqID)
}

func (h *Handler) handleAddRemark(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Remark string `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("remark", payload.Remark, "is required")
	validator.Length("remark", payload.Remark, 5, 1000)
	if validator.Reject(w, reqID) {
		return
	}
	remark, err := h.Service.AddRemark(r.Context(), id, payload.Remark, actorOf(user))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, remark, reqID)
}

func (h *Handler) handleListAttachments(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	items, err := h.Service.ListAttachments(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []cases.Attachment{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	file, header, err := shared.FormFile(r, "file")
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	defer file.Close()
	att, err := h.Service.AddAttachment(r.Context(), id, header.Filename, file, actorOf(user))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, att, reqID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	attID := chi.URLParam(r, "attachmentID")
	if !shared.ValidID(attID) {
		api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
		return
	}
	att, data, err := h.Service.DownloadAttachment(r.Context(), id, attID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, att.ContentType, att.FileName, data)
}

func (h *Handler) handleDeleteAttachment(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	attID := chi.URLParam(r, "attachmentID")
	if !shared.ValidID(attID) {
		api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
		return
	}
	if err := h.Service.DeleteAttachment(r.Context(), id, attID, actorOf(user)); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := caseID(w, r)
	if !ok {
		return
	}
	entries, err := h.Service.History(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if entries == nil {
		entries = []cases.HistoryEntry{}
	}
	api.Success(w, entries, reqID)
}

func validateInput(in cases.Input) *shared.Validator {
	validator := shared.NewValidator()
	validator.ID("employeeId", in.EmployeeID, "must be a valid employee id")
	validateContent(validator, in)
	return validator
}

// validateContent checks the editable fields shared by create and update.
func validateContent(v *shared.Validator, in cases.Input) {
	v.Required("title", in.Title, "is required")
	v.Length("title", in.Title, 5, 200)
	v.Required("description", in.Description, "is required")
	v.Length("description", in.Description, 10, 2000)
	if !in.CaseType.Valid() {
		v.Add("caseType", "must be a known case type")
	}
}

func requireUser(w http.ResponseWriter, r *http.Request) (auth.UserContext, bool) {
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", middleware.GetRequestID(r.Context()))
		return auth.UserContext{}, false
	}
	return user, true
}

func actorOf(user auth.UserContext) cases.Actor {
	return cases.Actor{UserID: user.UserID, Name: user.DisplayName()}
}

func caseID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "caseID")
	if !shared.ValidID(id) {
		api.Fail(w, http.StatusNotFound, "not_found", "case not found", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	if shared.FailUpload(w, err, reqID) {
		return
	}
	switch {
	case errors.Is(err, cases.ErrNotFound), errors.Is(err, letters.ErrCaseNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "case not found", reqID)
	case errors.Is(err, letters.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "letter not found", reqID)
	case errors.Is(err, cases.ErrAttachmentNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "attachment not found", reqID)
	case errors.Is(err, cases.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "employee_not_found", "employee not found", reqID)
	case errors.Is(err, cases.ErrInvalidTransition):
		api.Fail(w, http.StatusBadRequest, "invalid_transition", "status transition is not allowed", reqID)
	case errors.Is(err, cases.ErrOutcomeRequired):
		api.Fail(w, http.StatusBadRequest, "outcome_required", "an outcome is required to close a case", reqID)
	case errors.Is(err, cases.ErrCaseClosed), errors.Is(err, letters.ErrCaseClosed):
		api.Fail(w, http.StatusBadRequest, "case_closed", "case is closed", reqID)
	case errors.Is(err, cases.ErrInvalidOutcome):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "outcome", Reason: "must be NoAction, VerbalWarning or WrittenWarning"}})
	case errors.Is(err, letters.ErrHTMLRequired):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "html", Reason: "is required for the manual template"}})
	case errors.Is(err, cases.ErrInvalidRemark):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "remark", Reason: "must be between 5 and 1000 characters"}})
	default:
		slog.Error("case request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "cases_failed", "request failed", reqID)
	}
}
