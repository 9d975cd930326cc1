package qrhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/qr"
	"peopleguard/internal/platform/storage"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

const submitEndpoint = "qr.submit"

// Idempotency replays responses for repeated public submissions.
type Idempotency interface {
	Reserve(ctx context.Context, scope, endpoint, key, requestHash string) (json.RawMessage, bool, error)
	Save(ctx context.Context, scope, endpoint, key, requestHash string, response json.RawMessage) error
	Release(ctx context.Context, scope, endpoint, key string) error
}

type Handler struct {
	Service *qr.Service
	Perms   middleware.PermissionStore
	Idem    Idempotency
}

func NewHandler(service *qr.Service, perms middleware.PermissionStore, idem Idempotency) *Handler {
	return &Handler{Service: service, Perms: perms, Idem: idem}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	manage := middleware.RequirePermission(auth.PermQRManage, h.Perms)
	r.Route("/qr", func(r chi.Router) {
		r.With(manage).Post("/generate", h.handleGenerate)
		r.With(manage).Get("/", h.handleList)
		r.With(manage).Get("/{tokenID}", h.handleGet)
		r.With(manage).Get("/{tokenID}/image", h.handleImage)
		r.With(manage).Post("/{tokenID}/deactivate", h.handleDeactivate)
		r.With(manage).Get("/{tokenID}/submissions", h.handleSubmissions)
	})
	r.Route("/public/qr/{token}", func(r chi.Router) {
		r.Get("/", h.handlePublic)
		r.Post("/submit", h.handleSubmit)
	})
}

func (h *Handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload qr.GenerateInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Length("targetType", payload.TargetType, 0, 50)
	validator.Length("targetId", payload.TargetID, 0, 100)
	validator.Length("label", payload.Label, 0, 200)
	if payload.ExpiresInDays < 0 || payload.ExpiresInDays > 365 {
		validator.Add("expiresInDays", "must be between 1 and 365")
	}
	if validator.Reject(w, reqID) {
		return
	}
	token, err := h.Service.Generate(r.Context(), payload, requestBase(r), user.UserID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, token, reqID)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	items, total, err := h.Service.List(r.Context(), page.Limit, page.Offset, requestBase(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(items, total, page), reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	token, err := h.Service.Get(r.Context(), id, requestBase(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, token, reqID)
}

func (h *Handler) handleImage(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	token, data, err := h.Service.Image(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, "image/png", qr.ImageFileName(token), data)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Deactivate(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := tokenID(w, r)
	if !ok {
		return
	}
	items, err := h.Service.Submissions(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []qr.Submission{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handlePublic(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	info, err := h.Service.Public(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, info, reqID)
}

// handleSubmit accepts an anonymous submission. The Idempotency-Key is
// reserved before the case is created; a repeat with the same body replays
// the first response, or gets 409 while the first is still running.
func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	token := chi.URLParam(r, "token")
	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	var payload qr.SubmitInput
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if validateSubmit(payload).Reject(w, reqID) {
		return
	}

	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	hash := middleware.RequestHash(body)
	reserved := false
	if key != "" && h.Idem != nil {
		stored, found, err := h.Idem.Reserve(r.Context(), token, submitEndpoint, key, hash)
		switch {
		case errors.Is(err, middleware.ErrIdempotencyConflict):
			api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different request", reqID)
			return
		case errors.Is(err, middleware.ErrIdempotencyInFlight):
			api.Fail(w, http.StatusConflict, "idempotency_in_progress", "a request with this idempotency key is still running", reqID)
			return
		case err != nil:
			slog.Warn("idempotency reserve failed", "err", err, "requestId", reqID)
		case found:
			api.Created(w, stored, reqID)
			return
		default:
			reserved = true
		}
	}

	result, err := h.Service.Submit(r.Context(), token, payload, shared.ClientIP(r))
	if err != nil {
		if reserved {
			if rerr := h.Idem.Release(r.Context(), token, submitEndpoint, key); rerr != nil {
				slog.Warn("idempotency release failed", "err", rerr, "requestId", reqID)
			}
		}
		writeError(w, err, reqID)
		return
	}
	if reserved {
		encoded, err := json.Marshal(result)
		if err == nil {
			err = h.Idem.Save(r.Context(), token, submitEndpoint, key, hash, encoded)
		}
		if err != nil {
			slog.Warn("idempotency save failed", "err", err, "requestId", reqID)
		}
	}
	api.Created(w, result, reqID)
}

func validateSubmit(in qr.SubmitInput) *shared.Validator {
	validator := shared.NewValidator()
	validator.Enum("category", in.Category, qr.Categories, "must be complaint, suggestion or safety_concern")
	validator.Required("message", in.Message, "is required")
	validator.Length("message", in.Message, 10, 4000)
	validator.Length("submitterName", in.SubmitterName, 0, 200)
	validator.Length("submitterEmail", in.SubmitterEmail, 0, 200)
	validator.Length("submitterPhone", in.SubmitterPhone, 0, 50)
	validator.MaxItems("attachmentUrls", len(in.AttachmentURLs), 10)
	return validator
}

func tokenID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "tokenID")
	if !shared.ValidID(id) {
		api.Fail(w, http.StatusNotFound, "not_found", "qr token not found", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

// requestBase is the scheme and host the request arrived on.
func requestBase(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "http" || proto == "https" {
		scheme = proto
	}
	return scheme + "://" + r.Host
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, qr.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "qr token not found", reqID)
	case errors.Is(err, qr.ErrInvalidToken):
		api.Fail(w, http.StatusBadRequest, "invalid_token", qr.ErrInvalidToken.Error(), reqID)
	case errors.Is(err, qr.ErrAnonymousDisabled):
		api.Fail(w, http.StatusUnauthorized, "anonymous_disabled", "anonymous submissions are disabled", reqID)
	case errors.Is(err, qr.ErrInvalidCategory):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "category", Reason: "must be complaint, suggestion or safety_concern"}})
	case errors.Is(err, qr.ErrInvalidMessage):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "message", Reason: "must be between 10 and 4000 characters"}})
	case errors.Is(err, qr.ErrInvalidExpiry):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "expiresInDays", Reason: "must be between 1 and 365"}})
	default:
		slog.Error("qr request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "qr_failed", "request failed", reqID)
	}
}
