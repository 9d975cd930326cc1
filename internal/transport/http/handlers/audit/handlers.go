package audithandler

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/audit"
	"peopleguard/internal/domain/auth"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
	Perms   middleware.PermissionStore
	// RetentionDays applies when cleanup is called without retentionDays.
	RetentionDays int
}

func NewHandler(service *audit.Service, perms middleware.PermissionStore, retentionDays int) *Handler {
	return &Handler{Service: service, Perms: perms, RetentionDays: retentionDays}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermAuditRead, h.Perms)
	r.Route("/auditlogs", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(read).Get("/export", h.handleExport)
		r.With(read).Get("/entity/{entityType}/{entityID}", h.handleByEntity)
		r.With(read).Get("/user/{userID}", h.handleByUser)
		r.With(middleware.RequirePermission(auth.PermAuditCleanup, h.Perms)).Delete("/cleanup", h.handleCleanup)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, validator := parseFilter(r)
	if validator.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	entries, total, err := h.Service.List(r.Context(), filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(entries, total, page), reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, validator := parseFilter(r)
	if validator.Reject(w, reqID) {
		return
	}
	var buf bytes.Buffer
	rows, err := h.Service.Export(r.Context(), filter, &buf)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	slog.Info("audit logs exported", "rows", rows, "requestId", reqID)
	name := fmt.Sprintf("audit-logs-%s.csv", time.Now().UTC().Format("20060102-150405"))
	api.Binary(w, "text/csv; charset=utf-8", name, buf.Bytes())
}

func (h *Handler) handleByEntity(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	entries, err := h.Service.ByEntity(r.Context(), chi.URLParam(r, "entityType"), chi.URLParam(r, "entityID"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	api.Success(w, entries, reqID)
}

func (h *Handler) handleByUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Success(w, []audit.Entry{}, reqID)
		return
	}
	entries, err := h.Service.ByUser(r.Context(), userID)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if entries == nil {
		entries = []audit.Entry{}
	}
	api.Success(w, entries, reqID)
}

func (h *Handler) handleCleanup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	days := h.RetentionDays
	if raw := strings.TrimSpace(r.URL.Query().Get("retentionDays")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "retentionDays", Reason: "must be a whole number of days"}})
			return
		}
		days = parsed
	}
	deleted, err := h.Service.Cleanup(r.Context(), days, middleware.AuditActor(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, map[string]any{"deleted": deleted, "retentionDays": days}, reqID)
}

// parseFilter reads the list filters. A date-only to covers the whole day.
func parseFilter(r *http.Request) (audit.Filter, *shared.Validator) {
	q := r.URL.Query()
	validator := shared.NewValidator()
	filter := audit.Filter{
		UserName:   strings.TrimSpace(q.Get("userName")),
		Action:     strings.TrimSpace(q.Get("action")),
		EntityType: strings.TrimSpace(q.Get("entityType")),
	}
	rng := validator.DateRange(q)
	filter.From, filter.To = rng.From, rng.Through()
	return filter, validator
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, audit.ErrInvalidRetention):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "retentionDays", Reason: "must be at least 1"}})
	default:
		slog.Error("audit request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "audit_failed", "request failed", reqID)
	}
}
