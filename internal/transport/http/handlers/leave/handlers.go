package leavehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/leave"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

const maxLeaveAttachments = 5

type Handler struct {
	Service *leave.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *leave.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/leaves", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermLeavesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermLeavesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermLeavesRead, h.Perms)).Get("/{requestID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermLeavesWrite, h.Perms)).Post("/{requestID}/submit", h.handleSubmit)
		r.With(middleware.RequirePermission(auth.PermLeavesReview, h.Perms)).Patch("/{requestID}/review", h.handleReview)
		r.With(middleware.RequirePermission(auth.PermLeavesWrite, h.Perms)).Post("/{requestID}/cancel", h.handleCancel)
	})
}

type createRequest struct {
	EmployeeID   string                  `json:"employeeId"`
	EmployeeName string                  `json:"employeeName"`
	Type         leave.Type              `json:"type"`
	StartDate    string                  `json:"startDate"`
	EndDate      string                  `json:"endDate"`
	Reason       string                  `json:"reason"`
	Attachments  []leave.AttachmentInput `json:"attachments"`
	Submit       bool                    `json:"submit"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	if _, ok := middleware.GetUser(r.Context()); !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload createRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	input, validator := parseCreate(payload)
	if validator.Reject(w, reqID) {
		return
	}
	created, err := h.Service.Create(r.Context(), input, middleware.AuditActor(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, created, reqID)
}

func parseCreate(payload createRequest) (leave.CreateInput, *shared.Validator) {
	validator := shared.NewValidator()
	validator.Required("employeeId", payload.EmployeeID, "is required")
	validator.Length("employeeId", payload.EmployeeID, 1, 50)
	validator.Required("employeeName", payload.EmployeeName, "is required")
	validator.Length("employeeName", payload.EmployeeName, 1, 200)
	validator.Length("reason", payload.Reason, 0, 1000)
	if !payload.Type.Valid() {
		validator.Add("type", "must be Emergency, Sick or OutsideKSA")
	}
	start, startOK := validator.Date("startDate", payload.StartDate)
	end, endOK := validator.Date("endDate", payload.EndDate)
	if startOK && endOK {
		validator.DateOrder("startDate", start, "endDate", end)
	}
	validator.MaxItems("attachments", len(payload.Attachments), maxLeaveAttachments)
	for _, att := range payload.Attachments {
		if strings.TrimSpace(att.FileID) == "" || strings.TrimSpace(att.FileName) == "" {
			validator.Add("attachments", "each attachment needs fileId and fileName")
			break
		}
	}
	return leave.CreateInput{
		EmployeeCode: payload.EmployeeID,
		EmployeeName: payload.EmployeeName,
		Type:         payload.Type,
		StartDate:    start,
		EndDate:      end,
		Reason:       payload.Reason,
		Attachments:  payload.Attachments,
		Submit:       payload.Submit,
	}, validator
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	validator := shared.NewValidator()
	filter := leave.ListFilter{Employee: strings.TrimSpace(q.Get("employeeId"))}
	if raw := strings.TrimSpace(q.Get("type")); raw != "" {
		t, ok := leave.ParseType(raw)
		if !ok {
			validator.Add("type", "must be Emergency, Sick or OutsideKSA")
		}
		filter.Type = t
	}
	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		s, ok := leave.ParseStatus(raw)
		if !ok {
			validator.Add("status", "must be a known leave status")
		}
		filter.Status = s
	}
	if raw := q.Get("from"); raw != "" {
		filter.From, _ = validator.Date("from", raw)
	}
	if raw := q.Get("to"); raw != "" {
		filter.To, _ = validator.Date("to", raw)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() {
		validator.DateOrder("from", filter.From, "to", filter.To)
	}
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Submit(r.Context(), id, middleware.AuditActor(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleReview(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	var payload struct {
		Decision string `json:"decision"`
		Remark   string `json:"remark"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("decision", payload.Decision, "is required")
	validator.Enum("decision", payload.Decision, leave.Decisions, "must be startReview, approve or reject")
	validator.Length("remark", payload.Remark, 0, 1000)
	if strings.EqualFold(strings.TrimSpace(payload.Decision), leave.DecisionReject) {
		validator.Required("remark", payload.Remark, "is required to reject")
	}
	if validator.Reject(w, reqID) {
		return
	}
	req, err := h.Service.Review(r.Context(), id, strings.ToLower(strings.TrimSpace(payload.Decision)), payload.Remark, middleware.AuditActor(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func (h *Handler) handleCancel(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := requestID(w, r)
	if !ok {
		return
	}
	req, err := h.Service.Cancel(r.Context(), id, middleware.AuditActor(r))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, req, reqID)
}

func requestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "requestID")
	if !shared.ValidID(id) {
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, leave.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "leave request not found", reqID)
	case errors.Is(err, leave.ErrInvalidState):
		api.Fail(w, http.StatusConflict, "invalid_state", "leave request is not in a state that allows this action", reqID)
	case errors.Is(err, leave.ErrFinalized):
		api.Fail(w, http.StatusConflict, "finalized", "leave request is finalized", reqID)
	case errors.Is(err, leave.ErrAttachmentRequired):
		api.FailWithDetails(w, http.StatusBadRequest, "attachment_required", "sick and outside-KSA leave need at least one attachment",
			map[string]any{"fields": []shared.ValidationIssue{{Field: "attachments", Reason: "is required"}}}, reqID)
	case errors.Is(err, leave.ErrInvalidDates):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "endDate", Reason: "must be on or after startDate"}})
	case errors.Is(err, leave.ErrRemarkRequired):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "remark", Reason: "is required to reject"}})
	case errors.Is(err, leave.ErrInvalidDecision):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "decision", Reason: "must be startReview, approve or reject"}})
	case errors.Is(err, leave.ErrInvalidType):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "type", Reason: "must be Emergency, Sick or OutsideKSA"}})
	default:
		slog.Error("leave request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "leave_failed", "request failed", reqID)
	}
}
