package employeehandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/employees"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

type Handler struct {
	Service *employees.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *employees.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/", h.handleList)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/search", h.handleSearch)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/factories", h.handleFactories)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/by-employee-id/{employeeCode}", h.handleByCode)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Post("/", h.handleCreate)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}", h.handleGet)
		r.With(middleware.RequirePermission(auth.PermEmployeesWrite, h.Perms)).Put("/{employeeID}", h.handleUpdate)
		r.With(middleware.RequirePermission(auth.PermEmployeesDelete, h.Perms)).Delete("/{employeeID}", h.handleDelete)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}/stats", h.handleStats)
		r.With(middleware.RequirePermission(auth.PermEmployeesRead, h.Perms)).Get("/{employeeID}/history", h.handleHistory)
	})
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	q := r.URL.Query()
	validator := shared.NewValidator()
	validator.Enum("status", q.Get("status"), employees.Statuses, "must be a known employee status")
	if validator.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	status, _ := employees.NormalizeStatus(q.Get("status"))
	if strings.TrimSpace(q.Get("status")) == "" {
		status = ""
	}
	items, total, err := h.Service.List(r.Context(), employees.ListFilter{
		Search:     strings.TrimSpace(q.Get("search")),
		Department: strings.TrimSpace(q.Get("department")),
		Factory:    strings.TrimSpace(q.Get("factory")),
		Status:     status,
	}, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(items, total, page), reqID)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	items, err := h.Service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, items, reqID)
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

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	emp, err := h.Service.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleByCode(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	emp, err := h.Service.ByCode(r.Context(), chi.URLParam(r, "employeeCode"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload employees.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if validateInput(payload).Reject(w, reqID) {
		return
	}
	emp, err := h.Service.Create(r.Context(), payload)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Created(w, emp, reqID)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	var payload employees.Input
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if validateInput(payload).Reject(w, reqID) {
		return
	}
	emp, err := h.Service.Update(r.Context(), id, payload)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.NoContent(w)
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	stats, err := h.Service.Stats(r.Context(), id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, stats, reqID)
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, ok := employeeID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	validator := shared.NewValidator()
	validator.Enum("type", q.Get("type"), []string{employees.HistoryInvestigation, employees.HistoryWarning}, "must be investigation or warning")
	filter := employees.HistoryFilter{Type: strings.ToLower(strings.TrimSpace(q.Get("type")))}
	rng := validator.DateRange(q)
	filter.From, filter.Before = rng.From, rng.Before
	if validator.Reject(w, reqID) {
		return
	}
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	items, total, err := h.Service.History(r.Context(), id, filter, page.Limit, page.Offset)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(items, total, page), reqID)
}

func validateInput(in employees.Input) *shared.Validator {
	validator := shared.NewValidator()
	validator.Required("employeeCode", in.EmployeeCode, "is required")
	validator.Length("employeeCode", in.EmployeeCode, 1, 50)
	validator.Required("name", in.Name, "is required")
	validator.Length("name", in.Name, 2, 200)
	validator.Required("department", in.Department, "is required")
	validator.Length("department", in.Department, 1, 100)
	validator.Required("factory", in.Factory, "is required")
	validator.Length("factory", in.Factory, 1, 100)
	validator.Required("designation", in.Designation, "is required")
	validator.Length("designation", in.Designation, 1, 100)
	validator.Length("email", in.Email, 0, 200)
	validator.Enum("status", in.Status, employees.Statuses, "must be a known employee status")
	return validator
}

func employeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "employeeID")
	if !shared.ValidID(id) {
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return id, true
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, employees.ErrNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, employees.ErrExists):
		api.Fail(w, http.StatusConflict, "employee_exists", "an employee with this code already exists", reqID)
	case errors.Is(err, employees.ErrInvalidStatus):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "status", Reason: "must be a known employee status"}})
	default:
		slog.Error("employee request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "employees_failed", "request failed", reqID)
	}
}
