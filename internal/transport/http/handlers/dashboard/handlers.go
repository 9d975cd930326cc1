package dashboardhandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/auth"
	"peopleguard/internal/domain/dashboard"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

type Handler struct {
	Service *dashboard.Service
	Perms   middleware.PermissionStore
}

func NewHandler(service *dashboard.Service, perms middleware.PermissionStore) *Handler {
	return &Handler{Service: service, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermDashboardRead, h.Perms)
	r.Route("/dashboard", func(r chi.Router) {
		r.With(read).Get("/", h.handleDashboard)
		r.With(read).Get("/violations-by-factory", h.breakdown(dashboard.DimFactory))
		r.With(read).Get("/violations-by-department", h.breakdown(dashboard.DimDepartment))
		r.With(read).Get("/violations-by-type", h.breakdown(dashboard.DimType))
		r.With(read).Get("/violations-by-outcome", h.breakdown(dashboard.DimOutcome))
		r.With(read).Get("/violations-trend", h.handleTrend)
		r.With(read).Get("/top-violators", h.handleTopViolators)
		r.With(read).Get("/recent-investigations", h.handleRecent)
		r.With(middleware.RequirePermission(auth.PermDashboardExport, h.Perms)).Post("/export", h.handleExport)
	})
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}
	d, err := h.Service.Dashboard(r.Context(), filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, d, reqID)
}

func (h *Handler) breakdown(dim dashboard.Dimension) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetRequestID(r.Context())
		filter, ok := queryFilter(w, r)
		if !ok {
			return
		}
		points, err := h.Service.Breakdown(r.Context(), filter, dim)
		if err != nil {
			writeError(w, err, reqID)
			return
		}
		if points == nil {
			points = []dashboard.ChartPoint{}
		}
		api.Success(w, points, reqID)
	}
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}
	points, err := h.Service.Trend(r.Context(), filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Success(w, points, reqID)
}

func (h *Handler) handleTopViolators(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}
	top, ok := intParam(w, r, "top")
	if !ok {
		return
	}
	items, err := h.Service.TopViolators(r.Context(), filter, top)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []dashboard.Violator{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleRecent(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}
	count, ok := intParam(w, r, "count")
	if !ok {
		return
	}
	items, err := h.Service.Recent(r.Context(), filter, count)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if items == nil {
		items = []dashboard.RecentCase{}
	}
	api.Success(w, items, reqID)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload dashboard.ExportRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("format", payload.Format, "is required")
	validator.Enum("format", payload.Format, []string{dashboard.FormatExcel, dashboard.FormatPDF}, "must be excel or pdf")
	if validator.Reject(w, reqID) {
		return
	}
	filter, err := dashboard.ParseExportFilter(payload)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	export, err := h.Service.Export(r.Context(), payload.Format, filter)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, export.ContentType, export.FileName, export.Data)
}

// queryFilter reads from, to, factory and department from the query string.
func queryFilter(w http.ResponseWriter, r *http.Request) (dashboard.Filter, bool) {
	q := r.URL.Query()
	filter, err := dashboard.ParseExportFilter(dashboard.ExportRequest{
		From:       q.Get("from"),
		To:         q.Get("to"),
		Factory:    q.Get("factory"),
		Department: q.Get("department"),
	})
	if err != nil {
		writeError(w, err, middleware.GetRequestID(r.Context()))
		return dashboard.Filter{}, false
	}
	return filter, true
}

func intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		shared.FailValidation(w, middleware.GetRequestID(r.Context()), []shared.ValidationIssue{{Field: name, Reason: "must be a positive number"}})
		return 0, false
	}
	return n, true
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, dashboard.ErrInvalidDate):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "dateRange", Reason: "dates must be YYYY-MM-DD"}})
	case errors.Is(err, dashboard.ErrInvalidRange):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "from", Reason: "must be on or before to"}})
	case errors.Is(err, dashboard.ErrInvalidFormat):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "format", Reason: "must be excel or pdf"}})
	default:
		slog.Error("dashboard request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "dashboard_failed", "request failed", reqID)
	}
}
