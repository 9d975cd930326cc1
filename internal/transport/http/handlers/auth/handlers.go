package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/audit"
	"peopleguard/internal/domain/auth"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

const cookiePath = "/api/v1/auth"

type Auditor interface {
	Record(ctx context.Context, actor audit.Actor, action, entityType, entityID string, before, after any)
}

type Handler struct {
	Service      *auth.Service
	Perms        middleware.PermissionStore
	Audit        Auditor
	CookieName   string
	CookieSecure bool
}

func NewHandler(service *auth.Service, perms middleware.PermissionStore, auditor Auditor, cookieName string, cookieSecure bool) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, CookieName: cookieName, CookieSecure: cookieSecure}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	MFACode  string `json:"mfaCode"`
}

type mfaCodeRequest struct {
	Code string `json:"code"`
}

type activeRequest struct {
	IsActive *bool `json:"isActive"`
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.HandleLogin)
		r.Post("/refresh", h.HandleRefresh)
		r.Post("/logout", h.HandleLogout)
		r.With(middleware.RequireAuth).Get("/me", h.HandleMe)
		r.With(middleware.RequireAuth).Post("/mfa/setup", h.HandleMFASetup)
		r.With(middleware.RequireAuth).Post("/mfa/enable", h.HandleMFAEnable)
		r.With(middleware.RequireAuth).Post("/mfa/disable", h.HandleMFADisable)
		r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Post("/users", h.HandleCreateUser)
		r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Get("/users", h.HandleListUsers)
		r.With(middleware.RequirePermission(auth.PermUsersManage, h.Perms)).Patch("/users/{userID}/active", h.HandleSetActive)
	})
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("email", payload.Email, "is required")
	validator.Required("password", payload.Password, "is required")
	if validator.Reject(w, reqID) {
		return
	}

	session, err := h.Service.Login(r.Context(), payload.Email, payload.Password, payload.MFACode, shared.ClientIP(r))
	if err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	h.setRefreshCookie(w, session.RefreshToken, session.RefreshExpires)
	api.Success(w, session, reqID)
}

func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	cookie, err := r.Cookie(h.CookieName)
	if err != nil || cookie.Value == "" {
		h.clearRefreshCookie(w)
		api.Fail(w, http.StatusUnauthorized, "invalid_refresh", "refresh token missing", reqID)
		return
	}
	session, err := h.Service.Refresh(r.Context(), cookie.Value, shared.ClientIP(r))
	if err != nil {
		h.clearRefreshCookie(w)
		writeAuthError(w, err, reqID)
		return
	}
	h.setRefreshCookie(w, session.RefreshToken, session.RefreshExpires)
	api.Success(w, session, reqID)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(h.CookieName); err == nil && cookie.Value != "" {
		if err := h.Service.Logout(r.Context(), cookie.Value, shared.ClientIP(r)); err != nil {
			slog.Warn("logout refresh revoke failed", "err", err)
		}
	}
	h.clearRefreshCookie(w)
	api.NoContent(w)
}

func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	profile, err := h.Service.Me(r.Context(), user.UserID)
	if err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	api.Success(w, profile, reqID)
}

func (h *Handler) HandleCreateUser(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload auth.CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	validator := shared.NewValidator()
	validator.Required("email", payload.Email, "is required")
	validator.Required("role", payload.Role, "is required")
	validator.Enum("role", payload.Role, auth.Roles, "must be a known role")
	if len(payload.Password) < auth.MinPasswordLength {
		validator.Add("password", "must be at least 8 characters")
	}
	if validator.Reject(w, reqID) {
		return
	}

	created, err := h.Service.CreateUser(r.Context(), payload)
	if err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	h.record(r, user, "CREATE_USER", created.ID, nil, created)
	api.Created(w, created, reqID)
}

func (h *Handler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, shared.DefaultPageSize, shared.MaxPageSize)
	users, total, err := h.Service.ListUsers(r.Context(), page.Limit, page.Offset)
	if err != nil {
		api.Fail(w, http.StatusInternalServerError, "users_list_failed", "failed to list users", reqID)
		return
	}
	shared.WriteTotal(w, total)
	api.Success(w, shared.NewPaged(users, total, page), reqID)
}

func (h *Handler) HandleSetActive(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	userID := chi.URLParam(r, "userID")
	if !shared.ValidID(userID) {
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
		return
	}
	var payload activeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if payload.IsActive == nil {
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "isActive", Reason: "is required"}})
		return
	}
	if userID == user.UserID && !*payload.IsActive {
		api.Fail(w, http.StatusBadRequest, "invalid_request", "cannot deactivate your own account", reqID)
		return
	}
	if err := h.Service.SetUserActive(r.Context(), userID, *payload.IsActive, shared.ClientIP(r)); err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	h.record(r, user, "SET_ACTIVE", userID, nil, map[string]any{"isActive": *payload.IsActive})
	api.Success(w, map[string]any{"id": userID, "isActive": *payload.IsActive}, reqID)
}

func (h *Handler) HandleMFASetup(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	secret, url, err := h.Service.SetupMFA(r.Context(), user.UserID)
	if err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	api.Success(w, map[string]string{"secret": secret, "otpauthUrl": url}, reqID)
}

func (h *Handler) HandleMFAEnable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, true)
}

func (h *Handler) HandleMFADisable(w http.ResponseWriter, r *http.Request) {
	h.handleMFAToggle(w, r, false)
}

func (h *Handler) handleMFAToggle(w http.ResponseWriter, r *http.Request, enabled bool) {
	reqID := middleware.GetRequestID(r.Context())
	user, ok := middleware.GetUser(r.Context())
	if !ok {
		api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", reqID)
		return
	}
	var payload mfaCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if err := h.Service.SetMFA(r.Context(), user.UserID, payload.Code, enabled); err != nil {
		writeAuthError(w, err, reqID)
		return
	}
	status := "disabled"
	if enabled {
		status = "enabled"
	}
	api.Success(w, map[string]string{"status": status}, reqID)
}

func (h *Handler) record(r *http.Request, user auth.UserContext, action, entityID string, before, after any) {
	if h.Audit == nil {
		return
	}
	h.Audit.Record(r.Context(), audit.Actor{
		UserID:    user.UserID,
		UserName:  user.DisplayName(),
		IP:        shared.ClientIP(r),
		RequestID: middleware.GetRequestID(r.Context()),
		Endpoint:  r.URL.Path,
		Method:    r.Method,
	}, action, audit.EntityUser, entityID, before, after)
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    value,
		Path:     cookiePath,
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *Handler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    "",
		Path:     cookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

func writeAuthError(w http.ResponseWriter, err error, reqID string) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", "invalid credentials", reqID)
	case errors.Is(err, auth.ErrMFARequired):
		api.Fail(w, http.StatusUnauthorized, "mfa_required", "mfa code required", reqID)
	case errors.Is(err, auth.ErrMFAInvalid):
		api.Fail(w, http.StatusUnauthorized, "mfa_invalid", "invalid mfa code", reqID)
	case errors.Is(err, auth.ErrMFAUnavailable):
		api.Fail(w, http.StatusBadRequest, "mfa_unavailable", "mfa requires encryption key", reqID)
	case errors.Is(err, auth.ErrInvalidRefresh), errors.Is(err, auth.ErrTokenReuse):
		api.Fail(w, http.StatusUnauthorized, "invalid_refresh", "invalid refresh token", reqID)
	case errors.Is(err, auth.ErrUserNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "user not found", reqID)
	case errors.Is(err, auth.ErrUserExists):
		api.Fail(w, http.StatusConflict, "user_exists", "a user with this email already exists", reqID)
	case errors.Is(err, auth.ErrInvalidRole):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "role", Reason: "must be a known role"}})
	case errors.Is(err, auth.ErrInvalidEmail):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "email", Reason: "must be a valid email address"}})
	case errors.Is(err, auth.ErrWeakPassword):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "password", Reason: "must contain upper, lower and digit characters"}})
	default:
		slog.Error("auth request failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "auth_failed", "request failed", reqID)
	}
}
