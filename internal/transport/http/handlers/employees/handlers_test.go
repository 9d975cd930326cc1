package employeehandler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/domain/employees"
)

func TestValidateInput(t *testing.T) {
	valid := employees.Input{EmployeeCode: "E-1", Name: "Ali Hassan", Department: "Ops", Factory: "North", Designation: "Operator"}
	if validateInput(valid).HasIssues() {
		t.Fatalf("expected valid input, got %+v", validateInput(valid).Issues())
	}

	bad := valid
	bad.Name = "A"
	bad.Status = "Retired"
	issues := validateInput(bad).Issues()
	fields := map[string]bool{}
	for _, issue := range issues {
		fields[issue.Field] = true
	}
	if !fields["name"] || !fields["status"] {
		t.Fatalf("expected name and status issues, got %+v", issues)
	}
}

func TestInvalidEmployeeIDIsNotFound(t *testing.T) {
	h := NewHandler(nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/employees/not-a-uuid", nil)
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("employeeID", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()
	h.handleGet(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	h := NewHandler(nil, nil)
	rec := httptest.NewRecorder()
	h.handleCreate(rec, httptest.NewRequest(http.MethodPost, "/api/v1/employees", strings.NewReader(`{"name":""}`)))
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "employeeCode") {
		t.Fatalf("expected validation failure, got %d %s", rec.Code, rec.Body.String())
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{employees.ErrNotFound, http.StatusNotFound},
		{errors.Join(errors.New("create employee"), employees.ErrExists), http.StatusConflict},
		{employees.ErrInvalidStatus, http.StatusBadRequest},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		writeError(rec, tt.err, "")
		if rec.Code != tt.want {
			t.Fatalf("%v: expected %d, got %d", tt.err, tt.want, rec.Code)
		}
	}
}
