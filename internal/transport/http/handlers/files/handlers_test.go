package filehandler

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/platform/crypto"
	"peopleguard/internal/platform/storage"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	c, err := crypto.New(strings.Repeat("2b", 32))
	if err != nil {
		t.Fatalf("crypto: %v", err)
	}
	h := NewHandler(storage.New(t.TempDir(), 1024, c))
	r := chi.NewRouter()
	r.Post("/files", h.handleUpload)
	r.Get("/files/{fileID}", h.handleDownload)
	r.Delete("/files/{fileID}", h.handleDelete)
	return r
}

func multipartBody(t *testing.T, name, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	part.Write([]byte(content))
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestUploadDownloadDelete(t *testing.T) {
	r := newRouter(t)
	body, ct := multipartBody(t, "medical.txt", "doctor note")
	req := httptest.NewRequest(http.MethodPost, "/files", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d %s", rec.Code, rec.Body.String())
	}
	var env struct {
		Data uploadResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Data.FileName != "medical.txt" || env.Data.Size != 11 || env.Data.URL != "/api/v1/files/"+env.Data.FileID {
		t.Fatalf("unexpected upload response %+v", env.Data)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+env.Data.FileID, nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "doctor note" {
		t.Fatalf("download: got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/files/"+env.Data.FileID, nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rec.Code)
	}
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+env.Data.FileID, nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rec.Code)
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name     string
		fileName string
		content  string
		want     int
	}{
		{"disallowed extension", "run.exe", "MZ", http.StatusBadRequest},
		{"empty", "blank.txt", "", http.StatusBadRequest},
		{"too large", "big.txt", strings.Repeat("a", 2048), http.StatusRequestEntityTooLarge},
	}
	r := newRouter(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.fileName, tt.content)
			req := httptest.NewRequest(http.MethodPost, "/files", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Fatalf("expected %d, got %d %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestDownloadRejectsTraversal(t *testing.T) {
	r := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/..%2Fwarnings%2Fx.pdf", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}
