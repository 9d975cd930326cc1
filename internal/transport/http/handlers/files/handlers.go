package filehandler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"peopleguard/internal/platform/storage"
	"peopleguard/internal/transport/http/api"
	"peopleguard/internal/transport/http/middleware"
	"peopleguard/internal/transport/http/shared"
)

const category = "files"

// Blobs is the subset of the file store used by general uploads.
type Blobs interface {
	Save(ctx context.Context, category, fileName string, r io.Reader, allowed []string) (storage.Object, error)
	Open(key string) ([]byte, error)
	Delete(key string) error
}

type Handler struct {
	Files Blobs
}

type uploadResponse struct {
	FileID      string `json:"fileId"`
	URL         string `json:"url"`
	FileName    string `json:"fileName"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
}

func NewHandler(files Blobs) *Handler {
	return &Handler{Files: files}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/files", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Post("/", h.handleUpload)
		r.Get("/{fileID}", h.handleDownload)
		r.Delete("/{fileID}", h.handleDelete)
	})
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	file, header, err := shared.FormFile(r, "file")
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	defer file.Close()
	obj, err := h.Files.Save(r.Context(), category, header.Filename, file, storage.FileExtensions)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	id := storage.FileID(obj.Key)
	slog.Info("file uploaded", "fileId", id, "size", obj.Size, "requestId", reqID)
	api.Created(w, uploadResponse{
		FileID:      id,
		URL:         "/api/v1/files/" + id,
		FileName:    obj.FileName,
		Size:        obj.Size,
		ContentType: obj.ContentType,
	}, reqID)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "fileID")
	key, err := storage.KeyFor(category, id)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	data, err := h.Files.Open(key)
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	api.Binary(w, storage.ContentTypeFor(id, data), id, data)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	key, err := storage.KeyFor(category, chi.URLParam(r, "fileID"))
	if err != nil {
		writeError(w, err, reqID)
		return
	}
	if err := h.Files.Delete(key); err != nil {
		writeError(w, err, reqID)
		return
	}
	api.NoContent(w)
}

func writeError(w http.ResponseWriter, err error, reqID string) {
	if shared.FailUpload(w, err, reqID) {
		return
	}
	slog.Error("file request failed", "err", err, "requestId", reqID)
	api.Fail(w, http.StatusInternalServerError, "files_failed", "request failed", reqID)
}
