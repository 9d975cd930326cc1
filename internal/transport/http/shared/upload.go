package shared

import (
	"errors"
	"mime/multipart"
	"net/http"

	"peopleguard/internal/platform/storage"
	"peopleguard/internal/transport/http/api"
)

const multipartMemory = 8 << 20

var ErrMissingFile = errors.New("multipart field file is required")

// FormFile parses a multipart request and returns the named file part.
func FormFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, nil, storage.ErrTooLarge
		}
		return nil, nil, ErrMissingFile
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, ErrMissingFile
	}
	return file, header, nil
}

// FailUpload writes the response for upload and storage errors. It reports
// false when err is not one of them.
func FailUpload(w http.ResponseWriter, err error, requestID string) bool {
	switch {
	case errors.Is(err, ErrMissingFile):
		FailValidation(w, requestID, []ValidationIssue{{Field: "file", Reason: "is required"}})
	case errors.Is(err, storage.ErrTooLarge):
		api.Fail(w, http.StatusRequestEntityTooLarge, "file_too_large", "file exceeds upload limit", requestID)
	case errors.Is(err, storage.ErrEmpty):
		FailValidation(w, requestID, []ValidationIssue{{Field: "file", Reason: "must not be empty"}})
	case errors.Is(err, storage.ErrInvalidExtension):
		FailValidation(w, requestID, []ValidationIssue{{Field: "file", Reason: "file type not allowed"}})
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrInvalidKey):
		api.Fail(w, http.StatusNotFound, "not_found", "file not found", requestID)
	default:
		return false
	}
	return true
}
