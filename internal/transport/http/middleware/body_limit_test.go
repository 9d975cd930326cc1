package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimit(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		size        int
		wantErr     bool
	}{
		{name: "json under limit", contentType: "application/json", size: 10},
		{name: "json over limit", contentType: "application/json", size: 200, wantErr: true},
		{name: "multipart uses upload limit", contentType: "multipart/form-data; boundary=x", size: 200},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var readErr error
			handler := BodyLimit(100, 1000)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, readErr = io.ReadAll(r.Body)
			}))
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(strings.Repeat("a", tc.size)))
			req.Header.Set("Content-Type", tc.contentType)
			handler.ServeHTTP(httptest.NewRecorder(), req)
			if (readErr != nil) != tc.wantErr {
				t.Fatalf("read error = %v, wantErr %v", readErr, tc.wantErr)
			}
		})
	}
}
