package audit

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

var auditedRoutes = []struct {
	segment string
	entity  string
}{
	{"/employees", EntityEmployee},
	{"/cases", EntityInvestigation},
	{"/warningletters", EntityWarningLetter},
	{"/leaves", EntityLeaveRequest},
}

// ShouldAudit reports whether a request is a mutation on an audited route.
func ShouldAudit(method, path string) bool {
	switch strings.ToUpper(method) {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
	default:
		return false
	}
	return EntityTypeFromPath(path) != EntityUnknown
}

func EntityTypeFromPath(path string) string {
	lower := strings.ToLower(path)
	for _, route := range auditedRoutes {
		if strings.Contains(lower, route.segment) {
			return route.entity
		}
	}
	return EntityUnknown
}

// EntityIDFromPath returns the last UUID segment of path.
func EntityIDFromPath(path string) string {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i := len(segments) - 1; i >= 0; i-- {
		if _, err := uuid.Parse(segments[i]); err == nil && len(segments[i]) == 36 {
			return segments[i]
		}
	}
	return EntityUnknown
}

func OutcomeNote(status int) string {
	if status >= http.StatusBadRequest {
		return "Request failed with status " + strconv.Itoa(status)
	}
	return "Request processed successfully"
}
