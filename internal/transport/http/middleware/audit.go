package middleware

import (
	"context"
	"net/http"
	"time"

	"peopleguard/internal/domain/audit"
	"peopleguard/internal/transport/http/shared"
)

type AuditWriter interface {
	Write(ctx context.Context, entry audit.Entry)
}

// Audit records mutating requests on audited routes once the handler returns.
func Audit(writer AuditWriter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if writer == nil || !audit.ShouldAudit(r.Method, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(recorder, r)

			entry := audit.Entry{
				UserName:   audit.UnknownUser,
				EntityType: audit.EntityTypeFromPath(r.URL.Path),
				EntityID:   audit.EntityIDFromPath(r.URL.Path),
				Action:     r.Method,
				Endpoint:   r.URL.Path,
				HTTPMethod: r.Method,
				StatusCode: recorder.status,
				IPAddress:  shared.ClientIP(r),
				DurationMs: time.Since(start).Milliseconds(),
				Notes:      audit.OutcomeNote(recorder.status),
				RequestID:  GetRequestID(r.Context()),
			}
			if user, ok := GetUser(r.Context()); ok {
				entry.UserID = user.UserID
				entry.UserName = user.DisplayName()
			}
			writer.Write(context.WithoutCancel(r.Context()), entry)
		})
	}
}

// AuditActor describes the caller of r for explicitly recorded changes.
func AuditActor(r *http.Request) audit.Actor {
	actor := audit.Actor{
		UserName:  audit.UnknownUser,
		IP:        shared.ClientIP(r),
		RequestID: GetRequestID(r.Context()),
		Endpoint:  r.URL.Path,
		Method:    r.Method,
	}
	if user, ok := GetUser(r.Context()); ok {
		actor.UserID = user.UserID
		actor.UserName = user.DisplayName()
	}
	return actor
}
