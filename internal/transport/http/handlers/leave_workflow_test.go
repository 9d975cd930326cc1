package handlers_test

import (
	"net/http"
	"testing"
	"time"
)

func TestLeaveRequestWorkflow(t *testing.T) {
	ts := newTestServer(t)
	token := login(t, ts)

	start := time.Now().AddDate(0, 0, 14)
	payload := map[string]any{
		"employeeId":   "EMP-LEAVE-1",
		"employeeName": "Leave Tester",
		"type":         "Emergency",
		"startDate":    start.Format("2006-01-02"),
		"endDate":      start.AddDate(0, 0, 2).Format("2006-01-02"),
		"reason":       "Family emergency",
	}
	env := doJSON(t, ts, http.MethodPost, "/api/v1/leaves", token, payload, http.StatusCreated)
	var draft idResponse
	decode(t, env, &draft)
	if draft.Status != "Draft" {
		t.Fatalf("expected Draft, got %q", draft.Status)
	}
	url := "/api/v1/leaves/" + draft.ID

	// Review is only possible once submitted.
	doJSON(t, ts, http.MethodPatch, url+"/review", token, map[string]any{"decision": "approve"}, http.StatusConflict)
	doJSON(t, ts, http.MethodPost, url+"/review", token, map[string]any{"decision": "approve"}, http.StatusMethodNotAllowed)

	env = doJSON(t, ts, http.MethodPost, url+"/submit", token, nil, http.StatusOK)
	var current idResponse
	decode(t, env, &current)
	if current.Status != "Submitted" {
		t.Fatalf("expected Submitted, got %q", current.Status)
	}

	doJSON(t, ts, http.MethodPatch, url+"/review", token, map[string]any{"decision": "reject"}, http.StatusBadRequest)
	env = doJSON(t, ts, http.MethodPatch, url+"/review", token, map[string]any{"decision": "startReview"}, http.StatusOK)
	decode(t, env, &current)
	if current.Status != "UnderReview" {
		t.Fatalf("expected UnderReview, got %q", current.Status)
	}
	env = doJSON(t, ts, http.MethodPatch, url+"/review", token, map[string]any{"decision": "approve", "remark": "Approved"}, http.StatusOK)
	decode(t, env, &current)
	if current.Status != "Approved" {
		t.Fatalf("expected Approved, got %q", current.Status)
	}

	doJSON(t, ts, http.MethodPost, url+"/cancel", token, nil, http.StatusConflict)

	// Sick leave needs a supporting document.
	payload["type"] = "Sick"
	doJSON(t, ts, http.MethodPost, "/api/v1/leaves", token, payload, http.StatusBadRequest)
}
