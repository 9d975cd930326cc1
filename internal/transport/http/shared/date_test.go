package shared

import (
	"net/url"
	"testing"
	"time"
)

func TestDateRange(t *testing.T) {
	tests := []struct {
		query      string
		from       time.Time
		before     time.Time
		wantIssues bool
	}{
		{"", time.Time{}, time.Time{}, false},
		{"from=2026-01-01&to=2026-01-31", time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), false},
		{"to=2026-03-01T10:00:00Z", time.Time{}, time.Date(2026, 3, 1, 10, 0, 0, 1, time.UTC), false},
		{"from=2026-02-01&to=2026-01-01", time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), true},
		{"from=yesterday", time.Time{}, time.Time{}, true},
	}
	for _, tc := range tests {
		q, err := url.ParseQuery(tc.query)
		if err != nil {
			t.Fatalf("parse %q: %v", tc.query, err)
		}
		v := NewValidator()
		rng := v.DateRange(q)
		if !rng.From.Equal(tc.from) || !rng.Before.Equal(tc.before) {
			t.Fatalf("%q: unexpected range %+v", tc.query, rng)
		}
		if v.HasIssues() != tc.wantIssues {
			t.Fatalf("%q: expected issues=%v, got %+v", tc.query, tc.wantIssues, v.Issues())
		}
	}
}

func TestRangeThrough(t *testing.T) {
	if !(Range{}).Through().IsZero() {
		t.Fatal("expected open range to have no upper bound")
	}
	r := Range{Before: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)}
	if want := time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC); !r.Through().Equal(want) {
		t.Fatalf("expected %v, got %v", want, r.Through())
	}
}
