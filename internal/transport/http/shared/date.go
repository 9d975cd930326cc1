package shared

import (
	"net/url"
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	return time.Parse(time.DateOnly, value)
}

// Range is a created-at window read from list query strings. Before is
// exclusive: a date-only "to" includes the whole day.
type Range struct {
	From   time.Time
	Before time.Time
}

// DateRange reads the from/to query parameters into v.
func (v *Validator) DateRange(q url.Values) Range {
	var rng Range
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		rng.From, _ = v.Date("from", raw)
	}
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		if to, ok := v.Date("to", raw); ok {
			rng.Before = to.Add(time.Nanosecond)
			if len(raw) == len(time.DateOnly) {
				rng.Before = to.AddDate(0, 0, 1)
			}
		}
	}
	if !rng.From.IsZero() && !rng.Before.IsZero() && !rng.From.Before(rng.Before) {
		v.Add("from", "must be on or before to")
	}
	return rng
}

// Through is the inclusive upper bound of the range.
func (r Range) Through() time.Time {
	if r.Before.IsZero() {
		return time.Time{}
	}
	return r.Before.Add(-time.Nanosecond)
}
