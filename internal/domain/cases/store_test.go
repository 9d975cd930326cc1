package cases

import (
	"reflect"
	"testing"
	"time"
)

func TestBuildListWhere(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name   string
		filter ListFilter
		clause string
		args   []any
	}{
		{"no filters", ListFilter{}, " WHERE NOT i.is_deleted", []any{}},
		{
			"employee reuses one placeholder",
			ListFilter{Employee: " E-100 "},
			" WHERE NOT i.is_deleted AND (e.employee_code ILIKE '%' || $1 || '%' OR e.name ILIKE '%' || $1 || '%')",
			[]any{"E-100"},
		},
		{
			"factory and status",
			ListFilter{Factory: "North", Status: StatusOpen},
			" WHERE NOT i.is_deleted AND lower(e.factory) = lower($1) AND i.status = $2",
			[]any{"North", int(StatusOpen)},
		},
		{
			"all filters number in order",
			ListFilter{Employee: "Sara", Factory: "South", Type: TypeSafety, Status: StatusClosed, From: from, Before: before},
			" WHERE NOT i.is_deleted AND (e.employee_code ILIKE '%' || $1 || '%' OR e.name ILIKE '%' || $1 || '%')" +
				" AND lower(e.factory) = lower($2) AND i.case_type = $3 AND i.status = $4" +
				" AND i.created_at >= $5 AND i.created_at < $6",
			[]any{"Sara", "South", int(TypeSafety), int(StatusClosed), from, before},
		},
		{"blank strings are ignored", ListFilter{Employee: "  ", Factory: "\t"}, " WHERE NOT i.is_deleted", []any{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := buildListWhere(tt.filter)
			if clause != tt.clause {
				t.Fatalf("clause mismatch\n got: %s\nwant: %s", clause, tt.clause)
			}
			if !reflect.DeepEqual(args, tt.args) {
				t.Fatalf("args mismatch: got %#v want %#v", args, tt.args)
			}
		})
	}
}
