package dashboard

import (
	"errors"
	"testing"
	"time"
)

func TestRiskLevel(t *testing.T) {
	tests := []struct {
		written, letters, cases int
		want                    string
	}{
		{0, 0, 1, RiskLow},
		{0, 0, 5, RiskMedium},
		{1, 1, 3, RiskMedium},
		{2, 2, 1, RiskHigh},
		{3, 3, 2, RiskCritical},
	}
	for _, tt := range tests {
		score := RiskScore(tt.written, tt.letters, tt.cases)
		if got := RiskLevel(score); got != tt.want {
			t.Fatalf("RiskLevel(%v) = %s, want %s", score, got, tt.want)
		}
	}
	if got := RiskScore(1, 2, 3); got != 9 {
		t.Fatalf("expected score 9, got %v", got)
	}
}

func TestWithPercentages(t *testing.T) {
	points := withPercentages([]ChartPoint{{Label: "A", Value: 2}, {Label: "B", Value: 1}})
	if points[0].Percentage != 66.67 || points[1].Percentage != 33.33 {
		t.Fatalf("unexpected percentages %+v", points)
	}
	empty := withPercentages([]ChartPoint{{Label: "A"}})
	if empty[0].Percentage != 0 {
		t.Fatalf("expected zero percentage")
	}
}

func TestFillTrend(t *testing.T) {
	now := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	trend := fillTrend(map[string]int{"02/2026": 4, "03/2025": 1}, now)
	if len(trend) != 12 {
		t.Fatalf("expected 12 months, got %d", len(trend))
	}
	if trend[0].Month != "03/2025" || trend[0].Count != 1 {
		t.Fatalf("unexpected first month %+v", trend[0])
	}
	if last := trend[11]; last.Month != "02/2026" || last.Count != 4 {
		t.Fatalf("unexpected last month %+v", last)
	}
	if trend[5].Count != 0 {
		t.Fatalf("expected zero filled month, got %+v", trend[5])
	}
}

func TestParseExportFilter(t *testing.T) {
	f, err := ParseExportFilter(ExportRequest{From: "2026-01-01", To: "2026-01-31", Factory: " North "})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !f.To.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) || f.Factory != "North" {
		t.Fatalf("unexpected filter %+v", f)
	}
	if _, err := ParseExportFilter(ExportRequest{From: "2026-02-01", To: "2026-01-01"}); err != ErrInvalidRange {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
	if _, err := ParseExportFilter(ExportRequest{From: "01/02/2026"}); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected date error")
	}
}
