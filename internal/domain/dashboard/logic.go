package dashboard

import (
	"fmt"
	"math"
	"time"
)

const (
	RiskCritical = "Critical"
	RiskHigh     = "High"
	RiskMedium   = "Medium"
	RiskLow      = "Low"

	DefaultTop    = 10
	DefaultRecent = 10
	maxListSize   = 100
	trendMonths   = 12
	activeWindow  = 30 * 24 * time.Hour
)

// RiskScore weighs written warnings by 3, letters by 1.5 and cases by 1.
func RiskScore(writtenWarnings, letters, cases int) float64 {
	return float64(writtenWarnings)*3 + float64(letters)*1.5 + float64(cases)
}

func RiskLevel(score float64) string {
	switch {
	case score >= 15:
		return RiskCritical
	case score >= 10:
		return RiskHigh
	case score >= 5:
		return RiskMedium
	default:
		return RiskLow
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// withPercentages fills Percentage as each value's share of the total.
func withPercentages(points []ChartPoint) []ChartPoint {
	total := 0
	for _, p := range points {
		total += p.Value
	}
	for i := range points {
		if total > 0 {
			points[i].Percentage = round2(float64(points[i].Value) / float64(total) * 100)
		}
	}
	return points
}

func monthLabel(t time.Time) string {
	return fmt.Sprintf("%02d/%d", int(t.Month()), t.Year())
}

// fillTrend returns the trendMonths months ending with now's month, oldest
// first, with months lacking cases reported as zero.
func fillTrend(counts map[string]int, now time.Time) []TrendPoint {
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	out := make([]TrendPoint, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		label := monthLabel(start.AddDate(0, i, 0))
		out = append(out, TrendPoint{Month: label, Count: counts[label]})
	}
	return out
}

func clampSize(n, def int) int {
	if n <= 0 {
		return def
	}
	if n > maxListSize {
		return maxListSize
	}
	return n
}
