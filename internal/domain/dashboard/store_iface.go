package dashboard

import (
	"context"
	"time"
)

type StoreAPI interface {
	Totals(ctx context.Context, filter Filter, activeSince time.Time) (Totals, error)
	Breakdown(ctx context.Context, filter Filter, dimension Dimension) ([]ChartPoint, error)
	MonthlyCounts(ctx context.Context, filter Filter, since time.Time) (map[string]int, error)
	TopViolators(ctx context.Context, filter Filter, limit int) ([]Violator, error)
	Recent(ctx context.Context, filter Filter, limit int) ([]RecentCase, error)
}
