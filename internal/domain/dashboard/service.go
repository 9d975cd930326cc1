package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const exportCaseRows = 5000

type Service struct {
	store StoreAPI
	now   func() time.Time
}

func NewService(store StoreAPI) *Service {
	return &Service{store: store, now: time.Now}
}

func (s *Service) Dashboard(ctx context.Context, filter Filter) (Dashboard, error) {
	totals, err := s.store.Totals(ctx, filter, s.now().Add(-activeWindow))
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{
		TotalViolations:         totals.TotalViolations,
		ActiveInvestigations:    totals.ActiveInvestigations,
		WarningLetters:          totals.WarningLetters,
		TotalEmployees:          totals.TotalEmployees,
		EmployeesWithViolations: totals.EmployeesWithViolations,
	}
	if d.ByFactory, err = s.Breakdown(ctx, filter, DimFactory); err != nil {
		return Dashboard{}, err
	}
	if d.ByDepartment, err = s.Breakdown(ctx, filter, DimDepartment); err != nil {
		return Dashboard{}, err
	}
	if d.ByType, err = s.Breakdown(ctx, filter, DimType); err != nil {
		return Dashboard{}, err
	}
	if d.ByOutcome, err = s.Breakdown(ctx, filter, DimOutcome); err != nil {
		return Dashboard{}, err
	}
	if d.Trend, err = s.Trend(ctx, filter); err != nil {
		return Dashboard{}, err
	}
	if d.TopViolators, err = s.TopViolators(ctx, filter, 5); err != nil {
		return Dashboard{}, err
	}
	if d.RecentCases, err = s.Recent(ctx, filter, DefaultRecent); err != nil {
		return Dashboard{}, err
	}
	return d, nil
}

func (s *Service) Breakdown(ctx context.Context, filter Filter, dimension Dimension) ([]ChartPoint, error) {
	points, err := s.store.Breakdown(ctx, filter, dimension)
	if err != nil {
		return nil, fmt.Errorf("breakdown by %s: %w", dimension, err)
	}
	return withPercentages(points), nil
}

func (s *Service) Trend(ctx context.Context, filter Filter) ([]TrendPoint, error) {
	now := s.now().UTC()
	since := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -(trendMonths - 1), 0)
	counts, err := s.store.MonthlyCounts(ctx, filter, since)
	if err != nil {
		return nil, fmt.Errorf("monthly counts: %w", err)
	}
	return fillTrend(counts, now), nil
}

func (s *Service) TopViolators(ctx context.Context, filter Filter, top int) ([]Violator, error) {
	return s.store.TopViolators(ctx, filter, clampSize(top, DefaultTop))
}

func (s *Service) Recent(ctx context.Context, filter Filter, count int) ([]RecentCase, error) {
	return s.store.Recent(ctx, filter, clampSize(count, DefaultRecent))
}

// ParseExportFilter converts the request's YYYY-MM-DD bounds into a Filter.
// The to date is inclusive.
func ParseExportFilter(req ExportRequest) (Filter, error) {
	f := Filter{Factory: strings.TrimSpace(req.Factory), Department: strings.TrimSpace(req.Department)}
	if v := strings.TrimSpace(req.From); v != "" {
		from, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return Filter{}, fmt.Errorf("from %q: %w", v, ErrInvalidDate)
		}
		f.From = from
	}
	if v := strings.TrimSpace(req.To); v != "" {
		to, err := time.Parse(time.DateOnly, v)
		if err != nil {
			return Filter{}, fmt.Errorf("to %q: %w", v, ErrInvalidDate)
		}
		f.To = to.AddDate(0, 0, 1)
	}
	if !f.From.IsZero() && !f.To.IsZero() && !f.From.Before(f.To) {
		return Filter{}, ErrInvalidRange
	}
	return f, nil
}

// Export renders the dashboard for filter as an Excel workbook or PDF.
func (s *Service) Export(ctx context.Context, format string, filter Filter) (Export, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format != FormatExcel && format != FormatPDF {
		return Export{}, ErrInvalidFormat
	}
	d, err := s.Dashboard(ctx, filter)
	if err != nil {
		return Export{}, err
	}
	generated := s.now().UTC()
	stamp := generated.Format("20060102-150405")

	if format == FormatPDF {
		data, err := RenderPDF(d, filter, generated)
		if err != nil {
			return Export{}, fmt.Errorf("render pdf report: %w", err)
		}
		return Export{FileName: "violations-report-" + stamp + ".pdf", ContentType: "application/pdf", Data: data}, nil
	}

	if d.TopViolators, err = s.TopViolators(ctx, filter, maxListSize); err != nil {
		return Export{}, err
	}
	rows, err := s.store.Recent(ctx, filter, exportCaseRows)
	if err != nil {
		return Export{}, err
	}
	data, err := RenderWorkbook(d, rows, generated)
	if err != nil {
		return Export{}, fmt.Errorf("render workbook: %w", err)
	}
	slog.Info("dashboard exported", "format", format, "cases", len(rows))
	return Export{
		FileName:    "violations-report-" + stamp + ".xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Data:        data,
	}, nil
}
