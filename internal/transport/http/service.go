package http

import (
	"context"

	"econdash/internal/analysis"
	"econdash/internal/models"
	"econdash/internal/report"
	"econdash/internal/services"
	"econdash/internal/store"
)

// DashboardService defines the dashboard operations served over HTTP.
type DashboardService interface {
	Summary(ctx context.Context) (analysis.Summary, error)
	Currencies(ctx context.Context) ([]services.CurrencyInfo, error)
	Tags(ctx context.Context, currency string) ([]analysis.TagCount, error)
	CurrencyView(ctx context.Context, currency string, column models.ValueColumn, f analysis.Filter) (analysis.CurrencyView, error)
	Series(ctx context.Context, currency, tag string, column models.ValueColumn) (models.IndicatorSeries, error)
	IndicatorView(ctx context.Context, tag string, column models.ValueColumn, f analysis.Filter) (analysis.IndicatorView, error)
	Coverage(ctx context.Context) (services.CoverageReport, error)
	Calendar(ctx context.Context, q report.CalendarQuery) ([]report.CalendarDay, error)
	History(ctx context.Context, q report.HistoryQuery) (*report.HistoryTable, error)
	Refresh(ctx context.Context, force bool) (*store.RefreshReport, error)
	Health(ctx context.Context) services.HealthStatus
}

var _ DashboardService = (*services.Dashboard)(nil)
