package http

import (
	"context"
	"io"

	"mktpulse/internal/dataset"
	"mktpulse/internal/exporter"
	"mktpulse/internal/services"
	api "mktpulse/pkg/contracts/api/v1"
)

// PageService renders dashboard pages
type PageService interface {
	Render(ctx context.Context, page string, req api.PageRequest) (services.PageResponse, error)
	ClearMemo()
}

// DatasetService defines the dataset browsing and cache administration
// operations used by the handlers
type DatasetService interface {
	List(ctx context.Context) []services.DatasetInfo
	Open(ctx context.Context, name string) (dataset.Frame, error)
	Records(ctx context.Context, name string, req api.RecordsRequest) (*services.RecordsPage, error)
	Aggregate(ctx context.Context, name string, req api.AggregateRequest) (*services.AggregateResult, error)
	Resample(ctx context.Context, name string, req api.ResampleRequest) (*services.ResampleResult, error)
	Top(ctx context.Context, name string, req api.TopRequest) (*services.TopResult, error)
	Export(ctx context.Context, w io.Writer, f dataset.Frame, format exporter.Format, opts exporter.Options) (int, error)
	CacheStats() dataset.CacheStats
	ClearCache() int
	Invalidate(name string) (bool, error)
}

// HealthService reports service health
type HealthService interface {
	HealthCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	LivenessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]any
}

var (
	_ PageService    = (*services.DashboardService)(nil)
	_ DatasetService = (*services.DatasetService)(nil)
	_ HealthService  = (*services.HealthService)(nil)
)
