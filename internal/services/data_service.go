package services

import (
	"context"
	"io"
	"log/slog"

	"mktpulse/internal/dataset"
	apperrors "mktpulse/internal/errors"
	"mktpulse/internal/exporter"
	"mktpulse/internal/infrastructure"
	"mktpulse/internal/table"
	api "mktpulse/pkg/contracts/api/v1"
)

// DatasetInfo describes one logical dataset for the dataset listing.
type DatasetInfo struct {
	dataset.Status
	Auxiliary bool `json:"auxiliary"`
}

// RecordsPage is a window of rows of one dataset.
type RecordsPage struct {
	Name   string              `json:"name"`
	Meta   table.Meta          `json:"meta"`
	Fields []dataset.FieldInfo `json:"fields"`
	Total  int                 `json:"total"`
	Offset int                 `json:"offset"`
	Limit  int                 `json:"limit"`
	Rows   []map[string]any    `json:"rows"`
}

// AggregateResult is the response of an ad-hoc group-by.
type AggregateResult struct {
	Name    string             `json:"name"`
	GroupBy []string           `json:"group_by"`
	Value   string             `json:"value"`
	Op      string             `json:"op"`
	Groups  []table.GroupTotal `json:"groups"`
}

// ResampleResult is a time series of one dataset column.
type ResampleResult struct {
	Name        string            `json:"name"`
	Date        string            `json:"date"`
	Value       string            `json:"value"`
	Granularity table.Granularity `json:"granularity"`
	Points      []table.Point     `json:"points"`
}

// TopResult holds the highest ranked rows of a dataset.
type TopResult struct {
	Name string           `json:"name"`
	Rank string           `json:"rank"`
	N    int              `json:"n"`
	Rows []map[string]any `json:"rows"`
}

// DatasetService exposes the loader to the generic dataset API.
type DatasetService struct {
	loader  *dataset.Loader
	metrics *infrastructure.DashboardMetrics
	logger  *slog.Logger
}

// NewDatasetService creates the dataset service. metrics may be nil.
func NewDatasetService(loader *dataset.Loader, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DatasetService {
	return &DatasetService{
		loader:  loader,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dataset_service"),
	}
}

// List reports every dataset and the state of its file
func (s *DatasetService) List(ctx context.Context) []DatasetInfo {
	statuses := s.loader.Status(ctx)
	out := make([]DatasetInfo, 0, len(statuses))
	for _, st := range statuses {
		out = append(out, DatasetInfo{Status: st, Auxiliary: dataset.IsAuxiliary(st.Name)})
	}
	return out
}

// Open loads a dataset as a Frame
func (s *DatasetService) Open(ctx context.Context, name string) (dataset.Frame, error) {
	return s.loader.Load(ctx, name)
}

// Records returns rows [offset, offset+limit) of a dataset
func (s *DatasetService) Records(ctx context.Context, name string, req api.RecordsRequest) (*RecordsPage, error) {
	f, err := s.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	return &RecordsPage{
		Name:   f.Name(),
		Meta:   f.Meta(),
		Fields: f.Fields(),
		Total:  f.Len(),
		Offset: req.Offset,
		Limit:  req.Limit,
		Rows:   dataset.Records(f, req.Offset, req.Limit),
	}, nil
}

// Aggregate groups a dataset by the requested columns
func (s *DatasetService) Aggregate(ctx context.Context, name string, req api.AggregateRequest) (*AggregateResult, error) {
	op := req.Op
	if op == "" {
		op = "sum"
	}
	if op != "sum" && op != "mean" {
		return nil, apperrors.Invalid("unsupported aggregate op %q", req.Op).With("op", req.Op)
	}

	f, err := s.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	groups, err := dataset.Aggregate(f, req.GroupBy, req.Value, op == "mean")
	if err != nil {
		return nil, err
	}
	return &AggregateResult{
		Name:    name,
		GroupBy: req.GroupBy,
		Value:   req.Value,
		Op:      op,
		Groups:  nonNil(groups.Rows),
	}, nil
}

// Resample buckets a numeric column of a dataset by a date column
func (s *DatasetService) Resample(ctx context.Context, name string, req api.ResampleRequest) (*ResampleResult, error) {
	g, err := table.ParseGranularity(req.Granularity)
	if err != nil {
		return nil, err
	}
	f, err := s.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	points, err := dataset.Resample(f, req.Date, req.Value, g)
	if err != nil {
		return nil, err
	}
	return &ResampleResult{
		Name:        name,
		Date:        req.Date,
		Value:       req.Value,
		Granularity: g,
		Points:      nonNil(points.Rows),
	}, nil
}

// Top returns the n rows with the highest rank column
func (s *DatasetService) Top(ctx context.Context, name string, req api.TopRequest) (*TopResult, error) {
	f, err := s.loader.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	rows, err := dataset.Top(f, req.Rank, req.N)
	if err != nil {
		return nil, err
	}
	return &TopResult{Name: name, Rank: req.Rank, N: req.N, Rows: rows}, nil
}

// Export streams f to w. The frame is opened separately so callers can
// report load errors before writing response headers.
func (s *DatasetService) Export(ctx context.Context, w io.Writer, f dataset.Frame, format exporter.Format, opts exporter.Options) (int, error) {
	n, err := exporter.Write(w, format, f, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "Export failed",
			slog.String("dataset", f.Name()),
			slog.String("format", string(format)),
			slog.String("error", err.Error()))
		return n, apperrors.ExportFailed(f.Name(), string(format), err)
	}

	s.metrics.RecordExport(ctx, f.Name(), string(format))
	s.logger.InfoContext(ctx, "Dataset exported",
		slog.String("dataset", f.Name()),
		slog.String("format", string(format)),
		slog.Int("rows", n))
	return n, nil
}

// CacheStats returns the loader cache statistics
func (s *DatasetService) CacheStats() dataset.CacheStats {
	c := s.loader.Cache()
	if c == nil {
		return dataset.CacheStats{Datasets: []dataset.CachedDataset{}}
	}
	return c.Stats()
}

// ClearCache drops every cached dataset and returns how many were dropped
func (s *DatasetService) ClearCache() int {
	return s.loader.ClearCache()
}

// Invalidate drops one dataset from the cache
func (s *DatasetService) Invalidate(name string) (bool, error) {
	return s.loader.Invalidate(name)
}
