package dataset

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics are the load instruments of the dataset layer.
type Metrics struct {
	loads       metric.Int64Counter
	duration    metric.Float64Histogram
	skipped     metric.Int64Counter
	cacheHits   metric.Int64Counter
	cacheMisses metric.Int64Counter
}

// NewMetrics registers the dataset instruments on meter
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	loads, err := meter.Int64Counter(
		"dataset_loads_total",
		metric.WithDescription("Dataset file reads by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create loads counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"dataset_load_duration_seconds",
		metric.WithDescription("Time spent reading and decoding a dataset file"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create load duration histogram: %w", err)
	}

	skipped, err := meter.Int64Counter(
		"dataset_rows_skipped_total",
		metric.WithDescription("Malformed rows dropped while loading"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped rows counter: %w", err)
	}

	hits, err := meter.Int64Counter(
		"dataset_cache_hits_total",
		metric.WithDescription("Loads served from the dataset cache"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache hits counter: %w", err)
	}

	misses, err := meter.Int64Counter(
		"dataset_cache_misses_total",
		metric.WithDescription("Loads that had to read the file"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache misses counter: %w", err)
	}

	return &Metrics{
		loads:       loads,
		duration:    duration,
		skipped:     skipped,
		cacheHits:   hits,
		cacheMisses: misses,
	}, nil
}

func (m *Metrics) recordLoad(ctx context.Context, name, status string, elapsed time.Duration, skipped int) {
	if m == nil {
		return
	}
	ds := attribute.String("dataset", name)
	m.loads.Add(ctx, 1, metric.WithAttributes(ds, attribute.String("status", status)))
	m.duration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(ds))
	if skipped > 0 {
		m.skipped.Add(ctx, int64(skipped), metric.WithAttributes(ds))
	}
}

func (m *Metrics) recordCache(ctx context.Context, name string, hit bool) {
	if m == nil {
		return
	}
	ds := attribute.String("dataset", name)
	if hit {
		m.cacheHits.Add(ctx, 1, metric.WithAttributes(ds))
		return
	}
	m.cacheMisses.Add(ctx, 1, metric.WithAttributes(ds))
}
