package dataset

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// DefaultMaxIssues is how many row issues a table keeps when not configured.
const DefaultMaxIssues = 20

// Loader reads dataset files from one directory. Loaded tables are kept in
// the injected Cache and re-read only when the file's modification time or
// size changes.
type Loader struct {
	dir       string
	cache     *Cache
	logger    *slog.Logger
	validate  *validator.Validate
	tracer    trace.Tracer
	metrics   *Metrics
	maxIssues int
	group     singleflight.Group
	now       func() time.Time

	// version counts successful file reads; memoized page data keys on it.
	versionMu sync.Mutex
	version   uint64
}

// Option configures a Loader
type Option func(*Loader)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(l *Loader) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithMaxIssues limits the row issues kept per table
func WithMaxIssues(n int) Option {
	return func(l *Loader) {
		if n >= 0 {
			l.maxIssues = n
		}
	}
}

// WithTelemetry records spans on tracer and load metrics on m
func WithTelemetry(tracer trace.Tracer, m *Metrics) Option {
	return func(l *Loader) {
		if tracer != nil {
			l.tracer = tracer
		}
		l.metrics = m
	}
}

// NewLoader creates a loader for dir. A nil cache disables caching.
func NewLoader(dir string, cache *Cache, opts ...Option) *Loader {
	l := &Loader{
		dir:       dir,
		cache:     cache,
		logger:    slog.Default(),
		validate:  newValidator(),
		tracer:    otel.Tracer("mktpulse/dataset"),
		maxIssues: DefaultMaxIssues,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = l.logger.With(slog.String("component", "dataset_loader"))
	return l
}

// Dir returns the data directory
func (l *Loader) Dir() string {
	return l.dir
}

// Cache returns the injected cache, nil when caching is disabled
func (l *Loader) Cache() *Cache {
	return l.cache
}

// Path returns the expected file path of a dataset
func (l *Loader) Path(name string) (string, error) {
	file, err := FileName(name)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.dir, file), nil
}

// Version changes whenever any dataset is re-read from disk.
func (l *Loader) Version() uint64 {
	l.versionMu.Lock()
	defer l.versionMu.Unlock()
	return l.version
}

func (l *Loader) bumpVersion() {
	l.versionMu.Lock()
	l.version++
	l.versionMu.Unlock()
}

// Load returns the table of spec, reading the file only when the cache has
// no fresh copy. Concurrent loads of one dataset share a single read.
func Load[T any](ctx context.Context, l *Loader, spec Spec[T]) (*table.Table[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := l.tracer.Start(ctx, "dataset.load",
		trace.WithAttributes(attribute.String("dataset", spec.Name)))
	defer span.End()

	path := filepath.Join(l.dir, spec.File)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = &NotFoundError{Dataset: spec.Name, Path: path}
		} else {
			err = fmt.Errorf("stat %s: %w", spec.Name, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		l.metrics.recordLoad(ctx, spec.Name, "not_found", 0, 0)
		return nil, err
	}

	if t, ok := cached[T](ctx, l, spec.Name, info); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return t, nil
	}

	ch := l.group.DoChan(spec.Name, func() (any, error) {
		// another caller may have filled the cache while we waited
		if t, ok := cachedQuiet[T](l, spec.Name, info); ok {
			return t, nil
		}
		return readFile(context.WithoutCancel(ctx), l, spec, path)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			span.RecordError(res.Err)
			span.SetStatus(codes.Error, res.Err.Error())
			return nil, res.Err
		}
		t := res.Val.(*table.Table[T])
		span.SetAttributes(attribute.Int("rows", t.Len()), attribute.Int("skipped", t.Skipped))
		return t, nil
	}
}

func cached[T any](ctx context.Context, l *Loader, name string, info os.FileInfo) (*table.Table[T], bool) {
	if l.cache == nil {
		return nil, false
	}
	entry, ok := l.cache.Get(name, info.ModTime(), info.Size())
	l.metrics.recordCache(ctx, name, ok)
	if !ok {
		return nil, false
	}
	t, ok := entry.Value.(*table.Table[T])
	return t, ok
}

func cachedQuiet[T any](l *Loader, name string, info os.FileInfo) (*table.Table[T], bool) {
	if l.cache == nil {
		return nil, false
	}
	entry, ok := l.cache.Peek(name)
	if !ok || !entry.fresh(info.ModTime(), info.Size()) {
		return nil, false
	}
	t, ok := entry.Value.(*table.Table[T])
	return t, ok
}

// readFile decodes one file and publishes the result in the cache.
func readFile[T any](ctx context.Context, l *Loader, spec Spec[T], path string) (*table.Table[T], error) {
	start := l.now()

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Dataset: spec.Name, Path: path}
		}
		return nil, fmt.Errorf("open %s: %w", spec.Name, err)
	}
	defer f.Close()

	// stat the open handle so the cached state matches what was read
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", spec.Name, err)
	}

	dec := decoder[T]{spec: spec, validate: l.validate, maxIssues: l.maxIssues}
	t, err := dec.decode(f, path)
	elapsed := l.now().Sub(start)
	if err != nil {
		status := "error"
		if errors.Is(err, ErrSchemaMismatch) {
			status = "schema_mismatch"
		}
		l.metrics.recordLoad(ctx, spec.Name, status, elapsed, 0)
		l.logger.ErrorContext(ctx, "Dataset load failed",
			slog.String("dataset", spec.Name),
			slog.String("path", path),
			slog.String("error", err.Error()))
		return nil, err
	}

	t.LoadedAt = l.now()
	t.ModTime = info.ModTime()
	t.Size = info.Size()

	if l.cache != nil {
		l.cache.Set(spec.Name, CacheEntry{
			Value:    t,
			Path:     path,
			ModTime:  info.ModTime(),
			Size:     info.Size(),
			LoadedAt: t.LoadedAt,
			Rows:     t.Len(),
			Skipped:  t.Skipped,
		})
	}
	l.bumpVersion()
	l.metrics.recordLoad(ctx, spec.Name, "success", elapsed, t.Skipped)

	attrs := []any{
		slog.String("dataset", spec.Name),
		slog.Int("rows", t.Len()),
		slog.Int("skipped", t.Skipped),
		slog.Duration("duration", elapsed),
	}
	if t.Skipped > 0 {
		l.logger.WarnContext(ctx, "Dataset loaded with skipped rows", attrs...)
	} else {
		l.logger.InfoContext(ctx, "Dataset loaded", attrs...)
	}

	return t, nil
}

// Campaigns returns campaign_performance with derived ratios
func (l *Loader) Campaigns(ctx context.Context) (*table.Table[domain.CampaignPerformance], error) {
	return Load(ctx, l, CampaignSpec)
}

// Customers returns customer_data
func (l *Loader) Customers(ctx context.Context) (*table.Table[domain.CustomerRecord], error) {
	return Load(ctx, l, CustomerSpec)
}

// Products returns product_sales with derived profit
func (l *Loader) Products(ctx context.Context) (*table.Table[domain.ProductSale], error) {
	return Load(ctx, l, ProductSpec)
}

// Leads returns lead_scoring_results
func (l *Loader) Leads(ctx context.Context) (*table.Table[domain.LeadScore], error) {
	return Load(ctx, l, LeadSpec)
}

// Geography returns geographic_data with revenue per customer
func (l *Loader) Geography(ctx context.Context) (*table.Table[domain.GeographicMetric], error) {
	return Load(ctx, l, GeographicSpec)
}

// Auxiliary returns one of the pass-through tables
func (l *Loader) Auxiliary(ctx context.Context, name string) (*table.Table[domain.AuxRecord], error) {
	if !IsAuxiliary(name) {
		return nil, unknownDataset(name)
	}
	return Load(ctx, l, auxSpec(name))
}

// Result is the outcome of loading one dataset in LoadAll.
type Result struct {
	Name  string
	Frame Frame
	Err   error
}

// LoadAll loads every dataset concurrently. A failing dataset is reported
// in its Result and never prevents the others from loading.
func (l *Loader) LoadAll(ctx context.Context) []Result {
	names := Names()
	results := make([]Result, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			f, err := l.Load(gctx, name)
			results[i] = Result{Name: name, Frame: f, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Invalidate drops one dataset from the cache so the next load re-reads it
func (l *Loader) Invalidate(name string) (bool, error) {
	if _, err := FileName(name); err != nil {
		return false, err
	}
	if l.cache == nil {
		return false, nil
	}
	removed := l.cache.Invalidate(name)
	l.logger.Info("Dataset cache invalidated", slog.String("dataset", name), slog.Bool("was_cached", removed))
	return removed, nil
}

// ClearCache drops every cached dataset
func (l *Loader) ClearCache() int {
	if l.cache == nil {
		return 0
	}
	n := l.cache.Clear()
	l.logger.Info("Dataset cache cleared", slog.Int("entries", n))
	return n
}

// Status describes the backing file of a dataset without parsing it.
type Status struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Exists  bool      `json:"exists"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"mod_time,omitempty"`
	Cached  bool      `json:"cached"`
	Fresh   bool      `json:"fresh"`
}

// Status reports the file state of every dataset
func (l *Loader) Status(ctx context.Context) []Status {
	out := make([]Status, 0, len(Names()))
	for _, name := range Names() {
		path, _ := l.Path(name)
		st := Status{Name: name, Path: path}
		info, err := os.Stat(path)
		if err == nil {
			st.Exists = true
			st.Size = info.Size()
			st.ModTime = info.ModTime()
		}
		if l.cache != nil {
			if e, ok := l.cache.Peek(name); ok {
				st.Cached = true
				st.Fresh = st.Exists && e.fresh(st.ModTime, st.Size)
			}
		}
		out = append(out, st)
	}
	return out
}
