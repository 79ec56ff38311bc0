package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"mktpulse/internal/dataset"
	apperrors "mktpulse/internal/errors"
	"mktpulse/internal/infrastructure"
	"mktpulse/internal/scoring"
	"mktpulse/internal/table"
	api "mktpulse/pkg/contracts/api/v1"
)

// Page names a dashboard page.
type Page string

const (
	PageExecutiveOverview  Page = "executive-overview"
	PageCampaignAnalytics  Page = "campaign-analytics"
	PageCustomerInsights   Page = "customer-insights"
	PageProductPerformance Page = "product-performance"
	PageGeographicAnalysis Page = "geographic-analysis"
	PageMLEvaluation       Page = "ml-evaluation"
	PageAttributionFunnel  Page = "attribution-funnel"
)

// Pages lists the dashboard pages in navigation order
func Pages() []Page {
	return []Page{
		PageExecutiveOverview,
		PageCampaignAnalytics,
		PageCustomerInsights,
		PageProductPerformance,
		PageGeographicAnalysis,
		PageMLEvaluation,
		PageAttributionFunnel,
	}
}

// ParsePage resolves a page name
func ParsePage(s string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Pages() {
		if p == known {
			return p, nil
		}
	}
	return "", apperrors.Unknown("page", s, ErrUnknownPage)
}

// PageResponse is implemented by every page payload.
type PageResponse interface {
	NoticeCount() int
}

// maxMemoEntries bounds the memoized sections kept per loader version.
// Query parameters are part of the keys, so clients control their number.
const maxMemoEntries = 512

// DashboardService renders the dashboard pages from the loader's tables.
type DashboardService struct {
	loader  *dataset.Loader
	metrics *infrastructure.DashboardMetrics
	logger  *slog.Logger
	now     func() time.Time

	// memo holds computed page sections for the current loader version
	memo        *dataset.Memo[string, any]
	memoMu      sync.Mutex
	memoVersion uint64
}

// NewDashboardService creates the page renderer. metrics may be nil.
func NewDashboardService(loader *dataset.Loader, metrics *infrastructure.DashboardMetrics, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		loader:  loader,
		metrics: metrics,
		logger:  infrastructure.WithComponent(logger, "dashboard_service"),
		now:     time.Now,
		memo:    dataset.NewMemo[string, any](maxMemoEntries),
	}
}

// Render dispatches a page request and records render metrics.
func (s *DashboardService) Render(ctx context.Context, name string, req api.PageRequest) (PageResponse, error) {
	page, err := ParsePage(name)
	if err != nil {
		return nil, err
	}

	start := s.now()
	resp, err := s.render(ctx, page, req)
	elapsed := s.now().Sub(start)

	notices := 0
	if err == nil {
		notices = resp.NoticeCount()
	}
	s.metrics.RecordPageRender(ctx, string(page), elapsed, notices, err)

	if err != nil {
		s.logger.WarnContext(ctx, "Page render failed",
			slog.String("page", string(page)),
			slog.String("error", err.Error()))
		return nil, err
	}
	s.logger.DebugContext(ctx, "Page rendered",
		slog.String("page", string(page)),
		slog.Int("notices", notices),
		slog.Duration("duration", elapsed))
	return resp, nil
}

func (s *DashboardService) render(ctx context.Context, page Page, req api.PageRequest) (PageResponse, error) {
	switch page {
	case PageExecutiveOverview:
		g, err := table.ParseGranularity(req.Granularity)
		if err != nil {
			return nil, err
		}
		return s.ExecutiveOverview(ctx, g)
	case PageCampaignAnalytics:
		filter, err := CampaignFilterFrom(req)
		if err != nil {
			return nil, err
		}
		return s.CampaignAnalytics(ctx, filter)
	case PageCustomerInsights:
		return s.CustomerInsights(ctx)
	case PageProductPerformance:
		return s.ProductPerformance(ctx, req.Top)
	case PageGeographicAnalysis:
		return s.GeographicAnalysis(ctx, req.Top)
	case PageMLEvaluation:
		if err := scoring.ValidateThreshold(req.Threshold); err != nil {
			return nil, err
		}
		return s.MLEvaluation(ctx, req.Threshold)
	case PageAttributionFunnel:
		return s.AttributionFunnel(ctx)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPage, page)
}

func (s *DashboardService) envelope(page Page) Envelope {
	return Envelope{Page: page, GeneratedAt: s.now().UTC(), Notices: []Notice{}}
}

// ClearMemo drops every memoized page section
func (s *DashboardService) ClearMemo() {
	s.memo.Clear()
}

// memoized returns the value stored under key for version, computing it
// on a miss. version must be read before the page loads its tables so a
// reload racing with the render never files old sections under the new
// version. Renders holding a version older than the memo's are computed
// without being stored.
func memoized[V any](s *DashboardService, version uint64, key string, compute func() V) V {
	s.memoMu.Lock()
	switch {
	case version > s.memoVersion:
		s.memo.Clear()
		s.memoVersion = version
	case version < s.memoVersion:
		s.memoMu.Unlock()
		return compute()
	}
	s.memoMu.Unlock()

	v, _ := s.memo.Get(fmt.Sprintf("%d|%s", version, key), func() (any, error) {
		return compute(), nil
	})
	return v.(V)
}

// presence encodes which tables were loaded so a memo key never mixes a
// page computed with and without one of its datasets.
func presence(loaded ...bool) string {
	var b strings.Builder
	for _, ok := range loaded {
		if ok {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}
