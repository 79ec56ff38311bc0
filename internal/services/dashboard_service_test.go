package services

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/dataset"
	"mktpulse/internal/scoring"
	"mktpulse/internal/shared/testutil"
	"mktpulse/internal/table"
	api "mktpulse/pkg/contracts/api/v1"
	"mktpulse/pkg/contracts/domain"
)

func newTestDashboard(t *testing.T, omit ...string) (*DashboardService, string) {
	t.Helper()
	dir := testutil.MarketingDataset(t, omit...)
	logger, _ := testutil.NewTestLogger(t)
	loader := dataset.NewLoader(dir, dataset.NewCache(), dataset.WithLogger(logger))
	return NewDashboardService(loader, nil, logger), dir
}

func day(s string) time.Time {
	d, err := time.Parse(dataset.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func hasNotice(notices []Notice, name string, kind NoticeKind) bool {
	for _, n := range notices {
		if n.Dataset == name && n.Kind == kind {
			return true
		}
	}
	return false
}

func TestParsePage(t *testing.T) {
	for _, p := range Pages() {
		got, err := ParsePage(string(p))
		require.NoError(t, err)
		assert.Equal(t, p, got)
	}

	got, err := ParsePage(" ML-Evaluation ")
	require.NoError(t, err)
	assert.Equal(t, PageMLEvaluation, got)

	_, err = ParsePage("settings")
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestExecutiveOverview(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.ExecutiveOverview(context.Background(), table.Monthly)
	require.NoError(t, err)

	assert.Empty(t, page.Notices)
	require.NotNil(t, page.KPIs)
	assert.Equal(t, 2100.0, page.KPIs.TotalRevenue)
	assert.Equal(t, 750.0, page.KPIs.TotalSpend)
	assert.Equal(t, int64(21), page.KPIs.TotalConversions)
	assert.Equal(t, "Search", page.KPIs.TopChannel)
	assert.Equal(t, 1000.0, page.KPIs.TopChannelRevenue)

	require.Len(t, page.Channels, 3)
	assert.Equal(t, []string{"Search", "Social", "Email"},
		[]string{page.Channels[0].Channel, page.Channels[1].Channel, page.Channels[2].Channel})
	assert.Equal(t, int64(7), page.Channels[2].Conversions)

	require.Len(t, page.RevenueTrend, 2)
	assert.Equal(t, day("2024-01-31"), page.RevenueTrend[0].Period)
	assert.Equal(t, 1500.0, page.RevenueTrend[0].Value)
	assert.Equal(t, 600.0, page.RevenueTrend[1].Value)

	require.NotNil(t, page.Customers)
	assert.Equal(t, 4, page.Customers.Customers)
	assert.InDelta(t, 39.25, page.Customers.AvgAge, 1e-9)
	assert.InDelta(t, 1100, page.Customers.AvgLifetimeVal, 1e-9)
	assert.InDelta(t, 3.5, page.Customers.AvgSatisfaction, 1e-9)
}

func TestExecutiveOverviewWeeklyTrendIsZeroFilled(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.ExecutiveOverview(context.Background(), table.Weekly)
	require.NoError(t, err)

	require.Len(t, page.RevenueTrend, 6)
	assert.Equal(t, day("2024-01-07"), page.RevenueTrend[0].Period)
	assert.Equal(t, 1400.0, page.RevenueTrend[0].Value)
	assert.Equal(t, 0.0, page.RevenueTrend[2].Value)
	assert.Equal(t, day("2024-02-11"), page.RevenueTrend[5].Period)
}

func TestExecutiveOverviewMissingDataset(t *testing.T) {
	svc, _ := newTestDashboard(t, dataset.CustomerData)

	page, err := svc.ExecutiveOverview(context.Background(), table.Weekly)
	require.NoError(t, err)

	assert.NotNil(t, page.KPIs)
	assert.Nil(t, page.Customers)
	require.Len(t, page.Notices, 1)
	assert.Equal(t, dataset.CustomerData, page.Notices[0].Dataset)
	assert.Equal(t, NoticeNotFound, page.Notices[0].Kind)
}

func TestSchemaMismatchBecomesNotice(t *testing.T) {
	svc, dir := newTestDashboard(t)
	testutil.WriteFile(t, dir, "geographic_data.csv", "state,revenue\nTexas,100\n")

	page, err := svc.GeographicAnalysis(context.Background(), 5)
	require.NoError(t, err)

	assert.Nil(t, page.Totals)
	assert.Empty(t, page.States)
	assert.True(t, hasNotice(page.Notices, dataset.GeographicData, NoticeSchemaMismatch))
}

func TestSkippedRowsBecomeNotice(t *testing.T) {
	svc, dir := newTestDashboard(t)
	testutil.WriteFile(t, dir, "product_sales.csv", testutil.ProductCSV+"Home,Decor,Lamp,North,Q3,abc,1,10\n")

	page, err := svc.ProductPerformance(context.Background(), 10)
	require.NoError(t, err)

	assert.True(t, hasNotice(page.Notices, dataset.ProductSales, NoticeRowsSkipped))
	assert.Equal(t, 7750.0, page.Totals.Profit)
}

func TestNonFiniteValuesAreSkipped(t *testing.T) {
	svc, dir := newTestDashboard(t)
	testutil.WriteFile(t, dir, "campaign_performance.csv", testutil.CampaignCSV+
		"2024-02-06,Search,North,Awareness,1000,50,5,100,Inf\n")
	testutil.WriteFile(t, dir, "geographic_data.csv", testutil.GeographicCSV+"Ohio,5000,10,2.0,NaN\n")
	ctx := context.Background()

	overview, err := svc.ExecutiveOverview(ctx, table.Monthly)
	require.NoError(t, err)
	require.NotNil(t, overview.KPIs)
	assert.Equal(t, 2100.0, overview.KPIs.TotalRevenue)
	assert.True(t, hasNotice(overview.Notices, dataset.CampaignPerformance, NoticeRowsSkipped))
	_, err = json.Marshal(overview)
	assert.NoError(t, err)

	geo, err := svc.GeographicAnalysis(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, geo.States, 3)
	assert.True(t, hasNotice(geo.Notices, dataset.GeographicData, NoticeRowsSkipped))
	_, err = json.Marshal(geo)
	assert.NoError(t, err)
}

func TestCampaignAnalytics(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.CampaignAnalytics(context.Background(), CampaignFilter{Granularity: table.Monthly})
	require.NoError(t, err)

	assert.Equal(t, []string{"Email", "Search", "Social"}, page.AvailableChannels)
	assert.Equal(t, 4, page.Rows)
	assert.Len(t, page.RevenueTrend, 3)

	require.Len(t, page.RegionQuarter, 2)
	assert.Equal(t, []string{"North", "2024-Q1"}, page.RegionQuarter[0].Keys)
	assert.Equal(t, 1000.0, page.RegionQuarter[0].Value)
	assert.Equal(t, 1100.0, page.RegionQuarter[1].Value)

	require.Len(t, page.SpendByTypeMonth, 4)
	assert.Equal(t, []string{"Awareness", "2024-01"}, page.SpendByTypeMonth[0].Keys)
	assert.Equal(t, 100.0, page.SpendByTypeMonth[0].Value)
	assert.Equal(t, 400.0, page.SpendByTypeMonth[1].Value)
}

func TestCampaignAnalyticsFilters(t *testing.T) {
	tests := []struct {
		name        string
		filter      CampaignFilter
		wantRows    int
		wantRevenue float64
	}{
		{"channel is case insensitive", CampaignFilter{Channels: []string{"email"}}, 2, 500},
		{"two channels", CampaignFilter{Channels: []string{"Email", "Social"}}, 3, 1100},
		{"date range inclusive", CampaignFilter{From: day("2024-01-02"), To: day("2024-01-08")}, 2, 1100},
		{"open ended", CampaignFilter{From: day("2024-02-01")}, 1, 600},
		{"nothing matches", CampaignFilter{Channels: []string{"TV"}}, 0, 0},
	}

	svc, _ := newTestDashboard(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := svc.CampaignAnalytics(context.Background(), tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRows, page.Rows)
			require.NotNil(t, page.Totals)
			assert.Equal(t, tt.wantRevenue, page.Totals.TotalRevenue)
		})
	}
}

func TestCampaignFilterFrom(t *testing.T) {
	f, err := CampaignFilterFrom(api.PageRequest{
		DateRangeRequest: api.DateRangeRequest{From: "2024-01-01", To: "2024-01-31"},
		Granularity:      "m",
		Channels:         []string{"Email"},
	})
	require.NoError(t, err)
	assert.Equal(t, table.Monthly, f.Granularity)
	assert.Equal(t, day("2024-01-31"), f.To)

	_, err = CampaignFilterFrom(api.PageRequest{Granularity: "hourly"})
	assert.ErrorIs(t, err, table.ErrInvalidGranularity)

	_, err = CampaignFilterFrom(api.PageRequest{
		DateRangeRequest: api.DateRangeRequest{From: "2024-02-01", To: "2024-01-01"},
		Granularity:      "weekly",
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestCustomerInsights(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.CustomerInsights(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PageCustomerInsights, page.Page)
	assert.Equal(t, 4, page.Customers)
	assert.Equal(t, 0.5, page.ChurnRate)
	assert.InDelta(t, 3.5, page.AvgSatisfaction, 1e-9)

	require.Len(t, page.Segments, 3)
	premium := page.Segments[1]
	assert.Equal(t, "Premium", premium.Segment)
	assert.Equal(t, 2, premium.Customers)
	assert.Equal(t, 35.0, premium.MeanAge)
	assert.Equal(t, 0.0, premium.ChurnRate)
	assert.Equal(t, 1.0, page.Segments[0].ChurnRate)

	require.Len(t, page.AgeHistogram, 4)
	assert.Equal(t, int64(20), page.AgeHistogram[0].Lower)
	for _, b := range page.AgeHistogram {
		assert.Equal(t, 1, b.Count)
	}

	assert.Len(t, page.IncomeVsLTV, 4)
	require.NotNil(t, page.AvgPurchases)
	assert.Equal(t, 4.0, *page.AvgPurchases)
	require.NotEmpty(t, page.NPS)
	assert.Equal(t, Breakdown{Category: "Promoter", Customers: 2}, page.NPS[0])
}

func TestCustomerInsightsWithoutOptionalColumns(t *testing.T) {
	svc, dir := newTestDashboard(t)
	testutil.WriteFile(t, dir, "customer_data.csv",
		"customer_id,age,income,lifetime_value,satisfaction_score,segment,churn_flag\nC1,30,1000,100,4,Basic,0\n")

	page, err := svc.CustomerInsights(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, page.Customers)
	assert.Nil(t, page.AvgPurchases)
	assert.Nil(t, page.AvgEngagement)
	assert.Empty(t, page.NPS)
}

func TestProductPerformance(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.ProductPerformance(context.Background(), 2)
	require.NoError(t, err)

	require.NotNil(t, page.Totals)
	assert.Equal(t, 38000.0, page.Totals.Sales)
	assert.Equal(t, 7750.0, page.Totals.Profit)

	require.Len(t, page.Categories, 3)
	assert.Equal(t, "Electronics", page.Categories[0].Category)
	assert.Equal(t, 30000.0, page.Categories[0].Sales)
	assert.Equal(t, 5000.0, page.Categories[0].Profit)
	assert.Equal(t, 17.5, page.Categories[0].MeanMargin)

	require.Len(t, page.TopProducts, 2)
	assert.Equal(t, "Laptop Pro", page.TopProducts[0].Product)
	assert.Equal(t, "Phone X", page.TopProducts[1].Product)
	assert.Len(t, page.RegionQuarter, 4)
}

func TestGeographicAnalysis(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.GeographicAnalysis(context.Background(), 2)
	require.NoError(t, err)

	require.NotNil(t, page.Totals)
	assert.Equal(t, 125000.0, page.Totals.Revenue)
	assert.Equal(t, int64(250), page.Totals.Customers)
	assert.Equal(t, 500.0, page.Totals.RevenuePerCustomer)

	assert.Len(t, page.States, 3)
	require.Len(t, page.TopByRevenue, 2)
	assert.Equal(t, "California", page.TopByRevenue[0].State)
	assert.Equal(t, "New York", page.TopByRevenue[1].State)
	require.Len(t, page.TopByGrowth, 2)
	assert.Equal(t, "Texas", page.TopByGrowth[0].State)
	assert.Equal(t, 500.0, page.TopByRevenue[0].RevenuePerCustomer)
}

func TestMLEvaluation(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.MLEvaluation(context.Background(), 0.5)
	require.NoError(t, err)

	assert.Empty(t, page.Notices)
	require.NotNil(t, page.Confusion)
	assert.Equal(t, scoring.Confusion{TP: 2, FP: 1, TN: 2, FN: 1}, *page.Confusion)
	assert.Equal(t, [2][2]int{{2, 1}, {1, 2}}, *page.Matrix)
	assert.InDelta(t, 2.0/3.0, page.Metrics.Precision, 1e-9)
	assert.Equal(t, *page.Confusion, *page.ModelConfusion)

	require.NotNil(t, page.AUC)
	assert.InDelta(t, 8.0/9.0, *page.AUC, 1e-9)
	assert.Len(t, page.ROC, 7)
	assert.Len(t, page.Distribution, histogramBins)

	require.NotNil(t, page.Probability)
	assert.Equal(t, 6, page.Probability.Count)
	assert.Equal(t, 3, page.Probability.Positives)
	assert.InDelta(t, 0.1, page.Probability.Min, 1e-9)

	require.Len(t, page.FeatureImportance, 4)
	assert.Equal(t, "engagement_score", page.FeatureImportance[0].Feature)
	assert.Equal(t, "age", page.FeatureImportance[3].Feature)

	require.NotNil(t, page.LearningCurve)
	assert.Len(t, page.LearningCurve.Rows, 3)
	assert.Equal(t, 100.0, page.LearningCurve.Rows[0]["train_size"])
}

func TestMLEvaluationThresholdChangesConfusion(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.MLEvaluation(context.Background(), 0.8)
	require.NoError(t, err)
	assert.Equal(t, scoring.Confusion{TP: 1, FP: 0, TN: 3, FN: 2}, *page.Confusion)
	assert.Equal(t, 0.8, page.Threshold)
}

func TestMLEvaluationSingleClass(t *testing.T) {
	svc, dir := newTestDashboard(t)
	testutil.WriteFile(t, dir, "lead_scoring_results.csv",
		"lead_id,true_label,predicted_probability,predicted_label\nL1,1,0.9,1\nL2,1,0.3,0\n")

	page, err := svc.MLEvaluation(context.Background(), 0.5)
	require.NoError(t, err)

	assert.True(t, hasNotice(page.Notices, dataset.LeadScoringResults, NoticeInsufficientData))
	assert.Empty(t, page.ROC)
	assert.Nil(t, page.AUC)
	assert.NotNil(t, page.Confusion)
}

func TestAttributionFunnel(t *testing.T) {
	svc, _ := newTestDashboard(t)

	page, err := svc.AttributionFunnel(context.Background())
	require.NoError(t, err)

	require.NotNil(t, page.Attribution)
	assert.Equal(t, []string{"first_touch", "last_touch", "linear"}, page.Attribution.Models)
	assert.Equal(t, "Search", page.Attribution.MostInconsistent)
	assert.InDelta(t, 10, page.Attribution.Channels[0].Spread, 1e-9)
	assert.Equal(t, 260.0, page.Attribution.Channels[1].Credits["last_touch"])

	require.NotNil(t, page.Funnel)
	stages := page.Funnel.Stages
	require.Len(t, stages, 4)
	assert.Equal(t, []string{"Awareness", "Interest", "Consideration", "Purchase"},
		[]string{stages[0].Stage, stages[1].Stage, stages[2].Stage, stages[3].Stage})
	assert.InDelta(t, 0, stages[0].DropOff, 1e-9)
	assert.InDelta(t, 50, stages[1].DropOff, 1e-9)
	assert.InDelta(t, 60, stages[2].DropOff, 1e-9)
	assert.InDelta(t, 95, stages[3].CumulativeDrop, 1e-9)
	assert.InDelta(t, 5, page.Funnel.OverallConversion, 1e-9)
	assert.Equal(t, "Purchase", page.Funnel.BiggestDropStage)
	assert.Equal(t, 10000.0, page.Funnel.TotalVisitors)

	require.NotNil(t, page.Correlation)
	assert.Equal(t, []string{"spend", "revenue", "clicks"}, page.Correlation.Labels)
	assert.Equal(t, -0.75, page.Correlation.Matrix[1][2])
	assert.Equal(t, []CorrelationPair{
		{A: "spend", B: "revenue", Value: 0.85},
		{A: "revenue", B: "clicks", Value: -0.75},
	}, page.Correlation.Strong)

	require.NotNil(t, page.Journey)
	assert.Len(t, page.Journey.Rows, 2)
}

func TestAttributionFunnelMissingAuxiliary(t *testing.T) {
	svc, _ := newTestDashboard(t, dataset.FunnelData, dataset.CorrelationMatrix)

	page, err := svc.AttributionFunnel(context.Background())
	require.NoError(t, err)

	assert.NotNil(t, page.Attribution)
	assert.Nil(t, page.Funnel)
	assert.Nil(t, page.Correlation)
	assert.True(t, hasNotice(page.Notices, dataset.FunnelData, NoticeNotFound))
	assert.True(t, hasNotice(page.Notices, dataset.CorrelationMatrix, NoticeNotFound))
}

func TestEmptyDataDirectoryRendersEveryPage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	loader := dataset.NewLoader(t.TempDir(), dataset.NewCache(), dataset.WithLogger(logger))
	svc := NewDashboardService(loader, nil, logger)

	req := api.PageRequest{Granularity: "weekly", Threshold: 0.5, Top: 10}
	for _, p := range Pages() {
		t.Run(string(p), func(t *testing.T) {
			resp, err := svc.Render(context.Background(), string(p), req)
			require.NoError(t, err)
			assert.Positive(t, resp.NoticeCount())
		})
	}
}

func TestRenderValidatesParameters(t *testing.T) {
	svc, _ := newTestDashboard(t)
	ctx := context.Background()

	_, err := svc.Render(ctx, "ml-evaluation", api.PageRequest{Threshold: 1.5})
	assert.ErrorIs(t, err, scoring.ErrInvalidThreshold)

	_, err = svc.Render(ctx, "executive-overview", api.PageRequest{Granularity: "yearly"})
	assert.ErrorIs(t, err, table.ErrInvalidGranularity)

	_, err = svc.Render(ctx, "nope", api.PageRequest{})
	assert.ErrorIs(t, err, ErrUnknownPage)
}

func TestRenderCancelledContext(t *testing.T) {
	svc, _ := newTestDashboard(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Render(ctx, "customer-insights", api.PageRequest{Granularity: "weekly"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoFollowsReloads(t *testing.T) {
	svc, dir := newTestDashboard(t)
	ctx := context.Background()

	first, err := svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)
	_, err = svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 1, svc.memo.Len())

	path := testutil.WriteFile(t, dir, "geographic_data.csv", testutil.GeographicCSV+"Ohio,5000,10,2.0,1.0\n")
	testutil.Touch(t, path, time.Now().Add(time.Hour))

	second, err := svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 125000.0, first.Totals.Revenue)
	assert.Equal(t, 130000.0, second.Totals.Revenue)
	assert.Equal(t, 1, svc.memo.Len())

	svc.ClearMemo()
	assert.Equal(t, 0, svc.memo.Len())
}

func TestMemoIgnoresSectionsFromBeforeReload(t *testing.T) {
	svc, dir := newTestDashboard(t)
	ctx := context.Background()

	_, err := svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)

	// a render that read the version and its table before the file changed
	stale := svc.loader.Version()
	old, err := svc.loader.Geography(ctx)
	require.NoError(t, err)
	staleSections := func() geoSections {
		return geoSections{totals: &GeoTotals{Revenue: table.Sum(old, func(g domain.GeographicMetric) float64 { return g.Revenue })}}
	}

	path := testutil.WriteFile(t, dir, "geographic_data.csv", testutil.GeographicCSV+"Ohio,5000,10,2.0,1.0\n")
	testutil.Touch(t, path, time.Now().Add(time.Hour))
	_, err = svc.loader.Geography(ctx)
	require.NoError(t, err)
	require.Greater(t, svc.loader.Version(), stale)

	key := fmt.Sprintf("%s|%d|%s", PageGeographicAnalysis, 3, presence(true))

	// the slow render finishes after the reload
	sec := memoized(svc, stale, key, staleSections)
	assert.Equal(t, 125000.0, sec.totals.Revenue)

	page, err := svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 130000.0, page.Totals.Revenue)

	// finishing after a newer render must not displace it
	sec = memoized(svc, stale, key, staleSections)
	assert.Equal(t, 125000.0, sec.totals.Revenue)
	assert.Equal(t, 1, svc.memo.Len())

	page, err = svc.GeographicAnalysis(ctx, 3)
	require.NoError(t, err)
	assert.Equal(t, 130000.0, page.Totals.Revenue)
}

func TestCampaignFilterKeyFoldsChannels(t *testing.T) {
	a := CampaignFilter{Channels: []string{"Email", " search", "email"}, Granularity: table.Weekly}
	b := CampaignFilter{Channels: []string{"SEARCH", "email"}, Granularity: table.Weekly}
	assert.Equal(t, a.key(), b.key())

	c := CampaignFilter{Channels: []string{"social"}, Granularity: table.Weekly}
	assert.NotEqual(t, a.key(), c.key())
}

func TestMemoStaysBounded(t *testing.T) {
	svc, _ := newTestDashboard(t)
	ctx := context.Background()

	for i := 0; i < maxMemoEntries+20; i++ {
		_, err := svc.MLEvaluation(ctx, float64(i)/float64(maxMemoEntries+20))
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, svc.memo.Len(), maxMemoEntries)
}
