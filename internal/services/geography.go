package services

import (
	"context"
	"fmt"

	"mktpulse/internal/dataset"
	"mktpulse/internal/derive"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// GeoTotals are the headline geographic figures.
type GeoTotals struct {
	Revenue            float64 `json:"revenue"`
	Customers          int64   `json:"customers"`
	RevenuePerCustomer float64 `json:"revenue_per_customer"`
	AvgPenetration     float64 `json:"avg_penetration_rate"`
	AvgGrowth          float64 `json:"avg_yoy_growth"`
}

// GeographicAnalysis is the regional page.
type GeographicAnalysis struct {
	Envelope
	Top          int                       `json:"top"`
	Totals       *GeoTotals                `json:"totals"`
	States       []domain.GeographicMetric `json:"states"`
	TopByRevenue []domain.GeographicMetric `json:"top_by_revenue"`
	TopByGrowth  []domain.GeographicMetric `json:"top_by_growth"`
}

type geoSections struct {
	totals  *GeoTotals
	states  []domain.GeographicMetric
	revenue []domain.GeographicMetric
	growth  []domain.GeographicMetric
}

// GeographicAnalysis renders revenue per state, the leading states by
// revenue and by year-over-year growth, and totals.
func (s *DashboardService) GeographicAnalysis(ctx context.Context, topN int) (*GeographicAnalysis, error) {
	out := &GeographicAnalysis{Envelope: s.envelope(PageGeographicAnalysis), Top: topN}

	version := s.loader.Version()
	geo, err := s.loader.Geography(ctx)
	geo = track(&out.Envelope, dataset.GeographicData, geo, err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%d|%s", PageGeographicAnalysis, topN, presence(geo != nil))
	sec := memoized(s, version, key, func() geoSections {
		var sec geoSections
		if geo == nil {
			return sec
		}
		revenue := func(g domain.GeographicMetric) float64 { return g.Revenue }
		customers := table.Sum(geo, func(g domain.GeographicMetric) float64 { return float64(g.Customers) })

		sec.totals = &GeoTotals{
			Revenue:            table.Sum(geo, revenue),
			Customers:          int64(customers),
			RevenuePerCustomer: derive.SafeDiv(table.Sum(geo, revenue), customers),
			AvgPenetration:     table.Mean(geo, func(g domain.GeographicMetric) float64 { return g.PenetrationRate }),
			AvgGrowth:          table.Mean(geo, func(g domain.GeographicMetric) float64 { return g.YoYGrowth }),
		}
		sec.states = table.TopN(geo, revenue, geo.Len()).Rows
		sec.revenue = table.TopN(geo, revenue, topN).Rows
		sec.growth = table.TopN(geo, func(g domain.GeographicMetric) float64 { return g.YoYGrowth }, topN).Rows
		return sec
	})

	out.Totals = sec.totals
	out.States = nonNil(sec.states)
	out.TopByRevenue = nonNil(sec.revenue)
	out.TopByGrowth = nonNil(sec.growth)
	return out, nil
}
