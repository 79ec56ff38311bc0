package services

import (
	"context"
	"sort"
	"time"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// KPIs are the headline campaign figures.
type KPIs struct {
	TotalRevenue      float64 `json:"total_revenue"`
	TotalSpend        float64 `json:"total_spend"`
	TotalConversions  int64   `json:"total_conversions"`
	TotalImpressions  int64   `json:"total_impressions"`
	AvgROAS           float64 `json:"avg_roas"`
	AvgCTR            float64 `json:"avg_ctr"`
	AvgCPA            float64 `json:"avg_cpa"`
	TopChannel        string  `json:"top_channel"`
	TopChannelRevenue float64 `json:"top_channel_revenue"`
}

// ChannelSummary aggregates campaign rows of one channel.
type ChannelSummary struct {
	Channel     string  `json:"channel"`
	Revenue     float64 `json:"revenue"`
	Spend       float64 `json:"spend"`
	Conversions int64   `json:"conversions"`
	Impressions int64   `json:"impressions"`
	Clicks      int64   `json:"clicks"`
	AvgCTR      float64 `json:"avg_ctr"`
	AvgROAS     float64 `json:"avg_roas"`
}

// CustomerSnapshot summarizes the customer base on the overview page.
type CustomerSnapshot struct {
	Customers       int     `json:"customers"`
	AvgAge          float64 `json:"avg_age"`
	AvgLifetimeVal  float64 `json:"avg_lifetime_value"`
	AvgSatisfaction float64 `json:"avg_satisfaction"`
}

// ExecutiveOverview is the landing page.
type ExecutiveOverview struct {
	Envelope
	Granularity  table.Granularity `json:"granularity"`
	KPIs         *KPIs             `json:"kpis"`
	RevenueTrend []table.Point     `json:"revenue_trend"`
	Channels     []ChannelSummary  `json:"channels"`
	Customers    *CustomerSnapshot `json:"customers"`
}

type overviewSections struct {
	kpis      *KPIs
	trend     []table.Point
	channels  []ChannelSummary
	customers *CustomerSnapshot
}

// ExecutiveOverview renders KPIs, the revenue trend at granularity g, the
// channel summary and a customer snapshot.
func (s *DashboardService) ExecutiveOverview(ctx context.Context, g table.Granularity) (*ExecutiveOverview, error) {
	out := &ExecutiveOverview{Envelope: s.envelope(PageExecutiveOverview), Granularity: g}

	version := s.loader.Version()
	campaigns, err := s.loader.Campaigns(ctx)
	campaigns = track(&out.Envelope, dataset.CampaignPerformance, campaigns, err)
	customers, err := s.loader.Customers(ctx)
	customers = track(&out.Envelope, dataset.CustomerData, customers, err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := string(PageExecutiveOverview) + "|" + string(g) + "|" + presence(campaigns != nil, customers != nil)
	sec := memoized(s, version, key, func() overviewSections {
		var sec overviewSections
		if campaigns != nil {
			sec.channels = channelSummaries(campaigns)
			sec.kpis = campaignKPIs(campaigns, sec.channels)
			if trend, err := table.Resample(campaigns, campaignDate, campaignRevenue, g); err == nil {
				sec.trend = trend.Rows
			}
		}
		if customers != nil {
			sec.customers = &CustomerSnapshot{
				Customers:       customers.Len(),
				AvgAge:          table.Mean(customers, customerAge),
				AvgLifetimeVal:  table.Mean(customers, customerLTV),
				AvgSatisfaction: table.Mean(customers, func(c domain.CustomerRecord) float64 { return c.SatisfactionScore }),
			}
		}
		return sec
	})

	out.KPIs = sec.kpis
	out.RevenueTrend = nonNil(sec.trend)
	out.Channels = nonNil(sec.channels)
	out.Customers = sec.customers
	return out, nil
}

func campaignKPIs(t *table.Table[domain.CampaignPerformance], channels []ChannelSummary) *KPIs {
	k := &KPIs{
		TotalRevenue:     table.Sum(t, campaignRevenue),
		TotalSpend:       table.Sum(t, campaignSpend),
		TotalConversions: int64(table.Sum(t, campaignConversions)),
		TotalImpressions: int64(table.Sum(t, campaignImpressions)),
		AvgROAS:          table.Mean(t, func(c domain.CampaignPerformance) float64 { return c.ROAS }),
		AvgCTR:           table.Mean(t, func(c domain.CampaignPerformance) float64 { return c.CTR }),
		AvgCPA:           table.Mean(t, func(c domain.CampaignPerformance) float64 { return c.CPA }),
	}
	if len(channels) > 0 {
		k.TopChannel = channels[0].Channel
		k.TopChannelRevenue = channels[0].Revenue
	}
	return k
}

// channelSummaries groups campaigns by channel, highest revenue first.
func channelSummaries(t *table.Table[domain.CampaignPerformance]) []ChannelSummary {
	byChannel := []func(domain.CampaignPerformance) string{campaignChannel}
	sum := func(v func(domain.CampaignPerformance) float64) []table.GroupTotal {
		return table.GroupAndSum(t, byChannel, v).Rows
	}
	mean := func(v func(domain.CampaignPerformance) float64) []table.GroupTotal {
		return table.GroupAndMean(t, byChannel, v).Rows
	}

	// every grouping sees the same keys in the same order
	revenue := sum(campaignRevenue)
	spend := sum(campaignSpend)
	conversions := sum(campaignConversions)
	impressions := sum(campaignImpressions)
	clicks := sum(func(c domain.CampaignPerformance) float64 { return float64(c.Clicks) })
	ctr := mean(func(c domain.CampaignPerformance) float64 { return c.CTR })
	roas := mean(func(c domain.CampaignPerformance) float64 { return c.ROAS })

	out := make([]ChannelSummary, len(revenue))
	for i, g := range revenue {
		out[i] = ChannelSummary{
			Channel:     g.Keys[0],
			Revenue:     g.Value,
			Spend:       spend[i].Value,
			Conversions: int64(conversions[i].Value),
			Impressions: int64(impressions[i].Value),
			Clicks:      int64(clicks[i].Value),
			AvgCTR:      ctr[i].Value,
			AvgROAS:     roas[i].Value,
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Revenue > out[j].Revenue })
	return out
}

func campaignDate(c domain.CampaignPerformance) time.Time  { return c.Date }
func campaignChannel(c domain.CampaignPerformance) string  { return c.Channel }
func campaignRevenue(c domain.CampaignPerformance) float64 { return c.Revenue }
func campaignSpend(c domain.CampaignPerformance) float64   { return c.Spend }
func campaignConversions(c domain.CampaignPerformance) float64 {
	return float64(c.Conversions)
}
func campaignImpressions(c domain.CampaignPerformance) float64 {
	return float64(c.Impressions)
}

func customerAge(c domain.CustomerRecord) float64 { return float64(c.Age) }
func customerLTV(c domain.CustomerRecord) float64 { return c.LifetimeValue }

// nonNil keeps empty sections as [] rather than null in JSON.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
