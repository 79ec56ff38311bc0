package services

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
	api "mktpulse/pkg/contracts/api/v1"
	"mktpulse/pkg/contracts/domain"
)

// CampaignFilter narrows the campaign analytics page. Zero values disable a
// criterion; From and To are inclusive.
type CampaignFilter struct {
	Channels    []string
	From        time.Time
	To          time.Time
	Granularity table.Granularity
}

// CampaignFilterFrom builds a filter from page query parameters
func CampaignFilterFrom(req api.PageRequest) (CampaignFilter, error) {
	g, err := table.ParseGranularity(req.Granularity)
	if err != nil {
		return CampaignFilter{}, err
	}
	f := CampaignFilter{Channels: req.Channels, Granularity: g}
	if req.From != "" {
		if f.From, err = time.Parse(dataset.DateLayout, req.From); err != nil {
			return CampaignFilter{}, fmt.Errorf("%w: from: %v", ErrInvalidInput, err)
		}
	}
	if req.To != "" {
		if f.To, err = time.Parse(dataset.DateLayout, req.To); err != nil {
			return CampaignFilter{}, fmt.Errorf("%w: to: %v", ErrInvalidInput, err)
		}
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return CampaignFilter{}, fmt.Errorf("%w: to is before from", ErrInvalidInput)
	}
	return f, nil
}

// key identifies the filter for memoization. Channels match
// case-insensitively, so they are folded, sorted and deduplicated.
func (f CampaignFilter) key() string {
	channels := make([]string, 0, len(f.Channels))
	for _, ch := range f.Channels {
		channels = append(channels, strings.ToLower(strings.TrimSpace(ch)))
	}
	slices.Sort(channels)
	channels = slices.Compact(channels)
	return fmt.Sprintf("%s|%s|%s|%s", strings.Join(channels, ","),
		f.From.Format(dataset.DateLayout), f.To.Format(dataset.DateLayout), f.Granularity)
}

func (f CampaignFilter) match(c domain.CampaignPerformance) bool {
	if len(f.Channels) > 0 && !slices.ContainsFunc(f.Channels, func(ch string) bool {
		return strings.EqualFold(strings.TrimSpace(ch), c.Channel)
	}) {
		return false
	}
	if !f.From.IsZero() && c.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && c.Date.After(f.To) {
		return false
	}
	return true
}

// ChannelSeries is the resampled revenue of one channel.
type ChannelSeries struct {
	Channel string        `json:"channel"`
	Points  []table.Point `json:"points"`
}

// CampaignAnalytics is the campaign drill-down page.
type CampaignAnalytics struct {
	Envelope
	Granularity       table.Granularity  `json:"granularity"`
	AvailableChannels []string           `json:"available_channels"`
	Rows              int                `json:"rows"`
	Totals            *KPIs              `json:"totals"`
	RevenueTrend      []ChannelSeries    `json:"revenue_trend"`
	RegionQuarter     []table.GroupTotal `json:"revenue_by_region_quarter"`
	SpendByTypeMonth  []table.GroupTotal `json:"spend_by_type_month"`
	Channels          []ChannelSummary   `json:"channels"`
}

type campaignSections struct {
	available []string
	rows      int
	totals    *KPIs
	trend     []ChannelSeries
	region    []table.GroupTotal
	spend     []table.GroupTotal
	channels  []ChannelSummary
}

// CampaignAnalytics renders per-channel trends, regional and campaign type
// breakdowns and channel detail metrics for the rows matching filter.
func (s *DashboardService) CampaignAnalytics(ctx context.Context, filter CampaignFilter) (*CampaignAnalytics, error) {
	if filter.Granularity == "" {
		filter.Granularity = table.Weekly
	}
	out := &CampaignAnalytics{Envelope: s.envelope(PageCampaignAnalytics), Granularity: filter.Granularity}

	version := s.loader.Version()
	campaigns, err := s.loader.Campaigns(ctx)
	campaigns = track(&out.Envelope, dataset.CampaignPerformance, campaigns, err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := string(PageCampaignAnalytics) + "|" + filter.key() + "|" + presence(campaigns != nil)
	sec := memoized(s, version, key, func() campaignSections {
		var sec campaignSections
		if campaigns == nil {
			return sec
		}
		sec.available = distinct(campaigns, campaignChannel)

		filtered := table.Filter(campaigns, filter.match)
		sec.rows = filtered.Len()
		sec.channels = channelSummaries(filtered)
		sec.totals = campaignKPIs(filtered, sec.channels)

		for _, ch := range distinct(filtered, campaignChannel) {
			only := table.Filter(filtered, func(c domain.CampaignPerformance) bool { return c.Channel == ch })
			points, err := table.Resample(only, campaignDate, campaignRevenue, filter.Granularity)
			if err != nil {
				continue
			}
			sec.trend = append(sec.trend, ChannelSeries{Channel: ch, Points: nonNil(points.Rows)})
		}

		sec.region = table.GroupAndSum(filtered, []func(domain.CampaignPerformance) string{
			func(c domain.CampaignPerformance) string { return c.Region },
			func(c domain.CampaignPerformance) string { return quarterLabel(c.Date) },
		}, campaignRevenue).Rows
		sec.spend = table.GroupAndSum(filtered, []func(domain.CampaignPerformance) string{
			func(c domain.CampaignPerformance) string { return c.CampaignType },
			func(c domain.CampaignPerformance) string { return c.Date.Format("2006-01") },
		}, campaignSpend).Rows
		return sec
	})

	out.AvailableChannels = nonNil(sec.available)
	out.Rows = sec.rows
	out.Totals = sec.totals
	out.RevenueTrend = nonNil(sec.trend)
	out.RegionQuarter = nonNil(sec.region)
	out.SpendByTypeMonth = nonNil(sec.spend)
	out.Channels = nonNil(sec.channels)
	return out, nil
}

// quarterLabel renders a date as "2024-Q1".
func quarterLabel(d time.Time) string {
	return fmt.Sprintf("%d-Q%d", d.Year(), (int(d.Month())-1)/3+1)
}

// distinct returns the sorted distinct values of key.
func distinct[T any](t *table.Table[T], key func(T) string) []string {
	seen := make(map[string]bool)
	var out []string
	if t == nil {
		return out
	}
	for _, row := range t.Rows {
		k := key(row)
		if !seen[k] {
			seen[k] = true
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}
