package services

import (
	"context"
	"math"
	"slices"
	"sort"

	"mktpulse/internal/dataset"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// ageBinWidth is the width of the age histogram buckets in years.
const ageBinWidth = 10

// SegmentSummary describes one customer segment.
type SegmentSummary struct {
	Segment    string  `json:"segment"`
	Customers  int     `json:"customers"`
	MeanAge    float64 `json:"mean_age"`
	MeanIncome float64 `json:"mean_income"`
	MeanLTV    float64 `json:"mean_lifetime_value"`
	ChurnRate  float64 `json:"churn_rate"`
}

// AgeBin counts customers with Lower <= age < Upper.
type AgeBin struct {
	Lower int64 `json:"lower"`
	Upper int64 `json:"upper"`
	Count int   `json:"count"`
}

// ScatterPoint is one customer on the income vs lifetime value chart.
type ScatterPoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Label string  `json:"label"`
}

// Breakdown counts customers per category of an optional column.
type Breakdown struct {
	Category  string `json:"category"`
	Customers int    `json:"customers"`
}

// CustomerInsights is the customer segmentation page.
type CustomerInsights struct {
	Envelope
	Customers          int              `json:"customers"`
	ChurnRate          float64          `json:"churn_rate"`
	AvgSatisfaction    float64          `json:"avg_satisfaction"`
	AvgPurchases       *float64         `json:"avg_purchases,omitempty"`
	AvgEngagement      *float64         `json:"avg_engagement,omitempty"`
	Segments           []SegmentSummary `json:"segments"`
	AgeHistogram       []AgeBin         `json:"age_histogram"`
	IncomeVsLTV        []ScatterPoint   `json:"income_vs_ltv"`
	AcquisitionChannel []Breakdown      `json:"acquisition_channels,omitempty"`
	NPS                []Breakdown      `json:"nps,omitempty"`
}

// CustomerInsights renders segment statistics, churn, the age distribution
// and the income vs lifetime value scatter. Figures from optional columns
// are included only when the file carries them.
func (s *DashboardService) CustomerInsights(ctx context.Context) (*CustomerInsights, error) {
	out := &CustomerInsights{Envelope: s.envelope(PageCustomerInsights)}

	version := s.loader.Version()
	customers, err := s.loader.Customers(ctx)
	customers = track(&out.Envelope, dataset.CustomerData, customers, err)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := string(PageCustomerInsights) + "|" + presence(customers != nil)
	sec := memoized(s, version, key, func() CustomerInsights {
		var sec CustomerInsights
		if customers == nil {
			return sec
		}
		sec.Customers = customers.Len()
		sec.ChurnRate = churnRate(customers)
		sec.AvgSatisfaction = table.Mean(customers, func(c domain.CustomerRecord) float64 { return c.SatisfactionScore })
		sec.Segments = segmentSummaries(customers)
		sec.AgeHistogram = ageHistogram(customers)
		sec.IncomeVsLTV = make([]ScatterPoint, 0, customers.Len())
		for _, c := range customers.Rows {
			sec.IncomeVsLTV = append(sec.IncomeVsLTV, ScatterPoint{X: c.Income, Y: c.LifetimeValue, Label: c.Segment})
		}

		if slices.Contains(customers.Columns, "number_of_purchases") {
			v := table.Mean(customers, func(c domain.CustomerRecord) float64 { return float64(c.NumberOfPurchases) })
			sec.AvgPurchases = &v
		}
		if slices.Contains(customers.Columns, "engagement_score") {
			v := table.Mean(customers, func(c domain.CustomerRecord) float64 { return c.EngagementScore })
			sec.AvgEngagement = &v
		}
		if slices.Contains(customers.Columns, "acquisition_channel") {
			sec.AcquisitionChannel = breakdown(customers, func(c domain.CustomerRecord) string { return c.AcquisitionChannel })
		}
		if slices.Contains(customers.Columns, "nps_category") {
			sec.NPS = breakdown(customers, func(c domain.CustomerRecord) string { return c.NPSCategory })
		}
		return sec
	})

	env := out.Envelope
	*out = sec
	out.Envelope = env
	out.Segments = nonNil(out.Segments)
	out.AgeHistogram = nonNil(out.AgeHistogram)
	out.IncomeVsLTV = nonNil(out.IncomeVsLTV)
	return out, nil
}

func churned(c domain.CustomerRecord) bool { return c.ChurnFlag }

func churnRate(t *table.Table[domain.CustomerRecord]) float64 {
	if t.Len() == 0 {
		return 0
	}
	return float64(table.Count(t, churned)) / float64(t.Len())
}

func segmentSummaries(t *table.Table[domain.CustomerRecord]) []SegmentSummary {
	bySegment := []func(domain.CustomerRecord) string{func(c domain.CustomerRecord) string { return c.Segment }}
	mean := func(v func(domain.CustomerRecord) float64) []table.GroupTotal {
		return table.GroupAndMean(t, bySegment, v).Rows
	}

	age := mean(customerAge)
	income := mean(func(c domain.CustomerRecord) float64 { return c.Income })
	ltv := mean(customerLTV)
	churn := mean(func(c domain.CustomerRecord) float64 {
		if c.ChurnFlag {
			return 1
		}
		return 0
	})

	out := make([]SegmentSummary, len(age))
	for i, g := range age {
		out[i] = SegmentSummary{
			Segment:    g.Keys[0],
			Customers:  g.Count,
			MeanAge:    g.Value,
			MeanIncome: income[i].Value,
			MeanLTV:    ltv[i].Value,
			ChurnRate:  churn[i].Value,
		}
	}
	return out
}

// ageHistogram buckets ages into ageBinWidth-year bins from the youngest to
// the oldest customer.
func ageHistogram(t *table.Table[domain.CustomerRecord]) []AgeBin {
	if t.Len() == 0 {
		return nil
	}
	lo, hi := int64(math.MaxInt64), int64(math.MinInt64)
	for _, c := range t.Rows {
		lo = min(lo, c.Age)
		hi = max(hi, c.Age)
	}
	lo = lo / ageBinWidth * ageBinWidth

	var bins []AgeBin
	for start := lo; start <= hi; start += ageBinWidth {
		bins = append(bins, AgeBin{Lower: start, Upper: start + ageBinWidth})
	}
	for _, c := range t.Rows {
		bins[(c.Age-lo)/ageBinWidth].Count++
	}
	return bins
}

// breakdown counts rows per non-empty category, largest first.
func breakdown(t *table.Table[domain.CustomerRecord], key func(domain.CustomerRecord) string) []Breakdown {
	present := table.Filter(t, func(c domain.CustomerRecord) bool { return key(c) != "" })
	groups := table.GroupAndSum(present, []func(domain.CustomerRecord) string{key},
		func(domain.CustomerRecord) float64 { return 1 })

	out := make([]Breakdown, 0, groups.Len())
	for _, g := range groups.Rows {
		out = append(out, Breakdown{Category: g.Keys[0], Customers: g.Count})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Customers > out[j].Customers })
	return out
}
