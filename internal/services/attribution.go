package services

import (
	"context"
	"math"

	"mktpulse/internal/dataset"
	"mktpulse/internal/derive"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// strongCorrelation is the absolute coefficient above which a pair of
// metrics is highlighted.
const strongCorrelation = 0.7

// AttributionRow is the credit each attribution model gives one channel.
type AttributionRow struct {
	Channel string             `json:"channel"`
	Credits map[string]float64 `json:"credits"`
	// Spread is the sample standard deviation of the credits.
	Spread float64 `json:"spread"`
}

// Attribution compares attribution models across channels.
type Attribution struct {
	Models           []string         `json:"models"`
	Channels         []AttributionRow `json:"channels"`
	MostInconsistent string           `json:"most_inconsistent_channel"`
}

// FunnelStage is one step of the marketing funnel. Percentages are 0-100.
type FunnelStage struct {
	Stage          string  `json:"stage"`
	Visitors       float64 `json:"visitors"`
	DropOff        float64 `json:"drop_off_pct"`
	CumulativeDrop float64 `json:"cumulative_drop_pct"`
}

// Funnel is the ordered funnel with its headline figures.
type Funnel struct {
	Stages            []FunnelStage `json:"stages"`
	TotalVisitors     float64       `json:"total_visitors"`
	OverallConversion float64       `json:"overall_conversion_pct"`
	BiggestDropStage  string        `json:"biggest_drop_stage"`
	BiggestDrop       float64       `json:"biggest_drop_pct"`
}

// CorrelationPair is a strongly correlated pair of metrics.
type CorrelationPair struct {
	A     string  `json:"a"`
	B     string  `json:"b"`
	Value float64 `json:"value"`
}

// Correlation is the metric correlation heatmap.
type Correlation struct {
	Labels []string          `json:"labels"`
	Matrix [][]float64       `json:"matrix"`
	Strong []CorrelationPair `json:"strong"`
}

// AttributionFunnel is the attribution and funnel page.
type AttributionFunnel struct {
	Envelope
	Attribution *Attribution `json:"attribution"`
	Funnel      *Funnel      `json:"funnel"`
	Correlation *Correlation `json:"correlation"`
	Journey     *PassThrough `json:"customer_journey"`
}

// AttributionFunnel renders the attribution model comparison, the funnel
// with drop-offs, the correlation matrix and the customer journey.
func (s *DashboardService) AttributionFunnel(ctx context.Context) (*AttributionFunnel, error) {
	out := &AttributionFunnel{Envelope: s.envelope(PageAttributionFunnel)}

	version := s.loader.Version()
	attribution := s.auxiliary(ctx, &out.Envelope, dataset.ChannelAttribution)
	funnel := s.auxiliary(ctx, &out.Envelope, dataset.FunnelData)
	correlation := s.auxiliary(ctx, &out.Envelope, dataset.CorrelationMatrix)
	journey := s.auxiliary(ctx, &out.Envelope, dataset.CustomerJourney)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := string(PageAttributionFunnel) + "|" + presence(attribution != nil, funnel != nil, correlation != nil, journey != nil)
	sec := memoized(s, version, key, func() AttributionFunnel {
		var sec AttributionFunnel
		if attribution != nil {
			sec.Attribution = attributionModels(attribution)
		}
		if funnel != nil {
			sec.Funnel = funnelStages(funnel)
		}
		if correlation != nil {
			sec.Correlation = correlationMatrix(correlation)
		}
		if journey != nil {
			sec.Journey = passThrough(journey)
		}
		return sec
	})

	out.Attribution = sec.Attribution
	out.Funnel = sec.Funnel
	out.Correlation = sec.Correlation
	out.Journey = sec.Journey
	return out, nil
}

func attributionModels(t *table.Table[domain.AuxRecord]) *Attribution {
	channel := column(t, "channel", 0)
	models := otherColumns(t, channel)

	out := &Attribution{Models: make([]string, 0, len(models)), Channels: make([]AttributionRow, 0, t.Len())}
	for _, i := range models {
		out.Models = append(out.Models, t.Columns[i])
	}

	widest := -1.0
	for _, r := range t.Rows {
		row := AttributionRow{Channel: cell(r, channel), Credits: make(map[string]float64, len(models))}
		values := make([]float64, 0, len(models))
		for _, i := range models {
			v := number(r, i)
			row.Credits[t.Columns[i]] = v
			values = append(values, v)
		}
		row.Spread = sampleStdDev(values)
		if row.Spread > widest {
			widest = row.Spread
			out.MostInconsistent = row.Channel
		}
		out.Channels = append(out.Channels, row)
	}
	return out
}

func sampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var mean float64
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / float64(len(values)-1))
}

// funnelStages orders stages by visitors, widest first, and computes the
// drop-off from the previous stage and from the top of the funnel.
func funnelStages(t *table.Table[domain.AuxRecord]) *Funnel {
	stage := column(t, "stage", 0)
	visitors := column(t, "visitors", 1)

	rows := table.Map(t, []string{"stage", "visitors"}, func(r domain.AuxRecord) FunnelStage {
		return FunnelStage{Stage: cell(r, stage), Visitors: number(r, visitors)}
	})
	sorted := table.SortBy(rows, func(a, b FunnelStage) bool { return a.Visitors > b.Visitors }).Rows

	out := &Funnel{Stages: sorted}
	if len(sorted) == 0 {
		out.Stages = []FunnelStage{}
		return out
	}

	top := sorted[0].Visitors
	out.TotalVisitors = top
	for i := range sorted {
		sorted[i].CumulativeDrop = (1 - derive.SafeDiv(sorted[i].Visitors, top)) * 100
		if i == 0 {
			continue
		}
		prev := sorted[i-1].Visitors
		sorted[i].DropOff = derive.SafeDiv(prev-sorted[i].Visitors, prev) * 100
		if out.BiggestDropStage == "" || sorted[i].DropOff > out.BiggestDrop {
			out.BiggestDropStage = sorted[i].Stage
			out.BiggestDrop = sorted[i].DropOff
		}
	}
	out.OverallConversion = derive.SafeDiv(sorted[len(sorted)-1].Visitors, top) * 100
	return out
}

// correlationMatrix reads a square matrix whose first column holds the row
// labels and whose header holds the column labels.
func correlationMatrix(t *table.Table[domain.AuxRecord]) *Correlation {
	out := &Correlation{Labels: []string{}, Matrix: [][]float64{}, Strong: []CorrelationPair{}}
	if len(t.Columns) < 2 {
		return out
	}
	out.Labels = append(out.Labels, t.Columns[1:]...)

	for _, r := range t.Rows {
		row := make([]float64, len(out.Labels))
		for j := range row {
			row[j] = number(r, j+1)
		}
		out.Matrix = append(out.Matrix, row)
	}

	n := min(len(out.Matrix), len(out.Labels))
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if v := out.Matrix[i][j]; math.Abs(v) > strongCorrelation {
				out.Strong = append(out.Strong, CorrelationPair{A: out.Labels[i], B: out.Labels[j], Value: v})
			}
		}
	}
	return out
}
