package services

import (
	"context"
	"errors"
	"fmt"
	"math"

	"mktpulse/internal/dataset"
	"mktpulse/internal/scoring"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

// histogramBins is the number of probability distribution buckets.
const histogramBins = 10

// ProbabilitySummary describes the predicted probabilities.
type ProbabilitySummary struct {
	Count     int     `json:"count"`
	Positives int     `json:"positives"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// FeatureWeight is one row of the feature importance chart.
type FeatureWeight struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// MLEvaluation is the lead scoring model page.
type MLEvaluation struct {
	Envelope
	Threshold         float64             `json:"threshold"`
	Confusion         *scoring.Confusion  `json:"confusion"`
	Matrix            *[2][2]int          `json:"matrix"`
	Metrics           *scoring.Metrics    `json:"metrics"`
	ModelConfusion    *scoring.Confusion  `json:"model_confusion"`
	ROC               []scoring.ROCPoint  `json:"roc"`
	AUC               *float64            `json:"auc"`
	Distribution      []scoring.Bin       `json:"distribution"`
	Probability       *ProbabilitySummary `json:"probability"`
	FeatureImportance []FeatureWeight     `json:"feature_importance"`
	LearningCurve     *PassThrough        `json:"learning_curve"`
}

type mlSections struct {
	MLEvaluation
	notices []Notice
}

// MLEvaluation renders the confusion matrix and metrics at threshold, the
// ROC curve with its AUC, the probability distribution, feature importance
// and the learning curve.
func (s *DashboardService) MLEvaluation(ctx context.Context, threshold float64) (*MLEvaluation, error) {
	if err := scoring.ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	out := &MLEvaluation{Envelope: s.envelope(PageMLEvaluation), Threshold: threshold}

	version := s.loader.Version()
	leads, err := s.loader.Leads(ctx)
	leads = track(&out.Envelope, dataset.LeadScoringResults, leads, err)
	features := s.auxiliary(ctx, &out.Envelope, dataset.FeatureImportance)
	curve := s.auxiliary(ctx, &out.Envelope, dataset.LearningCurve)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s|%g|%s", PageMLEvaluation, threshold, presence(leads != nil, features != nil, curve != nil))
	sec := memoized(s, version, key, func() mlSections {
		var sec mlSections
		if leads != nil {
			sec.notices = evaluateLeads(&sec.MLEvaluation, leads, threshold)
		}
		if features != nil {
			weights, ok := featureWeights(features)
			if !ok {
				sec.notices = append(sec.notices, Notice{
					Dataset: dataset.FeatureImportance,
					Kind:    NoticeSchemaMismatch,
					Message: "feature importance needs a feature and an importance column",
				})
			}
			sec.FeatureImportance = weights
		}
		if curve != nil {
			sec.LearningCurve = passThrough(curve)
		}
		return sec
	})

	env := out.Envelope
	*out = sec.MLEvaluation
	out.Envelope = env
	out.Threshold = threshold
	for _, n := range sec.notices {
		out.add(n)
	}
	out.ROC = nonNil(out.ROC)
	out.Distribution = nonNil(out.Distribution)
	out.FeatureImportance = nonNil(out.FeatureImportance)
	return out, nil
}

func evaluateLeads(out *MLEvaluation, leads *table.Table[domain.LeadScore], threshold float64) []Notice {
	var notices []Notice
	labels, scores, predicted := scoring.Split(leads)

	if c, err := scoring.ConfusionAt(labels, scores, threshold); err == nil {
		m := c.Metrics()
		matrix := c.Matrix()
		out.Confusion, out.Metrics, out.Matrix = &c, &m, &matrix
	}
	if c, err := scoring.ConfusionFromLabels(labels, predicted); err == nil {
		out.ModelConfusion = &c
	}

	roc, err := scoring.ROC(labels, scores)
	switch {
	case errors.Is(err, scoring.ErrSingleClass):
		notices = append(notices, Notice{
			Dataset: dataset.LeadScoringResults,
			Kind:    NoticeInsufficientData,
			Message: "ROC curve needs both converted and non-converted leads",
		})
	case err == nil:
		auc := scoring.AUC(roc)
		out.ROC, out.AUC = roc, &auc
	}

	out.Distribution, _ = scoring.Histogram(labels, scores, histogramBins)

	if len(scores) > 0 {
		sum := &ProbabilitySummary{Count: len(scores), Min: math.Inf(1), Max: math.Inf(-1)}
		for i, p := range scores {
			sum.Mean += p
			sum.Min = min(sum.Min, p)
			sum.Max = max(sum.Max, p)
			if labels[i] == 1 {
				sum.Positives++
			}
		}
		sum.Mean /= float64(len(scores))
		out.Probability = sum
	}
	return notices
}

// featureWeights reads the feature and importance columns, most important
// first. The first two columns are used when the names differ.
func featureWeights(t *table.Table[domain.AuxRecord]) ([]FeatureWeight, bool) {
	name := column(t, "feature", 0)
	weight := column(t, "importance", 1)
	if name < 0 || weight < 0 || name == weight {
		return nil, false
	}

	weights := table.Map(t, []string{"feature", "importance"}, func(r domain.AuxRecord) FeatureWeight {
		return FeatureWeight{Feature: cell(r, name), Importance: number(r, weight)}
	})
	sorted := table.SortBy(weights, func(a, b FeatureWeight) bool { return a.Importance > b.Importance })
	return sorted.Rows, true
}
