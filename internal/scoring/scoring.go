// Package scoring evaluates pre-computed binary lead predictions: confusion
// matrix at a threshold, the derived classification metrics and the ROC
// curve. Nothing here trains or changes a model.
package scoring

import (
	"errors"
	"fmt"
	"sort"

	"mktpulse/internal/derive"
	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

var (
	// ErrInvalidThreshold is returned for thresholds outside [0,1].
	ErrInvalidThreshold = errors.New("threshold must be within [0,1]")
	// ErrLengthMismatch is returned when labels and scores differ in length.
	ErrLengthMismatch = errors.New("labels and scores differ in length")
	// ErrSingleClass means a curve needs at least one positive and one negative.
	ErrSingleClass = errors.New("labels contain a single class")
)

// Confusion counts predictions against true labels.
type Confusion struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	TN int `json:"tn"`
	FN int `json:"fn"`
}

// Total is the number of scored items
func (c Confusion) Total() int {
	return c.TP + c.FP + c.TN + c.FN
}

// Matrix returns [[TN, FP], [FN, TP]] with actual classes as rows.
func (c Confusion) Matrix() [2][2]int {
	return [2][2]int{{c.TN, c.FP}, {c.FN, c.TP}}
}

// Metrics are the usual binary classification scores.
type Metrics struct {
	Accuracy    float64 `json:"accuracy"`
	Precision   float64 `json:"precision"`
	Recall      float64 `json:"recall"`
	Specificity float64 `json:"specificity"`
	F1          float64 `json:"f1"`
}

// Metrics derives accuracy, precision, recall, specificity and F1. A ratio
// with a zero denominator is 0.
func (c Confusion) Metrics() Metrics {
	precision := derive.SafeDiv(float64(c.TP), float64(c.TP+c.FP))
	recall := derive.SafeDiv(float64(c.TP), float64(c.TP+c.FN))
	return Metrics{
		Accuracy:    derive.SafeDiv(float64(c.TP+c.TN), float64(c.Total())),
		Precision:   precision,
		Recall:      recall,
		Specificity: derive.SafeDiv(float64(c.TN), float64(c.TN+c.FP)),
		F1:          derive.SafeDiv(2*precision*recall, precision+recall),
	}
}

// ValidateThreshold checks that t is a probability.
func ValidateThreshold(t float64) error {
	if t < 0 || t > 1 || t != t {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, t)
	}
	return nil
}

// ConfusionAt classifies a score as positive when it is >= threshold.
func ConfusionAt(labels []int64, scores []float64, threshold float64) (Confusion, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return Confusion{}, err
	}
	if len(labels) != len(scores) {
		return Confusion{}, ErrLengthMismatch
	}

	var c Confusion
	for i, label := range labels {
		predicted := scores[i] >= threshold
		switch {
		case predicted && label == 1:
			c.TP++
		case predicted:
			c.FP++
		case label == 1:
			c.FN++
		default:
			c.TN++
		}
	}
	return c, nil
}

// ConfusionFromLabels compares stored predicted labels to true labels.
func ConfusionFromLabels(labels, predicted []int64) (Confusion, error) {
	if len(labels) != len(predicted) {
		return Confusion{}, ErrLengthMismatch
	}
	var c Confusion
	for i, label := range labels {
		switch {
		case predicted[i] == 1 && label == 1:
			c.TP++
		case predicted[i] == 1:
			c.FP++
		case label == 1:
			c.FN++
		default:
			c.TN++
		}
	}
	return c, nil
}

// ROCPoint is one operating point of the ROC curve.
type ROCPoint struct {
	FPR       float64 `json:"fpr"`
	TPR       float64 `json:"tpr"`
	Threshold float64 `json:"threshold"`
}

// ROC sweeps every distinct score from the highest down. The curve starts
// at (0,0), whose threshold is one above the highest score, and ends at
// (1,1).
func ROC(labels []int64, scores []float64) ([]ROCPoint, error) {
	if len(labels) != len(scores) {
		return nil, ErrLengthMismatch
	}

	var pos, neg int
	for _, l := range labels {
		if l == 1 {
			pos++
		} else {
			neg++
		}
	}
	if pos == 0 || neg == 0 {
		return nil, ErrSingleClass
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	points := []ROCPoint{{FPR: 0, TPR: 0, Threshold: scores[order[0]] + 1}}
	var tp, fp int
	for i, idx := range order {
		if labels[idx] == 1 {
			tp++
		} else {
			fp++
		}
		// emit once per distinct score
		if i+1 < len(order) && scores[order[i+1]] == scores[idx] {
			continue
		}
		points = append(points, ROCPoint{
			FPR:       float64(fp) / float64(neg),
			TPR:       float64(tp) / float64(pos),
			Threshold: scores[idx],
		})
	}
	return points, nil
}

// AUC integrates the curve with the trapezoidal rule.
func AUC(points []ROCPoint) float64 {
	var area float64
	for i := 1; i < len(points); i++ {
		dx := points[i].FPR - points[i-1].FPR
		area += dx * (points[i].TPR + points[i-1].TPR) / 2
	}
	return area
}

// Bin is one bucket of a probability histogram.
type Bin struct {
	Lower     float64 `json:"lower"`
	Upper     float64 `json:"upper"`
	Positives int     `json:"positives"`
	Negatives int     `json:"negatives"`
}

// Histogram splits [0,1] into n equal bins and counts scores per true class.
// A score of exactly 1 falls into the last bin.
func Histogram(labels []int64, scores []float64, n int) ([]Bin, error) {
	if len(labels) != len(scores) {
		return nil, ErrLengthMismatch
	}
	if n <= 0 {
		n = 10
	}

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lower = float64(i) / float64(n)
		bins[i].Upper = float64(i+1) / float64(n)
	}
	for i, s := range scores {
		b := int(s * float64(n))
		if b >= n {
			b = n - 1
		}
		if b < 0 {
			b = 0
		}
		if labels[i] == 1 {
			bins[b].Positives++
		} else {
			bins[b].Negatives++
		}
	}
	return bins, nil
}

// Split extracts true labels, probabilities and predicted labels from a
// lead table.
func Split(t *table.Table[domain.LeadScore]) (labels []int64, scores []float64, predicted []int64) {
	n := t.Len()
	labels = make([]int64, 0, n)
	scores = make([]float64, 0, n)
	predicted = make([]int64, 0, n)
	if t == nil {
		return labels, scores, predicted
	}
	for _, l := range t.Rows {
		labels = append(labels, l.TrueLabel)
		scores = append(scores, l.PredictedProbability)
		predicted = append(predicted, l.PredictedLabel)
	}
	return labels, scores, predicted
}
