package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/table"
	"mktpulse/pkg/contracts/domain"
)

var (
	leadLabels = []int64{1, 1, 0, 1, 0, 0}
	leadScores = []float64{0.9, 0.7, 0.6, 0.4, 0.2, 0.1}
)

func TestConfusionAt(t *testing.T) {
	tests := []struct {
		name      string
		threshold float64
		want      Confusion
	}{
		{"half", 0.5, Confusion{TP: 2, FP: 1, TN: 2, FN: 1}},
		{"inclusive threshold", 0.6, Confusion{TP: 2, FP: 1, TN: 2, FN: 1}},
		{"everything positive", 0, Confusion{TP: 3, FP: 3}},
		{"nothing positive", 1, Confusion{TN: 3, FN: 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConfusionAt(leadLabels, leadScores, tt.threshold)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, 6, got.Total())
		})
	}
}

func TestConfusionAtErrors(t *testing.T) {
	_, err := ConfusionAt(leadLabels, leadScores, 1.2)
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = ConfusionAt(leadLabels, leadScores, math.NaN())
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	_, err = ConfusionAt(leadLabels, leadScores[:2], 0.5)
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestMetrics(t *testing.T) {
	m := Confusion{TP: 2, FP: 1, TN: 2, FN: 1}.Metrics()

	assert.InDelta(t, 4.0/6.0, m.Accuracy, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Precision, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Recall, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.Specificity, 1e-9)
	assert.InDelta(t, 2.0/3.0, m.F1, 1e-9)

	empty := Confusion{}.Metrics()
	assert.Equal(t, Metrics{}, empty)
}

func TestMatrixLayout(t *testing.T) {
	c := Confusion{TP: 4, FP: 3, TN: 2, FN: 1}
	assert.Equal(t, [2][2]int{{2, 3}, {1, 4}}, c.Matrix())
}

func TestConfusionFromLabels(t *testing.T) {
	c, err := ConfusionFromLabels(leadLabels, []int64{1, 1, 1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, Confusion{TP: 2, FP: 1, TN: 2, FN: 1}, c)
}

func TestROC(t *testing.T) {
	points, err := ROC(leadLabels, leadScores)
	require.NoError(t, err)

	require.Len(t, points, 7)
	assert.Equal(t, ROCPoint{FPR: 0, TPR: 0, Threshold: 1.9}, points[0])
	last := points[len(points)-1]
	assert.Equal(t, 1.0, last.FPR)
	assert.Equal(t, 1.0, last.TPR)

	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i].FPR, points[i-1].FPR)
		assert.GreaterOrEqual(t, points[i].TPR, points[i-1].TPR)
	}

	// pairs ranked correctly: 8 of 9
	assert.InDelta(t, 8.0/9.0, AUC(points), 1e-9)
}

func TestROCPerfectAndTies(t *testing.T) {
	perfect, err := ROC([]int64{1, 1, 0, 0}, []float64{0.9, 0.8, 0.3, 0.1})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, AUC(perfect), 1e-9)

	tied, err := ROC([]int64{1, 0}, []float64{0.5, 0.5})
	require.NoError(t, err)
	require.Len(t, tied, 2)
	assert.InDelta(t, 0.5, AUC(tied), 1e-9)
}

func TestROCSingleClass(t *testing.T) {
	_, err := ROC([]int64{1, 1}, []float64{0.2, 0.4})
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestHistogram(t *testing.T) {
	bins, err := Histogram([]int64{1, 0, 1}, []float64{0.05, 0.55, 1.0}, 10)
	require.NoError(t, err)
	require.Len(t, bins, 10)

	assert.Equal(t, 1, bins[0].Positives)
	assert.Equal(t, 1, bins[5].Negatives)
	assert.Equal(t, 1, bins[9].Positives)
	assert.InDelta(t, 0.9, bins[9].Lower, 1e-9)
}

func TestSplit(t *testing.T) {
	tbl := table.New("leads", nil, []domain.LeadScore{
		{LeadID: "a", TrueLabel: 1, PredictedProbability: 0.8, PredictedLabel: 1},
		{LeadID: "b", TrueLabel: 0, PredictedProbability: 0.3, PredictedLabel: 0},
	})

	labels, scores, predicted := Split(tbl)
	assert.Equal(t, []int64{1, 0}, labels)
	assert.Equal(t, []float64{0.8, 0.3}, scores)
	assert.Equal(t, []int64{1, 0}, predicted)

	labels, _, _ = Split(nil)
	assert.Empty(t, labels)
}
