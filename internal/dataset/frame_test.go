package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mktpulse/internal/shared/testutil"
	"mktpulse/internal/table"
)

func loadFrameT(t *testing.T, name string) Frame {
	t.Helper()
	l := NewLoader(testutil.MarketingDataset(t), NewCache())
	f, err := l.Load(context.Background(), name)
	require.NoError(t, err)
	return f
}

func TestLoadFrameUnknownDataset(t *testing.T) {
	l := NewLoader(t.TempDir(), NewCache())
	_, err := l.Load(context.Background(), "weather")
	assert.ErrorIs(t, err, ErrUnknownDataset)
}

func TestFrameFieldsIncludeDerived(t *testing.T) {
	f := loadFrameT(t, CampaignPerformance)

	fields := f.Fields()
	require.Len(t, fields, 13)
	assert.Equal(t, FieldInfo{Name: "date", Kind: KindDate}, fields[0])
	assert.Equal(t, FieldInfo{Name: "ctr", Kind: KindFloat, Derived: true}, fields[9])

	v, err := f.Value(0, "ctr")
	require.NoError(t, err)
	assert.Equal(t, 0.05, v)

	_, err = f.Value(0, "weather")
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

func TestRecords(t *testing.T) {
	f := loadFrameT(t, CampaignPerformance)

	recs := Records(f, 1, 2)
	require.Len(t, recs, 2)
	assert.Equal(t, "2024-01-02", recs[0]["date"])
	assert.Equal(t, "Search", recs[0]["channel"])
	assert.Equal(t, int64(2000), recs[0]["impressions"])

	assert.Len(t, Records(f, 0, 0), 4)
	assert.Empty(t, Records(f, 10, 5))
}

func TestStrings(t *testing.T) {
	f := loadFrameT(t, CustomerData)
	row := f.Strings(1)

	assert.Equal(t, "C002", row[0])
	assert.Equal(t, "true", row[6])
	assert.Equal(t, Header(f)[0], "customer_id")
}

func TestAuxFrameInfersKinds(t *testing.T) {
	f := loadFrameT(t, CorrelationMatrix)

	fields := f.Fields()
	require.Len(t, fields, 4)
	assert.Equal(t, FieldInfo{Name: "column_0", Kind: KindString}, fields[0])
	assert.Equal(t, FieldInfo{Name: "spend", Kind: KindFloat}, fields[1])

	v, err := f.Value(1, "clicks")
	require.NoError(t, err)
	assert.Equal(t, -0.75, v)

	label, err := f.Value(2, "column_0")
	require.NoError(t, err)
	assert.Equal(t, "clicks", label)
}

func TestAggregateFrame(t *testing.T) {
	f := loadFrameT(t, CampaignPerformance)

	out, err := Aggregate(f, []string{"channel"}, "revenue", false)
	require.NoError(t, err)
	require.Len(t, out.Rows, 3)
	assert.Equal(t, []string{"Email"}, out.Rows[0].Keys)
	assert.Equal(t, 500.0, out.Rows[0].Value)
	assert.Equal(t, []string{"channel", "revenue"}, out.Columns)

	mean, err := Aggregate(f, []string{"channel", "region"}, "spend", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"Email", "North"}, mean.Rows[0].Keys)
	assert.Equal(t, 100.0, mean.Rows[0].Value)

	_, err = Aggregate(f, []string{"weather"}, "revenue", false)
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = Aggregate(f, []string{"channel"}, "region", false)
	assert.ErrorIs(t, err, ErrColumnType)
}

func TestAggregateBooleanAsRate(t *testing.T) {
	f := loadFrameT(t, CustomerData)

	out, err := Aggregate(f, []string{"segment"}, "churn_flag", true)
	require.NoError(t, err)

	got := make(map[string]float64)
	for _, g := range out.Rows {
		got[g.Key()] = g.Value
	}
	assert.Equal(t, map[string]float64{"Basic": 1, "Premium": 0, "Standard": 1}, got)
}

func TestResampleFrame(t *testing.T) {
	f := loadFrameT(t, CampaignPerformance)

	out, err := Resample(f, "date", "spend", table.Monthly)
	require.NoError(t, err)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, 350.0, out.Rows[0].Value)
	assert.Equal(t, 400.0, out.Rows[1].Value)

	_, err = Resample(f, "channel", "spend", table.Monthly)
	assert.ErrorIs(t, err, ErrColumnType)

	_, err = Resample(f, "date", "spend", table.Granularity("yearly"))
	assert.ErrorIs(t, err, table.ErrInvalidGranularity)
}

func TestTopFrame(t *testing.T) {
	f := loadFrameT(t, GeographicData)

	recs, err := Top(f, "yoy_growth", 2)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "Texas", recs[0]["state"])
	assert.Equal(t, "California", recs[1]["state"])

	_, err = Top(f, "state", 2)
	assert.ErrorIs(t, err, ErrColumnType)
}
