package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/table"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	require.NoError(t, c.Validate())

	assert.Len(t, c.MeanWindows, 20)
	assert.Len(t, c.StdWindows, 13)
	assert.Equal(t, int64(3960), c.MeanWindows[19])

	features := c.Features(60)
	require.Len(t, features, 20+13+128)

	assert.Equal(t, "window_mean_last_1", features[0].Name)
	assert.Equal(t, int64(60), features[0].Seconds)
	assert.Equal(t, "window_std_last_1440", features[32].Name)

	lags := features[33:]
	assert.Equal(t, "shift_lag_0", lags[0].Name)
	assert.Equal(t, "shift_lag_4", lags[1].Name)
	assert.Equal(t, "shift_lag_508", lags[127].Name)
	assert.Equal(t, int64(508*60), lags[127].Seconds)
}

func TestColumnName(t *testing.T) {
	assert.Equal(t, "window_mean_last_60", ColumnName("window_mean", 3600))
	assert.Equal(t, "shift_last_1.5", ColumnName("shift", 90))
	assert.Equal(t, "shift_last_0", ColumnName("shift", 0))
	assert.Equal(t, "shift_lag_12", LagColumnName(12))
}

func TestCatalog_FeaturesNamesIndependentOfInterval(t *testing.T) {
	c := DefaultCatalog()
	names := func(fs []Feature) []string {
		out := make([]string, len(fs))
		for i, f := range fs {
			out[i] = f.Name
		}
		return out
	}

	minute, fiveMinutes := c.Features(60), c.Features(300)
	assert.Equal(t, names(minute), names(fiveMinutes))
	assert.Equal(t, int64(4*60), minute[34].Seconds)
	assert.Equal(t, int64(4*300), fiveMinutes[34].Seconds)

	none := c.Features(0)
	assert.Equal(t, names(minute), names(none))
	seen := make(map[string]bool, len(none))
	for _, f := range none {
		assert.False(t, seen[f.Name], "duplicate column %s", f.Name)
		seen[f.Name] = true
	}
	assert.Equal(t, int64(4), none[34].Seconds)
}

func TestCatalog_Validate(t *testing.T) {
	assert.True(t, errors.Is(Catalog{}.Validate(), ErrEmptyCatalog))
	assert.True(t, errors.Is(Catalog{MeanWindows: []int64{-1}}.Validate(), ErrInvalidWindow))
	assert.True(t, errors.Is(Catalog{LagSteps: 2}.Validate(), ErrInvalidWindow))
}

func TestGenerate(t *testing.T) {
	s := table.Series{
		ID:        "kpi-1",
		Timestamp: []int64{0, 60, 120, 180},
		Value:     []float64{1, 2, 3, 4},
		Label:     []int8{0, 0, 1, 0},
	}
	c := Catalog{MeanWindows: []int64{1}, StdWindows: []int64{2}, LagSteps: 2, LagStride: 1}

	ft, err := Generate(s, c)
	require.NoError(t, err)

	assert.Equal(t, []string{"window_mean_last_1", "window_std_last_2", "shift_lag_0", "shift_lag_1"}, ft.Names)
	assert.Equal(t, []string{"kpi-1", "kpi-1", "kpi-1", "kpi-1"}, ft.SeriesID)
	assert.Equal(t, s.Timestamp, ft.Timestamp)
	assert.Equal(t, s.Label, ft.Label)

	assert.InDeltaSlice(t, []float64{1, 1.5, 2.5, 3.5}, ft.Columns[0], 1e-12)
	assert.Equal(t, []float64{1, 2, 3, 4}, ft.Columns[2])
	assert.Equal(t, []float64{1, 1, 2, 3}, ft.Columns[3])
}

func TestGenerate_SingleSample(t *testing.T) {
	for _, ts := range [][]int64{{100}, {100, 100, 100}} {
		vals := make([]float64, len(ts))
		for i := range vals {
			vals[i] = float64(i + 1)
		}
		ft, err := Generate(table.Series{ID: "one", Timestamp: ts, Value: vals}, DefaultCatalog())
		require.NoError(t, err)

		seen := make(map[string]bool, len(ft.Names))
		for _, name := range ft.Names {
			require.False(t, seen[name], "duplicate column %s", name)
			seen[name] = true
		}
		lag := ft.Columns[len(ft.Columns)-1]
		assert.Equal(t, 1.0, lag[len(lag)-1])
	}
}

func TestGenerate_RequiresValues(t *testing.T) {
	_, err := Generate(table.Series{ID: "x", Timestamp: []int64{1}}, DefaultCatalog())
	assert.True(t, errors.Is(err, table.ErrMissingColumn))
}

func TestGenerateAll_PreservesSeriesOrder(t *testing.T) {
	var series []table.Series
	for i := 0; i < 25; i++ {
		ts, vals := simulateSeries(int64(i), 50+i, 30)
		series = append(series, table.Series{ID: fmt.Sprintf("s%02d", i), Timestamp: ts, Value: vals})
	}

	out, err := GenerateAll(context.Background(), series, DefaultCatalog(), 4, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, out, len(series))
	for i, ft := range out {
		assert.Equal(t, series[i].ID, ft.SeriesID[0])
		assert.Equal(t, series[i].Len(), ft.Len())
	}

	all, err := table.Concat(out)
	require.NoError(t, err)
	assert.Equal(t, "s00", all.SeriesID[0])
	assert.Equal(t, "s24", all.SeriesID[all.Len()-1])
}

func TestGenerateAll_MixedSamplingRates(t *testing.T) {
	series := []table.Series{
		{ID: "a", Timestamp: []int64{0, 60, 120}, Value: []float64{1, 2, 3}},
		{ID: "b", Timestamp: []int64{0, 300, 600}, Value: []float64{4, 5, 6}},
		{ID: "c", Timestamp: []int64{42}, Value: []float64{7}},
	}
	c := Catalog{MeanWindows: []int64{1}, LagSteps: 3, LagStride: 1}

	out, err := GenerateAll(context.Background(), series, c, 2, zap.NewNop())
	require.NoError(t, err)

	all, err := table.Concat(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"window_mean_last_1", "shift_lag_0", "shift_lag_1", "shift_lag_2"}, all.Names)
	assert.Equal(t, []string{"a", "a", "a", "b", "b", "b", "c"}, all.SeriesID)
	// one step back is the previous sample for both rates
	assert.Equal(t, []float64{1, 1, 2, 4, 4, 5, 7}, all.Columns[2])
	assert.Equal(t, []float64{1, 1, 1, 4, 4, 4, 7}, all.Columns[3])
}

func TestGenerateAll_FailsWholeRun(t *testing.T) {
	series := []table.Series{
		{ID: "ok", Timestamp: []int64{0, 60}, Value: []float64{1, 2}},
		{ID: "bad", Timestamp: []int64{60, 0}, Value: []float64{1, 2}},
	}

	out, err := GenerateAll(context.Background(), series, DefaultCatalog(), 2, zap.NewNop())
	assert.Nil(t, out)
	assert.True(t, errors.Is(err, ErrOrdering))
	assert.Contains(t, err.Error(), "series bad")
}
