package pipeline

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/sanspareilsmyn/kpilens/internal/config"
)

// metricValue reads the current value of a counter or gauge.
func metricValue(t *testing.T, m prometheus.Metric) float64 {
	t.Helper()
	var out dto.Metric
	require.NoError(t, m.Write(&out))
	if out.Counter != nil {
		return out.Counter.GetValue()
	}
	return out.Gauge.GetValue()
}

func testStream() config.StreamConfig {
	maxV := 4.0
	return config.StreamConfig{
		Interval: 20,
		MaxSpan:  100,
		Features: []config.FeatureConfig{
			{Kind: config.KindMean, Windows: []int64{30}, Thresholds: config.Thresholds{Max: &maxV}},
			{Kind: config.KindLag, Windows: []int64{40}},
			{Kind: config.KindGradientHistogram, Windows: []int64{100}, Low: -90, High: 90, Bins: 2},
		},
	}
}

func featureOf(t *testing.T, vec FeatureVector, name string) float64 {
	t.Helper()
	for _, f := range vec.Features {
		if f.Name == name {
			return f.Value
		}
	}
	require.Failf(t, "feature missing", "%s not in %v", name, vec.Features)
	return 0
}
