package pipeline

import (
	"fmt"
	"strconv"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/window"
)

// FeatureValue is one named statistic. Value may be NaN while a window is still filling.
type FeatureValue struct {
	Name  string
	Value float64
}

// FeatureVector is the feature row produced for one accepted sample.
type FeatureVector struct {
	SeriesID  string
	Timestamp int64
	Value     float64
	Features  []FeatureValue
}

// featureSpec is one configured statistic over one window. A gradient histogram expands to
// bins output columns; every other kind yields one.
type featureSpec struct {
	name       string
	kind       string
	window     int64
	low, high  float64
	bins       int
	thresholds config.Thresholds
}

// expandFeatures flattens configured features into one spec per (kind, window).
func expandFeatures(features []config.FeatureConfig) []featureSpec {
	var specs []featureSpec
	for _, f := range features {
		for _, w := range f.Windows {
			specs = append(specs, featureSpec{
				name:       featureName(f, w),
				kind:       f.Kind,
				window:     w,
				low:        f.Low,
				high:       f.High,
				bins:       f.Bins,
				thresholds: f.Thresholds,
			})
		}
	}
	return specs
}

func featureName(f config.FeatureConfig, w int64) string {
	switch f.Kind {
	case config.KindRangeCount, config.KindGradientHistogram:
		return fmt.Sprintf("%s_%d_%s_%s", f.Kind, w, formatBound(f.Low), formatBound(f.High))
	default:
		return fmt.Sprintf("%s_%d", f.Kind, w)
	}
}

func formatBound(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// compute appends this spec's values to dst.
func (s featureSpec) compute(eng *window.Engine, dst []FeatureValue) ([]FeatureValue, error) {
	var (
		v   float64
		err error
	)
	switch s.kind {
	case config.KindMean:
		v, err = eng.Mean(s.window)
	case config.KindStd:
		v, err = eng.Std(s.window)
	case config.KindCount:
		var n int
		n, err = eng.Len(s.window)
		v = float64(n)
	case config.KindShift:
		v, err = eng.Shift(s.window)
	case config.KindLag:
		v, err = eng.Lag(s.window)
	case config.KindRangeCount:
		v, err = eng.RangeCount(s.window, s.low, s.high)
	case config.KindGradientHistogram:
		hist, err := eng.GradientHistogram(s.window, s.low, s.high, s.bins)
		if err != nil {
			return dst, fmt.Errorf("%s: %w", s.name, err)
		}
		for i, h := range hist {
			dst = append(dst, FeatureValue{Name: s.name + "_b" + strconv.Itoa(i), Value: h})
		}
		return dst, nil
	default:
		return dst, fmt.Errorf("%w: %q", ErrUnknownFeatureKind, s.kind)
	}
	if err != nil {
		return dst, fmt.Errorf("%s: %w", s.name, err)
	}
	return append(dst, FeatureValue{Name: s.name, Value: v}), nil
}
