package batch

import (
	"fmt"
	"strconv"
)

// Kind is a batch statistic.
type Kind string

const (
	KindMean  Kind = "window_mean"
	KindStd   Kind = "window_std"
	KindShift Kind = "shift"
)

// Catalog lists the windows generated for every series. Windows are in minutes; lags are
// counted in the series' minimum sampling interval, so every series gets the same columns.
type Catalog struct {
	MeanWindows []int64
	StdWindows  []int64
	LagSteps    int // number of lag features
	LagStride   int // multiplier step between consecutive lags
}

// Feature is one output column: a statistic evaluated over a window in seconds.
type Feature struct {
	Name    string
	Kind    Kind
	Seconds int64
}

// Lag columns are named by step count, not seconds.
const lagPrefix = "shift_lag_"

var baseWindows = []int64{1, 2, 3, 6, 10, 16, 32, 60, 120, 240, 360, 720, 1440}

// DefaultCatalog is 20 mean windows up to 3.75 days, 13 std windows up to one day and 128 lags.
func DefaultCatalog() Catalog {
	mean := append([]int64{}, baseWindows...)
	for i := int64(1); i <= 7; i++ {
		mean = append(mean, 1440+360*i)
	}
	return Catalog{
		MeanWindows: mean,
		StdWindows:  append([]int64{}, baseWindows...),
		LagSteps:    128,
		LagStride:   4,
	}
}

// Validate rejects negative windows and an empty catalog.
func (c Catalog) Validate() error {
	if len(c.MeanWindows) == 0 && len(c.StdWindows) == 0 && c.LagSteps <= 0 {
		return ErrEmptyCatalog
	}
	for _, ws := range [][]int64{c.MeanWindows, c.StdWindows} {
		for _, w := range ws {
			if w < 0 {
				return fmt.Errorf("%w: %d minutes", ErrInvalidWindow, w)
			}
		}
	}
	if c.LagSteps > 0 && c.LagStride <= 0 {
		return fmt.Errorf("%w: lag stride %d", ErrInvalidWindow, c.LagStride)
	}
	return nil
}

// Features expands the catalog into output columns for a series whose minimum sampling
// interval is minInterval seconds. Column names do not depend on minInterval. A series without
// a positive gap (one sample, or all timestamps equal) uses a one-second unit; every lag then
// selects the same samples anyway.
func (c Catalog) Features(minInterval int64) []Feature {
	if minInterval <= 0 {
		minInterval = 1
	}
	features := make([]Feature, 0, len(c.MeanWindows)+len(c.StdWindows)+c.LagSteps)
	for _, m := range c.MeanWindows {
		features = append(features, newFeature(KindMean, m*60))
	}
	for _, m := range c.StdWindows {
		features = append(features, newFeature(KindStd, m*60))
	}
	for i := 0; i < c.LagSteps; i++ {
		steps := int64(i * c.LagStride)
		features = append(features, Feature{
			Name:    LagColumnName(steps),
			Kind:    KindShift,
			Seconds: steps * minInterval,
		})
	}
	return features
}

func newFeature(kind Kind, seconds int64) Feature {
	return Feature{Name: ColumnName(string(kind), seconds), Kind: kind, Seconds: seconds}
}

// LagColumnName renders "shift_lag_{steps}".
func LagColumnName(steps int64) string {
	return lagPrefix + strconv.FormatInt(steps, 10)
}

// ColumnName renders "{stat}_last_{window_minutes}".
func ColumnName(stat string, seconds int64) string {
	minutes := float64(seconds) / 60
	return stat + "_last_" + strconv.FormatFloat(minutes, 'f', -1, 64)
}
