package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/kpilens/internal/table"
)

// Generate computes every catalog feature for one time-sorted series.
func Generate(s table.Series, c Catalog) (*table.FeatureTable, error) {
	if s.Value == nil {
		return nil, fmt.Errorf("%w: %s", table.ErrMissingColumn, table.ColValue)
	}

	features := c.Features(MinInterval(s.Timestamp))
	ft := &table.FeatureTable{
		Names:     make([]string, len(features)),
		SeriesID:  make([]string, s.Len()),
		Columns:   make([][]float64, len(features)),
		Timestamp: append([]int64(nil), s.Timestamp...),
	}
	if s.Label != nil {
		ft.Label = append([]int8{}, s.Label...)
	}
	for i := range ft.SeriesID {
		ft.SeriesID[i] = s.ID
	}

	for k, f := range features {
		var (
			col []float64
			err error
		)
		switch f.Kind {
		case KindMean:
			col, err = Mean(s.Timestamp, s.Value, f.Seconds)
		case KindStd:
			col, err = Std(s.Timestamp, s.Value, f.Seconds)
		case KindShift:
			col, err = Shift(s.Timestamp, s.Value, f.Seconds)
		}
		if err != nil {
			return nil, fmt.Errorf("feature %s: %w", f.Name, err)
		}
		ft.Names[k] = f.Name
		ft.Columns[k] = col
	}
	return ft, nil
}

// GenerateAll runs Generate for every series on a pool of workers goroutines and returns the
// tables in input order. The first failing series fails the whole run.
func GenerateAll(ctx context.Context, series []table.Series, c Catalog, workers int, logger *zap.Logger) ([]*table.FeatureTable, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if workers <= 0 {
		workers = 1
	}

	sugar := logger.Sugar()
	sugar.Infow("Generating batch features",
		"series", len(series),
		"workers", workers,
		"features_per_series", len(c.Features(1)),
	)
	start := time.Now()

	out := make([]*table.FeatureTable, len(series))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(workers)

	for i := range series {
		i := i
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			ft, err := Generate(series[i], c)
			if err != nil {
				return fmt.Errorf("series %s: %w", series[i].ID, err)
			}
			out[i] = ft
			logger.Debug("Series features generated",
				zap.String("series_id", series[i].ID),
				zap.Int("rows", ft.Len()),
			)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		sugar.Errorw("Batch feature generation failed", zap.Error(err))
		return nil, err
	}

	sugar.Infow("Batch features generated",
		"series", len(series),
		"elapsed", time.Since(start),
	)
	return out, nil
}
