package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/message"
	"github.com/sanspareilsmyn/kpilens/internal/window"
)

// Calculator keeps one window engine per series and turns every accepted sample into a
// FeatureVector. Series are spread over shards by hash; a shard owns its engines, so samples
// of one series are handled in arrival order without locking.
type Calculator struct {
	stream config.StreamConfig
	specs  []featureSpec
	shards int
	buffer int
	input  <-chan message.Sample
	output chan<- FeatureVector
	logger *zap.Logger
}

// NewCalculator creates a new Calculator instance.
func NewCalculator(stream config.StreamConfig, shards, buffer int, input <-chan message.Sample, output chan<- FeatureVector, logger *zap.Logger) *Calculator {
	if shards <= 0 {
		shards = 1
	}
	c := &Calculator{
		stream: stream,
		specs:  expandFeatures(stream.Features),
		shards: shards,
		buffer: buffer,
		input:  input,
		output: output,
		logger: logger,
	}
	logger.Info("Calculator initialized",
		zap.Int64("interval", stream.Interval),
		zap.Int64("max_span", stream.MaxSpan),
		zap.Int("configured_features", len(c.specs)),
		zap.Int("shards", shards),
	)
	return c
}

// shardOf maps a series to its shard.
func shardOf(seriesID string, shards int) int {
	return int(xxhash.Sum64String(seriesID) % uint64(shards))
}

// Run routes samples to shard goroutines until the input closes or ctx is cancelled.
func (c *Calculator) Run(ctx context.Context) error {
	sugar := c.logger.Sugar()
	sugar.Info("Starting calculator loop...")
	defer sugar.Info("Calculator loop stopped.")

	var wg sync.WaitGroup
	lanes := make([]chan message.Sample, c.shards)
	for i := range lanes {
		lanes[i] = make(chan message.Sample, c.buffer)
		wg.Add(1)
		go func(id int, lane <-chan message.Sample) {
			defer wg.Done()
			c.runShard(ctx, id, lane)
		}(i, lanes[i])
	}
	stop := func() {
		for _, lane := range lanes {
			close(lane)
		}
		wg.Wait()
	}

	for {
		select {
		case s, ok := <-c.input:
			if !ok {
				sugar.Info("Calculator input channel closed. Draining shards...")
				stop()
				return nil
			}
			select {
			case lanes[shardOf(s.SeriesID, c.shards)] <- s:
			case <-ctx.Done():
				stop()
				return ctx.Err()
			}

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping calculator.")
			stop()
			return ctx.Err()
		}
	}
}

// runShard owns the engines of the series hashed to it.
func (c *Calculator) runShard(ctx context.Context, id int, lane <-chan message.Sample) {
	logger := c.logger.With(zap.Int("shard", id))
	engines := make(map[string]*window.Engine)
	defer func() {
		activeSeries.Sub(float64(len(engines)))
	}()

	for s := range lane {
		vec, ok := c.process(logger, engines, s)
		if !ok {
			continue
		}
		select {
		case c.output <- vec:
		case <-ctx.Done():
			// keep draining so the router never blocks on a full lane
		}
	}
}

// process pushes one sample and evaluates every configured feature.
func (c *Calculator) process(logger *zap.Logger, engines map[string]*window.Engine, s message.Sample) (FeatureVector, bool) {
	eng, ok := engines[s.SeriesID]
	if !ok {
		var err error
		eng, err = window.NewSeriesEngine(c.stream.Interval, c.stream.MaxSpan)
		if err != nil {
			logger.Error("Cannot create window engine", zap.String("series_id", s.SeriesID), zap.Error(err))
			samplesRejected.WithLabelValues(reasonPushError).Inc()
			return FeatureVector{}, false
		}
		engines[s.SeriesID] = eng
		activeSeries.Inc()
		logger.Debug("Series registered", zap.String("series_id", s.SeriesID))
	}

	if err := eng.Push(s.Timestamp, s.Value); err != nil {
		reason := reasonPushError
		if errors.Is(err, window.ErrOrdering) {
			reason = reasonOutOfOrder
		}
		logger.Warn("Sample rejected",
			zap.String("series_id", s.SeriesID),
			zap.Int64("timestamp", s.Timestamp),
			zap.String("reason", reason),
			zap.Error(err),
		)
		samplesRejected.WithLabelValues(reason).Inc()
		return FeatureVector{}, false
	}

	vec := FeatureVector{
		SeriesID:  s.SeriesID,
		Timestamp: s.Timestamp,
		Value:     s.Value,
		Features:  make([]FeatureValue, 0, len(c.specs)),
	}
	for _, spec := range c.specs {
		var err error
		vec.Features, err = spec.compute(eng, vec.Features)
		if err != nil {
			logger.Error("Feature computation failed", zap.String("series_id", s.SeriesID), zap.Error(err))
		}
	}
	samplesProcessed.Inc()
	return vec, true
}
