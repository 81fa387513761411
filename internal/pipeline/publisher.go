package pipeline

import (
	"context"
	"math"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
)

// Publisher receives feature vectors, exports them as Prometheus gauges, checks configured
// thresholds and keeps the latest vector per series for the HTTP API.
type Publisher struct {
	thresholds map[string]config.Thresholds
	input      <-chan FeatureVector
	logger     *zap.Logger

	mu     sync.RWMutex
	latest map[string]FeatureVector
}

// NewPublisher creates a new Publisher instance.
func NewPublisher(features []config.FeatureConfig, input <-chan FeatureVector, logger *zap.Logger) *Publisher {
	thresholds := make(map[string]config.Thresholds)
	for _, spec := range expandFeatures(features) {
		if spec.thresholds.Min == nil && spec.thresholds.Max == nil {
			continue
		}
		if spec.kind == config.KindGradientHistogram {
			for i := 0; i < spec.bins; i++ {
				thresholds[spec.name+"_b"+strconv.Itoa(i)] = spec.thresholds
			}
			continue
		}
		thresholds[spec.name] = spec.thresholds
	}

	logger.Debug("Publisher initialized", zap.Int("thresholded_features", len(thresholds)))

	return &Publisher{
		thresholds: thresholds,
		input:      input,
		logger:     logger,
		latest:     make(map[string]FeatureVector),
	}
}

// Run consumes feature vectors until the input closes or ctx is cancelled.
func (p *Publisher) Run(ctx context.Context) error {
	sugar := p.logger.Sugar()
	sugar.Info("Starting publisher loop...")
	defer sugar.Info("Publisher loop stopped.")

	for {
		select {
		case vec, ok := <-p.input:
			if !ok {
				sugar.Info("Publisher input channel closed.")
				return nil
			}
			p.publish(vec)

		case <-ctx.Done():
			sugar.Info("Context cancelled, stopping publisher.")
			return ctx.Err()
		}
	}
}

// publish updates gauges, checks thresholds and records the snapshot.
func (p *Publisher) publish(vec FeatureVector) {
	for _, f := range vec.Features {
		featureValue.WithLabelValues(vec.SeriesID, f.Name).Set(f.Value)
		if th, ok := p.thresholds[f.Name]; ok {
			p.checkThresholds(vec, f, th)
		}
	}

	p.mu.Lock()
	p.latest[vec.SeriesID] = vec
	p.mu.Unlock()

	p.logger.Debug("Feature vector published",
		zap.String("series_id", vec.SeriesID),
		zap.Int64("timestamp", vec.Timestamp),
		zap.Int("features", len(vec.Features)),
	)
}

func (p *Publisher) checkThresholds(vec FeatureVector, f FeatureValue, th config.Thresholds) {
	if math.IsNaN(f.Value) {
		return
	}
	if th.Min != nil && f.Value < *th.Min {
		p.violation(vec, f, *th.Min, "<")
	}
	if th.Max != nil && f.Value > *th.Max {
		p.violation(vec, f, *th.Max, ">")
	}
}

func (p *Publisher) violation(vec FeatureVector, f FeatureValue, threshold float64, comparison string) {
	p.logger.Warn("Feature threshold violation",
		zap.String("series_id", vec.SeriesID),
		zap.String("feature", f.Name),
		zap.Int64("timestamp", vec.Timestamp),
		zap.Float64("actual", f.Value),
		zap.Float64("threshold", threshold),
		zap.String("comparison", comparison),
	)
	featureThresholdViolations.WithLabelValues(vec.SeriesID, f.Name, comparison).Inc()
}

// Latest returns the most recent vector published for a series.
func (p *Publisher) Latest(seriesID string) (FeatureVector, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	vec, ok := p.latest[seriesID]
	return vec, ok
}

// SeriesIDs lists every series seen so far, sorted.
func (p *Publisher) SeriesIDs() []string {
	p.mu.RLock()
	ids := make([]string, 0, len(p.latest))
	for id := range p.latest {
		ids = append(ids, id)
	}
	p.mu.RUnlock()
	sort.Strings(ids)
	return ids
}
