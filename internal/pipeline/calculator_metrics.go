package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus Metrics Definition
var (
	samplesParsed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpilens_samples_parsed_total",
			Help: "Stream messages decoded into KPI samples.",
		},
	)
	samplesRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpilens_samples_rejected_total",
			Help: "Stream messages or samples dropped, by reason.",
		},
		[]string{"reason"}, // parse_error, out_of_order, push_error
	)
	samplesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kpilens_samples_processed_total",
			Help: "Samples pushed into a series window and turned into a feature vector.",
		},
	)
	activeSeries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "kpilens_active_series",
			Help: "Series with window state held by the calculator.",
		},
	)
	featureValue = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kpilens_feature_value",
			Help: "Latest value of a window feature for a series.",
		},
		[]string{"series_id", "feature"},
	)
	featureThresholdViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kpilens_feature_threshold_violations_total",
			Help: "Total number of threshold violations detected for a series feature.",
		},
		[]string{"series_id", "feature", "comparison"}, // comparison: <, >
	)
)

const (
	reasonParseError = "parse_error"
	reasonOutOfOrder = "out_of_order"
	reasonPushError  = "push_error"
)
