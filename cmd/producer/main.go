package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/logging"
	"github.com/sanspareilsmyn/kpilens/internal/message"
	"github.com/sanspareilsmyn/kpilens/internal/table"
)

var (
	brokers  = flag.String("brokers", "localhost:9092", "comma-separated Kafka brokers")
	topic    = flag.String("topic", "kpi-samples", "Kafka topic")
	series   = flag.Int("series", 3, "number of simulated series")
	points   = flag.Int("points", 1000, "samples per series")
	interval = flag.Int64("interval", 60, "sampling interval in seconds")
	start    = flag.Int64("start", 1500000000, "unix timestamp of the first grid point")
	rate     = flag.Duration("rate", 10*time.Millisecond, "pause between Kafka messages")
	seed     = flag.Int64("seed", 0, "random seed (time based when 0)")
	csvPath  = flag.String("csv", "", "write the samples to this CSV instead of Kafka")
)

func main() {
	flag.Parse()

	logger, err := logging.NewLogger(config.LogConfig{Level: "info", Format: logging.FormatConsole})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))
	samples := simulate(rng, *series, *points, *start, *interval)
	sugar.Infow("Simulated samples", "series", *series, "points", *points, "total", len(samples), "seed", *seed)

	if *csvPath != "" {
		if err := writeCSV(*csvPath, samples); err != nil {
			sugar.Fatalw("Failed to write CSV", "path", *csvPath, "error", err)
		}
		sugar.Infow("Samples written", "path", *csvPath)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-signals
		sugar.Info("Shutdown signal received, stopping producer...")
		cancel()
	}()

	if err := produce(ctx, logger, samples); err != nil && !errors.Is(err, context.Canceled) {
		sugar.Fatalw("Producer stopped", "error", err)
	}
}

// simulate generates n samples per series on a sparse grid: timestamps are a sorted random
// subset of start + i*interval for i < 4n, values are uniform in [0, 1). The result is
// interleaved by timestamp.
func simulate(rng *rand.Rand, seriesCount, n int, start, interval int64) []message.Sample {
	out := make([]message.Sample, 0, seriesCount*n)
	for s := 0; s < seriesCount; s++ {
		id := fmt.Sprintf("kpi-%d", s)
		slots := rng.Perm(4 * n)[:n]
		sort.Ints(slots)
		for _, slot := range slots {
			out = append(out, message.Sample{
				SeriesID:  id,
				Timestamp: start + int64(slot)*interval,
				Value:     rng.Float64(),
			})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp < out[j].Timestamp })
	return out
}

func writeCSV(path string, samples []message.Sample) error {
	t := &table.Table{
		SeriesID:  make([]string, len(samples)),
		Timestamp: make([]int64, len(samples)),
		Value:     make([]float64, len(samples)),
	}
	for i, s := range samples {
		t.SeriesID[i], t.Timestamp[i], t.Value[i] = s.SeriesID, s.Timestamp, s.Value
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := table.WriteCSV(f, t); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// produce publishes samples keyed by series so each series stays on one partition in order.
func produce(ctx context.Context, logger *zap.Logger, samples []message.Sample) error {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(strings.Split(*brokers, ",")...),
		Topic:    *topic,
		Balancer: &kafka.Hash{},
	}
	defer func() {
		if err := writer.Close(); err != nil {
			logger.Error("Error closing kafka writer", zap.Error(err))
		}
	}()
	logger.Info("Starting KPI producer", zap.String("topic", *topic), zap.String("brokers", *brokers))

	ticker := time.NewTicker(*rate)
	defer ticker.Stop()

	for i, s := range samples {
		select {
		case <-ticker.C:
		case <-ctx.Done():
			return ctx.Err()
		}

		payload, err := message.EncodeSample(s)
		if err != nil {
			logger.Warn("Error encoding sample", zap.Error(err))
			continue
		}
		if err := writer.WriteMessages(ctx, kafka.Message{Key: []byte(s.SeriesID), Value: payload}); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("Error writing message", zap.Error(err))
			continue
		}
		if (i+1)%1000 == 0 {
			logger.Info("Produced samples", zap.Int("count", i+1))
		}
	}
	logger.Info("All samples produced", zap.Int("count", len(samples)))
	return nil
}
