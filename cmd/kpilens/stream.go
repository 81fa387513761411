package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/pipeline"
)

func newStreamCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stream",
		Short: "Consume KPI samples from Kafka and serve live window features",
		Long: `Consume KPI samples from Kafka, keep a sliding window per series and publish the
configured features as Prometheus gauges and over HTTP (/api/v1/series/{id}/features).`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runStream(cmd.Context())
		},
	}
}

func (a *app) runStream(parent context.Context) error {
	if err := config.ValidateStream(a.cfg); err != nil {
		return fmt.Errorf("invalid stream configuration: %w", err)
	}
	sugar := a.logger.Sugar()

	reports, err := openStore(a.cfg.Store, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer reports.Close()

	sugar.Info("Initializing pipeline...")
	pipe, err := pipeline.New(a.cfg, reports, a.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	go func() {
		select {
		case sig := <-signals:
			sugar.Infow("Received signal, initiating shutdown...", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	sugar.Infow("Starting streaming pipeline...",
		"topic", a.cfg.Kafka.Topic,
		"http_addr", a.cfg.HTTP.Addr,
		"shards", a.cfg.Pipeline.CalculatorShards,
	)
	runErr := pipe.Run(ctx)

	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	finalErrorField := zap.Skip()

	switch {
	case runErr == nil:
		sugar.Info("Pipeline execution completed without error.")
	case errors.Is(runErr, context.Canceled):
		sugar.Info("Pipeline execution cancelled (expected on shutdown).")
	default:
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
	}

	a.logger.Log(finalLogLevel, fmt.Sprintf("Pipeline shutdown %s.", shutdownReason),
		zap.String("reason", shutdownReason),
		finalErrorField,
	)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
