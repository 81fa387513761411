package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/scoring"
	"github.com/sanspareilsmyn/kpilens/internal/store"
)

type evaluateOptions struct {
	truth  string
	pred   string
	output string
	delay  int
	save   bool
}

func newEvaluateCmd(a *app) *cobra.Command {
	opts := &evaluateOptions{}
	cmd := &cobra.Command{
		Use:   "evaluate --truth labels.csv --pred predictions.csv",
		Short: "Score predicted anomaly labels against ground truth with a detection delay",
		Long: `Both CSVs need series_id, timestamp and label columns. Labels are placed on each
series' sampling grid, predictions inside an anomaly count only when they fire within --delay
points of its start, and F1/precision/recall are reported per series and in total as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("delay") {
				opts.delay = a.cfg.Scoring.Delay
			}
			return a.runEvaluate(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.truth, "truth", "", "ground-truth labels CSV")
	cmd.Flags().StringVar(&opts.pred, "pred", "", "predicted labels CSV")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "report JSON path (stdout when empty)")
	cmd.Flags().IntVar(&opts.delay, "delay", scoring.DefaultDelay, "detection delay in points (scoring.delay when unset)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the report in the configured store")
	_ = cmd.MarkFlagRequired("truth")
	_ = cmd.MarkFlagRequired("pred")
	return cmd
}

func (a *app) runEvaluate(ctx context.Context, opts *evaluateOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.logger.Named("evaluate")

	truth, err := readTable(opts.truth)
	if err != nil {
		return err
	}
	pred, err := readTable(opts.pred)
	if err != nil {
		return err
	}

	report, err := scoring.Evaluate(truth, pred, opts.delay)
	if err != nil {
		return fmt.Errorf("evaluation failed: %w", err)
	}
	logger.Info("Evaluation finished",
		zap.Int("series", len(report.SeriesIDs)),
		zap.Int("delay", opts.delay),
		zap.Float64("f1", report.Total[0]),
		zap.Float64("precision", report.Total[1]),
		zap.Float64("recall", report.Total[2]),
	)

	blob, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, stdout, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, string(blob))
		return err
	}); err != nil {
		return err
	}

	if opts.save {
		runID, err := a.saveArtifact(ctx, store.ReportKey, blob)
		if err != nil {
			return err
		}
		logger.Info("Report stored", zap.String("run_id", runID))
	}
	return nil
}
