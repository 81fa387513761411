package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/batch"
	"github.com/sanspareilsmyn/kpilens/internal/store"
	"github.com/sanspareilsmyn/kpilens/internal/table"
)

type featuresOptions struct {
	input   string
	output  string
	workers int
	save    bool
}

func newFeaturesCmd(a *app) *cobra.Command {
	opts := &featuresOptions{}
	cmd := &cobra.Command{
		Use:   "features --input samples.csv [--output features.csv]",
		Short: "Generate the window feature table for every series in a CSV",
		Long: `Read a CSV with series_id (or kpi_id), timestamp, value and optional label columns,
compute window means, window standard deviations and lags per series, and write the feature
table as CSV. With --save the table is also stored under features/<run id>.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runFeatures(cmd.Context(), opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.input, "input", "i", "", "input samples CSV")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output feature CSV (stdout when empty)")
	cmd.Flags().IntVar(&opts.workers, "workers", 0, "concurrent series (batch.workers when 0)")
	cmd.Flags().BoolVar(&opts.save, "save", false, "persist the feature table in the configured store")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func (a *app) runFeatures(ctx context.Context, opts *featuresOptions, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := a.logger.Named("features")

	t, err := readTable(opts.input)
	if err != nil {
		return err
	}
	series, err := table.Partition(t)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.input, err)
	}

	workers := opts.workers
	if workers <= 0 {
		workers = a.cfg.Batch.Workers
	}
	logger.Info("Generating features",
		zap.String("input", opts.input),
		zap.Int("rows", t.Len()),
		zap.Int("series", len(series)),
		zap.Int("workers", workers),
	)

	tables, err := batch.GenerateAll(ctx, series, a.cfg.Batch.Catalog(), workers, logger)
	if err != nil {
		return err
	}
	features, err := table.Concat(tables)
	if err != nil {
		return err
	}

	if err := writeOutput(opts.output, stdout, func(w io.Writer) error {
		return table.WriteFeaturesCSV(w, features)
	}); err != nil {
		return err
	}

	if opts.save {
		blob, err := features.Encode()
		if err != nil {
			return err
		}
		runID, err := a.saveArtifact(ctx, store.FeaturesKey, blob)
		if err != nil {
			return err
		}
		logger.Info("Feature table stored", zap.String("run_id", runID), zap.Int("rows", features.Len()))
	}
	return nil
}

func readTable(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := table.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// writeOutput writes to path, or to stdout when path is empty.
func writeOutput(path string, stdout io.Writer, write func(io.Writer) error) error {
	if path == "" {
		return write(stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// saveArtifact stores blob under a fresh run ID and returns the ID.
func (a *app) saveArtifact(ctx context.Context, key func(string) string, blob []byte) (string, error) {
	s, err := openStore(a.cfg.Store, a.logger)
	if err != nil {
		return "", fmt.Errorf("failed to open store: %w", err)
	}
	defer s.Close()

	runID := store.NewRunID()
	if err := s.Save(ctx, key(runID), blob); err != nil {
		return "", err
	}
	return runID, nil
}
