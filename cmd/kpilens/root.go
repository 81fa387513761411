package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/kpilens/internal/config"
	"github.com/sanspareilsmyn/kpilens/internal/logging"
)

// app carries state shared by every subcommand once the root pre-run has loaded it.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "kpilens",
		Short:         "Sliding-window KPI features, streaming and offline, plus delayed-label scoring",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync() // Flush buffered logs on exit
			}
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the configuration file (defaults and KPILENS_* env when empty)")

	root.AddCommand(
		newStreamCmd(a),
		newFeaturesCmd(a),
		newEvaluateCmd(a),
	)
	return root
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration from %q: %w", a.configPath, err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	logger.Sugar().Infow("Configuration loaded",
		"path", a.configPath,
		"log_level", cfg.Log.Level,
		"store_backend", cfg.Store.Backend,
	)
	return nil
}
