package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/hive-corporation/driftwatch/internal/adapter/provider"
	"github.com/hive-corporation/driftwatch/internal/app"
	"github.com/hive-corporation/driftwatch/internal/config"
	"github.com/hive-corporation/driftwatch/internal/core/ports"
)

// cliState is shared by every subcommand of one invocation.
type cliState struct {
	cfg     config.Config
	verbose bool
	logger  *zap.Logger
}

func newRootCmd() *cobra.Command {
	cfg, _ := config.Load()
	state := &cliState{cfg: cfg}

	root := &cobra.Command{
		Use:   "driftwatch",
		Short: "Repair stale ATT&CK technique references",
		Long: `driftwatch loads ATT&CK STIX bundles and a dataset of technique mappings,
resolves deprecated and revoked techniques to their live replacements, and
reports every change it made.

Knowledge-base bundles and the dataset default to DRIFTWATCH_KB and
DRIFTWATCH_DATASET (a .env file is honoured).`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zcfg := zap.NewDevelopmentConfig()
			zcfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
			if state.verbose || state.cfg.LogLevel == "debug" {
				zcfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			state.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if state.logger != nil {
				_ = state.logger.Sync()
			}
		},
	}

	root.PersistentFlags().BoolVarP(&state.verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringSliceVar(&state.cfg.KnowledgeBaseFiles, "kb", state.cfg.KnowledgeBaseFiles, "STIX bundle file per partition (repeatable)")
	root.PersistentFlags().StringVar(&state.cfg.DatasetFile, "dataset", state.cfg.DatasetFile, "YAML dataset file")

	root.AddCommand(
		newAdjustCmd(state),
		newStatusCmd(state),
		newReportCmd(state),
	)
	return root
}

// load reads every configured source and adjusts the dataset.
func (s *cliState) load(ctx context.Context) (*app.Session, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.LoadTimeout)
	defer cancel()

	kbs := make([]ports.KnowledgeBaseProvider, 0, len(s.cfg.KnowledgeBaseFiles))
	for _, path := range s.cfg.KnowledgeBaseFiles {
		kbs = append(kbs, provider.NewSTIXBundleProvider(path))
	}

	session, err := app.LoadSession(ctx, s.logger, kbs, provider.NewYAMLDatasetProvider(s.cfg.DatasetFile))
	if err != nil {
		return nil, fmt.Errorf("load failed: %w", err)
	}
	return session, nil
}
