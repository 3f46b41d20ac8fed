package main

import (
	"github.com/goliatone/go-choices/internal/app"
	"github.com/goliatone/go-choices/pkg/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootFlags struct {
	configPath string
	dataDir    string
	evaluator  string
	verbose    bool
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "choices",
		Short: "Generate, validate and cross-check selectable options from reference datasets",
		Long: `choices reads reference datasets (parties, states, politicians, topics,
platforms, sentiment labels) from a data directory and exposes the option,
dropdown and consistency services on the command line.

Examples:
  choices options parties
  choices validate politicians X1 X9
  choices dropdown states --group --search north
  choices report --orphans
  choices watch`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "YAML configuration file")
	cmd.PersistentFlags().StringVarP(&flags.dataDir, "data-dir", "d", "", "dataset directory (overrides data_dir)")
	cmd.PersistentFlags().StringVar(&flags.evaluator, "evaluator", "", "rule engine: expr, cel or js (overrides evaluator)")
	cmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "log service activity to stderr")
	cmd.PersistentFlags().BoolVar(&flags.jsonOutput, "json", false, "print results as JSON")

	cmd.AddCommand(
		newOptionsCmd(flags),
		newValidateCmd(flags),
		newDropdownCmd(flags),
		newReportCmd(flags),
		newWatchCmd(flags),
	)
	return cmd
}

// openApp loads the configuration, applies flag overrides and builds the
// services.
func openApp(cmd *cobra.Command, flags *rootFlags) (*app.App, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, err
	}
	if flags.dataDir != "" {
		cfg.DataDir = flags.dataDir
	}
	if flags.evaluator != "" {
		cfg.Evaluator = flags.evaluator
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts []app.Option
	if !flags.verbose {
		opts = append(opts, app.WithLogger(zap.NewNop()))
	}
	return app.New(cmd.Context(), cfg, opts...)
}
