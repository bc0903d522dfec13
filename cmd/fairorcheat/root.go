package main

import (
	"fmt"

	"github.com/aristath/fairorcheat/internal/config"
	"github.com/aristath/fairorcheat/internal/policy"
	"github.com/aristath/fairorcheat/internal/probability"
	"github.com/aristath/fairorcheat/internal/report"
	"github.com/aristath/fairorcheat/pkg/logger"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app is the state shared by every subcommand once configuration is loaded
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	tables   *probability.Tables
	policies []*policy.Policy
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var rosterFile, format string

	root := &cobra.Command{
		Use:          "fairorcheat",
		Short:        "Score stopping policies for telling fair coins from cheating ones",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd, rosterFile, format)
		},
	}

	root.PersistentFlags().StringVar(&rosterFile, "roster", "", "YAML roster file (overrides ROSTER_FILE)")
	root.PersistentFlags().StringVar(&format, "format", "", "output format: text, json or msgpack (overrides OUTPUT_FORMAT)")

	root.AddCommand(newSimulateCmd(a), newGamesCmd(a), newCheatsheetCmd(a))
	return root
}

// setup loads configuration, builds the logger, the tables and the roster
func (a *app) setup(cmd *cobra.Command, rosterFile, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if rosterFile != "" {
		cfg.RosterFile = rosterFile
	}
	if format != "" {
		if cfg.OutputFormat, err = report.ParseFormat(format); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.log = logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty,
		Output: cmd.ErrOrStderr(),
	})
	logger.SetGlobalLogger(a.log)

	a.tables, err = probability.NewTables(cfg.Params)
	if err != nil {
		return err
	}

	specs, err := cfg.Roster()
	if err != nil {
		return err
	}
	a.policies, err = policy.BuildAll(a.tables, specs, a.log)
	if err != nil {
		return err
	}

	a.log.Debug().
		Int("policies", len(a.policies)).
		Int("max_flips", cfg.Params.MaxFlips).
		Int("best_flip_level", a.tables.BestFlipLevel()).
		Msg("Configuration loaded")
	return nil
}
