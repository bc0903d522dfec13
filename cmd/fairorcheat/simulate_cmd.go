package main

import (
	"github.com/aristath/fairorcheat/internal/report"
	"github.com/aristath/fairorcheat/internal/simulation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newSimulateCmd(a *app) *cobra.Command {
	var sessions int
	var seed uint64

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Play independent sessions per policy and report the score distribution",
		Long: `Each session starts from the configured fund and tests coins until the fund
is spent. The score of a session is the number of correct verdicts; the report
shows min, mean and max score per policy.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := a.cfg.SimulationOptions()
			if cmd.Flags().Changed("sessions") {
				opts.Sessions = sessions
			}
			if cmd.Flags().Changed("seed") {
				opts.Seed = seed
			}
			// Policies run side by side and share the configured workers
			opts.Workers = max(1, opts.Workers/len(a.policies))

			sim, err := simulation.New(opts, a.log)
			if err != nil {
				return err
			}

			a.log.Info().
				Int("policies", len(a.policies)).
				Int("sessions", opts.Sessions).
				Uint64("seed", opts.Seed).
				Msg("Starting simulation")

			reports := make([]*simulation.Report, len(a.policies))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(a.cfg.Workers)
			for i, p := range a.policies {
				g.Go(func() error {
					r, err := sim.Evaluate(ctx, p)
					if err != nil {
						return err
					}
					reports[i] = r
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return report.WriteReports(cmd.OutOrStdout(), a.cfg.OutputFormat, reports)
		},
	}

	cmd.Flags().IntVar(&sessions, "sessions", 0, "sessions per policy (overrides SIM_SESSIONS)")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "base seed (overrides SIM_SEED)")
	return cmd
}
