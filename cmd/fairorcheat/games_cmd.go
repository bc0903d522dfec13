package main

import (
	"fmt"

	"github.com/aristath/fairorcheat/internal/report"
	"github.com/aristath/fairorcheat/internal/simulation"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newGamesCmd(a *app) *cobra.Command {
	var games int

	cmd := &cobra.Command{
		Use:   "games",
		Short: "Play single games from a reset fund and report accuracy and net fund change",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if games < 1 {
				return fmt.Errorf("--games must be at least 1, got %d", games)
			}
			sim, err := simulation.New(a.cfg.SimulationOptions(), a.log)
			if err != nil {
				return err
			}

			summaries := make([]simulation.GameSummary, len(a.policies))
			g := new(errgroup.Group)
			g.SetLimit(a.cfg.Workers)
			for i, p := range a.policies {
				g.Go(func() error {
					src := simulation.SessionSource(a.cfg.Seed, i)
					_, summaries[i] = sim.RunGames(p.Clone(), games, src)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			return report.WriteSummaries(cmd.OutOrStdout(), a.cfg.OutputFormat, summaries)
		},
	}

	cmd.Flags().IntVar(&games, "games", 10000, "games per policy")
	return cmd
}
