package main

import (
	"github.com/aristath/fairorcheat/internal/cheatsheet"
	"github.com/aristath/fairorcheat/internal/report"
	"github.com/aristath/fairorcheat/internal/utils"
	"github.com/spf13/cobra"
)

func newCheatsheetCmd(a *app) *cobra.Command {
	var values, labels bool

	cmd := &cobra.Command{
		Use:   "cheatsheet",
		Short: "Print what each policy does at every (flips, heads) state",
		Long: `F and C declare the coin fair or cheating, "." keeps flipping. With --values
each cell shows the value of declaring now against the policy's estimate of
flipping on. With --labels a single grid shows the verdict the reward table
gives when declaring at once.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			defer utils.OperationTimer("cheatsheet", a.log)()

			if labels {
				sheet, err := cheatsheet.Labels(a.tables)
				if err != nil {
					return err
				}
				return report.WriteSheets(cmd.OutOrStdout(), a.cfg.OutputFormat, []*cheatsheet.Sheet{sheet})
			}

			if values {
				sheets := make([]*cheatsheet.ValueSheet, len(a.policies))
				for i, p := range a.policies {
					sheets[i] = cheatsheet.Values(p)
				}
				return report.WriteValues(cmd.OutOrStdout(), a.cfg.OutputFormat, sheets)
			}

			sheets := make([]*cheatsheet.Sheet, len(a.policies))
			for i, p := range a.policies {
				sheets[i] = cheatsheet.Build(p)
			}
			return report.WriteSheets(cmd.OutOrStdout(), a.cfg.OutputFormat, sheets)
		},
	}

	cmd.Flags().BoolVar(&values, "values", false, "print declare/continuation values instead of verdicts")
	cmd.Flags().BoolVar(&labels, "labels", false, "print the reward table labels instead of policy verdicts")
	cmd.MarkFlagsMutuallyExclusive("values", "labels")
	return cmd
}
