package main

import (
	"fmt"

	"factorlens/internal/report"
	"factorlens/internal/repository"
	l3_service "factorlens/internal/service/l3"

	"github.com/spf13/cobra"
)

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Run a grouped quantile backtest",
	Long: `Bucket assets into quantile groups by factor value on every date and
report each group's market-value-weighted forward return.`,
	RunE: runGroup,
}

var nGroups int

func init() {
	groupCmd.Flags().IntVar(&nGroups, "groups", 0, "Number of quantile groups; 0 uses config")
	rootCmd.AddCommand(groupCmd)
}

func runGroup(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in, err := loadInputs(ctx)
	if err != nil {
		return err
	}
	if nGroups > 0 {
		in.Config.NGroups = nGroups
	}

	tester, err := l3_service.NewGroupTester(in.Panel, in.Config.NGroups, in.Config.Workers)
	if err != nil {
		return err
	}
	result, err := tester.RunBacktest(ctx, in.Factor)
	if err != nil {
		return fmt.Errorf("failed to run group backtest: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.GroupReturnsTable(*result, maxRows).Render())

	if outPath != "" {
		if err := repository.NewResultRepository().SaveGroupReturns(outPath, *result); err != nil {
			return err
		}
	}
	return nil
}
