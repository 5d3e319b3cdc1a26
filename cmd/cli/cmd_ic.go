package main

import (
	"fmt"

	"factorlens/internal/domain"
	"factorlens/internal/report"
	"factorlens/internal/repository"
	l3_service "factorlens/internal/service/l3"

	"github.com/spf13/cobra"
)

var icCmd = &cobra.Command{
	Use:   "ic",
	Short: "Compute the cross-sectional IC series",
	Long: `Correlate the factor with forward returns on every date and report the
IC series with its mean and information ratio.`,
	RunE: runIc,
}

var method string

func init() {
	icCmd.Flags().StringVar(&method, "method", "", "Correlation method: pearson or spearman; empty uses config")
	rootCmd.AddCommand(icCmd)
}

func runIc(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	in, err := loadInputs(ctx)
	if err != nil {
		return err
	}
	if method != "" {
		in.Config.Method = method
	}
	correlationMethod, err := domain.NewCorrelationMethod(in.Config.Method)
	if err != nil {
		return err
	}

	tester, err := l3_service.NewIcTester(in.Panel, correlationMethod, in.Config.Workers)
	if err != nil {
		return err
	}
	series, err := tester.RunBacktest(ctx, in.Factor)
	if err != nil {
		return fmt.Errorf("failed to run ic test: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), report.IcTable(*series, *tester.Metrics(), maxRows).Render())

	if outPath != "" {
		if err := repository.NewResultRepository().SaveIcSeries(outPath, *series); err != nil {
			return err
		}
	}
	return nil
}
