package main

import (
	"context"
	"fmt"
	"os"

	"factorlens/internal/domain"
	"factorlens/internal/logger"
	"factorlens/internal/repository"
	l2_service "factorlens/internal/service/l2"
	"factorlens/internal/util"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "factorlens",
	Short: "Evaluate cross-sectional factors against forward returns",
	Long: `Evaluate a cross-sectional factor over a panel of assets and dates.

The panel directory holds one CSV per field (Close.csv, MktVal.csv,
Sector.csv and optionally _FutureReturn.csv), each with a trade_date
column followed by one column per asset.

Examples:
  factorlens group --data ./panel --factor ./momentum.csv --groups 5
  factorlens ic --data ./panel --expression "-log(MktVal)" --method spearman`,
	SilenceUsage: true,
}

// flags shared by every subcommand
var (
	configPath string
	dataDir    string
	factorPath string
	expression string
	workers    int
	outPath    string
	maxRows    int
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config yaml (defaults by FACTORLENS_ENV)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "Panel directory; overrides dataDir from config")
	rootCmd.PersistentFlags().StringVar(&factorPath, "factor", "", "Factor CSV laid out like a panel field")
	rootCmd.PersistentFlags().StringVar(&expression, "expression", "", "Factor expression over panel fields")
	rootCmd.PersistentFlags().IntVar(&workers, "workers", 0, "Worker count; 0 uses config")
	rootCmd.PersistentFlags().StringVar(&outPath, "out", "", "Write results as CSV to this path")
	rootCmd.PersistentFlags().IntVar(&maxRows, "rows", 20, "Dates shown in the summary table; 0 shows all")
}

type runInputs struct {
	Config util.Config
	Panel  *domain.Panel
	Factor domain.Matrix
}

func loadInputs(ctx context.Context) (*runInputs, error) {
	cfg, err := util.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	if workers > 0 {
		cfg.Workers = workers
	}
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("--data is required")
	}
	if (factorPath == "") == (expression == "") {
		return nil, fmt.Errorf("exactly one of --factor or --expression is required")
	}

	panelRepository := repository.NewPanelRepository()
	panel, err := panelRepository.Load(ctx, cfg.DataDir)
	if err != nil {
		return nil, err
	}

	var factor domain.Matrix
	if factorPath != "" {
		factor, err = panelRepository.LoadFactor(factorPath, panel)
	} else {
		factor, err = l2_service.NewFactorExpressionService(cfg.Workers).CalculateFactor(ctx, panel, expression)
	}
	if err != nil {
		return nil, err
	}

	return &runInputs{
		Config: *cfg,
		Panel:  panel,
		Factor: factor,
	}, nil
}

func main() {
	ctx := logger.NewContext(context.Background(), logger.New())
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
