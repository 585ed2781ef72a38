package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/FlamaLlamas/market-analysis/internal/config"
	"github.com/FlamaLlamas/market-analysis/internal/data"
	"github.com/FlamaLlamas/market-analysis/internal/journal"
	"github.com/FlamaLlamas/market-analysis/internal/logger"
	"github.com/FlamaLlamas/market-analysis/internal/perf"
	"github.com/FlamaLlamas/market-analysis/internal/report"
	"github.com/FlamaLlamas/market-analysis/internal/strategy"
	"github.com/FlamaLlamas/market-analysis/internal/volatility"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the put-spread simulation from a config file",
	Long: `Run the full simulation: load daily bars, estimate rolling
volatility, synthesize (or load) option chains, walk the strategy day
by day, and write the ledger and equity reports.

Example:
  market-analysis simulate --config configs/spy.yaml`,
	RunE: runSimulate,
}

var simulateConfigPath string

func init() {
	rootCmd.AddCommand(simulateCmd)

	simulateCmd.Flags().StringVarP(&simulateConfigPath, "config", "f", "", "path to config file (YAML or JSON); defaults apply when omitted")
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if simulateConfigPath != "" {
		var err error
		cfg, err = config.Load(simulateConfigPath)
		if err != nil {
			return err
		}
	}
	logger.SetVerbosity(cfg.Verbosity)

	from, err := time.Parse("2006-01-02", cfg.Data.From)
	if err != nil {
		return fmt.Errorf("data.from: %w", err)
	}
	to, err := time.Parse("2006-01-02", cfg.Data.To)
	if err != nil {
		return fmt.Errorf("data.to: %w", err)
	}

	prov, err := buildProvider(cfg.Data)
	if err != nil {
		return err
	}

	bars, err := prov.GetDailyBars(cfg.Strategy.Underlying, from, to)
	if err != nil {
		return fmt.Errorf("load bars: %w", err)
	}
	logger.Infof("loaded %d daily bars for %s", len(bars), cfg.Strategy.Underlying)

	vols, err := volatility.Rolling(bars, cfg.VolWindow)
	if err != nil {
		return fmt.Errorf("volatility: %w", err)
	}

	chains, err := buildChains(cfg)
	if err != nil {
		return err
	}

	start := time.Now()
	eng := strategy.New(cfg.Strategy, chains)
	res, err := eng.Run(bars, vols)
	if err != nil {
		return fmt.Errorf("simulation: %w", err)
	}

	summary := perf.Summarize(cfg.Strategy.InitialCapital, res.Ledger, res.Snapshots, bars)

	if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
		return fmt.Errorf("create output dir %s: %w", cfg.OutputDir, err)
	}
	if err := report.WriteJSON(res, summary, cfg.OutputDir); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	if err := report.WriteLedgerCSV(res.Ledger, cfg.OutputDir); err != nil {
		return fmt.Errorf("write ledger csv: %w", err)
	}
	if err := report.WriteEquityCSV(summary.Series, cfg.OutputDir); err != nil {
		return fmt.Errorf("write equity csv: %w", err)
	}

	if cfg.JournalPath != "" {
		j, err := journal.NewSQLite(cfg.JournalPath)
		if err != nil {
			return fmt.Errorf("open journal: %w", err)
		}
		defer j.Close()
		runID := journal.NewRunID()
		if err := j.RecordRun(runID, res, cfg.Strategy.InitialCapital, summary.FinalEquity); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
		logger.Infof("journaled run %s to %s", runID, cfg.JournalPath)
	}

	fmt.Printf("Simulated %s from %s to %s in %v\n",
		cfg.Strategy.Underlying, res.Start.Format("2006-01-02"), res.End.Format("2006-01-02"), time.Since(start))
	fmt.Printf("  Final equity: $%.2f (P&L $%.2f, %.2f%%)\n",
		summary.FinalEquity, summary.TotalPnL, summary.TotalReturn*100)
	fmt.Printf("  Trades: %d (win rate %.1f%%), rolls: %d, expiries: %d, assignments: %d\n",
		summary.Trades, summary.WinRate*100, summary.Rolls, summary.Expiries, summary.Assigned)
	fmt.Printf("  Max drawdown: %.2f%%, Sharpe: %.2f\n", summary.MaxDrawdown*100, summary.SharpeRatio)
	if len(res.Warnings) > 0 {
		fmt.Printf("  Warnings: %d (see %s/result.json)\n", len(res.Warnings), cfg.OutputDir)
	}
	return nil
}

func buildProvider(dc config.DataConfig) (data.Provider, error) {
	switch dc.Source {
	case "synthetic":
		return data.NewSyntheticProvider(dc.StartPrice, dc.DailyVol, dc.Seed), nil
	case "csv":
		return data.NewCSVProvider(dc.BarsPath), nil
	case "polygon":
		return data.NewPolygonProvider(dc.APIKey), nil
	default:
		return nil, fmt.Errorf("unknown data source %q", dc.Source)
	}
}

// buildChains returns the per-day chain source: recorded chains when a
// chain CSV is configured, otherwise the Black-Scholes synthesizer.
func buildChains(cfg config.Config) (strategy.ChainSource, error) {
	if cfg.Data.ChainPath == "" {
		return strategy.SynthChains{Config: cfg.Chain}, nil
	}

	options, err := data.LoadChainCSV(cfg.Data.ChainPath, cfg.Strategy.Underlying, data.Put)
	if err != nil {
		return nil, fmt.Errorf("load chain csv: %w", err)
	}
	static := strategy.NewStaticChains()
	for _, opt := range options {
		static.Add(opt.AsOf, []data.PricedOption{opt})
	}
	logger.Infof("loaded %d recorded contracts from %s", len(options), cfg.Data.ChainPath)
	return static, nil
}
