// Package config loads and validates the run configuration from YAML
// or JSON files, with sensible defaults for everything not set.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/FlamaLlamas/market-analysis/internal/chain"
	"github.com/FlamaLlamas/market-analysis/internal/strategy"
)

// DataConfig selects and parameterizes the price source.
type DataConfig struct {
	// Source is one of "synthetic", "csv", "polygon".
	Source string `json:"source" yaml:"source"`

	// Synthetic walk parameters.
	StartPrice float64 `json:"start_price" yaml:"start_price"`
	DailyVol   float64 `json:"daily_vol" yaml:"daily_vol"`
	Seed       int64   `json:"seed" yaml:"seed"`

	// CSV mode.
	BarsPath  string `json:"bars_path" yaml:"bars_path"`
	ChainPath string `json:"chain_path" yaml:"chain_path"`

	// Polygon mode.
	APIKey string `json:"api_key" yaml:"api_key"`

	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// Config is the full run configuration.
type Config struct {
	Data      DataConfig      `json:"data" yaml:"data"`
	Chain     chain.Config    `json:"chain" yaml:"chain"`
	Strategy  strategy.Config `json:"strategy" yaml:"strategy"`
	VolWindow int             `json:"vol_window" yaml:"vol_window"`

	JournalPath string `json:"journal_path" yaml:"journal_path"`
	OutputDir   string `json:"output_dir" yaml:"output_dir"`
	Verbosity   int    `json:"verbosity" yaml:"verbosity"`
}

// Default returns a runnable configuration: a seeded synthetic walk
// with the standard strategy parameters.
func Default() Config {
	return Config{
		Data: DataConfig{
			Source:     "synthetic",
			StartPrice: 100,
			DailyVol:   0.01,
			Seed:       42,
			From:       "2024-01-01",
			To:         "2025-06-30",
		},
		Chain: chain.Config{
			Underlying:    "SPY",
			StrikeSpacing: 5,
			StrikeCount:   21,
			Spread:        chain.DefaultSpreadModel(),
			RiskFreeRate:  0.05,
			Workers:       4,
		},
		Strategy:  strategy.Config{}.Normalize(),
		VolWindow: 30,
		OutputDir: "out",
	}
}

// Load reads path (.yaml/.yml or .json) over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &cfg)
	case ".json":
		err = json.Unmarshal(raw, &cfg)
	default:
		err = fmt.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.Strategy = cfg.Strategy.Normalize()
	return cfg, cfg.Validate()
}

// Validate rejects configurations the simulator cannot run.
func (c Config) Validate() error {
	switch c.Data.Source {
	case "synthetic":
		if c.Data.StartPrice <= 0 {
			return fmt.Errorf("data.start_price must be positive")
		}
		if c.Data.DailyVol < 0 {
			return fmt.Errorf("data.daily_vol must not be negative")
		}
	case "csv":
		if c.Data.BarsPath == "" {
			return fmt.Errorf("data.bars_path required for csv source")
		}
	case "polygon":
		if c.Data.APIKey == "" {
			return fmt.Errorf("data.api_key required for polygon source")
		}
	default:
		return fmt.Errorf("data.source %q: must be synthetic, csv or polygon", c.Data.Source)
	}

	if c.Data.From == "" || c.Data.To == "" {
		return fmt.Errorf("data.from and data.to are required")
	}
	if c.VolWindow < 2 {
		return fmt.Errorf("vol_window must be at least 2")
	}
	if c.Chain.StrikeSpacing <= 0 || c.Chain.StrikeCount <= 0 {
		return fmt.Errorf("chain.strike_spacing and chain.strike_count must be positive")
	}
	if c.Strategy.InitialCapital <= 0 {
		return fmt.Errorf("strategy.initial_capital must be positive")
	}
	if c.Strategy.TargetDelta >= 0 || c.Strategy.TargetDelta <= -1 {
		return fmt.Errorf("strategy.target_delta must be in (-1, 0) for a long put")
	}
	return nil
}
