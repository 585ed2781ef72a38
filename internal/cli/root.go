// Package cli wires the cobra command tree for the simulator binary.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "market-analysis",
	Short: "Options strategy simulator over historical or synthetic market data",
	Long: `market-analysis prices synthetic option chains with Black-Scholes,
walks a rolling put-spread strategy over daily bars, and reports the
resulting ledger, equity curve and performance statistics.

Data can come from a seeded synthetic walk, local CSV files, or the
Polygon daily aggregates API.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() error {
	return rootCmd.Execute()
}
