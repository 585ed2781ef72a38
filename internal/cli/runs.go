package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/FlamaLlamas/market-analysis/internal/journal"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List simulation runs recorded in a journal database",
	RunE:  runRuns,
}

var runsDBPath string

func init() {
	rootCmd.AddCommand(runsCmd)

	runsCmd.Flags().StringVar(&runsDBPath, "db", "journal.db", "path to the journal SQLite database")
}

func runRuns(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(runsDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	runs, err := j.ListRuns()
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}
	if len(runs) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}

	fmt.Printf("%-26s  %-6s  %-10s  %-10s  %12s  %12s\n",
		"RUN", "UNDER", "START", "END", "CAPITAL", "PNL")
	for _, r := range runs {
		fmt.Printf("%-26s  %-6s  %-10s  %-10s  %12.2f  %12.2f\n",
			r.RunID, r.Underlying,
			r.SimStart.Format("2006-01-02"), r.SimEnd.Format("2006-01-02"),
			r.InitialCapital, r.TotalPnL)
	}
	return nil
}
