package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/FlamaLlamas/market-analysis/internal/perf"
	"github.com/FlamaLlamas/market-analysis/internal/strategy"
)

func WriteJSON(res *strategy.Result, summary perf.Summary, outdir string) error {
	out := struct {
		*strategy.Result
		Summary perf.Summary `json:"summary"`
	}{res, summary}
	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(outdir, "result.json"), b, 0644)
}

func WriteLedgerCSV(ledger []strategy.LedgerEntry, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "ledger.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"date", "action", "position_id", "closed_position_id", "symbol", "strike", "expiry", "side", "qty", "price", "cash_flow", "realized_pnl", "spot", "assigned"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, e := range ledger {
		row := []string{
			e.Date.Format("2006-01-02"),
			string(e.Action),
			fmt.Sprintf("%d", e.PositionID),
			fmt.Sprintf("%d", e.ClosedPositionID),
			e.Contract.Symbol(),
			fmt.Sprintf("%.2f", e.Contract.Strike),
			e.Contract.Expiry.Format("2006-01-02"),
			string(e.Side),
			fmt.Sprintf("%d", e.Qty),
			fmt.Sprintf("%.4f", e.Price),
			fmt.Sprintf("%.2f", e.CashFlow),
			fmt.Sprintf("%.2f", e.RealizedPnL),
			fmt.Sprintf("%.2f", e.Spot),
			fmt.Sprintf("%t", e.Assigned),
		}
		_ = w.Write(row)
	}
	return nil
}

func WriteEquityCSV(series []perf.EquityPoint, outdir string) error {
	f, err := os.Create(filepath.Join(outdir, "equity.csv"))
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()
	headers := []string{"date", "equity", "pnl", "drawdown", "benchmark"}
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, p := range series {
		row := []string{
			p.Date.Format("2006-01-02"),
			fmt.Sprintf("%.2f", p.Equity),
			fmt.Sprintf("%.2f", p.PnL),
			fmt.Sprintf("%.4f", p.Drawdown),
			fmt.Sprintf("%.2f", p.Benchmark),
		}
		_ = w.Write(row)
	}
	return nil
}
