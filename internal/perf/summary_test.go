package perf

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
	"github.com/FlamaLlamas/market-analysis/internal/strategy"
)

func day(i int) time.Time {
	return time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i)
}

func snaps(equities ...float64) []strategy.Snapshot {
	out := make([]strategy.Snapshot, len(equities))
	for i, e := range equities {
		out[i] = strategy.Snapshot{Date: day(i), Equity: e, Cash: e}
	}
	return out
}

func TestSummarizeBasics(t *testing.T) {
	ledger := []strategy.LedgerEntry{
		{Date: day(0), Action: strategy.ActionOpen, Side: strategy.Short, RealizedPnL: 0},
		{Date: day(5), Action: strategy.ActionExpire, Side: strategy.Short, RealizedPnL: 200},
		{Date: day(6), Action: strategy.ActionOpen, Side: strategy.Short},
		{Date: day(9), Action: strategy.ActionExpire, Side: strategy.Short, RealizedPnL: -150, Assigned: true},
		{Date: day(10), Action: strategy.ActionRoll, Side: strategy.Long, RealizedPnL: 75},
	}
	s := Summarize(10000, ledger, snaps(10000, 10200, 10050, 10125), nil)

	if s.Trades != 3 {
		t.Fatalf("trades: expected 3 closing events, got %d", s.Trades)
	}
	if s.Wins != 2 || s.Losses != 1 {
		t.Fatalf("win/loss: expected 2/1, got %d/%d", s.Wins, s.Losses)
	}
	if math.Abs(s.WinRate-2.0/3.0) > 1e-12 {
		t.Fatalf("win rate: expected 2/3, got %v", s.WinRate)
	}
	if s.RealizedPnL != 125 {
		t.Fatalf("realized pnl: expected 125, got %v", s.RealizedPnL)
	}
	if s.Rolls != 1 || s.Expiries != 2 || s.Assigned != 1 {
		t.Fatalf("event counts wrong: %+v", s)
	}
	if s.FinalEquity != 10125 || s.TotalPnL != 125 {
		t.Fatalf("equity totals wrong: %+v", s)
	}
	if math.Abs(s.TotalReturn-0.0125) > 1e-12 {
		t.Fatalf("total return: expected 0.0125, got %v", s.TotalReturn)
	}
}

func TestSummarizeScratchClose(t *testing.T) {
	// A close at exactly zero realized P&L is neither a win nor a loss
	// and stays out of the win-rate denominator.
	ledger := []strategy.LedgerEntry{
		{Date: day(0), Action: strategy.ActionExpire, Side: strategy.Short, RealizedPnL: 100},
		{Date: day(1), Action: strategy.ActionExpire, Side: strategy.Short, RealizedPnL: 0},
		{Date: day(2), Action: strategy.ActionClose, Side: strategy.Short, RealizedPnL: -40},
	}
	s := Summarize(10000, ledger, snaps(10000, 10100, 10060), nil)

	if s.Trades != 3 {
		t.Fatalf("trades: expected 3 closing events, got %d", s.Trades)
	}
	if s.Wins != 1 || s.Losses != 1 {
		t.Fatalf("win/loss: expected 1/1, got %d/%d", s.Wins, s.Losses)
	}
	if s.WinRate != 0.5 {
		t.Fatalf("win rate: expected 0.5, got %v", s.WinRate)
	}
}

func TestSummarizeMaxDrawdown(t *testing.T) {
	// Peak 12000, trough 9000: drawdown 25%. The later recovery to a
	// higher peak must not shrink it.
	s := Summarize(10000, nil, snaps(10000, 12000, 9000, 11000, 13000), nil)

	if math.Abs(s.MaxDrawdown-0.25) > 1e-12 {
		t.Fatalf("max drawdown: expected 0.25, got %v", s.MaxDrawdown)
	}

	// Monotone growth has zero drawdown.
	s = Summarize(10000, nil, snaps(10000, 10500, 11000), nil)
	if s.MaxDrawdown != 0 {
		t.Fatalf("monotone series: expected zero drawdown, got %v", s.MaxDrawdown)
	}
}

func TestSummarizeSeries(t *testing.T) {
	s := Summarize(10000, nil, snaps(10000, 10100, 9900), nil)

	if len(s.Series) != 3 {
		t.Fatalf("expected 3 points, got %d", len(s.Series))
	}
	if s.Series[1].PnL != 100 || s.Series[2].PnL != -100 {
		t.Fatalf("cumulative pnl wrong: %+v", s.Series)
	}
	want := (10100.0 - 9900.0) / 10100.0
	if math.Abs(s.Series[2].Drawdown-want) > 1e-12 {
		t.Fatalf("point drawdown: expected %v, got %v", want, s.Series[2].Drawdown)
	}
}

func TestSummarizeSharpeFlat(t *testing.T) {
	s := Summarize(10000, nil, snaps(10000, 10000, 10000, 10000), nil)
	if s.SharpeRatio != 0 {
		t.Fatalf("flat series: expected zero sharpe, got %v", s.SharpeRatio)
	}

	s = Summarize(10000, nil, snaps(10000, 10100, 10050, 10200, 10150), nil)
	if s.SharpeRatio == 0 {
		t.Fatalf("varying series should produce a nonzero sharpe")
	}
}

func TestSummarizeBenchmark(t *testing.T) {
	bench := []data.Bar{
		{Date: day(0), Close: 100},
		{Date: day(1), Close: 104},
		{Date: day(2), Close: 110},
	}
	s := Summarize(10000, nil, snaps(10000, 10050, 10080, 10120), bench)

	if s.Series[1].Benchmark != 10400 {
		t.Fatalf("benchmark scaling: expected 10400, got %v", s.Series[1].Benchmark)
	}
	// The last snapshot has no benchmark bar; it snaps to the nearest one.
	if s.Series[3].Benchmark != 11000 {
		t.Fatalf("calendar snap: expected 11000, got %v", s.Series[3].Benchmark)
	}
	if s.BenchmarkPnL != 1000 {
		t.Fatalf("benchmark pnl: expected 1000, got %v", s.BenchmarkPnL)
	}
}

func TestSummarizeIdempotent(t *testing.T) {
	ledger := []strategy.LedgerEntry{
		{Date: day(3), Action: strategy.ActionExpire, RealizedPnL: 40},
	}
	series := snaps(10000, 10040, 10020)

	a := Summarize(10000, ledger, series, nil)
	b := Summarize(10000, ledger, series, nil)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("summaries over identical inputs must be bit-identical")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(10000, nil, nil, nil)
	if s.Trades != 0 || s.FinalEquity != 0 || len(s.Series) != 0 {
		t.Fatalf("empty inputs must produce an empty summary, got %+v", s)
	}
}
