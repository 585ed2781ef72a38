// Package perf aggregates a finished simulation into performance
// statistics. Everything here is a pure function of its inputs: the
// same ledger and snapshots always produce the same summary.
package perf

import (
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/FlamaLlamas/market-analysis/internal/data"
	"github.com/FlamaLlamas/market-analysis/internal/strategy"
	"github.com/FlamaLlamas/market-analysis/internal/volatility"
)

// EquityPoint is one day of the equity and cumulative P&L series.
type EquityPoint struct {
	Date      time.Time `json:"date"`
	Equity    float64   `json:"equity"`
	PnL       float64   `json:"pnl"`
	Drawdown  float64   `json:"drawdown"`
	Benchmark float64   `json:"benchmark,omitempty"`
}

// Summary is the aggregate view of one run.
type Summary struct {
	InitialCapital float64 `json:"initial_capital"`
	FinalEquity    float64 `json:"final_equity"`
	TotalPnL       float64 `json:"total_pnl"`
	TotalReturn    float64 `json:"total_return"`

	RealizedPnL   float64 `json:"realized_pnl"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`

	Trades   int     `json:"trades"`
	Wins     int     `json:"wins"`
	Losses   int     `json:"losses"`
	// WinRate is Wins over Wins+Losses. A close at exactly zero
	// realized P&L counts as a trade but decides neither way.
	WinRate  float64 `json:"win_rate"`
	Rolls    int     `json:"rolls"`
	Expiries int     `json:"expiries"`
	Assigned int     `json:"assignments"`

	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	BenchmarkPnL float64 `json:"benchmark_pnl,omitempty"`

	Series []EquityPoint `json:"series"`
}

// Summarize folds the ledger and daily snapshots into a Summary. The
// optional benchmark bars drive a buy-and-hold comparison scaled to the
// same initial capital; pass nil to skip it.
func Summarize(initialCapital float64, ledger []strategy.LedgerEntry, snapshots []strategy.Snapshot, benchmark []data.Bar) Summary {
	s := Summary{InitialCapital: initialCapital}
	if len(snapshots) == 0 {
		return s
	}

	// The benchmark calendar may not line up with the snapshot calendar
	// (recorded data with holes, different sources); snap each snapshot
	// to the nearest benchmark close.
	benchByDate := make(map[string]float64, len(benchmark))
	benchDates := make([]time.Time, 0, len(benchmark))
	for _, b := range benchmark {
		benchByDate[b.Date.Format("2006-01-02")] = b.Close
		benchDates = append(benchDates, b.Date)
	}
	var benchStart float64
	if len(benchmark) > 0 {
		benchStart = benchmark[0].Close
	}

	peak := initialCapital
	returns := make([]float64, 0, len(snapshots))
	prev := initialCapital
	for _, snap := range snapshots {
		if snap.Equity > peak {
			peak = snap.Equity
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - snap.Equity) / peak
		}
		if dd > s.MaxDrawdown {
			s.MaxDrawdown = dd
		}
		if prev != 0 {
			returns = append(returns, snap.Equity/prev-1)
		}
		prev = snap.Equity

		pt := EquityPoint{
			Date:     snap.Date,
			Equity:   snap.Equity,
			PnL:      snap.Equity - initialCapital,
			Drawdown: dd,
		}
		if benchStart > 0 {
			if m := data.MatchDate(snap.Date, benchDates, data.MatchNearest); !m.IsZero() {
				pt.Benchmark = initialCapital * benchByDate[m.Format("2006-01-02")] / benchStart
			}
		}
		s.Series = append(s.Series, pt)
	}

	last := snapshots[len(snapshots)-1]
	s.FinalEquity = last.Equity
	s.UnrealizedPnL = last.UnrealizedPnL
	s.TotalPnL = last.Equity - initialCapital
	if initialCapital != 0 {
		s.TotalReturn = s.TotalPnL / initialCapital
	}

	for _, entry := range ledger {
		switch entry.Action {
		case strategy.ActionRoll:
			s.Rolls++
		case strategy.ActionExpire:
			s.Expiries++
			if entry.Assigned {
				s.Assigned++
			}
		}
		// Only closing events carry realized P&L; opens count later as
		// part of the round trip they start.
		if entry.Action == strategy.ActionOpen {
			continue
		}
		s.RealizedPnL += entry.RealizedPnL
		s.Trades++
		switch {
		case entry.RealizedPnL > 0:
			s.Wins++
		case entry.RealizedPnL < 0:
			s.Losses++
		}
	}
	if decided := s.Wins + s.Losses; decided > 0 {
		s.WinRate = float64(s.Wins) / float64(decided)
	}

	s.SharpeRatio = sharpe(returns)

	if benchStart > 0 && len(s.Series) > 0 {
		if lastBench := s.Series[len(s.Series)-1].Benchmark; lastBench > 0 {
			s.BenchmarkPnL = lastBench - initialCapital
		}
	}
	return s
}

// sharpe annualizes the mean/stdev ratio of daily returns. Fewer than
// two observations, or a flat series, yields zero.
func sharpe(returns []float64) float64 {
	if len(returns) < 2 {
		return 0
	}
	mean, err := stats.Mean(returns)
	if err != nil {
		return 0
	}
	sd, err := stats.StandardDeviationSample(returns)
	if err != nil || sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(volatility.TradingDaysPerYear)
}
