// Package volatility converts a daily price history into a rolling
// realized-volatility series.
package volatility

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/FlamaLlamas/market-analysis/internal/data"
)

// TradingDaysPerYear annualizes daily return volatility.
const TradingDaysPerYear = 252

// ErrInsufficientHistory indicates fewer price points than window+1.
// Recoverable: supply more data or shrink the window.
var ErrInsufficientHistory = errors.New("insufficient price history")

// Estimate is one day's annualized realized volatility over a
// trailing window of daily log returns.
type Estimate struct {
	Date       time.Time
	Window     int
	Annualized float64
}

// Rolling computes one Estimate per input day from the window-th day
// onward. Earlier days have no estimate at all; they are insufficient
// history, not zero. The computation operates on the ordered sequence
// as given, so non-trading-day gaps are tolerated by construction.
func Rolling(bars []data.Bar, window int) ([]Estimate, error) {
	if window <= 0 {
		return nil, fmt.Errorf("volatility window must be positive, got %d", window)
	}
	if len(bars) < window+1 {
		return nil, fmt.Errorf("%w: have %d points, need %d for window %d",
			ErrInsufficientHistory, len(bars), window+1, window)
	}

	returns := make([]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		returns[i-1] = math.Log(bars[i].Close / bars[i-1].Close)
	}

	out := make([]Estimate, 0, len(bars)-window)
	for i := window; i < len(bars); i++ {
		// bars[i] has returns[i-window .. i-1] behind it.
		sd, err := stats.StandardDeviationSample(returns[i-window : i])
		if err != nil {
			return nil, fmt.Errorf("stdev at %s: %w", bars[i].Date.Format("2006-01-02"), err)
		}
		out = append(out, Estimate{
			Date:       bars[i].Date,
			Window:     window,
			Annualized: sd * math.Sqrt(TradingDaysPerYear),
		})
	}
	return out, nil
}

// ByDate indexes estimates by calendar day for O(1) lookup during the
// simulation walk.
func ByDate(estimates []Estimate) map[string]Estimate {
	out := make(map[string]Estimate, len(estimates))
	for _, e := range estimates {
		out[e.Date.Format("2006-01-02")] = e
	}
	return out
}
