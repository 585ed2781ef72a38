// Package chain synthesizes a historically consistent option chain for
// a single trading day from a spot price and a realized-volatility
// estimate.
//
// The surface is flat: every contract of a day carries that day's
// historical volatility as its implied volatility. This is a documented
// simplification, not a market-implied value; no skew model is fitted.
package chain

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
	"github.com/FlamaLlamas/market-analysis/internal/logger"
	"github.com/FlamaLlamas/market-analysis/internal/pricing"
)

// ErrInvalidInput marks degenerate synthesis inputs (non-positive spot,
// empty expirations). Degenerate inputs fail loudly rather than
// producing an empty chain silently.
var ErrInvalidInput = errors.New("invalid chain input")

// SpreadModel produces the half-spread applied around the theoretical
// price. The half-spread widens with |moneyness| and narrows with time
// to expiry, mirroring real liquidity patterns: far OTM and near-expiry
// contracts trade wider.
type SpreadModel struct {
	BaseHalfSpread float64 `json:"base_half_spread" yaml:"base_half_spread"` // ATM, long-dated floor
	MoneynessSlope float64 `json:"moneyness_slope" yaml:"moneyness_slope"`   // widening per unit |K/S - 1|
	TenorFactor    float64 `json:"tenor_factor" yaml:"tenor_factor"`         // near-expiry widening
	MinSpread      float64 `json:"min_spread" yaml:"min_spread"`             // absolute floor on the full spread
}

// DefaultSpreadModel mirrors the flat 2% spread with a $0.05 floor used
// by the original data generator, split into a moneyness/tenor shape.
func DefaultSpreadModel() SpreadModel {
	return SpreadModel{
		BaseHalfSpread: 0.01,
		MoneynessSlope: 0.05,
		TenorFactor:    0.01,
		MinSpread:      0.05,
	}
}

// Half returns the relative half-spread for a strike at the given spot
// and days to expiry.
func (m SpreadModel) Half(spot, strike float64, dte int) float64 {
	moneyness := math.Abs(strike/spot - 1)
	tenor := m.TenorFactor / (1 + float64(dte)/30)
	return m.BaseHalfSpread + m.MoneynessSlope*moneyness + tenor
}

// Config drives chain synthesis for one underlying.
type Config struct {
	Underlying    string      `json:"underlying" yaml:"underlying"`
	StrikeSpacing float64     `json:"strike_spacing" yaml:"strike_spacing"`
	StrikeCount   int         `json:"strike_count" yaml:"strike_count"` // total strikes in the symmetric band
	Spread        SpreadModel `json:"spread" yaml:"spread"`
	// Synthetic ATM volume and open interest peaks.
	VolumePeak       int64   `json:"volume_peak" yaml:"volume_peak"`
	OpenInterestPeak int64   `json:"open_interest_peak" yaml:"open_interest_peak"`
	RiskFreeRate     float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	Workers          int     `json:"workers" yaml:"workers"` // pricing fan-out; <=1 means sequential
}

// Synthesize builds the full chain for one as-of day: StrikeCount
// strikes spaced StrikeSpacing around the at-the-money anchor, for each
// expiration, for both rights. The result is ordered by expiry, then
// strike, then right (calls before puts) and always has exactly
// 2 × StrikeCount × len(expirations) entries.
func Synthesize(asOf time.Time, spot, sigma float64, expirations []time.Time, cfg Config) ([]data.PricedOption, error) {
	if spot <= 0 {
		return nil, fmt.Errorf("%w: non-positive spot %.4f", ErrInvalidInput, spot)
	}
	if sigma < 0 {
		return nil, fmt.Errorf("%w: negative volatility %.4f", ErrInvalidInput, sigma)
	}
	if len(expirations) == 0 {
		return nil, fmt.Errorf("%w: no expirations", ErrInvalidInput)
	}
	if cfg.StrikeSpacing <= 0 || cfg.StrikeCount <= 0 {
		return nil, fmt.Errorf("%w: spacing=%.2f count=%d", ErrInvalidInput, cfg.StrikeSpacing, cfg.StrikeCount)
	}
	for _, exp := range expirations {
		if !exp.After(asOf) {
			return nil, fmt.Errorf("%w: expiration %s not after as-of %s",
				ErrInvalidInput, exp.Format("2006-01-02"), asOf.Format("2006-01-02"))
		}
	}

	strikes, err := strikeBand(spot, cfg.StrikeSpacing, cfg.StrikeCount)
	if err != nil {
		return nil, err
	}

	sorted := make([]time.Time, len(expirations))
	copy(sorted, expirations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	// Pre-size the output so pricing workers write disjoint slots and
	// the ordering is independent of scheduling.
	out := make([]data.PricedOption, 2*cfg.StrikeCount*len(sorted))
	var firstErr error
	var errOnce sync.Once

	work := func(slot int, expiry time.Time, strike float64, right data.Right) {
		po, err := synthesizeOne(asOf, spot, sigma, expiry, strike, right, cfg)
		if err != nil {
			errOnce.Do(func() { firstErr = err })
			return
		}
		out[slot] = po
	}

	type job struct {
		slot   int
		expiry time.Time
		strike float64
		right  data.Right
	}
	jobs := make([]job, 0, len(out))
	slot := 0
	for _, expiry := range sorted {
		for _, strike := range strikes {
			for _, right := range []data.Right{data.Call, data.Put} {
				jobs = append(jobs, job{slot, expiry, strike, right})
				slot++
			}
		}
	}

	workers := cfg.Workers
	if workers <= 1 {
		for _, j := range jobs {
			work(j.slot, j.expiry, j.strike, j.right)
		}
	} else {
		var wg sync.WaitGroup
		ch := make(chan job)
		for w := 0; w < workers; w++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := range ch {
					work(j.slot, j.expiry, j.strike, j.right)
				}
			}()
		}
		for _, j := range jobs {
			ch <- j
		}
		close(ch)
		wg.Wait()
	}

	if firstErr != nil {
		return nil, firstErr
	}
	logger.Tracef("chain %s %s: %d contracts spot=%.2f vol=%.4f",
		cfg.Underlying, asOf.Format("2006-01-02"), len(out), spot, sigma)
	return out, nil
}

func synthesizeOne(asOf time.Time, spot, sigma float64, expiry time.Time, strike float64, right data.Right, cfg Config) (data.PricedOption, error) {
	tte := expiry.Sub(asOf).Hours() / 24 / 365
	q, err := pricing.Price(right == data.Call, spot, strike, tte, cfg.RiskFreeRate, sigma)
	if err != nil {
		return data.PricedOption{}, fmt.Errorf("pricing %s %.2f %s: %w",
			right, strike, expiry.Format("2006-01-02"), err)
	}

	contract := data.OptionContract{
		Underlying: cfg.Underlying,
		Strike:     strike,
		Expiry:     expiry,
		Right:      right,
		AsOf:       asOf,
	}

	half := cfg.Spread.Half(spot, strike, contract.DTE())
	bid := q.Price * (1 - half)
	ask := q.Price * (1 + half)
	if ask-bid < cfg.Spread.MinSpread {
		mid := (ask + bid) / 2
		bid = mid - cfg.Spread.MinSpread/2
		ask = mid + cfg.Spread.MinSpread/2
	}
	if bid < 0 {
		bid = 0
	}

	volPeak := cfg.VolumePeak
	if volPeak <= 0 {
		volPeak = 1000
	}
	oiPeak := cfg.OpenInterestPeak
	if oiPeak <= 0 {
		oiPeak = 5000
	}

	// Liquidity decays away from the money; peaks at the ATM strike.
	distance := math.Abs(strike-spot) / spot
	volume := int64(math.Round(float64(volPeak) * math.Exp(-distance/0.05)))
	openInterest := int64(math.Round(float64(oiPeak) * math.Exp(-distance/0.10)))

	return data.PricedOption{
		OptionContract: contract,
		Theoretical:    q.Price,
		Bid:            bid,
		Ask:            ask,
		ImpliedVol:     sigma, // flat surface
		Delta:          q.Delta,
		Gamma:          q.Gamma,
		Theta:          q.Theta,
		Vega:           q.Vega,
		TradeVolume:    volume,
		OpenInterest:   openInterest,
	}, nil
}

// strikeBand returns count strikes spaced apart, symmetric around the
// round-value anchor nearest spot. The whole band must sit strictly
// above zero; a spot too small for the requested band is degenerate
// input, not a chain with folded duplicate strikes.
func strikeBand(spot, spacing float64, count int) ([]float64, error) {
	anchor := math.Round(spot/spacing) * spacing
	lo := -(count - 1) / 2
	if anchor+float64(lo)*spacing <= 0 {
		return nil, fmt.Errorf("%w: %d strikes spaced %.2f around anchor %.2f reach below zero",
			ErrInvalidInput, count, spacing, anchor)
	}
	out := make([]float64, 0, count)
	for i := 0; i < count; i++ {
		out = append(out, anchor+float64(lo+i)*spacing)
	}
	return out, nil
}
