// Package data holds the market data model shared by the pricing,
// chain-synthesis, and strategy packages, plus the providers that
// supply historical bars and option-chain snapshots.
//
// The simulation core consumes these types read-only; providers run
// up front and no I/O happens once a simulation starts.
package data

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Right is the option right: call or put.
type Right string

const (
	Call Right = "call"
	Put  Right = "put"
)

// ParseRight normalizes a right string ("call", "C", "put", "p").
func ParseRight(s string) (Right, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "call", "c":
		return Call, nil
	case "put", "p":
		return Put, nil
	}
	return "", fmt.Errorf("unknown option right %q", s)
}

// Bar is one daily OHLCV record for an underlying.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// OptionContract identifies one option as of one trading day.
// Identity is the tuple (strike, expiry, right, as-of date).
type OptionContract struct {
	Underlying string
	Strike     float64
	Expiry     time.Time
	Right      Right
	AsOf       time.Time
}

// DTE returns calendar days from the as-of date to expiry.
func (c OptionContract) DTE() int {
	return int(math.Round(c.Expiry.Sub(c.AsOf).Hours() / 24))
}

// Symbol returns an OCC-like contract symbol:
// <root><YYMMDD><C|P><strike*1000 padded to 8 digits>.
func (c OptionContract) Symbol() string {
	r := "C"
	if c.Right == Put {
		r = "P"
	}
	return fmt.Sprintf("O:%s%s%s%08d",
		strings.ToUpper(c.Underlying),
		c.Expiry.UTC().Format("060102"),
		r,
		int(math.Round(c.Strike*1000)),
	)
}

// SameContract reports whether two contracts refer to the same option,
// ignoring the as-of date. Used to re-find an open position's contract
// in a later day's chain.
func (c OptionContract) SameContract(o OptionContract) bool {
	return c.Underlying == o.Underlying &&
		c.Strike == o.Strike &&
		c.Right == o.Right &&
		c.Expiry.Equal(o.Expiry)
}

// PricedOption is an OptionContract plus the values produced for exactly
// one as-of date. A new as-of date produces a new PricedOption; instances
// are never mutated after creation.
type PricedOption struct {
	OptionContract

	Theoretical  float64
	Bid          float64
	Ask          float64
	ImpliedVol   float64
	Delta        float64
	Gamma        float64
	Theta        float64 // per calendar day
	Vega         float64 // per 1 vol point
	TradeVolume  int64
	OpenInterest int64
}

// Mid returns the bid/ask midpoint.
func (p PricedOption) Mid() float64 {
	return (p.Bid + p.Ask) / 2
}

// Provider supplies daily bars for an underlying.
type Provider interface {
	GetDailyBars(symbol string, from, to time.Time) ([]Bar, error)
}

// Closes extracts the close series from a bar slice.
func Closes(bars []Bar) []float64 {
	out := make([]float64, 0, len(bars))
	for _, b := range bars {
		out = append(out, b.Close)
	}
	return out
}
