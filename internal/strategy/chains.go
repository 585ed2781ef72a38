package strategy

import (
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/chain"
	"github.com/FlamaLlamas/market-analysis/internal/data"
)

// SynthChains builds each day's chain from the synthesizer. The same
// config and inputs produce the same chain, which keeps whole runs
// reproducible.
type SynthChains struct {
	Config chain.Config
}

func (s SynthChains) ChainFor(asOf time.Time, spot, sigma float64) ([]data.PricedOption, error) {
	return chain.Synthesize(asOf, spot, sigma, chain.Expirations(asOf), s.Config)
}

// StaticChains serves pre-loaded chains keyed by date, for runs against
// recorded market data. Days without a chain report as data gaps.
type StaticChains struct {
	byDate map[string][]data.PricedOption
}

func NewStaticChains() *StaticChains {
	return &StaticChains{byDate: make(map[string][]data.PricedOption)}
}

func (s *StaticChains) Add(asOf time.Time, options []data.PricedOption) {
	key := asOf.Format("2006-01-02")
	s.byDate[key] = append(s.byDate[key], options...)
}

func (s *StaticChains) ChainFor(asOf time.Time, _, _ float64) ([]data.PricedOption, error) {
	return s.byDate[asOf.Format("2006-01-02")], nil
}
