package strategy

import (
	"math"
	"sort"

	"github.com/FlamaLlamas/market-analysis/internal/data"
)

// Contract selection is a single deterministic comparator per rule, with
// a documented tie-break: when two candidates score equally, the lower
// strike wins. Nested filter/sort passes are deliberately avoided so the
// chosen contract is reproducible across runs.

// DeltaSelection parameterizes nearest-to-target-delta selection for
// the long leg.
type DeltaSelection struct {
	TargetDelta      float64 // signed; puts are negative
	TargetDTE        int
	DeltaWeight      float64 // weight on |delta - target|
	DTEWeight        float64 // weight on |dte - target| / 365
	MaxDeltaDistance float64 // tolerance; candidates beyond it are excluded
	MaxDTEDistance   int     // tolerance in calendar days
}

// score is the weighted distance of a candidate from the target.
func (s DeltaSelection) score(c data.PricedOption) float64 {
	return s.DeltaWeight*math.Abs(c.Delta-s.TargetDelta) +
		s.DTEWeight*math.Abs(float64(c.DTE()-s.TargetDTE))/365
}

func (s DeltaSelection) within(c data.PricedOption) bool {
	if math.Abs(c.Delta-s.TargetDelta) > s.MaxDeltaDistance {
		return false
	}
	d := c.DTE() - s.TargetDTE
	if d < 0 {
		d = -d
	}
	return d <= s.MaxDTEDistance
}

// SelectByDelta picks from the chain, restricted to the given right, the
// contract minimizing the weighted (delta, DTE) distance. Returns false
// when no candidate lies within the configured tolerances.
func SelectByDelta(chain []data.PricedOption, right data.Right, sel DeltaSelection) (data.PricedOption, bool) {
	var best data.PricedOption
	bestScore := math.Inf(1)
	found := false

	for _, c := range chain {
		if c.Right != right || !sel.within(c) {
			continue
		}
		sc := sel.score(c)
		switch {
		case sc < bestScore:
			best, bestScore, found = c, sc, true
		case sc == bestScore && c.Strike < best.Strike:
			best = c
		}
	}
	return best, found
}

// SelectNearStrike picks, among contracts of the given right whose
// expiry is nearest targetDTE (within maxDTEDistance), the strike
// nearest target; equally distant strikes resolve to the lower one.
// Used for the short leg's ATM entry.
func SelectNearStrike(chain []data.PricedOption, right data.Right, targetStrike float64, targetDTE, maxDTEDistance int) (data.PricedOption, bool) {
	// First pass: nearest eligible expiry.
	bestDTEDist := maxDTEDistance + 1
	for _, c := range chain {
		if c.Right != right {
			continue
		}
		d := c.DTE() - targetDTE
		if d < 0 {
			d = -d
		}
		if d < bestDTEDist {
			bestDTEDist = d
		}
	}
	if bestDTEDist > maxDTEDistance {
		return data.PricedOption{}, false
	}

	// Second pass: snap to the nearest strike on that tenor. Closest
	// resolves equidistant strikes to the lower one.
	var strikes []float64
	for _, c := range chain {
		if c.Right != right {
			continue
		}
		d := c.DTE() - targetDTE
		if d < 0 {
			d = -d
		}
		if d == bestDTEDist {
			strikes = append(strikes, c.Strike)
		}
	}
	sort.Float64s(strikes)
	strike := data.Closest(strikes, targetStrike)

	for _, c := range chain {
		if c.Right != right || c.Strike != strike {
			continue
		}
		d := c.DTE() - targetDTE
		if d < 0 {
			d = -d
		}
		if d == bestDTEDist {
			return c, true
		}
	}
	return data.PricedOption{}, false
}

// FindContract locates an open position's contract in a later day's
// chain, matching on (strike, expiry, right) and ignoring as-of dates.
func FindContract(chain []data.PricedOption, contract data.OptionContract) (data.PricedOption, bool) {
	for _, c := range chain {
		if c.SameContract(contract) {
			return c, true
		}
	}
	return data.PricedOption{}, false
}
