package data

import (
	"math"
	"sort"
	"time"
)

// DateMatchType controls how a candidate date is snapped to an
// available date (trading day or expiry).
type DateMatchType string

const (
	MatchExact   DateMatchType = "exact"   // must match exactly
	MatchHigher  DateMatchType = "higher"  // next available date after target
	MatchLower   DateMatchType = "lower"   // last available date before target
	MatchNearest DateMatchType = "nearest" // closest available date (default)
)

// MatchDate snaps d to one of dates according to mode.
// Returns the zero time when nothing matches; callers skip zero results.
func MatchDate(d time.Time, dates []time.Time, mode DateMatchType) time.Time {

	var (
		exact  time.Time
		lower  time.Time
		higher time.Time
	)

	// default to MatchNearest
	switch mode {
	case MatchExact, MatchHigher, MatchLower, MatchNearest:
		// ok
	default:
		mode = MatchNearest
	}

	sorted := make([]time.Time, len(dates))
	copy(sorted, dates)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Before(sorted[j]) })

	for _, dt := range sorted {
		if dt.Equal(d) {
			exact = dt
		}
		if dt.Before(d) {
			lower = dt // keeps last ≤ d
		}
		if dt.After(d) && higher.IsZero() {
			higher = dt
		}
	}

	switch mode {

	case MatchExact:
		return exact

	case MatchLower:
		return lower

	case MatchHigher:
		return higher

	case MatchNearest:
		if !exact.IsZero() {
			return exact
		}
		switch {
		case !lower.IsZero() && !higher.IsZero():
			if d.Sub(lower) <= higher.Sub(d) {
				return lower
			}
			return higher
		case !lower.IsZero():
			return lower
		case !higher.IsZero():
			return higher
		}
	}

	return time.Time{}
}

// Closest finds the closest value in a sorted slice to target using
// binary search. Equidistant neighbors resolve to the lower value.
func Closest(sorted []float64, target float64) float64 {
	n := len(sorted)
	if n == 0 {
		panic("Closest: empty list")
	}

	i := sort.Search(n, func(i int) bool {
		return sorted[i] >= target
	})

	if i == 0 {
		return sorted[0]
	}
	if i == n {
		return sorted[n-1]
	}

	before := sorted[i-1]
	after := sorted[i]

	if math.Abs(before-target) <= math.Abs(after-target) {
		return before
	}
	return after
}
