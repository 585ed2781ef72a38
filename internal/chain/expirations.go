package chain

import (
	"sort"
	"time"
)

// Expirations generates the synthetic expiration calendar for one
// trading day: three weekly Fridays, three monthly third Fridays, two
// quarterly third Fridays, and a ~1-year LEAPS third Friday. The long
// entry guarantees the chain always carries a tenor near the long-leg
// target.
func Expirations(asOf time.Time) []time.Time {
	seen := map[string]bool{}
	var out []time.Time

	add := func(t time.Time) {
		if !t.After(asOf) {
			return
		}
		k := t.Format("2006-01-02")
		if !seen[k] {
			seen[k] = true
			out = append(out, t)
		}
	}

	// Weekly expirations
	for i := 1; i <= 3; i++ {
		add(nextFriday(asOf.AddDate(0, 0, 7*i)))
	}

	// Monthly expirations (third Friday)
	for i := 1; i <= 3; i++ {
		add(thirdFriday(asOf.AddDate(0, 0, 30*i)))
	}

	// Quarterly expirations (third Friday of the quarter's first month)
	for i := 1; i <= 2; i++ {
		d := asOf.AddDate(0, 0, 90*i)
		quarterMonth := time.Month((int(d.Month())-1)/3*3 + 1)
		add(thirdFriday(time.Date(d.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)))
	}

	// LEAPS, ~1 year out
	add(thirdFriday(asOf.AddDate(1, 0, 0)))

	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// nextFriday returns the first Friday strictly after d's week position,
// matching index-option weekly settlement.
func nextFriday(d time.Time) time.Time {
	days := (int(time.Friday) - int(d.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return d.AddDate(0, 0, days)
}

// thirdFriday returns the third Friday of d's month.
func thirdFriday(d time.Time) time.Time {
	first := time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	offset := (int(time.Friday) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+14)
}
