package chain

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
)

var (
	asOf   = time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC)
	cfgStd = Config{
		Underlying:    "SPY",
		StrikeSpacing: 5,
		StrikeCount:   7,
		Spread:        DefaultSpreadModel(),
		RiskFreeRate:  0.05,
	}
)

func expiriesAfter(asOf time.Time, days ...int) []time.Time {
	out := make([]time.Time, len(days))
	for i, d := range days {
		out[i] = asOf.AddDate(0, 0, d)
	}
	return out
}

func TestSynthesizeSizeAndOrder(t *testing.T) {
	exps := expiriesAfter(asOf, 7, 30, 90)

	chain, err := Synthesize(asOf, 100, 0.20, exps, cfgStd)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}
	if got, want := len(chain), 2*cfgStd.StrikeCount*len(exps); got != want {
		t.Fatalf("chain size: expected %d, got %d", want, got)
	}

	// Expiry ascending, then strike ascending, calls before puts.
	for i := 1; i < len(chain); i++ {
		prev, cur := chain[i-1], chain[i]
		switch {
		case cur.Expiry.After(prev.Expiry):
		case !cur.Expiry.Equal(prev.Expiry):
			t.Fatalf("expiry order broken at %d", i)
		case cur.Strike > prev.Strike:
		case cur.Strike != prev.Strike:
			t.Fatalf("strike order broken at %d", i)
		case prev.Right == data.Call && cur.Right == data.Put:
		default:
			t.Fatalf("right order broken at %d: %s then %s", i, prev.Right, cur.Right)
		}
	}
}

func TestSynthesizeStrikeBand(t *testing.T) {
	chain, err := Synthesize(asOf, 101.3, 0.20, expiriesAfter(asOf, 30), cfgStd)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	// Anchor rounds 101.3 to 100; 7 strikes spaced 5 run 85..115.
	seen := map[float64]bool{}
	for _, c := range chain {
		seen[c.Strike] = true
	}
	for _, want := range []float64{85, 90, 95, 100, 105, 110, 115} {
		if !seen[want] {
			t.Fatalf("expected strike %v in band, got %v", want, seen)
		}
	}
	if len(seen) != 7 {
		t.Fatalf("expected 7 distinct strikes, got %d", len(seen))
	}
}

func TestSynthesizeZeroVolDeepPut(t *testing.T) {
	// With zero volatility the 115 put against a 100 spot is worth its
	// discounted intrinsic value exactly.
	chain, err := Synthesize(asOf, 100, 0, expiriesAfter(asOf, 30), cfgStd)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	var found *data.PricedOption
	for i := range chain {
		if chain[i].Right == data.Put && chain[i].Strike == 115 {
			found = &chain[i]
			break
		}
	}
	if found == nil {
		t.Fatal("115 put missing from chain")
	}

	want := 115*math.Exp(-0.05*30.0/365) - 100
	if math.Abs(found.Theoretical-want) > 1e-9 {
		t.Fatalf("zero-vol 115 put: expected %v, got %v", want, found.Theoretical)
	}
	if found.ImpliedVol != 0 {
		t.Fatalf("flat surface must carry input volatility, got %v", found.ImpliedVol)
	}
}

func TestSynthesizeSpreadShape(t *testing.T) {
	chain, err := Synthesize(asOf, 100, 0.25, expiriesAfter(asOf, 60), cfgStd)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	var atm, wing data.PricedOption
	for _, c := range chain {
		if c.Right != data.Put {
			continue
		}
		if c.Strike == 100 {
			atm = c
		}
		if c.Strike == 85 {
			wing = c
		}
	}

	for _, c := range []data.PricedOption{atm, wing} {
		if spread := c.Ask - c.Bid; spread < cfgStd.Spread.MinSpread-1e-12 {
			t.Fatalf("spread %v below floor at strike %v", spread, c.Strike)
		}
		if c.Bid < 0 {
			t.Fatalf("negative bid %v at strike %v", c.Bid, c.Strike)
		}
		if mid := c.Mid(); math.Abs(mid-c.Theoretical) > c.Theoretical*0.02+cfgStd.Spread.MinSpread {
			t.Fatalf("mid %v drifted from theoretical %v at strike %v", mid, c.Theoretical, c.Strike)
		}
	}

	// Relative spread widens away from the money.
	atmRel := (atm.Ask - atm.Bid) / atm.Mid()
	wingRel := (wing.Ask - wing.Bid) / wing.Mid()
	if wingRel <= atmRel {
		t.Fatalf("wing relative spread %v should exceed ATM %v", wingRel, atmRel)
	}
}

func TestSynthesizeLiquidityPeaksATM(t *testing.T) {
	chain, err := Synthesize(asOf, 100, 0.20, expiriesAfter(asOf, 30), cfgStd)
	if err != nil {
		t.Fatalf("synthesize failed: %v", err)
	}

	byStrike := map[float64]data.PricedOption{}
	for _, c := range chain {
		if c.Right == data.Put {
			byStrike[c.Strike] = c
		}
	}
	atm := byStrike[100]
	for k, c := range byStrike {
		if k == 100 {
			continue
		}
		if c.TradeVolume >= atm.TradeVolume {
			t.Fatalf("volume at %v (%d) should be below ATM (%d)", k, c.TradeVolume, atm.TradeVolume)
		}
		if c.OpenInterest >= atm.OpenInterest {
			t.Fatalf("open interest at %v (%d) should be below ATM (%d)", k, c.OpenInterest, atm.OpenInterest)
		}
	}
}

func TestSynthesizeParallelMatchesSequential(t *testing.T) {
	exps := expiriesAfter(asOf, 7, 14, 30, 90, 365)

	seq, err := Synthesize(asOf, 417.8, 0.22, exps, cfgStd)
	if err != nil {
		t.Fatalf("sequential synthesize failed: %v", err)
	}

	par := cfgStd
	par.Workers = 8
	got, err := Synthesize(asOf, 417.8, 0.22, exps, par)
	if err != nil {
		t.Fatalf("parallel synthesize failed: %v", err)
	}

	if len(seq) != len(got) {
		t.Fatalf("size mismatch: %d vs %d", len(seq), len(got))
	}
	for i := range seq {
		if seq[i] != got[i] {
			t.Fatalf("slot %d differs between sequential and parallel runs", i)
		}
	}
}

func TestSynthesizeInvalidInputs(t *testing.T) {
	exps := expiriesAfter(asOf, 30)

	cases := []struct {
		name string
		run  func() error
	}{
		{"zero spot", func() error { _, err := Synthesize(asOf, 0, 0.2, exps, cfgStd); return err }},
		{"negative vol", func() error { _, err := Synthesize(asOf, 100, -0.2, exps, cfgStd); return err }},
		{"no expirations", func() error { _, err := Synthesize(asOf, 100, 0.2, nil, cfgStd); return err }},
		{"stale expiration", func() error {
			_, err := Synthesize(asOf, 100, 0.2, []time.Time{asOf}, cfgStd)
			return err
		}},
		{"bad spacing", func() error {
			bad := cfgStd
			bad.StrikeSpacing = 0
			_, err := Synthesize(asOf, 100, 0.2, exps, bad)
			return err
		}},
		{"band below zero", func() error {
			_, err := Synthesize(asOf, 3, 0.2, exps, cfgStd)
			return err
		}},
	}
	for _, c := range cases {
		if err := c.run(); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("%s: expected ErrInvalidInput, got %v", c.name, err)
		}
	}
}

func TestStrikeBandLowSpot(t *testing.T) {
	// A spot too small for the band must fail loudly, never fold low
	// strikes into duplicates.
	if _, err := strikeBand(3, 5, 7); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("band reaching below zero: expected ErrInvalidInput, got %v", err)
	}

	// The smallest fitting band keeps every strike positive and distinct.
	band, err := strikeBand(20, 5, 7)
	if err != nil {
		t.Fatalf("strikeBand: %v", err)
	}
	if len(band) != 7 {
		t.Fatalf("expected 7 strikes, got %d", len(band))
	}
	seen := make(map[float64]bool, len(band))
	for _, k := range band {
		if k <= 0 {
			t.Fatalf("non-positive strike %v in band", k)
		}
		if seen[k] {
			t.Fatalf("duplicate strike %v in band", k)
		}
		seen[k] = true
	}
}
