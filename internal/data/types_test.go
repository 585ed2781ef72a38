package data

import (
	"testing"
)

func TestParseRight(t *testing.T) {
	tests := []struct {
		in       string
		expected Right
		fails    bool
	}{
		{"call", Call, false},
		{"CALL", Call, false},
		{"c", Call, false},
		{"put", Put, false},
		{"P", Put, false},
		{"straddle", "", true},
		{"", "", true},
	}
	for _, test := range tests {
		got, err := ParseRight(test.in)
		if test.fails {
			if err == nil {
				t.Fatalf("ParseRight(%q): expected an error", test.in)
			}
			continue
		}
		if err != nil || got != test.expected {
			t.Fatalf("ParseRight(%q): expected %s, got %s (%v)", test.in, test.expected, got, err)
		}
	}
}

func TestContractDTE(t *testing.T) {
	c := OptionContract{
		Underlying: "SPY",
		Strike:     100,
		Expiry:     d("2024-03-15"),
		Right:      Put,
		AsOf:       d("2024-03-01"),
	}
	if got := c.DTE(); got != 14 {
		t.Fatalf("DTE: expected 14, got %d", got)
	}

	c.AsOf = d("2024-03-15")
	if got := c.DTE(); got != 0 {
		t.Fatalf("DTE on expiry day: expected 0, got %d", got)
	}
}

func TestContractSymbol(t *testing.T) {
	c := OptionContract{
		Underlying: "spy",
		Strike:     472.5,
		Expiry:     d("2024-06-21"),
		Right:      Put,
	}
	if got, want := c.Symbol(), "O:SPY240621P00472500"; got != want {
		t.Fatalf("symbol: expected %s, got %s", want, got)
	}

	c.Right = Call
	c.Strike = 5
	if got, want := c.Symbol(), "O:SPY240621C00005000"; got != want {
		t.Fatalf("symbol: expected %s, got %s", want, got)
	}
}

func TestSameContract(t *testing.T) {
	base := OptionContract{
		Underlying: "SPY",
		Strike:     100,
		Expiry:     d("2024-06-21"),
		Right:      Put,
		AsOf:       d("2024-03-01"),
	}

	other := base
	other.AsOf = d("2024-04-15")
	if !base.SameContract(other) {
		t.Fatal("as-of date must not affect contract identity")
	}

	other = base
	other.Strike = 105
	if base.SameContract(other) {
		t.Fatal("different strikes are different contracts")
	}

	other = base
	other.Right = Call
	if base.SameContract(other) {
		t.Fatal("different rights are different contracts")
	}
}

func TestPricedOptionMid(t *testing.T) {
	p := PricedOption{Bid: 1.0, Ask: 1.5}
	if p.Mid() != 1.25 {
		t.Fatalf("mid: expected 1.25, got %v", p.Mid())
	}
}

func TestCloses(t *testing.T) {
	bars := []Bar{
		{Date: d("2024-01-02"), Close: 100},
		{Date: d("2024-01-03"), Close: 101.5},
	}
	closes := Closes(bars)
	if len(closes) != 2 || closes[0] != 100 || closes[1] != 101.5 {
		t.Fatalf("closes wrong: %v", closes)
	}
}
