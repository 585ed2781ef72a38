package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
)

func TestResolveStrikeRule(t *testing.T) {
	spot := 581.39
	legs := []Position{
		{
			Contract:   data.OptionContract{Underlying: "SPY", Strike: 560, Right: data.Put},
			Side:       Long,
			EntryPrice: 12.5,
			EntryDate:  time.Date(2025, time.January, 14, 0, 0, 0, 0, time.UTC),
		},
	}

	tests := []struct {
		rule     string
		expected float64
	}{
		{"ATM", 581.39},
		{"", 581.39},
		{"atm", 581.39},
		{"ATM:+10", 591.39},
		{"ATM:-20", 561.39},
		{"ATM:+10%", 639.53},
		{"ATM:-20%", 465.11},
		{"ABS:600", 600.0},
		{"{LEG1.STRIKE}", 560.0},
		{"{LEG1.STRIKE}-25", 535.0},
		{"{LEG1.STRIKE}+{LEG1.PREMIUM}", 572.5},
	}

	for _, test := range tests {
		actual, err := ResolveStrikeRule(test.rule, spot, legs)
		if err != nil {
			t.Fatalf("rule %q: %v", test.rule, err)
		}
		if actual != test.expected {
			t.Fatalf("rule %q: expected %f, got %f", test.rule, test.expected, actual)
		}
	}
}

func TestResolveStrikeRuleInvalid(t *testing.T) {
	for _, rule := range []string{"DELTA:30", "ABS:zero", "ABS:-5", "ATM:ten", "garbage"} {
		if _, err := ResolveStrikeRule(rule, 100, nil); !errors.Is(err, ErrInvalidStrikeRule) {
			t.Fatalf("rule %q: expected ErrInvalidStrikeRule, got %v", rule, err)
		}
	}
}

func TestResolveStrikeRuleLegOutOfRange(t *testing.T) {
	if _, err := ResolveStrikeRule("{LEG2.STRIKE}", 100, []Position{{}}); !errors.Is(err, ErrLegIndexOutOfRange) {
		t.Fatalf("expected ErrLegIndexOutOfRange, got %v", err)
	}
	if _, err := ResolveStrikeRule("{LEG1.STRIKE}", 100, nil); !errors.Is(err, ErrLegIndexOutOfRange) {
		t.Fatalf("expected ErrLegIndexOutOfRange for empty legs, got %v", err)
	}
}
