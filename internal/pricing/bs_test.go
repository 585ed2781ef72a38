package pricing

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestPriceReferenceValues(t *testing.T) {
	// Textbook case: S=100, K=100, T=1y, r=5%, sigma=20%.
	call, err := Price(true, 100, 100, 1, 0.05, 0.20)
	if err != nil {
		t.Fatalf("call pricing failed: %v", err)
	}
	put, err := Price(false, 100, 100, 1, 0.05, 0.20)
	if err != nil {
		t.Fatalf("put pricing failed: %v", err)
	}

	if !almostEqual(call.Price, 10.450583572185565, 1e-9) {
		t.Fatalf("call price: expected 10.450583572185565, got %v", call.Price)
	}
	if !almostEqual(put.Price, 5.573526022256971, 1e-9) {
		t.Fatalf("put price: expected 5.573526022256971, got %v", put.Price)
	}
}

func TestPutCallParity(t *testing.T) {
	cases := []struct {
		S, K, T, r, sigma float64
	}{
		{100, 100, 1, 0.05, 0.20},
		{581.39, 600, 0.25, 0.043, 0.18},
		{50, 45, 2, 0.01, 0.55},
		{120, 90, 0.04, 0.05, 0.30},
	}

	for _, c := range cases {
		call, err := Price(true, c.S, c.K, c.T, c.r, c.sigma)
		if err != nil {
			t.Fatalf("call pricing failed: %v", err)
		}
		put, err := Price(false, c.S, c.K, c.T, c.r, c.sigma)
		if err != nil {
			t.Fatalf("put pricing failed: %v", err)
		}

		lhs := call.Price - put.Price
		rhs := c.S - c.K*math.Exp(-c.r*c.T)
		if !almostEqual(lhs, rhs, 1e-9) {
			t.Fatalf("parity violated for S=%v K=%v: C-P=%v, S-Ke^-rT=%v", c.S, c.K, lhs, rhs)
		}

		// Phi(d1) - (Phi(d1) - 1) = 1 for matching parameters.
		if !almostEqual(call.Delta-put.Delta, 1, 1e-12) {
			t.Fatalf("delta relation violated: call=%v put=%v", call.Delta, put.Delta)
		}
	}
}

func TestPriceAtExpiry(t *testing.T) {
	call, err := Price(true, 110, 100, 0, 0.05, 0.20)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if call.Price != 10 {
		t.Fatalf("expired ITM call: expected intrinsic 10, got %v", call.Price)
	}
	if call.Delta != 0 || call.Gamma != 0 || call.Theta != 0 || call.Vega != 0 {
		t.Fatalf("expired option must carry zero greeks, got %+v", call)
	}

	put, err := Price(false, 110, 100, -0.01, 0.05, 0.20)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if put.Price != 0 {
		t.Fatalf("expired OTM put: expected 0, got %v", put.Price)
	}
}

func TestPriceZeroVolatility(t *testing.T) {
	// sigma=0 collapses to the discounted intrinsic payoff.
	put, err := Price(false, 100, 115, 30.0/365, 0.05, 0)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	expected := 115*math.Exp(-0.05*30.0/365) - 100
	if !almostEqual(put.Price, expected, 1e-12) {
		t.Fatalf("zero-vol put: expected %v, got %v", expected, put.Price)
	}
	if put.Delta != 0 || put.Vega != 0 {
		t.Fatalf("zero-vol option must carry zero greeks, got %+v", put)
	}

	call, err := Price(true, 100, 115, 30.0/365, 0.05, 0)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if call.Price != 0 {
		t.Fatalf("zero-vol OTM call: expected 0, got %v", call.Price)
	}
}

func TestPriceInvalidInputs(t *testing.T) {
	cases := []struct {
		name              string
		S, K, T, r, sigma float64
	}{
		{"zero spot", 0, 100, 1, 0.05, 0.2},
		{"negative spot", -5, 100, 1, 0.05, 0.2},
		{"zero strike", 100, 0, 1, 0.05, 0.2},
		{"negative sigma", 100, 100, 1, 0.05, -0.2},
	}
	for _, c := range cases {
		if _, err := Price(true, c.S, c.K, c.T, c.r, c.sigma); !errors.Is(err, ErrInvalidParameter) {
			t.Fatalf("%s: expected ErrInvalidParameter, got %v", c.name, err)
		}
	}
}

func TestGreeksSigns(t *testing.T) {
	q, err := Price(false, 100, 100, 0.5, 0.05, 0.25)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if q.Delta >= 0 || q.Delta <= -1 {
		t.Fatalf("ATM put delta out of range: %v", q.Delta)
	}
	if q.Gamma <= 0 {
		t.Fatalf("gamma must be positive, got %v", q.Gamma)
	}
	if q.Vega <= 0 {
		t.Fatalf("vega must be positive, got %v", q.Vega)
	}
	if q.Theta >= 0 {
		t.Fatalf("ATM put theta should be negative, got %v", q.Theta)
	}
}

func TestImpliedVolRoundTrip(t *testing.T) {
	const sigma = 0.27
	call, _ := Price(true, 100, 100, 0.5, 0.05, sigma)
	put, _ := Price(false, 100, 100, 0.5, 0.05, sigma)

	iv, err := ImpliedVolATM(100, 100, 0.5, 0.05, call.Price, put.Price)
	if err != nil {
		t.Fatalf("implied vol failed: %v", err)
	}
	// The call/put average is not exactly the call price, so allow a
	// little slack on top of the solver tolerance.
	if !almostEqual(iv, sigma, 1e-2) {
		t.Fatalf("implied vol: expected ~%v, got %v", sigma, iv)
	}
}

func TestStrikeFromDeltaRoundTrip(t *testing.T) {
	const (
		S      = 450.0
		target = -0.25
		r      = 0.05
		sigma  = 0.22
		T      = 1.0
	)
	K, err := StrikeFromDelta(S, target, r, sigma, T, false)
	if err != nil {
		t.Fatalf("strike from delta failed: %v", err)
	}
	q, err := Price(false, S, K, T, r, sigma)
	if err != nil {
		t.Fatalf("pricing failed: %v", err)
	}
	if !almostEqual(q.Delta, target, 1e-6) {
		t.Fatalf("round trip delta: expected %v, got %v at strike %v", target, q.Delta, K)
	}
}

func TestNormInv(t *testing.T) {
	if !almostEqual(NormInv(0.5), 0, 1e-12) {
		t.Fatalf("NormInv(0.5) should be 0, got %v", NormInv(0.5))
	}
	for _, x := range []float64{-3, -1.5, -0.1, 0.4, 2.2} {
		p := normCDF(x)
		if !almostEqual(NormInv(p), x, 1e-6) {
			t.Fatalf("NormInv(normCDF(%v)): got %v", x, NormInv(p))
		}
	}
}
