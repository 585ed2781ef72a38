// Package pricing implements closed-form European option valuation
// (Black-Scholes) and the associated risk sensitivities.
//
// Conventions:
//   - Time to expiry is in years (calendar days / 365).
//   - Theta is reported per calendar day (annual theta / 365).
//   - Vega is reported per 1 vol point (per 0.01 change in sigma).
//
// Edge policy:
//   - T <= 0: intrinsic value, zeroed Greeks.
//   - sigma == 0: discounted intrinsic value, zeroed Greeks. No Phi
//     evaluation happens with a zero denominator.
//   - spot <= 0 or strike <= 0: ErrInvalidParameter.
package pricing

import (
	"errors"
	"fmt"
	"math"
)

const sqrt2Pi = 2.5066282746310002

// ErrInvalidParameter marks malformed pricing inputs. Always a caller
// bug; never retried.
var ErrInvalidParameter = errors.New("invalid pricing parameter")

// ErrNonConvergent is returned when the implied vol iteration runs out
// of steps without meeting tolerance.
var ErrNonConvergent = errors.New("implied vol did not converge")

// Quote is the fair value and sensitivities of one contract.
type Quote struct {
	Price float64
	Delta float64
	Gamma float64
	Theta float64 // per calendar day
	Vega  float64 // per 1 vol point
}

// Price values a European option and computes its Greeks.
//
// Parameters:
//   - isCall: true for call, false for put
//   - S: spot price of the underlying
//   - K: strike price
//   - T: time to expiry in years
//   - r: risk-free rate (annual, continuous compounding)
//   - sigma: annualized volatility as a decimal
func Price(isCall bool, S, K, T, r, sigma float64) (Quote, error) {
	if S <= 0 || K <= 0 {
		return Quote{}, fmt.Errorf("%w: spot=%.4f strike=%.4f", ErrInvalidParameter, S, K)
	}
	if sigma < 0 {
		return Quote{}, fmt.Errorf("%w: negative volatility %.4f", ErrInvalidParameter, sigma)
	}

	if T <= 0 {
		return Quote{Price: intrinsic(isCall, S, K)}, nil
	}

	if sigma == 0 {
		// Deterministic payoff: discount the strike, no distribution terms.
		disc := K * math.Exp(-r*T)
		if isCall {
			return Quote{Price: math.Max(S-disc, 0)}, nil
		}
		return Quote{Price: math.Max(disc-S, 0)}, nil
	}

	sqrtT := math.Sqrt(T)
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT
	discK := K * math.Exp(-r*T)

	q := Quote{
		Gamma: normPDF(d1) / (S * sigma * sqrtT),
		Vega:  S * normPDF(d1) * sqrtT / 100,
	}

	if isCall {
		q.Price = S*normCDF(d1) - discK*normCDF(d2)
		q.Delta = normCDF(d1)
		q.Theta = (-S*normPDF(d1)*sigma/(2*sqrtT) - r*discK*normCDF(d2)) / 365
	} else {
		q.Price = discK*normCDF(-d2) - S*normCDF(-d1)
		q.Delta = normCDF(d1) - 1
		q.Theta = (-S*normPDF(d1)*sigma/(2*sqrtT) + r*discK*normCDF(-d2)) / 365
	}
	if q.Price < 0 {
		q.Price = 0
	}
	return q, nil
}

func intrinsic(isCall bool, S, K float64) float64 {
	if isCall {
		return math.Max(S-K, 0)
	}
	return math.Max(K-S, 0)
}

// Vega returns the sensitivity of the option price to a 1 vol point
// change in sigma. Returns 0 if T or sigma is non-positive.
func Vega(S, K, T, r, sigma float64) float64 {
	if T <= 0 || sigma <= 0 {
		return 0
	}
	d1 := (math.Log(S/K) + (r+0.5*sigma*sigma)*T) / (sigma * math.Sqrt(T))
	return S * normPDF(d1) * math.Sqrt(T) / 100
}

// ImpliedVolATM solves for the volatility that reproduces the average of
// the observed ATM call and put prices, using Newton-Raphson.
// Returns an error if inputs are invalid or the iteration fails to
// converge.
func ImpliedVolATM(S, K, T, r, callPrice, putPrice float64) (float64, error) {
	if T <= 0 {
		return 0, fmt.Errorf("%w: non-positive expiry", ErrInvalidParameter)
	}

	marketPrice := (callPrice + putPrice) / 2

	// Initial guess: 20%
	sigma := 0.20

	const (
		maxIter = 100
		tol     = 1e-6
	)

	for i := 0; i < maxIter; i++ {
		q, err := Price(true, S, K, T, r, sigma)
		if err != nil {
			return 0, err
		}
		diff := q.Price - marketPrice

		if math.Abs(diff) < tol {
			return sigma, nil
		}

		// Newton step on annualized vega (the /100 scaling would distort it).
		vega := q.Vega * 100
		if vega < 1e-8 {
			break
		}

		sigma -= diff / vega

		// Guardrails
		if sigma <= 0 {
			sigma = 1e-4
		}
		if sigma > 5 {
			sigma = 5
		}
	}

	return 0, ErrNonConvergent
}

// StrikeFromDelta inverts the Black-Scholes delta to find the strike
// whose delta equals target. For puts, target is the (negative) put
// delta.
func StrikeFromDelta(S, target, r, sigma, T float64, isCall bool) (float64, error) {
	if S <= 0 || sigma <= 0 || T <= 0 {
		return 0, fmt.Errorf("%w: spot=%.4f sigma=%.4f T=%.4f", ErrInvalidParameter, S, sigma, T)
	}
	p := target
	if !isCall {
		p = 1 + target // put delta = Phi(d1) - 1
	}
	if p <= 0 || p >= 1 {
		return 0, fmt.Errorf("%w: unreachable delta %.4f", ErrInvalidParameter, target)
	}
	d1 := NormInv(p)
	return S * math.Exp((r+0.5*sigma*sigma)*T-d1*sigma*math.Sqrt(T)), nil
}

// normPDF is the standard normal probability density at x.
func normPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / sqrt2Pi
}

// normCDF is the standard normal cumulative distribution at x,
// via the error function.
func normCDF(x float64) float64 {
	return 0.5 * (1.0 + math.Erf(x/math.Sqrt2))
}
