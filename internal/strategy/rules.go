package strategy

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/Knetic/govaluate"
)

// Strike rules express a leg's strike anchor relative to the market or
// to other open legs:
//
//	ATM              at the money
//	ATM:+10          spot plus 10
//	ATM:-5%          spot minus 5 percent
//	ABS:4500         absolute strike
//	{LEG1.STRIKE}-25 expression over prior legs
//
// The resolved value is an anchor; the engine still snaps it to the
// nearest available strike in the day's chain.

// Typed errors so callers and tests detect failure categories without
// string matching.
var (
	ErrInvalidStrikeRule  = errors.New("invalid strike rule")
	ErrLegIndexOutOfRange = errors.New("leg index out of range")
)

var legExprRe = regexp.MustCompile(`\{LEG(\d)\.(STRIKE|PREMIUM)\}`)

// ResolveStrikeRule converts a strike rule into a concrete strike
// anchor. legs holds previously opened legs referenced by {LEGn.*}
// expressions, in engine order (the long leg is LEG1).
func ResolveStrikeRule(rule string, spot float64, legs []Position) (float64, error) {
	rule = strings.TrimSpace(strings.ToUpper(rule))
	if rule == "" || rule == "ATM" {
		return spot, nil
	}

	if strings.HasPrefix(rule, "ATM:") {
		return resolveATMOffset(rule[len("ATM:"):], spot)
	}

	if strings.HasPrefix(rule, "ABS:") {
		abs, err := strconv.ParseFloat(rule[len("ABS:"):], 64)
		if err != nil || abs <= 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, rule)
		}
		return abs, nil
	}

	if strings.Contains(rule, "{LEG") {
		return evaluateLegExpression(rule, legs)
	}

	return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, rule)
}

// resolveATMOffset applies an absolute or percentage offset to spot.
func resolveATMOffset(offset string, spot float64) (float64, error) {
	if strings.HasSuffix(offset, "%") {
		pct, err := strconv.ParseFloat(strings.TrimSuffix(offset, "%"), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: ATM:%s", ErrInvalidStrikeRule, offset)
		}
		return math.Round((spot+spot*pct/100)*100) / 100, nil
	}

	abs, err := strconv.ParseFloat(offset, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: ATM:%s", ErrInvalidStrikeRule, offset)
	}
	return math.Round((spot+abs)*100) / 100, nil
}

// evaluateLegExpression substitutes {LEGn.STRIKE}/{LEGn.PREMIUM}
// references and evaluates the remaining arithmetic.
func evaluateLegExpression(expr string, legs []Position) (float64, error) {
	matches := legExprRe.FindAllStringSubmatch(expr, -1)
	if matches == nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, expr)
	}

	evalStr := expr
	for _, match := range matches {
		idx, _ := strconv.Atoi(match[1])
		idx-- // LEG1 is index 0

		if idx < 0 || idx >= len(legs) {
			return 0, fmt.Errorf("%w: LEG%s", ErrLegIndexOutOfRange, match[1])
		}

		var value float64
		if match[2] == "STRIKE" {
			value = legs[idx].Contract.Strike
		} else {
			value = legs[idx].EntryPrice
		}

		evalStr = strings.Replace(evalStr, match[0], fmt.Sprintf("%f", value), 1)
	}

	evalExpr, err := govaluate.NewEvaluableExpression(evalStr)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, expr)
	}

	result, err := evalExpr.Evaluate(nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, expr)
	}

	f, ok := result.(float64)
	if !ok || f <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidStrikeRule, expr)
	}
	return f, nil
}
