package strategy

import (
	"fmt"
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
	"github.com/FlamaLlamas/market-analysis/internal/logger"
	"github.com/FlamaLlamas/market-analysis/internal/pricing"
	"github.com/FlamaLlamas/market-analysis/internal/volatility"
)

// Config is the strategy parameter surface. Zero fields are filled by
// Normalize; the values are tuning defaults, not hardcoded behavior.
type Config struct {
	Underlying     string  `json:"underlying" yaml:"underlying"`
	InitialCapital float64 `json:"initial_capital" yaml:"initial_capital"`
	RiskFreeRate   float64 `json:"risk_free_rate" yaml:"risk_free_rate"`
	Qty            int     `json:"qty" yaml:"qty"`

	ShortDTETarget  int    `json:"short_dte_target" yaml:"short_dte_target"`
	ShortStrikeRule string `json:"short_strike_rule" yaml:"short_strike_rule"`

	LongDTETarget        int     `json:"long_dte_target" yaml:"long_dte_target"`
	TargetDelta          float64 `json:"target_delta" yaml:"target_delta"` // signed put delta
	DeltaTolerance       float64 `json:"delta_tolerance" yaml:"delta_tolerance"`
	LongRollThresholdDTE int     `json:"long_roll_threshold_dte" yaml:"long_roll_threshold_dte"`

	// Selection tolerances and weights.
	MaxDeltaDistance    float64 `json:"max_delta_distance" yaml:"max_delta_distance"`
	LongMaxDTEDistance  int     `json:"long_max_dte_distance" yaml:"long_max_dte_distance"`
	ShortMaxDTEDistance int     `json:"short_max_dte_distance" yaml:"short_max_dte_distance"`
	DeltaWeight         float64 `json:"delta_weight" yaml:"delta_weight"`
	DTEWeight           float64 `json:"dte_weight" yaml:"dte_weight"`
}

// Normalize fills unset fields with the strategy defaults.
func (c Config) Normalize() Config {
	if c.Underlying == "" {
		c.Underlying = "SPY"
	}
	if c.InitialCapital <= 0 {
		c.InitialCapital = 10000
	}
	if c.RiskFreeRate == 0 {
		c.RiskFreeRate = 0.05
	}
	if c.Qty <= 0 {
		c.Qty = 1
	}
	if c.ShortDTETarget <= 0 {
		c.ShortDTETarget = 15
	}
	if c.ShortStrikeRule == "" {
		c.ShortStrikeRule = "ATM"
	}
	if c.LongDTETarget <= 0 {
		c.LongDTETarget = 365
	}
	if c.TargetDelta == 0 {
		c.TargetDelta = -0.25
	}
	if c.DeltaTolerance <= 0 {
		c.DeltaTolerance = 0.10
	}
	if c.LongRollThresholdDTE <= 0 {
		c.LongRollThresholdDTE = 30
	}
	if c.MaxDeltaDistance <= 0 {
		c.MaxDeltaDistance = 0.15
	}
	if c.LongMaxDTEDistance <= 0 {
		c.LongMaxDTEDistance = 90
	}
	if c.ShortMaxDTEDistance <= 0 {
		c.ShortMaxDTEDistance = 10
	}
	if c.DeltaWeight <= 0 {
		c.DeltaWeight = 1.0
	}
	if c.DTEWeight <= 0 {
		c.DTEWeight = 0.5
	}
	return c
}

// ChainSource supplies one day's option chain. Implementations must be
// pure with respect to their inputs; the engine tolerates a nil/empty
// chain as a data gap.
type ChainSource interface {
	ChainFor(asOf time.Time, spot, sigma float64) ([]data.PricedOption, error)
}

// Engine walks trading days in order, holding at most one short and one
// long put leg, and appends every transition to the ledger. One
// instance per underlying; day N's state feeds day N+1, so the walk
// stays single-threaded.
type Engine struct {
	cfg    Config
	chains ChainSource

	cash   float64
	long   *Position
	short  *Position
	nextID int
	result *Result
}

// New constructs an engine with normalized configuration.
func New(cfg Config, chains ChainSource) *Engine {
	return &Engine{cfg: cfg.Normalize(), chains: chains}
}

// Run simulates every bar that has a volatility estimate. Bars before
// the first estimate are insufficient history and skipped. The returned
// result is self-contained; the engine can be Run again only on a fresh
// instance.
func (e *Engine) Run(bars []data.Bar, vols []volatility.Estimate) (*Result, error) {
	if len(bars) == 0 {
		return nil, fmt.Errorf("strategy run: no price bars")
	}
	if len(vols) == 0 {
		return nil, fmt.Errorf("strategy run: no volatility estimates")
	}

	volByDate := volatility.ByDate(vols)

	e.cash = e.cfg.InitialCapital
	e.nextID = 1
	e.result = &Result{
		Underlying: e.cfg.Underlying,
		Start:      bars[0].Date,
		End:        bars[len(bars)-1].Date,
	}

	for _, bar := range bars {
		key := bar.Date.Format("2006-01-02")
		est, ok := volByDate[key]
		if !ok {
			logger.Tracef("no volatility for %s, pre-history day skipped", key)
			continue
		}

		chain, err := e.chains.ChainFor(bar.Date, bar.Close, est.Annualized)
		if err != nil || len(chain) == 0 {
			e.warn(bar.Date, WarnDataGap, fmt.Sprintf("no usable chain for %s: %v", key, err))
			continue
		}

		e.stepDay(bar, est.Annualized, chain)
	}

	// Legs still open at the end of the walk are recorded as-is.
	if e.long != nil {
		e.record(*e.long)
	}
	if e.short != nil {
		e.record(*e.short)
	}

	logger.Infof("simulation %s: %d ledger entries, %d snapshots, %d warnings",
		e.cfg.Underlying, len(e.result.Ledger), len(e.result.Snapshots), len(e.result.Warnings))
	return e.result, nil
}

// stepDay applies the per-day transition set in fixed order:
// expiration, short-leg cycle, long-leg roll, cold-start entry, then
// mark-to-market. The order must not change; it defines the
// reproducible output.
func (e *Engine) stepDay(bar data.Bar, sigma float64, chain []data.PricedOption) {
	date, spot := bar.Date, bar.Close

	// 1. Expiration check.
	if e.short != nil && !date.Before(e.short.Contract.Expiry) {
		e.expire(e.short, date, spot)
		e.short = nil
	}
	if e.long != nil && !date.Before(e.long.Contract.Expiry) {
		e.expire(e.long, date, spot)
		e.long = nil
	}

	// 2. Short-leg cycle: re-open whenever no short leg is outstanding.
	if e.short == nil {
		e.openShort(date, spot, chain)
	}

	// 3. Long-leg roll.
	if e.long != nil {
		e.maybeRollLong(date, spot, sigma, chain)
	}

	// 4. Cold start: no long leg at all, enter with the roll selection rule.
	if e.long == nil {
		e.openLong(date, spot, sigma, chain)
	}

	// 5. Mark to market. Runs every valued day regardless of transitions.
	e.snapshot(date, spot, sigma, chain)
}

func (e *Engine) openShort(date time.Time, spot float64, chain []data.PricedOption) {
	var legs []Position
	if e.long != nil {
		legs = append(legs, *e.long)
	}
	anchor, err := ResolveStrikeRule(e.cfg.ShortStrikeRule, spot, legs)
	if err != nil {
		e.warn(date, WarnNoSuitableContract, fmt.Sprintf("short strike rule: %v", err))
		return
	}

	pick, ok := SelectNearStrike(chain, data.Put, anchor, e.cfg.ShortDTETarget, e.cfg.ShortMaxDTEDistance)
	if !ok {
		e.warn(date, WarnNoSuitableContract,
			fmt.Sprintf("no short put near strike %.2f dte %d", anchor, e.cfg.ShortDTETarget))
		return
	}

	// Sells fill at the bid.
	e.short = e.open(pick, Short, pick.Bid, date, spot)
}

func (e *Engine) openLong(date time.Time, spot, sigma float64, chain []data.PricedOption) {
	anchor, anchorErr := e.longStrikeAnchor(spot, sigma)

	pick, ok := SelectByDelta(chain, data.Put, e.deltaSelection())
	if !ok {
		msg := fmt.Sprintf("no long put near delta %.2f dte %d", e.cfg.TargetDelta, e.cfg.LongDTETarget)
		if anchorErr == nil {
			msg += fmt.Sprintf(", delta-implied strike %.2f", anchor)
		}
		e.warn(date, WarnNoSuitableContract, msg)
		return
	}
	if anchorErr == nil {
		logger.Debugf("long entry %s: strike %.2f vs delta-implied %.2f",
			date.Format("2006-01-02"), pick.Strike, anchor)
	}

	// Buys fill at the ask.
	e.long = e.open(pick, Long, pick.Ask, date, spot)
}

// longStrikeAnchor inverts the configured target delta into the strike
// it implies at the long tenor, for entry diagnostics. The chain pick
// stays authoritative; the anchor only contextualizes it.
func (e *Engine) longStrikeAnchor(spot, sigma float64) (float64, error) {
	return pricing.StrikeFromDelta(spot, e.cfg.TargetDelta, e.cfg.RiskFreeRate, sigma,
		float64(e.cfg.LongDTETarget)/365, false)
}

// maybeRollLong closes and replaces the long leg in one atomic ledger
// event when its delta has drifted beyond tolerance or its remaining
// tenor has decayed below the roll threshold. The old leg is closed
// only after a replacement is found, so a roll can never leave the
// engine without a long leg.
func (e *Engine) maybeRollLong(date time.Time, spot, sigma float64, chain []data.PricedOption) {
	held := e.markContract(e.long.Contract, date, spot, sigma, chain)

	delta := held.Delta
	dte := held.DTE()

	drift := delta - e.cfg.TargetDelta
	if drift < 0 {
		drift = -drift
	}
	if drift <= e.cfg.DeltaTolerance && dte >= e.cfg.LongRollThresholdDTE {
		return
	}

	pick, ok := SelectByDelta(chain, data.Put, e.deltaSelection())
	if !ok {
		e.warn(date, WarnNoSuitableContract,
			fmt.Sprintf("roll wanted (delta=%.3f dte=%d) but no replacement in tolerance", delta, dte))
		return
	}
	if pick.SameContract(e.long.Contract) {
		// Replacement is the leg we already hold; drift resolves itself.
		return
	}

	old := e.long
	qty := float64(old.Qty)

	closePrice := held.Bid // selling the old long
	closeCash := closePrice * ContractMultiplier * qty
	realized := (closePrice - old.EntryPrice) * ContractMultiplier * qty

	old.Status = StatusRolled
	old.ExitPrice = closePrice
	old.ExitDate = date
	e.record(*old)

	openPrice := pick.Ask
	openCash := -openPrice * ContractMultiplier * float64(e.cfg.Qty)

	next := &Position{
		ID:         e.nextID,
		Contract:   pick.OptionContract,
		Side:       Long,
		Qty:        e.cfg.Qty,
		EntryPrice: openPrice,
		EntryDate:  date,
		Status:     StatusOpen,
	}
	e.nextID++
	e.long = next

	e.cash += closeCash + openCash
	e.result.Ledger = append(e.result.Ledger, LedgerEntry{
		Date:             date,
		Action:           ActionRoll,
		PositionID:       next.ID,
		ClosedPositionID: old.ID,
		Contract:         pick.OptionContract,
		Side:             Long,
		Qty:              e.cfg.Qty,
		Price:            openPrice,
		CashFlow:         closeCash + openCash,
		CloseCashFlow:    closeCash,
		OpenCashFlow:     openCash,
		RealizedPnL:      realized,
		Spot:             spot,
	})
	logger.Debugf("roll long %s: %d -> %d strike %.2f -> %.2f pnl %.2f",
		date.Format("2006-01-02"), old.ID, next.ID, old.Contract.Strike, pick.Strike, realized)
}

func (e *Engine) open(pick data.PricedOption, side Side, price float64, date time.Time, spot float64) *Position {
	pos := &Position{
		ID:         e.nextID,
		Contract:   pick.OptionContract,
		Side:       side,
		Qty:        e.cfg.Qty,
		EntryPrice: price,
		EntryDate:  date,
		Status:     StatusOpen,
	}
	e.nextID++

	cash := price * ContractMultiplier * float64(pos.Qty)
	if side == Long {
		cash = -cash
	}
	e.cash += cash

	e.result.Ledger = append(e.result.Ledger, LedgerEntry{
		Date:       date,
		Action:     ActionOpen,
		PositionID: pos.ID,
		Contract:   pos.Contract,
		Side:       side,
		Qty:        pos.Qty,
		Price:      price,
		CashFlow:   cash,
		Spot:       spot,
	})
	logger.Debugf("open %s %s %s strike %.2f exp %s @ %.2f",
		side, pos.Contract.Right, date.Format("2006-01-02"),
		pos.Contract.Strike, pos.Contract.Expiry.Format("2006-01-02"), price)
	return pos
}

// expire settles a position at intrinsic value on (or after) its expiry
// date. A short put finishing in the money is an assignment: the engine
// pays intrinsic to close it out.
func (e *Engine) expire(pos *Position, date time.Time, spot float64) {
	intrinsic := 0.0
	if pos.Contract.Right == data.Put {
		if v := pos.Contract.Strike - spot; v > 0 {
			intrinsic = v
		}
	} else {
		if v := spot - pos.Contract.Strike; v > 0 {
			intrinsic = v
		}
	}

	qty := float64(pos.Qty)
	var cash, realized float64
	if pos.Side == Short {
		cash = -intrinsic * ContractMultiplier * qty
		realized = (pos.EntryPrice - intrinsic) * ContractMultiplier * qty
	} else {
		cash = intrinsic * ContractMultiplier * qty
		realized = (intrinsic - pos.EntryPrice) * ContractMultiplier * qty
	}
	e.cash += cash

	pos.Status = StatusExpired
	pos.ExitPrice = intrinsic
	pos.ExitDate = date
	e.record(*pos)

	e.result.Ledger = append(e.result.Ledger, LedgerEntry{
		Date:        date,
		Action:      ActionExpire,
		PositionID:  pos.ID,
		Contract:    pos.Contract,
		Side:        pos.Side,
		Qty:         pos.Qty,
		Price:       intrinsic,
		CashFlow:    cash,
		RealizedPnL: realized,
		Spot:        spot,
		Assigned:    pos.Side == Short && intrinsic > 0,
	})
	logger.Debugf("expire %s %d strike %.2f intrinsic %.2f pnl %.2f",
		date.Format("2006-01-02"), pos.ID, pos.Contract.Strike, intrinsic, realized)
}

// snapshot marks open legs to the day's chain and appends the valuation
// record. Contracts missing from the chain are re-priced off the day's
// volatility so a partially populated chain cannot corrupt the series.
func (e *Engine) snapshot(date time.Time, spot, sigma float64, chain []data.PricedOption) {
	snap := Snapshot{Date: date, Spot: spot, Cash: e.cash}

	value := e.cash
	unrealized := 0.0

	for _, pos := range []*Position{e.long, e.short} {
		if pos == nil {
			continue
		}
		mark := e.markContract(pos.Contract, date, spot, sigma, chain).Mid()
		qty := float64(pos.Qty)
		if pos.Side == Long {
			value += mark * ContractMultiplier * qty
			unrealized += (mark - pos.EntryPrice) * ContractMultiplier * qty
			snap.LongStrike = pos.Contract.Strike
		} else {
			value -= mark * ContractMultiplier * qty
			unrealized += (pos.EntryPrice - mark) * ContractMultiplier * qty
			snap.ShortStrike = pos.Contract.Strike
		}
	}

	snap.Equity = value
	snap.UnrealizedPnL = unrealized
	e.result.Snapshots = append(e.result.Snapshots, snap)
}

// markContract returns today's PricedOption for a held contract,
// falling back to a fresh closed-form valuation when the chain does not
// carry it.
func (e *Engine) markContract(contract data.OptionContract, date time.Time, spot, sigma float64, chain []data.PricedOption) data.PricedOption {
	if found, ok := FindContract(chain, contract); ok {
		return found
	}

	held := contract
	held.AsOf = date
	tte := held.Expiry.Sub(date).Hours() / 24 / 365
	q, err := pricing.Price(held.Right == data.Call, spot, held.Strike, tte, e.cfg.RiskFreeRate, sigma)
	if err != nil {
		logger.Errorf("mark fallback failed for %s: %v", held.Symbol(), err)
		q = pricing.Quote{}
	}
	return data.PricedOption{
		OptionContract: held,
		Theoretical:    q.Price,
		Bid:            q.Price,
		Ask:            q.Price,
		ImpliedVol:     sigma,
		Delta:          q.Delta,
		Gamma:          q.Gamma,
		Theta:          q.Theta,
		Vega:           q.Vega,
	}
}

func (e *Engine) deltaSelection() DeltaSelection {
	return DeltaSelection{
		TargetDelta:      e.cfg.TargetDelta,
		TargetDTE:        e.cfg.LongDTETarget,
		DeltaWeight:      e.cfg.DeltaWeight,
		DTEWeight:        e.cfg.DTEWeight,
		MaxDeltaDistance: e.cfg.MaxDeltaDistance,
		MaxDTEDistance:   e.cfg.LongMaxDTEDistance,
	}
}

func (e *Engine) warn(date time.Time, code WarningCode, msg string) {
	e.result.Warnings = append(e.result.Warnings, Warning{Date: date, Code: code, Message: msg})
	logger.Debugf("%s %s: %s", code, date.Format("2006-01-02"), msg)
}

// record stores a terminal copy of a position on the result.
func (e *Engine) record(p Position) {
	e.result.Positions = append(e.result.Positions, p)
}
