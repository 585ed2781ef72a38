// Package strategy simulates a rolling put-spread strategy day by day:
// a long put held near a target delta about a year out, financed by a
// short at-the-money put re-opened on a ~15-day cycle.
//
// The simulation is strictly ordered along the time axis. All trade and
// settlement events append to a ledger; the ledger plus the daily
// valuation snapshots fully determine reported performance and are
// reproducible from the same inputs.
package strategy

import (
	"time"

	"github.com/FlamaLlamas/market-analysis/internal/data"
)

// ContractMultiplier is the share multiplier per option contract.
const ContractMultiplier = 100.0

// Side of a position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Status of a position. Open positions are mutated only by the engine;
// closed, rolled, and expired are terminal.
type Status string

const (
	StatusOpen    Status = "open"
	StatusClosed  Status = "closed"
	StatusRolled  Status = "rolled"
	StatusExpired Status = "expired"
)

// Action recorded in the ledger.
type Action string

const (
	ActionOpen   Action = "open"
	ActionClose  Action = "close"
	ActionRoll   Action = "roll"
	ActionExpire Action = "expire"
)

// Position is one option leg held by the engine. IDs are sequential in
// simulation order so a re-run over identical inputs reproduces them.
type Position struct {
	ID         int                 `json:"id"`
	Contract   data.OptionContract `json:"contract"`
	Side       Side                `json:"side"`
	Qty        int                 `json:"qty"`
	EntryPrice float64             `json:"entry_price"`
	EntryDate  time.Time           `json:"entry_date"`
	Status     Status              `json:"status"`
	ExitPrice  float64             `json:"exit_price,omitempty"`
	ExitDate   time.Time           `json:"exit_date,omitempty"`
}

// LedgerEntry is one append-only trade or settlement event. A roll is a
// single atomic entry carrying both cash flows of its close+open pair.
type LedgerEntry struct {
	Date             time.Time           `json:"date"`
	Action           Action              `json:"action"`
	PositionID       int                 `json:"position_id"`
	ClosedPositionID int                 `json:"closed_position_id,omitempty"` // rolls only
	Contract         data.OptionContract `json:"contract"`
	Side             Side                `json:"side"`
	Qty              int                 `json:"qty"`
	Price            float64             `json:"price"`
	CashFlow         float64             `json:"cash_flow"`
	CloseCashFlow    float64             `json:"close_cash_flow,omitempty"` // rolls only
	OpenCashFlow     float64             `json:"open_cash_flow,omitempty"`  // rolls only
	RealizedPnL      float64             `json:"realized_pnl"`
	Spot             float64             `json:"spot"`
	Assigned         bool                `json:"assigned,omitempty"` // short expired in the money
}

// Snapshot is the daily mark-to-market record, emitted every valued day
// regardless of transitions. It is not a ledger action.
type Snapshot struct {
	Date          time.Time `json:"date"`
	Spot          float64   `json:"spot"`
	Cash          float64   `json:"cash"`
	Equity        float64   `json:"equity"`
	UnrealizedPnL float64   `json:"unrealized_pnl"`
	LongStrike    float64   `json:"long_strike,omitempty"`
	ShortStrike   float64   `json:"short_strike,omitempty"`
}

// WarningCode classifies soft conditions absorbed into engine state.
type WarningCode string

const (
	// WarnNoSuitableContract: no contract satisfied the selection
	// tolerances; the engine held its prior state.
	WarnNoSuitableContract WarningCode = "no_suitable_contract"
	// WarnDataGap: a trading day had no usable chain; valuation was
	// skipped for that day and position state left untouched.
	WarnDataGap WarningCode = "data_gap"
)

// Warning is a structured soft condition attached to the result so
// downstream reporting does not silently interpolate over it.
type Warning struct {
	Date    time.Time   `json:"date"`
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Result is the full output of one simulation run.
type Result struct {
	Underlying string        `json:"underlying"`
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Ledger     []LedgerEntry `json:"ledger"`
	Snapshots  []Snapshot    `json:"snapshots"`
	Warnings   []Warning     `json:"warnings,omitempty"`
	Positions  []Position    `json:"positions"`
}
