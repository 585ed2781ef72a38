// Package journal persists finished simulation runs to SQLite so they
// can be compared and reloaded later. Each run gets a ULID identifier;
// ledger rows keep their in-run sequence so a reload reproduces the
// original order exactly.
package journal

import (
	"database/sql"
	"fmt"
	"math/rand"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/FlamaLlamas/market-analysis/internal/strategy"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

// NewRunID returns a fresh sortable run identifier.
func NewRunID() string {
	entropy := ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

// RecordRun stores a complete result under runID inside one
// transaction. A failed write leaves no partial run behind.
func (j *SQLiteJournal) RecordRun(runID string, res *strategy.Result, initialCapital, finalEquity float64) error {
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO runs
		(run_id, underlying, started, sim_start, sim_end, initial_capital, final_equity, total_pnl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, res.Underlying, time.Now().UTC(), res.Start, res.End,
		initialCapital, finalEquity, finalEquity-initialCapital,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", runID, err)
	}

	for i, entry := range res.Ledger {
		_, err = tx.Exec(`
			INSERT INTO ledger
			(run_id, seq, date, action, position_id, closed_position_id,
			 symbol, strike, expiry, side, qty, price, cash_flow, realized_pnl, spot, assigned)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, i, entry.Date, entry.Action, entry.PositionID, entry.ClosedPositionID,
			entry.Contract.Symbol(), entry.Contract.Strike, entry.Contract.Expiry,
			entry.Side, entry.Qty, entry.Price, entry.CashFlow, entry.RealizedPnL,
			entry.Spot, boolInt(entry.Assigned),
		)
		if err != nil {
			return fmt.Errorf("record ledger row %d: %w", i, err)
		}
	}

	for _, snap := range res.Snapshots {
		_, err = tx.Exec(`
			INSERT INTO snapshots
			(run_id, date, spot, cash, equity, unrealized_pnl, long_strike, short_strike)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			runID, snap.Date, snap.Spot, snap.Cash, snap.Equity,
			snap.UnrealizedPnL, snap.LongStrike, snap.ShortStrike,
		)
		if err != nil {
			return fmt.Errorf("record snapshot %s: %w", snap.Date.Format("2006-01-02"), err)
		}
	}

	return tx.Commit()
}

// RunInfo is the runs-table row for listing and lookup.
type RunInfo struct {
	RunID          string
	Underlying     string
	Started        time.Time
	SimStart       time.Time
	SimEnd         time.Time
	InitialCapital float64
	FinalEquity    float64
	TotalPnL       float64
}

func (j *SQLiteJournal) ListRuns() ([]RunInfo, error) {
	rows, err := j.db.Query(`
		SELECT run_id, underlying, started, sim_start, sim_end,
		       initial_capital, final_equity, total_pnl
		FROM runs ORDER BY run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunInfo
	for rows.Next() {
		var r RunInfo
		if err := rows.Scan(&r.RunID, &r.Underlying, &r.Started, &r.SimStart, &r.SimEnd,
			&r.InitialCapital, &r.FinalEquity, &r.TotalPnL); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// LedgerByRunID reloads a run's ledger rows in their recorded order.
func (j *SQLiteJournal) LedgerByRunID(runID string) ([]strategy.LedgerEntry, error) {
	rows, err := j.db.Query(`
		SELECT date, action, position_id, closed_position_id,
		       strike, expiry, side, qty, price, cash_flow, realized_pnl, spot, assigned
		FROM ledger WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []strategy.LedgerEntry
	for rows.Next() {
		var e strategy.LedgerEntry
		var assigned int
		if err := rows.Scan(&e.Date, &e.Action, &e.PositionID, &e.ClosedPositionID,
			&e.Contract.Strike, &e.Contract.Expiry, &e.Side, &e.Qty, &e.Price,
			&e.CashFlow, &e.RealizedPnL, &e.Spot, &assigned); err != nil {
			return nil, err
		}
		e.Assigned = assigned != 0
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SnapshotsByRunID reloads a run's daily valuation series.
func (j *SQLiteJournal) SnapshotsByRunID(runID string) ([]strategy.Snapshot, error) {
	rows, err := j.db.Query(`
		SELECT date, spot, cash, equity, unrealized_pnl, long_strike, short_strike
		FROM snapshots WHERE run_id = ? ORDER BY date`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []strategy.Snapshot
	for rows.Next() {
		var s strategy.Snapshot
		if err := rows.Scan(&s.Date, &s.Spot, &s.Cash, &s.Equity,
			&s.UnrealizedPnL, &s.LongStrike, &s.ShortStrike); err != nil {
			return nil, err
		}
		snaps = append(snaps, s)
	}
	return snaps, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
