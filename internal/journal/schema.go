package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	underlying TEXT NOT NULL,
	started DATETIME NOT NULL,
	sim_start DATETIME NOT NULL,
	sim_end DATETIME NOT NULL,
	initial_capital REAL NOT NULL,
	final_equity REAL NOT NULL,
	total_pnl REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS ledger (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	date DATETIME NOT NULL,
	action TEXT NOT NULL,
	position_id INTEGER NOT NULL,
	closed_position_id INTEGER,
	symbol TEXT NOT NULL,
	strike REAL NOT NULL,
	expiry DATETIME NOT NULL,
	side TEXT NOT NULL,
	qty INTEGER NOT NULL,
	price REAL NOT NULL,
	cash_flow REAL NOT NULL,
	realized_pnl REAL NOT NULL,
	spot REAL NOT NULL,
	assigned INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	date DATETIME NOT NULL,
	spot REAL NOT NULL,
	cash REAL NOT NULL,
	equity REAL NOT NULL,
	unrealized_pnl REAL NOT NULL,
	long_strike REAL NOT NULL,
	short_strike REAL NOT NULL,
	PRIMARY KEY (run_id, date)
);

CREATE INDEX IF NOT EXISTS idx_ledger_date ON ledger(date);
CREATE INDEX IF NOT EXISTS idx_snapshots_date ON snapshots(date);
`
