package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	ticker TEXT NOT NULL DEFAULT '',
	trade_date DATETIME,
	clock_ns INTEGER,
	gain REAL,
	mae REAL,
	mfe REAL,
	win_loss INTEGER NOT NULL DEFAULT 0,
	notes TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(trade_date);

CREATE TABLE IF NOT EXISTS report_cache (
	cache_key TEXT PRIMARY KEY,
	run_id TEXT NOT NULL,
	created DATETIME NOT NULL,
	result TEXT NOT NULL
);
`
