package journal

const schema = `
CREATE TABLE IF NOT EXISTS fills (
	trade_id TEXT NOT NULL,
	symbol TEXT NOT NULL,
	type TEXT NOT NULL,
	side TEXT NOT NULL,
	price REAL NOT NULL,
	size REAL NOT NULL,
	time DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS profits (
	trade_id TEXT PRIMARY KEY,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	gain REAL NOT NULL,
	time DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_fills_time ON fills(time);
CREATE INDEX IF NOT EXISTS idx_profits_time ON profits(time);
`
