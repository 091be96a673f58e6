package journal

const Schema = `
CREATE TABLE IF NOT EXISTS price_changes (
	event_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	item TEXT NOT NULL,
	reason TEXT NOT NULL,
	price_before REAL NOT NULL,
	price_after REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_price_changes_item_time ON price_changes(item, time);
`
