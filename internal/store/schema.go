package store

const Schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT NOT NULL,
	category TEXT NOT NULL,
	data BLOB,
	stored_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (key, category)
);

CREATE INDEX IF NOT EXISTS idx_cache_entries_category ON cache_entries(category);

CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	description TEXT NOT NULL,
	applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
);
`
