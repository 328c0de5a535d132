package store

import (
	"database/sql"
	"fmt"
	"time"
)

// SchemaVersion is the version this build expects. Opening a store stamped
// with an older version runs the missing migrations once, in order.
const SchemaVersion = 3

type migration struct {
	version     int
	description string
	run         func(db *DB) error
}

// The partitions themselves are rows, not tables, so the early versions
// only stamp structure; version 3 is the account/legacy split.
var migrations = []migration{
	{1, "initial cache table", nil},
	{2, "media and metadata partitions", nil},
	{3, "account partition split from legacy", (*DB).moveLegacyAccountKeys},
}

func (db *DB) migrate() error {
	var current sql.NullInt64
	if err := db.DB.Get(&current, "SELECT MAX(version) FROM schema_migrations"); err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for _, m := range migrations {
		if int64(m.version) <= current.Int64 {
			continue
		}
		if m.run != nil {
			if err := m.run(db); err != nil {
				return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.description, err)
			}
		}
		if _, err := db.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.version, m.description, time.Now(),
		); err != nil {
			return fmt.Errorf("failed to stamp migration %d: %w", m.version, err)
		}
	}
	return nil
}

// moveLegacyAccountKeys walks the declarative migration table and moves
// each known key out of the legacy partition: copy, then delete. Best
// effort per key; a failed copy leaves the legacy record in place rather
// than losing data.
func (db *DB) moveLegacyAccountKeys() error {
	for key, target := range legacyMigrations {
		data, found, err := db.getIn(key, CategoryLegacy)
		if err != nil || !found {
			continue
		}

		if _, err := db.Exec(`
			INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)
			ON CONFLICT(key, category) DO NOTHING
		`, key, target, data, time.Now()); err != nil {
			continue
		}

		_, _ = db.Exec("DELETE FROM cache_entries WHERE key = ? AND category = ?", key, CategoryLegacy)
	}
	return nil
}
