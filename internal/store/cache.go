package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PutCache upserts a payload under its classified category, stamping the
// current time. Callers own their copy of data; the store keeps its own.
func (db *DB) PutCache(key string, data []byte) error {
	category := Classify(key)
	_, err := db.Exec(`
		INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key, category) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at
	`, key, category, data, time.Now())
	return err
}

// PutCacheJSON marshals v and stores it under key.
func (db *DB) PutCacheJSON(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal cache payload: %w", err)
	}
	return db.PutCache(key, data)
}

// GetCache reads a payload from the key's classified category. A nil slice
// with nil error means absent. Account keys missing from their category
// fall back once to the legacy partition and are copied forward so the
// next read hits the proper category directly.
func (db *DB) GetCache(key string) ([]byte, error) {
	category := Classify(key)

	data, found, err := db.getIn(key, category)
	if err != nil {
		return nil, err
	}
	if found {
		return data, nil
	}

	target, eligible := legacyMigrations[key]
	if !eligible || target != category {
		return nil, nil
	}

	data, found, err = db.getIn(key, CategoryLegacy)
	if err != nil || !found {
		return nil, err
	}

	// Lazy migration-on-read: copy forward, idempotent. A failed copy is
	// not fatal; the legacy record keeps serving reads.
	if _, err := db.Exec(`
		INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key, category) DO UPDATE SET data = excluded.data, stored_at = excluded.stored_at
	`, key, category, data, time.Now()); err != nil {
		return data, nil
	}

	return data, nil
}

// GetCacheJSON reads key and unmarshals into v. Returns false when absent.
func (db *DB) GetCacheJSON(key string, v any) (bool, error) {
	data, err := db.GetCache(key)
	if err != nil || data == nil {
		return false, err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to unmarshal cache payload: %w", err)
	}
	return true, nil
}

func (db *DB) getIn(key string, category Category) ([]byte, bool, error) {
	var data []byte
	err := db.DB.Get(&data, "SELECT data FROM cache_entries WHERE key = ? AND category = ?", key, category)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

// DeleteCache removes a single record from its classified category.
func (db *DB) DeleteCache(key string) error {
	_, err := db.Exec("DELETE FROM cache_entries WHERE key = ? AND category = ?", key, Classify(key))
	return err
}

// DeleteByCategory removes every record in one partition.
func (db *DB) DeleteByCategory(category Category) error {
	if !category.Valid() {
		return fmt.Errorf("unknown cache category: %s", category)
	}
	_, err := db.Exec("DELETE FROM cache_entries WHERE category = ?", category)
	return err
}

// ClearAll wipes every partition, keeping only the preserve-listed keys.
// Each category is cleared independently: a failure in one does not abort
// the others, and the first error is reported after all have been tried.
func (db *DB) ClearAll(preserve []string) error {
	keep := make(map[string]struct{}, len(preserve))
	for _, k := range preserve {
		keep[k] = struct{}{}
	}

	var firstErr error
	for _, category := range Categories {
		var err error
		if len(keep) == 0 {
			_, err = db.Exec("DELETE FROM cache_entries WHERE category = ?", category)
		} else {
			err = db.clearCategoryPreserving(category, keep)
		}
		if err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to clear category %s: %w", category, err)
		}
	}
	return firstErr
}

func (db *DB) clearCategoryPreserving(category Category, keep map[string]struct{}) error {
	var keys []string
	if err := db.Select(&keys, "SELECT key FROM cache_entries WHERE category = ?", category); err != nil {
		return err
	}
	for _, key := range keys {
		if _, ok := keep[key]; ok {
			continue
		}
		if _, err := db.Exec("DELETE FROM cache_entries WHERE key = ? AND category = ?", key, category); err != nil {
			return err
		}
	}
	return nil
}

// UsageTotal returns the summed byte length of every stored payload.
func (db *DB) UsageTotal() (int64, error) {
	var total sql.NullInt64
	if err := db.DB.Get(&total, "SELECT SUM(LENGTH(data)) FROM cache_entries"); err != nil {
		return 0, err
	}
	return total.Int64, nil
}

// CategoryUsage is the per-partition byte count, with a separate record
// count for the media partition kept for display purposes.
type CategoryUsage struct {
	Bytes      map[Category]int64 `json:"bytes"`
	MediaCount int64              `json:"mediaCount"`
}

// UsageByCategory iterates every record and accounts its byte length to
// its partition.
func (db *DB) UsageByCategory() (*CategoryUsage, error) {
	rows, err := db.Queryx("SELECT category, COALESCE(SUM(LENGTH(data)), 0), COUNT(*) FROM cache_entries GROUP BY category")
	if err != nil {
		return nil, err
	}
	defer rows.Close() //nolint:errcheck // deferred cleanup

	usage := &CategoryUsage{Bytes: make(map[Category]int64)}
	for _, category := range Categories {
		usage.Bytes[category] = 0
	}

	for rows.Next() {
		var category Category
		var bytes, count int64
		if err := rows.Scan(&category, &bytes, &count); err != nil {
			return nil, err
		}
		usage.Bytes[category] = bytes
		if category == CategoryMedia {
			usage.MediaCount = count
		}
	}
	return usage, rows.Err()
}
