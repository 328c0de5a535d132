package store

import (
	"testing"
	"time"
)

func TestMigrate_StampsAllVersions(t *testing.T) {
	db := setupTestDB(t)

	var version int
	if err := db.DB.Get(&version, "SELECT MAX(version) FROM schema_migrations"); err != nil {
		t.Fatalf("version query failed: %v", err)
	}
	if version != SchemaVersion {
		t.Errorf("Expected schema version %d, got %d", SchemaVersion, version)
	}

	var count int
	if err := db.DB.Get(&count, "SELECT COUNT(*) FROM schema_migrations"); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("Expected %d stamped migrations, got %d", len(migrations), count)
	}
}

func TestMigrate_MovesLegacyAccountKeys(t *testing.T) {
	db := setupTestDB(t)

	// Rewind to a pre-split store: version 2 with account records still in
	// the legacy partition.
	if _, err := db.Exec("DELETE FROM schema_migrations WHERE version = 3"); err != nil {
		t.Fatalf("rewind failed: %v", err)
	}
	seed := map[string][]byte{
		"account:profile":   []byte("profile-data"),
		"account:playlists": []byte("playlists-data"),
	}
	for key, data := range seed {
		if _, err := db.Exec(
			"INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)",
			key, CategoryLegacy, data, time.Now(),
		); err != nil {
			t.Fatalf("seed insert failed: %v", err)
		}
	}

	if err := db.migrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	for key, want := range seed {
		data, found, err := db.getIn(key, CategoryAccount)
		if err != nil {
			t.Fatalf("getIn failed: %v", err)
		}
		if !found {
			t.Fatalf("Expected %q in account partition after migration", key)
		}
		if string(data) != string(want) {
			t.Errorf("Expected %q, got %q", want, data)
		}

		// Copy-then-delete: the legacy record is gone.
		if _, found, _ := db.getIn(key, CategoryLegacy); found {
			t.Errorf("Expected legacy copy of %q to be deleted", key)
		}
	}
}

func TestMigrate_DoesNotClobberNewerAccountData(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Exec("DELETE FROM schema_migrations WHERE version = 3"); err != nil {
		t.Fatalf("rewind failed: %v", err)
	}

	// Both a stale legacy copy and fresh account data exist; migration
	// must keep the fresh one.
	if _, err := db.Exec(
		"INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)",
		"account:profile", CategoryLegacy, []byte("stale"), time.Now(),
	); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}
	if err := db.PutCache("account:profile", []byte("fresh")); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}

	if err := db.migrate(); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	data, err := db.GetCache("account:profile")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if string(data) != "fresh" {
		t.Errorf("Expected migration to keep fresh data, got %q", data)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}

	var count int
	if err := db.DB.Get(&count, "SELECT COUNT(*) FROM schema_migrations"); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != len(migrations) {
		t.Errorf("Expected %d stamped migrations after re-run, got %d", len(migrations), count)
	}
}
