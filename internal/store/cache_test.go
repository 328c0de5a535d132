package store

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewSQLiteDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() {
		if cErr := db.Close(); cErr != nil {
			t.Logf("db.Close error: %v", cErr)
		}
	})
	return db
}

func TestClassify(t *testing.T) {
	cases := map[string]Category{
		"account:profile":        CategoryAccount,
		"account:playlists":      CategoryAccount,
		"media:audio:123":        CategoryMedia,
		"media:cover:123":        CategoryMedia,
		"metadata:lyric:123":     CategoryMetadata,
		"metadata:theme:123":     CategoryMetadata,
		"metadata:tracklist:abc": CategoryMetadata,
		"some-old-key":           CategoryLegacy,
		"":                       CategoryLegacy,
	}
	for key, want := range cases {
		if got := Classify(key); got != want {
			t.Errorf("Classify(%q) = %s, want %s", key, got, want)
		}
	}
}

func TestCache_RoundTripBinary(t *testing.T) {
	db := setupTestDB(t)

	payload := []byte{0x00, 0x01, 0xFF, 0xFE, 0x42}
	if err := db.PutCache("media:audio:track1", payload); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}

	got, err := db.GetCache("media:audio:track1")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("Expected %v, got %v", payload, got)
	}
}

func TestCache_RoundTripJSON(t *testing.T) {
	db := setupTestDB(t)

	type theme struct {
		Primary   string `json:"primary"`
		Secondary string `json:"secondary"`
	}

	in := theme{Primary: "#102030", Secondary: "#a0b0c0"}
	if err := db.PutCacheJSON("metadata:theme:track1", in); err != nil {
		t.Fatalf("PutCacheJSON failed: %v", err)
	}

	var out theme
	found, err := db.GetCacheJSON("metadata:theme:track1", &out)
	if err != nil {
		t.Fatalf("GetCacheJSON failed: %v", err)
	}
	if !found {
		t.Fatal("Expected cached theme to be found")
	}
	if out != in {
		t.Errorf("Expected %+v, got %+v", in, out)
	}
}

func TestCache_GetAbsent(t *testing.T) {
	db := setupTestDB(t)

	data, err := db.GetCache("metadata:lyric:nothing")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected nil for absent key, got %v", data)
	}
}

func TestCache_OverwriteStampsNewTime(t *testing.T) {
	db := setupTestDB(t)

	if err := db.PutCache("metadata:lyric:x", []byte("one")); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}
	if err := db.PutCache("metadata:lyric:x", []byte("two")); err != nil {
		t.Fatalf("Second PutCache failed: %v", err)
	}

	got, err := db.GetCache("metadata:lyric:x")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if string(got) != "two" {
		t.Errorf("Expected overwritten value 'two', got %q", got)
	}

	var count int
	if err := db.DB.Get(&count, "SELECT COUNT(*) FROM cache_entries WHERE key = ?", "metadata:lyric:x"); err != nil {
		t.Fatalf("count query failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected a single record after overwrite, got %d", count)
	}
}

func TestCache_CategoryIsolation(t *testing.T) {
	db := setupTestDB(t)

	seed := map[string][]byte{
		"media:audio:1":      []byte("audio"),
		"media:cover:1":      []byte("cover"),
		"metadata:lyric:1":   []byte("lyric"),
		"metadata:theme:1":   []byte("theme"),
		"account:profile":    []byte("profile"),
		"pre-migration-blob": []byte("legacy"),
	}
	for k, v := range seed {
		if err := db.PutCache(k, v); err != nil {
			t.Fatalf("PutCache(%q) failed: %v", k, err)
		}
	}

	if err := db.DeleteByCategory(CategoryMedia); err != nil {
		t.Fatalf("DeleteByCategory failed: %v", err)
	}

	for _, gone := range []string{"media:audio:1", "media:cover:1"} {
		if data, _ := db.GetCache(gone); data != nil {
			t.Errorf("Expected %q to be deleted", gone)
		}
	}
	for _, kept := range []string{"metadata:lyric:1", "metadata:theme:1", "account:profile", "pre-migration-blob"} {
		if data, _ := db.GetCache(kept); data == nil {
			t.Errorf("Expected %q to survive a media clear", kept)
		}
	}
}

func TestCache_DeleteByCategoryRejectsUnknown(t *testing.T) {
	db := setupTestDB(t)
	if err := db.DeleteByCategory(Category("bogus")); err == nil {
		t.Error("Expected error for unknown category")
	}
}

func TestCache_ClearAllWithPreserveList(t *testing.T) {
	db := setupTestDB(t)

	keys := []string{"account:profile", "account:playlists", "media:audio:1", "metadata:lyric:1", "old-blob"}
	for _, k := range keys {
		if err := db.PutCache(k, []byte(k)); err != nil {
			t.Fatalf("PutCache(%q) failed: %v", k, err)
		}
	}

	if err := db.ClearAll([]string{"account:profile"}); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	data, err := db.GetCache("account:profile")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if string(data) != "account:profile" {
		t.Errorf("Expected preserved key to remain readable, got %v", data)
	}

	for _, k := range []string{"account:playlists", "media:audio:1", "metadata:lyric:1", "old-blob"} {
		if data, _ := db.GetCache(k); data != nil {
			t.Errorf("Expected %q to be cleared", k)
		}
	}
}

func TestCache_ClearAllUnconditional(t *testing.T) {
	db := setupTestDB(t)

	for _, k := range []string{"account:profile", "media:audio:1", "metadata:lyric:1"} {
		if err := db.PutCache(k, []byte("x")); err != nil {
			t.Fatalf("PutCache failed: %v", err)
		}
	}

	if err := db.ClearAll(nil); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}

	total, err := db.UsageTotal()
	if err != nil {
		t.Fatalf("UsageTotal failed: %v", err)
	}
	if total != 0 {
		t.Errorf("Expected empty store, got %d bytes", total)
	}
}

func TestCache_Usage(t *testing.T) {
	db := setupTestDB(t)

	if err := db.PutCache("media:audio:1", make([]byte, 1000)); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}
	if err := db.PutCache("media:cover:1", make([]byte, 200)); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}
	if err := db.PutCache("metadata:lyric:1", []byte("12345")); err != nil {
		t.Fatalf("PutCache failed: %v", err)
	}

	total, err := db.UsageTotal()
	if err != nil {
		t.Fatalf("UsageTotal failed: %v", err)
	}
	if total != 1205 {
		t.Errorf("Expected 1205 bytes total, got %d", total)
	}

	usage, err := db.UsageByCategory()
	if err != nil {
		t.Fatalf("UsageByCategory failed: %v", err)
	}
	if usage.Bytes[CategoryMedia] != 1200 {
		t.Errorf("Expected 1200 media bytes, got %d", usage.Bytes[CategoryMedia])
	}
	if usage.Bytes[CategoryMetadata] != 5 {
		t.Errorf("Expected 5 metadata bytes, got %d", usage.Bytes[CategoryMetadata])
	}
	if usage.Bytes[CategoryAccount] != 0 {
		t.Errorf("Expected 0 account bytes, got %d", usage.Bytes[CategoryAccount])
	}
	if usage.MediaCount != 2 {
		t.Errorf("Expected media count 2, got %d", usage.MediaCount)
	}
}

func TestCache_LazyLegacyMigrationOnRead(t *testing.T) {
	db := setupTestDB(t)

	// A record written before the account split lives in the legacy
	// partition under its final key name.
	if _, err := db.Exec(
		"INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)",
		"account:profile", CategoryLegacy, []byte("old-profile"), time.Now(),
	); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	data, err := db.GetCache("account:profile")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if string(data) != "old-profile" {
		t.Errorf("Expected legacy fallback value, got %q", data)
	}

	// The record must now exist in the account partition too.
	forward, found, err := db.getIn("account:profile", CategoryAccount)
	if err != nil {
		t.Fatalf("getIn failed: %v", err)
	}
	if !found {
		t.Fatal("Expected record to be copied forward into account")
	}
	if string(forward) != "old-profile" {
		t.Errorf("Expected forwarded copy, got %q", forward)
	}

	// Reading again is idempotent.
	again, err := db.GetCache("account:profile")
	if err != nil {
		t.Fatalf("Second GetCache failed: %v", err)
	}
	if string(again) != "old-profile" {
		t.Errorf("Expected stable value on second read, got %q", again)
	}
}

func TestCache_NoLegacyFallbackForNonAccountKeys(t *testing.T) {
	db := setupTestDB(t)

	if _, err := db.Exec(
		"INSERT INTO cache_entries (key, category, data, stored_at) VALUES (?, ?, ?, ?)",
		"metadata:lyric:1", CategoryLegacy, []byte("stray"), time.Now(),
	); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	data, err := db.GetCache("metadata:lyric:1")
	if err != nil {
		t.Fatalf("GetCache failed: %v", err)
	}
	if data != nil {
		t.Errorf("Expected no fallback for non-account key, got %q", data)
	}
}
