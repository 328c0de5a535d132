package store

import "strings"

// Category is one of the fixed logical partitions of the persistent cache.
// The set is frozen at schema version 3; legacy survives only so records
// written before the split stay reachable.
type Category string

const (
	CategoryAccount  Category = "account"
	CategoryMedia    Category = "media"
	CategoryMetadata Category = "metadata"
	CategoryLegacy   Category = "legacy"
)

// Categories lists every partition in iteration order for clear and usage
// operations.
var Categories = []Category{CategoryAccount, CategoryMedia, CategoryMetadata, CategoryLegacy}

// Valid reports whether c names a known partition.
func (c Category) Valid() bool {
	switch c {
	case CategoryAccount, CategoryMedia, CategoryMetadata, CategoryLegacy:
		return true
	}
	return false
}

// Classify routes a key to its category by prefix. Keys that predate the
// naming contract land in legacy.
func Classify(key string) Category {
	switch {
	case strings.HasPrefix(key, "account:"):
		return CategoryAccount
	case strings.HasPrefix(key, "media:"):
		return CategoryMedia
	case strings.HasPrefix(key, "metadata:"):
		return CategoryMetadata
	default:
		return CategoryLegacy
	}
}

// legacyMigrations is the declarative table of keys that moved out of the
// legacy partition at schema version 3. Get consults it uniformly instead
// of special-casing keys, and the version-3 migration walks it once.
var legacyMigrations = map[string]Category{
	"account:profile":   CategoryAccount,
	"account:playlists": CategoryAccount,
}
