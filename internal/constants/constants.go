// Package constants contains application-wide constants to avoid magic numbers and strings.
package constants

import "time"

// Application defaults
const (
	DefaultPort        = "8080"
	DefaultDBPath      = "cadenza.db"
	DefaultQuality     = "LOSSLESS"
	DefaultProviderURL = "http://127.0.0.1:8000"
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRetryCount  = 3
	DefaultRetryBase   = 1 * time.Second
)

// Quality levels
const (
	QualityLossless      = "LOSSLESS"
	QualityHiResLossless = "HI_RES_LOSSLESS"
	QualityHigh          = "HIGH"
	QualityLow           = "LOW"
)

// Prefetch tuning. The window is ahead-weighted: forward skips are far more
// common than backward skips.
const (
	PrefetchBehind    = 1
	PrefetchAhead     = 2
	PrefetchStepDelay = 150 * time.Millisecond
	LocatorTTL        = 1200 * time.Second
)

// Lyric timing heuristics
const (
	LineGapCap          = 5.0 // seconds a line may hang before the reading-speed cap kicks in
	ReadingSecsPerChar  = 0.5 // reading-speed cap: chars * this + ReadingBaseSecs
	ReadingBaseSecs     = 2.0
	FinalLineDuration   = 5.0
	LatinLengthWeight   = 0.15 // latin token weight: 1 + this * len
	TrailingPadFraction = 0.10
	PunctCursorAdvance  = 0.05
)

// Persistent cache key prefixes. These are the durable contract surface:
// they determine categorization and must stay stable across schema versions
// for migration to keep working.
const (
	KeyAccountProfile   = "account:profile"
	KeyAccountPlaylists = "account:playlists"
	KeyPrefixAudio      = "media:audio:"
	KeyPrefixCover      = "media:cover:"
	KeyPrefixLyric      = "metadata:lyric:"
	KeyPrefixTheme      = "metadata:theme:"
	KeyPrefixTracklist  = "metadata:tracklist:"
	KeyPrefixTrackInfo  = "metadata:track:"
)

// MIME Types
const (
	MimeTypeFLAC = "audio/flac"
	MimeTypeMP3  = "audio/mpeg"
	MimeTypeJPEG = "image/jpeg"
)
