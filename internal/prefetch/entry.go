package prefetch

import (
	"time"

	"github.com/dmarchetti/cadenza/internal/domain"
	"github.com/dmarchetti/cadenza/internal/lyrics"
)

// Entry is the in-memory resolution state for one track. It is never
// persisted: the audio locator expires server-side, so treating any of
// this as durable would hand the player a dead URL.
type Entry struct {
	TrackID string `json:"trackId"`

	AudioLocator     string    `json:"audioLocator,omitempty"`
	LocatorFetchedAt time.Time `json:"locatorFetchedAt,omitempty"`
	LocatorQuality   string    `json:"locatorQuality,omitempty"`

	// HasMedia means the full audio payload is already in the persistent
	// cache, which makes a locator unnecessary.
	HasMedia bool `json:"hasMedia,omitempty"`

	Lyrics *lyrics.Document `json:"lyrics,omitempty"`
	// RawLyrics is retained so the chorus annotation pass can rerun
	// without a second network fetch.
	RawLyrics *domain.LyricText `json:"-"`

	CoverURL string `json:"coverUrl,omitempty"`
}

// LocatorValid reports whether the held locator can still be streamed:
// fresh within the TTL and resolved for the requested quality.
func (e *Entry) LocatorValid(now time.Time, quality string, ttl time.Duration) bool {
	if e.AudioLocator == "" {
		return false
	}
	if now.Sub(e.LocatorFetchedAt) >= ttl {
		return false
	}
	return e.LocatorQuality == quality
}

// InvalidateLocator nulls the locator fields without touching lyrics or
// cover. Expiry and quality mismatch are states, not errors.
func (e *Entry) InvalidateLocator() {
	e.AudioLocator = ""
	e.LocatorFetchedAt = time.Time{}
	e.LocatorQuality = ""
}
