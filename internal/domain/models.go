package domain

import "time"

// Track is the catalog view of a song as the queue owner hands it to us.
// Local tracks are user-supplied files; they never touch the network.
type Track struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	TrackNumber int    `json:"trackNumber,omitempty"`
	Duration    int    `json:"duration,omitempty"`
	CoverURL    string `json:"coverUrl,omitempty"`
	Local       bool   `json:"local,omitempty"`
}

// AudioLocator is a short-lived resolved streaming address. It is only
// trustworthy while FetchedAt is fresh and Quality matches the request.
type AudioLocator struct {
	URL       string
	Quality   string
	FetchedAt time.Time
}

// LyricText is the raw lyric payload from the provider, before parsing.
// Primary is line-stamped text; Secondary, when present, carries word-level
// timestamps and takes precedence for parsing.
type LyricText struct {
	Primary      string `json:"primary"`
	Secondary    string `json:"secondary,omitempty"`
	Translation  string `json:"translation,omitempty"`
	Instrumental bool   `json:"isInstrumental,omitempty"`
}

// HasWordTiming reports whether the word-synced encoding is available.
func (t *LyricText) HasWordTiming() bool {
	return t.Secondary != ""
}
