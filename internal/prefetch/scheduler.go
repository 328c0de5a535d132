// Package prefetch resolves playback resources for the tracks around the
// current one so a skip lands on an already-playable neighbor. A single
// chain goroutine walks the window; every window change cancels the
// previous chain before starting its own.
package prefetch

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/dmarchetti/cadenza/internal/constants"
	"github.com/dmarchetti/cadenza/internal/domain"
	"github.com/dmarchetti/cadenza/internal/logger"
	"github.com/dmarchetti/cadenza/internal/lyrics"
	"github.com/dmarchetti/cadenza/internal/media"
	"github.com/dmarchetti/cadenza/internal/parsework"
)

// Cache is the slice of the persistent store the scheduler needs.
// *store.DB satisfies it.
type Cache interface {
	GetCache(key string) ([]byte, error)
	PutCache(key string, data []byte) error
	GetCacheJSON(key string, v any) (bool, error)
	PutCacheJSON(key string, v any) error
}

// Provider resolves catalog data and short-lived streaming locators.
type Provider interface {
	ResolveAudioLocator(ctx context.Context, trackID string, quality string) (*domain.AudioLocator, error)
	FetchLyricText(ctx context.Context, trackID string) (*domain.LyricText, error)
}

// Parser offloads lyric parsing to the dedicated worker. *parsework.Broker
// satisfies it.
type Parser interface {
	Parse(ctx context.Context, format parsework.Format, primary, translation string) (*lyrics.Document, error)
}

// Config tunes the look-ahead window.
type Config struct {
	Behind     int
	Ahead      int
	StepDelay  time.Duration
	LocatorTTL time.Duration
}

func (c Config) withDefaults() Config {
	if c.Behind < 0 {
		c.Behind = 0
	}
	if c.Ahead < 0 {
		c.Ahead = 0
	}
	if c.StepDelay <= 0 {
		c.StepDelay = constants.PrefetchStepDelay
	}
	if c.LocatorTTL <= 0 {
		c.LocatorTTL = constants.LocatorTTL
	}
	return c
}

// DefaultConfig is the shipped window shape: one track behind, two ahead.
func DefaultConfig() Config {
	return Config{
		Behind:     constants.PrefetchBehind,
		Ahead:      constants.PrefetchAhead,
		StepDelay:  constants.PrefetchStepDelay,
		LocatorTTL: constants.LocatorTTL,
	}
}

// Scheduler owns the prefetch chain. Each ScheduleWindow call bumps the
// generation and cancels the previous chain; results from a superseded
// chain are discarded at commit time, never written.
type Scheduler struct {
	log      *logger.Logger
	provider Provider
	cache    Cache
	parser   Parser
	table    Table
	cfg      Config

	// now is swapped in tests to step the clock across the locator TTL.
	now func() time.Time

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewScheduler wires a scheduler over its collaborators.
func NewScheduler(log *logger.Logger, provider Provider, cache Cache, parser Parser, table Table, cfg Config) *Scheduler {
	if table == nil {
		table = NewMemoryTable()
	}
	return &Scheduler{
		log:      log.WithComponent("prefetch"),
		provider: provider,
		cache:    cache,
		parser:   parser,
		table:    table,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
	}
}

// ScheduleWindow cancels any in-flight chain and starts resolving the
// neighbors of currentID: the tracks behind first, nearest outward, then
// the tracks ahead. A currentID absent from the queue is a no-op; the
// stale chain stays cancelled either way.
func (s *Scheduler) ScheduleWindow(currentID string, queue []domain.Track, quality string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.mu.Unlock()

	idx := -1
	for i, track := range queue {
		if track.ID == currentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.log.Debug("current track not in queue, skipping prefetch", "track_id", currentID)
		return
	}

	var neighbors []domain.Track
	for off := 1; off <= s.cfg.Behind; off++ {
		if i := idx - off; i >= 0 {
			neighbors = append(neighbors, queue[i])
		}
	}
	for off := 1; off <= s.cfg.Ahead; off++ {
		if i := idx + off; i < len(queue) {
			neighbors = append(neighbors, queue[i])
		}
	}

	keep := make(map[string]struct{}, len(queue))
	for _, track := range queue {
		keep[track.ID] = struct{}{}
	}

	s.wg.Add(1)
	go s.runChain(ctx, gen, neighbors, keep, quality)
}

// GetResolved returns the prefetched state for a track, nulling a locator
// that has expired or was resolved for a different quality. Nil means the
// track was never prefetched.
func (s *Scheduler) GetResolved(trackID string, quality string) *Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry := s.table.Get(trackID)
	if entry == nil {
		return nil
	}
	if entry.AudioLocator != "" && !entry.LocatorValid(s.now(), quality, s.cfg.LocatorTTL) {
		entry.InvalidateLocator()
	}
	// The table keeps the live entry; callers get a copy so nothing
	// outside the lock aliases state a later call may invalidate.
	out := *entry
	return &out
}

// Wait blocks until any in-flight chain has drained.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Close cancels the running chain and waits for it to drain.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// runChain walks the neighbor list sequentially, pacing each step so the
// chain yields bandwidth to foreground playback, then purges entries for
// tracks no longer in the queue. A cancelled chain never purges: the keep
// set it holds belongs to a queue that no longer exists.
func (s *Scheduler) runChain(ctx context.Context, gen uint64, neighbors []domain.Track, keep map[string]struct{}, quality string) {
	defer s.wg.Done()

	timer := time.NewTimer(s.cfg.StepDelay)
	defer timer.Stop()

	for _, track := range neighbors {
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}
		s.resolve(ctx, gen, track, quality)
		if ctx.Err() != nil {
			return
		}
		timer.Reset(s.cfg.StepDelay)
	}

	s.mu.Lock()
	if gen == s.generation {
		s.table.Purge(keep)
	}
	s.mu.Unlock()
}

// resolve brings one track's entry up to date: audio locator, parsed
// lyrics, cover art. Every failure is logged and skipped; one dead
// resource never stalls the rest of the window.
func (s *Scheduler) resolve(ctx context.Context, gen uint64, track domain.Track, quality string) {
	if track.Local {
		s.log.Debug("skipping local track", "track_id", track.ID)
		return
	}
	log := s.log.WithTrack(track.ID)

	next := s.snapshot(track.ID)

	payload := s.resolveAudio(ctx, &next, track.ID, quality, log)
	if ctx.Err() != nil {
		return
	}
	s.resolveLyrics(ctx, &next, track.ID, payload, log)
	if ctx.Err() != nil {
		return
	}
	s.resolveCover(ctx, &next, track, payload, log)

	if !s.commit(gen, &next) {
		log.Debug("discarding superseded prefetch result")
	}
}

// resolveAudio returns the cached media payload, if any, so the later
// steps can read embedded metadata without a second store round trip.
func (s *Scheduler) resolveAudio(ctx context.Context, next *Entry, trackID, quality string, log *logger.Logger) []byte {
	payload, err := s.cache.GetCache(constants.KeyPrefixAudio + trackID)
	if err != nil {
		log.Warn("media cache read failed, treating as miss", "error", err)
		payload = nil
	}
	if payload != nil {
		// The full payload is local; a streaming locator would go unused.
		next.HasMedia = true
		return payload
	}
	next.HasMedia = false

	if next.LocatorValid(s.now(), quality, s.cfg.LocatorTTL) {
		return nil
	}

	loc, err := s.provider.ResolveAudioLocator(ctx, trackID, quality)
	if err != nil {
		log.Warn("failed to resolve audio locator", "quality", quality, "error", err)
		next.InvalidateLocator()
		return nil
	}
	next.AudioLocator = loc.URL
	next.LocatorQuality = loc.Quality
	next.LocatorFetchedAt = loc.FetchedAt
	if next.LocatorFetchedAt.IsZero() {
		next.LocatorFetchedAt = s.now()
	}
	return nil
}

func (s *Scheduler) resolveLyrics(ctx context.Context, next *Entry, trackID string, payload []byte, log *logger.Logger) {
	if next.Lyrics != nil {
		return
	}

	var cached lyrics.Document
	ok, err := s.cache.GetCacheJSON(constants.KeyPrefixLyric+trackID, &cached)
	if err != nil {
		log.Warn("lyric cache read failed, treating as miss", "error", err)
	}
	if ok {
		next.Lyrics = &cached
		return
	}

	text, err := s.provider.FetchLyricText(ctx, trackID)
	if err != nil {
		log.Warn("failed to fetch lyrics", "error", err)
		text = nil
	}
	if text == nil && payload != nil {
		// Offline fallback: lyrics embedded in the cached audio file.
		if embedded, found := media.ExtractLyrics(payload); found {
			text = &domain.LyricText{Primary: embedded}
		}
	}
	if text == nil || (text.Primary == "" && text.Secondary == "") {
		return
	}
	if text.Instrumental {
		// Nothing to parse; the renderer shows the silence placeholder.
		next.RawLyrics = text
		return
	}

	format := parsework.FormatLineTimed
	body := text.Primary
	if text.HasWordTiming() {
		format = parsework.FormatWordSynced
		body = text.Secondary
	}

	doc, err := s.parser.Parse(ctx, format, body, text.Translation)
	if err != nil {
		log.Warn("lyric parse failed", "error", err)
		return
	}

	// Word stamps differ across repetitions, so chorus detection must run
	// on plain text: the primary lines, or the parsed lines when only the
	// word-synced body exists.
	source := text.Primary
	if source == "" {
		parts := make([]string, 0, len(doc.Lines))
		for _, line := range doc.Lines {
			parts = append(parts, line.FullText)
		}
		source = strings.Join(parts, "\n")
	}
	lyrics.AnnotateChorus(doc, lyrics.DetectChorus(source))

	next.Lyrics = doc
	next.RawLyrics = text

	if ctx.Err() != nil {
		return
	}
	if err := s.cache.PutCacheJSON(constants.KeyPrefixLyric+trackID, doc); err != nil {
		log.Warn("failed to cache parsed lyrics", "error", err)
	}
}

func (s *Scheduler) resolveCover(ctx context.Context, next *Entry, track domain.Track, payload []byte, log *logger.Logger) {
	if next.CoverURL != "" {
		return
	}
	if track.CoverURL != "" {
		next.CoverURL = track.CoverURL
		return
	}
	if payload == nil {
		return
	}
	img, mime, found := media.ExtractCover(payload)
	if !found {
		return
	}
	if ctx.Err() != nil {
		return
	}
	key := constants.KeyPrefixCover + track.ID
	if err := s.cache.PutCache(key, img); err != nil {
		log.Warn("failed to cache embedded cover", "error", err)
		return
	}
	log.Debug("extracted embedded cover", "mime", mime)
	next.CoverURL = "cache://" + key
}

// snapshot copies the stored entry so the chain mutates private state and
// only publishes it through commit.
func (s *Scheduler) snapshot(trackID string) Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.table.Get(trackID); cur != nil {
		return *cur
	}
	return Entry{TrackID: trackID}
}

// commit publishes an entry only if the chain that produced it is still
// the current generation. Superseded chains write nothing.
func (s *Scheduler) commit(gen uint64, entry *Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return false
	}
	s.table.Put(entry)
	return true
}
