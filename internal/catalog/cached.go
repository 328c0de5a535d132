package catalog

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dmarchetti/cadenza/internal/constants"
	"github.com/dmarchetti/cadenza/internal/domain"
)

// Cache is the slice of the persistent store the decorator needs.
type Cache interface {
	GetCache(key string) ([]byte, error)
	PutCache(key string, data []byte) error
}

// CachedProvider is a read-through decorator over a Provider. Catalog
// metadata (search results, track info) is cached in the metadata
// partition; locators and lyric text pass straight through, since locator
// freshness and lyric caching are the scheduler's business.
type CachedProvider struct {
	provider Provider
	cache    Cache
}

func NewCachedProvider(provider Provider, cache Cache) *CachedProvider {
	return &CachedProvider{
		provider: provider,
		cache:    cache,
	}
}

func (c *CachedProvider) Search(ctx context.Context, query string) ([]domain.Track, error) {
	cacheKey := fmt.Sprintf("%ssearch:%s", constants.KeyPrefixTracklist, query)

	// A store failure reads as a miss; the provider is the fallback.
	if data, err := c.cache.GetCache(cacheKey); err == nil && data != nil {
		var tracks []domain.Track
		if err := json.Unmarshal(data, &tracks); err == nil {
			return tracks, nil
		}
	}

	tracks, err := c.provider.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(tracks); err == nil {
		_ = c.cache.PutCache(cacheKey, data)
	}

	return tracks, nil
}

func (c *CachedProvider) GetTrack(ctx context.Context, id string) (*domain.Track, error) {
	cacheKey := constants.KeyPrefixTrackInfo + id

	if data, err := c.cache.GetCache(cacheKey); err == nil && data != nil {
		var track domain.Track
		if err := json.Unmarshal(data, &track); err == nil {
			return &track, nil
		}
	}

	track, err := c.provider.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(track); err == nil {
		_ = c.cache.PutCache(cacheKey, data)
	}

	return track, nil
}

func (c *CachedProvider) ResolveAudioLocator(ctx context.Context, trackID string, quality string) (*domain.AudioLocator, error) {
	// Never cached: locators expire and must stay off durable storage.
	return c.provider.ResolveAudioLocator(ctx, trackID, quality)
}

func (c *CachedProvider) FetchLyricText(ctx context.Context, trackID string) (*domain.LyricText, error) {
	return c.provider.FetchLyricText(ctx, trackID)
}

var _ Provider = (*CachedProvider)(nil)
