package catalog

import (
	"context"

	"github.com/dmarchetti/cadenza/internal/domain"
)

// Provider is the remote catalog/streaming-URL provider. Every response is
// treated as untrusted and best-effort; callers degrade on error.
type Provider interface {
	Search(ctx context.Context, query string) ([]domain.Track, error)
	GetTrack(ctx context.Context, id string) (*domain.Track, error)
	ResolveAudioLocator(ctx context.Context, trackID string, quality string) (*domain.AudioLocator, error)
	FetchLyricText(ctx context.Context, trackID string) (*domain.LyricText, error)
}
