package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/dmarchetti/cadenza/internal/domain"
)

// MockProvider serves deterministic responses for tests and offline runs.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Search(ctx context.Context, query string) ([]domain.Track, error) {
	return []domain.Track{
		{ID: "1", Title: "Mock Track", Artist: "Mock Artist", Album: "Mock Album", TrackNumber: 1, Duration: 180},
		{ID: "2", Title: "Second Mock", Artist: "Mock Artist", Album: "Mock Album", TrackNumber: 2, Duration: 200},
	}, nil
}

func (p *MockProvider) GetTrack(ctx context.Context, id string) (*domain.Track, error) {
	return &domain.Track{
		ID:       id,
		Title:    "Mock Track " + id,
		Artist:   "Mock Artist",
		Album:    "Mock Album",
		Duration: 180,
		CoverURL: fmt.Sprintf("https://covers.example/%s.jpg", id),
	}, nil
}

func (p *MockProvider) ResolveAudioLocator(ctx context.Context, trackID string, quality string) (*domain.AudioLocator, error) {
	return &domain.AudioLocator{
		URL:       fmt.Sprintf("https://stream.example/%s?q=%s", trackID, quality),
		Quality:   quality,
		FetchedAt: time.Now(),
	}, nil
}

func (p *MockProvider) FetchLyricText(ctx context.Context, trackID string) (*domain.LyricText, error) {
	return &domain.LyricText{
		Primary: "[00:01.00]Mock lyric line one\n[00:04.00]Mock lyric line two",
	}, nil
}

var _ Provider = (*MockProvider)(nil)
