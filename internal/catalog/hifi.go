package catalog

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dmarchetti/cadenza/internal/constants"
	"github.com/dmarchetti/cadenza/internal/domain"
	"github.com/dmarchetti/cadenza/internal/httpclient"
)

var hifiLogger = slog.Default().WithGroup("hifi")

// HifiProvider talks to the hifi proxy API.
type HifiProvider struct {
	BaseURL string
	Client  *httpclient.Client
}

func NewHifiProvider(baseURL string) *HifiProvider {
	return &HifiProvider{
		BaseURL: baseURL,
		Client:  httpclient.New(nil, 100*time.Millisecond),
	}
}

func (p *HifiProvider) Search(ctx context.Context, query string) ([]domain.Track, error) {
	u := fmt.Sprintf("%s/search/?s=%s", p.BaseURL, query)
	var resp struct {
		Tracks struct {
			Items []struct {
				ID          json.Number `json:"id"`
				Title       string      `json:"title"`
				TrackNumber int         `json:"trackNumber"`
				Duration    int         `json:"duration"`
				Artist      struct {
					Name string `json:"name"`
				} `json:"artist"`
				Album struct {
					Title string `json:"title"`
					Cover string `json:"cover"`
				} `json:"album"`
			} `json:"items"`
		} `json:"tracks"`
	}
	if err := p.get(ctx, u, &resp); err != nil {
		return nil, err
	}

	tracks := make([]domain.Track, 0, len(resp.Tracks.Items))
	for _, item := range resp.Tracks.Items {
		tracks = append(tracks, domain.Track{
			ID:          formatID(item.ID),
			Title:       item.Title,
			Artist:      item.Artist.Name,
			Album:       item.Album.Title,
			TrackNumber: item.TrackNumber,
			Duration:    item.Duration,
			CoverURL:    p.ensureAbsoluteURL(item.Album.Cover),
		})
	}
	return tracks, nil
}

func (p *HifiProvider) GetTrack(ctx context.Context, id string) (*domain.Track, error) {
	u := fmt.Sprintf("%s/info/?id=%s", p.BaseURL, id)
	var resp struct {
		Data struct {
			ID          json.Number `json:"id"`
			Title       string      `json:"title"`
			Duration    int         `json:"duration"`
			TrackNumber int         `json:"trackNumber"`
			Album       struct {
				Title string `json:"title"`
				Cover string `json:"cover"`
			} `json:"album"`
			Artist struct {
				Name string `json:"name"`
			} `json:"artist"`
		} `json:"data"`
	}
	if err := p.get(ctx, u, &resp); err != nil {
		return nil, err
	}

	return &domain.Track{
		ID:          formatID(resp.Data.ID),
		Title:       resp.Data.Title,
		Artist:      resp.Data.Artist.Name,
		Album:       resp.Data.Album.Title,
		TrackNumber: resp.Data.TrackNumber,
		Duration:    resp.Data.Duration,
		CoverURL:    p.ensureAbsoluteURL(resp.Data.Album.Cover),
	}, nil
}

// ResolveAudioLocator asks the provider for a fresh streaming address. The
// address expires server-side after roughly twenty minutes; the caller
// stamps and enforces the TTL.
func (p *HifiProvider) ResolveAudioLocator(ctx context.Context, trackID string, quality string) (*domain.AudioLocator, error) {
	u := fmt.Sprintf("%s/track/?id=%s&quality=%s", p.BaseURL, trackID, quality)
	hifiLogger.Debug("resolve locator", "track_id", trackID, "quality", quality)

	var resp struct {
		Data struct {
			Manifest         string `json:"manifest"`
			ManifestMimeType string `json:"manifestMimeType"`
		} `json:"data"`
	}
	if err := p.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	if resp.Data.Manifest == "" {
		return nil, fmt.Errorf("no manifest found")
	}

	decoded, err := base64.StdEncoding.DecodeString(resp.Data.Manifest)
	if err != nil {
		return nil, err
	}

	url, err := locatorFromManifest(decoded, resp.Data.ManifestMimeType)
	if err != nil {
		return nil, err
	}

	return &domain.AudioLocator{
		URL:       url,
		Quality:   quality,
		FetchedAt: time.Now(),
	}, nil
}

func (p *HifiProvider) FetchLyricText(ctx context.Context, trackID string) (*domain.LyricText, error) {
	u := fmt.Sprintf("%s/lyrics/?id=%s", p.BaseURL, trackID)
	var resp struct {
		Lyrics struct {
			Lyrics       string `json:"lyrics"`
			Subtitles    string `json:"subtitles"`
			Translation  string `json:"translation"`
			Instrumental bool   `json:"isInstrumental"`
		} `json:"lyrics"`
	}
	if err := p.get(ctx, u, &resp); err != nil {
		return nil, err
	}
	return &domain.LyricText{
		Primary:      resp.Lyrics.Lyrics,
		Secondary:    resp.Lyrics.Subtitles,
		Translation:  resp.Lyrics.Translation,
		Instrumental: resp.Lyrics.Instrumental,
	}, nil
}

var dashBaseURL = regexp.MustCompile(`(?is)<BaseURL[^>]*>(.*?)</BaseURL>`)

// locatorFromManifest extracts the first usable stream URL from a decoded
// manifest.
func locatorFromManifest(decoded []byte, mimeType string) (string, error) {
	switch mimeType {
	case "application/vnd.tidal.bts":
		var manifest struct {
			Urls []string `json:"urls"`
		}
		if err := json.Unmarshal(decoded, &manifest); err != nil {
			return "", err
		}
		if len(manifest.Urls) == 0 {
			return "", fmt.Errorf("no urls in manifest")
		}
		return manifest.Urls[0], nil

	case "application/dash+xml":
		match := dashBaseURL.FindStringSubmatch(string(decoded))
		if len(match) < 2 || strings.TrimSpace(match[1]) == "" {
			return "", fmt.Errorf("no BaseURL found in DASH manifest")
		}
		return strings.TrimSpace(match[1]), nil

	default:
		return "", fmt.Errorf("unsupported manifest type: %s", mimeType)
	}
}

func (p *HifiProvider) ensureAbsoluteURL(urlOrID string) string {
	if urlOrID == "" {
		return ""
	}
	if strings.HasPrefix(urlOrID, "http://") || strings.HasPrefix(urlOrID, "https://") {
		return urlOrID
	}
	path := strings.ReplaceAll(urlOrID, "-", "/")
	return fmt.Sprintf("https://resources.tidal.com/images/%s/640x640.jpg", path)
}

// formatID converts the provider's loosely typed IDs to strings.
func formatID(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.0f", val)
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (p *HifiProvider) get(ctx context.Context, url string, target interface{}) error {
	hifiLogger.Debug("API request", "url", url)
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return err
	}

	resp, err := p.Client.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed: %s", resp.Status)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	return decoder.Decode(target)
}

var _ Provider = (*HifiProvider)(nil)

// quality sanity helper shared by callers building requests.
func ValidQuality(q string) bool {
	switch q {
	case constants.QualityLossless, constants.QualityHiResLossless, constants.QualityHigh, constants.QualityLow:
		return true
	}
	return false
}
