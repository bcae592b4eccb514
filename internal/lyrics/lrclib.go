package lyrics

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const defaultLRCLibBaseURL = "https://lrclib.net"

// lrclibTrack is the provider's get/search response shape.
type lrclibTrack struct {
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

// LRCLibClient queries the lrclib catalog, the primary free lyrics provider.
type LRCLibClient struct {
	httpClient *http.Client
	baseURL    string
}

// NewLRCLibClient returns a client for the given base URL; an empty URL
// selects the public instance.
func NewLRCLibClient(baseURL string) *LRCLibClient {
	if baseURL == "" {
		baseURL = defaultLRCLibBaseURL
	}
	return &LRCLibClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

// Get looks up lyrics by exact artist and title. A durationSec of zero omits
// the duration filter. Returns ErrNotFound when the catalog has no match.
func (c *LRCLibClient) Get(ctx context.Context, artist, title string, durationSec int) (*lrclibTrack, error) {
	params := url.Values{}
	params.Set("artist_name", artist)
	params.Set("track_name", title)
	if durationSec > 0 {
		params.Set("duration", strconv.Itoa(durationSec))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/get?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build lrclib request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: lrclib returned HTTP %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var track lrclibTrack
	if err := json.NewDecoder(resp.Body).Decode(&track); err != nil {
		return nil, fmt.Errorf("unable to decode lrclib response: %w", err)
	}
	return &track, nil
}
