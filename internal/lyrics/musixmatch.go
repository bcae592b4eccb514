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

const defaultMusixmatchBaseURL = "https://api.musixmatch.com/ws/1.1"

// MusixmatchClient is the optional secondary provider. It needs two round
// trips: an artist/title search resolving a track id, then a lyrics lookup
// by that id.
type MusixmatchClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// NewMusixmatchClient returns a client, or nil when no API key is
// configured (the provider is opt-in).
func NewMusixmatchClient(apiKey, baseURL string) *MusixmatchClient {
	if apiKey == "" {
		return nil
	}
	if baseURL == "" {
		baseURL = defaultMusixmatchBaseURL
	}
	return &MusixmatchClient{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		apiKey:     apiKey,
	}
}

type musixmatchEnvelope struct {
	Message struct {
		Header struct {
			StatusCode int `json:"status_code"`
		} `json:"header"`
		Body json.RawMessage `json:"body"`
	} `json:"message"`
}

type musixmatchSearchBody struct {
	TrackList []struct {
		Track struct {
			TrackID     int64  `json:"track_id"`
			TrackName   string `json:"track_name"`
			ArtistName  string `json:"artist_name"`
			HasSubtitle int    `json:"has_subtitles"`
		} `json:"track"`
	} `json:"track_list"`
}

type musixmatchLyricsBody struct {
	Lyrics struct {
		LyricsBody string `json:"lyrics_body"`
	} `json:"lyrics"`
}

// SearchTrack resolves an artist/title pair to a provider track id.
func (c *MusixmatchClient) SearchTrack(ctx context.Context, artist, title string) (int64, error) {
	params := url.Values{}
	params.Set("q_artist", artist)
	params.Set("q_track", title)
	params.Set("page_size", "1")

	body, err := c.call(ctx, "/track.search", params)
	if err != nil {
		return 0, err
	}

	var search musixmatchSearchBody
	if err := json.Unmarshal(body, &search); err != nil {
		return 0, fmt.Errorf("unable to decode track search: %w", err)
	}
	if len(search.TrackList) == 0 {
		return 0, ErrNotFound
	}
	return search.TrackList[0].Track.TrackID, nil
}

// LyricsByID fetches the lyric body for a track id. The body may be timed
// LRC or plain text; the caller decides by parsing.
func (c *MusixmatchClient) LyricsByID(ctx context.Context, trackID int64) (string, error) {
	params := url.Values{}
	params.Set("track_id", strconv.FormatInt(trackID, 10))

	body, err := c.call(ctx, "/track.lyrics.get", params)
	if err != nil {
		return "", err
	}

	var lyr musixmatchLyricsBody
	if err := json.Unmarshal(body, &lyr); err != nil {
		return "", fmt.Errorf("unable to decode lyrics response: %w", err)
	}
	if lyr.Lyrics.LyricsBody == "" {
		return "", ErrNotFound
	}
	return lyr.Lyrics.LyricsBody, nil
}

func (c *MusixmatchClient) call(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: provider returned HTTP %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var env musixmatchEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("unable to decode provider envelope: %w", err)
	}

	switch env.Message.Header.StatusCode {
	case http.StatusOK:
		return env.Message.Body, nil
	case http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("%w: provider status %d", ErrProviderUnavailable, env.Message.Header.StatusCode)
	}
}
