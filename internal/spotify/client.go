package spotify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/verseline/verseline/internal/auth"
)

const defaultBaseURL = "https://api.spotify.com"

// Client talks to the remote player. All calls attach a bearer token from
// the credential source; a source failure surfaces as ErrUnauthorized.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      auth.CredentialSource
	logger     *log.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at a different API host (tests).
func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = u }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient creates a playback API client.
func NewClient(creds auth.CredentialSource, logger *log.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = log.Default()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    defaultBaseURL,
		creds:      creds,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CurrentPlayback fetches the playback state. A (nil, nil) return means no
// active session on the remote player.
func (c *Client) CurrentPlayback(ctx context.Context) (*PlaybackState, error) {
	resp, err := c.do(ctx, http.MethodGet, "/v1/me/player")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	var payload currentlyPlayingPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("unable to decode playback state: %w", err)
	}
	return stateFromPayload(&payload, time.Now()), nil
}

// Play resumes playback on the active device.
func (c *Client) Play(ctx context.Context) error {
	return c.command(ctx, http.MethodPut, "/v1/me/player/play")
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context) error {
	return c.command(ctx, http.MethodPut, "/v1/me/player/pause")
}

// Next skips to the next track.
func (c *Client) Next(ctx context.Context) error {
	return c.command(ctx, http.MethodPost, "/v1/me/player/next")
}

// Previous skips to the previous track.
func (c *Client) Previous(ctx context.Context) error {
	return c.command(ctx, http.MethodPost, "/v1/me/player/previous")
}

// Seek moves the playhead to positionMs.
func (c *Client) Seek(ctx context.Context, positionMs int64) error {
	return c.command(ctx, http.MethodPut,
		"/v1/me/player/seek?position_ms="+strconv.FormatInt(positionMs, 10))
}

func (c *Client) command(ctx context.Context, method, path string) error {
	resp, err := c.do(ctx, method, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close() //nolint:errcheck
	return nil
}

// do issues one request and maps the response status to the error taxonomy.
// Responses passed through have a 2xx status.
func (c *Client) do(ctx context.Context, method, path string) (*http.Response, error) {
	token, err := c.creds.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("playback request failed: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		resp.Body.Close() //nolint:errcheck
		return nil, ErrUnauthorized

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		resp.Body.Close() //nolint:errcheck
		c.logger.Warn("playback API rate limited", "retry_after", retryAfter)
		return nil, &RateLimitError{RetryAfter: retryAfter}

	case resp.StatusCode >= 500:
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("%w: HTTP %d", ErrServerError, resp.StatusCode)

	case resp.StatusCode >= 400:
		resp.Body.Close() //nolint:errcheck
		return nil, fmt.Errorf("playback request rejected: HTTP %d", resp.StatusCode)
	}

	return resp, nil
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
