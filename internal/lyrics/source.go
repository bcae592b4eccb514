package lyrics

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/verseline/verseline/internal/cache"
)

// Source resolves lyric documents, trying the primary provider first and a
// configured secondary after it. Results are cached for the session, so each
// (artist, title) pair costs at most one provider walk.
type Source struct {
	primary   *LRCLibClient
	secondary *MusixmatchClient
	cache     *cache.Cache[*Document]
	logger    *log.Logger
}

// NewSource creates a Source. secondary may be nil.
func NewSource(primary *LRCLibClient, secondary *MusixmatchClient, logger *log.Logger) *Source {
	if logger == nil {
		logger = log.Default()
	}
	return &Source{
		primary:   primary,
		secondary: secondary,
		cache:     cache.New[*Document](0),
		logger:    logger,
	}
}

// Lookup fetches and parses lyrics for a track. Returns ErrNotFound when no
// provider can supply them.
func (s *Source) Lookup(ctx context.Context, artist, title string, durationMs int64) (*Document, error) {
	key := cacheKey(artist, title)
	if doc, ok := s.cache.Get(key); ok {
		return doc, nil
	}

	doc, err := s.resolve(ctx, artist, title, durationMs)
	if err != nil {
		return nil, err
	}

	// Session lifetime: a track's lyrics never change mid-session.
	s.cache.Set(key, doc, 0)
	return doc, nil
}

func (s *Source) resolve(ctx context.Context, artist, title string, durationMs int64) (*Document, error) {
	track, err := s.primary.Get(ctx, artist, title, int(durationMs/1000))
	if errors.Is(err, ErrNotFound) && durationMs > 0 {
		// The duration hint can be slightly off; retry without it.
		track, err = s.primary.Get(ctx, artist, title, 0)
	}

	switch {
	case err == nil:
		if doc := documentFromTrack(track); doc != nil {
			return doc, nil
		}
		// Catalog entry exists but carries no lyric text (e.g. instrumental
		// placeholder). Treat like a miss.
	case !errors.Is(err, ErrNotFound):
		s.logger.Warn("primary lyrics provider failed", "artist", artist, "title", title, "error", err)
	}

	if s.secondary != nil {
		doc, serr := s.lookupSecondary(ctx, artist, title)
		if serr == nil {
			return doc, nil
		}
		if !errors.Is(serr, ErrNotFound) {
			s.logger.Warn("secondary lyrics provider failed", "artist", artist, "title", title, "error", serr)
		}
	}

	return nil, fmt.Errorf("%w: %s - %s", ErrNotFound, artist, title)
}

func (s *Source) lookupSecondary(ctx context.Context, artist, title string) (*Document, error) {
	id, err := s.secondary.SearchTrack(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	body, err := s.secondary.LyricsByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if doc := Parse(body); doc.Synced {
		return doc, nil
	}
	if doc := ParsePlain(body); !doc.Empty() {
		return doc, nil
	}
	return nil, ErrNotFound
}

// ClearCache drops all cached documents. Called on logout/teardown.
func (s *Source) ClearCache() {
	s.cache.Clear()
}

// Close releases the session cache.
func (s *Source) Close() {
	s.cache.Close()
}

// documentFromTrack prefers synced lyrics, falls back to plain, and returns
// nil when the track carries neither.
func documentFromTrack(track *lrclibTrack) *Document {
	if track.SyncedLyrics != "" {
		if doc := Parse(track.SyncedLyrics); doc.Synced {
			return doc
		}
	}
	if track.PlainLyrics != "" {
		if doc := ParsePlain(track.PlainLyrics); !doc.Empty() {
			return doc
		}
	}
	return nil
}

func cacheKey(artist, title string) string {
	return strings.ToLower(artist) + "|" + strings.ToLower(title)
}
