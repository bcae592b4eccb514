// Package spotify consumes the remote playback-state and control endpoints.
package spotify

import "time"

// Track identifies what the remote player is playing.
type Track struct {
	ID         string
	Name       string
	Artists    []string
	Album      string
	DurationMs int64
}

// ArtistLine joins the artist names for display.
func (t *Track) ArtistLine() string {
	switch len(t.Artists) {
	case 0:
		return ""
	case 1:
		return t.Artists[0]
	default:
		line := t.Artists[0]
		for _, a := range t.Artists[1:] {
			line += ", " + a
		}
		return line
	}
}

// QueueContext references the neighbouring tracks when the payload carries
// them.
type QueueContext struct {
	Previous *Track
	Next     *Track
}

// PlaybackState is one complete playback report. It is replaced wholesale on
// every successful fetch or push event, never mutated in place.
type PlaybackState struct {
	IsPlaying  bool
	Track      *Track
	ProgressMs int64     // position at fetch time
	Timestamp  time.Time // wall-clock time of the fetch
	Queue      *QueueContext
}

// Wire shapes for the currently-playing payload.

type artistPayload struct {
	Name string `json:"name"`
}

type trackPayload struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	DurationMs int64           `json:"duration_ms"`
	Artists    []artistPayload `json:"artists"`
	Album      struct {
		Name string `json:"name"`
	} `json:"album"`
}

type currentlyPlayingPayload struct {
	IsPlaying  bool          `json:"is_playing"`
	ProgressMs int64         `json:"progress_ms"`
	Timestamp  int64         `json:"timestamp"` // ms since epoch
	Item       *trackPayload `json:"item"`
	Queue      *struct {
		Previous *trackPayload `json:"previous"`
		Next     *trackPayload `json:"next"`
	} `json:"queue_context"`
}

func trackFromPayload(p *trackPayload) *Track {
	if p == nil {
		return nil
	}
	track := &Track{
		ID:         p.ID,
		Name:       p.Name,
		Album:      p.Album.Name,
		DurationMs: p.DurationMs,
	}
	for _, a := range p.Artists {
		track.Artists = append(track.Artists, a.Name)
	}
	return track
}

func stateFromPayload(p *currentlyPlayingPayload, fetchedAt time.Time) *PlaybackState {
	state := &PlaybackState{
		IsPlaying:  p.IsPlaying,
		Track:      trackFromPayload(p.Item),
		ProgressMs: p.ProgressMs,
		Timestamp:  fetchedAt,
	}
	if p.Timestamp > 0 {
		state.Timestamp = time.UnixMilli(p.Timestamp)
	}
	if p.Queue != nil {
		state.Queue = &QueueContext{
			Previous: trackFromPayload(p.Queue.Previous),
			Next:     trackFromPayload(p.Queue.Next),
		}
	}
	return state
}
