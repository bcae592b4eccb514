// Package lyrics fetches raw lyric text from remote providers and parses it
// into a timed document the timeline resolver can consume.
package lyrics

import "errors"

// Common errors for lyric lookup.
var (
	// ErrNotFound means no provider has lyrics for the track.
	ErrNotFound = errors.New("no lyrics found for track")
	// ErrProviderUnavailable means a provider request failed at the
	// transport level.
	ErrProviderUnavailable = errors.New("lyrics provider unavailable")
)

// Word is a single timed word within a line. EndTime is exclusive and always
// populated by the parser; consumers never have to derive it.
type Word struct {
	Time    int64  // ms offset from track start
	EndTime int64  // ms, exclusive; EndTime >= Time
	Text    string
}

// Line is a single lyric line. Words, when present, are ascending by Time
// and lie within the line's span.
type Line struct {
	Time  int64  // ms offset from track start; zero when the document is unsynced
	Text  string
	Words []Word
}

// Document is an ordered lyric timeline, ascending by Line.Time. When Synced
// is false the Time fields are unused and lines render as plain text.
type Document struct {
	Lines             []Line
	Synced            bool
	HasWordTimestamps bool
}

// Empty reports whether the document carries no usable lines.
func (d *Document) Empty() bool {
	return d == nil || len(d.Lines) == 0
}
