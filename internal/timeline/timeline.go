// Package timeline maps a lyric document and a playback position to the
// active line, word and pause state. Resolution is a pure function of its
// inputs so every display refresh can re-resolve cheaply and reproducibly.
package timeline

import "github.com/verseline/verseline/internal/lyrics"

const (
	// defaultLineDurationMs bounds a line with no words and no successor.
	defaultLineDurationMs = 3000
	// minPauseGapMs is the smallest inter-line gap reported as an
	// instrumental pause.
	minPauseGapMs = 500
)

// Snapshot is the render state for one position.
type Snapshot struct {
	// LineIndex is the active line, or -1 before the first line.
	LineIndex int
	// Line is the active line, nil before the first line.
	Line *lyrics.Line
	// NextLine is the upcoming line, nil at or past the last line.
	NextLine *lyrics.Line
	// WordIndex is the active word within Line, or -1 when the line has no
	// words or the position precedes the first word.
	WordIndex int
	// Pause is set inside an instrumental/silence gap of at least 500ms, so
	// the caller renders a neutral state instead of stale text.
	Pause bool
}

// Resolve computes the snapshot for positionMs. It never reads the clock or
// any state outside its arguments.
func Resolve(doc *lyrics.Document, positionMs int64) Snapshot {
	snap := Snapshot{LineIndex: -1, WordIndex: -1}
	if doc.Empty() || !doc.Synced {
		return snap
	}

	// Last line whose start is at or before the position. The last line
	// stays current indefinitely; there is no terminal transition.
	for i := range doc.Lines {
		if doc.Lines[i].Time <= positionMs {
			snap.LineIndex = i
		} else {
			break
		}
	}

	if snap.LineIndex < 0 {
		snap.NextLine = &doc.Lines[0]
		return snap
	}

	snap.Line = &doc.Lines[snap.LineIndex]
	if snap.LineIndex+1 < len(doc.Lines) {
		snap.NextLine = &doc.Lines[snap.LineIndex+1]
	}

	snap.WordIndex = resolveWord(snap.Line, positionMs, lineEnd(doc, snap.LineIndex))

	if snap.NextLine != nil {
		end := lineEnd(doc, snap.LineIndex)
		if snap.NextLine.Time-end >= minPauseGapMs && positionMs > end && positionMs < snap.NextLine.Time {
			snap.Pause = true
		}
	}

	return snap
}

// lineEnd returns the exclusive end time of line i: the last word's end
// time, else the next line's start, else a fixed default span.
func lineEnd(doc *lyrics.Document, i int) int64 {
	line := &doc.Lines[i]
	if n := len(line.Words); n > 0 {
		return line.Words[n-1].EndTime
	}
	if i+1 < len(doc.Lines) {
		return doc.Lines[i+1].Time
	}
	return line.Time + defaultLineDurationMs
}

// resolveWord finds the active word index for a position within a line. The
// final word's window is closed by endTime; past all words, the last word
// stays active.
func resolveWord(line *lyrics.Line, positionMs, endTime int64) int {
	if len(line.Words) == 0 || positionMs < line.Words[0].Time {
		return -1
	}

	for i := range line.Words {
		next := endTime
		if i+1 < len(line.Words) {
			next = line.Words[i+1].Time
		}
		if positionMs >= line.Words[i].Time && positionMs < next {
			return i
		}
	}

	return len(line.Words) - 1
}
