package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// defaultLineSpanMs is the assumed span of the last line, which has no
	// successor to bound it.
	defaultLineSpanMs = 3000
	// tailWordMsPerChar estimates the final word's duration when nothing
	// bounds it.
	tailWordMsPerChar = 200
)

var (
	// Leading [mm:ss], [mm:ss.xx] or [mm:ss.xxx] stamp.
	lineStampRe = regexp.MustCompile(`^\[(\d{1,3}):(\d{2})(?:\.(\d{2,3}))?\]`)

	// Bare [tag:value] metadata line (artist, title, offset and friends).
	metaTagRe = regexp.MustCompile(`^\[[a-zA-Z][a-zA-Z0-9_#+-]*:[^\]]*\]\s*$`)

	// Embedded per-word stamp. Providers emit both [mm:ss.xx]word and
	// <mm:ss.xx>word variants of enhanced LRC.
	wordStampRe = regexp.MustCompile(`[\[<](\d{1,3}):(\d{2})\.(\d{2,3})[\]>]`)
)

// Parse parses LRC text into a synced Document. Metadata tags are discarded
// and malformed lines are skipped one at a time; a document that yields no
// usable timed lines comes back with Synced == false so the caller can fall
// back to plain text.
func Parse(raw string) *Document {
	type timedLine struct {
		time int64
		rest string
	}

	var parsed []timedLine
	for _, physical := range strings.Split(raw, "\n") {
		physical = strings.TrimSpace(physical)
		if physical == "" {
			continue
		}
		if metaTagRe.MatchString(physical) {
			continue
		}

		m := lineStampRe.FindStringSubmatch(physical)
		if m == nil {
			// Malformed or missing stamp: skip this line only.
			continue
		}

		parsed = append(parsed, timedLine{
			time: stampToMillis(m[1], m[2], m[3]),
			rest: physical[len(m[0]):],
		})
	}

	// Drop lines that are empty once stamps are stripped, then order by time.
	kept := parsed[:0]
	for _, tl := range parsed {
		if strings.TrimSpace(wordStampRe.ReplaceAllString(tl.rest, " ")) != "" {
			kept = append(kept, tl)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].time < kept[j].time })

	if len(kept) == 0 {
		return &Document{Synced: false}
	}

	doc := &Document{Synced: true}
	for i, tl := range kept {
		nextTime := int64(-1)
		if i+1 < len(kept) {
			nextTime = kept[i+1].time
		}

		line, hasStamps := buildLine(tl.time, tl.rest, nextTime)
		if hasStamps {
			doc.HasWordTimestamps = true
		}
		doc.Lines = append(doc.Lines, line)
	}

	return doc
}

// ParsePlain wraps unsynced lyric text in a Document with no timing data.
func ParsePlain(raw string) *Document {
	doc := &Document{Synced: false}
	for _, physical := range strings.Split(raw, "\n") {
		physical = strings.TrimSpace(physical)
		if physical == "" {
			continue
		}
		doc.Lines = append(doc.Lines, Line{Text: physical})
	}
	return doc
}

// buildLine assembles one timed line, using embedded word stamps when
// present and synthesizing evenly spaced words otherwise. nextTime < 0 means
// there is no following line.
func buildLine(timeMs int64, rest string, nextTime int64) (Line, bool) {
	if locs := wordStampRe.FindAllStringSubmatchIndex(rest, -1); len(locs) > 0 {
		return buildStampedLine(timeMs, rest, nextTime, locs), true
	}
	return buildSynthesizedLine(timeMs, rest, nextTime), false
}

func buildStampedLine(timeMs int64, rest string, nextTime int64, locs [][]int) Line {
	var words []Word

	// Text before the first stamp belongs to the line start.
	if lead := strings.TrimSpace(rest[:locs[0][0]]); lead != "" {
		words = append(words, Word{Time: timeMs, Text: lead})
	}

	for i, loc := range locs {
		end := len(rest)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		text := strings.TrimSpace(rest[loc[1]:end])
		if text == "" {
			continue
		}
		words = append(words, Word{
			Time: stampToMillis(
				rest[loc[2]:loc[3]],
				rest[loc[4]:loc[5]],
				rest[loc[6]:loc[7]],
			),
			Text: text,
		})
	}

	assignEndTimes(words, nextTime)

	texts := make([]string, len(words))
	for i, w := range words {
		texts[i] = w.Text
	}

	return Line{Time: timeMs, Text: strings.Join(texts, " "), Words: words}
}

func buildSynthesizedLine(timeMs int64, rest string, nextTime int64) Line {
	text := strings.TrimSpace(rest)
	fields := strings.Fields(text)

	span := int64(defaultLineSpanMs)
	if nextTime >= 0 {
		span = nextTime - timeMs
	}

	words := make([]Word, len(fields))
	step := span / int64(len(fields))
	for i, f := range fields {
		words[i] = Word{Time: timeMs + int64(i)*step, Text: f}
	}

	assignEndTimes(words, nextTime)

	return Line{Time: timeMs, Text: text, Words: words}
}

// assignEndTimes chains each word's EndTime to its successor's start. The
// final word ends at the next line's start, or gets a per-character estimate
// when there is no next line.
func assignEndTimes(words []Word, nextTime int64) {
	for i := range words {
		switch {
		case i+1 < len(words):
			words[i].EndTime = words[i+1].Time
		case nextTime >= 0:
			words[i].EndTime = nextTime
		default:
			chars := int64(utf8.RuneCountInString(words[i].Text))
			words[i].EndTime = words[i].Time + chars*tailWordMsPerChar
		}
		if words[i].EndTime < words[i].Time {
			words[i].EndTime = words[i].Time
		}
	}
}

// stampToMillis converts stamp components to milliseconds. A two-digit
// fraction is centiseconds, a three-digit fraction is already milliseconds.
func stampToMillis(minutes, seconds, fraction string) int64 {
	min, _ := strconv.ParseInt(minutes, 10, 64)
	sec, _ := strconv.ParseInt(seconds, 10, 64)

	ms := min*60000 + sec*1000
	if fraction != "" {
		frac, _ := strconv.ParseInt(fraction, 10, 64)
		if len(fraction) == 2 {
			frac *= 10
		}
		ms += frac
	}
	return ms
}
