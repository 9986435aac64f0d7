// Package segment turns raw lyric text into time-stamped display segments.
//
// Timing is a derived estimate: the track duration is divided evenly across
// lines, and each line's window evenly across its words. That allocation
// has no relationship to when the words are actually sung; it is preserved
// as documented behavior until real timestamp metadata exists as an input.
package segment

import (
	"fmt"
	"regexp"
	"strings"
)

// Fallback durations used while the real audio duration is unknown. The
// embedded player and the karaoke view historically assumed different
// nominal track lengths, so the default stays per-component configuration.
const (
	DefaultPlayerFallback  = 180.0
	DefaultKaraokeFallback = 240.0
)

const defaultLinesPerVerse = 4

// WordTiming is one word's share of its segment's time window.
type WordTiming struct {
	Word  string
	Start float64
	End   float64
}

// Segment is one displayable lyric unit with a derived time window.
// Segments partition [0, duration) contiguously: Seg[i].End == Seg[i+1].Start.
type Segment struct {
	ID          string
	Text        string
	Start       float64
	End         float64
	VerseNumber int
	IsChorus    bool
	Words       []WordTiming
}

// Contains reports whether t falls inside the segment's window.
func (s Segment) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

type Options struct {
	// FallbackDuration is used when the caller passes a non-positive
	// duration (real metadata not loaded yet).
	FallbackDuration float64
	// GroupVerses assigns synthetic verse numbers (every LinesPerVerse
	// lines) to lines without explicit "<n>. " numbering.
	GroupVerses   bool
	LinesPerVerse int
}

var verseNumberPattern = regexp.MustCompile(`^(\d+)\.\s+`)

// Build converts transcript content into an ordered segment sequence.
// Empty content yields nil — "no lyrics available", not an error. The
// result is recomputed wholesale whenever language, content or known
// duration changes; segments are never patched in place.
func Build(content string, totalDuration float64, opts Options) []Segment {
	lines := nonBlankLines(content)
	if len(lines) == 0 {
		return nil
	}

	if totalDuration <= 0 {
		totalDuration = opts.FallbackDuration
	}
	if totalDuration <= 0 {
		totalDuration = DefaultPlayerFallback
	}

	linesPerVerse := opts.LinesPerVerse
	if linesPerVerse <= 0 {
		linesPerVerse = defaultLinesPerVerse
	}

	timePerLine := totalDuration / float64(len(lines))

	segments := make([]Segment, 0, len(lines))
	for i, line := range lines {
		start := float64(i) * timePerLine
		end := float64(i+1) * timePerLine
		if i == len(lines)-1 {
			// guard against float drift on the final boundary
			end = totalDuration
		}

		text, verseNumber := stripVerseNumber(line)
		if verseNumber == 0 && opts.GroupVerses {
			verseNumber = i/linesPerVerse + 1
		}

		segments = append(segments, Segment{
			ID:          fmt.Sprintf("line-%d", i),
			Text:        text,
			Start:       start,
			End:         end,
			VerseNumber: verseNumber,
			IsChorus:    isChorusLine(text),
			Words:       wordTimings(text, start, end),
		})
	}

	return segments
}

func nonBlankLines(content string) []string {
	var lines []string
	for _, raw := range strings.Split(content, "\n") {
		line := strings.TrimSpace(raw)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// stripVerseNumber removes a leading "<digits>. " prefix, returning the
// display text and the parsed verse number (0 when absent).
func stripVerseNumber(line string) (string, int) {
	match := verseNumberPattern.FindStringSubmatch(line)
	if match == nil {
		return line, 0
	}

	number := 0
	for _, d := range match[1] {
		number = number*10 + int(d-'0')
	}

	return strings.TrimSpace(line[len(match[0]):]), number
}

func isChorusLine(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "chorus") || strings.Contains(lower, "refrain")
}

func wordTimings(text string, start, end float64) []WordTiming {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	perWord := (end - start) / float64(len(words))

	timings := make([]WordTiming, 0, len(words))
	for i, word := range words {
		wordStart := start + float64(i)*perWord
		wordEnd := start + float64(i+1)*perWord
		if i == len(words)-1 {
			wordEnd = end
		}
		timings = append(timings, WordTiming{Word: word, Start: wordStart, End: wordEnd})
	}

	return timings
}
