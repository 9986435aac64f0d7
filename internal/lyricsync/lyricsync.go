// Package lyricsync maps a playback clock onto lyric segments: which
// segment is current, which word inside it, and when the view should
// scroll.
package lyricsync

import (
	"github.com/psalterhq/psalter/internal/segment"
)

type HighlightMode string

const (
	HighlightLine   HighlightMode = "line"
	HighlightWord   HighlightMode = "word"
	HighlightSmooth HighlightMode = "smooth"
)

type WordState int

const (
	WordFuture WordState = iota
	WordCurrent
	WordPast
)

// Position is the result of resolving one time update.
type Position struct {
	// SegmentIndex is the unique segment whose window holds the current
	// time, or -1 outside [0, duration].
	SegmentIndex int
	// WordIndex is the current word within the segment (-1 unless word
	// mode resolved one).
	WordIndex int
	// WordStates classifies every word of the current segment in word
	// mode; nil otherwise.
	WordStates []WordState
	// Progress is the clamped fraction of the current segment elapsed,
	// for the smooth highlight fill.
	Progress float64
	// ScrollTo is the segment index the view should scroll to, or -1.
	// It fires only on the tick where the resolved segment changed, so
	// continuous time updates never fight manual scrolling.
	ScrollTo int
}

// Controller resolves positions against one segment sequence. It is owned
// by a single event loop and is not safe for concurrent use.
type Controller struct {
	segments   []segment.Segment
	mode       HighlightMode
	autoScroll bool

	manual       bool
	manualIndex  int
	lastResolved int
}

func NewController(segments []segment.Segment) *Controller {
	return &Controller{
		segments:     segments,
		mode:         HighlightLine,
		autoScroll:   true,
		manualIndex:  -1,
		lastResolved: -1,
	}
}

// SetSegments replaces the segment sequence, e.g. after a language switch
// or once real duration metadata loads. The segments carry the track
// duration as their partition bounds. Manual selection is dropped since
// indexes no longer refer to the same lines.
func (c *Controller) SetSegments(segments []segment.Segment) {
	c.segments = segments
	c.manual = false
	c.manualIndex = -1
	c.lastResolved = -1
}

func (c *Controller) SetHighlightMode(mode HighlightMode) { c.mode = mode }
func (c *Controller) SetAutoScroll(enabled bool)          { c.autoScroll = enabled }

func (c *Controller) Segments() []segment.Segment { return c.segments }
func (c *Controller) Manual() bool                { return c.manual }

// Select pins the highlighted segment to an explicit user choice and
// switches the controller to manual mode: time updates no longer move the
// selection until ResumeAuto (or SetSegments) is called.
func (c *Controller) Select(index int) {
	if index < 0 || index >= len(c.segments) {
		return
	}
	c.manual = true
	c.manualIndex = index
}

// ResumeAuto returns segment selection to automatic time-based resolution.
func (c *Controller) ResumeAuto() {
	c.manual = false
	c.manualIndex = -1
}

// Resolve maps the current playback time to a Position. Must be called on
// every time update; the scroll edge trigger depends on seeing each tick.
func (c *Controller) Resolve(currentTime float64) Position {
	pos := Position{SegmentIndex: -1, WordIndex: -1, ScrollTo: -1}
	if len(c.segments) == 0 {
		return pos
	}

	if c.manual {
		// manual mode: playback time must not override the user's pick
		pos.SegmentIndex = c.manualIndex
		pos.Progress = c.progressIn(c.manualIndex, currentTime)
		return pos
	}

	idx := c.indexFor(currentTime)
	pos.SegmentIndex = idx

	if idx < 0 {
		c.lastResolved = -1
		return pos
	}

	if c.autoScroll && idx != c.lastResolved {
		pos.ScrollTo = idx
	}
	c.lastResolved = idx

	pos.Progress = c.progressIn(idx, currentTime)

	if c.mode == HighlightWord {
		pos.WordStates, pos.WordIndex = wordStates(c.segments[idx].Words, currentTime)
	}

	return pos
}

// indexFor finds the unique segment holding t. The last segment's upper
// bound is inclusive so the track end still resolves.
func (c *Controller) indexFor(t float64) int {
	last := len(c.segments) - 1
	if t < c.segments[0].Start || t > c.segments[last].End {
		return -1
	}
	if t >= c.segments[last].Start {
		return last
	}

	lo, hi := 0, last
	for lo < hi {
		mid := (lo + hi) / 2
		if c.segments[mid].End <= t {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

func (c *Controller) progressIn(index int, t float64) float64 {
	if index < 0 || index >= len(c.segments) {
		return 0
	}
	seg := c.segments[index]
	span := seg.End - seg.Start
	if span <= 0 {
		return 1
	}
	progress := (t - seg.Start) / span
	if progress < 0 {
		return 0
	}
	if progress > 1 {
		return 1
	}
	return progress
}

func wordStates(words []segment.WordTiming, t float64) ([]WordState, int) {
	if len(words) == 0 {
		return nil, -1
	}

	states := make([]WordState, len(words))
	current := -1

	for i, w := range words {
		switch {
		case t >= w.End:
			states[i] = WordPast
		case t >= w.Start:
			states[i] = WordCurrent
			current = i
		default:
			states[i] = WordFuture
		}
	}

	// the final word owns the segment end boundary
	if current == -1 && t >= words[len(words)-1].End {
		current = len(words) - 1
		states[current] = WordCurrent
	}

	return states, current
}
