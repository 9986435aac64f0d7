package karaoke

import (
	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/theme"
)

// Settings is the closed record of display preferences. Changing any of
// them never touches playback state and never triggers re-segmentation;
// they only alter how the existing segments render.
type Settings struct {
	// FontSize is 1 (compact), 2 (normal) or 3 (large).
	FontSize         int
	Theme            string
	ShowVerseNumbers bool
	AutoScroll       bool
	HighlightMode    lyricsync.HighlightMode
	// TransitionSpeed scales line-change animation; 1.0 is normal, higher
	// is snappier.
	TransitionSpeed float64
}

func DefaultSettings() Settings {
	return Settings{
		FontSize:         2,
		Theme:            theme.Classic,
		ShowVerseNumbers: true,
		AutoScroll:       true,
		HighlightMode:    lyricsync.HighlightLine,
		TransitionSpeed:  1.0,
	}
}

// normalize pulls out-of-range values back to defaults so a bad config
// file cannot produce an unrenderable view.
func (s Settings) normalize() Settings {
	if s.FontSize < 1 || s.FontSize > 3 {
		s.FontSize = 2
	}
	if s.Theme == "" {
		s.Theme = theme.Classic
	}
	switch s.HighlightMode {
	case lyricsync.HighlightLine, lyricsync.HighlightWord, lyricsync.HighlightSmooth:
	default:
		s.HighlightMode = lyricsync.HighlightLine
	}
	if s.TransitionSpeed <= 0 {
		s.TransitionSpeed = 1.0
	}
	return s
}

// Callbacks are host hooks; any of them may be nil.
type Callbacks struct {
	// OnClose fires when the user closes the shell, before the program
	// quits.
	OnClose func()
	// OnFullscreenToggle fires when the lyric-only view is toggled.
	OnFullscreenToggle func(lyricOnly bool)
	OnShare            func()
	OnToggleLike       func()
}
