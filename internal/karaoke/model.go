// Package karaoke is the terminal presentation shell: a bubbletea model
// composing the lyric segmenter, the playback engine and the sync
// controller into a full-screen synchronized lyric view.
package karaoke

import (
	"context"
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/psalterhq/psalter/internal/config"
	"github.com/psalterhq/psalter/internal/hymn"
	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/playback"
	"github.com/psalterhq/psalter/internal/segment"
	"github.com/psalterhq/psalter/internal/terminal"
	"github.com/psalterhq/psalter/internal/theme"
)

// idleTimeout is how long playback must run with no input before the
// control chrome hides. Any key or mouse event, or a pause, shows it
// again and restarts the countdown.
const idleTimeout = 3500 * time.Millisecond

type TickMsg time.Time

// SourceEventMsg carries one playback source notification into the
// update loop, which owns the engine.
type SourceEventMsg struct {
	Event playback.Event
}

type ArtworkFetchedMsg struct {
	Image   image.Image
	Palette theme.Palette
	Err     error
}

type Model struct {
	hymn       *hymn.Hymn
	engine     *playback.Engine
	source     playback.Source
	controller *lyricsync.Controller
	settings   Settings
	callbacks  Callbacks
	termCaps   *terminal.Capabilities
	log        *zap.Logger

	// fallbackDuration estimates segment timing until real audio metadata
	// arrives.
	fallbackDuration float64

	language string
	position lyricsync.Position
	palette  theme.Palette
	// dynamicPalette is extracted from cover art; zero Name means no art
	// has loaded yet and the dynamic theme falls back to classic.
	dynamicPalette theme.Palette
	coverImage     image.Image

	controlsVisible bool
	lastInput       time.Time
	lyricOnly       bool

	width     int
	height    int
	tickCount int
	animState AnimState
	quitting  bool
	now       func() time.Time
}

type ModelConfig struct {
	Hymn     *hymn.Hymn
	Engine   *playback.Engine
	Source   playback.Source
	Settings Settings
	// Callbacks are optional host hooks.
	Callbacks Callbacks
	TermCaps  *terminal.Capabilities
	Logger    *zap.Logger
	// FallbackDuration defaults to the karaoke nominal track length.
	FallbackDuration float64
}

func NewModel(cfg ModelConfig) Model {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	fallback := cfg.FallbackDuration
	if fallback <= 0 {
		fallback = segment.DefaultKaraokeFallback
	}

	m := Model{
		hymn:             cfg.Hymn,
		engine:           cfg.Engine,
		source:           cfg.Source,
		settings:         cfg.Settings.normalize(),
		callbacks:        cfg.Callbacks,
		termCaps:         cfg.TermCaps,
		log:              log,
		fallbackDuration: fallback,
		controlsVisible:  true,
		lastInput:        time.Now(),
		now:              time.Now,
	}

	m.position = lyricsync.Position{SegmentIndex: -1, WordIndex: -1, ScrollTo: -1}
	m.palette = theme.Named(m.settings.Theme)

	if m.hymn != nil {
		m.language = m.hymn.DefaultLanguage()
	}

	m.controller = lyricsync.NewController(m.buildSegments())
	m.controller.SetHighlightMode(m.settings.HighlightMode)
	m.controller.SetAutoScroll(m.settings.AutoScroll)

	return m
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(),
		m.listenForSourceEvents(),
	}

	if m.hymn != nil && m.hymn.CoverURL != "" {
		cmds = append(cmds, fetchArtworkCmd(m.hymn.CoverURL))
	}

	return tea.Batch(cmds...)
}

func tickCmd() tea.Cmd {
	return tea.Tick(config.DefaultPollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// listenForSourceEvents forwards one source event and re-arms itself from
// the update loop, keeping the engine single-threaded.
func (m Model) listenForSourceEvents() tea.Cmd {
	if m.source == nil {
		return nil
	}

	return func() tea.Msg {
		event, ok := <-m.source.Events()
		if !ok {
			return nil
		}
		return SourceEventMsg{Event: event}
	}
}

func fetchArtworkCmd(coverURL string) tea.Cmd {
	return func() tea.Msg {
		img, err := theme.FetchArtwork(context.Background(), coverURL)
		if err != nil {
			return ArtworkFetchedMsg{Err: err}
		}
		return ArtworkFetchedMsg{Image: img, Palette: theme.FromArtwork(img)}
	}
}

// knownDuration prefers the engine's live duration for the current track,
// then the hymn record's nominal one. Zero means "unknown"; the segmenter
// substitutes the fallback.
func (m Model) knownDuration() float64 {
	if m.engine != nil {
		if d := m.engine.State().Duration; d > 0 {
			return d
		}
		if track, ok := m.engine.CurrentTrack(); ok && track.Duration > 0 {
			return track.Duration
		}
	}
	return 0
}

func (m Model) buildSegments() []segment.Segment {
	if m.hymn == nil {
		return nil
	}

	transcript, ok := m.hymn.TranscriptFor(m.language)
	if !ok {
		return nil
	}

	return segment.Build(transcript.Content, m.knownDuration(), segment.Options{
		FallbackDuration: m.fallbackDuration,
	})
}

// resegment rebuilds the segment sequence wholesale, e.g. after a language
// switch, a track change, or real duration metadata arriving. Playback
// position is untouched; manual selection is dropped with the old indexes.
func (m *Model) resegment() {
	m.controller.SetSegments(m.buildSegments())
	m.resolvePosition()
}

func (m *Model) resolvePosition() {
	if m.engine == nil {
		return
	}
	m.position = m.controller.Resolve(m.engine.State().CurrentTime)
}

// markInput shows the controls and restarts the idle countdown.
func (m *Model) markInput() {
	m.controlsVisible = true
	m.lastInput = m.now()
}

func (m Model) Settings() Settings              { return m.settings }
func (m Model) Language() string                { return m.language }
func (m Model) Position() lyricsync.Position    { return m.position }
func (m Model) Palette() theme.Palette          { return m.palette }
func (m Model) ControlsVisible() bool           { return m.controlsVisible }
func (m Model) LyricOnly() bool                 { return m.lyricOnly }
func (m Model) Segments() []segment.Segment     { return m.controller.Segments() }
func (m Model) ManualSync() bool                { return m.controller.Manual() }
func (m Model) IsQuitting() bool                { return m.quitting }
