package karaoke

import (
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/playback"
	"github.com/psalterhq/psalter/internal/theme"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		m.markInput()
		return m.handleKeyPress(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case SourceEventMsg:
		return m.handleSourceEvent(msg.Event)

	case ArtworkFetchedMsg:
		return m.handleArtworkFetched(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m.close()

	case "esc":
		// esc backs out of the lyric-only view first; closing takes a
		// second press
		if m.lyricOnly {
			m.lyricOnly = false
			if m.callbacks.OnFullscreenToggle != nil {
				m.callbacks.OnFullscreenToggle(false)
			}
			return m, nil
		}
		return m.close()

	case "f":
		m.lyricOnly = !m.lyricOnly
		if m.callbacks.OnFullscreenToggle != nil {
			m.callbacks.OnFullscreenToggle(m.lyricOnly)
		}
		return m, nil

	case " ":
		m.engine.TogglePlay()
		m.resolvePosition()
		return m, nil

	case "left":
		m.selectOffset(-1)
		return m, nil

	case "right":
		m.selectOffset(1)
		return m, nil

	case "enter":
		// jump playback to the manually selected segment, then hand
		// selection back to the clock
		if m.controller.Manual() && m.position.SegmentIndex >= 0 {
			segs := m.controller.Segments()
			m.engine.Seek(segs[m.position.SegmentIndex].Start)
			m.controller.ResumeAuto()
			m.resolvePosition()
		}
		return m, nil

	case "s":
		m.controller.ResumeAuto()
		m.resolvePosition()
		return m, nil

	case "n":
		m.engine.NextTrack()
		m.resegment()
		return m, nil

	case "p":
		m.engine.PreviousTrack()
		m.resegment()
		return m, nil

	case "m":
		m.engine.ToggleMute()
		return m, nil

	case "+", "=":
		m.engine.SetVolume(m.engine.State().Volume + 0.1)
		return m, nil

	case "-", "_":
		m.engine.SetVolume(m.engine.State().Volume - 0.1)
		return m, nil

	case "L":
		m.engine.ToggleLoop()
		return m, nil

	case "l":
		m.cycleLanguage()
		return m, nil

	case "t":
		m.cycleTheme()
		return m, nil

	case "h":
		m.cycleHighlightMode()
		return m, nil

	case "v":
		m.settings.ShowVerseNumbers = !m.settings.ShowVerseNumbers
		return m, nil

	case "a":
		m.settings.AutoScroll = !m.settings.AutoScroll
		m.controller.SetAutoScroll(m.settings.AutoScroll)
		return m, nil

	case "S":
		if m.callbacks.OnShare != nil {
			m.callbacks.OnShare()
		}
		return m, nil

	case "y":
		if m.callbacks.OnToggleLike != nil {
			m.callbacks.OnToggleLike()
		}
		return m, nil

	case "1", "2", "3":
		m.settings.FontSize = int(msg.String()[0] - '0')
		return m, nil
	}

	return m, nil
}

func (m Model) close() (tea.Model, tea.Cmd) {
	m.quitting = true
	if m.callbacks.OnClose != nil {
		m.callbacks.OnClose()
	}
	return m, tea.Quit
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	m.markInput()

	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.selectOffset(-1)
	case tea.MouseButtonWheelDown:
		m.selectOffset(1)
	}

	return m, nil
}

// selectOffset moves the highlighted segment by hand, entering manual
// sync. The playback clock keeps running; enter seeks to the selection.
func (m *Model) selectOffset(delta int) {
	idx := m.position.SegmentIndex
	if idx < 0 {
		idx = 0
		delta = 0
	}
	m.controller.Select(idx + delta)
	m.resolvePosition()
}

func (m Model) handleSourceEvent(ev playback.Event) (tea.Model, tea.Cmd) {
	cmd := m.listenForSourceEvents()

	hadDuration := m.engine.State().Duration
	m.engine.HandleEvent(ev)

	switch ev.Kind {
	case playback.EventMetadataLoaded:
		// real duration arrived; derived timings based on the fallback
		// are stale
		if m.engine.State().Duration != hadDuration {
			m.resegment()
		}
	case playback.EventPause:
		m.controlsVisible = true
	case playback.EventError:
		m.log.Warn("source error", zap.Error(ev.Err))
		m.controlsVisible = true
	}

	m.resolvePosition()
	return m, cmd
}

func (m Model) handleArtworkFetched(msg ArtworkFetchedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.log.Debug("artwork fetch failed", zap.Error(msg.Err))
		return m, nil
	}

	m.coverImage = msg.Image
	m.dynamicPalette = msg.Palette
	if m.settings.Theme == theme.Dynamic {
		m.palette = m.dynamicPalette
	}

	return m, nil
}

func (m Model) handleTick() (tea.Model, tea.Cmd) {
	m.tickCount++

	state := m.engine.State()

	if m.controlsVisible && state.IsPlaying() && m.now().Sub(m.lastInput) >= idleTimeout {
		m.controlsVisible = false
	}
	if !state.IsPlaying() {
		m.controlsVisible = true
	}

	prevIndex := m.position.SegmentIndex
	m.resolvePosition()
	lineChanged := m.position.SegmentIndex != prevIndex

	m.animState.Update(m.tickCount, lineChanged, m.settings.TransitionSpeed)

	return m, tickCmd()
}

func (m *Model) cycleLanguage() {
	if m.hymn == nil {
		return
	}
	langs := m.hymn.LyricLanguages()
	if len(langs) < 2 {
		return
	}

	next := langs[0]
	for i, lang := range langs {
		if lang == m.language {
			next = langs[(i+1)%len(langs)]
			break
		}
	}

	// new transcript, same known duration, playback position untouched
	m.language = next
	m.resegment()
}

func (m *Model) cycleTheme() {
	names := theme.Names()
	next := names[0]
	for i, name := range names {
		if name == m.settings.Theme {
			next = names[(i+1)%len(names)]
			break
		}
	}

	m.settings.Theme = next
	if next == theme.Dynamic {
		if m.dynamicPalette.Name != "" {
			m.palette = m.dynamicPalette
		} else {
			m.palette = theme.Named(theme.Classic)
		}
		return
	}
	m.palette = theme.Named(next)
}

func (m *Model) cycleHighlightMode() {
	switch m.settings.HighlightMode {
	case lyricsync.HighlightLine:
		m.settings.HighlightMode = lyricsync.HighlightWord
	case lyricsync.HighlightWord:
		m.settings.HighlightMode = lyricsync.HighlightSmooth
	default:
		m.settings.HighlightMode = lyricsync.HighlightLine
	}
	m.controller.SetHighlightMode(m.settings.HighlightMode)
	m.resolvePosition()
}
