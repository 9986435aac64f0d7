package karaoke

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/psalterhq/psalter/internal/hymn"
	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/playback"
	"github.com/psalterhq/psalter/internal/theme"
)

type fakeSource struct {
	events chan playback.Event
	loads  []string
	seeks  []float64
}

func newFakeSource() *fakeSource {
	return &fakeSource{events: make(chan playback.Event, 8)}
}

func (s *fakeSource) Load(url string) error {
	s.loads = append(s.loads, url)
	return nil
}

func (s *fakeSource) Play() error  { return nil }
func (s *fakeSource) Pause() error { return nil }

func (s *fakeSource) Seek(seconds float64) error {
	s.seeks = append(s.seeks, seconds)
	return nil
}

func (s *fakeSource) SetVolume(v float64) error      { return nil }
func (s *fakeSource) Events() <-chan playback.Event  { return s.events }
func (s *fakeSource) Close() error                   { close(s.events); return nil }

func testHymn() *hymn.Hymn {
	return &hymn.Hymn{
		ID:    "h1",
		Title: "Amazing Grace",
		Lyrics: []hymn.LyricTranscript{
			{Language: "en", Content: "Amazing grace how sweet the sound\n" +
				"That saved a wretch like me\n" +
				"I once was lost but now am found\n" +
				"Was blind but now I see"},
			{Language: "de", Content: "O Gnade Gottes wunderbar\nDie mich rettete"},
		},
		AudioFiles: []hymn.AudioTrack{
			{URL: "https://hymns.test/one.mp3", Duration: 120, Language: "en"},
			{URL: "https://hymns.test/two.mp3", Duration: 200},
		},
	}
}

func newTestModel(t *testing.T) (Model, *fakeSource) {
	t.Helper()
	src := newFakeSource()
	engine := playback.NewEngine(testHymn().AudioFiles, src)
	m := NewModel(ModelConfig{
		Hymn:     testHymn(),
		Engine:   engine,
		Source:   src,
		Settings: DefaultSettings(),
	})
	return m, src
}

func press(t *testing.T, m Model, msg tea.KeyMsg) Model {
	t.Helper()
	updated, _ := m.Update(msg)
	return updated.(Model)
}

func key(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.FontSize != 2 || s.Theme != theme.Classic {
		t.Errorf("defaults = %+v", s)
	}
	if !s.AutoScroll || !s.ShowVerseNumbers {
		t.Errorf("auto-scroll and verse numbers should default on")
	}
	if s.HighlightMode != lyricsync.HighlightLine {
		t.Errorf("HighlightMode = %q, want line", s.HighlightMode)
	}
	if s.TransitionSpeed != 1.0 {
		t.Errorf("TransitionSpeed = %v, want 1.0", s.TransitionSpeed)
	}
}

func TestSettingsNormalize(t *testing.T) {
	s := Settings{FontSize: 9, HighlightMode: "sparkle", TransitionSpeed: -1}.normalize()
	if s.FontSize != 2 {
		t.Errorf("FontSize = %d, want 2", s.FontSize)
	}
	if s.HighlightMode != lyricsync.HighlightLine {
		t.Errorf("HighlightMode = %q, want line", s.HighlightMode)
	}
	if s.TransitionSpeed != 1.0 {
		t.Errorf("TransitionSpeed = %v, want 1.0", s.TransitionSpeed)
	}
	if s.Theme != theme.Classic {
		t.Errorf("Theme = %q, want classic", s.Theme)
	}
}

func TestInitialSegmentsUseTrackDuration(t *testing.T) {
	m, _ := newTestModel(t)

	segs := m.Segments()
	if len(segs) != 4 {
		t.Fatalf("segment count = %d, want 4", len(segs))
	}
	if segs[3].End != 120 {
		t.Errorf("last segment ends at %v, want track duration 120", segs[3].End)
	}
	if m.Language() != "en" {
		t.Errorf("initial language = %q, want en", m.Language())
	}
}

func TestControlsHideAfterIdleWhilePlaying(t *testing.T) {
	m, _ := newTestModel(t)

	base := time.Now()
	m.now = func() time.Time { return base }

	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if !m.engine.State().IsPlaying() {
		t.Fatalf("space did not start playback")
	}
	if !m.ControlsVisible() {
		t.Fatalf("controls should be visible right after input")
	}

	m.now = func() time.Time { return base.Add(4 * time.Second) }
	updated, _ := m.Update(TickMsg(base.Add(4 * time.Second)))
	m = updated.(Model)

	if m.ControlsVisible() {
		t.Errorf("controls still visible after idle timeout while playing")
	}

	// any key both acts and reveals the chrome
	m = press(t, m, key('v'))
	if !m.ControlsVisible() {
		t.Errorf("key press did not reveal controls")
	}
}

func TestControlsStayVisibleWhenNotPlaying(t *testing.T) {
	m, _ := newTestModel(t)

	base := time.Now()
	m.now = func() time.Time { return base.Add(time.Minute) }

	updated, _ := m.Update(TickMsg(base.Add(time.Minute)))
	m = updated.(Model)

	if !m.ControlsVisible() {
		t.Errorf("controls hid while paused; they must only hide during playback")
	}
}

func TestPauseForcesControlsVisible(t *testing.T) {
	m, _ := newTestModel(t)

	base := time.Now()
	m.now = func() time.Time { return base }
	m = press(t, m, tea.KeyMsg{Type: tea.KeySpace})

	m.now = func() time.Time { return base.Add(4 * time.Second) }
	updated, _ := m.Update(TickMsg(base))
	m = updated.(Model)
	if m.ControlsVisible() {
		t.Fatalf("setup: controls should be hidden")
	}

	updated, _ = m.Update(SourceEventMsg{Event: playback.Event{Kind: playback.EventPause}})
	m = updated.(Model)
	if !m.ControlsVisible() {
		t.Errorf("pause event did not reveal controls")
	}
}

func TestLanguageCycleResegmentsWithSameDuration(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, key('l'))

	if m.Language() != "de" {
		t.Fatalf("language after cycle = %q, want de", m.Language())
	}
	segs := m.Segments()
	if len(segs) != 2 {
		t.Fatalf("segment count = %d, want 2 for the german transcript", len(segs))
	}
	if segs[1].End != 120 {
		t.Errorf("duration changed on language switch: last End = %v, want 120", segs[1].End)
	}

	// cycling wraps back around
	m = press(t, m, key('l'))
	if m.Language() != "en" {
		t.Errorf("language after second cycle = %q, want en", m.Language())
	}
}

func TestManualSelectionAndResume(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if !m.ManualSync() {
		t.Fatalf("arrow key did not enter manual sync")
	}
	if m.Position().SegmentIndex != 0 {
		t.Fatalf("first selection = %d, want 0", m.Position().SegmentIndex)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	if m.Position().SegmentIndex != 1 {
		t.Fatalf("second selection = %d, want 1", m.Position().SegmentIndex)
	}

	m = press(t, m, key('s'))
	if m.ManualSync() {
		t.Errorf("s did not resume automatic sync")
	}
	if m.Position().SegmentIndex != 0 {
		t.Errorf("after resume at t=0, segment = %d, want 0", m.Position().SegmentIndex)
	}
}

func TestEnterSeeksToSelection(t *testing.T) {
	m, src := newTestModel(t)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	if len(src.seeks) == 0 {
		t.Fatalf("enter did not seek")
	}
	if got := src.seeks[len(src.seeks)-1]; got != 30 {
		t.Errorf("seek position = %v, want segment start 30", got)
	}
	if m.ManualSync() {
		t.Errorf("seeking the selection should hand sync back to the clock")
	}
}

func TestTrackChangeResegments(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, key('n'))

	if idx := m.engine.State().TrackIndex; idx != 1 {
		t.Fatalf("track index = %d, want 1", idx)
	}
	segs := m.Segments()
	if segs[len(segs)-1].End != 200 {
		t.Errorf("segments not rebuilt for new track: last End = %v, want 200",
			segs[len(segs)-1].End)
	}
}

func TestMetadataArrivalResegments(t *testing.T) {
	m, _ := newTestModel(t)

	updated, _ := m.Update(SourceEventMsg{
		Event: playback.Event{Kind: playback.EventMetadataLoaded, Duration: 90},
	})
	m = updated.(Model)

	segs := m.Segments()
	if segs[len(segs)-1].End != 90 {
		t.Errorf("segments not rebuilt for real duration: last End = %v, want 90",
			segs[len(segs)-1].End)
	}
}

func TestThemeCycle(t *testing.T) {
	m, _ := newTestModel(t)

	m = press(t, m, key('t'))
	if m.Settings().Theme != theme.Light {
		t.Errorf("theme after cycle = %q, want light", m.Settings().Theme)
	}
	if m.Palette().Name != theme.Light {
		t.Errorf("palette not switched: %q", m.Palette().Name)
	}
}

func TestDynamicThemeWithoutArtworkFallsBack(t *testing.T) {
	m, _ := newTestModel(t)

	// classic → light → midnight → sepia → dynamic
	for i := 0; i < 4; i++ {
		m = press(t, m, key('t'))
	}

	if m.Settings().Theme != theme.Dynamic {
		t.Fatalf("theme = %q, want dynamic", m.Settings().Theme)
	}
	if m.Palette().Name != theme.Classic {
		t.Errorf("dynamic without artwork should render classic, got %q", m.Palette().Name)
	}
}

func TestHighlightModeCycle(t *testing.T) {
	m, _ := newTestModel(t)

	want := []lyricsync.HighlightMode{
		lyricsync.HighlightWord,
		lyricsync.HighlightSmooth,
		lyricsync.HighlightLine,
	}
	for _, mode := range want {
		m = press(t, m, key('h'))
		if m.Settings().HighlightMode != mode {
			t.Fatalf("mode = %q, want %q", m.Settings().HighlightMode, mode)
		}
	}
}

func TestDisplayTogglesDoNotTouchPlayback(t *testing.T) {
	m, _ := newTestModel(t)
	before := m.engine.State()

	m = press(t, m, key('v'))
	m = press(t, m, key('a'))
	m = press(t, m, key('1'))
	m = press(t, m, key('t'))
	m = press(t, m, key('h'))

	if m.Settings().ShowVerseNumbers {
		t.Errorf("v did not toggle verse numbers off")
	}
	if m.Settings().AutoScroll {
		t.Errorf("a did not toggle auto-scroll off")
	}
	if m.Settings().FontSize != 1 {
		t.Errorf("FontSize = %d, want 1", m.Settings().FontSize)
	}

	after := m.engine.State()
	if before != after {
		t.Errorf("display settings changed playback state: %+v -> %+v", before, after)
	}
}

func TestCloseInvokesCallbackAndQuits(t *testing.T) {
	src := newFakeSource()
	engine := playback.NewEngine(testHymn().AudioFiles, src)

	closed := false
	m := NewModel(ModelConfig{
		Hymn:      testHymn(),
		Engine:    engine,
		Source:    src,
		Settings:  DefaultSettings(),
		Callbacks: Callbacks{OnClose: func() { closed = true }},
	})

	updated, cmd := m.Update(key('q'))
	m = updated.(Model)

	if !closed {
		t.Errorf("OnClose not invoked")
	}
	if !m.IsQuitting() {
		t.Errorf("model not quitting")
	}
	if cmd == nil {
		t.Errorf("expected a quit command")
	}
}

func TestShareAndLikeCallbacks(t *testing.T) {
	src := newFakeSource()
	engine := playback.NewEngine(testHymn().AudioFiles, src)

	shares, likes := 0, 0
	m := NewModel(ModelConfig{
		Hymn:     testHymn(),
		Engine:   engine,
		Source:   src,
		Settings: DefaultSettings(),
		Callbacks: Callbacks{
			OnShare:      func() { shares++ },
			OnToggleLike: func() { likes++ },
		},
	})

	m = press(t, m, key('S'))
	m = press(t, m, key('y'))
	m = press(t, m, key('y'))

	if shares != 1 || likes != 2 {
		t.Errorf("shares=%d likes=%d, want 1 and 2", shares, likes)
	}
}

func TestFullscreenToggleCallback(t *testing.T) {
	src := newFakeSource()
	engine := playback.NewEngine(testHymn().AudioFiles, src)

	var got []bool
	m := NewModel(ModelConfig{
		Hymn:     testHymn(),
		Engine:   engine,
		Source:   src,
		Settings: DefaultSettings(),
		Callbacks: Callbacks{
			OnFullscreenToggle: func(lyricOnly bool) { got = append(got, lyricOnly) },
		},
	})

	m = press(t, m, key('f'))
	if !m.LyricOnly() {
		t.Fatalf("f did not enter lyric-only view")
	}
	m = press(t, m, key('f'))

	if len(got) != 2 || !got[0] || got[1] {
		t.Errorf("callback sequence = %v, want [true false]", got)
	}
}

func TestEscapeExitsLyricOnlyBeforeClosing(t *testing.T) {
	src := newFakeSource()
	engine := playback.NewEngine(testHymn().AudioFiles, src)

	closed := false
	var toggles []bool
	m := NewModel(ModelConfig{
		Hymn:     testHymn(),
		Engine:   engine,
		Source:   src,
		Settings: DefaultSettings(),
		Callbacks: Callbacks{
			OnClose:            func() { closed = true },
			OnFullscreenToggle: func(lyricOnly bool) { toggles = append(toggles, lyricOnly) },
		},
	})

	m = press(t, m, key('f'))
	if !m.LyricOnly() {
		t.Fatalf("f did not enter lyric-only view")
	}

	// first escape only backs out of the lyric-only view
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if m.IsQuitting() || closed {
		t.Fatalf("escape closed the view instead of leaving lyric-only mode")
	}
	if m.LyricOnly() {
		t.Fatalf("escape did not leave lyric-only mode")
	}
	if len(toggles) != 2 || toggles[1] {
		t.Errorf("toggle callback sequence = %v, want [true false]", toggles)
	}

	// second escape closes
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEscape})
	if !m.IsQuitting() || !closed {
		t.Errorf("second escape did not close: quitting=%v closed=%v", m.IsQuitting(), closed)
	}
}

func TestTruncateRespectsRuneBoundaries(t *testing.T) {
	got := truncate("Größer als alles", 4)
	if got != "Grö…" {
		t.Errorf("truncate = %q, want %q", got, "Grö…")
	}
	if !utf8.ValidString(got) {
		t.Errorf("truncate produced invalid UTF-8: %q", got)
	}
	if s := truncate("kurz", 10); s != "kurz" {
		t.Errorf("short string altered: %q", s)
	}
}

// focusLinePadding renders a one-line transcript as the focus line and
// reports the leading padding, so centering can be compared across
// texts of equal rune count but different byte length.
func focusLinePadding(t *testing.T, line string) int {
	t.Helper()
	src := newFakeSource()
	h := &hymn.Hymn{
		ID:         "h",
		Title:      "t",
		Lyrics:     []hymn.LyricTranscript{{Language: "en", Content: line}},
		AudioFiles: []hymn.AudioTrack{{URL: "https://hymns.test/a.mp3", Duration: 60}},
	}
	engine := playback.NewEngine(h.AudioFiles, src)
	m := NewModel(ModelConfig{Hymn: h, Engine: engine, Source: src, Settings: DefaultSettings()})

	segs := m.Segments()
	if len(segs) != 1 {
		t.Fatalf("segment count = %d, want 1", len(segs))
	}
	rendered := m.renderFocusLine(segs[0], 60)
	return len(rendered) - len(strings.TrimLeft(rendered, " "))
}

func TestLyricCenteringMeasuresRunes(t *testing.T) {
	ascii := focusLinePadding(t, strings.Repeat("a", 12))
	umlaut := focusLinePadding(t, strings.Repeat("ä", 12))

	if ascii != umlaut {
		t.Errorf("padding differs for equal rune counts: ascii=%d umlaut=%d", ascii, umlaut)
	}
}
