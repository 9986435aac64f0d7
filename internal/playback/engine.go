// Package playback owns the per-session playback state machine: current
// track, transport phase, clock, volume and loop flag. It is the single
// writer of that state; hosts request changes through its operations and
// observe the result, never assigning state directly.
package playback

import (
	"time"

	"go.uber.org/zap"

	"github.com/psalterhq/psalter/internal/hymn"
)

// Phase is the transport state of the machine.
type Phase int

const (
	// Idle: no track loaded.
	Idle Phase = iota
	// Ready: track loaded, paused at time 0.
	Ready
	Playing
	Paused
	// Ended: the last track finished with looping off.
	Ended
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Ready:
		return "ready"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	case Ended:
		return "ended"
	default:
		return "unknown"
	}
}

// State is a snapshot of the machine. CurrentTime stays within
// [0, Duration] except transiently during a seek; TrackIndex stays within
// the track list whenever it is non-empty.
type State struct {
	Phase       Phase
	TrackIndex  int
	CurrentTime float64
	Duration    float64
	Volume      float64
	Muted       bool
	Looping     bool
}

func (s State) IsPlaying() bool { return s.Phase == Playing }

// Observer is notified synchronously after every settled state change, so
// the sync controller and host UI stay consistent without polling.
type Observer func(isPlaying bool, currentTime float64)

// seekGuardWindow suppresses source time updates for a short window after
// an engine-issued seek, so the engine's own jump is not mistaken for an
// external one and stale pre-seek ticks cannot roll the clock back.
const seekGuardWindow = 100 * time.Millisecond

const defaultVolume = 1.0

// Engine drives one Source through the track list of a hymn. All methods
// must be called from the owning event loop; source events are delivered
// by that same loop via HandleEvent.
type Engine struct {
	tracks   []hymn.AudioTrack
	source   Source
	observer Observer
	log      *zap.Logger

	state      State
	lastVolume float64
	guardUntil time.Time
	now        func() time.Time
}

type EngineOption func(*Engine)

func WithObserver(fn Observer) EngineOption {
	return func(e *Engine) { e.observer = fn }
}

func WithEngineLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// NewEngine builds the machine and, when tracks exist, loads the first one
// (Idle → Ready). A failed initial load leaves the engine Idle with the
// error absorbed; a hymn with lyrics but no working audio must still
// display.
func NewEngine(tracks []hymn.AudioTrack, source Source, opts ...EngineOption) *Engine {
	e := &Engine{
		tracks: tracks,
		source: source,
		log:    zap.NewNop(),
		now:    time.Now,
		state: State{
			Phase:  Idle,
			Volume: defaultVolume,
		},
		lastVolume: defaultVolume,
	}
	for _, opt := range opts {
		opt(e)
	}

	if len(tracks) > 0 {
		e.loadTrack(0)
	}

	return e
}

// State returns a copy; the engine remains the only writer.
func (e *Engine) State() State { return e.state }

func (e *Engine) CurrentTrack() (hymn.AudioTrack, bool) {
	if e.state.Phase == Idle || e.state.TrackIndex >= len(e.tracks) {
		return hymn.AudioTrack{}, false
	}
	return e.tracks[e.state.TrackIndex], true
}

func (e *Engine) TrackCount() int { return len(e.tracks) }

// Play requests playback. No-op when already playing or nothing is loaded.
// A refusal from the source (autoplay policy) leaves the machine Paused
// rather than propagating an exception.
func (e *Engine) Play() {
	switch e.state.Phase {
	case Idle, Playing:
		return
	case Ended:
		// replaying a finished hymn starts its current track over
		e.state.CurrentTime = 0
		e.guardUntil = e.now().Add(seekGuardWindow)
		_ = e.source.Seek(0)
	}

	if err := e.source.Play(); err != nil {
		e.log.Warn("playback blocked", zap.Error(err))
		e.state.Phase = Paused
		e.notify()
		return
	}

	e.state.Phase = Playing
	e.notify()
}

// Pause is always safe.
func (e *Engine) Pause() {
	if e.state.Phase != Playing {
		return
	}
	_ = e.source.Pause()
	e.state.Phase = Paused
	e.notify()
}

func (e *Engine) TogglePlay() {
	if e.state.Phase == Playing {
		e.Pause()
	} else {
		e.Play()
	}
}

// Seek clamps to [0, duration], updates CurrentTime immediately for UI
// responsiveness, instructs the source, and opens the self-seek guard.
func (e *Engine) Seek(seconds float64) {
	if e.state.Phase == Idle {
		return
	}

	if seconds < 0 {
		seconds = 0
	}
	if e.state.Duration > 0 && seconds > e.state.Duration {
		seconds = e.state.Duration
	}

	e.state.CurrentTime = seconds
	e.guardUntil = e.now().Add(seekGuardWindow)

	if err := e.source.Seek(seconds); err != nil {
		e.log.Warn("seek failed", zap.Float64("seconds", seconds), zap.Error(err))
	}

	if e.state.Phase == Ended {
		e.state.Phase = Paused
	}
	e.notify()
}

// SetVolume clamps to [0,1]. Volume zero silences without flipping the
// mute flag; any audible volume is remembered for unmute restoration.
func (e *Engine) SetVolume(v float64) {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}

	e.state.Volume = v
	if v > 0 {
		e.lastVolume = v
	}

	if !e.state.Muted {
		_ = e.source.SetVolume(v)
	}
	e.notify()
}

func (e *Engine) ToggleMute() {
	if e.state.Muted {
		e.state.Muted = false
		if e.state.Volume == 0 {
			e.state.Volume = e.lastVolume
		}
		_ = e.source.SetVolume(e.state.Volume)
	} else {
		e.state.Muted = true
		_ = e.source.SetVolume(0)
	}
	e.notify()
}

func (e *Engine) ToggleLoop() {
	e.state.Looping = !e.state.Looping
	e.notify()
}

// NextTrack advances to the next track; no-op on the last one. The clock
// resets before the new source starts loading so a stale time is never
// shown against the new track's lyrics.
func (e *Engine) NextTrack() {
	if e.state.Phase == Idle || e.state.TrackIndex >= len(e.tracks)-1 {
		return
	}
	wasPlaying := e.state.Phase == Playing
	e.loadTrack(e.state.TrackIndex + 1)
	if wasPlaying {
		e.Play()
	} else {
		e.notify()
	}
}

// PreviousTrack is the mirror of NextTrack; no-op at index 0.
func (e *Engine) PreviousTrack() {
	if e.state.Phase == Idle || e.state.TrackIndex <= 0 {
		return
	}
	wasPlaying := e.state.Phase == Playing
	e.loadTrack(e.state.TrackIndex - 1)
	if wasPlaying {
		e.Play()
	} else {
		e.notify()
	}
}

// HandleEvent feeds one source notification into the machine. The owning
// event loop serializes these with the operation calls above.
func (e *Engine) HandleEvent(ev Event) {
	switch ev.Kind {
	case EventTimeUpdate:
		if e.now().Before(e.guardUntil) {
			// self-seek guard: drop ticks that predate our own jump
			return
		}
		e.state.CurrentTime = ev.Time
		if e.state.Duration > 0 && e.state.CurrentTime > e.state.Duration {
			e.state.CurrentTime = e.state.Duration
		}
		e.notify()

	case EventMetadataLoaded:
		if ev.Duration > 0 {
			e.state.Duration = ev.Duration
			e.notify()
		}

	case EventPlay:
		if e.state.Phase == Ready || e.state.Phase == Paused {
			e.state.Phase = Playing
			e.notify()
		}

	case EventPause:
		if e.state.Phase == Playing {
			e.state.Phase = Paused
			e.notify()
		}

	case EventEnded:
		e.handleEnded()

	case EventError:
		// a failed track is surfaced by the host; the machine just stops
		// advancing, lyric display keeps working
		e.log.Warn("track failed", zap.Int("track", e.state.TrackIndex), zap.Error(ev.Err))
		if e.state.Phase == Playing {
			e.state.Phase = Paused
			e.notify()
		}
	}
}

// handleEnded implements natural-end behavior: loop restarts the same
// track playing; otherwise auto-advance; on the last track stop at the
// end with the index unchanged.
func (e *Engine) handleEnded() {
	if e.state.Looping {
		e.state.CurrentTime = 0
		e.guardUntil = e.now().Add(seekGuardWindow)
		_ = e.source.Seek(0)
		if err := e.source.Play(); err != nil {
			e.state.Phase = Paused
			e.notify()
			return
		}
		e.state.Phase = Playing
		e.notify()
		return
	}

	if e.state.TrackIndex < len(e.tracks)-1 {
		e.loadTrack(e.state.TrackIndex + 1)
		e.Play()
		return
	}

	e.state.Phase = Ended
	if e.state.Duration > 0 {
		e.state.CurrentTime = e.state.Duration
	}
	e.notify()
}

// loadTrack resets the clock, then points the source at the track. Nominal
// duration from the hymn record is used until the source reports the real
// one.
func (e *Engine) loadTrack(index int) {
	track := e.tracks[index]

	e.state.TrackIndex = index
	e.state.CurrentTime = 0
	e.state.Duration = track.Duration
	e.guardUntil = e.now().Add(seekGuardWindow)

	if err := e.source.Load(track.URL); err != nil {
		e.log.Warn("track load failed", zap.Int("track", index), zap.Error(err))
		if e.state.Phase == Idle {
			return
		}
		e.state.Phase = Paused
		return
	}

	e.state.Phase = Ready

	volume := e.state.Volume
	if e.state.Muted {
		volume = 0
	}
	_ = e.source.SetVolume(volume)
}

// Close tears the source down. Safe to call once the owning loop exits.
func (e *Engine) Close() error {
	if e.source == nil {
		return nil
	}
	return e.source.Close()
}

func (e *Engine) notify() {
	if e.observer != nil {
		e.observer(e.state.Phase == Playing, e.state.CurrentTime)
	}
}
