package playback

// EventKind enumerates the notifications an audio source delivers. They
// mirror the media-element events the engine reacts to: playback started,
// paused, clock ticks, metadata (real duration) loaded, natural end, and
// load/decode failure.
type EventKind int

const (
	EventPlay EventKind = iota
	EventPause
	EventTimeUpdate
	EventMetadataLoaded
	EventEnded
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	case EventTimeUpdate:
		return "timeupdate"
	case EventMetadataLoaded:
		return "loadedmetadata"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

type Event struct {
	Kind     EventKind
	Time     float64
	Duration float64
	Err      error
}

// Source abstracts the native audio backend. The engine only requests
// changes; the source reports what actually happened through Events.
// Implementations must never block in their control methods.
type Source interface {
	// Load points the source at a new audio URL and resets its clock.
	Load(url string) error
	// Play requests playback. A source may refuse (e.g. the host's
	// autoplay policy); the error is absorbed by the engine as state.
	Play() error
	Pause() error
	// Seek jumps the source clock to the given position in seconds.
	Seek(seconds float64) error
	// SetVolume applies a gain in [0,1].
	SetVolume(v float64) error
	// Events delivers source notifications. The channel is owned by the
	// source and closed by Close.
	Events() <-chan Event
	Close() error
}
