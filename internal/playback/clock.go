package playback

import (
	"sync"
	"time"
)

const clockTickInterval = 100 * time.Millisecond

// ClockSource is a silent audio source driven by a wall-clock ticker. It
// backs lyric-only hymns (no audio yet, text still scrolls) and makes the
// engine testable without a real player.
type ClockSource struct {
	// DurationFor resolves a loaded URL to its track length in seconds.
	// A nil func or zero result leaves the duration to the hymn record.
	durationFor func(url string) float64

	mu       sync.Mutex
	position float64
	duration float64
	playing  bool

	events chan Event
	stop   chan struct{}
	once   sync.Once
}

func NewClockSource(durationFor func(url string) float64) *ClockSource {
	s := &ClockSource{
		durationFor: durationFor,
		events:      make(chan Event, 32),
		stop:        make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *ClockSource) Load(url string) error {
	s.mu.Lock()
	s.position = 0
	s.playing = false
	s.duration = 0
	if s.durationFor != nil {
		s.duration = s.durationFor(url)
	}
	duration := s.duration
	s.mu.Unlock()

	if duration > 0 {
		s.emit(Event{Kind: EventMetadataLoaded, Duration: duration})
	}
	return nil
}

func (s *ClockSource) Play() error {
	s.mu.Lock()
	s.playing = true
	s.mu.Unlock()
	s.emit(Event{Kind: EventPlay})
	return nil
}

func (s *ClockSource) Pause() error {
	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	s.emit(Event{Kind: EventPause})
	return nil
}

func (s *ClockSource) Seek(seconds float64) error {
	s.mu.Lock()
	if seconds < 0 {
		seconds = 0
	}
	if s.duration > 0 && seconds > s.duration {
		seconds = s.duration
	}
	s.position = seconds
	s.mu.Unlock()
	return nil
}

// SetVolume is accepted and ignored; a clock has nothing to attenuate.
func (s *ClockSource) SetVolume(float64) error { return nil }

func (s *ClockSource) Events() <-chan Event { return s.events }

func (s *ClockSource) Close() error {
	s.once.Do(func() { close(s.stop) })
	return nil
}

func (s *ClockSource) run() {
	ticker := time.NewTicker(clockTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			close(s.events)
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *ClockSource) tick() {
	s.mu.Lock()
	if !s.playing {
		s.mu.Unlock()
		return
	}

	s.position += clockTickInterval.Seconds()
	ended := s.duration > 0 && s.position >= s.duration
	if ended {
		s.position = s.duration
		s.playing = false
	}
	position := s.position
	s.mu.Unlock()

	s.emit(Event{Kind: EventTimeUpdate, Time: position})
	if ended {
		s.emit(Event{Kind: EventEnded})
	}
}

// emit drops events when the consumer lags; the next tick carries fresher
// state anyway.
func (s *ClockSource) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
