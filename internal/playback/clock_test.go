package playback

import (
	"testing"
	"time"
)

func TestClockSourceRunsToEnd(t *testing.T) {
	src := NewClockSource(func(string) float64 { return 0.3 })
	defer src.Close()

	if err := src.Load("silent://hymn"); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := src.Play(); err != nil {
		t.Fatalf("Play: %v", err)
	}

	deadline := time.After(3 * time.Second)
	var sawMetadata, sawTick, sawEnded bool
	var lastTime float64

	for !sawEnded {
		select {
		case ev := <-src.Events():
			switch ev.Kind {
			case EventMetadataLoaded:
				sawMetadata = true
				if ev.Duration != 0.3 {
					t.Errorf("metadata duration = %v, want 0.3", ev.Duration)
				}
			case EventTimeUpdate:
				sawTick = true
				if ev.Time < lastTime {
					t.Errorf("clock ran backwards: %v after %v", ev.Time, lastTime)
				}
				lastTime = ev.Time
			case EventEnded:
				sawEnded = true
			}
		case <-deadline:
			t.Fatalf("no ended event (metadata=%v tick=%v last=%v)", sawMetadata, sawTick, lastTime)
		}
	}

	if !sawMetadata || !sawTick {
		t.Errorf("missing events: metadata=%v tick=%v", sawMetadata, sawTick)
	}
	if lastTime != 0.3 {
		t.Errorf("final tick = %v, want clamped to 0.3", lastTime)
	}
}

func TestClockSourcePauseStopsClock(t *testing.T) {
	src := NewClockSource(func(string) float64 { return 60 })
	defer src.Close()

	_ = src.Load("silent://hymn")
	_ = src.Play()
	time.Sleep(250 * time.Millisecond)
	_ = src.Pause()

	// drain anything emitted before the pause settled
	time.Sleep(150 * time.Millisecond)
	for {
		select {
		case <-src.Events():
			continue
		default:
		}
		break
	}

	select {
	case ev := <-src.Events():
		if ev.Kind == EventTimeUpdate {
			t.Errorf("clock still ticking after pause: %+v", ev)
		}
	case <-time.After(300 * time.Millisecond):
	}
}
