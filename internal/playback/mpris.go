package playback

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	propertiesIface  = "org.freedesktop.DBus.Properties"

	mprisPollInterval = 100 * time.Millisecond
)

// MPRISSource adapts an MPRIS-capable system player (mpv, vlc, …) into a
// Source. Control calls go over the session bus; the playback clock comes
// from position polling plus PropertiesChanged/Seeked signals, the same
// way the bus exposes it to any other client.
type MPRISSource struct {
	bus     *dbus.Conn
	service string

	mu           sync.Mutex
	lastStatus   string
	lastDuration float64

	signals chan *dbus.Signal
	events  chan Event
	stop    chan struct{}
	once    sync.Once
}

func NewMPRISSource(bus *dbus.Conn, service string) (*MPRISSource, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if service == "" {
		return nil, errors.New("empty mpris service name")
	}

	s := &MPRISSource{
		bus:     bus,
		service: service,
		signals: make(chan *dbus.Signal, 16),
		events:  make(chan Event, 32),
		stop:    make(chan struct{}),
	}

	s.bus.Signal(s.signals)

	matches := []string{
		fmt.Sprintf("type='signal',sender='%s',interface='%s',member='PropertiesChanged',path='%s'",
			service, propertiesIface, mprisPath),
		fmt.Sprintf("type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
			service, mprisPlayerIface, mprisPath),
	}
	for _, match := range matches {
		call := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, match)
		if call.Err != nil {
			return nil, fmt.Errorf("failed to add dbus match: %w", call.Err)
		}
	}

	go s.loop()

	return s, nil
}

func (s *MPRISSource) player() dbus.BusObject {
	return s.bus.Object(s.service, mprisPath)
}

func (s *MPRISSource) Load(url string) error {
	call := s.player().Call(mprisPlayerIface+".OpenUri", 0, url)
	if call.Err != nil {
		return fmt.Errorf("mpris OpenUri failed: %w", call.Err)
	}
	return nil
}

func (s *MPRISSource) Play() error {
	call := s.player().Call(mprisPlayerIface+".Play", 0)
	if call.Err != nil {
		return fmt.Errorf("mpris Play failed: %w", call.Err)
	}
	return nil
}

func (s *MPRISSource) Pause() error {
	call := s.player().Call(mprisPlayerIface+".Pause", 0)
	if call.Err != nil {
		return fmt.Errorf("mpris Pause failed: %w", call.Err)
	}
	return nil
}

// Seek computes the delta from the player's reported position; MPRIS has
// no absolute seek without a track id.
func (s *MPRISSource) Seek(seconds float64) error {
	current, err := s.position()
	if err != nil {
		return err
	}

	offsetMicros := int64((seconds - current) * 1e6)
	call := s.player().Call(mprisPlayerIface+".Seek", 0, offsetMicros)
	if call.Err != nil {
		return fmt.Errorf("mpris Seek failed: %w", call.Err)
	}
	return nil
}

func (s *MPRISSource) SetVolume(v float64) error {
	err := s.player().SetProperty(mprisPlayerIface+".Volume", dbus.MakeVariant(v))
	if err != nil {
		return fmt.Errorf("mpris Volume set failed: %w", err)
	}
	return nil
}

func (s *MPRISSource) Events() <-chan Event { return s.events }

func (s *MPRISSource) Close() error {
	s.once.Do(func() {
		close(s.stop)
		s.bus.RemoveSignal(s.signals)
	})
	return nil
}

func (s *MPRISSource) position() (float64, error) {
	prop, err := s.player().GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to read mpris position: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok || micros < 0 {
		return 0, nil
	}
	return float64(micros) / 1e6, nil
}

func (s *MPRISSource) loop() {
	ticker := time.NewTicker(mprisPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			close(s.events)
			return
		case sig, ok := <-s.signals:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-ticker.C:
			s.poll()
		}
	}
}

func (s *MPRISSource) poll() {
	pos, err := s.position()
	if err != nil {
		s.emit(Event{Kind: EventError, Err: err})
		return
	}
	s.emit(Event{Kind: EventTimeUpdate, Time: pos})
}

func (s *MPRISSource) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	switch sig.Name {
	case propertiesIface + ".PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case mprisPlayerIface + ".Seeked":
		s.handleSeeked(sig)
	}
}

func (s *MPRISSource) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	iface, ok := sig.Body[0].(string)
	if !ok || iface != mprisPlayerIface {
		return
	}

	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	if metadataVariant, exists := changed["Metadata"]; exists {
		if metadata, ok := metadataVariant.Value().(map[string]dbus.Variant); ok {
			if duration := durationSecondsFromMetadata(metadata); duration > 0 {
				s.mu.Lock()
				s.lastDuration = duration
				s.mu.Unlock()
				s.emit(Event{Kind: EventMetadataLoaded, Duration: duration})
			}
		}
	}

	if statusVariant, exists := changed["PlaybackStatus"]; exists {
		status, ok := statusVariant.Value().(string)
		if !ok {
			return
		}

		s.mu.Lock()
		previous := s.lastStatus
		s.lastStatus = status
		s.mu.Unlock()

		switch status {
		case "Playing":
			s.emit(Event{Kind: EventPlay})
		case "Paused":
			s.emit(Event{Kind: EventPause})
		case "Stopped":
			// a stop after playing is the closest MPRIS gets to "ended"
			if previous == "Playing" {
				s.emit(Event{Kind: EventEnded})
			}
		}
	}
}

func (s *MPRISSource) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	micros, ok := sig.Body[0].(int64)
	if !ok || micros < 0 {
		return
	}
	s.emit(Event{Kind: EventTimeUpdate, Time: float64(micros) / 1e6})
}

func durationSecondsFromMetadata(metadata map[string]dbus.Variant) float64 {
	variant, exists := metadata["mpris:length"]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		if typed <= 0 {
			return 0
		}
		return float64(typed) / 1e6
	case uint64:
		return float64(typed) / 1e6
	default:
		return 0
	}
}

func (s *MPRISSource) emit(ev Event) {
	select {
	case s.events <- ev:
	default:
	}
}
