// Package hymn defines the hymn record consumed by the playback and
// karaoke layers, matching the shape the hymn backend serves.
package hymn

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// AudioTrack is one playable rendition of a hymn. Immutable once loaded
// into a player session.
type AudioTrack struct {
	ID          string  `json:"id"`
	URL         string  `json:"url"`
	Filename    string  `json:"filename"`
	Description string  `json:"description"`
	Language    string  `json:"language"`
	Duration    float64 `json:"duration"`
	Format      string  `json:"format"`
}

// DisplayLabel prefers the human description, then the filename.
func (t AudioTrack) DisplayLabel() string {
	if t.Description != "" {
		return t.Description
	}
	if t.Filename != "" {
		return t.Filename
	}
	return t.URL
}

// LyricTranscript is the raw lyric text for one language. Lines are
// newline-separated; a blank line marks a verse break.
type LyricTranscript struct {
	Language string `json:"language"`
	Content  string `json:"content"`
}

func (l LyricTranscript) IsEmpty() bool {
	return strings.TrimSpace(l.Content) == ""
}

type Hymn struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Author     string            `json:"author"`
	Languages  []string          `json:"languages"`
	Lyrics     []LyricTranscript `json:"lyrics"`
	AudioFiles []AudioTrack      `json:"audioFiles"`
	CoverURL   string            `json:"coverUrl,omitempty"`
}

func (h *Hymn) IsValid() bool {
	return h != nil && h.Title != ""
}

func (h *Hymn) HasAudio() bool {
	return h != nil && len(h.AudioFiles) > 0
}

func (h *Hymn) HasLyrics() bool {
	if h == nil {
		return false
	}
	for _, l := range h.Lyrics {
		if !l.IsEmpty() {
			return true
		}
	}
	return false
}

// TranscriptFor returns the transcript for lang, or false when the hymn has
// no text in that language. An empty transcript is a valid answer; callers
// render a "no lyrics" state for it rather than an error.
func (h *Hymn) TranscriptFor(lang string) (LyricTranscript, bool) {
	if h == nil {
		return LyricTranscript{}, false
	}
	for _, l := range h.Lyrics {
		if strings.EqualFold(l.Language, lang) {
			return l, true
		}
	}
	return LyricTranscript{}, false
}

// LyricLanguages lists the languages that actually carry lyric text,
// preserving server order.
func (h *Hymn) LyricLanguages() []string {
	if h == nil {
		return nil
	}
	var langs []string
	for _, l := range h.Lyrics {
		if !l.IsEmpty() {
			langs = append(langs, l.Language)
		}
	}
	return langs
}

// DefaultLanguage picks the first language with lyrics, falling back to the
// declared language list for lyric-less hymns.
func (h *Hymn) DefaultLanguage() string {
	if langs := h.LyricLanguages(); len(langs) > 0 {
		return langs[0]
	}
	if h != nil && len(h.Languages) > 0 {
		return h.Languages[0]
	}
	return ""
}

// Decode parses a hymn payload and normalizes it: tracks without an id get
// one assigned so player sessions can address them.
func Decode(data []byte) (*Hymn, error) {
	var h Hymn
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("failed to decode hymn payload: %w", err)
	}

	if !h.IsValid() {
		return nil, fmt.Errorf("hymn payload missing title")
	}

	for i := range h.AudioFiles {
		if h.AudioFiles[i].ID == "" {
			h.AudioFiles[i].ID = uuid.NewString()
		}
	}

	return &h, nil
}
