package hymn

import (
	"testing"
)

const samplePayload = `{
	"id": "hymn-23",
	"title": "Abide With Me",
	"author": "Henry Francis Lyte",
	"languages": ["en", "sw"],
	"lyrics": [
		{"language": "en", "content": "Abide with me\nFast falls the eventide"},
		{"language": "sw", "content": ""}
	],
	"audioFiles": [
		{"id": "t1", "url": "https://cdn.test/abide.mp3", "duration": 245.5, "format": "audio/mpeg"},
		{"url": "https://cdn.test/abide-organ.ogg", "description": "Organ", "duration": 260}
	],
	"coverUrl": "https://cdn.test/abide.jpg"
}`

func TestDecode(t *testing.T) {
	h, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if h.Title != "Abide With Me" || h.Author != "Henry Francis Lyte" {
		t.Errorf("metadata = %q / %q", h.Title, h.Author)
	}
	if len(h.AudioFiles) != 2 || len(h.Lyrics) != 2 {
		t.Fatalf("got %d tracks, %d transcripts", len(h.AudioFiles), len(h.Lyrics))
	}
	if h.AudioFiles[0].ID != "t1" {
		t.Errorf("explicit track id overwritten: %q", h.AudioFiles[0].ID)
	}
	if h.AudioFiles[1].ID == "" {
		t.Errorf("track without id was not assigned one")
	}
}

func TestDecodeRejectsBadPayloads(t *testing.T) {
	cases := []struct {
		name    string
		payload string
	}{
		{"not json", "<html>error</html>"},
		{"missing title", `{"id": "x", "audioFiles": []}`},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if _, err := Decode([]byte(c.payload)); err == nil {
				t.Errorf("Decode accepted %s", c.name)
			}
		})
	}
}

func TestTranscriptFor(t *testing.T) {
	h, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := h.TranscriptFor("EN"); !ok {
		t.Errorf("language match should be case-insensitive")
	}
	if tr, ok := h.TranscriptFor("sw"); !ok || !tr.IsEmpty() {
		t.Errorf("empty transcript should still be found: ok=%v empty=%v", ok, tr.IsEmpty())
	}
	if _, ok := h.TranscriptFor("fr"); ok {
		t.Errorf("absent language reported present")
	}
}

func TestDefaultLanguage(t *testing.T) {
	h, err := Decode([]byte(samplePayload))
	if err != nil {
		t.Fatal(err)
	}

	// sw has an empty transcript, so en is the only lyric language
	if got := h.DefaultLanguage(); got != "en" {
		t.Errorf("DefaultLanguage = %q, want en", got)
	}
	if langs := h.LyricLanguages(); len(langs) != 1 || langs[0] != "en" {
		t.Errorf("LyricLanguages = %v, want [en]", langs)
	}

	lyricless := &Hymn{Title: "Tune Only", Languages: []string{"la"}}
	if got := lyricless.DefaultLanguage(); got != "la" {
		t.Errorf("lyric-less DefaultLanguage = %q, want la", got)
	}
}

func TestTrackDisplayLabel(t *testing.T) {
	cases := []struct {
		track AudioTrack
		want  string
	}{
		{AudioTrack{Description: "Choir", Filename: "a.mp3", URL: "u"}, "Choir"},
		{AudioTrack{Filename: "a.mp3", URL: "u"}, "a.mp3"},
		{AudioTrack{URL: "u"}, "u"},
	}

	for _, c := range cases {
		if got := c.track.DisplayLabel(); got != c.want {
			t.Errorf("DisplayLabel = %q, want %q", got, c.want)
		}
	}
}
