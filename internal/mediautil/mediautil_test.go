package mediautil

import (
	"errors"
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{65, "1:05"},
		{3600, "60:00"},
		{59.9, "0:59"},
		{240, "4:00"},
		{-12, "0:00"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
	}

	for _, c := range cases {
		got := FormatDuration(c.in)
		if got != c.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeFormat(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"audio/mpeg", "mp3"},
		{"audio/ogg", "ogg"},
		{"hymn-042.MP3", "mp3"},
		{"amazing_grace.flac", "flac"},
		{".wav", "wav"},
		{"opus", "opus"},
		{"video/mp4", ""},
		{"", ""},
		{"notes.txt", ""},
	}

	for _, c := range cases {
		got := NormalizeFormat(c.in)
		if got != c.want {
			t.Errorf("NormalizeFormat(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestFormatName(t *testing.T) {
	if got := FormatName("audio/mpeg"); got != "MP3 Audio" {
		t.Errorf("FormatName(audio/mpeg) = %q", got)
	}
	if got := FormatName("song.ogg"); got != "Ogg Vorbis" {
		t.Errorf("FormatName(song.ogg) = %q", got)
	}
	if got := FormatName("mystery.bin"); got != "Audio" {
		t.Errorf("FormatName fallback = %q, want Audio", got)
	}
}

func TestValidateAsset_Format(t *testing.T) {
	limits := DefaultLimits()

	err := ValidateAsset(AssetInfo{Filename: "sermon.pdf", SizeBytes: 100}, limits)
	if !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("expected ErrInvalidFormat, got %v", err)
	}

	err = ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: 100}, limits)
	if err != nil {
		t.Errorf("valid mp3 rejected: %v", err)
	}

	// content type wins over a misleading filename
	err = ValidateAsset(AssetInfo{Filename: "upload.tmp", ContentType: "audio/flac", SizeBytes: 100}, limits)
	if err != nil {
		t.Errorf("flac by content type rejected: %v", err)
	}
}

func TestValidateAsset_Size(t *testing.T) {
	limits := DefaultLimits()

	err := ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: limits.MaxFileSize + 1}, limits)
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}

	err = ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: limits.MaxFileSize}, limits)
	if err != nil {
		t.Errorf("file at the limit rejected: %v", err)
	}
}

func TestValidateAsset_Duration(t *testing.T) {
	limits := DefaultLimits()

	// unknown duration is not checked
	err := ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: 1}, limits)
	if err != nil {
		t.Errorf("unknown duration rejected: %v", err)
	}

	err = ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: 1, DurationSeconds: 2}, limits)
	if !errors.Is(err, ErrTooShort) {
		t.Errorf("expected ErrTooShort, got %v", err)
	}

	err = ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: 1, DurationSeconds: 16 * 60}, limits)
	if !errors.Is(err, ErrTooLong) {
		t.Errorf("expected ErrTooLong, got %v", err)
	}

	err = ValidateAsset(AssetInfo{Filename: "hymn.mp3", SizeBytes: 1, DurationSeconds: 240}, limits)
	if err != nil {
		t.Errorf("duration in range rejected: %v", err)
	}
}

func TestFormatFileSize(t *testing.T) {
	if got := FormatFileSize(-5); got != "0 B" {
		t.Errorf("FormatFileSize(-5) = %q, want 0 B", got)
	}
	if got := FormatFileSize(0); got != "0 B" {
		t.Errorf("FormatFileSize(0) = %q, want 0 B", got)
	}
}
