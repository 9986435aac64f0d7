// Package mediautil holds pure helpers for audio asset validation and
// human-readable formatting of durations, sizes and format names.
package mediautil

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
)

var (
	ErrInvalidFormat = errors.New("audio format not supported")
	ErrTooLarge      = errors.New("file exceeds maximum size")
	ErrTooShort      = errors.New("audio shorter than minimum duration")
	ErrTooLong       = errors.New("audio longer than maximum duration")
)

// AssetInfo describes a raw audio file before upload. DurationSeconds is 0
// until the audio source has reported real metadata.
type AssetInfo struct {
	Filename        string
	ContentType     string
	SizeBytes       int64
	DurationSeconds float64
}

type Limits struct {
	MaxFileSize    int64
	MinDuration    float64
	MaxDuration    float64
	AllowedFormats []string
}

func DefaultLimits() Limits {
	return Limits{
		MaxFileSize:    25 * 1024 * 1024,
		MinDuration:    5,
		MaxDuration:    15 * 60,
		AllowedFormats: []string{"mp3", "wav", "ogg", "opus", "m4a", "aac", "flac", "webm"},
	}
}

var contentTypeFormats = map[string]string{
	"audio/mpeg":   "mp3",
	"audio/mp3":    "mp3",
	"audio/wav":    "wav",
	"audio/x-wav":  "wav",
	"audio/wave":   "wav",
	"audio/ogg":    "ogg",
	"audio/opus":   "opus",
	"audio/mp4":    "m4a",
	"audio/aac":    "aac",
	"audio/flac":   "flac",
	"audio/x-flac": "flac",
	"audio/webm":   "webm",
}

var formatDisplayNames = map[string]string{
	"mp3":  "MP3 Audio",
	"wav":  "WAV Audio",
	"ogg":  "Ogg Vorbis",
	"opus": "Opus Audio",
	"m4a":  "MPEG-4 Audio",
	"aac":  "AAC Audio",
	"flac": "FLAC Lossless",
	"webm": "WebM Audio",
}

// NormalizeFormat resolves a MIME type, file extension or bare format token
// into a canonical lowercase format name. Returns "" when unrecognized.
func NormalizeFormat(formatOrFilename string) string {
	s := strings.ToLower(strings.TrimSpace(formatOrFilename))
	if s == "" {
		return ""
	}

	if mapped, ok := contentTypeFormats[s]; ok {
		return mapped
	}

	if strings.Contains(s, ".") {
		s = strings.TrimPrefix(filepath.Ext(s), ".")
	}
	s = strings.TrimPrefix(s, ".")

	if _, ok := formatDisplayNames[s]; ok {
		return s
	}
	return ""
}

// FormatName maps a MIME type, extension or filename to a display name.
// Unknown inputs come back as "Audio".
func FormatName(formatOrFilename string) string {
	if name, ok := formatDisplayNames[NormalizeFormat(formatOrFilename)]; ok {
		return name
	}
	return "Audio"
}

// ValidateAsset checks an asset against limits. Format and size are always
// checked; duration only once it is known (non-zero).
func ValidateAsset(a AssetInfo, limits Limits) error {
	format := NormalizeFormat(a.ContentType)
	if format == "" {
		format = NormalizeFormat(a.Filename)
	}
	if !formatAllowed(format, limits.AllowedFormats) {
		return fmt.Errorf("%w: %q", ErrInvalidFormat, a.Filename)
	}

	if limits.MaxFileSize > 0 && a.SizeBytes > limits.MaxFileSize {
		return fmt.Errorf("%w: %s > %s", ErrTooLarge,
			FormatFileSize(a.SizeBytes), FormatFileSize(limits.MaxFileSize))
	}

	if a.DurationSeconds > 0 {
		if limits.MinDuration > 0 && a.DurationSeconds < limits.MinDuration {
			return fmt.Errorf("%w: %s", ErrTooShort, FormatDuration(a.DurationSeconds))
		}
		if limits.MaxDuration > 0 && a.DurationSeconds > limits.MaxDuration {
			return fmt.Errorf("%w: %s", ErrTooLong, FormatDuration(a.DurationSeconds))
		}
	}

	return nil
}

func formatAllowed(format string, allowed []string) bool {
	if format == "" {
		return false
	}
	for _, f := range allowed {
		if format == f {
			return true
		}
	}
	return false
}

// FormatDuration renders seconds as "m:ss". NaN, Inf and negative input
// produce the "0:00" placeholder instead of garbage.
func FormatDuration(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return "0:00"
	}

	total := int64(seconds)
	minutes := total / 60
	secs := total % 60

	return fmt.Sprintf("%d:%02d", minutes, secs)
}

func FormatFileSize(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.Bytes(uint64(bytes))
}
