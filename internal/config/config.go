// Package config loads psalter settings: compiled defaults, overridden by
// an optional toml file, overridden by PSALTER_* environment variables.
// Command-line flags layer on top in cmd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	DefaultSourceURL    = "https://hymns.psalter.app/api/hymns"
	DefaultMprisService = "org.mpris.MediaPlayer2.mpv"
	DefaultPollInterval = 100 * time.Millisecond

	// Player and karaoke contexts assume different nominal track lengths
	// until real audio metadata loads.
	DefaultPlayerFallbackDuration  = 180.0
	DefaultKaraokeFallbackDuration = 240.0

	configDirName  = "psalter"
	configFileName = "config.toml"
)

type LogConfig struct {
	Level      string `toml:"level"`
	Path       string `toml:"path"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

type Config struct {
	SourceURL    string `toml:"source_url"`
	MprisService string `toml:"mpris_service"`
	NoAudio      bool   `toml:"no_audio"`
	NoCache      bool   `toml:"no_cache"`

	Theme         string `toml:"theme"`
	HighlightMode string `toml:"highlight_mode"`

	PlayerFallbackDuration  float64 `toml:"player_fallback_duration"`
	KaraokeFallbackDuration float64 `toml:"karaoke_fallback_duration"`

	Log LogConfig `toml:"log"`
}

func defaults() *Config {
	return &Config{
		SourceURL:               DefaultSourceURL,
		MprisService:            DefaultMprisService,
		Theme:                   "classic",
		HighlightMode:           "line",
		PlayerFallbackDuration:  DefaultPlayerFallbackDuration,
		KaraokeFallbackDuration: DefaultKaraokeFallbackDuration,
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// Load builds the effective config. A missing file is fine; a malformed
// one is an error the user should see rather than silently lose settings.
func Load() (*Config, error) {
	cfg := defaults()

	path, err := configFilePath()
	if err == nil {
		if data, readErr := os.ReadFile(path); readErr == nil {
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func configFilePath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, configDirName, configFileName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", configDirName, configFileName), nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PSALTER_SOURCE_URL"); v != "" {
		cfg.SourceURL = v
	}
	if v := os.Getenv("PSALTER_MPRIS_SERVICE"); v != "" {
		cfg.MprisService = v
	}
	if v := os.Getenv("PSALTER_THEME"); v != "" {
		cfg.Theme = v
	}
	if v := os.Getenv("PSALTER_HIGHLIGHT_MODE"); v != "" {
		cfg.HighlightMode = v
	}
	if v := os.Getenv("PSALTER_NO_AUDIO"); v != "" {
		cfg.NoAudio = isTruthy(v)
	}
	if v := os.Getenv("PSALTER_NO_CACHE"); v != "" {
		cfg.NoCache = isTruthy(v)
	}
	if v := os.Getenv("PSALTER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PSALTER_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("PSALTER_KARAOKE_FALLBACK_DURATION"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			cfg.KaraokeFallbackDuration = parsed
		}
	}
	if v := os.Getenv("PSALTER_PLAYER_FALLBACK_DURATION"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil && parsed > 0 {
			cfg.PlayerFallbackDuration = parsed
		}
	}
}

func isTruthy(v string) bool {
	return v == "1" || v == "true" || v == "yes" || v == "on"
}
