package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.SourceURL != DefaultSourceURL {
		t.Errorf("SourceURL = %q", cfg.SourceURL)
	}
	if cfg.Theme != "classic" || cfg.HighlightMode != "line" {
		t.Errorf("display defaults = %q/%q", cfg.Theme, cfg.HighlightMode)
	}
	if cfg.PlayerFallbackDuration != 180 || cfg.KaraokeFallbackDuration != 240 {
		t.Errorf("fallback durations = %v/%v, want 180/240",
			cfg.PlayerFallbackDuration, cfg.KaraokeFallbackDuration)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "psalter")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	content := "theme = \"midnight\"\nhighlight_mode = \"word\"\n\n[log]\nlevel = \"debug\"\n"
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Theme != "midnight" {
		t.Errorf("Theme = %q, want midnight", cfg.Theme)
	}
	if cfg.HighlightMode != "word" {
		t.Errorf("HighlightMode = %q, want word", cfg.HighlightMode)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	// untouched keys keep their defaults
	if cfg.SourceURL != DefaultSourceURL {
		t.Errorf("SourceURL lost its default: %q", cfg.SourceURL)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "psalter")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte("theme = [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Errorf("malformed config file should surface an error")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	cfgDir := filepath.Join(dir, "psalter")
	if err := os.MkdirAll(cfgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.toml"), []byte("theme = \"sepia\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PSALTER_THEME", "light")
	t.Setenv("PSALTER_NO_CACHE", "true")
	t.Setenv("PSALTER_KARAOKE_FALLBACK_DURATION", "300")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Theme != "light" {
		t.Errorf("env should beat file: Theme = %q", cfg.Theme)
	}
	if !cfg.NoCache {
		t.Errorf("PSALTER_NO_CACHE not applied")
	}
	if cfg.KaraokeFallbackDuration != 300 {
		t.Errorf("KaraokeFallbackDuration = %v, want 300", cfg.KaraokeFallbackDuration)
	}
}
