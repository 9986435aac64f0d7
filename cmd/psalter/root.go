package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/psalterhq/psalter/internal/config"
)

var (
	// global flags, layered over env and the config file
	flagSourceURL     string
	flagMprisService  string
	flagTheme         string
	flagHighlightMode string
	flagNoAudio       bool
	flagNoCache       bool
)

var rootCmd = &cobra.Command{
	Use:   "psalter",
	Short: "terminal hymn karaoke player",
	Long: `psalter is a terminal karaoke player for hymns. it displays lyrics
synchronized to audio playback, with estimated per-line timing, multiple
lyric languages, and color themes extracted from cover art.`,
	Version:       "1.0.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagSourceURL, "source-url", "", "hymn source base url")
	rootCmd.PersistentFlags().StringVarP(&flagMprisService, "mpris-service", "m", "", "mpris service name (e.g., org.mpris.MediaPlayer2.mpv)")
	rootCmd.PersistentFlags().StringVarP(&flagTheme, "theme", "t", "", "color theme: classic, light, midnight, sepia, dynamic")
	rootCmd.PersistentFlags().StringVar(&flagHighlightMode, "highlight", "", "highlight mode: line, word, smooth")
	rootCmd.PersistentFlags().BoolVar(&flagNoAudio, "no-audio", false, "lyrics-only mode driven by an internal clock")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "disable cache reads (always fetch fresh)")
}

// loadConfig layers: defaults, config file, environment, then flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagSourceURL != "" {
		cfg.SourceURL = flagSourceURL
	}
	if flagMprisService != "" {
		cfg.MprisService = flagMprisService
	}
	if flagTheme != "" {
		cfg.Theme = flagTheme
	}
	if flagHighlightMode != "" {
		cfg.HighlightMode = flagHighlightMode
	}
	if cmd.Flags().Changed("no-audio") {
		cfg.NoAudio = flagNoAudio
	}
	if cmd.Flags().Changed("no-cache") {
		cfg.NoCache = flagNoCache
	}

	return cfg, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
