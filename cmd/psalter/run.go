package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/godbus/dbus/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/psalterhq/psalter/internal/cache"
	"github.com/psalterhq/psalter/internal/config"
	"github.com/psalterhq/psalter/internal/hymn"
	"github.com/psalterhq/psalter/internal/karaoke"
	"github.com/psalterhq/psalter/internal/logging"
	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/playback"
	"github.com/psalterhq/psalter/internal/terminal"
)

var runHymnRef string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the karaoke view for a hymn",
	Long:  `starts the full-screen karaoke view: synchronized lyrics against audio playback via an mpris player, or an internal clock with --no-audio.`,
	RunE:  runViewer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runHymnRef, "hymn", "", "hymn id, local json file, or url")
	_ = runCmd.MarkFlagRequired("hymn")
}

func runViewer(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	go func() {
		<-sigChan
		cancel()
		terminal.Reset()
		os.Exit(0)
	}()

	defer terminal.Reset()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log := logging.New(cfg.Log)
	defer log.Sync()

	h, err := loadHymn(ctx, cfg, runHymnRef, log)
	if err != nil {
		return err
	}

	source := buildSource(cfg, h, log)

	engine := playback.NewEngine(h.AudioFiles, source,
		playback.WithEngineLogger(log))

	settings := karaoke.DefaultSettings()
	settings.Theme = cfg.Theme
	settings.HighlightMode = lyricsync.HighlightMode(cfg.HighlightMode)

	model := karaoke.NewModel(karaoke.ModelConfig{
		Hymn:             h,
		Engine:           engine,
		Source:           source,
		Settings:         settings,
		TermCaps:         terminal.DetectCapabilities(),
		Logger:           log,
		FallbackDuration: cfg.KaraokeFallbackDuration,
		Callbacks: karaoke.Callbacks{
			OnClose: func() {
				log.Info("karaoke session closed", zap.String("hymn", h.ID))
			},
		},
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	go func() {
		<-ctx.Done()
		p.Quit()
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running bubble tea: %w", err)
	}

	return engine.Close()
}

// buildSource picks the audio backend: an MPRIS player when audio is
// wanted and the session bus cooperates, the silent internal clock
// otherwise. Lyric display works the same either way.
func buildSource(cfg *config.Config, h *hymn.Hymn, log *zap.Logger) playback.Source {
	if !cfg.NoAudio && h.HasAudio() {
		bus, err := dbus.ConnectSessionBus()
		if err != nil {
			log.Warn("session bus unavailable, falling back to clock source", zap.Error(err))
		} else {
			source, err := playback.NewMPRISSource(bus, cfg.MprisService)
			if err == nil {
				return source
			}
			bus.Close()
			log.Warn("mpris player unavailable, falling back to clock source",
				zap.String("service", cfg.MprisService), zap.Error(err))
		}
	}

	durations := make(map[string]float64, len(h.AudioFiles))
	for _, track := range h.AudioFiles {
		durations[track.URL] = track.Duration
	}

	return playback.NewClockSource(func(url string) float64 {
		if d := durations[url]; d > 0 {
			return d
		}
		return cfg.KaraokeFallbackDuration
	})
}

// loadHymn resolves a hymn reference: an existing local file, a direct
// url, or an id fetched from the configured source.
func loadHymn(ctx context.Context, cfg *config.Config, ref string, log *zap.Logger) (*hymn.Hymn, error) {
	if ref == "" {
		return nil, fmt.Errorf("empty hymn reference")
	}

	if info, err := os.Stat(ref); err == nil && !info.IsDir() {
		data, err := os.ReadFile(ref)
		if err != nil {
			return nil, fmt.Errorf("failed to read hymn file: %w", err)
		}
		return hymn.Decode(data)
	}

	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to build hymn request: %w", err)
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("hymn fetch failed: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("hymn url returned status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read hymn response: %w", err)
		}
		return hymn.Decode(data)
	}

	opts := []hymn.ClientOption{hymn.WithLogger(log)}
	if cfg.NoCache {
		opts = append(opts, hymn.WithoutCache())
	} else {
		store := cache.GetGlobalStore()
		opts = append(opts, hymn.WithCache(store))
	}

	client, err := hymn.NewClient(cfg.SourceURL, opts...)
	if err != nil {
		return nil, err
	}

	return client.Fetch(ctx, ref)
}
