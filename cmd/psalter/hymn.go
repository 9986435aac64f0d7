package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/psalterhq/psalter/internal/hymn"
	"github.com/psalterhq/psalter/internal/logging"
	"github.com/psalterhq/psalter/internal/mediautil"
	"github.com/psalterhq/psalter/internal/segment"
)

var (
	hymnRef string
	showAt  float64
)

var hymnCmd = &cobra.Command{
	Use:   "hymn",
	Short: "inspect hymn records",
	Long:  `inspect a hymn record without starting the karaoke view.`,
}

var hymnShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print hymn metadata and lyric summary",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHymnForInspection(cmd)
		if err != nil {
			return err
		}

		fmt.Printf("title:     %s\n", h.Title)
		if h.Author != "" {
			fmt.Printf("author:    %s\n", h.Author)
		}
		fmt.Printf("id:        %s\n", h.ID)
		fmt.Printf("tracks:    %d\n", len(h.AudioFiles))

		for _, transcript := range h.Lyrics {
			lineCount := 0
			for _, line := range strings.Split(transcript.Content, "\n") {
				if strings.TrimSpace(line) != "" {
					lineCount++
				}
			}
			fmt.Printf("lyrics:    %s (%d lines)\n", transcript.Language, lineCount)
		}

		if cmd.Flags().Changed("at") {
			return printSegmentAt(h, showAt)
		}
		return nil
	},
}

var hymnTracksCmd = &cobra.Command{
	Use:   "tracks",
	Short: "list a hymn's audio tracks",
	RunE: func(cmd *cobra.Command, args []string) error {
		h, err := loadHymnForInspection(cmd)
		if err != nil {
			return err
		}

		if !h.HasAudio() {
			fmt.Println("no audio tracks")
			return nil
		}

		tw := table.NewWriter()
		tw.SetStyle(table.StyleRounded)
		tw.AppendHeader(table.Row{"#", "track", "language", "duration", "format"})
		tw.SetColumnConfigs([]table.ColumnConfig{
			{Number: 1, Align: text.AlignRight},
			{Number: 4, Align: text.AlignRight},
		})

		for i, track := range h.AudioFiles {
			tw.AppendRow(table.Row{
				i + 1,
				track.DisplayLabel(),
				track.Language,
				mediautil.FormatDuration(track.Duration),
				mediautil.FormatName(track.Format),
			})
		}

		fmt.Println(tw.Render())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hymnCmd)
	hymnCmd.AddCommand(hymnShowCmd)
	hymnCmd.AddCommand(hymnTracksCmd)

	hymnCmd.PersistentFlags().StringVar(&hymnRef, "hymn", "", "hymn id, local json file, or url")
	_ = hymnCmd.MarkPersistentFlagRequired("hymn")

	hymnShowCmd.Flags().Float64Var(&showAt, "at", 0, "print the lyric segment at this playback time in seconds")
}

func loadHymnForInspection(cmd *cobra.Command) (*hymn.Hymn, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	log := logging.New(cfg.Log)
	defer log.Sync()

	return loadHymn(cmd.Context(), cfg, hymnRef, log)
}

// printSegmentAt shows which lyric line the engine would highlight at time
// t, with one line of context on each side.
func printSegmentAt(h *hymn.Hymn, t float64) error {
	transcript, ok := h.TranscriptFor(h.DefaultLanguage())
	if !ok {
		return fmt.Errorf("hymn has no lyrics")
	}

	duration := 0.0
	if h.HasAudio() {
		duration = h.AudioFiles[0].Duration
	}

	segments := segment.Build(transcript.Content, duration, segment.Options{
		FallbackDuration: segment.DefaultKaraokeFallback,
	})
	if len(segments) == 0 {
		return fmt.Errorf("hymn has no lyrics")
	}

	current := -1
	for i, seg := range segments {
		if seg.Contains(t) || (i == len(segments)-1 && t == seg.End) {
			current = i
			break
		}
	}
	if current < 0 {
		return fmt.Errorf("time %s is outside the hymn (%s)",
			mediautil.FormatDuration(t),
			mediautil.FormatDuration(segments[len(segments)-1].End))
	}

	fmt.Println()
	for i := current - 1; i <= current+1; i++ {
		if i < 0 || i >= len(segments) {
			continue
		}
		seg := segments[i]
		marker := "   "
		if i == current {
			marker = " ▶ "
		}
		fmt.Printf("%s[%s – %s] %s\n", marker,
			mediautil.FormatDuration(seg.Start),
			mediautil.FormatDuration(seg.End),
			seg.Text)
	}

	return nil
}
