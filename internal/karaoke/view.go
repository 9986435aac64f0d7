package karaoke

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/common-nighthawk/go-figure"

	"github.com/psalterhq/psalter/internal/lyricsync"
	"github.com/psalterhq/psalter/internal/mediautil"
	"github.com/psalterhq/psalter/internal/playback"
	"github.com/psalterhq/psalter/internal/segment"
	"github.com/psalterhq/psalter/internal/terminal"
	"github.com/psalterhq/psalter/internal/theme"
)

func (m Model) View() string {
	width := m.width
	height := m.height
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	if m.quitting {
		return ""
	}

	if m.hymn == nil {
		return m.renderWaitingScreen(width, height)
	}

	var lines []string

	headerHeight := 0
	if !m.lyricOnly {
		headerLines := m.renderHeader(width)
		lines = append(lines, headerLines...)
		headerHeight = len(headerLines)
	}

	footerHeight := 0
	var footerLines []string
	if m.controlsVisible {
		footerLines = m.renderControls(width)
		footerHeight = len(footerLines)
	}

	lyricHeight := height - headerHeight - footerHeight
	if lyricHeight < 1 {
		lyricHeight = 1
	}

	lines = append(lines, m.renderLyrics(lyricHeight, width)...)

	for len(lines) < height-footerHeight {
		lines = append(lines, "")
	}
	if len(lines) > height-footerHeight {
		lines = lines[:height-footerHeight]
	}

	lines = append(lines, footerLines...)
	if len(lines) > height {
		lines = lines[:height]
	}

	return strings.Join(lines, "\n")
}

func (m Model) renderWaitingScreen(width, height int) string {
	lines := make([]string, height)

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Dim)).
		Italic(true)

	text := "no hymn loaded"
	lines[height/2] = centerText(style.Render(text), utf8.RuneCountInString(text), width)

	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(width int) []string {
	var lines []string

	lines = append(lines, "")
	lines = append(lines, m.renderTitle(width)...)

	artWidth, artHeight := 12, 6
	if width < 80 {
		artWidth, artHeight = 8, 4
	}
	if width < 50 || m.height < 25 {
		artWidth, artHeight = 0, 0
	}

	infoLines := m.renderHymnInfo(width)

	if artWidth > 0 && m.coverImage != nil &&
		m.termCaps != nil && m.termCaps.SupportsKittyGraphics {
		if encoded := terminal.EncodeImageForKitty(m.coverImage, artWidth, artHeight); encoded != "" {
			lines = append(lines, "  "+encoded)
			for i := 0; i < artHeight-1; i++ {
				lines = append(lines, "  ")
			}
			for _, info := range infoLines {
				lines = append(lines, "  "+info)
			}
			lines = append(lines, "")
			lines = append(lines, m.renderProgress(width))
			lines = append(lines, "")
			return lines
		}
	}

	if artWidth > 0 && m.coverImage != nil {
		artLines := terminal.RenderHalfBlockArt(m.coverImage, artWidth, artHeight)
		rows := artHeight
		if len(infoLines) > rows {
			rows = len(infoLines)
		}
		for i := 0; i < rows; i++ {
			var row strings.Builder
			if i < len(artLines) {
				row.WriteString("  ")
				row.WriteString(artLines[i])
				row.WriteString("  ")
			} else {
				row.WriteString(strings.Repeat(" ", artWidth+4))
			}
			if i < len(infoLines) {
				row.WriteString(infoLines[i])
			}
			lines = append(lines, row.String())
		}
	} else {
		for _, info := range infoLines {
			lines = append(lines, "  "+info)
		}
	}

	lines = append(lines, "")
	lines = append(lines, m.renderProgress(width))
	lines = append(lines, "")

	return lines
}

// renderTitle prefers a figlet banner when the terminal is wide and tall
// enough, falling back to a plain styled line.
func (m Model) renderTitle(width int) []string {
	title := m.hymn.Title

	if width >= 80 && m.height >= 30 {
		banner := figure.NewFigure(title, "", true)
		bannerLines := strings.Split(strings.TrimRight(banner.String(), "\n"), "\n")

		fits := true
		for _, l := range bannerLines {
			if len(l) > width-4 {
				fits = false
				break
			}
		}

		if fits && len(bannerLines) <= 6 {
			style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent))
			out := make([]string, 0, len(bannerLines))
			for _, l := range bannerLines {
				out = append(out, "  "+style.Render(l))
			}
			return out
		}
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(m.palette.Primary)).
		Bold(true)
	return []string{"  " + style.Render(truncate(title, width-4))}
}

func (m Model) renderHymnInfo(width int) []string {
	maxWidth := width - 20
	if maxWidth < 20 {
		maxWidth = 20
	}

	secondary := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	var lines []string

	if m.hymn.Author != "" {
		lines = append(lines, secondary.Render(truncate(m.hymn.Author, maxWidth)))
	}

	if track, ok := m.engine.CurrentTrack(); ok {
		label := track.DisplayLabel()
		if m.engine.TrackCount() > 1 {
			label = fmt.Sprintf("%s (%d/%d)",
				label, m.engine.State().TrackIndex+1, m.engine.TrackCount())
		}
		lines = append(lines, dim.Render(truncate(label, maxWidth)))
		if track.Format != "" {
			lines = append(lines, dim.Render(mediautil.FormatName(track.Format)))
		}
	}

	if m.language != "" {
		lines = append(lines, dim.Render("lyrics: "+m.language))
	}

	return lines
}

func (m Model) renderProgress(width int) string {
	state := m.engine.State()
	if state.Phase == playback.Idle || state.Duration <= 0 {
		return ""
	}

	barWidth := width - 20
	if barWidth < 20 {
		barWidth = 20
	}

	progress := state.CurrentTime / state.Duration
	if progress > 1 {
		progress = 1
	}
	if progress < 0 {
		progress = 0
	}
	filled := int(float64(barWidth) * progress)

	filledStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Primary))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Faint(true)

	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		switch {
		case i < filled:
			bar.WriteString(filledStyle.Render("━"))
		case i == filled:
			bar.WriteString(filledStyle.Render("●"))
		default:
			bar.WriteString(emptyStyle.Render("─"))
		}
	}

	timeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	return fmt.Sprintf("  %s  %s  %s",
		timeStyle.Render(mediautil.FormatDuration(state.CurrentTime)),
		bar.String(),
		timeStyle.Render(mediautil.FormatDuration(state.Duration)))
}

func (m Model) renderControls(width int) []string {
	state := m.engine.State()

	dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
	accent := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent))

	var status []string
	if state.IsPlaying() {
		status = append(status, accent.Render("▶"))
	} else {
		status = append(status, dim.Render("⏸"))
	}
	if state.Muted {
		status = append(status, accent.Render("muted"))
	} else {
		status = append(status, dim.Render(fmt.Sprintf("vol %d%%", int(state.Volume*100+0.5))))
	}
	if state.Looping {
		status = append(status, accent.Render("loop"))
	}
	if m.controller.Manual() {
		status = append(status, accent.Render("manual sync"))
	}
	status = append(status, dim.Render(m.settings.Theme))
	status = append(status, dim.Render(string(m.settings.HighlightMode)))

	hints := "space play · ←/→ select · enter jump · s auto · n/p track · " +
		"l lang · t theme · h mode · f lyrics · q quit"

	return []string{
		"  " + strings.Join(status, dim.Render(" · ")),
		"  " + dim.Render(truncate(hints, width-4)),
	}
}

// renderLyrics centers the current segment with context lines around it,
// sliding during line transitions.
func (m Model) renderLyrics(height, width int) []string {
	segs := m.controller.Segments()
	output := make([]string, height)

	if len(segs) == 0 {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim)).Italic(true)
		text := "no lyrics available"
		output[height/2] = centerText(style.Render(text), utf8.RuneCountInString(text), width)
		return output
	}

	current := m.position.SegmentIndex
	if current < 0 {
		current = 0
	}

	spacing := m.settings.FontSize - 1
	if spacing < 1 {
		spacing = 1
	}
	rowsPerLine := 1 + spacing

	contextCount := (height/rowsPerLine - 1) / 2
	if contextCount > 4 {
		contextCount = 4
	}
	if contextCount < 1 {
		contextCount = 1
	}

	centerRow := height / 2

	for offset := -contextCount; offset <= contextCount; offset++ {
		idx := current + offset
		if idx < 0 || idx >= len(segs) {
			continue
		}

		row := centerRow + offset*rowsPerLine
		if row < 0 || row >= height {
			continue
		}

		if offset == 0 {
			output[row] = m.renderFocusLine(segs[idx], width)
		} else {
			output[row] = m.renderContextLine(segs[idx], offset, width)
		}
	}

	return output
}

func (m Model) renderFocusLine(seg segment.Segment, width int) string {
	text := seg.Text
	prefix := m.versePrefix(seg)

	var rendered string
	switch m.settings.HighlightMode {
	case lyricsync.HighlightWord:
		rendered = m.renderWordHighlight(seg)
	case lyricsync.HighlightSmooth:
		rendered = m.renderSmoothHighlight(seg)
	default:
		style := lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.palette.Primary))
		if m.settings.FontSize >= 2 {
			style = style.Bold(true)
		}
		rendered = style.Render(text)
	}

	if prefix != "" {
		dim := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))
		rendered = dim.Render(prefix) + rendered
	}

	return centerText(rendered, utf8.RuneCountInString(prefix)+utf8.RuneCountInString(text), width)
}

func (m Model) renderContextLine(seg segment.Segment, offset, width int) string {
	dist := offset
	if dist < 0 {
		dist = -dist
	}

	// past and upcoming lines fade with distance; the slide transition
	// briefly re-brightens the line just left behind
	brightness := 0.55 - float64(dist-1)*0.12
	if offset == -1 {
		brightness = lerp(0.8, 0.55, m.animState.SlideOffset())
	}
	if brightness < 0.25 {
		brightness = 0.25
	}

	color := m.palette.Secondary
	if offset < 0 {
		color = m.palette.Dim
	}

	style := lipgloss.NewStyle().
		Foreground(lipgloss.Color(fadeToward(color, m.palette.Dim, 1-brightness)))
	if seg.IsChorus {
		style = style.Italic(true)
	}

	prefix := m.versePrefix(seg)
	rendered := style.Render(prefix + seg.Text)

	return centerText(rendered, utf8.RuneCountInString(prefix)+utf8.RuneCountInString(seg.Text), width)
}

func (m Model) renderWordHighlight(seg segment.Segment) string {
	if len(m.position.WordStates) != len(seg.Words) {
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Primary)).Bold(true)
		return style.Render(seg.Text)
	}

	past := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Secondary))
	current := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent)).Bold(true)
	future := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	parts := make([]string, 0, len(seg.Words))
	for i, w := range seg.Words {
		switch m.position.WordStates[i] {
		case lyricsync.WordPast:
			parts = append(parts, past.Render(w.Word))
		case lyricsync.WordCurrent:
			parts = append(parts, current.Render(w.Word))
		default:
			parts = append(parts, future.Render(w.Word))
		}
	}

	return strings.Join(parts, " ")
}

// renderSmoothHighlight fills the line character by character as the
// segment's progress fraction advances, coloring the fill front from the
// palette gradient.
func (m Model) renderSmoothHighlight(seg segment.Segment) string {
	runes := []rune(seg.Text)
	if len(runes) == 0 {
		return ""
	}

	front := int(math.Floor(m.position.Progress * float64(len(runes))))
	if front > len(runes) {
		front = len(runes)
	}

	gradIdx := int(m.position.Progress * float64(len(m.palette.Gradient)-1))
	if gradIdx < 0 {
		gradIdx = 0
	}
	if gradIdx >= len(m.palette.Gradient) {
		gradIdx = len(m.palette.Gradient) - 1
	}

	sung := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Accent)).Bold(true)
	frontStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Gradient[gradIdx])).Bold(true)
	unsung := lipgloss.NewStyle().Foreground(lipgloss.Color(m.palette.Dim))

	var out strings.Builder
	for i, r := range runes {
		switch {
		case i < front:
			out.WriteString(sung.Render(string(r)))
		case i == front:
			out.WriteString(frontStyle.Render(string(r)))
		default:
			out.WriteString(unsung.Render(string(r)))
		}
	}

	return out.String()
}

func (m Model) versePrefix(seg segment.Segment) string {
	if !m.settings.ShowVerseNumbers || seg.VerseNumber == 0 {
		return ""
	}
	return fmt.Sprintf("%d. ", seg.VerseNumber)
}

// fadeToward blends color toward target by t in [0,1].
func fadeToward(color, target string, t float64) string {
	if t <= 0 {
		return color
	}
	if t >= 1 {
		return target
	}

	cr, cg, cb := theme.HexToRGB(color)
	tr, tg, tb := theme.HexToRGB(target)

	r := uint8(lerp(float64(cr), float64(tr), t) + 0.5)
	g := uint8(lerp(float64(cg), float64(tg), t) + 0.5)
	b := uint8(lerp(float64(cb), float64(tb), t) + 0.5)

	return fmt.Sprintf("#%02X%02X%02X", r, g, b)
}

// truncate shortens s to at most max runes, ending with an ellipsis.
// Widths are measured in runes so multi-byte text never splits mid-rune.
func truncate(s string, max int) string {
	if max < 2 {
		max = 2
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// centerText pads text to the middle of the screen. visualWidth is the
// rune count of the unstyled text, since ANSI styling inflates len.
func centerText(text string, visualWidth, screenWidth int) string {
	padding := (screenWidth - visualWidth) / 2
	if padding < 0 {
		padding = 0
	}
	return strings.Repeat(" ", padding) + text
}
