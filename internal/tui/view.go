package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"narrator/internal/player"
)

const progressBarWidth = 30

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	sections := []string{
		m.renderHeader(),
		m.renderTransport(),
		m.renderAudio(),
	}
	if m.snap.Preparing != "" {
		sections = append(sections, m.renderGeneration())
	}
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	sections = append(sections, m.renderPlaylist()...)
	sections = append(sections, dividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, errorStyle.Render("Error: ")+errorTextStyle.Render(m.errorMessage))
	}
	sections = append(sections, dimStyle.Render(m.statusText))
	sections = append(sections, m.renderFooter())
	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("NARRATOR")
	if m.snap.Playback.Resource != "" {
		name := strings.TrimSuffix(filepath.Base(m.snap.Playback.Resource), filepath.Ext(m.snap.Playback.Resource))
		title += dimStyle.Render("  " + name)
	}
	if m.closed {
		title += errorTextStyle.Render("  [events disconnected]")
	}
	return title
}

func (m Model) renderTransport() string {
	pb := m.snap.Playback
	var state string
	switch pb.State {
	case player.Playing:
		state = playingStyle.Render("▶ PLAY ")
	case player.Paused:
		state = pausedStyle.Render("‖ PAUSE")
	default:
		state = stoppedStyle.Render("■ STOP ")
	}
	clock := fmt.Sprintf("%s / %s", formatClock(pb.PositionMs), formatClock(pb.DurationMs))
	return state + " " + renderBar(pb.PositionMs, pb.DurationMs, m.barWidth()) + " " + clock
}

func (m Model) renderAudio() string {
	pb := m.snap.Playback
	var narration string
	switch {
	case pb.NarrationEnabled:
		narration = narrationOnStyle.Render("Narration ON")
		if pb.ActiveSegment >= 0 {
			narration += dimStyle.Render(fmt.Sprintf("  segment %d/%d", pb.ActiveSegment+1, pb.SegmentCount))
		} else if pb.SegmentCount > 0 {
			narration += dimStyle.Render(fmt.Sprintf("  %d segments", pb.SegmentCount))
		}
	case pb.SegmentCount > 0:
		narration = dimStyle.Render(fmt.Sprintf("Narration off (%d segments ready)", pb.SegmentCount))
	default:
		narration = dimStyle.Render("Narration off")
	}
	volumes := dimStyle.Render(fmt.Sprintf("Video %3d%%  Narration %3d%%", pb.VideoVolume, pb.NarrationVolume))
	return narration + "   " + volumes
}

func (m Model) renderGeneration() string {
	label := progressStyle.Render("Generating " + m.snap.Preparing)
	return label + " " + renderBar(int64(m.snap.Progress), 100, progressBarWidth) + fmt.Sprintf(" %3d%%", m.snap.Progress)
}

func (m Model) renderPlaylist() []string {
	lines := []string{panelTitleStyle.Render(fmt.Sprintf("PLAYLIST (%d)", len(m.snap.Entries)))}
	if len(m.snap.Entries) == 0 {
		return append(lines, dimStyle.Render("  No videos yet"))
	}

	visible := m.playlistRows()
	start := 0
	if m.cursor >= visible {
		start = m.cursor - visible + 1
	}
	end := min(len(m.snap.Entries), start+visible)
	for i := start; i < end; i++ {
		entry := m.snap.Entries[i]
		marker := "  "
		if i == m.snap.Current {
			marker = currentStyle.Render("▶ ")
		}
		status := dimStyle.Render("  no narration")
		if entry.NarrationReady {
			status = readyStyle.Render("  narration ready")
		}
		voice := dimStyle.Render(" [" + entry.Voice + "]")
		title := truncateToWidth(entry.Title(), max(10, m.width-40))
		if i == m.cursor {
			title = selectedStyle.Render("> " + title)
		} else {
			title = "  " + title
		}
		lines = append(lines, marker+title+voice+status)
	}
	return lines
}

func (m Model) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"Space", "Play/Pause"},
		{"s", "Stop"},
		{"←→ 0-9", "Seek"},
		{"+/-", "Volume"},
		{"n", "Narration"},
		{"[ ]", "Prev/Next"},
		{"↑↓ Enter", "Select"},
		{"q", "Quit"},
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, footerKeyStyle.Render(k.key)+footerDescStyle.Render(" "+k.desc))
	}
	return strings.Join(parts, "  ")
}

func (m Model) barWidth() int {
	return max(10, m.width-30)
}

func (m Model) playlistRows() int {
	if m.height == 0 {
		return 10
	}
	return max(3, m.height-10)
}

func renderBar(value, total int64, width int) string {
	filled := 0
	if total > 0 {
		filled = int(value * int64(width) / total)
	}
	filled = min(max(filled, 0), width)
	return barFilledStyle.Render(strings.Repeat("█", filled)) + barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

// formatClock renders milliseconds as M:SS, or H:MM:SS past an hour.
func formatClock(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	total := ms / 1000
	h, mnt, s := total/3600, total/60%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, mnt, s)
	}
	return fmt.Sprintf("%d:%02d", mnt, s)
}

func truncateToWidth(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}
