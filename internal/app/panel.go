package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/guidoenr/spectraviz/internal/params"
	"github.com/guidoenr/spectraviz/internal/store"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FB923C")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFF7ED")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF"))

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#9CA3AF")).
			Italic(true)
)

const panelHelp = "space play/pause  s stop  ←/→ seek  [ ] song  n/p visual  c palette  , . param  - + adjust  r reset  tab panel  q quit"

type panelInfo struct {
	Playback   store.PlaybackState
	Visualizer string
	Palette    string
	Schema     params.Schema
	Values     params.Values
	Selected   int
}

// panelView renders the expanded control panel as terminal lines.
func panelView(info panelInfo, width int) []string {
	song := "no song loaded"
	if info.Playback.HasSong {
		song = info.Playback.SongLabel
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top,
		titleStyle.Render(song),
		labelStyle.Render(fmt.Sprintf("  %s  %s / %s",
			info.Playback.Status, clock(info.Playback.CurrentTime), clock(info.Playback.Duration))),
	)

	lines := []string{
		header,
		progressBar(info.Playback.CurrentTime, info.Playback.Duration, max(10, width-8)),
		labelStyle.Render("visualizer ") + info.Visualizer + labelStyle.Render("  palette ") + info.Palette,
	}
	if len(info.Schema) == 0 {
		lines = append(lines, labelStyle.Render("no adjustable parameters"))
	} else {
		lines = append(lines, paramLine(info.Schema, info.Values, info.Selected))
	}
	lines = append(lines, footerStyle.Render(panelHelp))

	style := panelStyle
	if width > 4 {
		style = style.Width(width - 2)
	}
	return strings.Split(style.Render(strings.Join(lines, "\n")), "\n")
}

func paramLine(schema params.Schema, values params.Values, selected int) string {
	parts := make([]string, 0, len(schema))
	for i, d := range schema {
		label := labelStyle.Render(d.Label)
		if i == selected%len(schema) {
			label = titleStyle.Render("> " + d.Label)
		}
		parts = append(parts, fmt.Sprintf("%s %s", label, formatValue(values.Get(d.Name, d.DefaultValue))))
	}
	return strings.Join(parts, "  ")
}

func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func progressBar(current, duration float64, width int) string {
	filled := 0
	if duration > 0 {
		filled = int(current / duration * float64(width))
	}
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("=", filled) + strings.Repeat(" ", width-filled) + "]"
}

// clock formats seconds as m:ss.
func clock(seconds float64) string {
	if !(seconds > 0) {
		return "0:00"
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
