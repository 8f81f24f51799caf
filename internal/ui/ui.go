// Package ui holds the shared color tokens, icons, and style helpers used by
// the terminal views.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// ─── Color tokens ────────────────────────────────────────────────────────────

var (
	ColorPrimary = lipgloss.Color("81")  // cyan
	ColorCoral   = lipgloss.Color("209") // analyzer accent
	ColorText    = lipgloss.Color("252")
	ColorTextDim = lipgloss.Color("245")
	ColorMuted   = lipgloss.Color("240")
	ColorWarning = lipgloss.Color("214")
	ColorError   = lipgloss.Color("203")
	ColorSuccess = lipgloss.Color("78")
)

// ─── Icons ───────────────────────────────────────────────────────────────────

const (
	IconDiamond = "◆"
	IconChevron = "❯"
	IconBullet  = "·"
	IconFolder  = "▸ "
	IconBlock   = "▐"
	IconPipe    = "│"
	IconWarning = "!"
	IconError   = "✗"
	IconCheck   = "✓"
)

// FormatSize renders a byte count for humans.
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

// GradientBar renders a proportional bar, green through red as pct grows.
func GradientBar(pct float64, width int) string {
	if width < 1 {
		width = 1
	}
	filled := int(pct / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	color := ColorSuccess
	switch {
	case pct >= 75:
		color = ColorError
	case pct >= 40:
		color = ColorWarning
	}
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("█", filled))
	rest := lipgloss.NewStyle().Foreground(ColorMuted).Render(strings.Repeat("░", width-filled))
	return bar + rest
}

// HintBarStyle styles the keybinding hint line at the bottom of a view.
func HintBarStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(ColorMuted)
}

// TagWarningStyle styles short inline warning tags.
func TagWarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(ColorWarning).
		Bold(true)
}

// TitleStyle styles section headers in plain (non-TUI) output.
func TitleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
}
