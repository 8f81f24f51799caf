package analyzer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/devsweep/devsweep/internal/ui"
)

// ─── Color tokens ────────────────────────────────────────────────────────────

// Short aliases for readability in render functions.
var (
	clrDim    = ui.ColorMuted
	clrApp    = ui.ColorCoral
	clrText   = ui.ColorText
	clrLarge  = ui.ColorWarning
	clrCursor = ui.ColorPrimary
)

// ─── Top-level view ──────────────────────────────────────────────────────────

func (m BrowseModel) renderView() string {
	if m.quitting {
		return ""
	}
	w := m.width
	if w < 40 {
		w = 40
	}

	var s strings.Builder
	s.WriteString(m.renderHeader(w))
	s.WriteString("\n")

	if m.selected != nil {
		s.WriteString(m.renderDetail(w))
	} else {
		s.WriteString(m.renderAppList(w))
	}

	s.WriteString("\n")
	s.WriteString(m.renderFooter())
	return s.String()
}

// ─── Header ──────────────────────────────────────────────────────────────────

func (m BrowseModel) renderHeader(w int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(ui.ColorCoral).
		Render("  " + ui.IconDiamond + " App Analyzer")

	summary := lipgloss.NewStyle().
		Foreground(ui.ColorTextDim).
		Render(fmt.Sprintf("  %d applications    %s", m.batch.AppCount, ui.FormatSize(m.batch.TotalSize)))

	// Breadcrumb trail.
	crumbs := []string{"Applications"}
	if m.selected != nil {
		crumbs = append(crumbs, m.selected.Name)
	}
	bcStr := lipgloss.NewStyle().
		Foreground(ui.ColorMuted).
		Render("  " + strings.Join(crumbs, " "+ui.IconChevron+" "))

	inner := lipgloss.JoinVertical(lipgloss.Left, title, summary, bcStr)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ui.ColorCoral).
		Width(w - 2).
		Render(inner)
}

// ─── Body (application list) ─────────────────────────────────────────────────

func (m BrowseModel) renderAppList(w int) string {
	if len(m.batch.Apps) == 0 {
		return lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Italic(true).
			Render("  (no applications analyzed)")
	}

	vh := m.viewportHeight()
	barWidth := 20
	if w > 110 {
		barWidth = 30
	} else if w > 90 {
		barWidth = 25
	}

	var lines []string
	for i := m.offset; i < len(m.batch.Apps) && i < m.offset+vh; i++ {
		lines = append(lines, m.renderAppRow(i+1, &m.batch.Apps[i], barWidth, i == m.cursor))
	}

	// Scrollbar hint.
	if len(m.batch.Apps) > vh {
		pct := float64(m.offset) / float64(len(m.batch.Apps)-vh) * 100
		scrollHint := lipgloss.NewStyle().
			Foreground(ui.ColorMuted).
			Italic(true).
			Render(fmt.Sprintf("  ── %d/%d apps  (%.0f%%) ──", min(m.offset+vh, len(m.batch.Apps)), len(m.batch.Apps), pct))
		lines = append(lines, scrollHint)
	}

	return strings.Join(lines, "\n")
}

func (m BrowseModel) renderAppRow(num int, app *Report, barWidth int, selected bool) string {
	var pct float64
	if m.batch.TotalSize > 0 {
		pct = float64(app.TotalSize) / float64(m.batch.TotalSize) * 100
	}
	bar := ui.GradientBar(pct, barWidth)

	nameColor := clrApp
	if app.TotalSize >= 1<<30 {
		nameColor = clrLarge
	}

	maxName := m.width - barWidth - 38
	if maxName < 12 {
		maxName = 12
	}
	name := app.Name
	if len(name) > maxName {
		name = name[:maxName-1] + "…"
	}
	nameStr := lipgloss.NewStyle().Foreground(nameColor).Bold(true).Render(name)

	numStr := lipgloss.NewStyle().Foreground(clrDim).Render(fmt.Sprintf("%3d.", num))
	pctStr := lipgloss.NewStyle().Foreground(ui.ColorTextDim).Render(fmt.Sprintf("%5.1f%%", pct))

	line := fmt.Sprintf("  %s %s  %s  %s %s  %s",
		numStr, bar, pctStr, ui.IconFolder, nameStr, ui.FormatSize(app.TotalSize))

	if selected {
		cursor := lipgloss.NewStyle().Foreground(clrCursor).Bold(true).Render(ui.IconBlock)
		line = " " + cursor + line[2:]
	}

	return line
}

// ─── Detail (per-app categories) ─────────────────────────────────────────────

func (m BrowseModel) renderDetail(w int) string {
	app := m.selected

	barWidth := 20
	if w > 110 {
		barWidth = 30
	} else if w > 90 {
		barWidth = 25
	}

	id := lipgloss.NewStyle().Foreground(ui.ColorMuted).Render("  " + app.BundleID)
	lines := []string{id, ""}

	for _, cat := range app.sortedCategories() {
		pct := app.Percentages[cat]
		bar := ui.GradientBar(pct, barWidth)
		pctStr := lipgloss.NewStyle().Foreground(ui.ColorTextDim).Render(fmt.Sprintf("%5.1f%%", pct))
		label := lipgloss.NewStyle().Foreground(clrText).Render(fmt.Sprintf("%-26s", CategoryLabels[cat]))
		lines = append(lines, fmt.Sprintf("  %s  %s  %s %s", bar, pctStr, label, ui.FormatSize(app.Sizes[cat])))

		for _, loc := range app.Locations[cat] {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(ui.ColorMuted).
				Render("      "+ui.IconBullet+" "+loc))
		}
	}

	return strings.Join(lines, "\n")
}

// ─── Footer ──────────────────────────────────────────────────────────────────

func (m BrowseModel) renderFooter() string {
	var hints []string
	if m.selected != nil {
		hints = []string{"← back", "Esc back", "q quit"}
	} else {
		hints = []string{"↑↓ nav", "→ details", "q quit"}
	}
	hintStr := strings.Join(hints, " "+ui.IconPipe+" ")
	return ui.HintBarStyle().Render("  " + hintStr)
}
