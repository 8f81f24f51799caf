package analyzer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/devsweep/devsweep/internal/ui"
)

// csvColumns pairs each category with the unit its CSV columns are reported
// in. Small per-file categories use KB, everything else MB.
var csvColumns = []struct {
	category string
	header   string
	unit     int64
}{
	{CategoryApp, "App Bundle", 1 << 20},
	{CategoryCache, "Cache", 1 << 20},
	{CategorySupport, "App Support", 1 << 20},
	{CategoryPreferences, "Preferences", 1 << 10},
	{CategoryLogs, "Logs", 1 << 20},
	{CategoryContainers, "Containers", 1 << 20},
	{CategorySavedState, "Saved State", 1 << 10},
	{CategoryCrashes, "Crash Reports", 1 << 10},
}

// WriteText renders the batch report as styled, human-readable text.
func WriteText(w io.Writer, batch BatchReport) error {
	title := ui.TitleStyle().Render("Application Disk Usage Analysis")
	dim := lipgloss.NewStyle().Foreground(ui.ColorTextDim)
	accent := lipgloss.NewStyle().Foreground(ui.ColorCoral)

	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "%s %d applications, %s total\n\n",
		dim.Render(ui.IconBullet), batch.AppCount, accent.Render(ui.FormatSize(batch.TotalSize)))
	if batch.Errored > 0 {
		fmt.Fprintf(w, "%s\n\n", ui.TagWarningStyle().Render(
			fmt.Sprintf(" %s %d applications skipped ", ui.IconWarning, batch.Errored)))
	}

	for rank, app := range batch.Apps {
		fmt.Fprintf(w, "%2d. %s %s\n", rank+1,
			lipgloss.NewStyle().Foreground(ui.ColorText).Bold(true).Render(app.Name),
			accent.Render(ui.FormatSize(app.TotalSize)))
		fmt.Fprintf(w, "    %s\n", dim.Render(app.BundleID))
		for _, cat := range app.sortedCategories() {
			line := fmt.Sprintf("    %s %-26s %10s", ui.IconPipe,
				CategoryLabels[cat], ui.FormatSize(app.Sizes[cat]))
			if pct, ok := app.Percentages[cat]; ok {
				line += dim.Render(fmt.Sprintf("  %.1f%%", pct))
			}
			fmt.Fprintln(w, line)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteJSON renders the batch report as indented JSON.
func WriteJSON(w io.Writer, batch BatchReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(batch)
}

// WriteCSV renders the batch report as a spreadsheet: one row per
// application, one size/percentage column pair per category.
func WriteCSV(w io.Writer, batch BatchReport) error {
	cw := csv.NewWriter(w)
	header := []string{"Rank", "Name", "Bundle ID", "Location", "Total Size (MB)"}
	for _, col := range csvColumns {
		unit := "MB"
		if col.unit == 1<<10 {
			unit = "KB"
		}
		header = append(header, fmt.Sprintf("%s (%s)", col.header, unit), col.header+" %")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for rank, app := range batch.Apps {
		row := []string{
			fmt.Sprintf("%d", rank+1),
			app.Name,
			app.BundleID,
			app.Path,
			fmt.Sprintf("%.2f", float64(app.TotalSize)/(1<<20)),
		}
		for _, col := range csvColumns {
			size := app.Sizes[col.category]
			row = append(row,
				fmt.Sprintf("%.2f", float64(size)/float64(col.unit)),
				fmt.Sprintf("%.1f%%", app.Percentages[col.category]))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Formats lists the supported output format names.
func Formats() string { return strings.Join([]string{"txt", "json", "csv"}, ", ") }

// Write dispatches to the writer for format.
func Write(w io.Writer, format string, batch BatchReport) error {
	switch format {
	case "txt":
		return WriteText(w, batch)
	case "json":
		return WriteJSON(w, batch)
	case "csv":
		return WriteCSV(w, batch)
	default:
		return fmt.Errorf("unknown output format %q (supported: %s)", format, Formats())
	}
}
