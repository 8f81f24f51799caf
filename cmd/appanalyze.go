package cmd

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/internal/analyzer"
)

var (
	analyzeFormat      string
	analyzeInteractive bool
)

var appAnalyzeCmd = &cobra.Command{
	Use:   "app-analyze [application]",
	Short: "Measure the disk footprint of installed applications",
	Long: `Measure how much disk each application occupies, including the
support files, caches, preferences, logs, containers, saved state, and
crash reports it keeps outside its bundle.

With an application argument (a name or a path to a .app bundle) only
that application is analyzed. Without one, every bundle in /Applications
and ~/Applications is analyzed and ranked by total size.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runAppAnalyze,
}

func init() {
	appAnalyzeCmd.Flags().StringVar(&analyzeFormat, "format", "txt", "Output format: "+analyzer.Formats())
	appAnalyzeCmd.Flags().BoolVarP(&analyzeInteractive, "interactive", "i", false, "Browse batch results in a full-screen TUI")
}

func runAppAnalyze(cmd *cobra.Command, args []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("resolving home directory: %w", err)
	}
	a := analyzer.New(home)
	if err := a.CheckPrerequisites(); err != nil {
		return err
	}

	if len(args) == 1 {
		report, err := a.Analyze(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		batch := analyzer.BatchReport{
			Apps:      []analyzer.Report{report},
			AppCount:  1,
			TotalSize: report.TotalSize,
		}
		return analyzer.Write(os.Stdout, analyzeFormat, batch)
	}

	showProgress := isatty.IsTerminal(os.Stderr.Fd()) && analyzeFormat == "txt"
	batch, err := a.AnalyzeAll(cmd.Context(), showProgress)
	if err != nil {
		return err
	}

	if analyzeInteractive {
		_, err := tea.NewProgram(analyzer.NewBrowseModel(batch), tea.WithAltScreen()).Run()
		return err
	}
	return analyzer.Write(os.Stdout, analyzeFormat, batch)
}
