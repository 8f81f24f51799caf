package cmd

import (
	"os"

	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
	debug   bool

	// Version info populated from main
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

// SetVersionInfo sets build-time version information.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}

var rootCmd = &cobra.Command{
	Use:   "devsweep",
	Short: "Reclaim disk space from developer tool leftovers",
	Long: `DevSweep - Reclaim disk space from developer tool leftovers.

Finds and removes unused resources across the ecosystems that quietly
eat a developer machine: docker images and volumes, homebrew downloads,
npm and pip caches, stale virtualenvs, merged git branches, finished
kubernetes resources, Xcode derived data, and iOS simulators. Every run
is threshold-based and dry-runnable, and nothing on the whitelist is
ever touched.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		configureLogging()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show per-item operation logs")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Show detailed debugging logs")

	// Register all subcommands
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(appAnalyzeCmd)
	rootCmd.AddCommand(whitelistCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.SetHelpCommand(helpCmd)
}

// configureLogging sets the default logger up from the global flags: errors
// only unless asked for more, colors only on a real terminal.
func configureLogging() {
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	case verbose:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.ErrorLevel)
	}
	if !isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetColorProfile(termenv.Ascii)
	}
}
