package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/internal/cleaner"
	"github.com/devsweep/devsweep/internal/cleaners"
	"github.com/devsweep/devsweep/internal/sysinfo"
	"github.com/devsweep/devsweep/pkg/whitelist"
)

var (
	cleanDays     int
	cleanDryRun   bool
	cleanUnmerged bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean [provider]",
	Short: "Remove unused developer resources",
	Long: `Remove resources untouched for longer than the threshold.

With a provider argument only that ecosystem is cleaned; without one every
available provider runs in turn. Providers whose prerequisites are missing
(tool not installed, daemon not running) are reported and skipped.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: cleaners.Names(),
	RunE:      runClean,
}

func init() {
	cleanCmd.Flags().IntVar(&cleanDays, "days", 30, "Minimum days of inactivity before a resource is unused")
	cleanCmd.Flags().BoolVar(&cleanDryRun, "dry-run", false, "Report what would be removed without deleting")
	cleanCmd.Flags().BoolVar(&cleanUnmerged, "unmerged", false, "Allow the git provider to force-delete unmerged branches")
}

func runClean(cmd *cobra.Command, args []string) error {
	wl, err := whitelist.Load()
	if err != nil {
		log.Warn("could not load whitelist, using built-in protections only", "err", err)
	}
	opts := cleaners.Options{Whitelist: wl, CleanUnmerged: cleanUnmerged}

	var providers []cleaner.Provider
	if len(args) == 1 {
		p, err := cleaners.New(args[0], opts)
		if err != nil {
			return err
		}
		providers = append(providers, p)
	} else {
		providers = cleaners.All(opts)
	}

	home, _ := os.UserHomeDir()
	if home == "" {
		home = "/"
	}
	freeBefore, freeErr := sysinfo.DiskFree(home)
	if !cleanDryRun && freeErr == nil {
		fmt.Printf("Disk free before: %s\n", humanize.IBytes(freeBefore))
	}

	var summaries []cleaner.Summary
	for _, p := range providers {
		summaries = append(summaries, cleaner.Run(cmd.Context(), p, cleanDays, cleanDryRun))
	}

	printSummaries(summaries)

	if !cleanDryRun && freeErr == nil {
		if freeAfter, err := sysinfo.DiskFree(home); err == nil {
			fmt.Printf("Disk free after:  %s (+%s)\n",
				humanize.IBytes(freeAfter), humanize.IBytes(freeAfter-min(freeAfter, freeBefore)))
		}
	}

	explicit := len(args) == 1
	for _, s := range summaries {
		// Missing prerequisites only fail the run when that provider was
		// asked for by name.
		if !explicit && errors.Is(s.Err, cleaner.ErrPrerequisites) {
			continue
		}
		if !s.Succeeded() {
			return fmt.Errorf("some cleaners did not finish cleanly")
		}
	}
	return nil
}

func printSummaries(summaries []cleaner.Summary) {
	var reclaimed int64
	for _, s := range summaries {
		var status string
		switch {
		case s.Err != nil:
			status = "skipped: " + s.Err.Error()
		case s.Total == 0:
			status = "nothing to clean"
		case s.DryRun:
			status = fmt.Sprintf("would clean %d of %d (%s)",
				s.WouldClean, s.Total, humanize.IBytes(uint64(s.ReclaimedBytes)))
		default:
			status = fmt.Sprintf("cleaned %d of %d (%s)",
				s.Cleaned, s.Total, humanize.IBytes(uint64(s.ReclaimedBytes)))
		}
		if s.SkippedProtected > 0 || s.SkippedInUse > 0 {
			status += fmt.Sprintf(", skipped %d protected / %d in use", s.SkippedProtected, s.SkippedInUse)
		}
		fmt.Printf("  %-10s %s\n", s.Provider, status)

		for _, f := range s.Failures {
			id := strings.Join(cleaner.SplitID(f.Item.Identity), "/")
			fmt.Printf("             failed: %s: %s\n", id, f.Reason)
		}
		reclaimed += s.ReclaimedBytes
	}
	fmt.Printf("Total reclaimed: %s\n", humanize.IBytes(uint64(reclaimed)))
}
