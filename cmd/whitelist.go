package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/pkg/whitelist"
)

var whitelistCmd = &cobra.Command{
	Use:   "whitelist [path]",
	Short: "Show or extend the protected-path list",
	Long: `Show the user-defined protected paths, or add one.

Whitelisted paths, and anything under them, are never deleted by any
cleaner. System-critical locations are always protected and do not
appear here.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wl, err := whitelist.Load()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			if err := wl.Add(args[0]); err != nil {
				return fmt.Errorf("adding whitelist entry: %w", err)
			}
			fmt.Printf("protected: %s\n", args[0])
			return nil
		}

		entries := wl.Entries()
		if len(entries) == 0 {
			path, _ := whitelist.ConfigPath()
			fmt.Printf("no user-defined entries (config: %s)\n", path)
			return nil
		}
		for _, e := range entries {
			fmt.Println("  " + e)
		}
		return nil
	},
}
