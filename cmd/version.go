package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/internal/sysinfo"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and platform information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("devsweep %s (%s) built %s\n", appVersion, appCommit, appDate)
		fmt.Printf("platform: %s\n", sysinfo.Platform())
	},
}
