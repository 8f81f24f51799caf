package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/internal/cleaners"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the available cleaners",
	Run: func(cmd *cobra.Command, args []string) {
		opts := cleaners.Options{}
		for _, name := range cleaners.Names() {
			p, err := cleaners.New(name, opts)
			if err != nil {
				continue
			}
			fmt.Printf("  %-10s %s\n", p.Name(), p.Description())
		}
	},
}
