package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/devsweep/devsweep/internal/cleaners"
)

// helpCmd extends cobra's help so that cleaner names are help topics too:
// `devsweep help docker` describes the docker cleaner.
var helpCmd = &cobra.Command{
	Use:   "help [command or cleaner]",
	Short: "Help about any command or cleaner",
	Run: func(cmd *cobra.Command, args []string) {
		if len(args) == 1 {
			if p, err := cleaners.New(args[0], cleaners.Options{}); err == nil {
				fmt.Printf("%s - %s\n\n", p.Name(), p.Description())
				fmt.Println("Usage:")
				fmt.Printf("  devsweep clean %s [--days N] [--dry-run]\n", p.Name())
				return
			}
		}

		target, _, err := rootCmd.Find(args)
		if target == nil || err != nil {
			fmt.Printf("Unknown help topic %v\n", args)
			_ = rootCmd.Usage()
			return
		}
		_ = target.Help()
	},
}
