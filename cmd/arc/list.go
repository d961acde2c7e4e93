package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/install"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"l"},
	Short:   "List installed packages",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := install.NewStore(cfg.InstalledDir).List()
		if err != nil {
			return err
		}
		for _, item := range items {
			switch {
			case item.Provider != "":
				fmt.Printf("%s %s (provided by %s)\n", item.Name, item.Version, item.Provider)
			case len(item.Older) > 0:
				fmt.Printf("%s %s (older: %s)\n", item.Name, item.Version, strings.Join(item.Older, ", "))
			default:
				fmt.Printf("%s %s\n", item.Name, item.Version)
			}
		}
		return nil
	},
}
