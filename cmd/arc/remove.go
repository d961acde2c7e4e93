package main

import (
	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/install"
)

var removeCmd = &cobra.Command{
	Use:     "remove <package>...",
	Aliases: []string{"r"},
	Short:   "Remove installed packages",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := install.NewStore(cfg.InstalledDir)
		return install.NewRemover(store).Remove(args)
	},
}
