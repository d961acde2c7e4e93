package main

import (
	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/install"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/ui"
)

var upgradeCmd = &cobra.Command{
	Use:     "upgrade",
	Aliases: []string{"u"},
	Short:   "Rebuild all packages whose recipe version changed",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store := install.NewStore(cfg.InstalledDir)
		loader := recipe.NewLoader(cfg.Path)

		names, err := install.Outdated(store, loader)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			ui.Info("All packages are up to date.")
			return nil
		}
		return runPipeline(names)
	},
}
