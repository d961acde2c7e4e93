package main

import (
	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/source"
	"github.com/arcpm/arc/internal/ui"
)

var downloadCmd = &cobra.Command{
	Use:     "download <package>...",
	Aliases: []string{"d"},
	Short:   "Download package sources",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := recipe.NewLoader(cfg.Path)
		packs, err := loader.Resolve(args)
		if err != nil {
			return err
		}

		cache := source.NewCache(cfg.DownloadDir)
		ui.Info("Downloading sources")
		for _, p := range packs {
			if _, err := cache.Fetch(p, true); err != nil {
				return err
			}
		}
		return nil
	},
}
