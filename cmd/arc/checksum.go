package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/source"
	"github.com/arcpm/arc/internal/ui"
)

var checksumCmd = &cobra.Command{
	Use:     "checksum",
	Aliases: []string{"c"},
	Short:   "Generate checksums for the recipe in the current directory",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := recipe.NewLoader(cfg.Path)
		p, err := loader.Load(".")
		if err != nil {
			return err
		}

		ui.Info("Downloading sources")
		paths, err := source.NewCache(cfg.DownloadDir).Fetch(p, true)
		if err != nil {
			return err
		}

		sums, err := source.Checksums(paths)
		if err != nil {
			return err
		}

		ui.Info("Add the following to package.toml under [meta]:")
		fmt.Println("checksums = [")
		for _, sum := range sums {
			fmt.Printf("  %q,\n", sum)
		}
		fmt.Println("]")
		return nil
	},
}
