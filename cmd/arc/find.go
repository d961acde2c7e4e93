package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/ui"
)

var findCmd = &cobra.Command{
	Use:     "find <name>",
	Aliases: []string{"f"},
	Short:   "Search the recipe path for packages",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		query := args[0]
		found := false

		for _, dir := range cfg.Path {
			entries, err := os.ReadDir(dir)
			if err != nil {
				continue
			}
			loader := recipe.NewLoader([]string{dir})
			for _, e := range entries {
				if !e.IsDir() || !strings.Contains(e.Name(), query) {
					continue
				}
				p, err := loader.Load(e.Name())
				if err != nil {
					continue
				}
				ui.Info("%s %s (%s)", ui.Accent(p.Name), p.Version(), dir)
				found = true
			}
		}

		if !found {
			ui.Warn("No packages matching %s", query)
		}
		return nil
	},
}
