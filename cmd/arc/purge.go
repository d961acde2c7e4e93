package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/ui"
)

var purgeCmd = &cobra.Command{
	Use:     "purge",
	Aliases: []string{"p"},
	Short:   "Purge the package cache",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := os.RemoveAll(cfg.CacheDir); err != nil {
			return fmt.Errorf("failed to purge %s: %w", cfg.CacheDir, err)
		}
		ui.Info("Purged %s", cfg.CacheDir)
		return nil
	},
}
