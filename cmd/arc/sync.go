package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/ui"
)

var syncCmd = &cobra.Command{
	Use:     "sync",
	Aliases: []string{"s"},
	Short:   "Sync remote repositories",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return syncRepos()
	},
}

// syncRepos pulls every search-path directory that is a git checkout.
func syncRepos() error {
	for _, dir := range cfg.Path {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err != nil {
			continue
		}
		ui.Info("Syncing %s", dir)
		pull := exec.Command("git", "-C", dir, "pull")
		pull.Stdout = os.Stderr
		pull.Stderr = os.Stderr
		if err := pull.Run(); err != nil {
			return fmt.Errorf("failed to sync %s: %w", dir, err)
		}
	}
	return nil
}
