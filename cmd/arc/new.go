package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

// pkgTemplate is the scaffold manifest for a fresh recipe.
const pkgTemplate = `[meta]
version = ""
maintainer = ""
sources = []
checksums = []

[deps]

[mkdeps]
`

// buildTemplate is the scaffold build script.
const buildTemplate = "#!/bin/sh -e\n"

var newCmd = &cobra.Command{
	Use:     "new <name>",
	Aliases: []string{"n"},
	Short:   "Create a blank package recipe",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		if err := os.Mkdir(name, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", name, err)
		}
		manifest := filepath.Join(name, "package.toml")
		if err := os.WriteFile(manifest, []byte(pkgTemplate), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", manifest, err)
		}
		script := filepath.Join(name, "build")
		if err := os.WriteFile(script, []byte(buildTemplate), 0755); err != nil {
			return fmt.Errorf("failed to write %s: %w", script, err)
		}
		return nil
	},
}
