package main

import (
	"runtime/debug"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/ui"
)

// version is overridden by the release build via -ldflags.
var version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the arc version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ui.Info("arc package manager version %s", buildVersion())
	},
}

// buildVersion prefers the ldflags version, falling back to module
// build info for go-install builds.
func buildVersion() string {
	if version != "dev" {
		return version
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return version
}
