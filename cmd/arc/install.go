package main

import (
	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/install"
	"github.com/arcpm/arc/internal/recipe"
)

var installCmd = &cobra.Command{
	Use:     "install <package>...",
	Aliases: []string{"i"},
	Short:   "Install previously built packages",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		loader := recipe.NewLoader(cfg.Path)
		packs, err := loader.Resolve(args)
		if err != nil {
			return err
		}

		store := install.NewStore(cfg.InstalledDir)
		installer := install.NewInstaller(cfg, store, install.WithAssumeYes(yesFlag))
		return installer.Install(packs)
	},
}
