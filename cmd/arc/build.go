package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/build"
	"github.com/arcpm/arc/internal/install"
	"github.com/arcpm/arc/internal/recipe"
	"github.com/arcpm/arc/internal/resolver"
	"github.com/arcpm/arc/internal/source"
	"github.com/arcpm/arc/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:     "build <package>...",
	Aliases: []string{"b"},
	Short:   "Build packages and their dependencies",
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPipeline(args)
	},
}

// runPipeline drives the full build: resolve the dependency closure,
// present the plan, fetch and verify every source, then build and
// install layer by layer (make dependencies first, deepest layers
// first). The explicit set is built last and installed only after a
// second confirmation.
func runPipeline(names []string) error {
	loader := recipe.NewLoader(cfg.Path)
	store := install.NewStore(cfg.InstalledDir)

	seeds, err := loader.Resolve(names)
	if err != nil {
		return err
	}

	res := resolver.New(loader, store.IsInstalled)
	deps, mkdeps, err := res.Resolve(seeds, 1)
	if err != nil {
		return err
	}

	inDeps := make(map[string]bool)
	for _, p := range deps {
		inDeps[p.Name] = true
	}
	for _, p := range mkdeps {
		inDeps[p.Name] = true
	}

	var rows []ui.Row
	for _, p := range seeds {
		if inDeps[p.Name] {
			continue
		}
		rows = append(rows, ui.Row{Name: p.Name, Version: p.Version(), Note: "(explicit)"})
	}
	for _, p := range mkdeps {
		rows = append(rows, ui.Row{Name: p.Name, Version: p.Version(), Note: fmt.Sprintf("(layer %d, make)", p.Depth)})
	}
	for _, p := range deps {
		rows = append(rows, ui.Row{Name: p.Name, Version: p.Version(), Note: fmt.Sprintf("(layer %d)", p.Depth)})
	}

	for _, p := range seeds {
		if store.IsInstalled(p.Name, p.Version()) {
			ui.Warn("Package %s is up to date - reinstalling", p.Name)
		}
	}

	ui.Info("Building packages:")
	ui.Blank()
	ui.RenderPlan(ui.Output, rows)
	ui.Blank()
	if err := ui.Confirm(yesFlag); err != nil {
		return err
	}

	all := make([]*recipe.Package, 0, len(mkdeps)+len(deps)+len(seeds))
	all = append(all, mkdeps...)
	all = append(all, deps...)
	all = append(all, seeds...)

	cache := source.NewCache(cfg.DownloadDir)
	ui.Info("Downloading sources")
	for _, p := range all {
		if p.Sources, err = cache.Fetch(p, false); err != nil {
			return err
		}
	}
	ui.Blank()

	ui.Info("Verifying checksums")
	for _, p := range all {
		if err := source.Verify(p.Sources, p.Manifest.Meta.Checksums, p.Name); err != nil {
			return err
		}
	}
	ui.Blank()

	builder := build.New(cfg, build.WithVerbose(verboseFlag || cfg.VerboseBuilds))
	installer := install.NewInstaller(cfg, store, install.WithAssumeYes(yesFlag))

	for _, layer := range resolver.Layers(mkdeps) {
		if err := builder.Build(layer); err != nil {
			return err
		}
		ui.Info("Installing layer %d make dependencies", layer[0].Depth)
		if err := installer.Install(layer); err != nil {
			return err
		}
	}
	for _, layer := range resolver.Layers(deps) {
		if err := builder.Build(layer); err != nil {
			return err
		}
		ui.Info("Installing layer %d dependencies", layer[0].Depth)
		if err := installer.Install(layer); err != nil {
			return err
		}
	}

	if err := builder.Build(seeds); err != nil {
		return err
	}

	ui.Info("Installing built packages.")
	if err := ui.Confirm(yesFlag); err != nil {
		return err
	}
	return installer.Install(seeds)
}
