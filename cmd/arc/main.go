package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/arcpm/arc/internal/config"
	"github.com/arcpm/arc/internal/log"
	"github.com/arcpm/arc/internal/ui"
)

var (
	syncFlag    bool
	verboseFlag bool
	yesFlag     bool
	debugFlag   bool
)

// cfg is the process configuration, loaded once in main before any
// command runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "arc",
	Short: "A source-based package manager",
	Long: `arc builds packages from recipes: a directory holding a declarative
package.toml and an executable build script. Dependencies resolve into
layers, sources are fetched and verified against BLAKE3 checksums, and
built packages install into the running system as binary tarballs
tracked by plain-text manifests.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		initLogger()
		// -s runs a repository sync before the actual command.
		if syncFlag && cmd.Name() != "sync" {
			return syncRepos()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&syncFlag, "sync", "s", false, "Sync repositories before running the command")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Tee build output to stdout")
	rootCmd.PersistentFlags().BoolVarP(&yesFlag, "yes", "y", false, "Skip confirmation prompts")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Show debug logging")

	rootCmd.AddCommand(
		buildCmd,
		checksumCmd,
		downloadCmd,
		findCmd,
		installCmd,
		listCmd,
		newCmd,
		purgeCmd,
		removeCmd,
		syncCmd,
		upgradeCmd,
		versionCmd,
	)
}

// initLogger configures diagnostic logging on stderr. User output is
// separate and always on.
func initLogger() {
	log.Setup(debugFlag)
}

func main() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}

	if err := rootCmd.Execute(); err != nil {
		ui.Error("%v", err)
		os.Exit(1)
	}
}
