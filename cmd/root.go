package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/soda-framework/installer/internal/config"
	"github.com/soda-framework/installer/internal/logger"
)

// version is stamped at release time with
// -ldflags "-X github.com/soda-framework/installer/cmd.version=vX.Y.Z".
// When empty the version embedded by `go install` is used.
var version string

// debug flag indicates whether debug logging should be enabled.
var debug bool

// configPath is the optional YAML file layered over the built-in defaults.
var configPath string

// cfg is the configuration loaded before any subcommand runs.
var cfg = config.Default()

// rootCmd is the base command for the `soda` CLI.
var rootCmd = &cobra.Command{
	Use:           "soda",
	Short:         "Soda CMS application installer",
	SilenceUsage:  true,
	SilenceErrors: true,

	// PersistentPreRunE sets up logging and loads the configuration before any subcommand.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		noAnsi, _ := cmd.Flags().GetBool("no-ansi")
		logger.Init(debug, noAnsi)

		loaded, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		logger.Debug("[DEBUG] Configuration: release=%s package=%s archive=%s/%s\n",
			cfg.Release, cfg.Package, cfg.Framework.ArchiveURL, cfg.Framework.ArchiveFormat)
		return nil
	},
}

// Execute registers flags and subcommands and runs the CLI. Any error ends
// the process with exit status 1.
func Execute() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to an optional configuration file")
	if version != "" {
		rootCmd.Version = version
	}

	rootCmd.AddCommand(newCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Error("[ERROR] %v\n", err)
		os.Exit(1)
	}
}
