package cmd

import (
	"fmt"

	"buildenv/config"
	"buildenv/logging"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Global config variable
var cfg *config.Config

// fsys is the filesystem every command works on
var fsys afero.Fs = afero.NewOsFs()

// Global flags
var configFile string

// Root command
var rootCmd = &cobra.Command{
	Use:   "buildenv",
	Short: "buildenv - development trust store bootstrap",
	Long: `buildenv prepares a local copy of the JDK trust store with the development
root certificate added, so builds can reach internal services over TLS.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configFile)
		if err != nil {
			logging.FlushPreLogs()
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		if err := config.EnsureDirectoriesExist(cfg); err != nil {
			return fmt.Errorf("error ensuring directories: %w", err)
		}

		if err := logging.InitLogger(cfg.General.LogPath, cfg.General.LogLevel, jsonOutput || jsonLogs); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Close()
	},
}

func init() {
	logging.PreLog("DEBUG", "Initializing buildenv...")

	rootCmd.AddCommand(augmentCmd)
	rootCmd.AddCommand(aliasesCmd)
	rootCmd.AddCommand(cleanCmd)

	rootCmd.Flags().SetInterspersed(true)

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to configuration file (default: BUILDENV_CONFIG_PATH or ./buildenv.toml)")
	rootCmd.PersistentFlags().BoolVarP(&jsonOutput, "json", "j", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Output logs in JSON format")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ExitWithError(err)
	}
}
