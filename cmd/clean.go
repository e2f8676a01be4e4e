package cmd

import (
	"fmt"
	"os"

	"buildenv/logging"
	"buildenv/truststore"

	"github.com/spf13/cobra"
)

// CleanOutput is the JSON form of the clean command
type CleanOutput struct {
	Path    string `json:"path"`
	Removed bool   `json:"removed"`
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the augmented trust store",
	Long: `Remove the augmented trust store. This command will:
1. Delete the output trust store if it exists
2. Remove parent directories it leaves empty, up to the working directory`,
	Args: cobra.NoArgs,
	Run:  clean,
}

func clean(cmd *cobra.Command, args []string) {
	if err := handleClean(); err != nil {
		ExitWithError(err)
	}
}

func handleClean() error {
	if cfg == nil {
		return fmt.Errorf("configuration is not loaded")
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}

	path := cfg.TrustStore.OutputPath
	removed, err := truststore.RemoveOutput(fsys, path, cwd)
	if err != nil {
		return err
	}

	if jsonOutput {
		return OutputJSON(CleanOutput{Path: path, Removed: removed})
	}
	if removed {
		logging.LogOutput("✅ Removed %s", path)
	} else {
		logging.LogOutput("ℹ️  Nothing to clean at %s", path)
	}
	return nil
}
