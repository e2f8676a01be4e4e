package cmd

import (
	"fmt"

	"buildenv/logging"
	"buildenv/truststore"

	"github.com/spf13/cobra"
)

// AliasesOutput is the JSON form of the aliases command
type AliasesOutput struct {
	Path    string            `json:"path"`
	Format  truststore.Format `json:"format"`
	Aliases []string          `json:"aliases"`
}

var aliasesCmd = &cobra.Command{
	Use:   "aliases [path]",
	Short: "List the entries of a trust store",
	Long: `List the aliases of a trust store. Without a path, the augmented output store is listed.
Examples:
  buildenv aliases                                  # The configured output store
  buildenv aliases /opt/jdk-21/lib/security/cacerts # Any JKS or PKCS12 store`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration is not loaded")
		}

		path := cfg.TrustStore.OutputPath
		if len(args) == 1 {
			path = args[0]
		}
		return handleAliases(path)
	},
}

func handleAliases(path string) error {
	format, aliases, err := truststore.ListAliases(fsys, path, cfg.Password())
	if err != nil {
		return err
	}

	if jsonOutput {
		return OutputJSON(AliasesOutput{Path: path, Format: format, Aliases: aliases})
	}

	logging.LogOutput("%s trust store %s:", format, path)
	logging.LogOutput("─────────────────────")
	if len(aliases) == 0 {
		logging.LogOutput("No entries")
		return nil
	}
	for _, alias := range aliases {
		logging.LogOutput("✅ %s", alias)
	}
	logging.LogOutput("")
	logging.LogOutput("💡 %d entries", len(aliases))
	return nil
}
