package cmd

import (
	"fmt"

	"buildenv/gradle"
	"buildenv/logging"
	"buildenv/truststore"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// Flags overriding the [truststore] and [gradle] config sections
var (
	sourceFlag      string
	certFlag        string
	outputFlag      string
	passwordEnvFlag string
	gradlePropsFlag string
)

// Status label formatters
var (
	okFmt   = color.New(color.FgGreen).SprintFunc()
	infoFmt = color.New(color.FgYellow).SprintFunc()
	dimFmt  = color.New(color.FgCyan).SprintFunc()
)

// AugmentOutput is the JSON form of an augment run
type AugmentOutput struct {
	truststore.Result
	GradleProperties string `json:"gradle_properties,omitempty"`
	PropertySet      bool   `json:"property_set,omitempty"`
	PropertyValue    string `json:"property_value,omitempty"`
}

var augmentCmd = &cobra.Command{
	Use:   "augment",
	Short: "Write a copy of the JDK trust store with the development root certificate",
	Long: `Write a copy of the JDK trust store with the development root certificate added.
The copy is only rewritten when the source trust store is newer than it.
When no source trust store exists, nothing is written.`,
	Example: `  # Use JAVA_HOME's cacerts and the configured certificate
  buildenv augment

  # Explicit paths, publishing the result to gradle.properties
  buildenv augment --source /opt/jdk-21/lib/security/cacerts --cert dev-root.pem \
    --output build/tmp/cacerts+dev --gradle-properties gradle.properties`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			return fmt.Errorf("configuration is not loaded")
		}
		return handleAugment()
	},
}

func init() {
	augmentCmd.Flags().StringVar(&sourceFlag, "source", "", "Trust store to copy (default: cacerts under JAVA_HOME)")
	augmentCmd.Flags().StringVar(&certFlag, "cert", "", "PEM or DER certificate to add")
	augmentCmd.Flags().StringVar(&outputFlag, "output", "", "Where to write the augmented trust store")
	augmentCmd.Flags().StringVar(&passwordEnvFlag, "password-env", "", "Environment variable holding the trust store password")
	augmentCmd.Flags().StringVar(&gradlePropsFlag, "gradle-properties", "", "gradle.properties file to point at the augmented trust store")
}

func handleAugment() error {
	applyAugmentFlags()

	source := cfg.TrustStore.SourcePath
	if source == "" {
		detected, err := truststore.DetectDefaultSource(fsys, "")
		if err != nil {
			return err
		}
		source = detected
	}

	opts := truststore.Options{
		SourcePath: source,
		CertPath:   cfg.TrustStore.CertPath,
		OutputPath: cfg.TrustStore.OutputPath,
		Password:   cfg.Password(),
	}
	res, err := truststore.NewAugmenter(fsys).Augment(opts)
	if err != nil {
		return err
	}

	out := AugmentOutput{Result: res}
	if props := cfg.Gradle.PropertiesPath; props != "" && res.Status != truststore.StatusSourceMissing {
		set, value, err := gradle.SetTrustStoreProperty(fsys, props, res.TrustStorePath)
		if err != nil {
			return err
		}
		out.GradleProperties = props
		out.PropertySet = set
		out.PropertyValue = value
		if !set && value != res.TrustStorePath {
			logging.LogWarn("⚠️  %s keeps %s=%s", props, gradle.TrustStoreProperty, value)
		}
	}

	if jsonOutput {
		return OutputJSON(out)
	}
	printAugmentResult(out)
	return nil
}

func applyAugmentFlags() {
	if sourceFlag != "" {
		cfg.TrustStore.SourcePath = sourceFlag
	}
	if certFlag != "" {
		cfg.TrustStore.CertPath = certFlag
	}
	if outputFlag != "" {
		cfg.TrustStore.OutputPath = outputFlag
	}
	if passwordEnvFlag != "" {
		cfg.TrustStore.PasswordEnv = passwordEnvFlag
	}
	if gradlePropsFlag != "" {
		cfg.Gradle.PropertiesPath = gradlePropsFlag
	}
}

func printAugmentResult(out AugmentOutput) {
	switch out.Status {
	case truststore.StatusSourceMissing:
		logging.LogOutput("%s no source trust store, nothing written", infoFmt("skipped:"))
		return
	case truststore.StatusUpToDate:
		logging.LogOutput("%s %s", dimFmt("up to date:"), out.TrustStorePath)
	default:
		logging.LogOutput("%s %s (alias %s)", okFmt("augmented:"), out.TrustStorePath, out.Alias)
	}
	if out.PropertySet {
		logging.LogOutput("%s %s in %s", okFmt("set:"), gradle.TrustStoreProperty, out.GradleProperties)
	}
}
