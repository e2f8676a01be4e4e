package config

import (
	"buildenv/logging"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml"
)

const (
	// EnvConfigPath overrides the default configuration file location
	EnvConfigPath = "BUILDENV_CONFIG_PATH"

	// DefaultConfigFile is read from the working directory when nothing else is set
	DefaultConfigFile = "buildenv.toml"

	DefaultCertPath    = "dev-root.pem"
	DefaultOutputPath  = "build/tmp/cacerts+dev"
	DefaultPasswordEnv = "BUILDENV_TRUSTSTORE_PASSWORD"
)

var validLogLevels = []string{"trace", "debug", "info", "warn", "error"}

// GeneralConfig holds general configuration parameters
type GeneralConfig struct {
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

// TrustStoreConfig describes the trust store to augment and where the copy goes
type TrustStoreConfig struct {
	SourcePath  string `toml:"source_path"` // empty: detected from JAVA_HOME
	CertPath    string `toml:"cert_path"`
	OutputPath  string `toml:"output_path"`
	PasswordEnv string `toml:"password_env"` // name of the env var holding the store password
}

// GradleConfig controls where the trust store property is published
type GradleConfig struct {
	PropertiesPath string `toml:"properties_path"`
}

// Config represents the main configuration structure
type Config struct {
	General    GeneralConfig    `toml:"general"`
	TrustStore TrustStoreConfig `toml:"truststore"`
	Gradle     GradleConfig     `toml:"gradle"`
}

// Defaults returns the configuration used when no file overrides it
func Defaults() *Config {
	return &Config{
		General: GeneralConfig{LogLevel: "info"},
		TrustStore: TrustStoreConfig{
			CertPath:    DefaultCertPath,
			OutputPath:  DefaultOutputPath,
			PasswordEnv: DefaultPasswordEnv,
		},
	}
}

// applyDefaults fills keys the file left empty
func (c *Config) applyDefaults() {
	d := Defaults()
	if c.General.LogLevel == "" {
		c.General.LogLevel = d.General.LogLevel
	}
	if c.TrustStore.CertPath == "" {
		c.TrustStore.CertPath = d.TrustStore.CertPath
	}
	if c.TrustStore.OutputPath == "" {
		c.TrustStore.OutputPath = d.TrustStore.OutputPath
	}
	if c.TrustStore.PasswordEnv == "" {
		c.TrustStore.PasswordEnv = d.TrustStore.PasswordEnv
	}
}

// ExpandTilde expands ~ to the user's home directory
func ExpandTilde(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// ResolvePath picks the configuration file path.
// Priority: cliPath > BUILDENV_CONFIG_PATH env var > ./buildenv.toml
// The second return value reports whether the path was chosen explicitly.
func ResolvePath(cliPath string) (string, bool) {
	if cliPath != "" {
		return cliPath, true
	}
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath, true
	}
	return DefaultConfigFile, false
}

// LoadConfig loads and parses the configuration file.
// A missing default file yields Defaults(); a missing explicit file is an error.
func LoadConfig(cliPath string) (*Config, error) {
	configPath, explicit := ResolvePath(cliPath)

	logging.PreLog("DEBUG", "📂 Loading configuration from: %s", configPath)

	file, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			logging.PreLog("DEBUG", "📂 No %s found, using defaults", configPath)
			cfg := Defaults()
			return cfg, cfg.Validate()
		}
		logging.PreLog("ERROR", "❌ Failed to read config file: %v", err)
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := toml.Unmarshal(file, cfg); err != nil {
		errMsg := strings.ToLower(err.Error())
		if strings.Contains(errMsg, "duplicate") || strings.Contains(errMsg, "already defined") {
			logging.PreLog("ERROR", "💡 Hint: you have duplicate keys in %s", configPath)
		}
		logging.PreLog("ERROR", "❌ Failed to parse config file: %v", err)
		return nil, fmt.Errorf("failed to parse config file '%s': %w", configPath, err)
	}

	cfg.applyDefaults()
	logging.PreLog("DEBUG", "🔍 Decoded Config: %+v", *cfg)
	logging.SetPreLogLevel(cfg.General.LogLevel)

	if err := cfg.Validate(); err != nil {
		logging.PreLog("ERROR", "❌ Configuration validation failed: %v", err)
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logging.PreLog("DEBUG", "✅ Configuration successfully loaded and validated.")
	return cfg, nil
}

// Validate checks the configuration validity and expands ~ in paths
func (c *Config) Validate() error {
	if c.General.LogLevel == "" {
		c.General.LogLevel = "info"
	}
	level := strings.ToLower(c.General.LogLevel)
	valid := false
	for _, l := range validLogLevels {
		if l == level {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("log_level must be one of %s, got %q", strings.Join(validLogLevels, ", "), c.General.LogLevel)
	}

	if c.TrustStore.CertPath == "" {
		return fmt.Errorf("truststore.cert_path must be set")
	}
	if c.TrustStore.OutputPath == "" {
		return fmt.Errorf("truststore.output_path must be set")
	}

	for _, p := range []*string{
		&c.General.LogPath,
		&c.TrustStore.SourcePath,
		&c.TrustStore.CertPath,
		&c.TrustStore.OutputPath,
		&c.Gradle.PropertiesPath,
	} {
		expanded, err := ExpandTilde(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}

	return nil
}

// Password returns the trust store password from the configured env var.
// A nil result means no password was supplied.
func (c *Config) Password() *string {
	if c.TrustStore.PasswordEnv == "" {
		return nil
	}
	if v, ok := os.LookupEnv(c.TrustStore.PasswordEnv); ok {
		return &v
	}
	return nil
}

// EnsureDirectoriesExist creates the log directory and the output store's parent
func EnsureDirectoriesExist(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil, cannot ensure directories")
	}

	paths := []string{filepath.Dir(cfg.TrustStore.OutputPath)}
	if cfg.General.LogPath != "" {
		paths = append(paths, cfg.General.LogPath)
	} else {
		logging.PreLog("DEBUG", "LogPath is empty. Logs will be written only to stderr.")
	}

	for _, path := range paths {
		if err := os.MkdirAll(path, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, err)
		}
	}
	return nil
}
