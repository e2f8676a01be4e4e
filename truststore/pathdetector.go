package truststore

import (
	"fmt"
	"os"
	"path/filepath"

	"buildenv/logging"

	"github.com/spf13/afero"
)

// Format identifies a keystore container format
type Format string

const (
	FormatJKS    Format = "JKS"
	FormatPKCS12 Format = "PKCS12"
)

// DetectDefaultSource finds the cacerts file of the JDK at javaHome.
// An empty javaHome falls back to $JAVA_HOME. It tries in order:
//  1. jre/lib/security/cacerts (Java 8 and earlier)
//  2. lib/security/cacerts (Java 9+)
func DetectDefaultSource(fs afero.Fs, javaHome string) (string, error) {
	if javaHome == "" {
		javaHome = os.Getenv("JAVA_HOME")
	}
	if javaHome == "" {
		return "", fmt.Errorf("JAVA_HOME is not set and no source trust store is configured")
	}
	logging.LogDebug("🔍 Detecting cacerts path in JDK at %s", javaHome)

	java8Path := filepath.Join(javaHome, "jre", "lib", "security", "cacerts")
	if info, err := fs.Stat(java8Path); err == nil && !info.IsDir() {
		logging.LogDebug("✅ Detected Java 8 cacerts at: %s", java8Path)
		return java8Path, nil
	}

	java9Path := filepath.Join(javaHome, "lib", "security", "cacerts")
	if info, err := fs.Stat(java9Path); err == nil && !info.IsDir() {
		logging.LogDebug("✅ Detected Java 9+ cacerts at: %s", java9Path)
		return java9Path, nil
	}

	// The source may legitimately be absent; report the modern location so the
	// augmenter treats it as a missing source rather than failing here.
	logging.LogDebug("⚠️  No cacerts found under %s", javaHome)
	return java9Path, nil
}

// DetectFormat determines the keystore format from its leading bytes
func DetectFormat(data []byte) (Format, error) {
	if len(data) < 4 {
		return "", fmt.Errorf("keystore too short to detect format (%d bytes)", len(data))
	}

	// JKS magic number: 0xFEEDFEED
	if data[0] == 0xFE && data[1] == 0xED && data[2] == 0xFE && data[3] == 0xED {
		return FormatJKS, nil
	}

	// PKCS12: ASN.1 SEQUENCE tag
	if data[0] == 0x30 {
		return FormatPKCS12, nil
	}

	return "", fmt.Errorf("unknown keystore format (magic bytes: %02x %02x %02x %02x)", data[0], data[1], data[2], data[3])
}
