// Package gradle hands the augmented trust store over to a Gradle build
// through its gradle.properties file.
package gradle

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"buildenv/logging"

	"github.com/magiconair/properties"
	"github.com/spf13/afero"
)

// TrustStoreProperty is the JVM system property Gradle forwards to its daemon
const TrustStoreProperty = "systemProp.javax.net.ssl.trustStore"

// SetTrustStoreProperty points the build at path by setting TrustStoreProperty in
// the properties file at propsPath. A value that is already there wins and the
// file is left untouched. It reports whether the file was changed and the value
// now in effect. A missing file is created.
func SetTrustStoreProperty(fs afero.Fs, propsPath, path string) (bool, string, error) {
	data, err := afero.ReadFile(fs, propsPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, "", fmt.Errorf("failed to read %s: %w", propsPath, err)
	}

	props, err := properties.Load(data, properties.ISO_8859_1)
	if err != nil {
		return false, "", fmt.Errorf("failed to parse %s: %w", propsPath, err)
	}
	if existing, ok := props.Get(TrustStoreProperty); ok {
		logging.LogDebug("ℹ️  %s already set to %s, leaving %s alone", TrustStoreProperty, existing, propsPath)
		return false, existing, nil
	}

	// Append rather than rewrite so comments and layout of the file survive
	line := properties.NewProperties()
	if _, _, err := line.Set(TrustStoreProperty, path); err != nil {
		return false, "", fmt.Errorf("failed to set %s: %w", TrustStoreProperty, err)
	}
	var buf bytes.Buffer
	buf.Write(data)
	if len(data) > 0 && data[len(data)-1] != '\n' {
		buf.WriteByte('\n')
	}
	if _, err := line.Write(&buf, properties.ISO_8859_1); err != nil {
		return false, "", fmt.Errorf("failed to encode %s: %w", TrustStoreProperty, err)
	}

	if err := writeReplace(fs, propsPath, buf.Bytes()); err != nil {
		return false, "", err
	}
	logging.LogInfo("✅ Set %s in %s", TrustStoreProperty, propsPath)
	return true, path, nil
}

func writeReplace(fs afero.Fs, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	mode := os.FileMode(0644)
	if info, err := fs.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	defer fs.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := fs.Chmod(tmpName, mode); err != nil {
		logging.LogDebug("⚠️  Could not set mode on %s: %v", tmpName, err)
	}
	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
