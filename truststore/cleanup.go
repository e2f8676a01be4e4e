package truststore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"buildenv/logging"

	"github.com/spf13/afero"
)

// RemoveOutput deletes an augmented trust store and then any parent directories
// left empty, stopping at boundary. It reports whether the store existed.
func RemoveOutput(fs afero.Fs, path, boundary string) (bool, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	absBoundary, err := filepath.Abs(boundary)
	if err != nil {
		return false, fmt.Errorf("failed to resolve %s: %w", boundary, err)
	}

	if err := fs.Remove(absPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.LogDebug("ℹ️  Nothing to remove at %s", absPath)
			return false, nil
		}
		return false, fmt.Errorf("failed to remove trust store: %w", err)
	}
	logging.LogDebug("🧹 Removed %s", absPath)

	parent := filepath.Dir(absPath)
	for parent != absBoundary && strings.HasPrefix(parent, absBoundary+string(filepath.Separator)) {
		empty, err := afero.IsEmpty(fs, parent)
		if err != nil || !empty {
			break
		}
		if err := fs.Remove(parent); err != nil {
			break
		}
		logging.LogDebug("🧹 Removed empty directory %s", parent)
		parent = filepath.Dir(parent)
	}
	return true, nil
}
