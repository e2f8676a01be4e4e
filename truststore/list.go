package truststore

import (
	"fmt"

	"github.com/spf13/afero"
)

// ListAliases opens the store at path and returns its format and sorted aliases
func ListAliases(fs afero.Fs, path string, password *string) (Format, []string, error) {
	store, _, err := LoadStore(fs, path, password)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return store.Format(), store.Aliases(), nil
}
