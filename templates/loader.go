package templates

import (
	"fmt"
	"os"
	"path/filepath"
)

// LoadQueryFromFile returns the contents of a .graphql file verbatim.
// Relative paths are resolved against the working directory.
func LoadQueryFromFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to load query from %s: %w", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("failed to load query from %s: %w", path, err)
	}
	return string(data), nil
}
