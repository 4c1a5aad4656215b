package reporting

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultPathManager implements PathManager
type DefaultPathManager struct {
	root string
}

// NewDefaultPathManager creates a path manager rooted at the given directory
func NewDefaultPathManager(root string) *DefaultPathManager {
	if root == "" {
		root = "results"
	}
	return &DefaultPathManager{root: root}
}

// DefaultOutputDir builds the per-run output directory from the date range
func (p *DefaultPathManager) DefaultOutputDir(start, end string) string {
	return filepath.Join(p.root, fmt.Sprintf("%s_%s", start, end))
}

// EnsureDirectoryExists creates the directory if needed
func (p *DefaultPathManager) EnsureDirectoryExists(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
