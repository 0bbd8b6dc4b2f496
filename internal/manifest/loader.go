package manifest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Loader loads manifests from file paths.
type Loader struct {
	basePath string
}

// NewLoader creates a loader with the given base path.
func NewLoader(basePath string) *Loader {
	return &Loader{basePath: basePath}
}

// Resolve returns the absolute-or-based path for a manifest reference.
func (l *Loader) Resolve(path string) string {
	if filepath.IsAbs(path) || l.basePath == "" {
		return path
	}
	return filepath.Join(l.basePath, path)
}

// Load reads a manifest from a file path. "-" reads standard input.
func (l *Loader) Load(path string) (*Manifest, error) {
	if path == "-" {
		return l.LoadReader(os.Stdin)
	}
	return ParseFile(l.Resolve(path))
}

// LoadReader parses a manifest from r.
func (l *Loader) LoadReader(r io.Reader) (*Manifest, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(string(data)), nil
}

// LoadAll loads multiple manifests from paths.
func (l *Loader) LoadAll(paths []string) ([]*Manifest, error) {
	manifests := make([]*Manifest, 0, len(paths))
	for _, path := range paths {
		m, err := l.Load(path)
		if err != nil {
			return nil, err
		}
		manifests = append(manifests, m)
	}
	return manifests, nil
}
