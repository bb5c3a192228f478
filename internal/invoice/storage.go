package invoice

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store writes normalized invoice documents as JSON files
type Store interface {
	// WriteDocument writes doc as pretty-printed JSON at the given path
	// relative to the store root, creating directories as needed.
	// Returns the absolute path written.
	WriteDocument(relPath string, doc *Object) (string, error)
}

// LocalStore implements Store on the local filesystem. The output tree
// mirrors the source tree: an invoice found at scans/2024/jan/a.png is
// written to <base>/2024/jan/a.json.
type LocalStore struct {
	basePath string
}

// NewLocalStore creates the output directory if needed
func NewLocalStore(basePath string) (*LocalStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}
	return &LocalStore{basePath: basePath}, nil
}

// WriteDocument writes the document as UTF-8 pretty-printed JSON with
// keys in document (schema) order
func (l *LocalStore) WriteDocument(relPath string, doc *Object) (string, error) {
	path := filepath.Join(l.basePath, relPath)
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("creating directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling document: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return path, nil
}
