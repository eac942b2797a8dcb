// Package fs implements the dataset source over a local JSON file.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"reefmap/internal/parse"
	"reefmap/internal/source/core"
)

// Store reads the dataset document from a JSON file on disk.
type Store struct {
	path string
}

// New constructs a filesystem source for the given path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("fs source: path required")
	}
	return &Store{path: path}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverFS }

// Load reads and decodes the dataset file.
func (s *Store) Load(_ context.Context) (parse.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return parse.Document{}, fmt.Errorf("%w: %s", core.ErrNoDataset, s.path)
		}
		return parse.Document{}, fmt.Errorf("read dataset %s: %w", s.path, err)
	}
	var doc parse.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return parse.Document{}, fmt.Errorf("decode dataset %s: %w", s.path, err)
	}
	return doc, nil
}

// Path returns the configured dataset path.
func (s *Store) Path() string { return s.path }
