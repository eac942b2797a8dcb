// Package memory implements an in-process dataset source for tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"reefmap/internal/parse"
	"reefmap/internal/source/core"
)

// Store serves a dataset document held in memory.
type Store struct {
	doc parse.Document
}

// New constructs a memory source from an already-built document.
func New(doc parse.Document) *Store {
	return &Store{doc: doc}
}

// NewJSON constructs a memory source from raw JSON bytes.
func NewJSON(data []byte) (*Store, error) {
	var doc parse.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	return &Store{doc: doc}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverMemory }

// Load returns the held document.
func (s *Store) Load(_ context.Context) (parse.Document, error) {
	if len(s.doc.Records) == 0 && s.doc.Meta == nil {
		return parse.Document{}, core.ErrNoDataset
	}
	return s.doc, nil
}
