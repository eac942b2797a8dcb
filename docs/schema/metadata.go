// Package schema exposes the embedded dataset document schema and its version
// for runtime use.
package schema

import (
	_ "embed"
	"encoding/json"
	"sync"
)

type schemaDoc struct {
	Title   string `json:"title"`
	Version string `json:"version"`
}

// Dataset document JSON Schema embedded for runtime exposure. The ETL
// validates exports against the same file.
//
//go:embed dataset-schema.json
var datasetSchema []byte

var (
	docOnce sync.Once
	doc     schemaDoc
	docErr  error
)

func load() (schemaDoc, error) {
	docOnce.Do(func() {
		docErr = json.Unmarshal(datasetSchema, &doc)
	})
	return doc, docErr
}

// Version returns the dataset schema version string.
func Version() (string, error) {
	d, err := load()
	if err != nil {
		return "", err
	}
	return d.Version, nil
}

// Schema returns a defensive copy of the embedded dataset JSON Schema.
func Schema() []byte {
	return append([]byte(nil), datasetSchema...)
}
