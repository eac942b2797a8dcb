// Package core defines the dataset source abstraction: where the ETL-produced
// survey dataset is fetched from at startup. Sources are read-only; reefmap
// never writes survey data.
package core

import (
	"context"
	"errors"

	"reefmap/internal/parse"
)

// Driver identifies a concrete dataset source implementation.
type Driver string

const (
	// DriverFS reads a JSON dataset file from the local filesystem (default, dev).
	DriverFS Driver = "fs"
	// DriverMemory serves in-process bytes (tests).
	DriverMemory Driver = "memory"
	// DriverS3 fetches the JSON dataset object from S3 / MinIO static hosting.
	DriverS3 Driver = "s3"
	// DriverSQLite reads the ETL's sqlite export.
	DriverSQLite Driver = "sqlite"
	// DriverPostgres reads directly from the survey database.
	DriverPostgres Driver = "postgres"
)

// Source loads the raw dataset document exactly once at startup. The load
// gates all rendering: there is no retry and no further I/O afterwards.
type Source interface {
	Load(ctx context.Context) (parse.Document, error)
	Driver() Driver
}

// ErrNoDataset indicates the source had no dataset to serve.
var ErrNoDataset = errors.New("source: no dataset available")
