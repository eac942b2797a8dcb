// Package source re-exports the dataset source abstractions for stable
// imports. Only this package may depend on the infra drivers; everything else
// consumes the Source interface.
package source

import (
	"reefmap/internal/source/core"
)

type (
	// Driver identifies a dataset source backend.
	Driver = core.Driver
	// Source is the interface dataset source backends implement.
	Source = core.Source
)

const (
	// DriverFS is the local filesystem JSON driver.
	DriverFS = core.DriverFS
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
	// DriverS3 is the S3-compatible static hosting driver.
	DriverS3 = core.DriverS3
	// DriverSQLite is the sqlite export driver.
	DriverSQLite = core.DriverSQLite
	// DriverPostgres is the survey database driver.
	DriverPostgres = core.DriverPostgres
)

// ErrNoDataset indicates the source had no dataset to serve.
var ErrNoDataset = core.ErrNoDataset
