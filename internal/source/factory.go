package source

import (
	"context"
	"fmt"
	"os"

	"reefmap/internal/infra/source/fs"
	"reefmap/internal/infra/source/postgres"
	"reefmap/internal/infra/source/s3"
	"reefmap/internal/infra/source/sqlite"
)

// OpenFromEnv selects a dataset source using environment variables.
// Defaults to the filesystem driver when unset.
//
//	REEFMAP_DATASET_SOURCE: fs|s3|sqlite|postgres (default fs)
//	REEFMAP_DATASET_PATH: dataset path for fs (default ./dataset.json) and sqlite
//	REEFMAP_DATASET_S3_*: bucket/key/region/endpoint for the s3 driver
//	REEFMAP_DATASET_POSTGRES_DSN: DSN when driver=postgres
func OpenFromEnv(ctx context.Context) (Source, error) {
	driver := os.Getenv("REEFMAP_DATASET_SOURCE")
	if driver == "" {
		driver = string(DriverFS)
	}
	switch Driver(driver) {
	case DriverFS:
		path := os.Getenv("REEFMAP_DATASET_PATH")
		if path == "" {
			path = "dataset.json"
		}
		return fs.New(path)
	case DriverS3:
		return s3.OpenFromEnv(ctx)
	case DriverSQLite:
		path := os.Getenv("REEFMAP_DATASET_PATH")
		if path == "" {
			return nil, fmt.Errorf("REEFMAP_DATASET_PATH required for sqlite source")
		}
		return sqlite.New(path)
	case DriverPostgres:
		dsn := os.Getenv("REEFMAP_DATASET_POSTGRES_DSN")
		if dsn == "" {
			return nil, fmt.Errorf("REEFMAP_DATASET_POSTGRES_DSN required for postgres source")
		}
		return postgres.New(ctx, dsn)
	case DriverMemory:
		return nil, fmt.Errorf("memory source is test-only and cannot be selected via environment")
	default:
		return nil, fmt.Errorf("unknown dataset source %s", driver)
	}
}
