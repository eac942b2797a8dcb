// Package s3 implements the dataset source over an S3-compatible bucket, for
// deployments where the ETL publishes the dataset to static hosting.
package s3

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"reefmap/internal/parse"
	"reefmap/internal/source/core"
)

// Store fetches the dataset object from a single bucket/key.
type Store struct {
	client *s3.Client
	bucket string
	key    string
}

// Config holds explicit construction parameters (mostly for tests). For prod
// we rely primarily on environment variables.
type Config struct {
	Region     string
	Bucket     string
	Key        string
	Endpoint   string // optional; enables custom endpoint (e.g. MinIO)
	PathStyle  bool
	HTTPClient aws.HTTPClient // optional transport override (tests)
}

// Environment variables:
//
//	REEFMAP_DATASET_SOURCE=s3
//	REEFMAP_DATASET_S3_BUCKET=<bucket> (required)
//	REEFMAP_DATASET_S3_KEY=<object key> (default dataset.json)
//	REEFMAP_DATASET_S3_REGION=<region> (default us-east-1)
//	REEFMAP_DATASET_S3_ENDPOINT=<url> (optional, for MinIO)
//	REEFMAP_DATASET_S3_PATH_STYLE=true|false (default false)
//	AWS_ACCESS_KEY_ID / AWS_SECRET_ACCESS_KEY / AWS_SESSION_TOKEN (optional)

// New creates an S3 dataset source from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	key := cfg.Key
	if key == "" {
		key = "dataset.json"
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.HTTPClient != nil {
		loadOpts = append(loadOpts, config.WithHTTPClient(cfg.HTTPClient))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket, key: key}, nil
}

// OpenFromEnv constructs an S3 source from process environment.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("REEFMAP_DATASET_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("REEFMAP_DATASET_S3_BUCKET required for s3 source")
	}
	cfg := Config{
		Bucket:    bucket,
		Key:       os.Getenv("REEFMAP_DATASET_S3_KEY"),
		Region:    os.Getenv("REEFMAP_DATASET_S3_REGION"),
		Endpoint:  os.Getenv("REEFMAP_DATASET_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("REEFMAP_DATASET_S3_PATH_STYLE"), "true"),
	}
	return New(ctx, cfg)
}

func (s *Store) Driver() core.Driver { return core.DriverS3 }

// Load fetches and decodes the dataset object.
func (s *Store) Load(ctx context.Context) (parse.Document, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &s.key})
	if err != nil {
		return parse.Document{}, fmt.Errorf("fetch s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer func() { _ = out.Body.Close() }()
	data, err := io.ReadAll(out.Body)
	if err != nil {
		return parse.Document{}, fmt.Errorf("read s3://%s/%s: %w", s.bucket, s.key, err)
	}
	var doc parse.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return parse.Document{}, fmt.Errorf("decode s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return doc, nil
}
